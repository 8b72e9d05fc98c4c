package service

import (
	"fmt"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// QR image sizes in pixels. Requests outside the min/max bounds are
// clamped; the size is caller-controlled and a huge value would otherwise
// allocate a size×size image per request.
const (
	DefaultQRSize = 256
	MinQRSize     = 64
	MaxQRSize     = 1024
)

// ShareService builds the public page URL for a card, the prefilled
// tweet-intent link, and the QR code image encoding the page URL.
type ShareService struct {
	baseURL string
}

// NewShareService creates a new ShareService instance. baseURL is the
// public origin the frontend is served from.
func NewShareService(baseURL string) *ShareService {
	return &ShareService{baseURL: strings.TrimRight(baseURL, "/")}
}

// ProfileURL returns the public page URL for a card published under the
// given normalized name.
func (s *ShareService) ProfileURL(normalizedName string) string {
	return s.baseURL + "/cards/" + url.PathEscape(normalizedName)
}

// TweetIntentURL returns a prefilled share link for the given card page.
func (s *ShareService) TweetIntentURL(displayName, profileURL string) string {
	v := url.Values{}
	v.Set("text", fmt.Sprintf("%sさんの囲碁名刺です！\n", displayName))
	v.Set("url", profileURL)
	return "https://x.com/intent/tweet?" + v.Encode()
}

// QRCodePNG renders a QR code encoding the given URL. size <= 0 falls back
// to DefaultQRSize; other values are clamped to [MinQRSize, MaxQRSize].
func (s *ShareService) QRCodePNG(pageURL string, size int) ([]byte, error) {
	switch {
	case size <= 0:
		size = DefaultQRSize
	case size < MinQRSize:
		size = MinQRSize
	case size > MaxQRSize:
		size = MaxQRSize
	}
	png, err := qrcode.Encode(pageURL, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}
