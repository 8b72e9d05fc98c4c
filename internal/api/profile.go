package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/igocard/backend/internal/middleware"
	"github.com/igocard/backend/internal/models"
	"github.com/igocard/backend/internal/service"
	"github.com/igocard/backend/internal/types"
)

// ShareLinks are the ready-made share targets for one public card page.
type ShareLinks struct {
	PageURL  string `json:"page_url"`
	TweetURL string `json:"tweet_url"`
	QRURL    string `json:"qr_url"`
}

// ProfileResponse is the card record plus its share links.
type ProfileResponse struct {
	Profile *models.Profile `json:"profile"`
	Share   ShareLinks      `json:"share"`
}

type ProfileHandler struct {
	profileService service.IProfileService
	shareService   *service.ShareService
	authService    service.IAuthService
}

func NewProfileHandler(profileService service.IProfileService, shareService *service.ShareService, authService service.IAuthService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		shareService:   shareService,
		authService:    authService,
	}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	cards := router.Group("/profiles")
	{
		cards.GET("/:name", h.GetProfileByName)
		cards.GET("/:name/qr", h.GetProfileQR)
	}

	profile := router.Group("/profile")
	profile.Use(middleware.AuthMiddleware(h.authService))
	{
		profile.GET("", h.GetMyProfile)
		profile.POST("", h.CreateProfile)
		profile.PUT("", h.UpdateProfile)
	}
}

// GetProfileByName serves the public card page data. Lookup misses are a
// normal outcome and answer 404 without an error log.
func (h *ProfileHandler) GetProfileByName(c *gin.Context) {
	profile, err := h.profileService.LookupByNormalizedName(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}

	c.JSON(http.StatusOK, h.profileResponse(profile))
}

// GetProfileQR renders the QR code that encodes the public card page URL.
func (h *ProfileHandler) GetProfileQR(c *gin.Context) {
	profile, err := h.profileService.LookupByNormalizedName(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}

	size, _ := strconv.Atoi(c.Query("size"))
	png, err := h.shareService.QRCodePNG(h.shareService.ProfileURL(profile.NormalizedName), size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render QR code"})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// GetMyProfile returns the signed-in caller's own card. 404 tells the
// client the right next action is create rather than edit.
func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	profile, err := h.profileService.LookupByOwnerID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}

	c.JSON(http.StatusOK, h.profileResponse(profile))
}

func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	draft, icon, ok := parseSubmission(c)
	if !ok {
		return
	}

	profile, err := h.profileService.Create(c.Request.Context(), userID, draft, icon)
	if err != nil {
		h.writeProfileError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.profileResponse(profile))
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	draft, icon, ok := parseSubmission(c)
	if !ok {
		return
	}

	profile, err := h.profileService.Update(c.Request.Context(), userID, draft, icon)
	if err != nil {
		h.writeProfileError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.profileResponse(profile))
}

func (h *ProfileHandler) writeProfileError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verr.Fields.ToMap(), "details": verr.Fields})
	case errors.Is(err, service.ErrProfileExists):
		c.JSON(http.StatusConflict, gin.H{"error": "a profile already exists for this account", "code": "ALREADY_EXISTS"})
	case errors.Is(err, service.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save profile"})
	}
}

func (h *ProfileHandler) profileResponse(profile *models.Profile) ProfileResponse {
	pageURL := h.shareService.ProfileURL(profile.NormalizedName)
	return ProfileResponse{
		Profile: profile,
		Share: ShareLinks{
			PageURL:  pageURL,
			TweetURL: h.shareService.TweetIntentURL(profile.DisplayName, pageURL),
			// Server-relative: the PNG is served by this API, not the
			// frontend origin the page URL points at.
			QRURL: "/api/v1/profiles/" + url.PathEscape(profile.NormalizedName) + "/qr",
		},
	}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}
	return userID, true
}

// parseSubmission reads a card submission. Plain JSON bodies carry just
// the draft; multipart bodies carry the draft as a JSON "profile" field
// plus an optional "icon" file part.
func parseSubmission(c *gin.Context) (*types.ProfileDraft, *types.IconUpload, bool) {
	contentType := c.ContentType()

	if contentType == "application/json" {
		var draft types.ProfileDraft
		if err := c.ShouldBindJSON(&draft); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return nil, nil, false
		}
		return &draft, nil, true
	}

	if !strings.HasPrefix(contentType, "multipart/form-data") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported content type"})
		return nil, nil, false
	}

	payload := c.PostForm("profile")
	if payload == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing profile payload"})
		return nil, nil, false
	}
	var draft types.ProfileDraft
	if err := json.Unmarshal([]byte(payload), &draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile payload"})
		return nil, nil, false
	}

	icon, err := readIcon(c)
	if err != nil {
		if errors.Is(err, service.ErrIconTooLarge) || errors.Is(err, service.ErrIconBadType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid icon upload"})
		}
		return nil, nil, false
	}

	return &draft, icon, true
}

func readIcon(c *gin.Context) (*types.IconUpload, error) {
	file, header, err := c.Request.FormFile("icon")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = file.Close() }()

	// Read one byte past the limit so oversized files are detected without
	// buffering the whole thing.
	data, err := io.ReadAll(io.LimitReader(file, service.MaxIconBytes+1))
	if err != nil {
		return nil, err
	}

	icon := &types.IconUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	if err := service.ValidateIcon(icon); err != nil {
		return nil, err
	}
	return icon, nil
}
