package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/igocard/backend/internal/models"
	"github.com/igocard/backend/internal/types"
)

var (
	ErrProfileExists   = errors.New("profile already exists for this account")
	ErrProfileNotFound = errors.New("profile not found")
)

// Field length limits enforced server-side. The form enforces the same
// limits client-side, but a submission must never rely on that.
const (
	MaxDisplayNameLen   = 20
	MaxStyleLen         = 50
	MaxFreeTextLen      = 100
	MaxURLLen           = 100
	MaxSkillOverrideLen = 30
	MaxExperienceMonths = 11
)

// SkillOptionOther is the sentinel value that switches a skill entry's
// platform or rank to the free-text override.
const SkillOptionOther = "other"

// SkillPlatforms is the fixed set of selectable playing platforms.
var SkillPlatforms = []string{
	"幽玄の間",
	"野狐囲碁",
	"東洋囲碁",
	"OGS",
	"KGS",
	"囲碁クエスト(9路)",
	"囲碁クエスト(13路)",
	"囲碁クエスト(19路)",
	"みんなの囲碁",
}

// SkillRanks is the fixed set of selectable ranks: 9段 down to 初段,
// followed by 1級 through 30級.
var SkillRanks = buildRankOptions()

func buildRankOptions() []string {
	ranks := []string{"9段", "8段", "7段", "6段", "5段", "4段", "3段", "2段", "初段"}
	for i := 1; i <= 30; i++ {
		ranks = append(ranks, fmt.Sprintf("%d級", i))
	}
	return ranks
}

// Prefixes a social link must start with to be accepted.
var (
	videoURLPrefixes     = []string{"https://youtube.com/", "https://www.youtube.com/"}
	microblogURLPrefixes = []string{"https://x.com/"}
	photoURLPrefixes     = []string{"https://instagram.com/", "https://www.instagram.com/"}
)

var experiencePattern = regexp.MustCompile(`^\d+$`)

// ValidationError carries the full set of field errors for one rejected
// submission. The operation that returns it has not written anything.
type ValidationError struct {
	Fields types.FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}

// NormalizeName strips leading and trailing whitespace, including the
// full-width space, from a display name. The result is the public lookup
// key and the uniqueness key. Idempotent.
func NormalizeName(name string) string {
	return strings.TrimFunc(name, unicode.IsSpace)
}

// ProfileService is the single gatekeeper for reading and writing card
// records. It owns validation and normalization and enforces the global
// display-name uniqueness rule.
type ProfileService struct {
	db        *gorm.DB
	cache     *redis.Client
	icons     IconStore
	maxSkills int
	now       func() time.Time
}

var _ IProfileService = (*ProfileService)(nil)

// NewProfileService creates a new ProfileService instance. cache and icons
// may be nil; lookups then skip the read-through cache and create/update
// reject icon uploads.
func NewProfileService(db *gorm.DB, cache *redis.Client, icons IconStore, maxSkills int) *ProfileService {
	if maxSkills <= 0 {
		maxSkills = 4
	}
	return &ProfileService{
		db:        db,
		cache:     cache,
		icons:     icons,
		maxSkills: maxSkills,
		now:       time.Now,
	}
}

// Validate checks a draft against every field rule and the uniqueness rule.
// All applicable errors are collected; nothing short-circuits. The record
// owned by ownerID is excluded from the collision check, so re-submitting
// one's own unchanged name never reports a conflict.
func (s *ProfileService) Validate(ctx context.Context, draft *types.ProfileDraft, ownerID uuid.UUID) (types.FieldErrors, error) {
	errs := s.validateFields(draft)

	name := NormalizeName(draft.DisplayName)
	if name != "" && !errs.Has("display_name") {
		taken, err := s.nameTaken(s.db.WithContext(ctx), name, ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to check name availability: %w", err)
		}
		if taken {
			errs = append(errs, nameTakenError())
		}
	}
	return errs, nil
}

// validateFields runs every rule that needs no store access.
func (s *ProfileService) validateFields(draft *types.ProfileDraft) types.FieldErrors {
	var errs types.FieldErrors

	name := NormalizeName(draft.DisplayName)
	if name == "" {
		errs = append(errs, types.FieldError{
			Field:   "display_name",
			Code:    types.CodeNameRequired,
			Message: "display name is required",
		})
	} else if utf8.RuneCountInString(name) > MaxDisplayNameLen {
		errs = append(errs, types.FieldError{
			Field:   "display_name",
			Code:    types.CodeFieldTooLong,
			Message: fmt.Sprintf("display name must be at most %d characters", MaxDisplayNameLen),
		})
	}

	errs = append(errs, validateSocialURL("video_url", draft.VideoURL, videoURLPrefixes)...)
	errs = append(errs, validateSocialURL("microblog_url", draft.MicroblogURL, microblogURLPrefixes)...)
	errs = append(errs, validateSocialURL("photo_url", draft.PhotoURL, photoURLPrefixes)...)

	errs = append(errs, validateExperienceComponent("experience_years", draft.ExperienceYears, 0)...)
	errs = append(errs, validateExperienceComponent("experience_months", draft.ExperienceMonths, MaxExperienceMonths)...)

	errs = append(errs, validateRuneLimit("style", draft.Style, MaxStyleLen)...)
	errs = append(errs, validateRuneLimit("favorite_player", draft.FavoritePlayer, MaxFreeTextLen)...)
	errs = append(errs, validateRuneLimit("message", draft.Message, MaxFreeTextLen)...)

	errs = append(errs, s.validateSkillEntries(draft.SkillEntries)...)

	return errs
}

func validateSocialURL(field, value string, prefixes []string) types.FieldErrors {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	var errs types.FieldErrors
	if len(value) > MaxURLLen {
		errs = append(errs, types.FieldError{
			Field:   field,
			Code:    types.CodeFieldTooLong,
			Message: fmt.Sprintf("URL must be at most %d characters", MaxURLLen),
		})
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(value, prefix) {
			return errs
		}
	}
	errs = append(errs, types.FieldError{
		Field:   field,
		Code:    types.CodeInvalidURL,
		Message: fmt.Sprintf("URL must start with %s", prefixes[0]),
	})
	return errs
}

func validateExperienceComponent(field, value string, max uint) types.FieldErrors {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if !experiencePattern.MatchString(value) {
		return types.FieldErrors{{
			Field:   field,
			Code:    types.CodeInvalidExperience,
			Message: "must be a non-negative whole number",
		}}
	}
	// The same parse the record builder runs: anything accepted here must
	// survive it, so an overflowing value is rejected rather than dropped.
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return types.FieldErrors{{
			Field:   field,
			Code:    types.CodeInvalidExperience,
			Message: "value is too large",
		}}
	}
	if max > 0 && uint(n) > max {
		return types.FieldErrors{{
			Field:   field,
			Code:    types.CodeInvalidExperience,
			Message: fmt.Sprintf("must be between 0 and %d", max),
		}}
	}
	return nil
}

func validateRuneLimit(field, value string, max int) types.FieldErrors {
	if utf8.RuneCountInString(value) > max {
		return types.FieldErrors{{
			Field:   field,
			Code:    types.CodeFieldTooLong,
			Message: fmt.Sprintf("must be at most %d characters", max),
		}}
	}
	return nil
}

func (s *ProfileService) validateSkillEntries(entries []types.SkillDraft) types.FieldErrors {
	var errs types.FieldErrors
	if len(entries) > s.maxSkills {
		errs = append(errs, types.FieldError{
			Field:   "skill_entries",
			Code:    types.CodeTooManySkills,
			Message: fmt.Sprintf("at most %d skill entries are allowed", s.maxSkills),
		})
	}
	for i, entry := range entries {
		field := fmt.Sprintf("skill_entries[%d]", i)
		errs = append(errs, validateSkillOption(field, entry.Platform, entry.CustomPlatform, SkillPlatforms)...)
		errs = append(errs, validateSkillOption(field, entry.Rank, entry.CustomRank, SkillRanks)...)
	}
	return errs
}

func validateSkillOption(field, value, override string, options []string) types.FieldErrors {
	if value == "" {
		return nil
	}
	if value == SkillOptionOther {
		override = strings.TrimSpace(override)
		if override == "" {
			return types.FieldErrors{{
				Field:   field,
				Code:    types.CodeInvalidSkill,
				Message: "free-text value is required when \"other\" is selected",
			}}
		}
		if utf8.RuneCountInString(override) > MaxSkillOverrideLen {
			return types.FieldErrors{{
				Field:   field,
				Code:    types.CodeFieldTooLong,
				Message: fmt.Sprintf("free-text value must be at most %d characters", MaxSkillOverrideLen),
			}}
		}
		return nil
	}
	for _, opt := range options {
		if value == opt {
			return nil
		}
	}
	return types.FieldErrors{{
		Field:   field,
		Code:    types.CodeInvalidSkill,
		Message: fmt.Sprintf("%q is not a known option", value),
	}}
}

func nameTakenError() types.FieldError {
	return types.FieldError{
		Field:   "display_name",
		Code:    types.CodeNameTaken,
		Message: "this name is already registered, please choose another",
	}
}

// nameTaken reports whether any record other than ownerID's already uses
// the normalized name.
func (s *ProfileService) nameTaken(tx *gorm.DB, normalizedName string, ownerID uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&models.Profile{}).
		Where("normalized_name = ? AND owner_id <> ?", normalizedName, ownerID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create validates the draft and writes a brand-new record keyed by
// ownerID. The uniqueness check is repeated inside the same transaction as
// the insert, so two racing submissions with the same name cannot both
// land; the loser gets the name-taken error. A supplied icon is uploaded
// best-effort: an upload failure is logged and the record is written
// without an icon rather than aborting.
func (s *ProfileService) Create(ctx context.Context, ownerID uuid.UUID, draft *types.ProfileDraft, icon *types.IconUpload) (*models.Profile, error) {
	fieldErrs, err := s.Validate(ctx, draft, ownerID)
	if err != nil {
		return nil, err
	}
	if len(fieldErrs) > 0 {
		return nil, &ValidationError{Fields: fieldErrs}
	}

	record := s.buildRecord(ownerID, draft)
	record.IconURL = s.uploadIcon(ctx, ownerID, icon, "")

	now := s.now()
	record.CreatedAt = now
	record.LastUpdated = now

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Profile{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing profile: %w", err)
		}
		if count > 0 {
			return ErrProfileExists
		}

		taken, err := s.nameTaken(tx, record.NormalizedName, ownerID)
		if err != nil {
			return fmt.Errorf("failed to check name availability: %w", err)
		}
		if taken {
			return &ValidationError{Fields: types.FieldErrors{nameTakenError()}}
		}

		if err := tx.Create(record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ValidationError{Fields: types.FieldErrors{nameTakenError()}}
			}
			return fmt.Errorf("failed to create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, record.NormalizedName)
	return record, nil
}

// Update validates the draft and replaces the record owned by ownerID.
// CreatedAt is preserved, LastUpdated is refreshed, and the previous icon
// URL survives unless a newly supplied icon uploads successfully.
func (s *ProfileService) Update(ctx context.Context, ownerID uuid.UUID, draft *types.ProfileDraft, icon *types.IconUpload) (*models.Profile, error) {
	fieldErrs, err := s.Validate(ctx, draft, ownerID)
	if err != nil {
		return nil, err
	}
	if len(fieldErrs) > 0 {
		return nil, &ValidationError{Fields: fieldErrs}
	}

	record := s.buildRecord(ownerID, draft)
	newIconURL := s.uploadIcon(ctx, ownerID, icon, "")

	var previousName string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Profile
		if err := tx.First(&existing, "owner_id = ?", ownerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProfileNotFound
			}
			return fmt.Errorf("failed to load profile: %w", err)
		}
		previousName = existing.NormalizedName

		taken, err := s.nameTaken(tx, record.NormalizedName, ownerID)
		if err != nil {
			return fmt.Errorf("failed to check name availability: %w", err)
		}
		if taken {
			return &ValidationError{Fields: types.FieldErrors{nameTakenError()}}
		}

		record.CreatedAt = existing.CreatedAt
		record.LastUpdated = s.now()
		record.IconURL = existing.IconURL
		if newIconURL != "" {
			record.IconURL = newIconURL
		}

		if err := tx.Save(record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ValidationError{Fields: types.FieldErrors{nameTakenError()}}
			}
			return fmt.Errorf("failed to update profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, previousName)
	s.invalidateCache(ctx, record.NormalizedName)
	return record, nil
}

// LookupByNormalizedName fetches the record published under the given
// name. A miss is reported as ErrProfileNotFound, which callers treat as a
// normal outcome, not a fault.
func (s *ProfileService) LookupByNormalizedName(ctx context.Context, name string) (*models.Profile, error) {
	name = NormalizeName(name)
	if name == "" {
		return nil, ErrProfileNotFound
	}

	if cached := s.cacheGet(ctx, name); cached != nil {
		return cached, nil
	}

	var profile models.Profile
	if err := s.db.WithContext(ctx).First(&profile, "normalized_name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}

	resolveLegacyExperience(&profile)
	s.cacheSet(ctx, &profile)
	return &profile, nil
}

// LookupByOwnerID fetches the record owned by the given identity. Used to
// decide whether the correct next action for a signed-in caller is create
// or edit.
func (s *ProfileService) LookupByOwnerID(ctx context.Context, ownerID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).First(&profile, "owner_id = ?", ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}

	resolveLegacyExperience(&profile)
	return &profile, nil
}

// buildRecord assembles a record from a validated draft. The display name
// is stored trimmed (validation bounds only the trimmed form, and the
// column is sized for it), skill entries are resolved (overrides
// substituted, fully empty rows dropped) and the experience strings become
// the canonical split pair.
func (s *ProfileService) buildRecord(ownerID uuid.UUID, draft *types.ProfileDraft) *models.Profile {
	name := NormalizeName(draft.DisplayName)
	return &models.Profile{
		OwnerID:          ownerID,
		DisplayName:      name,
		NormalizedName:   name,
		VideoURL:         strings.TrimSpace(draft.VideoURL),
		MicroblogURL:     strings.TrimSpace(draft.MicroblogURL),
		PhotoURL:         strings.TrimSpace(draft.PhotoURL),
		SkillEntries:     resolveSkillEntries(draft.SkillEntries),
		Style:            draft.Style,
		ExperienceYears:  parseExperienceComponent(draft.ExperienceYears),
		ExperienceMonths: parseExperienceComponent(draft.ExperienceMonths),
		FavoritePlayer:   draft.FavoritePlayer,
		Message:          draft.Message,
	}
}

func resolveSkillEntries(drafts []types.SkillDraft) []models.SkillEntry {
	entries := make([]models.SkillEntry, 0, len(drafts))
	for _, d := range drafts {
		platform := d.Platform
		if platform == SkillOptionOther {
			platform = strings.TrimSpace(d.CustomPlatform)
		}
		rank := d.Rank
		if rank == SkillOptionOther {
			rank = strings.TrimSpace(d.CustomRank)
		}
		if platform == "" && rank == "" {
			continue
		}
		entries = append(entries, models.SkillEntry{Platform: platform, Rank: rank})
	}
	return entries
}

func parseExperienceComponent(value string) *uint {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return nil
	}
	u := uint(n)
	return &u
}

// uploadIcon pushes the icon to the blob store and returns its URL, or
// fallback when no icon was supplied or the upload failed. Failures only
// get logged; the surrounding operation carries on.
func (s *ProfileService) uploadIcon(ctx context.Context, ownerID uuid.UUID, icon *types.IconUpload, fallback string) string {
	if icon == nil || s.icons == nil {
		return fallback
	}
	url, err := s.icons.Upload(ctx, ownerID, icon)
	if err != nil {
		log.Printf("[ProfileService] icon upload failed for %s: %v", ownerID, err)
		return fallback
	}
	return url
}
