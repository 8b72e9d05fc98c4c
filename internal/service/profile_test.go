package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igocard/backend/internal/models"
	"github.com/igocard/backend/internal/testhelpers"
	"github.com/igocard/backend/internal/types"
)

type fakeIconStore struct {
	url     string
	uploads int
}

func (f *fakeIconStore) Upload(ctx context.Context, ownerID uuid.UUID, icon *types.IconUpload) (string, error) {
	f.uploads++
	return f.url, nil
}

type failingIconStore struct{}

func (f *failingIconStore) Upload(ctx context.Context, ownerID uuid.UUID, icon *types.IconUpload) (string, error) {
	return "", errors.New("blob store unavailable")
}

func newTestService(t *testing.T) *ProfileService {
	t.Helper()
	return NewProfileService(testhelpers.NewTestDB(t), nil, nil, 4)
}

func minimalDraft(name string) *types.ProfileDraft {
	return &types.ProfileDraft{DisplayName: name}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Go Fan", NormalizeName("  Go Fan  "))
	assert.Equal(t, "Go Fan", NormalizeName("　Go Fan　"))
	assert.Equal(t, "Go Fan", NormalizeName(" 　 Go Fan \t"))
	assert.Equal(t, "", NormalizeName(" 　　 "))

	// Idempotent
	assert.Equal(t, NormalizeName("  Taro  "), NormalizeName(NormalizeName("  Taro  ")))
}

func TestValidateCollectsAllErrors(t *testing.T) {
	svc := newTestService(t)

	draft := &types.ProfileDraft{
		DisplayName:     "   ",
		VideoURL:        "https://example.com/watch",
		ExperienceYears: "three",
	}

	errs, err := svc.Validate(context.Background(), draft, uuid.New())
	require.NoError(t, err)

	assert.True(t, errs.HasCode(types.CodeNameRequired))
	assert.True(t, errs.HasCode(types.CodeInvalidURL))
	assert.True(t, errs.HasCode(types.CodeInvalidExperience))
	assert.GreaterOrEqual(t, len(errs), 3)
}

func TestValidateDisplayNameLength(t *testing.T) {
	svc := newTestService(t)

	ok, err := svc.Validate(context.Background(), minimalDraft("ちょうど二十文字の名前ですこれで丁度です"), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, ok)

	tooLong, err := svc.Validate(context.Background(), minimalDraft("これは二十一文字になってしまう長い名前です"), uuid.New())
	require.NoError(t, err)
	assert.True(t, tooLong.HasCode(types.CodeFieldTooLong))
	assert.True(t, tooLong.Has("display_name"))
}

func TestValidateSocialURLPrefixes(t *testing.T) {
	svc := newTestService(t)

	good := &types.ProfileDraft{
		DisplayName:  "Taro",
		VideoURL:     "https://www.youtube.com/@taro",
		MicroblogURL: "https://x.com/taro",
		PhotoURL:     "https://instagram.com/taro/",
	}
	errs, err := svc.Validate(context.Background(), good, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, errs)

	bad := &types.ProfileDraft{
		DisplayName:  "Taro",
		VideoURL:     "https://vimeo.com/taro",
		MicroblogURL: "https://twitter.com/taro",
		PhotoURL:     "http://instagram.com/taro",
	}
	errs, err = svc.Validate(context.Background(), bad, uuid.New())
	require.NoError(t, err)
	assert.Len(t, errs, 3)
	for _, field := range []string{"video_url", "microblog_url", "photo_url"} {
		assert.True(t, errs.Has(field), "expected error for %s", field)
	}
	assert.True(t, errs.HasCode(types.CodeInvalidURL))
}

func TestValidateExperience(t *testing.T) {
	svc := newTestService(t)

	good := &types.ProfileDraft{DisplayName: "Taro", ExperienceYears: "3", ExperienceMonths: "11"}
	errs, err := svc.Validate(context.Background(), good, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, errs)

	cases := map[string]*types.ProfileDraft{
		"non-numeric years":   {DisplayName: "Taro", ExperienceYears: "three"},
		"negative years":      {DisplayName: "Taro", ExperienceYears: "-1"},
		"fractional months":   {DisplayName: "Taro", ExperienceMonths: "1.5"},
		"months past eleven":  {DisplayName: "Taro", ExperienceMonths: "12"},
		"whitespace interior": {DisplayName: "Taro", ExperienceYears: "1 0"},
		"years overflow":      {DisplayName: "Taro", ExperienceYears: "99999999999"},
	}
	for name, draft := range cases {
		errs, err := svc.Validate(context.Background(), draft, uuid.New())
		require.NoError(t, err)
		assert.True(t, errs.HasCode(types.CodeInvalidExperience), "case %s", name)
	}
}

func TestValidateSkillEntries(t *testing.T) {
	svc := newTestService(t)

	entry := types.SkillDraft{Platform: "OGS", Rank: "3段"}
	tooMany := &types.ProfileDraft{
		DisplayName:  "Taro",
		SkillEntries: []types.SkillDraft{entry, entry, entry, entry, entry},
	}
	errs, err := svc.Validate(context.Background(), tooMany, uuid.New())
	require.NoError(t, err)
	assert.True(t, errs.HasCode(types.CodeTooManySkills))

	unknown := &types.ProfileDraft{
		DisplayName:  "Taro",
		SkillEntries: []types.SkillDraft{{Platform: "Chess.com", Rank: "3段"}},
	}
	errs, err = svc.Validate(context.Background(), unknown, uuid.New())
	require.NoError(t, err)
	assert.True(t, errs.HasCode(types.CodeInvalidSkill))

	emptyOverride := &types.ProfileDraft{
		DisplayName:  "Taro",
		SkillEntries: []types.SkillDraft{{Platform: SkillOptionOther, Rank: "3段"}},
	}
	errs, err = svc.Validate(context.Background(), emptyOverride, uuid.New())
	require.NoError(t, err)
	assert.True(t, errs.HasCode(types.CodeInvalidSkill))

	longOverride := &types.ProfileDraft{
		DisplayName: "Taro",
		SkillEntries: []types.SkillDraft{{
			Platform:       SkillOptionOther,
			CustomPlatform: "とてもとてもとてもとてもとてもとてもとても長いプラットフォーム名",
			Rank:           "3段",
		}},
	}
	errs, err = svc.Validate(context.Background(), longOverride, uuid.New())
	require.NoError(t, err)
	assert.True(t, errs.HasCode(types.CodeFieldTooLong))
}

func TestCreateSetsTimestampsAndNormalizedName(t *testing.T) {
	svc := newTestService(t)
	ownerID := uuid.New()

	created, err := svc.Create(context.Background(), ownerID, minimalDraft("  Taro  "), nil)
	require.NoError(t, err)
	assert.Equal(t, "Taro", created.NormalizedName)
	// The display name is persisted trimmed; the column is sized for the
	// trimmed form and the surrounding whitespace carries no meaning.
	assert.Equal(t, "Taro", created.DisplayName)
	assert.Equal(t, created.CreatedAt, created.LastUpdated)

	found, err := svc.LookupByOwnerID(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, ownerID, found.OwnerID)
	assert.True(t, found.CreatedAt.Equal(found.LastUpdated))
}

func TestCreateRejectsSecondRecordForOwner(t *testing.T) {
	svc := newTestService(t)
	ownerID := uuid.New()

	_, err := svc.Create(context.Background(), ownerID, minimalDraft("Taro"), nil)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), ownerID, minimalDraft("Jiro"), nil)
	assert.ErrorIs(t, err, ErrProfileExists)
}

func TestCreateNameTaken(t *testing.T) {
	svc := newTestService(t)
	u1 := uuid.New()
	u2 := uuid.New()

	_, err := svc.Create(context.Background(), u1, minimalDraft("Taro"), nil)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), u2, minimalDraft(" Taro "), nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Fields.HasCode(types.CodeNameTaken))

	// Only the first writer's record is published under the name.
	found, err := svc.LookupByNormalizedName(context.Background(), "Taro")
	require.NoError(t, err)
	assert.Equal(t, u1, found.OwnerID)

	// The loser wrote nothing.
	_, err = svc.LookupByOwnerID(context.Background(), u2)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestUpdateWithOwnNameDoesNotCollide(t *testing.T) {
	svc := newTestService(t)
	ownerID := uuid.New()

	_, err := svc.Create(context.Background(), ownerID, minimalDraft("Taro"), nil)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), ownerID, minimalDraft("Taro"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Taro", updated.NormalizedName)
}

func TestUpdatePreservesCreatedAtAndAdvancesLastUpdated(t *testing.T) {
	svc := newTestService(t)
	ownerID := uuid.New()

	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return t0 }

	created, err := svc.Create(context.Background(), ownerID, minimalDraft("Taro"), nil)
	require.NoError(t, err)

	t1 := t0.Add(time.Hour)
	svc.now = func() time.Time { return t1 }

	updated, err := svc.Update(context.Background(), ownerID, minimalDraft("Taro"), nil)
	require.NoError(t, err)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	assert.True(t, updated.LastUpdated.After(updated.CreatedAt))
}

func TestUpdateRequiresExistingRecord(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Update(context.Background(), uuid.New(), minimalDraft("Taro"), nil)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestRenameFreesOldName(t *testing.T) {
	svc := newTestService(t)
	u1 := uuid.New()
	u2 := uuid.New()

	_, err := svc.Create(context.Background(), u1, minimalDraft("Taro"), nil)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), u1, minimalDraft("Jiro"), nil)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), u2, minimalDraft("Taro"), nil)
	require.NoError(t, err)

	found, err := svc.LookupByNormalizedName(context.Background(), "Taro")
	require.NoError(t, err)
	assert.Equal(t, u2, found.OwnerID)
}

func TestValidationFailureWritesNothing(t *testing.T) {
	svc := newTestService(t)
	ownerID := uuid.New()

	_, err := svc.Create(context.Background(), ownerID, minimalDraft("   "), nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Fields.HasCode(types.CodeNameRequired))

	_, err = svc.LookupByOwnerID(context.Background(), ownerID)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestCreateUploadsIcon(t *testing.T) {
	svc := newTestService(t)
	store := &fakeIconStore{url: "https://icons.example/taro.png"}
	svc.icons = store
	ownerID := uuid.New()

	created, err := svc.Create(context.Background(), ownerID, minimalDraft("Taro"), &types.IconUpload{
		Filename:    "taro.png",
		ContentType: "image/png",
		Data:        []byte("png-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://icons.example/taro.png", created.IconURL)
	assert.Equal(t, 1, store.uploads)
}

func TestCreateIconUploadFailureDegrades(t *testing.T) {
	svc := newTestService(t)
	svc.icons = &failingIconStore{}
	ownerID := uuid.New()

	created, err := svc.Create(context.Background(), ownerID, minimalDraft("Taro"), &types.IconUpload{
		Filename: "taro.png",
		Data:     []byte("png-bytes"),
	})
	require.NoError(t, err)
	assert.Empty(t, created.IconURL)
}

func TestUpdateIconUploadFailureKeepsPreviousIcon(t *testing.T) {
	svc := newTestService(t)
	svc.icons = &fakeIconStore{url: "https://icons.example/v1.png"}
	ownerID := uuid.New()

	_, err := svc.Create(context.Background(), ownerID, minimalDraft("Taro"), &types.IconUpload{
		Filename: "v1.png",
		Data:     []byte("png-bytes"),
	})
	require.NoError(t, err)

	svc.icons = &failingIconStore{}
	updated, err := svc.Update(context.Background(), ownerID, minimalDraft("Taro"), &types.IconUpload{
		Filename: "v2.png",
		Data:     []byte("png-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://icons.example/v1.png", updated.IconURL)
}

func TestUpdateWithoutIconKeepsPreviousIcon(t *testing.T) {
	svc := newTestService(t)
	svc.icons = &fakeIconStore{url: "https://icons.example/v1.png"}
	ownerID := uuid.New()

	_, err := svc.Create(context.Background(), ownerID, minimalDraft("Taro"), &types.IconUpload{
		Filename: "v1.png",
		Data:     []byte("png-bytes"),
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), ownerID, minimalDraft("Taro"), nil)
	require.NoError(t, err)
	assert.Equal(t, "https://icons.example/v1.png", updated.IconURL)
}

func TestSkillEntriesResolvedOnSave(t *testing.T) {
	svc := newTestService(t)
	ownerID := uuid.New()

	draft := &types.ProfileDraft{
		DisplayName: "Taro",
		SkillEntries: []types.SkillDraft{
			{Platform: "OGS", Rank: "3段"},
			{Platform: SkillOptionOther, CustomPlatform: " Fox Weiqi ", Rank: SkillOptionOther, CustomRank: "9d"},
			{}, // fully empty rows are dropped
		},
	}

	created, err := svc.Create(context.Background(), ownerID, draft, nil)
	require.NoError(t, err)
	require.Len(t, created.SkillEntries, 2)
	assert.Equal(t, models.SkillEntry{Platform: "OGS", Rank: "3段"}, created.SkillEntries[0])
	assert.Equal(t, models.SkillEntry{Platform: "Fox Weiqi", Rank: "9d"}, created.SkillEntries[1])

	found, err := svc.LookupByOwnerID(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, created.SkillEntries, found.SkillEntries)
}

func TestCreateRejectsOverflowingExperience(t *testing.T) {
	svc := newTestService(t)
	ownerID := uuid.New()

	// A value that passes the digit-string check but overflows the stored
	// integer must be rejected, not written as an empty experience.
	draft := &types.ProfileDraft{DisplayName: "Taro", ExperienceYears: "99999999999"}
	_, err := svc.Create(context.Background(), ownerID, draft, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Fields.HasCode(types.CodeInvalidExperience))

	_, err = svc.LookupByOwnerID(context.Background(), ownerID)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestExperienceStoredAsSplitPair(t *testing.T) {
	svc := newTestService(t)
	ownerID := uuid.New()

	draft := &types.ProfileDraft{DisplayName: "Taro", ExperienceYears: "3", ExperienceMonths: "2"}
	_, err := svc.Create(context.Background(), ownerID, draft, nil)
	require.NoError(t, err)

	found, err := svc.LookupByOwnerID(context.Background(), ownerID)
	require.NoError(t, err)
	require.NotNil(t, found.ExperienceYears)
	require.NotNil(t, found.ExperienceMonths)
	assert.Equal(t, uint(3), *found.ExperienceYears)
	assert.Equal(t, uint(2), *found.ExperienceMonths)
}

func TestLookupResolvesLegacyExperienceRows(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := NewProfileService(db, nil, nil, 4)

	legacy := &models.Profile{
		OwnerID:          uuid.New(),
		DisplayName:      "Oldtimer",
		NormalizedName:   "Oldtimer",
		LegacyExperience: "10年6ヶ月",
		CreatedAt:        time.Now(),
		LastUpdated:      time.Now(),
	}
	require.NoError(t, db.Create(legacy).Error)

	found, err := svc.LookupByNormalizedName(context.Background(), "Oldtimer")
	require.NoError(t, err)
	require.NotNil(t, found.ExperienceYears)
	require.NotNil(t, found.ExperienceMonths)
	assert.Equal(t, uint(10), *found.ExperienceYears)
	assert.Equal(t, uint(6), *found.ExperienceMonths)
}

func TestLookupByNormalizedNameNormalizesInput(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Create(context.Background(), uuid.New(), minimalDraft("Taro"), nil)
	require.NoError(t, err)

	found, err := svc.LookupByNormalizedName(context.Background(), "　Taro ")
	require.NoError(t, err)
	assert.Equal(t, "Taro", found.NormalizedName)
}

func TestLookupMissIsNotAFault(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.LookupByNormalizedName(context.Background(), "Nobody")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	_, err = svc.LookupByOwnerID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrProfileNotFound)
}
