package types

// SkillDraft is one skill row as submitted by the form. Platform and Rank
// carry either a value from the fixed option lists or the "other" sentinel,
// in which case the matching Custom field holds the free-text override.
type SkillDraft struct {
	Platform       string `json:"platform"`
	CustomPlatform string `json:"custom_platform"`
	Rank           string `json:"rank"`
	CustomRank     string `json:"custom_rank"`
}

// ProfileDraft is the caller-supplied field set for creating or updating a
// card. Experience components arrive as strings because they come straight
// from text inputs; validation turns them into numbers.
type ProfileDraft struct {
	DisplayName      string       `json:"display_name"`
	VideoURL         string       `json:"video_url"`
	MicroblogURL     string       `json:"microblog_url"`
	PhotoURL         string       `json:"photo_url"`
	SkillEntries     []SkillDraft `json:"skill_entries"`
	Style            string       `json:"style"`
	ExperienceYears  string       `json:"experience_years"`
	ExperienceMonths string       `json:"experience_months"`
	FavoritePlayer   string       `json:"favorite_player"`
	Message          string       `json:"message"`
}

// IconUpload carries a validated avatar image on its way to the blob store.
type IconUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Field error codes returned by profile validation.
const (
	CodeNameRequired      = "NAME_REQUIRED"
	CodeNameTaken         = "NAME_TAKEN"
	CodeFieldTooLong      = "FIELD_TOO_LONG"
	CodeInvalidURL        = "INVALID_URL"
	CodeInvalidExperience = "INVALID_EXPERIENCE"
	CodeTooManySkills     = "TOO_MANY_SKILLS"
	CodeInvalidSkill      = "INVALID_SKILL"
)

// FieldError is a single validation failure scoped to one form field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FieldErrors collects every validation failure for one submission.
// Validation never short-circuits, so a bad draft reports all of its
// problems at once.
type FieldErrors []FieldError

// Has reports whether any collected error concerns the given field.
func (e FieldErrors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// HasCode reports whether any collected error carries the given code.
func (e FieldErrors) HasCode(code string) bool {
	for _, fe := range e {
		if fe.Code == code {
			return true
		}
	}
	return false
}

// ToMap flattens the collected errors into a field-to-message mapping for
// the JSON error response. When a field has several problems the first one
// wins.
func (e FieldErrors) ToMap() map[string]string {
	m := make(map[string]string, len(e))
	for _, fe := range e {
		if _, ok := m[fe.Field]; !ok {
			m[fe.Field] = fe.Message
		}
	}
	return m
}
