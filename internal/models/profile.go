package models

import (
	"time"

	"github.com/google/uuid"
)

// SkillEntry is one platform/rank pair on a profile card. Platform and
// Rank are stored fully resolved: free-text overrides entered behind the
// "other" option have already replaced the sentinel by the time an entry
// is persisted.
type SkillEntry struct {
	Platform string `json:"platform"`
	Rank     string `json:"rank"`
}

// Profile is the per-identity card record. The owner ID is the primary
// key, which is what enforces one card per account at the storage layer.
type Profile struct {
	OwnerID        uuid.UUID `gorm:"type:varchar(36);primarykey" json:"owner_id"`
	DisplayName    string    `gorm:"size:20;not null" json:"display_name"`
	NormalizedName string    `gorm:"size:20;not null;uniqueIndex" json:"normalized_name"`

	VideoURL     string `gorm:"size:100" json:"video_url"`
	MicroblogURL string `gorm:"size:100" json:"microblog_url"`
	PhotoURL     string `gorm:"size:100" json:"photo_url"`

	SkillEntries []SkillEntry `gorm:"type:text;serializer:json" json:"skill_entries"`

	Style            string `gorm:"size:50" json:"style"`
	ExperienceYears  *uint  `json:"experience_years"`
	ExperienceMonths *uint  `json:"experience_months"`
	// LegacyExperience holds the combined free-text value ("3年2ヶ月")
	// written by earlier revisions of the schema. Rows that still carry it
	// are converted to the split year/month pair on read.
	LegacyExperience string `gorm:"column:experience;size:50" json:"-"`

	FavoritePlayer string `gorm:"size:100" json:"favorite_player"`
	Message        string `gorm:"size:100" json:"message"`
	IconURL        string `gorm:"size:255" json:"icon_url"`

	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `gorm:"column:last_updated" json:"last_updated"`
}
