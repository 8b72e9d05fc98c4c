package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/igocard/backend/internal/models"
)

// Earlier schema revisions stored playing experience as one combined
// string such as "3年2ヶ月", "3年" or "2ヶ月". The canonical shape is the
// split year/month pair; this adapter converts old rows at the store
// boundary so nothing above the service ever sees the combined form.
var legacyExperiencePattern = regexp.MustCompile(`^(?:(\d+)年)?(?:(\d+)ヶ月)?$`)

// parseLegacyExperience splits a combined experience string. ok is false
// when the string does not match the legacy format at all.
func parseLegacyExperience(value string) (years, months *uint, ok bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil, false
	}
	m := legacyExperiencePattern.FindStringSubmatch(value)
	if m == nil {
		return nil, nil, false
	}
	if m[1] != "" {
		if n, err := strconv.ParseUint(m[1], 10, 32); err == nil {
			u := uint(n)
			years = &u
		}
	}
	if m[2] != "" {
		if n, err := strconv.ParseUint(m[2], 10, 32); err == nil {
			u := uint(n)
			months = &u
		}
	}
	return years, months, years != nil || months != nil
}

// resolveLegacyExperience fills the split pair from the legacy column for
// rows written before the schema change. Rows that already carry the split
// pair are left untouched.
func resolveLegacyExperience(p *models.Profile) {
	if p.ExperienceYears != nil || p.ExperienceMonths != nil {
		return
	}
	if years, months, ok := parseLegacyExperience(p.LegacyExperience); ok {
		p.ExperienceYears = years
		p.ExperienceMonths = months
	}
}
