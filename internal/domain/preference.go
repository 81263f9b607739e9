package domain

import (
	"time"
)

// UserPreferences holds a user's delivery preferences. Created lazily with
// defaults on first access; never deleted during normal operation.
type UserPreferences struct {
	UserID            string          `json:"user_id"`
	Email             bool            `json:"email"`
	SMS               bool            `json:"sms"`
	Push              bool            `json:"push"`
	Desktop           bool            `json:"desktop"`
	Sound             bool            `json:"sound"`
	QuietHoursEnabled bool            `json:"quiet_hours_enabled"`
	QuietHoursStart   string          `json:"quiet_hours_start"` // "HH:MM", 24h
	QuietHoursEnd     string          `json:"quiet_hours_end"`   // "HH:MM", 24h
	Categories        map[string]bool `json:"categories"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// DefaultPreferences returns the system defaults for a user: every channel on
// except SMS, quiet hours off.
func DefaultPreferences(userID string) *UserPreferences {
	now := time.Now().UTC()
	return &UserPreferences{
		UserID:          userID,
		Email:           true,
		SMS:             false,
		Push:            true,
		Desktop:         true,
		Sound:           true,
		QuietHoursStart: "22:00",
		QuietHoursEnd:   "08:00",
		Categories:      map[string]bool{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// UpdatePreferencesRequest carries a partial update: only non-nil fields
// overwrite the stored value.
type UpdatePreferencesRequest struct {
	Email             *bool           `json:"email"`
	SMS               *bool           `json:"sms"`
	Push              *bool           `json:"push"`
	Desktop           *bool           `json:"desktop"`
	Sound             *bool           `json:"sound"`
	QuietHoursEnabled *bool           `json:"quiet_hours_enabled"`
	QuietHoursStart   *string         `json:"quiet_hours_start" validate:"omitempty,datetime=15:04"`
	QuietHoursEnd     *string         `json:"quiet_hours_end" validate:"omitempty,datetime=15:04"`
	Categories        map[string]bool `json:"categories"`
}

// CategoryEnabled reports whether a notification carrying the given tags may
// use intrusive channels. A tag explicitly set to false opts the user out;
// unknown tags default to opted in.
func (p *UserPreferences) CategoryEnabled(tags []string) bool {
	for _, tag := range tags {
		if enabled, ok := p.Categories[tag]; ok && !enabled {
			return false
		}
	}
	return true
}

// InQuietHours reports whether t falls inside the configured quiet window.
// Windows crossing midnight (e.g. 22:00–08:00) are handled.
func (p *UserPreferences) InQuietHours(t time.Time) bool {
	if !p.QuietHoursEnabled {
		return false
	}
	start, err1 := parseClock(p.QuietHoursStart)
	end, err2 := parseClock(p.QuietHoursEnd)
	if err1 != nil || err2 != nil {
		return false
	}
	now := t.Hour()*60 + t.Minute()
	if start <= end {
		return now >= start && now < end
	}
	return now >= start || now < end
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
