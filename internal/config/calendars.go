package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Calendar is one external calendar subscription (an ICS feed the UI
// overlays onto the schedule). The set is stored as a JSON array inside
// the secrets file, since feed URLs often embed access tokens.
type Calendar struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Enabled bool   `json:"enabled"`
}

// Calendars returns the sanitized subscription list. Unparseable or
// absent state yields an empty list.
func (c *Config) Calendars() []Calendar {
	raw := "[]"
	if c.ExternalCalendars != nil {
		raw = *c.ExternalCalendars
	}
	var cals []Calendar
	if err := json.Unmarshal([]byte(raw), &cals); err != nil {
		return []Calendar{}
	}
	return sanitizeCalendars(cals)
}

// SetCalendars replaces the subscription list after sanitizing it.
func (c *Config) SetCalendars(cals []Calendar) error {
	data, err := json.Marshal(sanitizeCalendars(cals))
	if err != nil {
		return fmt.Errorf("failed to encode calendars: %w", err)
	}
	s := string(data)
	c.ExternalCalendars = &s
	return nil
}

// sanitizeCalendars drops entries with blank URLs, trims the rest, and
// gives unnamed feeds a placeholder name.
func sanitizeCalendars(cals []Calendar) []Calendar {
	out := []Calendar{}
	for _, cal := range cals {
		cal.URL = strings.TrimSpace(cal.URL)
		if cal.URL == "" {
			continue
		}
		cal.Name = strings.TrimSpace(cal.Name)
		if cal.Name == "" {
			cal.Name = "Calendar"
		}
		out = append(out, cal)
	}
	return out
}
