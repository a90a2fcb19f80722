package models

import (
	"encoding/json"
	"strings"
)

// Location is stored either as a plain string ("Frankfurt DC-2") or as a
// structured record, depending on when the asset was entered. Consumers
// accept both and use String for comparison and search.
type Location struct {
	Text     string `json:"text,omitempty"`
	Site     string `json:"site,omitempty"`
	Building string `json:"building,omitempty"`
	City     string `json:"city,omitempty"`
	Country  string `json:"country,omitempty"`
	Region   string `json:"region,omitempty"`
}

// String flattens the location for display, comparison and search. A plain
// string location returns as-is; a structured one joins its populated parts.
func (l Location) String() string {
	if l.Text != "" {
		return l.Text
	}
	parts := make([]string, 0, 5)
	for _, p := range []string{l.Site, l.Building, l.City, l.Country, l.Region} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// IsZero reports whether no location was recorded at all.
func (l Location) IsZero() bool {
	return l == Location{}
}

// UnmarshalJSON accepts either a JSON string or a structured object.
func (l *Location) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Location{Text: s}
		return nil
	}
	type plain Location
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = Location(p)
	return nil
}

// MarshalJSON writes a plain string when only Text is set, otherwise the
// structured form, so round-trips preserve whichever shape was stored.
func (l Location) MarshalJSON() ([]byte, error) {
	if l.Text != "" && (Location{Text: l.Text}) == l {
		return json.Marshal(l.Text)
	}
	type plain Location
	return json.Marshal(plain(l))
}
