package ctdf

import "strings"

// Stop is a station known to the stop directory. Tags carry the transport
// classes served there (eg. "bus", "rail", "suburban").
type Stop struct {
	Identifier string   `json:"identifier" groups:"basic,full"`
	ShortCode  string   `json:"shortCode,omitempty" groups:"full"`
	Name       string   `json:"name" groups:"basic,full"`
	Tags       []string `json:"tags,omitempty" groups:"full"`
}

func (s *Stop) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}

	return false
}

func (s *Stop) IsBusOnly() bool {
	if len(s.Tags) == 0 {
		return false
	}

	for _, t := range s.Tags {
		if !strings.EqualFold(t, "bus") {
			return false
		}
	}

	return true
}
