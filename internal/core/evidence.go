package core

import "encoding/json"

// Evidence records whether a required field was found in the reason text.
type Evidence struct {
	// Field is the rule table field name, e.g. "location".
	Field string `json:"field"`

	Present bool `json:"present"`

	// Match is the matched substring (tokens joined by a space), empty if absent.
	Match string `json:"match,omitempty"`

	// Spans are the byte ranges of the matched tokens in the normalized reason.
	Spans [][2]int `json:"spans,omitempty"`
}

// EvidenceSet is the ordered, read-only set of evidence computed for one request.
type EvidenceSet struct {
	items []Evidence
}

// NewEvidenceSet copies items into a new set.
func NewEvidenceSet(items []Evidence) EvidenceSet {
	cpy := make([]Evidence, len(items))
	copy(cpy, items)
	return EvidenceSet{items: cpy}
}

// Get returns the evidence for field.
func (s EvidenceSet) Get(field string) (Evidence, bool) {
	for _, e := range s.items {
		if e.Field == field {
			return e, true
		}
	}
	return Evidence{}, false
}

// Present reports whether field was found.
func (s EvidenceSet) Present(field string) bool {
	e, ok := s.Get(field)
	return ok && e.Present
}

// Fields returns a copy of all evidence in evaluation order.
func (s EvidenceSet) Fields() []Evidence {
	cpy := make([]Evidence, len(s.items))
	copy(cpy, s.items)
	return cpy
}

// PresentFields returns the names of all fields that were found, in evaluation order.
func (s EvidenceSet) PresentFields() []string {
	out := make([]string, 0, len(s.items))
	for _, e := range s.items {
		if e.Present {
			out = append(out, e.Field)
		}
	}
	return out
}

// Missing returns those of fields that are not present, preserving the order of fields.
func (s EvidenceSet) Missing(fields []string) []string {
	out := make([]string, 0)
	for _, f := range fields {
		if !s.Present(f) {
			out = append(out, f)
		}
	}
	return out
}

func (s EvidenceSet) Len() int {
	return len(s.items)
}

func (s EvidenceSet) MarshalJSON() ([]byte, error) {
	if s.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.items)
}

func (s *EvidenceSet) UnmarshalJSON(data []byte) error {
	var items []Evidence
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	s.items = items
	return nil
}
