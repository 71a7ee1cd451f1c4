// Package requirement holds the static configuration describing each
// document slot an institution must fill: accepted file types, size ceiling,
// and optional validity period. Descriptors are loaded once at startup and
// must be present before any upload is accepted.
package requirement

import (
	"fmt"
	"strings"
)

// Descriptor specifies the acceptance rules for one named document slot.
type Descriptor struct {
	Key           string   `json:"key"`
	Label         string   `json:"label"`
	Category      string   `json:"category"`
	Required      bool     `json:"required"`
	AcceptedTypes []string `json:"accepted_types"`
	MaxSizeBytes  int64    `json:"max_size_bytes"`
	// ValidityYears, when positive, makes documents in this slot expire
	// validityYears after their upload date.
	ValidityYears int `json:"validity_years,omitempty"`
}

// HasValidity reports whether documents in this slot carry an expiry date.
func (d Descriptor) HasValidity() bool { return d.ValidityYears > 0 }

// AcceptsType reports whether the file name's extension or its declared MIME
// type matches at least one accepted pattern. An empty accepted set means no
// restriction. Extension patterns start with a dot and match the file name
// suffix; anything else is compared against the MIME type. Matching is
// case-insensitive.
func (d Descriptor) AcceptsType(fileName, mimeType string) bool {
	if len(d.AcceptedTypes) == 0 {
		return true
	}
	name := strings.ToLower(fileName)
	mime := strings.ToLower(mimeType)
	for _, pattern := range d.AcceptedTypes {
		p := strings.ToLower(strings.TrimSpace(pattern))
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, ".") {
			if strings.HasSuffix(name, p) {
				return true
			}
			continue
		}
		if mime == p {
			return true
		}
		// Wildcard subtype, e.g. "image/*".
		if strings.HasSuffix(p, "/*") && strings.HasPrefix(mime, strings.TrimSuffix(p, "*")) {
			return true
		}
	}
	return false
}

// Set is the loaded collection of descriptors, keyed by slot key.
type Set struct {
	byKey map[string]Descriptor
	order []string
}

// NewSet builds a Set, rejecting duplicate or empty keys.
func NewSet(descriptors []Descriptor) (*Set, error) {
	s := &Set{byKey: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if d.Key == "" {
			return nil, fmt.Errorf("descriptor with empty key (label %q)", d.Label)
		}
		if _, dup := s.byKey[d.Key]; dup {
			return nil, fmt.Errorf("duplicate descriptor key %q", d.Key)
		}
		s.byKey[d.Key] = d
		s.order = append(s.order, d.Key)
	}
	return s, nil
}

// Get returns the descriptor for a slot key.
func (s *Set) Get(key string) (Descriptor, bool) {
	d, ok := s.byKey[key]
	return d, ok
}

// All returns descriptors in declaration order.
func (s *Set) All() []Descriptor {
	out := make([]Descriptor, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.byKey[key])
	}
	return out
}

// Required returns only the descriptors marked required.
func (s *Set) Required() []Descriptor {
	var out []Descriptor
	for _, d := range s.All() {
		if d.Required {
			out = append(out, d)
		}
	}
	return out
}
