package requirement

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads descriptors from a JSON file (an array of Descriptor objects).
// An empty path returns the compiled-in default set.
func Load(path string) (*Set, error) {
	if path == "" {
		return NewSet(Defaults())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptors: %w", err)
	}
	var descriptors []Descriptor
	if err := json.Unmarshal(raw, &descriptors); err != nil {
		return nil, fmt.Errorf("parse descriptors: %w", err)
	}
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("descriptor file %s is empty", path)
	}
	return NewSet(descriptors)
}

// Defaults returns the standard maritime accreditation document slots.
func Defaults() []Descriptor {
	const mb = int64(1_000_000)
	return []Descriptor{
		{
			Key:           "accreditation_certificate",
			Label:         "Accreditation Certificate",
			Category:      "accreditation",
			Required:      true,
			AcceptedTypes: []string{".pdf"},
			MaxSizeBytes:  5 * mb,
			ValidityYears: 3,
		},
		{
			Key:           "business_registration",
			Label:         "Business Registration",
			Category:      "legal",
			Required:      true,
			AcceptedTypes: []string{".pdf"},
			MaxSizeBytes:  5 * mb,
		},
		{
			Key:           "safety_management_certificate",
			Label:         "Safety Management Certificate",
			Category:      "safety",
			Required:      true,
			AcceptedTypes: []string{".pdf"},
			MaxSizeBytes:  5 * mb,
			ValidityYears: 1,
		},
		{
			Key:           "instructor_credentials",
			Label:         "Instructor Credentials",
			Category:      "staffing",
			Required:      true,
			AcceptedTypes: []string{".pdf", ".doc", ".docx"},
			MaxSizeBytes:  10 * mb,
		},
		{
			Key:           "training_curriculum",
			Label:         "Training Curriculum",
			Category:      "curriculum",
			Required:      true,
			AcceptedTypes: []string{".pdf", ".doc", ".docx"},
			MaxSizeBytes:  20 * mb,
		},
		{
			Key:           "facility_inspection_report",
			Label:         "Facility Inspection Report",
			Category:      "facilities",
			Required:      false,
			AcceptedTypes: []string{".pdf"},
			MaxSizeBytes:  10 * mb,
			ValidityYears: 2,
		},
		{
			Key:           "facility_photos",
			Label:         "Facility Photographs",
			Category:      "facilities",
			Required:      false,
			AcceptedTypes: []string{"image/*"},
			MaxSizeBytes:  8 * mb,
		},
	}
}
