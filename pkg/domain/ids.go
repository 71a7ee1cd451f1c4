// Package domain holds shared domain primitives: strongly typed identifiers
// validated at parse time so trust boundaries reject malformed IDs early.
package domain

import (
	"github.com/google/uuid"

	dErrors "seacert/pkg/domain-errors"
)

// Typed UUID identifiers. Distinct types keep a DocumentID from ever being
// passed where an ApplicationID is expected.
type (
	DocumentID    uuid.UUID
	ApplicationID uuid.UUID
	InstitutionID uuid.UUID
	UserID        uuid.UUID
	RenewalID     uuid.UUID
)

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}

// ParseDocumentID validates and returns a DocumentID.
func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s)
	return DocumentID(u), err
}

// ParseApplicationID validates and returns an ApplicationID.
func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID(s)
	return ApplicationID(u), err
}

// ParseInstitutionID validates and returns an InstitutionID.
func ParseInstitutionID(s string) (InstitutionID, error) {
	u, err := parseUUID(s)
	return InstitutionID(u), err
}

// ParseUserID validates and returns a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	return UserID(u), err
}

// ParseRenewalID validates and returns a RenewalID.
func ParseRenewalID(s string) (RenewalID, error) {
	u, err := parseUUID(s)
	return RenewalID(u), err
}

// NewDocumentID returns a fresh random DocumentID.
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

// NewApplicationID returns a fresh random ApplicationID.
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }

// NewInstitutionID returns a fresh random InstitutionID.
func NewInstitutionID() InstitutionID { return InstitutionID(uuid.New()) }

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewRenewalID returns a fresh random RenewalID.
func NewRenewalID() RenewalID { return RenewalID(uuid.New()) }

func (id DocumentID) String() string    { return uuid.UUID(id).String() }
func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id InstitutionID) String() string { return uuid.UUID(id).String() }
func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id RenewalID) String() string     { return uuid.UUID(id).String() }

func (id DocumentID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id InstitutionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id RenewalID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
