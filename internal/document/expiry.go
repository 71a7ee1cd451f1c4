package document

import (
	"time"

	"seacert/internal/requirement"
)

// ExpiryStatus classifies a document's staleness at view time.
type ExpiryStatus string

const (
	ExpiryCurrent      ExpiryStatus = "current"
	ExpiryExpiringSoon ExpiryStatus = "expiring_soon"
	ExpiryExpired      ExpiryStatus = "expired"
	// ExpiryNone marks documents whose slot has no validity period.
	ExpiryNone ExpiryStatus = "none"
)

// expiringSoonWindow is how far ahead of the expiry date a document is
// flagged for renewal.
const expiringSoonWindow = 30 * 24 * time.Hour

// ComputeExpiry returns the expiry date for an upload at uploadDate under
// the given descriptor, or nil when the slot carries no validity period.
func ComputeExpiry(desc requirement.Descriptor, uploadDate time.Time) *time.Time {
	if !desc.HasValidity() {
		return nil
	}
	expiry := uploadDate.AddDate(desc.ValidityYears, 0, 0)
	return &expiry
}

// ClassifyExpiry reports whether a document is expired, expiring within the
// renewal window, or current as of now.
func ClassifyExpiry(expiryDate *time.Time, now time.Time) ExpiryStatus {
	if expiryDate == nil {
		return ExpiryNone
	}
	switch {
	// The expiry instant itself is already expired; only a strictly
	// positive remaining window counts as expiring_soon.
	case !now.Before(*expiryDate):
		return ExpiryExpired
	case expiryDate.Sub(now) <= expiringSoonWindow:
		return ExpiryExpiringSoon
	default:
		return ExpiryCurrent
	}
}
