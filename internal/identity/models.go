// Package identity manages portal accounts and login. Authentication is
// deliberately thin: bcrypt-checked credentials exchanged for a short-lived
// JWT carrying the account's role.
package identity

import (
	"time"

	id "seacert/pkg/domain"
)

// User is one portal account.
type User struct {
	ID            id.UserID
	Email         string
	PasswordHash  []byte
	Role          string
	InstitutionID string
	CreatedAt     time.Time
}
