// Package application manages accreditation applications. An application is
// the unit an institution submits for review; its lifecycle runs on the same
// workflow graph and role gates as individual documents.
package application

import (
	"time"

	"seacert/internal/workflow"
	id "seacert/pkg/domain"
)

// Type names what kind of accreditation is being sought.
type Type string

const (
	TypeNewAccreditation Type = "new_accreditation"
	TypeRenewal          Type = "renewal"
	TypeScopeExtension   Type = "scope_extension"
)

var validTypes = map[Type]bool{
	TypeNewAccreditation: true,
	TypeRenewal:          true,
	TypeScopeExtension:   true,
}

// Application is one accreditation request by an institution.
type Application struct {
	ID            id.ApplicationID
	InstitutionID id.InstitutionID
	Type          Type
	WorkflowState workflow.State
	// Revision increments on every state change and feeds the same
	// compare-and-swap precondition documents use.
	Revision  int
	CreatedAt time.Time
	History   []workflow.HistoryEntry
}
