// Package audit captures key portal actions as append-only events. Events
// are emitted from domain logic, queued in process, and persisted by a
// background worker; an optional Kafka sink mirrors them for downstream
// consumers.
package audit

import (
	"time"

	id "seacert/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. This
// enables different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance for the
	// accreditation record: uploads, approvals, rejections, renewals.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring:
	// failed logins, rejected transitions, unauthorized attempts.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture one key action. Kept
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category   EventCategory
	Timestamp  time.Time
	Action     Action
	ActorID    id.UserID
	Role       string
	DocumentID string
	Subject    string
	Outcome    string
	Reason     string
	RequestID  string
}

// Action names one auditable portal action.
type Action string

const (
	ActionDocumentUploaded   Action = "document_uploaded"
	ActionValidationFailed   Action = "validation_failed"
	ActionTransitionApplied  Action = "transition_applied"
	ActionTransitionRejected Action = "transition_rejected"
	ActionCommentAdded       Action = "comment_added"
	ActionVersionCreated     Action = "version_created"
	ActionRenewalRequested   Action = "renewal_requested"
	ActionRenewalCompleted   Action = "renewal_completed"
	ActionApplicationCreated Action = "application_created"
	ActionLoginSucceeded     Action = "login_succeeded"
	ActionLoginFailed        Action = "login_failed"
)

// actionCategories maps each action to its category. Compliance events are
// the accreditation record of fact; security events feed alerting; the rest
// is operational visibility.
var actionCategories = map[Action]EventCategory{
	ActionDocumentUploaded:   CategoryCompliance,
	ActionTransitionApplied:  CategoryCompliance,
	ActionVersionCreated:     CategoryCompliance,
	ActionRenewalRequested:   CategoryCompliance,
	ActionRenewalCompleted:   CategoryCompliance,
	ActionApplicationCreated: CategoryCompliance,

	ActionValidationFailed:   CategorySecurity,
	ActionTransitionRejected: CategorySecurity,
	ActionLoginFailed:        CategorySecurity,

	ActionCommentAdded:   CategoryOperations,
	ActionLoginSucceeded: CategoryOperations,
}

// Category returns the EventCategory for this action. Unknown actions
// default to CategoryOperations.
func (a Action) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}
