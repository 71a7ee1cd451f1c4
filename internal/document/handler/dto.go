package handler

import (
	"time"

	"seacert/internal/document"
	"seacert/internal/workflow"
)

type documentResponse struct {
	ID             string            `json:"id"`
	OwnerKind      string            `json:"owner_kind"`
	OwnerID        string            `json:"owner_id"`
	RequirementKey string            `json:"requirement_key"`
	Name           string            `json:"name"`
	MimeType       string            `json:"mime_type"`
	SizeBytes      int64             `json:"size_bytes"`
	Status         string            `json:"status"`
	WorkflowState  string            `json:"workflow_state"`
	Version        int               `json:"version"`
	UploadDate     time.Time         `json:"upload_date"`
	ExpiryDate     *time.Time        `json:"expiry_date,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	History        []historyEntry    `json:"history"`
	NextStates     []string          `json:"next_states"`
}

type historyEntry struct {
	State     string    `json:"state"`
	Timestamp time.Time `json:"timestamp"`
	Comment   string    `json:"comment,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
}

type uploadResponse struct {
	Document documentResponse `json:"document"`
	Warnings []string         `json:"warnings,omitempty"`
}

type listResponse struct {
	Documents []documentResponse `json:"documents"`
}

type transitionRequest struct {
	Target          string `json:"target"`
	Comment         string `json:"comment"`
	ExpectedVersion int    `json:"expected_version"`
}

type commentRequest struct {
	Comment string `json:"comment"`
}

type versionResponse struct {
	Number     int       `json:"number"`
	Name       string    `json:"name"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadDate time.Time `json:"upload_date"`
}

type versionsResponse struct {
	Versions []versionResponse `json:"versions"`
}

type signedURLResponse struct {
	URL string `json:"url"`
}

type expiryResponse struct {
	Status     string  `json:"status"`
	ExpiryDate *string `json:"expiry_date,omitempty"`
}

type validationFailureResponse struct {
	Error            string   `json:"error"`
	ErrorDescription string   `json:"error_description"`
	Errors           []string `json:"validation_errors"`
	Warnings         []string `json:"warnings,omitempty"`
}

func toDocumentResponse(doc *document.Document) documentResponse {
	history := make([]historyEntry, 0, len(doc.History))
	for _, e := range doc.History {
		he := historyEntry{
			State:     string(e.State),
			Timestamp: e.Timestamp,
			Comment:   e.Comment,
		}
		if !e.ActorID.IsNil() {
			he.ActorID = e.ActorID.String()
		}
		history = append(history, he)
	}
	next := workflow.Successors(doc.WorkflowState)
	nextStates := make([]string, 0, len(next))
	for _, s := range next {
		nextStates = append(nextStates, string(s))
	}
	return documentResponse{
		ID:             doc.ID.String(),
		OwnerKind:      string(doc.OwnerKind),
		OwnerID:        doc.OwnerID,
		RequirementKey: doc.RequirementKey,
		Name:           doc.Name,
		MimeType:       doc.MimeType,
		SizeBytes:      doc.SizeBytes,
		Status:         string(doc.Status),
		WorkflowState:  string(doc.WorkflowState),
		Version:        doc.Version,
		UploadDate:     doc.UploadDate,
		ExpiryDate:     doc.ExpiryDate,
		Metadata:       doc.Metadata,
		History:        history,
		NextStates:     nextStates,
	}
}

func toVersionResponse(v *document.Version) versionResponse {
	return versionResponse{
		Number:     v.Number,
		Name:       v.Name,
		MimeType:   v.MimeType,
		SizeBytes:  v.SizeBytes,
		UploadDate: v.UploadDate,
	}
}
