// Package analytics reports workflow events to best-effort sinks.
package analytics

import (
	"time"

	"github.com/google/uuid"
)

// EventType names an event variant.
type EventType string

const (
	EventBondSubmitted     EventType = "bond_submitted"
	EventBondDeclined      EventType = "bond_declined"
	EventApprovalSubmitted EventType = "approval_submitted"
	EventSubmissionFailed  EventType = "submission_failed"
	EventValidationFailed  EventType = "validation_failed"
)

// Event is one of the variants below.
type Event interface {
	Type() EventType
	Metadata() Meta
	isEvent()
}

// Meta is shared by every variant.
type Meta struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"ts"`
	Asset     string    `json:"asset"`
}

// NewMeta stamps a fresh event id and time for asset.
func NewMeta(asset string) Meta {
	return Meta{ID: uuid.NewString(), Timestamp: time.Now().UTC(), Asset: asset}
}

// BondSubmitted is reported after the bond transaction went through.
type BondSubmitted struct {
	Meta
	Quantity  string `json:"quantity"`
	Slippage  string `json:"slippage"`
	Recipient string `json:"recipient"`
	Rebond    bool   `json:"rebond"`
}

// BondDeclined is reported when the user refused to reset an existing bond.
type BondDeclined struct {
	Meta
	InterestDue   string `json:"interest_due"`
	PendingPayout string `json:"pending_payout"`
}

// ApprovalSubmitted is reported after the allowance transaction went through.
type ApprovalSubmitted struct {
	Meta
}

// SubmissionFailed is reported when the submitter returned an error.
type SubmissionFailed struct {
	Meta
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// ValidationFailed is reported when input was rejected before any submission.
type ValidationFailed struct {
	Meta
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e BondSubmitted) Type() EventType     { return EventBondSubmitted }
func (e BondDeclined) Type() EventType      { return EventBondDeclined }
func (e ApprovalSubmitted) Type() EventType { return EventApprovalSubmitted }
func (e SubmissionFailed) Type() EventType  { return EventSubmissionFailed }
func (e ValidationFailed) Type() EventType  { return EventValidationFailed }

func (m Meta) Metadata() Meta { return m }

func (BondSubmitted) isEvent()     {}
func (BondDeclined) isEvent()      {}
func (ApprovalSubmitted) isEvent() {}
func (SubmissionFailed) isEvent()  {}
func (ValidationFailed) isEvent()  {}
