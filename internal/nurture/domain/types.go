// Package domain provides core business rules for the nurture bounded context.
// Everything here is pure: no storage, no clock, no logging.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stage is one step of the fixed outreach cadence.
// Stages form a strict total order: reminder < provide_value < breakup.
type Stage string

const (
	StageReminder     Stage = "reminder"
	StageProvideValue Stage = "provide_value"
	StageBreakup      Stage = "breakup"
)

// Stages lists all cadence stages in order.
var Stages = []Stage{StageReminder, StageProvideValue, StageBreakup}

// CadenceTag is the marker stored on the most recent assistant message
// recording which cadence stage was last sent. It is the only persisted
// memory of sequence progress.
type CadenceTag string

const (
	TagNone         CadenceTag = ""
	TagReminder     CadenceTag = "reminder"
	TagProvideValue CadenceTag = "provide_value"
	TagBreakup      CadenceTag = "breakup"
	TagCompleted    CadenceTag = "completed"
)

// ParseCadenceTag normalizes an arbitrary stored value to a known tag.
// Unknown values map to TagNone so classification stays total over
// whatever the metadata field happens to contain.
func ParseCadenceTag(raw string) CadenceTag {
	switch CadenceTag(raw) {
	case TagReminder, TagProvideValue, TagBreakup, TagCompleted:
		return CadenceTag(raw)
	default:
		return TagNone
	}
}

// LeadStatus is the lifecycle status of a lead in the CRM store.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusCold      LeadStatus = "cold"
)

// NurtureStatuses is the status set eligible for cadence processing.
var NurtureStatuses = []LeadStatus{LeadStatusContacted, LeadStatusQualified}

// MessageRole distinguishes who sent a conversation message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Lead is the candidate summary the engine classifies.
type Lead struct {
	ID         uuid.UUID  `json:"id"`
	SiteID     uuid.UUID  `json:"siteId"`
	Status     LeadStatus `json:"status"`
	AssigneeID *uuid.UUID `json:"assigneeId,omitempty"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Phone      string     `json:"phone"`
	Email      *string    `json:"email,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Message is the most recent conversation message for a lead.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	LeadID         uuid.UUID
	Role           MessageRole
	Tag            CadenceTag
	CreatedAt      time.Time
}

// Thresholds is the immutable per-run clock configuration.
type Thresholds struct {
	// DaysWithoutReply gates the first, untagged classification branch.
	DaysWithoutReply int
	// ProvideValueAfter is the wait after a reminder before providing value.
	ProvideValueAfter time.Duration
	// BreakupAfter is the wait after provide_value (and after breakup,
	// before the terminal outcome).
	BreakupAfter time.Duration
	// MaxLeadsPerStage caps each per-stage bucket.
	MaxLeadsPerStage int
	// LegacyLimit truncates the backward-compatible flattened list.
	LegacyLimit int
	// ScanCap bounds the candidate scan per run.
	ScanCap int
}

// historicalReplyWindowDays is the pre-configuration default for
// DaysWithoutReply. Untagged leads older than this window predate the
// cadence tag and re-enter the sequence as "resumed".
const historicalReplyWindowDays = 7

// DefaultThresholds returns the standard cadence configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DaysWithoutReply:  historicalReplyWindowDays,
		ProvideValueAfter: 4 * 24 * time.Hour,
		BreakupAfter:      7 * 24 * time.Hour,
		MaxLeadsPerStage:  10,
		LegacyLimit:       30,
		ScanCap:           500,
	}
}

// DecisionKind enumerates classification outcomes.
type DecisionKind int

const (
	// DecisionNone means the lead is not due for anything yet.
	DecisionNone DecisionKind = iota
	// DecisionPause means the sequence waits for a human/agent reply.
	DecisionPause
	// DecisionAssign places the lead into a cadence stage bucket.
	DecisionAssign
	// DecisionTerminalCold exhausts the cadence for a contacted lead.
	DecisionTerminalCold
	// DecisionTerminalCompleted exhausts the cadence for any other lead.
	DecisionTerminalCompleted
)

// Decision is the classifier output. Stage is set only for DecisionAssign;
// Resumed marks a reminder assignment for a lead whose history predates
// the cadence tag.
type Decision struct {
	Kind    DecisionKind
	Stage   Stage
	Resumed bool
}
