// Package events defines the domain events published by this service and
// re-exports the platform bus so modules need a single import.
package events

import (
	"outreach_backend/internal/nurture/domain"
	platformevents "outreach_backend/platform/events"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-exported platform event types.
type (
	Event       = platformevents.Event
	BaseEvent   = platformevents.BaseEvent
	Bus         = platformevents.Bus
	Handler     = platformevents.Handler
	HandlerFunc = platformevents.HandlerFunc
	InMemoryBus = platformevents.InMemoryBus
)

// NewBaseEvent creates a new base event with the current timestamp.
func NewBaseEvent() BaseEvent {
	return platformevents.NewBaseEvent()
}

// NewInMemoryBus creates the process-local bus used by all entrypoints.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

// LeadMarkedCold fires when the cadence exhausts for a contacted lead and
// the engine sets its status to cold.
type LeadMarkedCold struct {
	BaseEvent
	LeadID uuid.UUID
	SiteID uuid.UUID
}

func (LeadMarkedCold) EventName() string { return "nurture.lead_marked_cold" }

// CadenceCompleted fires when the cadence exhausts for a non-contacted lead
// and the engine tags its last message as completed.
type CadenceCompleted struct {
	BaseEvent
	LeadID    uuid.UUID
	MessageID uuid.UUID
	SiteID    uuid.UUID
}

func (CadenceCompleted) EventName() string { return "nurture.cadence_completed" }

// NurtureRunCompleted fires after every run with the aggregate outcome.
type NurtureRunCompleted struct {
	BaseEvent
	SiteID             uuid.UUID
	TotalChecked       int
	Considered         int
	ExcludedByAssignee int
	Stats              domain.Stats
	FailedLeads        int
}

func (NurtureRunCompleted) EventName() string { return "nurture.run_completed" }
