package events

import (
	"context"

	"outreach_backend/platform/logger"
)

// RegisterLoggingHandlers subscribes log-only handlers for every nurture
// event. Outbound notification delivery belongs to a separate system; these
// handlers exist so terminal outcomes are observable in every entrypoint.
func RegisterLoggingHandlers(bus Bus, log *logger.Logger) {
	bus.Subscribe(LeadMarkedCold{}.EventName(), HandlerFunc(func(_ context.Context, e Event) error {
		ev := e.(LeadMarkedCold)
		log.Info("lead marked cold", "lead_id", ev.LeadID, "site_id", ev.SiteID)
		return nil
	}))

	bus.Subscribe(CadenceCompleted{}.EventName(), HandlerFunc(func(_ context.Context, e Event) error {
		ev := e.(CadenceCompleted)
		log.Info("cadence completed", "lead_id", ev.LeadID, "message_id", ev.MessageID, "site_id", ev.SiteID)
		return nil
	}))

	bus.Subscribe(NurtureRunCompleted{}.EventName(), HandlerFunc(func(_ context.Context, e Event) error {
		ev := e.(NurtureRunCompleted)
		log.Info("nurture run completed",
			"site_id", ev.SiteID,
			"total_checked", ev.TotalChecked,
			"considered", ev.Considered,
			"excluded_by_assignee", ev.ExcludedByAssignee,
			"failed", ev.FailedLeads,
			"resumed", ev.Stats.Resumed,
		)
		return nil
	}))
}
