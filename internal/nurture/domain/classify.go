package domain

import "time"

// Classify decides which cadence step, if any, a lead is due for.
//
// The cadence has no durable state machine: the tag on the latest message
// plus the lead status are the only persisted memory, and elapsed time since
// that message gates every transition. Re-running with unchanged data yields
// the same decision, which keeps the engine safe under at-least-once
// re-execution.
//
// last is the most recent message for the lead (nil when no history exists).
// All elapsed-time thresholds are inclusive and computed in fractional days.
func Classify(last *Message, status LeadStatus, cfg Thresholds, now time.Time) Decision {
	if last == nil {
		// No history yet; the lead has not entered the cadence.
		return Decision{Kind: DecisionNone}
	}

	if last.Role == RoleUser {
		// The lead replied last. The sequence always waits for a human or
		// agent response, regardless of how old the reply is.
		return Decision{Kind: DecisionPause}
	}

	elapsed := now.Sub(last.CreatedAt)
	elapsedDays := elapsed.Hours() / 24

	switch last.Tag {
	case TagNone:
		if elapsedDays < float64(cfg.DaysWithoutReply) {
			return Decision{Kind: DecisionNone}
		}
		// Untagged leads older than the historical reply window predate the
		// cadence tag entirely; they re-enter at reminder as "resumed" rather
		// than being stuck. The window only matters when a caller configures
		// a shorter DaysWithoutReply than the historical default.
		resumed := cfg.DaysWithoutReply < historicalReplyWindowDays &&
			elapsedDays > historicalReplyWindowDays
		return Decision{Kind: DecisionAssign, Stage: StageReminder, Resumed: resumed}

	case TagReminder:
		if elapsed >= cfg.ProvideValueAfter {
			return Decision{Kind: DecisionAssign, Stage: StageProvideValue}
		}

	case TagProvideValue:
		if elapsed >= cfg.BreakupAfter {
			return Decision{Kind: DecisionAssign, Stage: StageBreakup}
		}

	case TagBreakup:
		if elapsed >= cfg.BreakupAfter {
			// Cadence exhausted. The terminal outcome depends on the current
			// lead status, not on the stage alone: contacted leads go cold,
			// anything else just has its cadence marked completed.
			if status == LeadStatusContacted {
				return Decision{Kind: DecisionTerminalCold}
			}
			return Decision{Kind: DecisionTerminalCompleted}
		}

	case TagCompleted:
		// Cadence already finished for this conversation.
		return Decision{Kind: DecisionNone}
	}

	return Decision{Kind: DecisionNone}
}
