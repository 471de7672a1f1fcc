package domain

import (
	"testing"

	"github.com/google/uuid"
)

func testLead() Lead {
	return Lead{ID: uuid.New(), Status: LeadStatusContacted}
}

func assign(stage Stage) Decision {
	return Decision{Kind: DecisionAssign, Stage: stage}
}

func TestSelectorCapsEveryBucket(t *testing.T) {
	cfg := DefaultThresholds()
	cfg.MaxLeadsPerStage = 3
	sel := NewSelector(cfg)

	for i := 0; i < 5; i++ {
		sel.Offer(testLead(), assign(StageReminder))
	}

	for _, stage := range Stages {
		if got := len(sel.Bucket(stage)); got > cfg.MaxLeadsPerStage {
			t.Errorf("stage %s bucket has %d leads, cap is %d", stage, got, cfg.MaxLeadsPerStage)
		}
	}
	if got := len(sel.Bucket(StageReminder)); got != 3 {
		t.Fatalf("reminder bucket = %d, want 3", got)
	}
}

func TestSelectorOverflowSkipsStatsToo(t *testing.T) {
	// Capacity gates both the bucket push and the stat increment. Leads
	// offered to a full bucket vanish from both, which is why considered
	// can exceed the sum of stats.
	cfg := DefaultThresholds()
	cfg.MaxLeadsPerStage = 2
	sel := NewSelector(cfg)

	placed := 0
	for i := 0; i < 5; i++ {
		if sel.Offer(testLead(), assign(StageBreakup)) {
			placed++
		}
	}

	if placed != 2 {
		t.Fatalf("placed = %d, want 2", placed)
	}
	if got := sel.Stats().Breakup; got != 2 {
		t.Fatalf("stats.breakup = %d, want 2 (overflow must not be credited)", got)
	}
}

func TestSelectorResumedCountsSeparately(t *testing.T) {
	sel := NewSelector(DefaultThresholds())

	sel.Offer(testLead(), Decision{Kind: DecisionAssign, Stage: StageReminder})
	sel.Offer(testLead(), Decision{Kind: DecisionAssign, Stage: StageReminder, Resumed: true})

	stats := sel.Stats()
	if stats.Reminder != 1 || stats.Resumed != 1 {
		t.Fatalf("stats = %+v, want reminder=1 resumed=1", stats)
	}
	// Both land in the reminder bucket regardless of which counter they hit.
	if got := len(sel.Bucket(StageReminder)); got != 2 {
		t.Fatalf("reminder bucket = %d, want 2", got)
	}
}

func TestSelectorIgnoresNonAssignDecisions(t *testing.T) {
	sel := NewSelector(DefaultThresholds())

	for _, kind := range []DecisionKind{DecisionNone, DecisionPause, DecisionTerminalCold, DecisionTerminalCompleted} {
		if sel.Offer(testLead(), Decision{Kind: kind}) {
			t.Errorf("Offer accepted decision kind %v", kind)
		}
	}

	if sel.Placed() != 0 {
		t.Fatalf("placed = %d, want 0", sel.Placed())
	}
	if sel.Stats() != (Stats{}) {
		t.Fatalf("stats = %+v, want zero", sel.Stats())
	}
}

func TestSelectorFlattenedOrderAndTruncation(t *testing.T) {
	cfg := DefaultThresholds()
	cfg.MaxLeadsPerStage = 4
	cfg.LegacyLimit = 7
	sel := NewSelector(cfg)

	reminders := make([]uuid.UUID, 0, 4)
	for i := 0; i < 4; i++ {
		lead := testLead()
		reminders = append(reminders, lead.ID)
		sel.Offer(lead, assign(StageReminder))
	}
	for i := 0; i < 4; i++ {
		sel.Offer(testLead(), assign(StageProvideValue))
	}
	for i := 0; i < 4; i++ {
		sel.Offer(testLead(), assign(StageBreakup))
	}

	flat := sel.Flattened()
	if len(flat) != 7 {
		t.Fatalf("flattened length = %d, want legacy limit 7", len(flat))
	}

	// Stage order preserved: reminder leads come first, in insertion order.
	for i, wantID := range reminders {
		if flat[i].ID != wantID {
			t.Fatalf("flattened[%d] = %s, want reminder lead %s", i, flat[i].ID, wantID)
		}
	}

	// provide_value leads follow, truncated mid-bucket.
	pv := sel.Bucket(StageProvideValue)
	for i := 0; i < 3; i++ {
		if flat[4+i].ID != pv[i].ID {
			t.Fatalf("flattened[%d] = %s, want provide_value lead %s", 4+i, flat[4+i].ID, pv[i].ID)
		}
	}
}

func TestSelectorStatsMatchPlacedLeads(t *testing.T) {
	cfg := DefaultThresholds()
	cfg.MaxLeadsPerStage = 2
	sel := NewSelector(cfg)

	offers := []Decision{
		assign(StageReminder),
		{Kind: DecisionAssign, Stage: StageReminder, Resumed: true},
		assign(StageReminder), // overflow, dropped
		assign(StageProvideValue),
		assign(StageBreakup),
		assign(StageBreakup),
		assign(StageBreakup), // overflow, dropped
	}
	for _, d := range offers {
		sel.Offer(testLead(), d)
	}

	stats := sel.Stats()
	sum := stats.Reminder + stats.ProvideValue + stats.Breakup + stats.Resumed
	if sum != sel.Placed() {
		t.Fatalf("stats sum %d != placed %d", sum, sel.Placed())
	}
}
