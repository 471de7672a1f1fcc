package service

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"outreach_backend/internal/nurture/domain"
	"outreach_backend/internal/nurture/transport"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

var runNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// fakeStore is an in-memory Store with injectable failures.
type fakeStore struct {
	mu sync.Mutex

	leads    []domain.Lead
	messages map[uuid.UUID]*domain.Message

	listErr    error
	lookupErrs map[uuid.UUID]error
	updateErr  error

	queried    []uuid.UUID
	coldLeads  []uuid.UUID
	taggedMsgs map[uuid.UUID]domain.CadenceTag
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		messages:   make(map[uuid.UUID]*domain.Message),
		lookupErrs: make(map[uuid.UUID]error),
		taggedMsgs: make(map[uuid.UUID]domain.CadenceTag),
	}
}

func (f *fakeStore) ListCandidates(_ context.Context, _ uuid.UUID, _ []domain.LeadStatus, limit int) ([]domain.Lead, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.leads) > limit {
		return f.leads[:limit], nil
	}
	return f.leads, nil
}

func (f *fakeStore) LatestMessageForLead(_ context.Context, leadID, _ uuid.UUID) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queried = append(f.queried, leadID)
	if err, ok := f.lookupErrs[leadID]; ok {
		return nil, err
	}
	return f.messages[leadID], nil
}

func (f *fakeStore) UpdateLeadStatus(_ context.Context, leadID, _ uuid.UUID, status domain.LeadStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if status == domain.LeadStatusCold {
		f.coldLeads = append(f.coldLeads, leadID)
	}
	return nil
}

func (f *fakeStore) UpdateMessageTag(_ context.Context, messageID uuid.UUID, tag domain.CadenceTag) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.taggedMsgs[messageID] = tag
	return nil
}

func (f *fakeStore) addLead(status domain.LeadStatus, assignee *uuid.UUID, msg *domain.Message) domain.Lead {
	lead := domain.Lead{
		ID:         uuid.New(),
		SiteID:     testSiteID,
		Status:     status,
		AssigneeID: assignee,
		UpdatedAt:  runNow,
	}
	f.leads = append(f.leads, lead)
	if msg != nil {
		msg.LeadID = lead.ID
		f.messages[lead.ID] = msg
	}
	return lead
}

var testSiteID = uuid.New()

func newTestService(store *fakeStore) *Service {
	svc := New(store, nil, nil, logger.New("development"))
	svc.now = func() time.Time { return runNow }
	return svc
}

func assistantMessage(tag domain.CadenceTag, ageDays float64) *domain.Message {
	return &domain.Message{
		ID:        uuid.New(),
		Role:      domain.RoleAssistant,
		Tag:       tag,
		CreatedAt: runNow.Add(-time.Duration(ageDays * 24 * float64(time.Hour))),
	}
}

func TestRunBucketsAndTerminals(t *testing.T) {
	store := newFakeStore()

	dueReminder := store.addLead(domain.LeadStatusContacted, nil, assistantMessage(domain.TagNone, 8))
	dueProvideValue := store.addLead(domain.LeadStatusContacted, nil, assistantMessage(domain.TagReminder, 5))
	dueBreakup := store.addLead(domain.LeadStatusQualified, nil, assistantMessage(domain.TagProvideValue, 8))
	waiting := store.addLead(domain.LeadStatusContacted, nil, assistantMessage(domain.TagNone, 2))
	paused := store.addLead(domain.LeadStatusContacted, nil, &domain.Message{
		ID: uuid.New(), Role: domain.RoleUser, CreatedAt: runNow.Add(-30 * 24 * time.Hour),
	})
	noHistory := store.addLead(domain.LeadStatusContacted, nil, nil)
	coldBound := store.addLead(domain.LeadStatusContacted, nil, assistantMessage(domain.TagBreakup, 7))
	completedBound := store.addLead(domain.LeadStatusQualified, nil, assistantMessage(domain.TagBreakup, 7))

	resp := newTestService(store).Run(context.Background(), testSiteID, transport.RunRequest{})

	if !resp.Success {
		t.Fatalf("run failed: %v", resp.Errors)
	}
	if resp.TotalChecked != 8 || resp.Considered != 8 {
		t.Fatalf("totalChecked=%d considered=%d, want 8/8", resp.TotalChecked, resp.Considered)
	}

	wantBucket := func(bucket []domain.Lead, want uuid.UUID, stage string) {
		t.Helper()
		if len(bucket) != 1 || bucket[0].ID != want {
			t.Fatalf("%s bucket = %v, want exactly lead %s", stage, bucket, want)
		}
	}
	wantBucket(resp.LeadsByStage.Reminder, dueReminder.ID, "reminder")
	wantBucket(resp.LeadsByStage.ProvideValue, dueProvideValue.ID, "provide_value")
	wantBucket(resp.LeadsByStage.Breakup, dueBreakup.ID, "breakup")

	// Terminal, waiting, paused and history-less leads are absent from every bucket.
	for _, lead := range resp.Leads {
		for _, absent := range []uuid.UUID{waiting.ID, paused.ID, noHistory.ID, coldBound.ID, completedBound.ID} {
			if lead.ID == absent {
				t.Fatalf("lead %s should not appear in any bucket", absent)
			}
		}
	}

	// Terminal side effects applied.
	if len(store.coldLeads) != 1 || store.coldLeads[0] != coldBound.ID {
		t.Fatalf("cold leads = %v, want [%s]", store.coldLeads, coldBound.ID)
	}
	msgID := store.messages[completedBound.ID].ID
	if store.taggedMsgs[msgID] != domain.TagCompleted {
		t.Fatalf("message %s tag = %q, want completed", msgID, store.taggedMsgs[msgID])
	}

	if resp.Stats != (domain.Stats{Reminder: 1, ProvideValue: 1, Breakup: 1}) {
		t.Fatalf("stats = %+v", resp.Stats)
	}
	if want := runNow.AddDate(0, 0, -7); !resp.ThresholdDate.Equal(want) {
		t.Fatalf("thresholdDate = %v, want %v", resp.ThresholdDate, want)
	}
}

func TestRunExcludesAssignedLeadsBeforeLookup(t *testing.T) {
	store := newFakeStore()
	agent := uuid.New()
	assigned := store.addLead(domain.LeadStatusContacted, &agent, assistantMessage(domain.TagNone, 30))
	free := store.addLead(domain.LeadStatusContacted, nil, assistantMessage(domain.TagNone, 8))

	resp := newTestService(store).Run(context.Background(), testSiteID, transport.RunRequest{})

	if resp.ExcludedByAssignee != 1 {
		t.Fatalf("excludedByAssignee = %d, want 1", resp.ExcludedByAssignee)
	}
	if resp.Considered != 1 {
		t.Fatalf("considered = %d, want 1", resp.Considered)
	}
	for _, id := range store.queried {
		if id == assigned.ID {
			t.Fatal("assigned lead was queried for messages")
		}
	}
	if len(resp.LeadsByStage.Reminder) != 1 || resp.LeadsByStage.Reminder[0].ID != free.ID {
		t.Fatalf("reminder bucket = %v, want [%s]", resp.LeadsByStage.Reminder, free.ID)
	}
}

func TestRunStoreUnavailable(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("dial tcp: connection refused")

	resp := newTestService(store).Run(context.Background(), testSiteID, transport.RunRequest{})

	if resp.Success {
		t.Fatal("expected success=false when the store is unreachable")
	}
	if len(resp.Leads) != 0 || len(resp.LeadsByStage.Reminder) != 0 ||
		len(resp.LeadsByStage.ProvideValue) != 0 || len(resp.LeadsByStage.Breakup) != 0 {
		t.Fatal("expected empty buckets on connectivity failure")
	}
	if len(resp.Errors) != 1 || resp.Errors[0] != "Database not available" {
		t.Fatalf("errors = %v, want [\"Database not available\"]", resp.Errors)
	}
}

func TestRunToleratesPerLeadLookupFailure(t *testing.T) {
	store := newFakeStore()
	broken := store.addLead(domain.LeadStatusContacted, nil, nil)
	store.lookupErrs[broken.ID] = errors.New("query timeout")
	healthy := store.addLead(domain.LeadStatusContacted, nil, assistantMessage(domain.TagNone, 8))

	resp := newTestService(store).Run(context.Background(), testSiteID, transport.RunRequest{})

	if !resp.Success {
		t.Fatalf("per-row failure must not fail the run: %v", resp.Errors)
	}
	if len(resp.Errors) != 1 {
		t.Fatalf("errors = %v, want one entry for the broken lead", resp.Errors)
	}
	if len(resp.LeadsByStage.Reminder) != 1 || resp.LeadsByStage.Reminder[0].ID != healthy.ID {
		t.Fatalf("healthy lead missing from reminder bucket: %v", resp.LeadsByStage.Reminder)
	}
}

func TestRunToleratesCommitFailure(t *testing.T) {
	store := newFakeStore()
	store.addLead(domain.LeadStatusContacted, nil, assistantMessage(domain.TagBreakup, 8))
	survivor := store.addLead(domain.LeadStatusContacted, nil, assistantMessage(domain.TagNone, 8))
	store.updateErr = errors.New("write refused")

	resp := newTestService(store).Run(context.Background(), testSiteID, transport.RunRequest{})

	if !resp.Success {
		t.Fatalf("commit failure must not fail the run: %v", resp.Errors)
	}
	if len(resp.Errors) != 1 {
		t.Fatalf("errors = %v, want one entry for the failed commit", resp.Errors)
	}
	if len(resp.LeadsByStage.Reminder) != 1 || resp.LeadsByStage.Reminder[0].ID != survivor.ID {
		t.Fatal("classification must continue past a failed terminal commit")
	}
}

func TestRunIsIdempotentWithoutInterveningActivity(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 6; i++ {
		store.addLead(domain.LeadStatusContacted, nil, assistantMessage(domain.TagNone, 8))
	}
	store.addLead(domain.LeadStatusContacted, nil, assistantMessage(domain.TagReminder, 5))

	svc := newTestService(store)
	first := svc.Run(context.Background(), testSiteID, transport.RunRequest{})
	second := svc.Run(context.Background(), testSiteID, transport.RunRequest{})

	if !reflect.DeepEqual(first.LeadsByStage, second.LeadsByStage) {
		t.Fatal("bucket contents differ between immediate re-runs")
	}
	if first.Stats != second.Stats {
		t.Fatalf("stats differ: %+v vs %+v", first.Stats, second.Stats)
	}
}

func TestRunAppliesRequestOverrides(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 5; i++ {
		store.addLead(domain.LeadStatusContacted, nil, assistantMessage(domain.TagNone, 8))
	}

	maxPerStage := 2
	limit := 1
	resp := newTestService(store).Run(context.Background(), testSiteID, transport.RunRequest{
		MaxLeadsPerStage: &maxPerStage,
		Limit:            &limit,
	})

	if got := len(resp.LeadsByStage.Reminder); got != 2 {
		t.Fatalf("reminder bucket = %d, want capped at 2", got)
	}
	if got := len(resp.Leads); got != 1 {
		t.Fatalf("legacy list = %d, want truncated to 1", got)
	}
	// Overflow leads vanish from stats but stay in considered.
	if resp.Stats.Reminder != 2 {
		t.Fatalf("stats.reminder = %d, want 2", resp.Stats.Reminder)
	}
	if resp.Considered != 5 {
		t.Fatalf("considered = %d, want 5", resp.Considered)
	}
}

func TestRunShortReplyWindowCountsResumed(t *testing.T) {
	store := newFakeStore()
	store.addLead(domain.LeadStatusContacted, nil, assistantMessage(domain.TagNone, 10)) // predates cadence
	store.addLead(domain.LeadStatusContacted, nil, assistantMessage(domain.TagNone, 4))  // fresh, initial

	daysWithoutReply := 3
	resp := newTestService(store).Run(context.Background(), testSiteID, transport.RunRequest{
		DaysWithoutReply: &daysWithoutReply,
	})

	if resp.Stats.Resumed != 1 || resp.Stats.Reminder != 1 {
		t.Fatalf("stats = %+v, want reminder=1 resumed=1", resp.Stats)
	}
	if got := len(resp.LeadsByStage.Reminder); got != 2 {
		t.Fatalf("reminder bucket = %d, want both leads", got)
	}
	if want := runNow.AddDate(0, 0, -3); !resp.ThresholdDate.Equal(want) {
		t.Fatalf("thresholdDate = %v, want %v", resp.ThresholdDate, want)
	}
}
