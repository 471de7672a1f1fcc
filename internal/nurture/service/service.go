// Package service orchestrates nurture sequencing runs: loading candidates,
// resolving message history, classifying, selecting capped batches, and
// committing terminal side effects.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"outreach_backend/internal/events"
	"outreach_backend/internal/nurture/domain"
	"outreach_backend/internal/nurture/repository"
	"outreach_backend/internal/nurture/transport"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Per-lead message lookups get their own deadline so one slow row cannot
// stall the run; a timeout is a recoverable per-row failure.
const lookupTimeout = 5 * time.Second

// lookupRate throttles message-history lookups against the store.
const lookupRate = rate.Limit(100)

const errDatabaseUnavailable = "Database not available"

// Service runs the nurture sequencing engine.
type Service struct {
	store    repository.Store
	eventBus events.Bus
	log      *logger.Logger
	defaults domain.Thresholds
	workers  int
	now      func() time.Time
}

// New creates the nurture service with defaults taken from configuration.
func New(store repository.Store, eventBus events.Bus, cfg config.NurtureConfig, log *logger.Logger) *Service {
	defaults := domain.DefaultThresholds()
	if cfg != nil {
		if v := cfg.GetNurtureDaysWithoutReply(); v > 0 {
			defaults.DaysWithoutReply = v
		}
		if v := cfg.GetNurtureMaxLeadsPerStage(); v > 0 {
			defaults.MaxLeadsPerStage = v
		}
		if v := cfg.GetNurtureLegacyLimit(); v > 0 {
			defaults.LegacyLimit = v
		}
		if v := cfg.GetNurtureScanCap(); v > 0 {
			defaults.ScanCap = v
		}
	}

	workers := 5
	if cfg != nil && cfg.GetNurtureWorkerCount() > 0 {
		workers = cfg.GetNurtureWorkerCount()
	}

	return &Service{
		store:    store,
		eventBus: eventBus,
		log:      log,
		defaults: defaults,
		workers:  workers,
		now:      time.Now,
	}
}

// classified pairs a candidate with its resolved evidence and decision.
type classified struct {
	lead     domain.Lead
	message  *domain.Message
	decision domain.Decision
	err      error
}

// Run executes one nurture sequencing run for a tenant. It always returns a
// well-formed response; Success is false only when the candidate scan itself
// failed and nothing was applied.
func (s *Service) Run(ctx context.Context, siteID uuid.UUID, req transport.RunRequest) transport.RunResponse {
	cfg := s.thresholdsFor(req)
	now := s.now()

	resp := transport.RunResponse{
		Leads: make([]domain.Lead, 0),
		LeadsByStage: transport.StageBuckets{
			Reminder:     make([]domain.Lead, 0),
			ProvideValue: make([]domain.Lead, 0),
			Breakup:      make([]domain.Lead, 0),
		},
		ThresholdDate: now.AddDate(0, 0, -cfg.DaysWithoutReply),
	}

	candidates, err := s.store.ListCandidates(ctx, siteID, domain.NurtureStatuses, cfg.ScanCap)
	if err != nil {
		s.log.DatabaseError("nurture list candidates", err)
		resp.Errors = append(resp.Errors, errDatabaseUnavailable)
		return resp
	}

	resp.Success = true
	resp.TotalChecked = len(candidates)

	// Assigned leads leave the pipeline before any message is ever queried.
	considered := make([]domain.Lead, 0, len(candidates))
	for _, lead := range candidates {
		if lead.AssigneeID != nil {
			resp.ExcludedByAssignee++
			continue
		}
		considered = append(considered, lead)
	}
	resp.Considered = len(considered)

	results := s.classifyAll(ctx, siteID, considered, cfg, now)

	// A single sequential pass applies capacity gating and terminal commits,
	// preserving the loader's recency order so repeated runs fill buckets
	// identically.
	selector := domain.NewSelector(cfg)
	failed := 0
	terminal := 0
	for _, res := range results {
		if ctx.Err() != nil {
			resp.Errors = append(resp.Errors, "run cancelled: "+ctx.Err().Error())
			break
		}

		if res.err != nil {
			failed++
			resp.Errors = append(resp.Errors, fmt.Sprintf("lead %s: %v", res.lead.ID, res.err))
			continue
		}

		switch res.decision.Kind {
		case domain.DecisionAssign:
			selector.Offer(res.lead, res.decision)
		case domain.DecisionTerminalCold:
			terminal++
			if err := s.commitCold(ctx, res.lead); err != nil {
				failed++
				resp.Errors = append(resp.Errors, fmt.Sprintf("lead %s: mark cold: %v", res.lead.ID, err))
			}
		case domain.DecisionTerminalCompleted:
			terminal++
			if err := s.commitCompleted(ctx, res.lead, res.message); err != nil {
				failed++
				resp.Errors = append(resp.Errors, fmt.Sprintf("lead %s: mark completed: %v", res.lead.ID, err))
			}
		}
	}

	resp.LeadsByStage = transport.StageBuckets{
		Reminder:     selector.Bucket(domain.StageReminder),
		ProvideValue: selector.Bucket(domain.StageProvideValue),
		Breakup:      selector.Bucket(domain.StageBreakup),
	}
	resp.Leads = selector.Flattened()
	resp.Stats = selector.Stats()

	s.log.NurtureRun(siteID.String(), resp.TotalChecked, resp.Considered, selector.Placed(), terminal, failed)

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.NurtureRunCompleted{
			BaseEvent:          events.NewBaseEvent(),
			SiteID:             siteID,
			TotalChecked:       resp.TotalChecked,
			Considered:         resp.Considered,
			ExcludedByAssignee: resp.ExcludedByAssignee,
			Stats:              resp.Stats,
			FailedLeads:        failed,
		})
	}

	return resp
}

// classifyAll resolves message history and classifies candidates with a
// bounded worker pool. Results keep candidate order; per-lead failures are
// recorded in place, never propagated.
func (s *Service) classifyAll(ctx context.Context, siteID uuid.UUID, candidates []domain.Lead, cfg domain.Thresholds, now time.Time) []classified {
	results := make([]classified, len(candidates))
	limiter := rate.NewLimiter(lookupRate, s.workers)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, lead := range candidates {
		i, lead := i, lead
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				// Cancellation between leads; leave the slot zero-valued so
				// the collector skips it as a recorded failure.
				mu.Lock()
				results[i] = classified{lead: lead, err: err}
				mu.Unlock()
				return nil
			}

			lookupCtx, cancel := context.WithTimeout(gctx, lookupTimeout)
			msg, err := s.store.LatestMessageForLead(lookupCtx, lead.ID, siteID)
			cancel()

			res := classified{lead: lead, message: msg}
			if err != nil {
				res.err = fmt.Errorf("message lookup: %w", err)
			} else {
				res.decision = domain.Classify(msg, lead.Status, cfg, now)
			}

			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	return results
}

// commitCold applies the terminal outcome for a contacted lead whose cadence
// is exhausted: the lead goes cold.
func (s *Service) commitCold(ctx context.Context, lead domain.Lead) error {
	if err := s.store.UpdateLeadStatus(ctx, lead.ID, lead.SiteID, domain.LeadStatusCold); err != nil {
		return err
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.LeadMarkedCold{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			SiteID:    lead.SiteID,
		})
	}
	return nil
}

// commitCompleted applies the terminal outcome for a non-contacted lead:
// the cadence marker on its last message becomes completed.
func (s *Service) commitCompleted(ctx context.Context, lead domain.Lead, msg *domain.Message) error {
	if msg == nil {
		return fmt.Errorf("no message to tag")
	}

	if err := s.store.UpdateMessageTag(ctx, msg.ID, domain.TagCompleted); err != nil {
		return err
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.CadenceCompleted{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			MessageID: msg.ID,
			SiteID:    lead.SiteID,
		})
	}
	return nil
}

// thresholdsFor merges per-request overrides onto the configured defaults.
func (s *Service) thresholdsFor(req transport.RunRequest) domain.Thresholds {
	cfg := s.defaults
	if req.DaysWithoutReply != nil && *req.DaysWithoutReply > 0 {
		cfg.DaysWithoutReply = *req.DaysWithoutReply
	}
	if req.Limit != nil && *req.Limit > 0 {
		cfg.LegacyLimit = *req.Limit
	}
	if req.MaxLeadsPerStage != nil && *req.MaxLeadsPerStage > 0 {
		cfg.MaxLeadsPerStage = *req.MaxLeadsPerStage
	}
	return cfg
}
