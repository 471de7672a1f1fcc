package scheduler

import (
	"context"
	"time"

	"outreach_backend/internal/nurture/domain"
	"outreach_backend/internal/nurture/repository"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NurtureDispatcher periodically fans out one nurture-run task per tenant
// that currently has eligible leads. Retry policy and at-least-once delivery
// belong to the queue; the worker's run-lock handles duplicates.
type NurtureDispatcher struct {
	client   *Client
	sites    repository.SiteLister
	interval time.Duration
	log      *logger.Logger
}

func NewNurtureDispatcher(cfg config.SchedulerConfig, pool *pgxpool.Pool, log *logger.Logger) (*NurtureDispatcher, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	interval := cfg.GetNurtureRunInterval()
	if interval <= 0 {
		interval = time.Hour
	}

	return &NurtureDispatcher{
		client:   client,
		sites:    repository.New(pool),
		interval: interval,
		log:      log,
	}, nil
}

func (d *NurtureDispatcher) Close() error {
	if d == nil {
		return nil
	}
	return d.client.Close()
}

func (d *NurtureDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil || d.sites == nil {
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		siteIDs, err := d.sites.ListActiveSiteIDs(ctx, domain.NurtureStatuses)
		if err != nil {
			d.log.Warn("nurture dispatch: site listing failed", "error", err)
			continue
		}

		for _, siteID := range siteIDs {
			payload := NurtureRunPayload{SiteID: siteID.String()}
			if err := d.client.EnqueueNurtureRun(ctx, payload); err != nil {
				d.log.Warn("nurture dispatch: enqueue failed", "site_id", siteID, "error", err)
			}
		}
	}
}
