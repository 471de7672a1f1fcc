package scheduler

import (
	"context"
	"fmt"

	"outreach_backend/internal/nurture/service"
	"outreach_backend/internal/nurture/transport"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	engine *service.Service
	locks  *RunLock
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, engine *service.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	rdb := redis.NewClient(&redis.Options{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		engine: engine,
		locks:  NewRunLock(rdb, 0),
		log:    log,
	}

	mux.HandleFunc(TaskNurtureRun, w.handleNurtureRun)

	return w, nil
}

func (w *Worker) handleNurtureRun(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseNurtureRunPayload(task)
	if err != nil {
		return err
	}

	siteID, err := uuid.Parse(payload.SiteID)
	if err != nil {
		return err
	}

	acquired, err := w.locks.Acquire(ctx, siteID)
	if err != nil {
		return err
	}
	if !acquired {
		// Another delivery of the same run is executing; at-least-once
		// delivery makes this normal, not an error.
		w.log.Info("nurture run already active, skipping", "site_id", siteID)
		return nil
	}
	defer func() {
		_ = w.locks.Release(context.WithoutCancel(ctx), siteID)
	}()

	resp := w.engine.Run(ctx, siteID, transport.RunRequest{
		SiteID:           payload.SiteID,
		DaysWithoutReply: payload.DaysWithoutReply,
		Limit:            payload.Limit,
		MaxLeadsPerStage: payload.MaxLeadsPerStage,
	})

	if !resp.Success {
		// Connectivity failures are retryable; asynq owns the retry policy.
		return fmt.Errorf("nurture run failed for site %s: %v", siteID, resp.Errors)
	}

	for _, msg := range resp.Errors {
		w.log.Warn("nurture run partial failure", "site_id", siteID, "error", msg)
	}

	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
