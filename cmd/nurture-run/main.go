package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"outreach_backend/internal/events"
	"outreach_backend/internal/nurture"
	"outreach_backend/internal/nurture/transport"
	"outreach_backend/platform/config"
	"outreach_backend/platform/db"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"

	"github.com/google/uuid"
)

func main() {
	siteFlag := flag.String("site", "", "site id to run the nurture cadence for (required)")
	daysFlag := flag.Int("days-without-reply", 0, "override the untagged reply window in days")
	limitFlag := flag.Int("limit", 0, "override the flattened lead list cap")
	perStageFlag := flag.Int("max-per-stage", 0, "override the per-stage bucket cap")
	flag.Parse()

	if *siteFlag == "" {
		fmt.Fprintln(os.Stderr, "usage: nurture-run -site <uuid> [-days-without-reply N] [-limit N] [-max-per-stage N]")
		os.Exit(2)
	}

	siteID, err := uuid.Parse(*siteFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid site id:", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting one-shot nurture run", "site_id", siteID)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	events.RegisterLoggingHandlers(eventBus, log)
	val := validator.New()
	nurtureModule := nurture.NewModule(pool, eventBus, val, cfg, log)

	req := transport.RunRequest{SiteID: siteID.String()}
	if *daysFlag > 0 {
		req.DaysWithoutReply = daysFlag
	}
	if *limitFlag > 0 {
		req.Limit = limitFlag
	}
	if *perStageFlag > 0 {
		req.MaxLeadsPerStage = perStageFlag
	}

	resp := nurtureModule.Service().Run(ctx, siteID, req)

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		panic("failed to encode run response: " + err.Error())
	}
	fmt.Println(string(out))

	if !resp.Success {
		os.Exit(1)
	}
}
