package domain

// Stats are the mutually exclusive per-run assignment counts. A resumed
// assignment increments Resumed, not Reminder, even though the lead lands
// in the reminder bucket.
type Stats struct {
	Reminder     int `json:"reminder"`
	ProvideValue int `json:"provide_value"`
	Breakup      int `json:"breakup"`
	Resumed      int `json:"resumed"`
}

// Selector accumulates stage assignments into capacity-limited buckets.
//
// Capacity gates both the bucket push and the stat increment: a lead that
// qualifies for an already-full stage is dropped from the bucket AND from
// stats, while still counting toward the caller's considered totals. This
// asymmetry is intentional and relied upon by callers comparing considered
// against stats.
//
// Selector is not safe for concurrent use; the run loop feeds it from a
// single collector goroutine.
type Selector struct {
	maxPerStage int
	legacyLimit int
	buckets     map[Stage][]Lead
	stats       Stats
}

// NewSelector creates a selector for one run.
func NewSelector(cfg Thresholds) *Selector {
	return &Selector{
		maxPerStage: cfg.MaxLeadsPerStage,
		legacyLimit: cfg.LegacyLimit,
		buckets: map[Stage][]Lead{
			StageReminder:     make([]Lead, 0, cfg.MaxLeadsPerStage),
			StageProvideValue: make([]Lead, 0, cfg.MaxLeadsPerStage),
			StageBreakup:      make([]Lead, 0, cfg.MaxLeadsPerStage),
		},
	}
}

// Offer attempts to place a lead into the bucket for the decision's stage.
// It returns false for non-assign decisions and for full buckets.
func (s *Selector) Offer(lead Lead, d Decision) bool {
	if d.Kind != DecisionAssign {
		return false
	}

	bucket, ok := s.buckets[d.Stage]
	if !ok || len(bucket) >= s.maxPerStage {
		return false
	}

	s.buckets[d.Stage] = append(bucket, lead)

	switch {
	case d.Resumed:
		s.stats.Resumed++
	case d.Stage == StageReminder:
		s.stats.Reminder++
	case d.Stage == StageProvideValue:
		s.stats.ProvideValue++
	case d.Stage == StageBreakup:
		s.stats.Breakup++
	}

	return true
}

// Bucket returns the accumulated leads for one stage.
func (s *Selector) Bucket(stage Stage) []Lead {
	return s.buckets[stage]
}

// Flattened returns the backward-compatible flat list: the stage buckets
// concatenated in cadence order, truncated to the legacy limit.
func (s *Selector) Flattened() []Lead {
	flat := make([]Lead, 0, len(s.buckets[StageReminder])+len(s.buckets[StageProvideValue])+len(s.buckets[StageBreakup]))
	for _, stage := range Stages {
		flat = append(flat, s.buckets[stage]...)
	}
	if len(flat) > s.legacyLimit {
		flat = flat[:s.legacyLimit]
	}
	return flat
}

// Stats returns the accumulated assignment counts.
func (s *Selector) Stats() Stats {
	return s.stats
}

// Placed returns the total number of leads present across all buckets.
func (s *Selector) Placed() int {
	total := 0
	for _, stage := range Stages {
		total += len(s.buckets[stage])
	}
	return total
}
