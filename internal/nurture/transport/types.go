// Package transport defines the request/response contract for the nurture
// engine, shared by the HTTP handler, the scheduler task payloads, and the
// one-shot CLI.
package transport

import (
	"time"

	"outreach_backend/internal/nurture/domain"
)

// RunRequest triggers one nurture sequencing run for a tenant.
// Optional fields override the configured defaults for this run only.
type RunRequest struct {
	SiteID           string `json:"siteId" validate:"required,uuid"`
	DaysWithoutReply *int   `json:"daysWithoutReply,omitempty" validate:"omitempty,min=1"`
	Limit            *int   `json:"limit,omitempty" validate:"omitempty,min=1,max=500"`
	MaxLeadsPerStage *int   `json:"maxLeadsPerStage,omitempty" validate:"omitempty,min=1,max=100"`
}

// StageBuckets holds the capacity-limited per-stage lead lists.
type StageBuckets struct {
	Reminder     []domain.Lead `json:"reminder"`
	ProvideValue []domain.Lead `json:"provide_value"`
	Breakup      []domain.Lead `json:"breakup"`
}

// RunResponse is the full result of a nurture sequencing run. Callers always
// receive a well-formed response; Success is false only when the whole batch
// was meaningless (no data source).
type RunResponse struct {
	Success            bool          `json:"success"`
	Leads              []domain.Lead `json:"leads"`
	LeadsByStage       StageBuckets  `json:"leadsByStage"`
	TotalChecked       int           `json:"totalChecked"`
	Considered         int           `json:"considered"`
	ExcludedByAssignee int           `json:"excludedByAssignee"`
	ThresholdDate      time.Time     `json:"thresholdDate"`
	Stats              domain.Stats  `json:"stats"`
	Errors             []string      `json:"errors,omitempty"`
}
