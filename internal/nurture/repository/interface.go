package repository

import (
	"context"

	"outreach_backend/internal/nurture/domain"

	"github.com/google/uuid"
)

// CandidateLister loads nurture candidates for a tenant.
type CandidateLister interface {
	ListCandidates(ctx context.Context, siteID uuid.UUID, statuses []domain.LeadStatus, limit int) ([]domain.Lead, error)
}

// MessageReader resolves the most recent message for a lead, scoped to the
// lead's tenant. Implementations must make cross-tenant reads structurally
// impossible.
type MessageReader interface {
	LatestMessageForLead(ctx context.Context, leadID, siteID uuid.UUID) (*domain.Message, error)
}

// TerminalWriter applies the engine's terminal side effects.
type TerminalWriter interface {
	UpdateLeadStatus(ctx context.Context, leadID, siteID uuid.UUID, status domain.LeadStatus) error
	UpdateMessageTag(ctx context.Context, messageID uuid.UUID, tag domain.CadenceTag) error
}

// SiteLister enumerates tenants with leads eligible for nurture runs.
type SiteLister interface {
	ListActiveSiteIDs(ctx context.Context, statuses []domain.LeadStatus) ([]uuid.UUID, error)
}

// Store is the full data access surface the nurture engine needs.
type Store interface {
	CandidateLister
	MessageReader
	TerminalWriter
}
