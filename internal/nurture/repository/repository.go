package repository

import (
	"context"
	"errors"

	"outreach_backend/internal/nurture/domain"
	"outreach_backend/platform/phone"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListCandidates returns leads matching the allowed status set for a tenant,
// most recently updated first, bounded by limit. Assigned leads are included;
// the engine excludes them itself so they can be counted.
func (r *Repository) ListCandidates(ctx context.Context, siteID uuid.UUID, statuses []domain.LeadStatus, limit int) ([]domain.Lead, error) {
	statusValues := make([]string, len(statuses))
	for i, s := range statuses {
		statusValues[i] = string(s)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, site_id, status, assignee_id, first_name, last_name, phone, email, created_at, updated_at
		FROM leads
		WHERE site_id = $1 AND status = ANY($2) AND deleted_at IS NULL
		ORDER BY updated_at DESC
		LIMIT $3
	`, siteID, statusValues, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		var lead domain.Lead
		var status string
		if err := rows.Scan(
			&lead.ID, &lead.SiteID, &status, &lead.AssigneeID,
			&lead.FirstName, &lead.LastName, &lead.Phone, &lead.Email,
			&lead.CreatedAt, &lead.UpdatedAt,
		); err != nil {
			return nil, err
		}
		lead.Status = domain.LeadStatus(status)
		lead.Phone = phone.NormalizeE164(lead.Phone)
		leads = append(leads, lead)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return leads, nil
}

// UpdateLeadStatus sets a lead's status within its tenant.
func (r *Repository) UpdateLeadStatus(ctx context.Context, leadID, siteID uuid.UUID, status domain.LeadStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET status = $3, updated_at = now()
		WHERE id = $1 AND site_id = $2 AND deleted_at IS NULL
	`, leadID, siteID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActiveSiteIDs returns the tenants that currently have leads in any of
// the given statuses. The periodic scheduler uses this to fan out runs.
func (r *Repository) ListActiveSiteIDs(ctx context.Context, statuses []domain.LeadStatus) ([]uuid.UUID, error) {
	statusValues := make([]string, len(statuses))
	for i, s := range statuses {
		statusValues[i] = string(s)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT site_id
		FROM leads
		WHERE status = ANY($1) AND deleted_at IS NULL
	`, statusValues)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	siteIDs := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		siteIDs = append(siteIDs, id)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return siteIDs, nil
}

// GetLeadByID returns a single lead within its tenant.
func (r *Repository) GetLeadByID(ctx context.Context, leadID, siteID uuid.UUID) (domain.Lead, error) {
	var lead domain.Lead
	var status string
	err := r.pool.QueryRow(ctx, `
		SELECT id, site_id, status, assignee_id, first_name, last_name, phone, email, created_at, updated_at
		FROM leads
		WHERE id = $1 AND site_id = $2 AND deleted_at IS NULL
	`, leadID, siteID).Scan(
		&lead.ID, &lead.SiteID, &status, &lead.AssigneeID,
		&lead.FirstName, &lead.LastName, &lead.Phone, &lead.Email,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	if err != nil {
		return domain.Lead{}, err
	}
	lead.Status = domain.LeadStatus(status)
	lead.Phone = phone.NormalizeE164(lead.Phone)
	return lead, nil
}
