package repository

import (
	"context"
	"errors"

	"outreach_backend/internal/nurture/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrMessageNotFound = errors.New("message not found")

// cadenceTagKey is where the cadence marker lives inside the open-ended
// message metadata field.
const cadenceTagKey = "sequence_stage"

// LatestMessageForLead returns the single most recent message for a lead.
// The query joins through conversations so the tenant filter cannot be
// omitted by a caller; cross-tenant reads are structurally impossible.
// Returns (nil, nil) when the lead has no message history.
func (r *Repository) LatestMessageForLead(ctx context.Context, leadID, siteID uuid.UUID) (*domain.Message, error) {
	var msg domain.Message
	var role string
	var rawTag string
	err := r.pool.QueryRow(ctx, `
		SELECT m.id, m.conversation_id, m.lead_id, m.role,
			COALESCE(m.custom_data->>'sequence_stage', ''), m.created_at
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE m.lead_id = $1 AND c.site_id = $2
		ORDER BY m.created_at DESC
		LIMIT 1
	`, leadID, siteID).Scan(
		&msg.ID, &msg.ConversationID, &msg.LeadID, &role, &rawTag, &msg.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	msg.Role = domain.MessageRole(role)
	msg.Tag = domain.ParseCadenceTag(rawTag)
	return &msg, nil
}

// UpdateMessageTag writes the cadence marker on a message, preserving any
// other metadata keys in custom_data.
func (r *Repository) UpdateMessageTag(ctx context.Context, messageID uuid.UUID, tag domain.CadenceTag) error {
	cmdTag, err := r.pool.Exec(ctx, `
		UPDATE messages
		SET custom_data = jsonb_set(COALESCE(custom_data, '{}'::jsonb), $2, to_jsonb($3::text), true)
		WHERE id = $1
	`, messageID, []string{cadenceTagKey}, string(tag))
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}
