package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pawnics/pawnics-api/internal/models"
)

// MessageRepository provides database access for conversation messages.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new instance of MessageRepository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Insert appends a message and fills in its generated id.
func (r *MessageRepository) Insert(ctx context.Context, msg *models.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO messages (conversation_id, report_id, sender_id, receiver_id, content, read, created_at)
		VALUES ($1, $2, $3, $4, $5, false, $6) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		msg.ConversationID, msg.ReportID, msg.SenderID, msg.ReceiverID, msg.Content, msg.CreatedAt,
	).Scan(&msg.ID); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// FindDetailByID returns one message enriched with participant and report data.
func (r *MessageRepository) FindDetailByID(ctx context.Context, id int64) (*models.MessageDetail, error) {
	const query = `SELECT m.id, m.conversation_id, m.report_id, m.sender_id, m.receiver_id, m.content, m.read, m.created_at,
			s.name AS sender_name, s.email AS sender_email,
			rcv.name AS receiver_name, rcv.email AS receiver_email,
			COALESCE(rep.pet_name, '') AS report_pet_name, COALESCE(rep.photo, '') AS report_photo
		FROM messages m
		JOIN users s ON s.id = m.sender_id
		JOIN users rcv ON rcv.id = m.receiver_id
		LEFT JOIN lost_found_reports rep ON rep.id = m.report_id
		WHERE m.id = $1 LIMIT 1`
	var detail models.MessageDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find message detail: %w", err)
	}
	return &detail, nil
}

// ListByConversation returns all messages of a conversation in append order.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]models.MessageDetail, error) {
	const query = `SELECT m.id, m.conversation_id, m.report_id, m.sender_id, m.receiver_id, m.content, m.read, m.created_at,
			s.name AS sender_name, s.email AS sender_email,
			rcv.name AS receiver_name, rcv.email AS receiver_email,
			COALESCE(rep.pet_name, '') AS report_pet_name, COALESCE(rep.photo, '') AS report_photo
		FROM messages m
		JOIN users s ON s.id = m.sender_id
		JOIN users rcv ON rcv.id = m.receiver_id
		LEFT JOIN lost_found_reports rep ON rep.id = m.report_id
		WHERE m.conversation_id = $1
		ORDER BY m.created_at ASC, m.id ASC`
	messages := []models.MessageDetail{}
	if err := r.db.SelectContext(ctx, &messages, query, conversationID); err != nil {
		return nil, fmt.Errorf("list conversation messages: %w", err)
	}
	return messages, nil
}

// Summaries returns one row per conversation the user participates in,
// carrying the latest message and the caller's unread count. Ties on
// created_at are broken by the larger message id.
func (r *MessageRepository) Summaries(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	const query = `SELECT last.conversation_id, last.report_id,
			COALESCE(rep.pet_name, '') AS report_pet_name, COALESCE(rep.photo, '') AS report_photo,
			CASE WHEN last.sender_id = $1 THEN last.receiver_id ELSE last.sender_id END AS other_user_id,
			u.name AS other_user_name,
			last.content AS last_message, last.created_at AS last_message_at,
			COALESCE(unread.total, 0) AS unread_count
		FROM (
			SELECT DISTINCT ON (conversation_id) *
			FROM messages
			WHERE sender_id = $1 OR receiver_id = $1
			ORDER BY conversation_id, created_at DESC, id DESC
		) last
		LEFT JOIN lost_found_reports rep ON rep.id = last.report_id
		JOIN users u ON u.id = CASE WHEN last.sender_id = $1 THEN last.receiver_id ELSE last.sender_id END
		LEFT JOIN (
			SELECT conversation_id, COUNT(*) AS total
			FROM messages WHERE receiver_id = $1 AND read = false
			GROUP BY conversation_id
		) unread ON unread.conversation_id = last.conversation_id
		ORDER BY last.created_at DESC, last.id DESC`
	summaries := []models.ConversationSummary{}
	if err := r.db.SelectContext(ctx, &summaries, query, userID); err != nil {
		return nil, fmt.Errorf("list conversation summaries: %w", err)
	}
	return summaries, nil
}

// MarkConversationRead flips every unread message addressed to the reader.
// Re-running it is a no-op.
func (r *MessageRepository) MarkConversationRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	const query = `UPDATE messages SET read = true
		WHERE conversation_id = $1 AND receiver_id = $2 AND read = false`
	result, err := r.db.ExecContext(ctx, query, conversationID, readerID)
	if err != nil {
		return 0, fmt.Errorf("mark conversation read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark conversation read affected: %w", err)
	}
	return affected, nil
}

// DeleteByReport removes every message attached to a report.
func (r *MessageRepository) DeleteByReport(ctx context.Context, reportID string) (int64, error) {
	const query = `DELETE FROM messages WHERE report_id = $1`
	result, err := r.db.ExecContext(ctx, query, reportID)
	if err != nil {
		return 0, fmt.Errorf("delete messages by report: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete messages affected: %w", err)
	}
	return affected, nil
}
