package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"rentsnap/internal/domain"
	"rentsnap/internal/logger"
)

type conversationRepository struct {
	db DBTX
}

const conversationSelect = `SELECT c.id, c.participant_ids, c.item_id, COALESCE(i.name, ''), c.created_at, c.updated_at
  FROM conversations c
  LEFT JOIN items i ON i.id = c.item_id`

func scanConversation(row rowScanner) (*domain.Conversation, error) {
	c := &domain.Conversation{}
	var ids []int64
	var itemID sql.NullInt32
	if err := row.Scan(&c.ID, pq.Array(&ids), &itemID, &c.ItemName, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	for _, id := range ids {
		c.ParticipantIDs = append(c.ParticipantIDs, int32(id))
	}
	if itemID.Valid {
		id := itemID.Int32
		c.ItemID = &id
	}
	return c, nil
}

func (r *conversationRepository) ListForUser(ctx context.Context, userID int32) ([]*domain.Conversation, error) {
	query := conversationSelect + ` WHERE $1 = ANY(c.participant_ids) ORDER BY c.updated_at DESC, c.id DESC`
	logger.DatabaseCall("conversationRepository.ListForUser", query, "userID", userID)
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		logger.DatabaseResult("conversationRepository.ListForUser", 0, err)
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	logger.DatabaseResult("conversationRepository.ListForUser", int64(len(out)), rows.Err())
	return out, rows.Err()
}

func (r *conversationRepository) GetByID(ctx context.Context, id int32) (*domain.Conversation, error) {
	c, err := scanConversation(r.db.QueryRowContext(ctx, conversationSelect+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, mapError(err, "conversation", id)
	}
	return c, nil
}

func (r *conversationRepository) Create(ctx context.Context, c *domain.Conversation) error {
	var itemID sql.NullInt32
	if c.ItemID != nil {
		itemID = sql.NullInt32{Int32: *c.ItemID, Valid: true}
	}
	ids := make([]int64, len(c.ParticipantIDs))
	for i, id := range c.ParticipantIDs {
		ids[i] = int64(id)
	}
	query := `INSERT INTO conversations (participant_ids, item_id) VALUES ($1, $2) RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, pq.Array(ids), itemID).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapError(err, "conversation", c.ParticipantIDs)
}

const messageSelect = `SELECT m.id, m.conversation_id, m.sender_id,
       COALESCE(NULLIF(TRIM(u.first_name || ' ' || u.last_name), ''), u.username),
       m.text, m.is_read, m.created_at
  FROM messages m
  JOIN users u ON u.id = m.sender_id`

func scanMessage(row rowScanner) (*domain.Message, error) {
	m := &domain.Message{}
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.SenderName, &m.Text, &m.IsRead, &m.Timestamp)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *conversationRepository) ListMessages(ctx context.Context, conversationID int32) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, messageSelect+` WHERE m.conversation_id = $1 ORDER BY m.created_at, m.id`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *conversationRepository) GetMessage(ctx context.Context, id int32) (*domain.Message, error) {
	m, err := scanMessage(r.db.QueryRowContext(ctx, messageSelect+` WHERE m.id = $1`, id))
	if err != nil {
		return nil, mapError(err, "message", id)
	}
	return m, nil
}

// CreateMessage also bumps the conversation's updated_at so it sorts first.
func (r *conversationRepository) CreateMessage(ctx context.Context, m *domain.Message) error {
	query := `WITH touched AS (
	              UPDATE conversations SET updated_at = NOW() WHERE id = $1 RETURNING id
	          )
	          INSERT INTO messages (conversation_id, sender_id, text)
	          SELECT id, $2, $3 FROM touched
	          RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, m.ConversationID, m.SenderID, m.Text).Scan(&m.ID, &m.Timestamp)
	return mapError(err, "conversation", m.ConversationID)
}

func (r *conversationRepository) MarkMessageRead(ctx context.Context, id int32) error {
	return exec(ctx, r.db, "conversationRepository.MarkMessageRead", "message", id,
		`UPDATE messages SET is_read = TRUE WHERE id = $1`, id)
}
