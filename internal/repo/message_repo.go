package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"github.com/propdesk/propdesk/internal/model"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// AppendTurn persists a user message and the assistant reply in one
// transaction, bumping the conversation's mtime and message_count with
// them. Either the whole turn lands or none of it does. Seq is assigned
// here from the conversation's current maximum, so the question always
// orders before its answer even when both share one ctime second.
func (r *MessageRepo) AppendTurn(ctx context.Context, convID string, user, assistant *model.Message, mtime int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	const lastSeq = `SELECT COALESCE(MAX(seq), 0) FROM messages WHERE conversation_id = $1`
	var last int64
	if err := tx.QueryRowContext(ctx, lastSeq, convID).Scan(&last); err != nil {
		return err
	}
	user.Seq = last + 1
	assistant.Seq = last + 2
	for _, msg := range []*model.Message{user, assistant} {
		if err := insertMessage(ctx, tx, msg); err != nil {
			return err
		}
	}
	const bump = `
		UPDATE conversations SET message_count = message_count + 2, mtime = $1
		WHERE id = $2
	`
	if _, err := tx.ExecContext(ctx, bump, mtime, convID); err != nil {
		return err
	}
	return tx.Commit()
}

func insertMessage(ctx context.Context, tx *sql.Tx, msg *model.Message) error {
	chunkIDs, err := json.Marshal(msg.ChunkIDs)
	if err != nil {
		return err
	}
	if msg.ChunkIDs == nil {
		chunkIDs = []byte("[]")
	}
	const query = `
		INSERT INTO messages (id, conversation_id, seq, sender, content, chunk_ids, msg_type, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.ExecContext(ctx, query,
		msg.ID, msg.ConversationID, msg.Seq, msg.Sender, msg.Content, chunkIDs, msg.MsgType, msg.Ctime)
	return err
}

// ListRecent returns the newest limit messages of a conversation in
// append order.
func (r *MessageRepo) ListRecent(ctx context.Context, convID string, limit int) ([]model.Message, error) {
	const query = `
		SELECT id, conversation_id, seq, sender, content, chunk_ids, msg_type, ctime
		FROM messages WHERE conversation_id = $1
		ORDER BY seq DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, convID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// reverse into append order
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

// DeleteOlderThan removes one batch of messages older than the cutoff and
// repairs the message_count of every touched conversation. Returns the
// number of messages removed.
func (r *MessageRepo) DeleteOlderThan(ctx context.Context, cutoff int64, batch int) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	const pick = `
		SELECT id, conversation_id FROM messages
		WHERE ctime < $1
		ORDER BY ctime
		LIMIT $2
	`
	rows, err := tx.QueryContext(ctx, pick, cutoff, batch)
	if err != nil {
		return 0, err
	}
	var msgIDs []string
	convSet := map[string]struct{}{}
	for rows.Next() {
		var msgID, convID string
		if err := rows.Scan(&msgID, &convID); err != nil {
			rows.Close()
			return 0, err
		}
		msgIDs = append(msgIDs, msgID)
		convSet[convID] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(msgIDs) == 0 {
		return 0, tx.Commit()
	}

	delSQL, delArgs, err := sqlx.In(`DELETE FROM messages WHERE id IN (?)`, msgIDs)
	if err != nil {
		return 0, err
	}
	delSQL = sqlx.Rebind(sqlx.DOLLAR, delSQL)
	res, err := tx.ExecContext(ctx, delSQL, delArgs...)
	if err != nil {
		return 0, err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	convIDs := make([]string, 0, len(convSet))
	for id := range convSet {
		convIDs = append(convIDs, id)
	}
	fixSQL, fixArgs, err := sqlx.In(`
		UPDATE conversations c
		SET message_count = (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id)
		WHERE c.id IN (?)
	`, convIDs)
	if err != nil {
		return 0, err
	}
	fixSQL = sqlx.Rebind(sqlx.DOLLAR, fixSQL)
	if _, err := tx.ExecContext(ctx, fixSQL, fixArgs...); err != nil {
		return 0, err
	}
	return deleted, tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row rowScanner) (*model.Message, error) {
	var msg model.Message
	var chunkIDs []byte
	if err := row.Scan(&msg.ID, &msg.ConversationID, &msg.Seq, &msg.Sender, &msg.Content,
		&chunkIDs, &msg.MsgType, &msg.Ctime); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(chunkIDs, &msg.ChunkIDs); err != nil {
		return nil, err
	}
	return &msg, nil
}
