package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/propdesk/propdesk/internal/model"
	"github.com/propdesk/propdesk/internal/pkg/dbutil"
	appErr "github.com/propdesk/propdesk/internal/pkg/errors"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

var conversationFields = []string{"id", "user_id", "title", "role", "archived", "message_count", "ctime", "mtime"}

func (r *ConversationRepo) Create(ctx context.Context, conv *model.Conversation) error {
	data := map[string]interface{}{
		"id":            conv.ID,
		"user_id":       nullable(conv.UserID),
		"title":         conv.Title,
		"role":          conv.Role,
		"archived":      conv.Archived,
		"message_count": conv.MessageCount,
		"ctime":         conv.Ctime,
		"mtime":         conv.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("conversations", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ConversationRepo) GetByID(ctx context.Context, convID string) (*model.Conversation, error) {
	const query = `
		SELECT id, COALESCE(user_id, ''), title, role, archived, message_count, ctime, mtime
		FROM conversations WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, convID)
	var conv model.Conversation
	if err := row.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.Role, &conv.Archived,
		&conv.MessageCount, &conv.Ctime, &conv.Mtime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// ListPage returns one page of non-archived conversations ordered by
// mtime desc then id, plus the total row count for the same filter.
// userID empty means no owner restriction (admin callers).
func (r *ConversationRepo) ListPage(ctx context.Context, userID string, minMtime int64, offset, limit int) ([]model.Conversation, int64, error) {
	where := map[string]interface{}{
		"archived": false,
	}
	if userID != "" {
		where["user_id"] = userID
	}
	if minMtime > 0 {
		where["mtime >="] = minMtime
	}

	countWhere := cloneWhere(where)
	countSQL, countArgs, err := builder.BuildSelect("conversations", countWhere, []string{"count(*)"})
	if err != nil {
		return nil, 0, err
	}
	countSQL, countArgs = dbutil.Finalize(countSQL, countArgs)
	var total int64
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	where["_orderby"] = "mtime desc, id desc"
	where["_limit"] = []uint{uint(offset), uint(limit)}
	sqlStr, args, err := builder.BuildSelect("conversations", where, conversationFields)
	if err != nil {
		return nil, 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := make([]model.Conversation, 0, limit)
	for rows.Next() {
		var conv model.Conversation
		var owner sql.NullString
		if err := rows.Scan(&conv.ID, &owner, &conv.Title, &conv.Role, &conv.Archived,
			&conv.MessageCount, &conv.Ctime, &conv.Mtime); err != nil {
			return nil, 0, err
		}
		conv.UserID = owner.String
		items = append(items, conv)
	}
	return items, total, rows.Err()
}

func (r *ConversationRepo) Delete(ctx context.Context, convID string) error {
	const query = `DELETE FROM conversations WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, convID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// ArchiveOlderThan soft-flags one batch of conversations whose last
// activity predates the cutoff. Returns the number of rows flagged.
func (r *ConversationRepo) ArchiveOlderThan(ctx context.Context, cutoff int64, batch int) (int64, error) {
	const query = `
		UPDATE conversations SET archived = TRUE
		WHERE id IN (
			SELECT id FROM conversations
			WHERE archived = FALSE AND mtime < $1
			ORDER BY mtime
			LIMIT $2
		)
	`
	res, err := r.db.ExecContext(ctx, query, cutoff, batch)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteSparseOlderThan hard-deletes one batch of stale near-empty
// conversations, the usual residue of tests and abandoned first visits.
// Messages go with them via the foreign key cascade.
func (r *ConversationRepo) DeleteSparseOlderThan(ctx context.Context, cutoff int64, maxMessages, batch int) (int64, error) {
	const query = `
		DELETE FROM conversations
		WHERE id IN (
			SELECT id FROM conversations
			WHERE mtime < $1 AND message_count <= $2
			ORDER BY mtime
			LIMIT $3
		)
	`
	res, err := r.db.ExecContext(ctx, query, cutoff, maxMessages, batch)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func cloneWhere(where map[string]interface{}) map[string]interface{} {
	clone := make(map[string]interface{}, len(where))
	for k, v := range where {
		clone[k] = v
	}
	return clone
}
