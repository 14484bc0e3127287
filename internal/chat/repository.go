package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"roomchat/internal/apperr"
	"roomchat/internal/chatkey"
)

// Repository persists messages in the append-only messages table. Ids are
// assigned by the database sequence, so they are strictly increasing and
// never reused even across concurrent writers.
type Repository struct {
	db           *sql.DB
	defaultLimit int
	maxLimit     int
}

func NewRepository(db *sql.DB, defaultLimit, maxLimit int) *Repository {
	return &Repository{db: db, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

const messageColumns = `id, chat_type, chat_key, sender, content, format, meta, created_at`

func scanMessage(row interface{ Scan(...any) error }) (*Message, error) {
	m := &Message{}
	var metaRaw []byte
	if err := row.Scan(&m.ID, &m.ChatType, &m.ChatKey, &m.Sender, &m.Content,
		&m.Format, &metaRaw, &m.CreatedAt); err != nil {
		return nil, err
	}
	if len(metaRaw) > 0 {
		meta := &Meta{}
		if err := json.Unmarshal(metaRaw, meta); err == nil {
			m.Meta = meta
		}
	}
	return m, nil
}

// Append inserts a message and returns the stored row with its assigned id
// and timestamp.
func (r *Repository) Append(ctx context.Context, chatType chatkey.Kind, chatKey, sender, content, format string, meta *Meta) (*Message, error) {
	var metaRaw any
	if meta != nil {
		b, err := json.Marshal(meta)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeInternal, "could not encode meta", err)
		}
		metaRaw = b
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO messages (chat_type, chat_key, sender, content, format, meta)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+messageColumns,
		chatType, chatKey, sender, content, format, metaRaw)

	m, err := scanMessage(row)
	if err != nil {
		return nil, apperr.Unavailable("could not store message", err)
	}
	return m, nil
}

// GetPage returns up to limit messages with id < beforeID (or the latest
// page when beforeID is zero), ascending by id. It fetches limit+1 rows
// descending to detect whether older messages remain, then reverses.
func (r *Repository) GetPage(ctx context.Context, chatKey string, beforeID int64, limit int) (*Page, error) {
	if limit <= 0 {
		limit = r.defaultLimit
	}
	if limit > r.maxLimit {
		limit = r.maxLimit
	}

	var rows *sql.Rows
	var err error
	if beforeID > 0 {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+messageColumns+` FROM messages
			WHERE chat_key = $1 AND id < $2
			ORDER BY id DESC
			LIMIT $3`, chatKey, beforeID, limit+1)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+messageColumns+` FROM messages
			WHERE chat_key = $1
			ORDER BY id DESC
			LIMIT $2`, chatKey, limit+1)
	}
	if err != nil {
		return nil, apperr.Unavailable("could not read history", err)
	}
	defer rows.Close()

	var descending []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, apperr.Unavailable("could not read history", err)
		}
		descending = append(descending, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Unavailable("could not read history", err)
	}

	hasMore := len(descending) > limit
	if hasMore {
		descending = descending[:limit]
	}

	messages := make([]Message, 0, len(descending))
	for i := len(descending) - 1; i >= 0; i-- {
		messages = append(messages, descending[i])
	}
	return &Page{Messages: messages, HasMore: hasMore}, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Message, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)
	m, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, apperr.Unavailable("could not read message", err)
	}
	return m, nil
}

// DeleteByID removes exactly one row and returns it as it existed before the
// delete, so callers can route the delete notification.
func (r *Repository) DeleteByID(ctx context.Context, id int64) (*Message, error) {
	row := r.db.QueryRowContext(ctx,
		`DELETE FROM messages WHERE id = $1 RETURNING `+messageColumns, id)
	m, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, apperr.Unavailable("could not delete message", err)
	}
	return m, nil
}
