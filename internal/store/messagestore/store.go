package messagestore

import (
	"context"
	"database/sql"
	"time"
)

// Message is one persisted room message. The timestamp is assigned by the
// database at insert time and never mutated afterwards.
type Message struct {
	ID        int64     `json:"id"`
	Room      string    `json:"room"`
	Sender    string    `json:"sender"`
	Body      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type IMessageStore interface {
	Save(ctx context.Context, room, sender, body string) (Message, error)
	// FindRecent returns up to limit messages for a room, newest first.
	FindRecent(ctx context.Context, room string, limit int) ([]Message, error)
}

type pgStore struct {
	db *sql.DB
}

func New(db *sql.DB) IMessageStore {
	return &pgStore{db: db}
}

const insertQ = `
  INSERT INTO messages (room, sender, body)
       VALUES ($1, $2, $3)
    RETURNING id, created_at`

func (s *pgStore) Save(ctx context.Context, room, sender, body string) (Message, error) {
	m := Message{Room: room, Sender: sender, Body: body}
	err := s.db.QueryRowContext(ctx, insertQ, room, sender, body).
		Scan(&m.ID, &m.Timestamp)
	if err != nil {
		return Message{}, err
	}
	return m, nil
}

const recentQ = `
  SELECT id, room, sender, body, created_at
    FROM messages
   WHERE room = $1
   ORDER BY created_at DESC, id DESC
   LIMIT $2`

func (s *pgStore) FindRecent(ctx context.Context, room string, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, recentQ, room, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]Message, 0, limit)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Room, &m.Sender, &m.Body, &m.Timestamp); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Chronological reverses a newest-first result into the oldest-first order
// used for presentation. The input slice is left untouched.
func Chronological(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[len(msgs)-1-i] = m
	}
	return out
}
