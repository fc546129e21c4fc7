package historycache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/karthikeya-tummala/echo-chat/internal/store/messagestore"
)

const (
	keyPrefix = "room_hist:"
	keyTTL    = 24 * time.Hour
)

// cache mirrors the most recent messages of each room into a Redis list so
// the join-time history read usually skips Postgres. Postgres remains the
// source of truth: cache faults are logged and the read falls back to the
// wrapped store.
//
// Reads always fill the full depth window regardless of the caller's limit,
// so a non-empty list holds the room's newest depth messages and any smaller
// limit is a slice of it. Saves use LPUSHX, so a list only grows after a read
// has primed it. A Save whose LPUSHX lands between a concurrent prime's DEL
// and RPUSH misses the list until the next prime or TTL expiry; the message
// is still in Postgres, and the window is too narrow to be worth fencing.
type cache struct {
	next  messagestore.IMessageStore
	rdc   *redis.Client
	depth int
}

func New(next messagestore.IMessageStore, rdc *redis.Client, depth int) messagestore.IMessageStore {
	return &cache{next: next, rdc: rdc, depth: depth}
}

func (c *cache) Save(ctx context.Context, room, sender, body string) (messagestore.Message, error) {
	m, err := c.next.Save(ctx, room, sender, body)
	if err != nil {
		return messagestore.Message{}, err
	}

	raw, err := json.Marshal(m)
	if err != nil {
		zap.L().Warn("historycache.marshal", zap.String("room", room), zap.Error(err))
		return m, nil
	}

	key := keyPrefix + room
	pipe := c.rdc.Pipeline()
	pipe.LPushX(ctx, key, raw)
	pipe.LTrim(ctx, key, 0, int64(c.depth-1))
	pipe.Expire(ctx, key, keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		zap.L().Warn("historycache.push", zap.String("room", room), zap.Error(err))
	}
	return m, nil
}

func (c *cache) FindRecent(ctx context.Context, room string, limit int) ([]messagestore.Message, error) {
	key := keyPrefix + room

	// Read the full window, never just the caller's limit: a list primed
	// here always holds the newest depth entries, so clipping afterwards is
	// safe while a limit-sized prime would shrink later, larger reads.
	raws, err := c.rdc.LRange(ctx, key, 0, int64(c.depth-1)).Result()
	switch {
	case err != nil && err != redis.Nil:
		zap.L().Warn("historycache.lrange", zap.String("room", room), zap.Error(err))
	case len(raws) > 0:
		if msgs, ok := decode(raws); ok {
			return clip(msgs, limit), nil
		}
		zap.L().Warn("historycache.decode", zap.String("room", room))
	}

	msgs, err := c.next.FindRecent(ctx, room, c.depth)
	if err != nil {
		return nil, err
	}
	c.prime(ctx, key, msgs)
	return clip(msgs, limit), nil
}

func clip(msgs []messagestore.Message, limit int) []messagestore.Message {
	if limit < len(msgs) {
		return msgs[:limit]
	}
	return msgs
}

func decode(raws []string) ([]messagestore.Message, bool) {
	out := make([]messagestore.Message, 0, len(raws))
	for _, raw := range raws {
		var m messagestore.Message
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, false
		}
		out = append(out, m)
	}
	return out, true
}

// prime replaces the room's list with a newest-first store result.
func (c *cache) prime(ctx context.Context, key string, msgs []messagestore.Message) {
	if len(msgs) == 0 {
		return
	}

	// RPUSH in newest-first order keeps the head of the list the newest
	// message, same as the LPUSHX write path.
	vals := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		raw, err := json.Marshal(m)
		if err != nil {
			return
		}
		vals = append(vals, raw)
	}

	pipe := c.rdc.Pipeline()
	pipe.Del(ctx, key)
	pipe.RPush(ctx, key, vals...)
	pipe.LTrim(ctx, key, 0, int64(c.depth-1))
	pipe.Expire(ctx, key, keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		zap.L().Warn("historycache.prime", zap.String("key", key), zap.Error(err))
	}
}
