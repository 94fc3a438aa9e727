package rooms

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// peersTTL bounds how long a room's membership set survives in Redis
// after the last write, mirroring the teacher's room:<id> TTL so a
// crashed hub doesn't leave stale sets behind forever.
const peersTTL = 24 * time.Hour

// RedisMirror fans room membership events out to Redis sets keyed
// "room:<id>:peers", purely so an external process (an admin console,
// a metrics scraper) can observe approximate occupancy. It is never
// consulted for correctness: the in-process Registry is authoritative,
// and every method here swallows its own errors.
type RedisMirror struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisMirror returns a mirror backed by rdb. rdb may be nil, in
// which case every call becomes a no-op (equivalent to NoopMirror).
func NewRedisMirror(rdb *redis.Client, log zerolog.Logger) *RedisMirror {
	return &RedisMirror{rdb: rdb, log: log.With().Str("module", "room-mirror").Logger()}
}

func (m *RedisMirror) key(roomID string) string {
	return "room:" + roomID + ":peers"
}

func (m *RedisMirror) Joined(roomID, sessionID string) {
	if m == nil || m.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	pipe := m.rdb.TxPipeline()
	pipe.SAdd(ctx, m.key(roomID), sessionID)
	pipe.Expire(ctx, m.key(roomID), peersTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		m.log.Warn().Err(err).Str("room", roomID).Msg("failed to mirror room join")
	}
}

func (m *RedisMirror) Left(roomID, sessionID string) {
	if m == nil || m.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.rdb.SRem(ctx, m.key(roomID), sessionID).Err(); err != nil {
		m.log.Warn().Err(err).Str("room", roomID).Msg("failed to mirror room leave")
	}
}

func (m *RedisMirror) Dissolved(roomID string) {
	if m == nil || m.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.rdb.Del(ctx, m.key(roomID)).Err(); err != nil {
		m.log.Warn().Err(err).Str("room", roomID).Msg("failed to mirror room dissolution")
	}
}
