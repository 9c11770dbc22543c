// Package cache keeps per-owner note lists in Redis in front of a
// repository.NoteStore.
//
// Lists are stored under a key that embeds a per-owner generation number.
// Every successful mutation bumps the generation, so a list computed before
// the mutation lands under a key nobody reads any more and simply expires.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/notes-service/internal/config"
	"github.com/iliyamo/notes-service/internal/logging"
	"github.com/iliyamo/notes-service/internal/model"
	"github.com/iliyamo/notes-service/internal/repository"
)

// NoteStore decorates a repository.NoteStore with a Redis list cache.  Redis
// failures are logged and the call falls through to the wrapped store.
type NoteStore struct {
	next   repository.NoteStore
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
	log    *slog.Logger
}

var _ repository.NoteStore = (*NoteStore)(nil)

// NewNoteStore wraps next.  With a nil rdb it returns next unchanged.
func NewNoteStore(next repository.NoteStore, rdb *redis.Client, cfg config.CacheConfig, log *slog.Logger) repository.NoteStore {
	if rdb == nil {
		return next
	}
	return &NoteStore{next: next, rdb: rdb, ttl: cfg.TTL, prefix: cfg.Prefix, log: log}
}

func (s *NoteStore) genKey(ownerID string) string {
	return fmt.Sprintf("%s:gen:%s", s.prefix, ownerID)
}

func (s *NoteStore) listKey(ownerID string, gen int64) string {
	return fmt.Sprintf("%s:list:%s:%d", s.prefix, ownerID, gen)
}

func (s *NoteStore) generation(ctx context.Context, ownerID string) (int64, error) {
	gen, err := s.rdb.Get(ctx, s.genKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (s *NoteStore) ListByOwner(ctx context.Context, ownerID string) ([]model.Note, error) {
	gen, err := s.generation(ctx, ownerID)
	if err != nil {
		s.log.WarnContext(ctx, "notes cache: read generation", logging.Err(err))
		return s.next.ListByOwner(ctx, ownerID)
	}
	key := s.listKey(ownerID, gen)

	bs, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var notes []model.Note
		if err := json.Unmarshal(bs, &notes); err == nil && notes != nil {
			return notes, nil
		}
		s.log.WarnContext(ctx, "notes cache: corrupt entry", slog.String("key", key))
	case !errors.Is(err, redis.Nil):
		s.log.WarnContext(ctx, "notes cache: get", logging.Err(err))
	}

	notes, err := s.next.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(notes); err == nil {
		if err := s.rdb.Set(ctx, key, payload, s.ttl).Err(); err != nil {
			s.log.WarnContext(ctx, "notes cache: set", logging.Err(err))
		}
	}
	return notes, nil
}

func (s *NoteStore) Create(ctx context.Context, ownerID, text string) (model.Note, error) {
	n, err := s.next.Create(ctx, ownerID, text)
	if err != nil {
		return n, err
	}
	s.invalidate(ctx, ownerID)
	return n, nil
}

func (s *NoteStore) UpdateByIDAndOwner(ctx context.Context, id, ownerID, text string) (model.Note, error) {
	n, err := s.next.UpdateByIDAndOwner(ctx, id, ownerID, text)
	if err != nil {
		return n, err
	}
	s.invalidate(ctx, ownerID)
	return n, nil
}

func (s *NoteStore) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (bool, error) {
	deleted, err := s.next.DeleteByIDAndOwner(ctx, id, ownerID)
	if err != nil || !deleted {
		return deleted, err
	}
	s.invalidate(ctx, ownerID)
	return true, nil
}

// invalidate bumps the owner's generation.  Generation keys carry no TTL:
// a counter that expired would restart at 1 and revive list entries cached
// under the old numbers.  It runs on a context detached from the request so
// a client disconnect cannot skip it.
func (s *NoteStore) invalidate(ctx context.Context, ownerID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.rdb.Incr(ctx, s.genKey(ownerID)).Err(); err != nil {
		s.log.ErrorContext(ctx, "notes cache: invalidate", slog.String("owner_id", ownerID), logging.Err(err))
	}
}
