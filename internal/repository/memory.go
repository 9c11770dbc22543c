package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/iliyamo/notes-service/internal/model"
)

// MemoryUserStore is a process-local UserStore used with
// STORAGE_DRIVER=memory and in tests.
type MemoryUserStore struct {
	mu      sync.RWMutex
	byEmail map[string]model.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{byEmail: map[string]model.User{}}
}

// Create checks and inserts under one lock, so it is atomic like the
// unique index it stands in for.
func (s *MemoryUserStore) Create(_ context.Context, email, passwordHash string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[email]; ok {
		return model.User{}, ErrEmailExists
	}
	u := model.User{ID: uuid.NewString(), Email: email, PasswordHash: passwordHash, CreatedAt: timestamp()}
	s.byEmail[email] = u
	return u, nil
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byEmail[email]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return u, nil
}

// MemoryNoteStore is a process-local NoteStore.
type MemoryNoteStore struct {
	mu    sync.RWMutex
	notes map[string]model.Note
	seq   map[string]uint64 // insertion order, breaks created_at ties
	next  uint64
}

func NewMemoryNoteStore() *MemoryNoteStore {
	return &MemoryNoteStore{notes: map[string]model.Note{}, seq: map[string]uint64{}}
}

func (s *MemoryNoteStore) ListByOwner(_ context.Context, ownerID string) ([]model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Note{}
	for _, n := range s.notes {
		if n.OwnerID == ownerID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.seq[out[i].ID] > s.seq[out[j].ID]
	})
	return out, nil
}

func (s *MemoryNoteStore) Create(_ context.Context, ownerID, text string) (model.Note, error) {
	now := timestamp()
	n := model.Note{ID: uuid.NewString(), OwnerID: ownerID, Text: text, CreatedAt: now, UpdatedAt: now}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.notes[n.ID] = n
	s.seq[n.ID] = s.next
	return n, nil
}

func (s *MemoryNoteStore) UpdateByIDAndOwner(_ context.Context, id, ownerID, text string) (model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.OwnerID != ownerID {
		return model.Note{}, ErrNoteNotFound
	}
	n.Text = text
	n.UpdatedAt = timestamp()
	s.notes[id] = n
	return n, nil
}

func (s *MemoryNoteStore) DeleteByIDAndOwner(_ context.Context, id, ownerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.OwnerID != ownerID {
		return false, nil
	}
	delete(s.notes, id)
	delete(s.seq, id)
	return true, nil
}
