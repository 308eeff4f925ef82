package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/pollution-watch/internal/model"
	"github.com/iliyamo/pollution-watch/internal/queue"
	"github.com/iliyamo/pollution-watch/internal/repository"
)

// memUsers implements UserStore and SessionStore over a map.
type memUsers struct {
	mu   sync.Mutex
	byID map[string]*model.User
	fail error
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]*model.User{}} }

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if x.Login == u.Login {
			return repository.ErrLoginExists
		}
	}
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return model.User{}, m.fail
	}
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return *u, nil
}

func (m *memUsers) GetByLogin(_ context.Context, login string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Login == login {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) List(context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, *u)
	}
	slices.SortFunc(out, func(a, b model.User) int { return strings.Compare(a.Login, b.Login) })
	return out, nil
}

func (m *memUsers) Store(_ context.Context, userID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	h := hash
	u.RefreshTokenHash = &h
	return nil
}

func (m *memUsers) FindByIDAndHash(_ context.Context, userID, hash string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok || u.RefreshTokenHash == nil || *u.RefreshTokenHash != hash {
		return model.User{}, repository.ErrNotFound
	}
	return *u, nil
}

func (m *memUsers) Rotate(_ context.Context, userID, oldHash, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok || u.RefreshTokenHash == nil || *u.RefreshTokenHash != oldHash {
		return repository.ErrTokenMismatch
	}
	h := newHash
	u.RefreshTokenHash = &h
	return nil
}

func (m *memUsers) RevokeByHash(_ context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.RefreshTokenHash != nil && *u.RefreshTokenHash == hash {
			u.RefreshTokenHash = nil
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) put(u model.User) { m.byID[u.ID] = &u }

// memReports implements PollutionStore.
type memReports struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]model.Pollution
}

func newMemReports() *memReports { return &memReports{rows: map[int64]model.Pollution{}} }

func (m *memReports) Create(_ context.Context, p *model.Pollution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	m.rows[p.ID] = *p
	return nil
}

func (m *memReports) GetByID(_ context.Context, id int64) (model.Pollution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return model.Pollution{}, repository.ErrNotFound
	}
	return p, nil
}

func (m *memReports) List(_ context.Context, search string, limit int) ([]model.Pollution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Pollution
	for _, p := range m.rows {
		if search == "" || strings.Contains(strings.ToLower(p.Titre), strings.ToLower(search)) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b model.Pollution) int { return int(a.ID - b.ID) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memReports) Update(_ context.Context, id int64, patch model.PollutionPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if patch.Titre != nil {
		p.Titre = *patch.Titre
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.TypePollution != nil {
		p.TypePollution = *patch.TypePollution
	}
	if patch.Lieu != nil {
		p.Lieu = *patch.Lieu
	}
	if patch.DateObservation != nil {
		p.DateObservation = *patch.DateObservation
	}
	if patch.PhotoURL != nil {
		p.PhotoURL = patch.PhotoURL
	}
	m.rows[id] = p
	return nil
}

func (m *memReports) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

// memFavorites implements FavoriteStore on top of memReports.
type memFavorites struct {
	reports *memReports
	marks   map[string][]int64
}

func (m *memFavorites) Add(_ context.Context, userID string, id int64) error {
	if !slices.Contains(m.marks[userID], id) {
		m.marks[userID] = append(m.marks[userID], id)
	}
	return nil
}

func (m *memFavorites) Remove(_ context.Context, userID string, id int64) error {
	m.marks[userID] = slices.DeleteFunc(m.marks[userID], func(x int64) bool { return x == id })
	return nil
}

func (m *memFavorites) ListByUser(ctx context.Context, userID string) ([]model.Pollution, error) {
	var out []model.Pollution
	ids := m.marks[userID]
	for i := len(ids) - 1; i >= 0; i-- {
		p, err := m.reports.GetByID(ctx, ids[i])
		if err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

// recPublisher records events and optionally fails.
type recPublisher struct {
	events []queue.PollutionEvent
	fail   bool
}

func (r *recPublisher) Publish(_ context.Context, ev queue.PollutionEvent) error {
	r.events = append(r.events, ev)
	if r.fail {
		return errors.New("broker down")
	}
	return nil
}

func ptr(s string) *string { return &s }
