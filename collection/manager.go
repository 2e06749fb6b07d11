package collection

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/unionhall/gameshelf/model"
	"go.uber.org/zap"
)

var (
	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = errors.New("operation requires a session")
	// ErrPermissionDenied is returned when the session's role is too low.
	ErrPermissionDenied = errors.New("operation requires a higher role")
	// ErrNoCopiesAvailable rejects a checkout before any network call when no
	// copy is out on the shelf.
	ErrNoCopiesAvailable = errors.New("no copies available for checkout")
	// ErrAllCopiesIn rejects a return before any network call when every copy
	// is already in.
	ErrAllCopiesIn = errors.New("all copies are already returned")
	// ErrUnknownGame means the id is not in the local set; refresh first.
	ErrUnknownGame = errors.New("game not found in local catalog")
)

// Gateway is the slice of the remote store the manager uses.
type Gateway interface {
	ListGames(ctx context.Context, token string) ([]model.Game, error)
	CreateGame(ctx context.Context, token string, draft model.Game) (*model.Game, error)
	UpdateGame(ctx context.Context, token string, id int64, patch model.GamePatch) (*model.Game, error)
	DeleteGame(ctx context.Context, token string, id int64) error
	CheckoutGame(ctx context.Context, token string, id int64) error
	ReturnGame(ctx context.Context, token string, id int64) error
	ReturnAllGames(ctx context.Context, token string) ([]model.Game, error)
	ImportCSV(ctx context.Context, token, filename string, r io.Reader) error
	ExportCSV(ctx context.Context, token string) (io.ReadCloser, error)
	Stats(ctx context.Context, token string, from, to *time.Time) (*model.Stats, error)
}

// SessionSource provides the credential scoping every call and a hook for
// hearing about session changes.
type SessionSource interface {
	Token() string
	Role() model.Role
	OnChange(fn func(*model.Session))
}

// Manager exclusively owns the unfiltered item set and the derived
// (filtered+sorted) view. Mutations are optimistic: the local copy changes
// before the network call resolves, and a failed call restores the
// pre-mutation snapshot. Every read of server truth replaces the whole set.
type Manager struct {
	gw       Gateway
	sessions SessionSource
	logger   *zap.Logger

	mu     sync.RWMutex
	all    []model.Game
	view   []model.Game
	filter model.FilterSpec
	sort   model.SortSpec
	// loading counts refreshes in flight, so overlapping refreshes keep the
	// flag up until the last one resolves.
	loading int
	// gen counts authoritative replacements of the set. A rollback only
	// applies while the generation it snapshotted is still current; once a
	// fresh fetch lands, the server's answer wins.
	gen uint64
}

// NewManager creates a Manager bound to the given session scope. The item set
// starts empty; call Refresh (or log in, which triggers one) to populate it.
func NewManager(gw Gateway, sessions SessionSource, logger *zap.Logger) *Manager {
	m := &Manager{
		gw:       gw,
		sessions: sessions,
		logger:   logger,
		sort:     model.DefaultSort,
	}
	// Identity change means different visibility, so server truth must be
	// refetched whenever the session changes, including logout.
	sessions.OnChange(func(*model.Session) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		m.Refresh(ctx)
	})
	return m
}

// Games returns the derived view.
func (m *Manager) Games() []model.Game {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Game, len(m.view))
	copy(out, m.view)
	return out
}

// Loading reports whether a refresh is in flight.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading > 0
}

// Get returns the local copy of one item from the unfiltered set.
func (m *Manager) Get(id int64) (*model.Game, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.indexLocked(id); i >= 0 {
		cp := m.all[i]
		return &cp, true
	}
	return nil, false
}

// Refresh replaces the unfiltered set with server truth, scoped by the
// current session, and recomputes the derived view. It never fails the
// caller: a fetch error keeps the previous set so a transient blip does not
// blank the display.
func (m *Manager) Refresh(ctx context.Context) {
	m.mu.Lock()
	m.loading++
	m.mu.Unlock()

	games, err := m.gw.ListGames(ctx, m.sessions.Token())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading--
	if err != nil {
		m.logger.Warn("refresh failed, keeping previous catalog", zap.Error(err))
		return
	}
	m.all = games
	m.gen++
	m.recomputeLocked()
}

// UpdateFilterAndSort replaces the active specification and recomputes the
// derived view from the current set. No network round trip: filtering is
// entirely client-side.
func (m *Manager) UpdateFilterAndSort(filter model.FilterSpec, sort model.SortSpec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = filter
	m.sort = sort
	m.recomputeLocked()
}

// Create adds a new entry (admin only) and refetches on success.
func (m *Manager) Create(ctx context.Context, draft model.Game) (*model.Game, error) {
	if err := m.requireRole(model.RoleAdmin); err != nil {
		return nil, err
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	created, err := m.gw.CreateGame(ctx, m.sessions.Token(), draft)
	if err != nil {
		return nil, err
	}
	m.Refresh(ctx)
	return created, nil
}

// Update patches an existing entry (admin only) and refetches on success.
func (m *Manager) Update(ctx context.Context, id int64, patch model.GamePatch) (*model.Game, error) {
	if err := m.requireRole(model.RoleAdmin); err != nil {
		return nil, err
	}
	updated, err := m.gw.UpdateGame(ctx, m.sessions.Token(), id, patch)
	if err != nil {
		return nil, err
	}
	m.Refresh(ctx)
	return updated, nil
}

// Delete removes an entry (admin only) and refetches on success.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	if err := m.requireRole(model.RoleAdmin); err != nil {
		return err
	}
	if err := m.gw.DeleteGame(ctx, m.sessions.Token(), id); err != nil {
		return err
	}
	m.Refresh(ctx)
	return nil
}

// Checkout takes one copy of the item. The local set is updated before the
// network call so the display reflects the action immediately; a failed call
// restores the snapshot unless a fresh fetch has landed in the meantime.
func (m *Manager) Checkout(ctx context.Context, id int64) error {
	if err := m.requireRole(model.RoleUser); err != nil {
		return err
	}

	m.mu.Lock()
	i := m.indexLocked(id)
	if i < 0 {
		m.mu.Unlock()
		return ErrUnknownGame
	}
	if !m.all[i].CanCheckout() {
		m.mu.Unlock()
		return ErrNoCopiesAvailable
	}
	snapshot := m.all[i]
	gen := m.gen
	m.all[i].AvailableCopies--
	m.all[i].CheckoutCount++
	m.recomputeLocked()
	m.mu.Unlock()

	if err := m.gw.CheckoutGame(ctx, m.sessions.Token(), id); err != nil {
		m.rollback(id, snapshot, gen)
		return err
	}
	return nil
}

// Return puts one copy of the item back. Optimistic like Checkout.
func (m *Manager) Return(ctx context.Context, id int64) error {
	if err := m.requireRole(model.RoleUser); err != nil {
		return err
	}

	m.mu.Lock()
	i := m.indexLocked(id)
	if i < 0 {
		m.mu.Unlock()
		return ErrUnknownGame
	}
	if !m.all[i].CanReturn() {
		m.mu.Unlock()
		return ErrAllCopiesIn
	}
	snapshot := m.all[i]
	gen := m.gen
	m.all[i].AvailableCopies++
	m.recomputeLocked()
	m.mu.Unlock()

	if err := m.gw.ReturnGame(ctx, m.sessions.Token(), id); err != nil {
		m.rollback(id, snapshot, gen)
		return err
	}
	return nil
}

// ReturnAll puts every outstanding copy back (admin only). The server's list
// of changed items is the confirmation payload; the set is refetched after.
func (m *Manager) ReturnAll(ctx context.Context) ([]model.Game, error) {
	if err := m.requireRole(model.RoleAdmin); err != nil {
		return nil, err
	}
	changed, err := m.gw.ReturnAllGames(ctx, m.sessions.Token())
	if err != nil {
		return nil, err
	}
	m.Refresh(ctx)
	return changed, nil
}

// ImportFromFile uploads a tabular file for server-side import (admin only).
// Duplicate names are skipped by the server; the set is refetched after.
func (m *Manager) ImportFromFile(ctx context.Context, filename string, r io.Reader) error {
	if err := m.requireRole(model.RoleAdmin); err != nil {
		return err
	}
	if err := m.gw.ImportCSV(ctx, m.sessions.Token(), filename, r); err != nil {
		return err
	}
	m.Refresh(ctx)
	return nil
}

// ExportToFile streams the catalog as CSV (admin only). No local state
// changes; the caller owns the reader.
func (m *Manager) ExportToFile(ctx context.Context) (io.ReadCloser, error) {
	if err := m.requireRole(model.RoleAdmin); err != nil {
		return nil, err
	}
	return m.gw.ExportCSV(ctx, m.sessions.Token())
}

// FetchStats runs the aggregate query for one-shot display. The result is
// handed straight back, never stored.
func (m *Manager) FetchStats(ctx context.Context, from, to *time.Time) (*model.Stats, error) {
	return m.gw.Stats(ctx, m.sessions.Token(), from, to)
}

func (m *Manager) requireRole(min model.Role) error {
	role := m.sessions.Role()
	if role == model.RoleGuest {
		return ErrNotAuthenticated
	}
	if !role.AtLeast(min) {
		return ErrPermissionDenied
	}
	return nil
}

// rollback restores the pre-mutation snapshot of one item, but only while the
// set generation it was taken against is still current: once an authoritative
// fetch has replaced the set, the server already has the last word.
func (m *Manager) rollback(id int64, snapshot model.Game, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return
	}
	if i := m.indexLocked(id); i >= 0 {
		m.all[i] = snapshot
		m.recomputeLocked()
	}
}

func (m *Manager) indexLocked(id int64) int {
	for i := range m.all {
		if m.all[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) recomputeLocked() {
	m.view = model.ApplyFilterSort(m.all, m.filter, m.sort)
}
