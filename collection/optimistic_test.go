package collection_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unionhall/gameshelf/collection"
	"github.com/unionhall/gameshelf/model"
	"go.uber.org/zap"
)

// fakeGateway lets a test hold a mutation in flight, which an HTTP stub
// cannot do deterministically.
type fakeGateway struct {
	mu         sync.Mutex
	catalog    []model.Game
	listHook   func()
	checkoutFn func(id int64) error
	returnFn   func(id int64) error
}

func (f *fakeGateway) setCatalog(games []model.Game) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalog = games
}

func (f *fakeGateway) ListGames(context.Context, string) ([]model.Game, error) {
	if f.listHook != nil {
		f.listHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Game, len(f.catalog))
	copy(out, f.catalog)
	return out, nil
}

func (f *fakeGateway) CheckoutGame(_ context.Context, _ string, id int64) error {
	return f.checkoutFn(id)
}

func (f *fakeGateway) ReturnGame(_ context.Context, _ string, id int64) error {
	return f.returnFn(id)
}

func (f *fakeGateway) CreateGame(context.Context, string, model.Game) (*model.Game, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGateway) UpdateGame(context.Context, string, int64, model.GamePatch) (*model.Game, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGateway) DeleteGame(context.Context, string, int64) error {
	return errors.New("not implemented")
}

func (f *fakeGateway) ReturnAllGames(context.Context, string) ([]model.Game, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGateway) ImportCSV(context.Context, string, string, io.Reader) error {
	return errors.New("not implemented")
}

func (f *fakeGateway) ExportCSV(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGateway) Stats(context.Context, string, *time.Time, *time.Time) (*model.Stats, error) {
	return nil, errors.New("not implemented")
}

func TestCheckout_VisibleBeforeNetworkResolves(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	gw := &fakeGateway{
		catalog: []model.Game{{ID: 1, Name: "Catan", Quantity: 2, AvailableCopies: 2}},
		checkoutFn: func(id int64) error {
			close(entered)
			<-release
			return nil
		},
	}
	sess := &stubSession{token: "tok", role: model.RoleUser}
	m := collection.NewManager(gw, sess, zap.NewNop())
	m.Refresh(context.Background())

	done := make(chan error, 1)
	go func() { done <- m.Checkout(context.Background(), 1) }()
	<-entered

	// The local set already reflects the mutation while the call is in flight.
	local, ok := m.Get(1)
	require.True(t, ok)
	assert.Equal(t, 1, local.AvailableCopies)
	assert.Equal(t, 1, local.CheckoutCount)

	close(release)
	require.NoError(t, <-done)
}

func TestCheckout_RollbackSkippedAfterFreshFetch(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	gw := &fakeGateway{
		catalog: []model.Game{{ID: 1, Name: "Catan", Quantity: 5, AvailableCopies: 2}},
		checkoutFn: func(id int64) error {
			close(entered)
			<-release
			return errors.New("store unavailable")
		},
	}
	sess := &stubSession{token: "tok", role: model.RoleUser}
	m := collection.NewManager(gw, sess, zap.NewNop())
	m.Refresh(context.Background())

	done := make(chan error, 1)
	go func() { done <- m.Checkout(context.Background(), 1) }()
	<-entered

	// An authoritative fetch lands while the mutation is in flight.
	gw.setCatalog([]model.Game{{ID: 1, Name: "Catan", Quantity: 5, AvailableCopies: 4}})
	m.Refresh(context.Background())

	close(release)
	require.Error(t, <-done)

	// The stale snapshot must not clobber the fresher server truth.
	local, ok := m.Get(1)
	require.True(t, ok)
	assert.Equal(t, 4, local.AvailableCopies)
}

func TestLoading_StaysUpAcrossOverlappingRefreshes(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan struct{}, 2)
	gw := &fakeGateway{
		catalog: []model.Game{{ID: 1, Name: "Catan", Quantity: 1, AvailableCopies: 1}},
		listHook: func() {
			entered <- struct{}{}
			<-gate
		},
	}
	sess := &stubSession{role: model.RoleGuest}
	m := collection.NewManager(gw, sess, zap.NewNop())

	done := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		go func() {
			m.Refresh(context.Background())
			done <- struct{}{}
		}()
	}

	// Both refreshes are in flight before either is released.
	<-entered
	<-entered
	assert.True(t, m.Loading())

	// One refresh resolves; the other is still in flight.
	gate <- struct{}{}
	<-done
	assert.True(t, m.Loading(), "loading must stay up until the last refresh resolves")

	gate <- struct{}{}
	<-done
	waitForLoading(t, m, false)
}

func waitForLoading(t *testing.T, m *collection.Manager, want bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for m.Loading() != want {
		select {
		case <-deadline:
			t.Fatalf("Loading() never became %v", want)
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func TestReturn_RollbackOnFailure(t *testing.T) {
	gw := &fakeGateway{
		catalog:  []model.Game{{ID: 1, Name: "Catan", Quantity: 3, AvailableCopies: 1}},
		returnFn: func(id int64) error { return errors.New("store unavailable") },
	}
	sess := &stubSession{token: "tok", role: model.RoleUser}
	m := collection.NewManager(gw, sess, zap.NewNop())
	m.Refresh(context.Background())

	require.Error(t, m.Return(context.Background(), 1))
	local, ok := m.Get(1)
	require.True(t, ok)
	assert.Equal(t, 1, local.AvailableCopies)
}
