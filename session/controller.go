package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/unionhall/gameshelf/config"
	"github.com/unionhall/gameshelf/model"
	"github.com/unionhall/gameshelf/scheduler"
	"go.uber.org/zap"
)

const renewTask = "session_renewal"

// ErrNotAuthenticated is returned by operations that need a session when
// there is none.
var ErrNotAuthenticated = errors.New("not authenticated")

// State is the controller's lifecycle position.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
	StateRenewing
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateRenewing:
		return "renewing"
	}
	return "unauthenticated"
}

// Gateway is the slice of the remote store the controller uses.
type Gateway interface {
	Login(ctx context.Context, username, password string) (*model.Session, error)
	Renew(ctx context.Context, token string) (*model.Session, error)
}

// Controller exclusively owns the session credential. It performs login and
// logout, keeps the credential fresh through a background renewal loop, and
// notifies subscribers whenever the session value changes so they can
// resynchronize.
type Controller struct {
	gw     Gateway
	store  *Store
	sched  *scheduler.Scheduler
	cfg    config.SessionConfig
	logger *zap.Logger

	mu       sync.RWMutex
	current  *model.Session
	state    State
	renewing bool

	subMu sync.Mutex
	subs  []func(*model.Session)
}

// NewController creates a Controller. The store may be nil when the
// credential should not outlive the process.
func NewController(gw Gateway, store *Store, cfg config.SessionConfig, logger *zap.Logger) *Controller {
	return &Controller{
		gw:     gw,
		store:  store,
		sched:  scheduler.New(logger),
		cfg:    cfg,
		logger: logger,
	}
}

// Current returns a copy of the active credential, or nil when there is none.
func (c *Controller) Current() *model.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	cp := *c.current
	return &cp
}

// State returns the controller's lifecycle state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Role returns the active role; guest when unauthenticated.
func (c *Controller) Role() model.Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return model.RoleGuest
	}
	return c.current.Role
}

// Token returns the bearer token for scoping gateway calls; empty when
// unauthenticated.
func (c *Controller) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return ""
	}
	return c.current.Token
}

// OnChange registers fn to run after every session change: login, renewal,
// logout, and fail-closed clears. fn receives a copy, or nil when the session
// is gone.
func (c *Controller) OnChange(fn func(*model.Session)) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.subs = append(c.subs, fn)
}

// Login authenticates against the remote store. Rejected credentials come
// back as gateway.ErrInvalidCredentials; on any failure no partial credential
// is left behind.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	c.mu.Lock()
	c.state = StateAuthenticating
	c.mu.Unlock()

	sess, err := c.gw.Login(ctx, username, password)
	if err != nil {
		c.mu.Lock()
		c.current = nil
		c.state = StateUnauthenticated
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.current = sess
	c.state = StateAuthenticated
	c.mu.Unlock()

	c.persist(sess)
	c.scheduleRenewal()
	c.logger.Info("logged in",
		zap.String("identity", sess.Identity),
		zap.Stringer("role", sess.Role),
		zap.Time("expiry", sess.Expiry))
	c.notify(sess)
	return nil
}

// Logout clears the credential unconditionally, cancels the renewal task, and
// erases any persisted copy.
func (c *Controller) Logout() {
	c.mu.Lock()
	had := c.current != nil
	c.current = nil
	c.state = StateUnauthenticated
	c.mu.Unlock()

	c.sched.Remove(renewTask)
	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			c.logger.Warn("failed to erase persisted credential", zap.Error(err))
		}
	}
	if had {
		c.logger.Info("logged out")
	}
	c.notify(nil)
}

// Renew exchanges the current token for a fresh one. A no-op when
// unauthenticated or when a renewal is already in flight. Any failure clears
// the session entirely rather than keeping a token of unknown validity.
func (c *Controller) Renew(ctx context.Context) error {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return nil
	}
	if c.renewing {
		c.mu.Unlock()
		return nil
	}
	c.renewing = true
	c.state = StateRenewing
	token := c.current.Token
	c.mu.Unlock()

	fresh, err := c.gw.Renew(ctx, token)

	c.mu.Lock()
	c.renewing = false
	if c.current == nil {
		// Logged out while the renewal was in flight.
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.current = nil
		c.state = StateUnauthenticated
		c.mu.Unlock()

		c.sched.Remove(renewTask)
		if c.store != nil {
			_ = c.store.Clear()
		}
		c.logger.Warn("session renewal failed, session cleared", zap.Error(err))
		c.notify(nil)
		return err
	}

	// New token and expiry replace the old ones; role and identity carry over.
	c.current.Token = fresh.Token
	c.current.Expiry = fresh.Expiry
	sess := *c.current
	c.state = StateAuthenticated
	c.mu.Unlock()

	c.persist(&sess)
	c.scheduleRenewal()
	c.logger.Info("session renewed", zap.Time("expiry", sess.Expiry))
	c.notify(&sess)
	return nil
}

// Restore loads a persisted credential and validates it with the remote
// store. Expired or malformed credentials are discarded silently; a live one
// is renewed immediately rather than trusted as-is.
func (c *Controller) Restore(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	sess, err := c.store.Load()
	if err != nil {
		c.logger.Warn("failed to load persisted credential", zap.Error(err))
		return nil
	}
	if sess == nil {
		return nil
	}
	if sess.Expired(time.Now()) || tokenExpired(sess.Token, time.Now()) {
		c.logger.Info("persisted credential expired, discarding")
		_ = c.store.Clear()
		return nil
	}

	c.mu.Lock()
	c.current = sess
	c.state = StateAuthenticated
	c.mu.Unlock()

	// Renew notifies subscribers on success and fail-closes on error.
	return c.Renew(ctx)
}

// Close cancels the renewal loop. Must be called exactly once on teardown;
// further calls are harmless.
func (c *Controller) Close() {
	c.sched.Stop()
}

// scheduleRenewal (re)starts the recurring expiry check. Registering under
// the same name resets the interval, so every login and successful renewal
// starts a fresh schedule.
func (c *Controller) scheduleRenewal() {
	c.sched.Every(renewTask, c.cfg.CheckInterval, c.checkRenewal)
}

// checkRenewal renews once remaining time-to-expiry drops to the threshold,
// refreshing pre-emptively instead of waiting for hard expiry. The expiry is
// copied under the lock; Renew rewrites the session fields in place.
func (c *Controller) checkRenewal() {
	c.mu.RLock()
	if c.current == nil {
		c.mu.RUnlock()
		return
	}
	expiry := c.current.Expiry
	c.mu.RUnlock()
	if time.Until(expiry) > c.cfg.RenewThreshold {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.Renew(ctx); err != nil {
		c.logger.Warn("scheduled renewal failed", zap.Error(err))
	}
}

func (c *Controller) persist(sess *model.Session) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(sess); err != nil {
		c.logger.Warn("failed to persist credential", zap.Error(err))
	}
}

func (c *Controller) notify(sess *model.Session) {
	c.subMu.Lock()
	subs := make([]func(*model.Session), len(c.subs))
	copy(subs, c.subs)
	c.subMu.Unlock()

	for _, fn := range subs {
		if sess == nil {
			fn(nil)
			continue
		}
		cp := *sess
		fn(&cp)
	}
}
