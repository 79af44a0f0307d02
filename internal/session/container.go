package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/carepoint-health/carepoint/internal/cli/auth"
	"github.com/carepoint-health/carepoint/internal/cli/client"
)

// API is the part of the portal API client the container drives.
// *client.Client implements it.
type API interface {
	SetAuthToken(token string)
	ClearAuthToken()
	CurrentUser(ctx context.Context) (client.Profile, error)
	Login(ctx context.Context, creds client.Credentials) (*client.AuthPayload, error)
	Register(ctx context.Context, reg client.Registration) (*client.AuthPayload, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, partial client.Profile) (client.Profile, error)
}

// Listener receives a snapshot after every state change
type Listener func(Session)

type subscription struct {
	id int
	fn Listener
}

// Container owns the session for one portal server.
//
// Every settled operation leaves the persisted token and the API client's
// Authorization header equal to Session.Token. Login, Register, Initialize and
// Logout each start a new generation; a response belonging to an older
// generation is dropped and the call returns ErrSuperseded.
type Container struct {
	api    API
	store  auth.TokenStore
	server string
	log    zerolog.Logger

	mu         sync.Mutex
	state      Session
	generation uint64
	subs       []subscription
	nextSubID  int
}

// New creates a container in the loading state. Call Initialize once to
// resolve it from the persisted token.
func New(api API, store auth.TokenStore, server string, log zerolog.Logger) *Container {
	return &Container{
		api:    api,
		store:  store,
		server: server,
		log:    log.With().Str("component", "session").Str("server", server).Logger(),
		state:  Session{IsLoading: true},
	}
}

// Snapshot returns a copy of the current session
func (c *Container) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers fn to be called after every state change. Listeners run
// on the goroutine that made the change, after the container lock is released,
// so they may call Snapshot. The returned func unsubscribes and is idempotent.
func (c *Container) Subscribe(fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSubID++
	id := c.nextSubID
	c.subs = append(c.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, sub := range c.subs {
				if sub.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Initialize resolves the startup state from the persisted token. A token the
// API rejects, or any failure to reach the API, is deleted and the session
// ends signed out. It always finishes with IsLoading false.
func (c *Container) Initialize(ctx context.Context) Session {
	gen := c.begin(func(s *Session) {
		s.IsLoading = true
	})

	token, err := c.store.LoadToken(c.server)
	if err != nil {
		if !errors.Is(err, auth.ErrNotAuthenticated) {
			c.log.Warn().Err(err).Msg("Failed to read persisted token")
		}
		c.settle(gen, func(s *Session) {
			c.api.ClearAuthToken()
			*s = Session{}
		})
		return c.Snapshot()
	}

	if !c.settle(gen, func(s *Session) { c.api.SetAuthToken(token) }) {
		return c.Snapshot()
	}

	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		c.log.Debug().Err(err).Msg("Persisted token rejected, signing out")
		c.settle(gen, func(s *Session) {
			c.forgetToken()
			*s = Session{}
		})
		return c.Snapshot()
	}

	c.settle(gen, func(s *Session) {
		*s = authenticated(user, token)
	})
	return c.Snapshot()
}

// Login signs in with email and password
func (c *Container) Login(ctx context.Context, creds client.Credentials) (client.Profile, error) {
	return c.authenticate(ctx, "login", "Login failed", func(ctx context.Context) (*client.AuthPayload, error) {
		return c.api.Login(ctx, creds)
	})
}

// Register creates an account and signs in to it
func (c *Container) Register(ctx context.Context, reg client.Registration) (client.Profile, error) {
	return c.authenticate(ctx, "register", "Registration failed", func(ctx context.Context) (*client.AuthPayload, error) {
		return c.api.Register(ctx, reg)
	})
}

func (c *Container) authenticate(
	ctx context.Context,
	op, fallback string,
	call func(context.Context) (*client.AuthPayload, error),
) (client.Profile, error) {
	gen := c.begin(func(s *Session) {
		s.IsLoading = true
		s.Error = ""
	})

	payload, err := call(ctx)
	if err != nil {
		msg := errorMessage(err, fallback)
		applied := c.settle(gen, func(s *Session) {
			c.forgetToken()
			*s = Session{Error: msg}
		})
		if !applied {
			return nil, ErrSuperseded
		}
		return nil, &Error{Op: op, Message: msg, Err: err}
	}

	var user client.Profile
	applied := c.settle(gen, func(s *Session) {
		if err := c.store.SaveToken(c.server, payload.Token, TokenTTL); err != nil {
			// The session still works for this process; it just won't survive a restart
			c.log.Warn().Err(err).Msg("Failed to persist token")
		}
		c.api.SetAuthToken(payload.Token)
		*s = authenticated(payload.User, payload.Token)
		user = s.User.Clone()
	})
	if !applied {
		return nil, ErrSuperseded
	}
	return user, nil
}

// Logout tells the API to revoke the token, then clears the session no matter
// what the API answered. It cannot fail.
func (c *Container) Logout(ctx context.Context) {
	c.mu.Lock()
	c.generation++
	token := c.state.Token
	c.mu.Unlock()

	// A freshly started container has not loaded the persisted token yet
	if token == "" {
		if stored, err := c.store.LoadToken(c.server); err == nil {
			token = stored
		}
	}

	if token != "" {
		c.api.SetAuthToken(token)
		if err := c.api.Logout(ctx); err != nil {
			c.log.Warn().Err(err).Msg("Logout request failed, clearing local session anyway")
		}
	}

	c.mu.Lock()
	c.generation++
	c.forgetToken()
	c.state = Session{}
	snapshot, subs := c.state.clone(), c.listeners()
	c.mu.Unlock()

	notify(subs, snapshot)
}

// UpdateProfile sends a partial update and shallow-merges the fields the API
// returns into the current user. On failure the session is left untouched.
func (c *Container) UpdateProfile(ctx context.Context, partial client.Profile) (client.Profile, error) {
	c.mu.Lock()
	gen := c.generation
	signedIn := c.state.IsAuthenticated
	c.mu.Unlock()

	if !signedIn {
		return nil, ErrNotAuthenticated
	}

	updated, err := c.api.UpdateProfile(ctx, partial)
	if err != nil {
		return nil, &Error{Op: "update profile", Message: errorMessage(err, "Profile update failed"), Err: err}
	}

	var merged client.Profile
	applied := c.settle(gen, func(s *Session) {
		s.User = s.User.Merge(updated)
		merged = s.User.Clone()
	})
	if !applied {
		return nil, ErrSuperseded
	}
	return merged, nil
}

// ClearError resets the error message and nothing else
func (c *Container) ClearError() {
	c.mu.Lock()
	c.state.Error = ""
	snapshot, subs := c.state.clone(), c.listeners()
	c.mu.Unlock()

	notify(subs, snapshot)
}

// begin starts a new generation and applies fn to the state
func (c *Container) begin(fn func(*Session)) uint64 {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	fn(&c.state)
	snapshot, subs := c.state.clone(), c.listeners()
	c.mu.Unlock()

	notify(subs, snapshot)
	return gen
}

// settle applies fn only if no newer generation has started, reporting whether it did
func (c *Container) settle(gen uint64, fn func(*Session)) bool {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.log.Debug().Uint64("generation", gen).Msg("Discarding stale session response")
		return false
	}
	fn(&c.state)
	snapshot, subs := c.state.clone(), c.listeners()
	c.mu.Unlock()

	notify(subs, snapshot)
	return true
}

// forgetToken drops the persisted token and the default header. Caller holds c.mu.
func (c *Container) forgetToken() {
	if err := c.store.DeleteToken(c.server); err != nil {
		c.log.Warn().Err(err).Msg("Failed to delete persisted token")
	}
	c.api.ClearAuthToken()
}

// listeners copies the subscription list. Caller holds c.mu.
func (c *Container) listeners() []Listener {
	out := make([]Listener, len(c.subs))
	for i, sub := range c.subs {
		out[i] = sub.fn
	}
	return out
}

func notify(subs []Listener, s Session) {
	for _, fn := range subs {
		fn(s.clone())
	}
}
