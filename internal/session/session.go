// =============================================================================
// Vision Connector - Session Manager
// =============================================================================
//
// This file owns the credentials used to talk to Vision and the session
// token the server hands out for them.
//
// TOKEN LIFECYCLE:
//   1. The first call logs in with ValidateLogin and stores the token
//   2. Later calls reuse the token while it is younger than MaxAge
//   3. An expired or invalidated token is replaced on the next call
//
// Only one caller logs in at a time; callers that wait get the new token.
//
// =============================================================================

// Package session owns the credentials used to talk to Vision and the
// short-lived session token the server hands out for them.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/ginjaninja78/vision-connector/internal/envelope"
	"github.com/ginjaninja78/vision-connector/internal/message"
)

var logger = loggo.GetLogger("vision.session")

// DefaultMaxAge is how long a token is reused before logging in again.
const DefaultMaxAge = 10 * time.Minute

// Credentials identify a Vision database user.
type Credentials struct {
	Database string
	Username string
	Password string
}

// LoginFunc calls the remote ValidateLogin operation with connection info
// that carries no session and returns the issued token.
type LoginFunc func(ctx context.Context, connInfo string) (string, error)

// Config holds the parameters of a Manager.
type Config struct {
	Credentials Credentials

	// UseSession enables token reuse. When false every call sends the
	// plain credentials.
	UseSession bool

	// MaxAge defaults to DefaultMaxAge.
	MaxAge time.Duration

	Login LoginFunc
	Clock clock.Clock
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Credentials.Database == "" {
		return errors.NotValidf("empty database")
	}
	if c.Credentials.Username == "" {
		return errors.NotValidf("empty username")
	}
	if c.UseSession && c.Login == nil {
		return errors.NotValidf("nil login func")
	}
	if c.MaxAge < 0 {
		return errors.NotValidf("negative max age %v", c.MaxAge)
	}
	return nil
}

// Manager hands out connection info, renewing the session token lazily.
// It is safe for concurrent use; only the read-or-refresh step is
// serialized.
type Manager struct {
	creds      Credentials
	useSession bool
	maxAge     time.Duration
	login      LoginFunc
	clock      clock.Clock

	mu     sync.Mutex
	token  string
	issued time.Time
}

// NewManager returns a Manager for cfg.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	return &Manager{
		creds:      cfg.Credentials,
		useSession: cfg.UseSession,
		maxAge:     cfg.MaxAge,
		login:      cfg.Login,
		clock:      cfg.Clock,
	}, nil
}

// Credentials returns the credentials the manager logs in with.
func (m *Manager) Credentials() Credentials {
	return m.creds
}

// BaseConnInfo returns connection info without a session.
func (m *Manager) BaseConnInfo() string {
	return envelope.LoginConnInfo(m.creds.Database, m.creds.Username, m.creds.Password)
}

// WithSession returns connection info carrying the credentials and the
// given session id.
func (m *Manager) WithSession(sessionID string) string {
	return envelope.FullConnInfo(m.creds.Database, m.creds.Username, m.creds.Password, sessionID)
}

// IsValid reports whether a token exists and is no older than the max age
// at now.
func (m *Manager) IsValid(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validLocked(now)
}

func (m *Manager) validLocked(now time.Time) bool {
	return m.token != "" && now.Sub(m.issued) <= m.maxAge
}

// Refresh logs in and replaces the token unconditionally.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshLocked(ctx)
}

func (m *Manager) refreshLocked(ctx context.Context) error {
	token, err := m.login(ctx, m.BaseConnInfo())
	if err == nil {
		// A rejected login comes back as a response envelope instead of
		// a token.
		if reply := message.Parse(token); reply.Failed() {
			err = errors.Errorf("%s: %s", reply.ReturnCode, reply.ReturnDesc)
		} else if token == "" {
			err = errors.New("empty session token")
		}
	}
	if err != nil {
		return errors.Annotatef(err, "connection failed with database %q and user %q",
			m.creds.Database, m.creds.Username)
	}
	m.token = token
	m.issued = m.clock.Now()
	logger.Debugf("session renewed for %s on %s", m.creds.Username, m.creds.Database)
	return nil
}

// ConnectionEnvelope returns the connection info for the next operation,
// logging in first when session use is enabled and the token is missing or
// expired.
//
// PARAMETERS:
//   - ctx: Passed to the login call
//
// RETURNS:
//   - Connection info with the current token, or the plain credentials
//     when sessions are disabled
//   - An error if the login fails
func (m *Manager) ConnectionEnvelope(ctx context.Context) (string, error) {
	if !m.useSession {
		return m.BaseConnInfo(), nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.validLocked(m.clock.Now()) {
		if err := m.refreshLocked(ctx); err != nil {
			return "", errors.Trace(err)
		}
	}
	return m.WithSession(m.token), nil
}

// Invalidate drops the current token so the next call logs in again.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.issued = time.Time{}
}
