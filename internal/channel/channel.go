// Package channel maintains the single long-lived websocket connection to
// the messaging relay for the duration of a signed-in session.
package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"coachlink/messaging/internal/models"
	"coachlink/messaging/internal/session"
)

// State is the connection state of the channel.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	// StateGivenUp means the bounded reconnect budget was exhausted or the
	// relay rejected the session token. Only a fresh Open leaves this state.
	StateGivenUp State = "given-up"
)

var (
	// ErrSendRejected is returned by Send when the channel is not connected.
	// The message is not queued; the caller decides whether to retry.
	ErrSendRejected = errors.New("channel: send rejected, not connected")
	// ErrAuthRejected is returned when the relay refuses the bearer token on
	// the upgrade request. Never retried.
	ErrAuthRejected = errors.New("channel: authentication rejected")
	// ErrGaveUp is returned when every connect attempt within the backoff
	// budget failed.
	ErrGaveUp = errors.New("channel: gave up connecting")
	// ErrSuperseded is returned by a connect loop that lost the race with a
	// Close or a newer Open.
	ErrSuperseded = errors.New("channel: superseded")
)

// Config tunes the connect/reconnect behaviour.
type Config struct {
	// URL is the websocket endpoint, e.g. "ws://localhost:8080/ws".
	URL string
	// DialTimeout bounds a single connect attempt.
	DialTimeout time.Duration
	// BackoffMin is the delay before the second attempt; it doubles per
	// attempt up to BackoffMax.
	BackoffMin time.Duration
	BackoffMax time.Duration
	// MaxAttempts bounds one outage's connect attempts before giving up.
	MaxAttempts int
}

func (c *Config) applyDefaults() {
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.BackoffMin <= 0 {
		c.BackoffMin = time.Second
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 6
	}
}

// Handler consumes inbound wire messages in arrival order.
type Handler func(models.WireMessage)

// Manager owns the channel lifecycle: connect with token auth, detect
// disconnects, reconnect with capped backoff, tear down on sign-out. Exactly
// one Manager exists per signed-in session.
type Manager struct {
	cfg     Config
	session session.Context
	log     *slog.Logger

	mu      sync.Mutex
	state   State
	conn    *websocket.Conn
	handler Handler
	onState func(State)
	// gen invalidates pumps and reconnect loops from a previous connection
	// whenever the lifecycle moves on without them (Close, a newer Open).
	gen int

	sendCh chan models.WireMessage
	// stopWrite stops the write pump bound to the current connection.
	stopWrite chan struct{}
}

// New builds a Manager. The session token is attached to every dial.
func New(cfg Config, sess session.Context, log *slog.Logger) *Manager {
	cfg.applyDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		cfg:     cfg,
		session: sess,
		log:     log,
		state:   StateDisconnected,
		sendCh:  make(chan models.WireMessage, 64),
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnMessage registers the single inbound handler. The last registration wins;
// the delivery router is expected to register once per session.
func (m *Manager) OnMessage(h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

// OnStateChange registers a callback fired on every state transition, so the
// presentation layer can surface "connecting" and "given-up" states.
func (m *Manager) OnStateChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onState = fn
}

// Open establishes the channel, blocking through the bounded backoff loop
// until connected or given up. Calling while connecting or connected is a
// no-op. An auth rejection is terminal: Open returns ErrAuthRejected without
// burning through the remaining attempts.
func (m *Manager) Open(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateConnecting || m.state == StateConnected {
		m.mu.Unlock()
		return nil
	}
	m.state = StateConnecting
	m.gen++
	gen := m.gen
	m.mu.Unlock()
	m.notify(StateConnecting)

	return m.connect(ctx, gen)
}

// Close tears down the channel and detaches the inbound handler so that a
// later Open cannot leak duplicate deliveries from a stale registration.
// Idempotent; safe on every exit path including abrupt navigation.
func (m *Manager) Close() {
	m.mu.Lock()
	m.gen++
	m.handler = nil
	m.state = StateDisconnected
	if m.stopWrite != nil {
		close(m.stopWrite)
		m.stopWrite = nil
	}
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	m.mu.Unlock()
	m.notify(StateDisconnected)
}

// Send emits an outbound wire message. Fire-and-forget: a nil return means
// the message was handed to the write pump, not that the relay stored it.
func (m *Manager) Send(msg models.WireMessage) error {
	m.mu.Lock()
	if m.state != StateConnected {
		m.mu.Unlock()
		return ErrSendRejected
	}
	m.mu.Unlock()

	select {
	case m.sendCh <- msg:
		return nil
	default:
		return fmt.Errorf("%w: send buffer full", ErrSendRejected)
	}
}

// connect runs the bounded backoff loop for one outage.
func (m *Manager) connect(ctx context.Context, gen int) error {
	backoff := m.cfg.BackoffMin
	var lastErr error

	for attempt := 1; attempt <= m.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			m.log.Debug("channel reconnect backoff",
				"attempt", attempt, "delay", backoff)
			select {
			case <-ctx.Done():
				return m.giveUp(gen, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > m.cfg.BackoffMax {
				backoff = m.cfg.BackoffMax
			}
		}

		conn, resp, err := m.dial(ctx)
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return m.giveUp(gen, ErrAuthRejected)
		}
		if err != nil {
			lastErr = err
			m.log.Warn("channel dial failed", "attempt", attempt, "error", err)
			continue
		}

		m.mu.Lock()
		if m.gen != gen {
			m.mu.Unlock()
			conn.Close()
			return ErrSuperseded
		}
		m.conn = conn
		m.state = StateConnected
		stop := make(chan struct{})
		m.stopWrite = stop
		m.mu.Unlock()
		m.notify(StateConnected)

		go m.readPump(conn, gen)
		go m.writePump(conn, stop)
		return nil
	}

	return m.giveUp(gen, fmt.Errorf("%w after %d attempts: %v", ErrGaveUp, m.cfg.MaxAttempts, lastErr))
}

func (m *Manager) dial(ctx context.Context) (*websocket.Conn, *http.Response, error) {
	dialCtx, cancel := context.WithTimeout(ctx, m.cfg.DialTimeout)
	defer cancel()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+m.session.Token)
	return websocket.DefaultDialer.DialContext(dialCtx, m.cfg.URL, header)
}

func (m *Manager) giveUp(gen int, err error) error {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return ErrSuperseded
	}
	m.state = StateGivenUp
	m.mu.Unlock()
	m.notify(StateGivenUp)
	return err
}

// reconnect is entered when the read pump dies under a live session.
func (m *Manager) reconnect(gen int) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	m.gen++
	gen = m.gen
	m.conn = nil
	if m.stopWrite != nil {
		close(m.stopWrite)
		m.stopWrite = nil
	}
	m.state = StateConnecting
	m.mu.Unlock()
	m.notify(StateConnecting)

	if err := m.connect(context.Background(), gen); err != nil {
		m.log.Error("channel reconnect failed", "error", err)
	}
}

func (m *Manager) notify(s State) {
	m.mu.Lock()
	fn := m.onState
	m.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}
