/*
Package chat contains the client side of the live chat room.

This file defines the Session state machine. All socket callbacks are turned
into discrete events on a single channel, and one consumer goroutine applies
every state transition, with no scattered mutable flags. A clean shutdown (local
Close or a normal close frame from the peer) lands in StateClosed without an
error; only transport failures and unexpected closes land in StateError.
There is no automatic reconnect: resuming is an explicit Connect call.
*/
package chat

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"yapnet/internal/app/api"
	"yapnet/internal/pkg/errs"
	"yapnet/internal/pkg/logx"
)

// State identifies the session's position in its lifecycle.
type State string

const (
	// StateDisconnected is the initial state, before any Connect.
	StateDisconnected State = "disconnected"

	// StateAuthenticating covers the token fetch, the REST handshake, and
	// the socket upgrade.
	StateAuthenticating State = "authenticating"

	// StateConnected means the socket is live and frames flow both ways.
	StateConnected State = "connected"

	// StateClosed is the clean terminal state: a local Close or a normal
	// close frame from the peer. No error is associated with it.
	StateClosed State = "closed"

	// StateError is the failed terminal state; Err() carries the classified cause.
	StateError State = "error"
)

const (
	// handshakeTimeout bounds the WebSocket upgrade.
	handshakeTimeout = 10 * time.Second

	// closeGracePeriod bounds the write of the outgoing close frame.
	closeGracePeriod = 2 * time.Second

	// eventBuffer sizes the event channel; the consumer is fast, the buffer
	// only absorbs bursts of inbound frames.
	eventBuffer = 64
)

// ErrNotConnected is returned by Send when no live connection exists.
var ErrNotConnected = errors.New("chat session is not connected")

// ErrAlreadyConnected is returned by Connect while a session is being
// established or is live.
var ErrAlreadyConnected = errors.New("chat session is already connecting or connected")

type eventKind int

const (
	evFrame eventKind = iota
	evPeerClosed
	evReadFailed
)

// event is one discrete occurrence applied by the run loop.
type event struct {
	kind eventKind
	msg  Message
	err  error
}

// TokenSource mirrors session.TokenSource; redeclared to keep the package's
// dependency direction flat (chat depends on api for the handshake only).
type TokenSource interface {
	Token(ctx context.Context) string
}

// Session manages one bidirectional chat connection.
type Session struct {
	wsURL  string
	tokens TokenSource
	rest   *api.Client
	dialer *websocket.Dialer

	mu       sync.Mutex
	state    State
	lastErr  error
	conn     *websocket.Conn
	connOnce *sync.Once
	closeReq chan struct{}
	messages []Message
	seen     map[string]struct{}

	// wmu serializes socket writes (Send vs. the close frame).
	wmu sync.Mutex

	// notify receives a coalesced signal after every log or state change.
	notify chan struct{}

	logger zerolog.Logger
}

// NewSession constructs a Session for the given chat endpoint.
// rest performs the pre-upgrade handshake; tokens supplies the bearer token
// carried as a connection-establishment query parameter (the browser
// WebSocket API exposes no header mechanism, and the server contract
// reflects that).
func NewSession(wsURL string, tokens TokenSource, rest *api.Client) *Session {
	return &Session{
		wsURL:  wsURL,
		tokens: tokens,
		rest:   rest,
		dialer: &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		state:  StateDisconnected,
		seen:   make(map[string]struct{}),
		notify: make(chan struct{}, 1),
		logger: logx.Logger().With().Str("component", "chat").Logger(),
	}
}

// Connect establishes the session: token, REST handshake, socket upgrade.
//
// It may be called from Disconnected, Closed, or Error; reconnecting is an
// explicit user action, never automatic. A missing token transitions
// directly to the terminal Error state without any network activity. A Close
// issued while the attempt is in flight wins: the attempt is abandoned, any
// socket it produced is closed, and the session stays in StateClosed. The
// message log survives reconnects; the server's history replay deduplicates
// against it.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateAuthenticating || s.state == StateConnected {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.state = StateAuthenticating
	s.lastErr = nil
	s.mu.Unlock()
	s.signal()

	token := s.tokens.Token(ctx)
	if token == "" {
		err := errs.New(errs.KindUnauthorized)
		s.fail(err)
		return err
	}

	// Handshake: the server creates the account record on first contact and
	// rejects stale tokens here, before we pay for a socket upgrade.
	if err := s.rest.Post(ctx, "/Auth", nil, nil); err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	if s.state != StateAuthenticating {
		// Close intervened during the handshake; the session is torn down.
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	dialURL := s.wsURL + "?token=" + url.QueryEscape("Bearer "+token)

	conn, res, err := s.dialer.DialContext(ctx, dialURL, nil)
	if err != nil {
		var classified error
		if res != nil {
			classified = errs.FromStatus(res.StatusCode)
		} else {
			classified = errs.Wrap(errs.KindNetwork, err)
		}
		s.fail(classified)
		return classified
	}

	events := make(chan event, eventBuffer)
	closeReq := make(chan struct{}, 1)

	s.mu.Lock()
	if s.state != StateAuthenticating {
		// Close raced the dial. The fresh socket must never surface: close
		// it and keep the clean terminal state.
		s.mu.Unlock()
		conn.Close()
		return nil
	}
	s.conn = conn
	s.connOnce = &sync.Once{}
	s.closeReq = closeReq
	s.state = StateConnected
	s.mu.Unlock()
	s.signal()

	s.logger.Info().Str("url", s.wsURL).Msg("Chat session connected")

	go s.readPump(conn, events)
	go s.run(conn, events, closeReq)

	return nil
}

// Send transmits user-composed text as a message frame.
// Blank text is dropped without error; sends outside StateConnected are
// rejected with ErrNotConnected.
func (s *Session) Send(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	s.mu.Lock()
	conn := s.conn
	connected := s.state == StateConnected
	s.mu.Unlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	if err := conn.WriteJSON(outboundFrame{Type: TypeMessage, Content: text}); err != nil {
		return errs.Wrap(errs.KindNetwork, err)
	}
	return nil
}

// Close shuts the session down cleanly. Safe to call in any state and more
// than once; the socket is closed exactly once, and the state lands in
// StateClosed (never StateError) when the shutdown is locally initiated.
func (s *Session) Close() {
	s.mu.Lock()
	switch s.state {
	case StateConnected:
		closeReq := s.closeReq
		s.mu.Unlock()
		select {
		case closeReq <- struct{}{}:
		default:
			// A close is already pending.
		}
		return
	case StateClosed, StateError:
		s.mu.Unlock()
		return
	default:
		// Disconnected or Authenticating: nothing on the wire yet.
		s.state = StateClosed
		s.mu.Unlock()
		s.signal()
	}
}

// readPump reads frames off the socket and forwards them as events. It
// always terminates with exactly one terminal event (evPeerClosed or
// evReadFailed), which is what releases the run loop.
func (s *Session) readPump(conn *websocket.Conn, events chan event) {
	for {
		var msg Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				events <- event{kind: evPeerClosed}
			} else {
				events <- event{kind: evReadFailed, err: err}
			}
			return
		}

		if msg.Type != TypeMessage && msg.Type != TypeSystem {
			s.logger.Debug().Str("msg_type", msg.Type).Msg("Ignoring frame with unsupported type")
			continue
		}

		events <- event{kind: evFrame, msg: msg}
	}
}

// run is the single consumer applying state transitions for one connection.
// It exits after the pump's terminal event arrives, guaranteeing nothing is
// left writing to the events channel.
func (s *Session) run(conn *websocket.Conn, events chan event, closeReq chan struct{}) {
	closing := false

	for {
		select {
		case <-closeReq:
			if closing {
				continue
			}
			closing = true
			s.transition(StateClosed, nil)

			s.wmu.Lock()
			deadline := time.Now().Add(closeGracePeriod)
			frame := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := conn.WriteControl(websocket.CloseMessage, frame, deadline); err != nil {
				s.logger.Debug().Err(err).Msg("Failed to write close frame")
			}
			s.wmu.Unlock()

			s.closeConn(conn)

		case ev := <-events:
			switch ev.kind {
			case evFrame:
				if !closing {
					s.appendMessage(ev.msg)
				}

			case evPeerClosed:
				if !closing {
					s.transition(StateClosed, nil)
					s.closeConn(conn)
				}
				return

			case evReadFailed:
				if !closing {
					s.logger.Warn().Err(ev.err).Msg("Chat connection lost")
					s.transition(StateError, errs.Wrap(errs.KindNetwork, ev.err))
				}
				s.closeConn(conn)
				return
			}
		}
	}
}

// closeConn closes the socket exactly once per connection.
func (s *Session) closeConn(conn *websocket.Conn) {
	s.mu.Lock()
	once := s.connOnce
	s.mu.Unlock()

	once.Do(func() {
		if err := conn.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Socket close error")
		}
	})
}

// transition moves the session into a terminal state and nulls out the
// connection reference so no further transition can touch it.
func (s *Session) transition(state State, err error) {
	s.mu.Lock()
	s.state = state
	s.lastErr = err
	s.conn = nil
	s.mu.Unlock()
	s.signal()
}

// fail records a failed connection attempt. A Close that raced the attempt
// wins: the session stays cleanly closed and no error is recorded.
func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateError
	s.lastErr = err
	s.conn = nil
	s.mu.Unlock()
	s.signal()

	s.logger.Warn().Err(err).Msg("Chat session failed to connect")
}

// appendMessage adds an inbound frame to the log unless an existing entry
// shares its (timestamp, senderID) pair.
func (s *Session) appendMessage(msg Message) {
	key := messageKey(msg)

	s.mu.Lock()
	if _, dup := s.seen[key]; dup {
		s.mu.Unlock()
		return
	}
	s.seen[key] = struct{}{}
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	s.signal()
}

// signal delivers a coalesced change notification; it never blocks.
func (s *Session) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Notify returns the change-notification channel. One token is delivered
// after any state or log change; consecutive changes coalesce.
func (s *Session) Notify() <-chan struct{} {
	return s.notify
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the classified error for StateError, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Messages returns a snapshot copy of the message log in arrival order.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]Message, len(s.messages))
	copy(snapshot, s.messages)
	return snapshot
}
