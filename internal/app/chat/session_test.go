package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yapnet/internal/app/api"
	"yapnet/internal/app/session"
	"yapnet/internal/pkg/errs"
)

const (
	waitFor = 3 * time.Second
	tick    = 5 * time.Millisecond
)

// chatServer is a scripted chat backend: it accepts /Auth, upgrades /chat,
// pushes the scripted frames, then either waits for client frames or closes.
type chatServer struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	// script frames are pushed right after the upgrade.
	script []Message

	// closeAfterScript sends a normal close frame once the script is done.
	closeAfterScript bool

	// received collects frames the client sent.
	received chan map[string]string

	// authGate, when non-nil, holds the /Auth handshake until released.
	authGate chan struct{}

	dials atomic.Int64
}

func newChatServer(t *testing.T, script []Message, closeAfterScript bool) *chatServer {
	t.Helper()

	cs := &chatServer{
		script:           script,
		closeAfterScript: closeAfterScript,
		received:         make(chan map[string]string, 16),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/Auth", func(w http.ResponseWriter, r *http.Request) {
		if cs.authGate != nil {
			<-cs.authGate
		}
		w.Write([]byte(`{"message":"ok","profile_complete":true}`))
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		cs.dials.Add(1)

		token := r.URL.Query().Get("token")
		if !strings.HasPrefix(token, "Bearer ") {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		// Handler goroutine: report failures without require, which must not
		// be used off the test goroutine.
		conn, err := cs.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Error("upgrade failed:", err)
			return
		}
		defer conn.Close()

		for _, m := range cs.script {
			if err := conn.WriteJSON(m); err != nil {
				t.Error("script write failed:", err)
				return
			}
		}

		if cs.closeAfterScript {
			frame := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(time.Second))
			return
		}

		for {
			var in map[string]string
			if err := conn.ReadJSON(&in); err != nil {
				return
			}
			cs.received <- in
		}
	})

	cs.srv = httptest.NewServer(mux)
	t.Cleanup(cs.srv.Close)
	return cs
}

func (cs *chatServer) wsURL() string {
	return "ws" + strings.TrimPrefix(cs.srv.URL, "http") + "/chat"
}

func newTestSession(cs *chatServer, token string) *Session {
	src := session.StaticTokenSource(token)
	rest := api.NewClient(cs.srv.URL, src, 5*time.Second)
	return NewSession(cs.wsURL(), src, rest)
}

func frame(content, sender, ts string) Message {
	return Message{Type: TypeMessage, Content: content, SenderID: sender, Username: "u-" + sender, Timestamp: ts}
}

func TestDuplicateFramesCollapse(t *testing.T) {
	script := []Message{
		frame("hello", "u1", "2025-01-01T10:00:00.000001"),
		frame("hello", "u1", "2025-01-01T10:00:00.000001"), // duplicate delivery
		frame("hello again", "u1", "2025-01-01T10:00:00.000002"),
		{Type: TypeSystem, Content: "u2 joined", SenderID: "system", Timestamp: "2025-01-01T10:00:00.000003"},
	}
	cs := newChatServer(t, script, false)
	s := newTestSession(cs, "tok")

	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(s.Close)

	require.Eventually(t, func() bool { return len(s.Messages()) == 3 }, waitFor, tick)

	// Settle, then confirm the duplicate never lands.
	time.Sleep(50 * time.Millisecond)
	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "hello again", msgs[1].Content)
	assert.Equal(t, TypeSystem, msgs[2].Type)
}

func TestPeerCloseLandsInStateClosed(t *testing.T) {
	cs := newChatServer(t, []Message{frame("bye", "u1", "2025-01-01T10:00:00.000001")}, true)
	s := newTestSession(cs, "tok")

	require.NoError(t, s.Connect(context.Background()))

	require.Eventually(t, func() bool { return s.State() == StateClosed }, waitFor, tick)
	assert.NoError(t, s.Err(), "a clean close carries no error")
	assert.Len(t, s.Messages(), 1, "frames before the close are kept")
}

func TestLocalCloseIsClean(t *testing.T) {
	cs := newChatServer(t, nil, false)
	s := newTestSession(cs, "tok")

	require.NoError(t, s.Connect(context.Background()))
	require.Equal(t, StateConnected, s.State())

	s.Close()
	require.Eventually(t, func() bool { return s.State() == StateClosed }, waitFor, tick)
	assert.NoError(t, s.Err())

	// Idempotent.
	s.Close()
	assert.Equal(t, StateClosed, s.State())
}

func TestMissingTokenFailsWithoutDialing(t *testing.T) {
	cs := newChatServer(t, nil, false)
	s := newTestSession(cs, "")

	err := s.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, errs.KindUnauthorized, errs.KindOf(err))
	assert.Equal(t, StateError, s.State())
	assert.Zero(t, cs.dials.Load(), "no network activity without a token")
}

func TestSendBeforeConnect(t *testing.T) {
	cs := newChatServer(t, nil, false)
	s := newTestSession(cs, "tok")

	assert.ErrorIs(t, s.Send("hello"), ErrNotConnected)
	assert.NoError(t, s.Send("   "), "blank input is dropped silently")
}

func TestSendDeliversFrame(t *testing.T) {
	cs := newChatServer(t, nil, false)
	s := newTestSession(cs, "tok")

	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(s.Close)

	require.NoError(t, s.Send("morning all"))

	select {
	case got := <-cs.received:
		assert.Equal(t, TypeMessage, got["type"])
		assert.Equal(t, "morning all", got["content"])
	case <-time.After(waitFor):
		t.Fatal("server never received the frame")
	}
}

func TestConnectWhileConnected(t *testing.T) {
	cs := newChatServer(t, nil, false)
	s := newTestSession(cs, "tok")

	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(s.Close)

	assert.ErrorIs(t, s.Connect(context.Background()), ErrAlreadyConnected)
}

func TestCloseDuringConnectWins(t *testing.T) {
	cs := newChatServer(t, nil, false)
	cs.authGate = make(chan struct{})
	s := newTestSession(cs, "tok")

	done := make(chan error, 1)
	go func() { done <- s.Connect(context.Background()) }()

	require.Eventually(t, func() bool { return s.State() == StateAuthenticating }, waitFor, tick)

	// Teardown while the handshake is still in flight.
	s.Close()
	require.Equal(t, StateClosed, s.State())

	// Release the handshake; the late connect attempt must not resurface.
	close(cs.authGate)
	require.NoError(t, <-done)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, StateClosed, s.State())
	assert.NoError(t, s.Err())
	assert.ErrorIs(t, s.Send("hello"), ErrNotConnected)
	assert.Zero(t, cs.dials.Load(), "abandoned attempt must not upgrade a socket")
}

func TestReconnectAfterCloseKeepsLog(t *testing.T) {
	script := []Message{frame("first", "u1", "2025-01-01T10:00:00.000001")}
	cs := newChatServer(t, script, true)
	s := newTestSession(cs, "tok")

	require.NoError(t, s.Connect(context.Background()))
	require.Eventually(t, func() bool { return s.State() == StateClosed }, waitFor, tick)

	// Reconnect; the server replays the same frame and the log stays deduped.
	require.NoError(t, s.Connect(context.Background()))
	require.Eventually(t, func() bool { return s.State() == StateClosed }, waitFor, tick)

	assert.Len(t, s.Messages(), 1)
	assert.EqualValues(t, 2, cs.dials.Load())
}
