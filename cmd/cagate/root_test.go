package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type request struct {
	Method string         `json:"method"`
	Params map[string]int `json:"params"`
	ID     int64          `json:"id"`
}

// fakeMachine accepts control channel connections and records requests.
type fakeMachine struct {
	srv *httptest.Server

	mu   sync.Mutex
	reqs []request
}

func newFakeMachine(t *testing.T) *fakeMachine {
	t.Helper()
	m := &fakeMachine{}
	upgrader := websocket.Upgrader{}
	m.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req request
			if json.Unmarshal(data, &req) == nil {
				m.mu.Lock()
				m.reqs = append(m.reqs, req)
				m.mu.Unlock()
			}
		}
	}))
	t.Cleanup(m.srv.Close)

	t.Setenv("HOME", t.TempDir())
	t.Setenv("CAGATE_CONTROL_URL", "ws"+strings.TrimPrefix(m.srv.URL, "http"))
	return m
}

func (m *fakeMachine) wait(t *testing.T, n int) []request {
	t.Helper()
	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.reqs) >= n
	}, 2*time.Second, 5*time.Millisecond)
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]request(nil), m.reqs...)
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStatus_ReportsOpen(t *testing.T) {
	newFakeMachine(t)

	out, err := run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, ": open")
}

func TestStatus_Unreachable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CAGATE_CONTROL_URL", "ws://127.0.0.1:1/j-rpc/play")
	t.Setenv("CAGATE_CONTROL_HANDSHAKE_TIMEOUT", "500ms")

	out, err := run(t, "", "status")
	assert.Error(t, err)
	assert.Contains(t, out, "unreachable")
}

func TestStart_ClicksKey(t *testing.T) {
	m := newFakeMachine(t)
	t.Setenv("CAGATE_BUTTON_HOLD", "5ms")

	_, err := run(t, "", "start", "--key", "3")
	require.NoError(t, err)

	reqs := m.wait(t, 2)
	assert.Equal(t, "setbutton", reqs[0].Method)
	assert.Equal(t, map[string]int{"key": 3, "state": 1}, reqs[0].Params)
	assert.Equal(t, map[string]int{"key": 3, "state": 0}, reqs[1].Params)
}

func TestDrive_ReplaysGestures(t *testing.T) {
	m := newFakeMachine(t)

	script := "down 1 0 0\nmove 1 50 50\nup 1 100 100\n"
	_, err := run(t, script, "drive", "--width", "100", "--height", "100", "--step", "25ms")
	require.NoError(t, err)

	reqs := m.wait(t, 3)
	require.Len(t, reqs, 3)
	assert.Equal(t, "settouch", reqs[0].Method)
	assert.Equal(t, map[string]int{"x": 0, "y": 0, "state": 1}, reqs[0].Params)
	assert.Equal(t, map[string]int{"x": 5000, "y": 5000, "state": 1}, reqs[1].Params)
	assert.Equal(t, map[string]int{"x": 10000, "y": 10000, "state": 0}, reqs[2].Params)
}

func TestDrive_RejectsBadSurface(t *testing.T) {
	newFakeMachine(t)

	_, err := run(t, "", "drive", "--width", "0", "--height", "10")
	assert.Error(t, err)
}

func TestDrive_ReportsParseErrorLine(t *testing.T) {
	newFakeMachine(t)

	_, err := run(t, "down 1 0 0\njump\n", "drive", "--width", "10", "--height", "10", "--step", "1ms")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
