package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"terrarium_control/internal/control"
	"terrarium_control/internal/models"
	"terrarium_control/internal/service"
)

// --- parseInterval unit tests ---

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil, nil)

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", 1 * time.Second},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_large", "/ws?interval=20s", 1 * time.Second},
		{"interval_ms_too_large", "/ws?interval_ms=20000", 1 * time.Second},
		{"interval_invalid_string", "/ws?interval=bogus", 1 * time.Second},
		{"interval_ms_invalid", "/ws?interval_ms=NaN", 1 * time.Second},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.u, nil)
			c, _ := gin.CreateTestContext(w)
			c.Request = req
			got := h.parseInterval(c)
			if got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

// --- websocket integration tests ---

type wsTestEnvelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialStatusStream(t *testing.T, ctl *mockControl, intervalMS string) *websocket.Conn {
	t.Helper()
	s := &service.Service{Control: ctl}

	r := gin.New()
	h := NewHandler(s, nil, nil)
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	q := u.Query()
	q.Set("interval_ms", intervalMS)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readStatus(t *testing.T, conn *websocket.Conn, wait time.Duration) (control.Status, error) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	var env wsTestEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		return control.Status{}, err
	}
	if env.Type != "status" || len(env.Data) == 0 {
		t.Fatalf("bad envelope: %+v", env)
	}
	var st control.Status
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	return st, nil
}

func TestWebSocket_StatusStream_InitialAndOnNewTick(t *testing.T) {
	var tick atomic.Uint64
	tick.Store(7)
	ctl := &mockControl{statusFn: func() control.Status {
		return control.Status{
			Tick:   tick.Load(),
			Week:   23,
			LED:    models.LEDState{Power: true, Mode: models.ModeNatural, Output: models.RGBWW{R: 10}},
			Relays: control.RelayStates{UV1: true},
		}
	}}
	conn := dialStatusStream(t, ctl, "20")

	st, err := readStatus(t, conn, time.Second)
	if err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if st.Tick != 7 || st.Week != 23 || !st.Relays.UV1 || st.LED.Output.R != 10 {
		t.Fatalf("unexpected status: %+v", st)
	}

	tick.Store(8)
	st, err = readStatus(t, conn, time.Second)
	if err != nil {
		t.Fatalf("read second: %v", err)
	}
	if st.Tick != 8 {
		t.Fatalf("expected tick 8, got %d", st.Tick)
	}
}

func TestWebSocket_NoPushWithoutNewTick(t *testing.T) {
	ctl := &mockControl{status: control.Status{Tick: 3}}
	conn := dialStatusStream(t, ctl, "10")

	if _, err := readStatus(t, conn, time.Second); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if _, err := readStatus(t, conn, 150*time.Millisecond); err == nil {
		t.Fatalf("expected no message while the tick is unchanged")
	}
}
