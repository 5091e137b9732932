package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"terrarium_control/internal/models"
	"terrarium_control/internal/service"
)

func TestLogsHandler_ListAndValidation(t *testing.T) {
	auth := &mockAuth{parseID: 99}
	now := time.Now().UTC().Truncate(time.Second)
	events := []models.Event{
		{EventID: "e1", OccurredAt: now, Type: models.EventStartup, Severity: models.SeverityInfo, Description: "start"},
		{EventID: "e2", OccurredAt: now.Add(1 * time.Second), Type: models.EventModeChange, Severity: models.SeverityInfo, Description: "mode"},
	}
	logs := &mockEventLog{resp: events}
	s := &service.Service{
		Authorization: auth,
		EventLog:      logs,
	}
	r := newTestRouter(s)

	// Missing/invalid 'from' → 400
	w := doAuthed(r, http.MethodGet, "/api/v1/logs/?from=notatime", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}

	// from after to → 400
	w = doAuthed(r, http.MethodGet, "/api/v1/logs/?from=2026-08-02&to=2026-08-01", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reversed range, got %d", w.Code)
	}

	// Valid range and type (lowercase type should be normalized to upper in service call)
	q := "/api/v1/logs/?from=" + now.Format(time.RFC3339) + "&to=" + now.Add(2*time.Second).Format(time.RFC3339) + "&type=mode_change"
	w = doAuthed(r, http.MethodGet, q, "")
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int            `json:"count"`
		Events []models.Event `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastType != models.EventModeChange {
		t.Fatalf("expected lastType MODE_CHANGE, got %q", logs.lastType)
	}
}

func TestLogsHandler_DateOnlyToCoversWholeDay(t *testing.T) {
	logs := &mockEventLog{}
	s := authedService()
	s.EventLog = logs
	r := newTestRouter(s)

	w := doAuthed(r, http.MethodGet, "/api/v1/logs/?from=2026-08-01&to=2026-08-01", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	wantTo := time.Date(2026, 8, 1, 23, 59, 59, 999999999, time.UTC)
	if !logs.lastTo.Equal(wantTo) {
		t.Fatalf("to: got %v, want %v", logs.lastTo, wantTo)
	}
	if !logs.lastFrom.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from: got %v", logs.lastFrom)
	}
}

func TestParseQueryTime(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2026-08-27T15:04:05Z", time.Date(2026, 8, 27, 15, 4, 5, 0, time.UTC), false},
		{"2026-08-27T17:04:05+02:00", time.Date(2026, 8, 27, 15, 4, 5, 0, time.UTC), false},
		{"2026-08-27 15:04:05", time.Date(2026, 8, 27, 15, 4, 5, 0, time.UTC), false},
		{"2026-08-27", time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), false},
		{"27/08/2026", time.Time{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseQueryTime(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err=%v, wantErr=%v", err, tc.wantErr)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}
