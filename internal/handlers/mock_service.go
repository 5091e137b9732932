package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"terrarium_control/internal/control"
	"terrarium_control/internal/models"
	"terrarium_control/internal/service"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockControl struct {
	status   control.Status
	statusFn func() control.Status

	powerErr   error
	colorErr   error
	naturalErr error
	resetErr   error

	lastPower      *bool
	lastColor      *models.RGBWW
	lastUseNatural *bool
	lastWeight     float64
	resetCalls     int
}

func (m *mockControl) Status() control.Status {
	if m.statusFn != nil {
		return m.statusFn()
	}
	return m.status
}
func (m *mockControl) SetPower(on bool) error {
	m.lastPower = &on
	return m.powerErr
}
func (m *mockControl) SetColor(c models.RGBWW) error {
	m.lastColor = &c
	return m.colorErr
}
func (m *mockControl) SetNatural(useNatural bool, w float64) error {
	m.lastUseNatural = &useNatural
	m.lastWeight = w
	return m.naturalErr
}
func (m *mockControl) ResetOverheat(ctx context.Context) error {
	m.resetCalls++
	return m.resetErr
}

type mockSchedule struct {
	weeks     map[int]models.WeekSchedule
	updateErr error
	export    []byte
	exportCT  string
	exportErr error

	lastUpdated []models.WeekSchedule
	lastFormat  string
}

func (m *mockSchedule) Week(week int) (models.WeekSchedule, error) {
	ws, ok := m.weeks[week]
	if !ok {
		return models.WeekSchedule{}, models.ErrNotFound
	}
	return ws, nil
}
func (m *mockSchedule) Weeks() []models.WeekSchedule {
	out := make([]models.WeekSchedule, 0, len(m.weeks))
	for w := models.FirstWeek; w <= models.LastWeek; w++ {
		if ws, ok := m.weeks[w]; ok {
			out = append(out, ws)
		}
	}
	return out
}
func (m *mockSchedule) UpdateWeek(ctx context.Context, week int, s models.WeekSchedule) (models.WeekSchedule, error) {
	if m.updateErr != nil {
		return models.WeekSchedule{}, m.updateErr
	}
	s.Week = week
	m.lastUpdated = []models.WeekSchedule{s}
	return s, nil
}
func (m *mockSchedule) UpdateWeeks(ctx context.Context, weeks []models.WeekSchedule) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.lastUpdated = weeks
	return nil
}
func (m *mockSchedule) Export(format string) ([]byte, string, error) {
	m.lastFormat = format
	return m.export, m.exportCT, m.exportErr
}

type mockPresets struct {
	p       models.Presets
	setErr  error
	lastSet *models.Presets
}

func (m *mockPresets) GetPresets() models.Presets { return m.p }
func (m *mockPresets) SetPresets(ctx context.Context, p models.Presets) (models.Presets, error) {
	if m.setErr != nil {
		return models.Presets{}, m.setErr
	}
	m.lastSet = &p
	m.p = p
	return p, nil
}

type mockEventLog struct {
	resp     []models.Event
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
	recorded []models.Event
}

func (m *mockEventLog) Record(ctx context.Context, ev models.Event) error {
	m.recorded = append(m.recorded, ev)
	return nil
}
func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.Event, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

type mockHistory struct {
	points []models.HistoryPoint
	err    error
	last   service.HistoryFilter
}

func (m *mockHistory) Samples(ctx context.Context, f service.HistoryFilter) ([]models.HistoryPoint, error) {
	m.last = f
	return m.points, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

// authedService returns a service whose token check always passes.
func authedService() *service.Service {
	return &service.Service{Authorization: &mockAuth{parseID: 1}}
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

// doAuthed sends an authenticated request; a non-empty body is sent as JSON.
func doAuthed(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}
