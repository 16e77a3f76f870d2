package logic

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"moodtrack-backend/internal/ai"
	"moodtrack-backend/internal/auth"
	"moodtrack-backend/internal/db"
	"moodtrack-backend/internal/events"
	"moodtrack-backend/internal/kv"
	"moodtrack-backend/internal/mood"
	"moodtrack-backend/internal/onboarding"
	"moodtrack-backend/internal/subscription"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []PushMessage
	tickets func(msgs []PushMessage) []PushTicket
	err     error
}

func (f *fakeSender) Send(ctx context.Context, msgs []PushMessage) ([]PushTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, msgs...)
	if f.tickets != nil {
		return f.tickets(msgs), nil
	}
	out := make([]PushTicket, len(msgs))
	for i := range out {
		out[i].Status = "ok"
	}
	return out, nil
}

const testAdminToken = "ops-secret-token"

type testEnv struct {
	t      *testing.T
	router *gin.Engine
	svc    Services
	sender *fakeSender
}

// 设置测试环境
func setupTestRouter(t *testing.T, tweak ...func(*Services)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.Open(db.DriverSQLite, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })

	store := db.NewStore(conn)
	cache := kv.NewMemoryStore()
	hub := events.NewHub()
	prefs := onboarding.NewService(cache)
	sender := &fakeSender{}

	svc := Services{
		Store:      store,
		Auth:       auth.NewService(store, cache, "router-test-secret-42", time.Hour),
		Moods:      mood.NewService(store),
		Gate:       subscription.NewGate(store, cache, time.Hour),
		Onboarding: prefs,
		Prompter:   ai.NewPrompter(nil),
		Hub:        hub,
		Reminder:   NewReminder(store, prefs, sender, hub),
		AdminToken: testAdminToken,
	}
	for _, fn := range tweak {
		fn(&svc)
	}
	return &testEnv{t: t, router: SetupRouter(svc), svc: svc, sender: sender}
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(e.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// doAdmin calls an operator endpoint with the given X-Admin-Token, omitted when empty.
func (e *testEnv) doAdmin(method, path, adminToken string) *httptest.ResponseRecorder {
	e.t.Helper()
	req, err := http.NewRequest(method, path, nil)
	require.NoError(e.t, err)
	if adminToken != "" {
		req.Header.Set("X-Admin-Token", adminToken)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// signUp registers email and returns its bearer token.
func (e *testEnv) signUp(email string) string {
	e.t.Helper()
	w := e.do("POST", "/api/auth/signup", "", gin.H{"email": email, "password": "long enough"})
	require.Equal(e.t, 200, w.Code, w.Body.String())
	var resp struct {
		Session auth.Session `json:"session"`
	}
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Session.Token
}
