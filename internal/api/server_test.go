package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/dynasty-gen/internal/config"
	"github.com/talgya/dynasty-gen/internal/demography"
	"github.com/talgya/dynasty-gen/internal/engine"
	"github.com/talgya/dynasty-gen/internal/entropy"
	"github.com/talgya/dynasty-gen/internal/persistence"
)

const testKey = "s3cret"

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	base := config.Default()
	cfg, err := base.Engine()
	require.NoError(t, err)
	d, err := engine.Run(cfg, entropy.New(base.Seed))
	require.NoError(t, err)
	id, err := db.SaveRun(d, base.Seed)
	require.NoError(t, err)

	return &Server{DB: db, AdminKey: testKey, Base: base, GenerateLimit: 2}, id
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRunEndpoints(t *testing.T) {
	s, id := newTestServer(t)
	h := s.Handler()

	rec := get(t, h, "/api/v1/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []struct {
		ID      string `json:"id"`
		Dynasty string `json:"dynasty"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, "Voss", runs[0].Dynasty)

	rec = get(t, h, "/api/v1/runs/"+id)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Seed  int64        `json:"seed"`
		Stats engine.Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, int64(1), detail.Seed)
	assert.GreaterOrEqual(t, detail.Stats.TotalGenerations, 1)

	rec = get(t, h, "/api/v1/runs/"+id+"/generations/0")
	require.Equal(t, http.StatusOK, rec.Code)
	var founders []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &founders))
	assert.Len(t, founders, 1)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/runs/"+id+"/generations/9999").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/runs/"+id+"/generations/x").Code)

	rec = get(t, h, "/api/v1/runs/"+id+"/people/1")
	require.Equal(t, http.StatusOK, rec.Code)
	var person struct {
		Person struct {
			ID      int    `json:"id"`
			Dynasty string `json:"dynasty"`
		} `json:"person"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &person))
	assert.Equal(t, 1, person.Person.ID)
	assert.Equal(t, "Voss", person.Person.Dynasty)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/runs/"+id+"/people/0").Code)
}

func TestEventsFilter(t *testing.T) {
	s, id := newTestServer(t)
	rec := get(t, s.Handler(), "/api/v1/runs/"+id+"/events?category=birth&limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var events []engine.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.NotEmpty(t, events)
	assert.LessOrEqual(t, len(events), 2)
	for _, e := range events {
		assert.Equal(t, engine.CategoryBirth, e.Category)
	}
}

func TestExports(t *testing.T) {
	s, id := newTestServer(t)
	h := s.Handler()

	rec := get(t, h, "/api/v1/runs/"+id+"/gedcom")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "0 HEAD\n"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), id+".ged")

	rec = get(t, h, "/api/v1/runs/"+id+"/ck3?religion=norse_pagan&culture=german")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "voss_character_1 = {")
	assert.Contains(t, rec.Body.String(), "religion = norse_pagan")
	assert.Contains(t, rec.Body.String(), "culture = german")
}

func TestMissingRun(t *testing.T) {
	s, _ := newTestServer(t)
	for _, path := range []string{
		"/api/v1/runs/nope",
		"/api/v1/runs/nope/events",
		"/api/v1/runs/nope/gedcom",
	} {
		assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), path).Code, path)
	}
}

func post(h http.Handler, body, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGenerate(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	assert.Equal(t, http.StatusUnauthorized, post(h, `{}`, "").Code)
	assert.Equal(t, http.StatusUnauthorized, post(h, `{}`, "wrong").Code)

	rec := post(h, `{"seed": 7, "founder": {"dynasty": "Harlow"}, "output": {"gedcom": "/tmp/x.ged"}}`, testKey)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID   string `json:"id"`
		Seed int64  `json:"seed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(7), created.Seed)
	assert.Equal(t, "/api/v1/runs/"+created.ID, rec.Header().Get("Location"))

	run, err := s.DB.LoadRun(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harlow", run.Dynasty.Name())
	assert.NoFileExists(t, "/tmp/x.ged")

	assert.Equal(t, http.StatusBadRequest, post(h, `{"dates": {"end": "bogus"}}`, testKey).Code)
	assert.Equal(t, http.StatusTooManyRequests, post(h, `{}`, testKey).Code)

	metrics := get(t, h, "/metrics").Body.String()
	assert.Contains(t, metrics, "dynastygen_generated_runs_total 1\n")
	assert.Contains(t, metrics, `dynastygen_http_requests_total{code="201",method="post",route="POST /api/v1/generate"} 1`)
	assert.Contains(t, metrics, `dynastygen_http_requests_total{code="401",method="post",route="POST /api/v1/generate"} 2`)
	assert.Contains(t, metrics, "dynastygen_generate_duration_seconds_count 1\n")
}

func TestGenerateLeavesBaseUntouched(t *testing.T) {
	s, _ := newTestServer(t)
	s.Base.Fertility = &demography.FertilityProfile{Children: demography.Distribution{2: 1}}
	s.GenerateLimit = 10
	h := s.Handler()

	for seed := 1; seed <= 2; seed++ {
		body := fmt.Sprintf(`{"seed": %d, "fertility": {"children": {"9": 5}}}`, seed)
		rec := post(h, body, testKey)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		run, err := s.DB.LoadRun(created.ID)
		require.NoError(t, err)
		assert.Equal(t, demography.Distribution{9: 5}, run.Dynasty.Config.Fertility.Children)
	}
	assert.Equal(t, demography.Distribution{2: 1}, s.Base.Fertility.Children)

	rec := post(h, `{"seed": 3}`, testKey)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, demography.Distribution{2: 1}, s.Base.Fertility.Children)
}

func TestGenerateDisabledWithoutKey(t *testing.T) {
	s, _ := newTestServer(t)
	s.AdminKey = ""
	assert.Equal(t, http.StatusForbidden, post(s.Handler(), `{}`, "").Code)
}

func TestCheckBearerToken(t *testing.T) {
	s := &Server{AdminKey: testKey}
	tests := []struct {
		header string
		want   bool
	}{
		{"Bearer " + testKey, true},
		{"Bearer " + testKey + "x", false},
		{"Bearer s3cre", false},
		{testKey, false},
		{"Basic " + testKey, false},
		{"", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/generate", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, s.checkBearerToken(r), tt.header)
	}
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/runs", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.Equal(t, 61, rl.RetryAfter("a"))
	assert.Equal(t, 0, rl.RetryAfter("c"))

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("a"))

	now = now.Add(5 * time.Minute)
	rl.Allow("c")
	assert.NotContains(t, rl.buckets, "b")
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientIP(r))
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(r))
}
