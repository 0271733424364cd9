package api

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

	"github.com/RishiKendai/winnow/internal/config"
	"github.com/RishiKendai/winnow/internal/models"
	"github.com/RishiKendai/winnow/internal/plagiarism"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type memoryTracker struct {
	mu    sync.Mutex
	steps map[string]models.Step
}

func newMemoryTracker() *memoryTracker {
	return &memoryTracker{steps: make(map[string]models.Step)}
}

func (m *memoryTracker) Update(_ context.Context, runID string, step models.Step) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps[runID] = step
	return nil
}

func (m *memoryTracker) Get(_ context.Context, runID string) (models.Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	step, ok := m.steps[runID]
	if !ok {
		return models.StepIdle, plagiarism.ErrUnknownRun
	}
	return step, nil
}

func testConfig() *config.Config {
	return &config.Config{
		KGrams:               10,
		WindowSize:           5,
		StatusTTL:            time.Hour,
		JWTSecret:            testSecret,
		RateLimitRPS:         100,
		MaxConcurrentCompute: 2,
		ComputationTimeout:   10 * time.Second,
		MaxDocuments:         3,
		MaxRequestBytes:      1 << 20,
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, tracker plagiarism.StatusTracker) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, cfg.ValidateServer())
	return SetupRoutes(cfg, nil, nil, tracker)
}

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

var sampleCode = strings.Join([]string{
	"alpha = compute(beta, gamma)",
	"delta = transform(alpha, 42)",
	"epsilon = reduce(delta, zeta)",
	"print(epsilon + omega)",
}, "\n")

func TestHealth(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)

	rec := doRequest(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestJWTAuth(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)
	path := "/api/v1/status/" + uuid.NewString()

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "wrong secret", header: "Bearer " + signToken(t, "other-secret", "client")},
		{name: "garbage token", header: "Bearer not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)
		})
	}
}

func TestCompare_Success(t *testing.T) {
	tracker := newMemoryTracker()
	router := newTestRouter(t, testConfig(), tracker)
	token := signToken(t, testSecret, "client")

	rec := doRequest(t, router, http.MethodPost, "/api/v1/compare", token, models.CompareRequest{
		Documents: []models.DocumentInput{
			{ID: "original", Text: sampleCode},
			{ID: "copy", Text: sampleCode},
			{ID: "other", Text: "completely unrelated prose about winter gardens"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.CompareResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 10, resp.KGrams)
	assert.Equal(t, 5, resp.Window)
	require.Len(t, resp.Documents, 3)
	require.Len(t, resp.Results, 6)
	assert.Greater(t, resp.SharedHash, 0)

	top := resp.Results[0]
	assert.Equal(t, 1.0, top.Score)
	assert.Equal(t, "near copy", top.Risk)
	assert.ElementsMatch(t, []string{"original", "copy"}, []string{top.Suspect, top.Source})
	assert.Equal(t, []int{1, 2, 3, 4}, top.Lines)

	_, err := uuid.Parse(resp.RunID)
	require.NoError(t, err)

	statusRec := doRequest(t, router, http.MethodGet, "/api/v1/status/"+resp.RunID, token, nil)
	require.Equal(t, http.StatusOK, statusRec.Code)

	var status models.StatusResponse
	require.NoError(t, json.Unmarshal(statusRec.Body.Bytes(), &status))
	assert.Equal(t, models.StepCompleted, status.Step)
}

func TestCompare_RequestOverridesAndMinScore(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)
	token := signToken(t, testSecret, "client")

	rec := doRequest(t, router, http.MethodPost, "/api/v1/compare", token, models.CompareRequest{
		Documents: []models.DocumentInput{
			{ID: "a", Text: sampleCode},
			{ID: "b", Text: sampleCode},
			{ID: "c", Text: "completely unrelated prose about winter gardens"},
		},
		KGrams:   8,
		Window:   3,
		Preset:   "python",
		MinScore: 0.5,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.CompareResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 8, resp.KGrams)
	assert.Equal(t, 3, resp.Window)
	require.Len(t, resp.Results, 2)
	for _, r := range resp.Results {
		assert.GreaterOrEqual(t, r.Score, 0.5)
	}
}

func TestCompare_Errors(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)
	token := signToken(t, testSecret, "client")

	tests := []struct {
		name     string
		body     models.CompareRequest
		wantCode string
	}{
		{
			name:     "single document",
			body:     models.CompareRequest{Documents: []models.DocumentInput{{ID: "a", Text: "x"}}},
			wantCode: "INVALID_REQUEST",
		},
		{
			name: "too many documents",
			body: models.CompareRequest{Documents: []models.DocumentInput{
				{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"},
			}},
			wantCode: "INVALID_REQUEST",
		},
		{
			name:     "duplicate ids",
			body:     models.CompareRequest{Documents: []models.DocumentInput{{ID: "a", Text: "x"}, {ID: "a", Text: "y"}}},
			wantCode: "INVALID_CONFIG",
		},
		{
			name: "unknown preset",
			body: models.CompareRequest{
				Documents: []models.DocumentInput{{ID: "a"}, {ID: "b"}},
				Preset:    "cobol",
			},
			wantCode: "INVALID_CONFIG",
		},
		{
			name: "strict with short document",
			body: models.CompareRequest{
				Documents: []models.DocumentInput{{ID: "a", Text: sampleCode}, {ID: "b", Text: "x"}},
				Strict:    true,
			},
			wantCode: "INVALID_CONFIG",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/api/v1/compare", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestCompare_BodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRequestBytes = 64
	router := newTestRouter(t, cfg, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/compare", signToken(t, testSecret, "client"), models.CompareRequest{
		Documents: []models.DocumentInput{{ID: "a", Text: sampleCode}, {ID: "b", Text: sampleCode}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeError(t, rec).Code)
}

func TestStatus(t *testing.T) {
	tracker := newMemoryTracker()
	router := newTestRouter(t, testConfig(), tracker)
	token := signToken(t, testSecret, "client")

	rec := doRequest(t, router, http.MethodGet, "/api/v1/status/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/status/"+uuid.NewString(), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)

	runID := uuid.NewString()
	require.NoError(t, tracker.Update(context.Background(), runID, models.StepScoring))
	rec = doRequest(t, router, http.MethodGet, "/api/v1/status/"+runID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"runId":"`+runID+`","step":"scoring"}`, rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	router := newTestRouter(t, cfg, nil)
	path := "/api/v1/status/" + uuid.NewString()

	limited := signToken(t, testSecret, "limited")
	first := doRequest(t, router, http.MethodGet, path, limited, nil)
	assert.Equal(t, http.StatusNotFound, first.Code)

	second := doRequest(t, router, http.MethodGet, path, limited, nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", decodeError(t, second).Code)

	// limits are per subject
	other := doRequest(t, router, http.MethodGet, path, signToken(t, testSecret, "other"), nil)
	assert.Equal(t, http.StatusNotFound, other.Code)
}

func TestRateLimiter_ReusesLimiterPerKey(t *testing.T) {
	rl := NewRateLimiter(1, 0)
	assert.Same(t, rl.GetLimiter("a"), rl.GetLimiter("a"))
	assert.NotSame(t, rl.GetLimiter("a"), rl.GetLimiter("b"))
	assert.Equal(t, 1, rl.GetLimiter("a").Burst())
}

// pausingTracker holds the run at the scoring step until released
type pausingTracker struct {
	*memoryTracker
	reached chan struct{}
	release chan struct{}
}

func (p *pausingTracker) Update(ctx context.Context, runID string, step models.Step) error {
	if err := p.memoryTracker.Update(ctx, runID, step); err != nil {
		return err
	}
	if step == models.StepScoring {
		close(p.reached)
		<-p.release
	}
	return nil
}

func TestCompare_RunIDHeader(t *testing.T) {
	router := newTestRouter(t, testConfig(), newMemoryTracker())
	token := signToken(t, testSecret, "client")

	rec := doRequest(t, router, http.MethodPost, "/api/v1/compare", token, models.CompareRequest{
		Documents: []models.DocumentInput{{ID: "a", Text: sampleCode}, {ID: "b", Text: sampleCode}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.CompareResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, resp.RunID, rec.Header().Get(RunIDHeader))
}

func TestCompare_ClientRunIDReportsFailure(t *testing.T) {
	tracker := newMemoryTracker()
	router := newTestRouter(t, testConfig(), tracker)
	token := signToken(t, testSecret, "client")
	runID := uuid.NewString()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/compare", token, models.CompareRequest{
		RunID:     runID,
		Documents: []models.DocumentInput{{ID: "a", Text: sampleCode}, {ID: "b", Text: "x"}},
		Strict:    true,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, runID, rec.Header().Get(RunIDHeader))

	errResp := decodeError(t, rec)
	assert.Equal(t, "INVALID_CONFIG", errResp.Code)
	assert.Equal(t, runID, errResp.RunID)

	statusRec := doRequest(t, router, http.MethodGet, "/api/v1/status/"+runID, token, nil)
	require.Equal(t, http.StatusOK, statusRec.Code)
	assert.JSONEq(t, `{"runId":"`+runID+`","step":"failed"}`, statusRec.Body.String())
}

func TestCompare_RejectsMalformedRunID(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/compare", signToken(t, testSecret, "client"), models.CompareRequest{
		RunID:     "not-a-uuid",
		Documents: []models.DocumentInput{{ID: "a", Text: sampleCode}, {ID: "b", Text: sampleCode}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeError(t, rec).Code)
}

func TestStatus_DuringRun(t *testing.T) {
	tracker := &pausingTracker{
		memoryTracker: newMemoryTracker(),
		reached:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	router := newTestRouter(t, testConfig(), tracker)
	token := signToken(t, testSecret, "client")
	runID := uuid.NewString()

	body, err := json.Marshal(models.CompareRequest{
		RunID:     runID,
		Documents: []models.DocumentInput{{ID: "a", Text: sampleCode}, {ID: "b", Text: sampleCode}},
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		compareRec := httptest.NewRecorder()
		router.ServeHTTP(compareRec, req)
		done <- compareRec
	}()

	select {
	case <-tracker.reached:
	case <-time.After(5 * time.Second):
		t.Fatal("run never reached the scoring step")
	}

	rec := doRequest(t, router, http.MethodGet, "/api/v1/status/"+runID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"runId":"`+runID+`","step":"scoring"}`, rec.Body.String())

	close(tracker.release)
	compareRec := <-done
	require.Equal(t, http.StatusOK, compareRec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/status/"+runID, token, nil)
	assert.JSONEq(t, `{"runId":"`+runID+`","step":"completed"}`, rec.Body.String())
}
