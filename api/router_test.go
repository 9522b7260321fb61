package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/ratewalk/api/handler"
	"github.com/use-agent/ratewalk/cache"
	"github.com/use-agent/ratewalk/config"
	"github.com/use-agent/ratewalk/dataset"
	"github.com/use-agent/ratewalk/extract"
	"github.com/use-agent/ratewalk/models"
	"github.com/use-agent/ratewalk/walker"
)

const testKey = "test-key"

// stubForm offers the same two options on every screen.
type stubForm struct{}

func (stubForm) Start(context.Context, string) error          { return nil }
func (stubForm) Click(context.Context, string, bool) error    { return nil }
func (stubForm) Select(context.Context, string, string) error { return nil }
func (stubForm) Options(context.Context, string) ([]string, error) {
	return []string{"MA000001", "MA000002"}, nil
}

func (stubForm) Rates(context.Context, extract.RateSelectors, string) (*extract.RateTable, error) {
	return &extract.RateTable{HourlyRate: "$25.00"}, nil
}

type stubBrowser struct {
	forms    atomic.Int32
	released atomic.Int32
	err      error
}

func (b *stubBrowser) NewForm(bool) (walker.Form, func(), error) {
	if b.err != nil {
		return nil, nil, b.err
	}
	b.forms.Add(1)
	return stubForm{}, func() { b.released.Add(1) }, nil
}

func (b *stubBrowser) Stats() models.PoolStats {
	return models.PoolStats{MaxPages: 4, ActivePages: int(b.forms.Load() - b.released.Load())}
}

type testServer struct {
	router  http.Handler
	browser *stubBrowser
	out     *dataset.Memory
}

func newTestServer(t *testing.T, mutate func(cfg *config.Config)) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := config.Load()
	cfg.Server.Mode = "test"
	cfg.Auth.Enabled = true
	cfg.Auth.APIKeys = []string{testKey}
	cfg.RateLimit.RequestsPerSecond = 100
	cfg.RateLimit.Burst = 100
	if mutate != nil {
		mutate(cfg)
	}

	cc := cache.New(10, time.Hour)
	t.Cleanup(cc.Close)

	ts := &testServer{browser: &stubBrowser{}, out: dataset.NewMemory()}
	ts.router = NewRouter(ctx, cfg, Deps{
		Browser: ts.browser,
		Walker:  walker.New(config.WalkerConfig{}),
		Cache:   cc,
		Jobs:    handler.NewJobStore(ctx),
		Out:     ts.out,
	}, time.Now())
	return ts
}

func (ts *testServer) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("X-API-Key", testKey)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// waitWalk polls the job until it leaves the processing state.
func (ts *testServer) waitWalk(t *testing.T, id string) models.WalkStatusResponse {
	t.Helper()
	var status models.WalkStatusResponse
	require.Eventually(t, func() bool {
		rec := ts.do(http.MethodGet, "/api/v1/walks/"+id, "", true)
		if rec.Code != http.StatusOK {
			return false
		}
		var s models.WalkStatusResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
			return false
		}
		status = s
		return s.Status != models.StatusProcessing
	}, 5*time.Second, 10*time.Millisecond)
	return status
}

func TestHealth_NoAuth(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/v1/health", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[models.HealthResponse](t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, handler.Version, resp.Version)
	assert.Equal(t, 4, resp.PoolStats.MaxPages)
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/v1/awards", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), models.ErrCodeUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/awards", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid API key")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/awards", nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	rec = httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAwards_Cached(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/v1/awards", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[models.AwardsResponse](t, rec)
	assert.True(t, first.Success)
	assert.Equal(t, []string{"MA000001", "MA000002"}, first.Awards)
	assert.Equal(t, "miss", first.CacheStatus)

	rec = ts.do(http.MethodGet, "/api/v1/awards", "", true)
	second := decode[models.AwardsResponse](t, rec)
	assert.Equal(t, "hit", second.CacheStatus)
	assert.EqualValues(t, 1, ts.browser.forms.Load(), "a cache hit must not touch the browser")
	assert.EqualValues(t, 1, ts.browser.released.Load())

	ts.do(http.MethodGet, "/api/v1/awards?refresh=true", "", true)
	assert.EqualValues(t, 2, ts.browser.forms.Load())
}

func TestAwards_BrowserFailure(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.browser.err = models.NewWalkError(models.ErrCodeBrowserCrash, "pool closed", nil)

	rec := ts.do(http.MethodGet, "/api/v1/awards", "", true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), models.ErrCodeBrowserCrash)
}

func TestWalks_Lifecycle(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodPost, "/api/v1/walks", `{"award":"MA000004"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	started := decode[models.WalkResponse](t, rec)
	require.NotEmpty(t, started.ID)
	assert.Equal(t, models.StatusProcessing, started.Status)

	status := ts.waitWalk(t, started.ID)
	assert.Equal(t, models.StatusCompleted, status.Status)
	assert.Equal(t, "MA000004", status.Award)
	assert.Equal(t, 4, status.Completed)
	require.Len(t, status.Entries, 4)
	assert.Equal(t, "$25.00", status.Entries[0].HourlyRate)
	assert.Equal(t, 4, ts.out.Len(), "entries are mirrored to the configured sink")

	rec = ts.do(http.MethodGet, "/api/v1/walks/"+started.ID+"?entries=false", "", true)
	assert.Empty(t, decode[models.WalkStatusResponse](t, rec).Entries)
}

func TestWalks_MaxCombinations(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodPost, "/api/v1/walks", `{"award":"MA000004","max_combinations":1}`, true)
	started := decode[models.WalkResponse](t, rec)

	status := ts.waitWalk(t, started.ID)
	assert.Equal(t, models.StatusCompleted, status.Status)
	assert.Equal(t, 1, status.Completed)
}

func TestWalks_Failed(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.browser.err = models.NewWalkError(models.ErrCodeBrowserCrash, "pool closed", nil)

	rec := ts.do(http.MethodPost, "/api/v1/walks", `{"award":"MA000004"}`, true)
	started := decode[models.WalkResponse](t, rec)

	status := ts.waitWalk(t, started.ID)
	assert.Equal(t, models.StatusFailed, status.Status)
	require.NotNil(t, status.Error)
	assert.Equal(t, models.ErrCodeBrowserCrash, status.Error.Code)
}

// blockingForm holds the first capture until the walk is canceled.
type blockingForm struct {
	stubForm
	entered chan struct{}
	once    sync.Once
}

func (f *blockingForm) Rates(ctx context.Context, _ extract.RateSelectors, _ string) (*extract.RateTable, error) {
	f.once.Do(func() { close(f.entered) })
	<-ctx.Done()
	return &extract.RateTable{HourlyRate: "$25.00"}, nil
}

type blockingBrowser struct {
	form     *blockingForm
	released atomic.Bool
}

func (b *blockingBrowser) NewForm(bool) (walker.Form, func(), error) {
	return b.form, func() {
		time.Sleep(20 * time.Millisecond)
		b.released.Store(true)
	}, nil
}

func (b *blockingBrowser) Stats() models.PoolStats { return models.PoolStats{MaxPages: 1} }

// slowSink takes a while to persist each entry.
type slowSink struct {
	written atomic.Int32
}

func (s *slowSink) Write(context.Context, *models.Entry) error {
	time.Sleep(20 * time.Millisecond)
	s.written.Add(1)
	return nil
}

func (s *slowSink) Close() error { return nil }

func TestWalks_WaitOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	cfg.Server.Mode = "test"
	cfg.Auth.Enabled = false

	cc := cache.New(10, time.Hour)
	defer cc.Close()

	browser := &blockingBrowser{form: &blockingForm{entered: make(chan struct{})}}
	out := &slowSink{}
	jobs := handler.NewJobStore(ctx)
	router := NewRouter(ctx, cfg, Deps{
		Browser: browser,
		Walker:  walker.New(config.WalkerConfig{}),
		Cache:   cc,
		Jobs:    jobs,
		Out:     out,
	}, time.Now())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/walks", strings.NewReader(`{"award":"MA000004"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	started := decode[models.WalkResponse](t, rec)

	select {
	case <-browser.form.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("walk never reached the results screen")
	}
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, jobs.Wait(waitCtx))

	assert.EqualValues(t, 1, out.written.Load(), "entry in flight at shutdown is persisted")
	assert.True(t, browser.released.Load(), "page released before Wait returns")
	assert.Zero(t, jobs.Active())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/walks/"+started.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	status := decode[models.WalkStatusResponse](t, rec)
	assert.Equal(t, models.StatusPartial, status.Status)
	require.NotNil(t, status.Error)
	assert.Equal(t, models.ErrCodeCanceled, status.Error.Code)
}

func TestWalks_BadRequest(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodPost, "/api/v1/walks", `{}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), models.ErrCodeInvalidInput)

	rec = ts.do(http.MethodPost, "/api/v1/walks", `{"award":"MA000004","webhook_url":"not a url"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWalks_NotFound(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/v1/walks/walk-missing", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), models.ErrCodeNotFound)
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.RequestsPerSecond = 0.001
		cfg.RateLimit.Burst = 1
	})

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/v1/awards", "", true).Code)

	rec := ts.do(http.MethodGet, "/api/v1/awards", "", true)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), models.ErrCodeRateLimited)

	// Health is outside the limited group.
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/v1/health", "", false).Code)
}
