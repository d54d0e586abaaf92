package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aman-zulfiqar/raydium-sniper/internal/bot"
	"github.com/aman-zulfiqar/raydium-sniper/internal/metrics"
	"github.com/aman-zulfiqar/raydium-sniper/internal/models"
	"github.com/aman-zulfiqar/raydium-sniper/internal/snipelist"
	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	positions []bot.Position
}

func (f *fakeEngine) Positions() []bot.Position {
	return append([]bot.Position(nil), f.positions...)
}

func (f *fakeEngine) Position(mint solana.PublicKey) (bot.Position, error) {
	for _, p := range f.positions {
		if p.Mint == mint.String() {
			return p, nil
		}
	}
	return bot.Position{}, bot.ErrPositionNotFound
}

type fakeTrades struct {
	recent []*models.TradeEvent
	live   []*models.TradeEvent
	err    error
}

func (f *fakeTrades) AddRecentTrade(context.Context, *models.TradeEvent) error { return nil }
func (f *fakeTrades) PublishTrade(context.Context, *models.TradeEvent) error   { return nil }
func (f *fakeTrades) Ping(context.Context) error                               { return nil }
func (f *fakeTrades) Close() error                                             { return nil }

func (f *fakeTrades) GetRecentTrades(_ context.Context, limit int64) ([]*models.TradeEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	if int64(len(f.recent)) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func (f *fakeTrades) SubscribeTrades(context.Context) (<-chan *models.TradeEvent, error) {
	ch := make(chan *models.TradeEvent, len(f.live))
	for _, t := range f.live {
		ch <- t
	}
	close(ch)
	return ch, nil
}

type fakeSnipeStore struct {
	mu    sync.Mutex
	mints map[string]*snipelist.Entry
}

func (s *fakeSnipeStore) Add(_ context.Context, mint string) (*snipelist.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &snipelist.Entry{Mint: mint, AddedAt: time.Now().UTC()}
	s.mints[mint] = e
	return e, nil
}

func (s *fakeSnipeStore) Remove(_ context.Context, mint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mints[mint]; !ok {
		return snipelist.ErrNotFound
	}
	delete(s.mints, mint)
	return nil
}

func (s *fakeSnipeStore) List(context.Context) ([]*snipelist.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*snipelist.Entry, 0, len(s.mints))
	for _, e := range s.mints {
		out = append(out, e)
	}
	return out, nil
}

type countingRefresher struct{ n int }

func (r *countingRefresher) Refresh(context.Context) error {
	r.n++
	return nil
}

type testServer struct {
	e         *echo.Echo
	engine    *fakeEngine
	trades    *fakeTrades
	snipe     *fakeSnipeStore
	refresher *countingRefresher
}

func newTestServer(t *testing.T, cfg ServerConfig) *testServer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ts := &testServer{
		engine:    &fakeEngine{},
		trades:    &fakeTrades{},
		snipe:     &fakeSnipeStore{mints: map[string]*snipelist.Entry{}},
		refresher: &countingRefresher{},
	}
	h := &Handlers{
		Engine:    ts.engine,
		Trades:    ts.trades,
		SnipeList: ts.snipe,
		Refresher: ts.refresher,
		Logger:    logger,
	}
	srv, err := NewServer(ServerDeps{Handlers: h, Config: cfg})
	require.NoError(t, err)
	ts.e = srv.e
	return ts
}

func (ts *testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func TestNewServer_RequiresEngine(t *testing.T) {
	_, err := NewServer(ServerDeps{Handlers: &Handlers{}})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})
	ts.engine.positions = []bot.Position{{Mint: "a"}}

	rec := ts.do(http.MethodGet, "/v1/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, 1, resp.Positions)
}

func TestPositions(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})
	held := solana.NewWallet().PublicKey()
	ts.engine.positions = []bot.Position{
		{Mint: held.String(), State: bot.Held, QuoteSpent: 10},
		{Mint: solana.NewWallet().PublicKey().String(), State: bot.Abandoned, LastError: "sell retries exhausted"},
	}

	rec := ts.do(http.MethodGet, "/v1/positions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"held"`)
	assert.Contains(t, rec.Body.String(), `"state":"abandoned"`)

	rec = ts.do(http.MethodGet, "/v1/positions?state=abandoned", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp PositionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, bot.Abandoned, resp.Items[0].State)
}

func TestPosition(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})
	mint := solana.NewWallet().PublicKey()
	ts.engine.positions = []bot.Position{{Mint: mint.String(), State: bot.Held}}

	rec := ts.do(http.MethodGet, "/v1/positions/"+mint.String(), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), mint.String())

	rec = ts.do(http.MethodGet, "/v1/positions/"+solana.NewWallet().PublicKey().String(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodGet, "/v1/positions/not-a-mint", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecentTrades(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})
	ts.trades.recent = []*models.TradeEvent{
		{Signature: "s1", Side: models.SideBuy},
		{Signature: "s2", Side: models.SideSell},
	}

	rec := ts.do(http.MethodGet, "/v1/trades/recent?limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Items []*models.TradeEvent `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "s1", resp.Items[0].Signature)

	for _, q := range []string{"0", "201", "abc"} {
		rec = ts.do(http.MethodGet, "/v1/trades/recent?limit="+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}

	ts.trades.err = errors.New("redis down")
	rec = ts.do(http.MethodGet, "/v1/trades/recent", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTradesStream(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})
	ts.trades.live = []*models.TradeEvent{{Signature: "live-1", Side: models.SideBuy}}

	rec := ts.do(http.MethodGet, "/v1/trades/stream", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Body.String(), "event: trade\ndata: ")
	assert.Contains(t, rec.Body.String(), `"signature":"live-1"`)
}

func TestSnipeListCRUD(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})
	mint := solana.NewWallet().PublicKey().String()

	rec := ts.do(http.MethodPost, "/v1/snipelist", `{"mint":"`+mint+`"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(http.MethodGet, "/v1/snipelist", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), mint)

	rec = ts.do(http.MethodDelete, "/v1/snipelist/"+mint, "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodDelete, "/v1/snipelist/"+mint, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, "/v1/snipelist", `{"mint":"nope"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 2, ts.refresher.n, "each successful write reloads the list")
}

func TestSnipeListWritesRateLimited(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})

	var limited bool
	for i := 0; i < 10; i++ {
		body := `{"mint":"` + solana.NewWallet().PublicKey().String() + `"}`
		if rec := ts.do(http.MethodPost, "/v1/snipelist", body, nil); rec.Code == http.StatusTooManyRequests {
			assert.Contains(t, rec.Body.String(), "rate limit exceeded")
			limited = true
			break
		}
	}
	assert.True(t, limited)

	// reads are not limited
	rec := ts.do(http.MethodGet, "/v1/snipelist", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKey(t *testing.T) {
	ts := newTestServer(t, ServerConfig{APIKey: "secret", Metrics: metrics.New("test")})

	rec := ts.do(http.MethodGet, "/v1/positions", "", map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/v1/positions", "", nil)
	assert.NotEqual(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/v1/positions", "", map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})
	rec := ts.do(http.MethodGet, "/v2/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":404`)
}

func TestJSONErrorHandler(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	handle := JSONErrorHandler(logger)

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{name: "client error keeps message", err: echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded"), wantCode: http.StatusTooManyRequests, wantMsg: "rate limit exceeded"},
		{name: "client error without message", err: &echo.HTTPError{Code: http.StatusBadRequest}, wantCode: http.StatusBadRequest, wantMsg: "Bad Request"},
		{name: "server error hides message", err: echo.NewHTTPError(http.StatusServiceUnavailable, "redis down"), wantCode: http.StatusServiceUnavailable, wantMsg: "Service Unavailable"},
		{name: "plain error", err: errors.New("boom"), wantCode: http.StatusInternalServerError, wantMsg: "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/positions", nil), rec)

			handle(tt.err, c)

			assert.Equal(t, tt.wantCode, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantMsg, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}
