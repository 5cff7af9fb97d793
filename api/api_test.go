package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/uptime-api/apperr"
	"github.com/linesmerrill/uptime-api/databases"
	"github.com/linesmerrill/uptime-api/databases/mocks"
	"github.com/linesmerrill/uptime-api/models"
)

func echo(ctx context.Context, req models.Request) models.Response {
	return OK(map[string]interface{}{"method": req.Method, "path": req.Path, "payload": req.Payload})
}

func TestServeNormalizesRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/users/?phone=5551234567", strings.NewReader(`{"timeoutSeconds":3}`))
	rr := httptest.NewRecorder()
	Serve(HandlerFunc(echo)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"method":"POST","path":"api/users","payload":{"timeoutSeconds":3}}`, rr.Body.String())
}

func TestServeMalformedBodyIsEmptyPayload(t *testing.T) {
	for _, body := range []string{`{"a":`, `[1,2]`, `"str"`, ``} {
		req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
		rr := httptest.NewRecorder()
		Serve(HandlerFunc(echo)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, body)
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
		assert.Empty(t, m["payload"], body)
	}
}

func TestServeRejectsLargeBody(t *testing.T) {
	big := `{"a":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(big))
	rr := httptest.NewRecorder()
	Serve(HandlerFunc(echo)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestToken(t *testing.T) {
	h := http.Header{}
	assert.Equal(t, "", Token(h))
	h.Set("Authorization", "Basic NTU1MTIzNDU2Nzpz")
	assert.Equal(t, "", Token(h))
	h.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", Token(h))
	h.Set("Authorization", "Bearer def")
	assert.Equal(t, "def", Token(h))
	h.Set("token", "xyz")
	assert.Equal(t, "xyz", Token(h))
}

func TestBasicLogin(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/tokens", nil)
	req.SetBasicAuth("5551234567", "secr3t")

	var gotPhone, gotPassword string
	ok, err := BasicLogin(context.Background(), req.Header, func(ctx context.Context, phone, password string) error {
		gotPhone, gotPassword = phone, password
		return nil
	})
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, "5551234567", gotPhone)
	assert.Equal(t, "secr3t", gotPassword)

	// every login reaches the store, even with the same credentials
	calls := 0
	badPassword := apperr.New(apperr.InvalidCredentials, "invalid credentials")
	for i := 0; i < 2; i++ {
		ok, err = BasicLogin(context.Background(), req.Header, func(ctx context.Context, phone, password string) error {
			calls++
			return badPassword
		})
		assert.True(t, ok)
		assert.Equal(t, apperr.InvalidCredentials, apperr.KindOf(err))
	}
	assert.Equal(t, 2, calls)

	ok, err = BasicLogin(context.Background(), http.Header{}, func(ctx context.Context, phone, password string) error {
		t.Fatal("login called without credentials")
		return nil
	})
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestErrorHidesInternals(t *testing.T) {
	err := apperr.Wrap(apperr.InternalError, "could not read the user", errors.New("open /data/users/x.json: permission denied"))
	resp := Error(context.Background(), err)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, models.ErrorMessageResponse{Error: "could not read the user"}, resp.Body)

	resp = Error(context.Background(), apperr.Partial("partial", []string{"c2"}))
	assert.Equal(t, models.ErrorMessageResponse{Error: "partial", Failed: []string{"c2"}}, resp.Body)

	resp = Error(context.Background(), errors.New("raw"))
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, models.ErrorMessageResponse{Error: "internal error"}, resp.Body)
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"Error":"internal error"}`, rr.Body.String())
}

func TestMetricsMiddleware(t *testing.T) {
	mc := NewMetricsCollector(10)
	store, err := databases.NewFileStore(t.TempDir())
	require.NoError(t, err)
	traced := TraceStore(store)

	var seenID string
	h := MetricsMiddleware(mc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestIDFromContext(r.Context())
		_ = traced.Create(r.Context(), "users", "5551234567", map[string]string{"a": "b"})
		_ = traced.Read(r.Context(), "users", "missing", &map[string]string{})
		w.WriteHeader(http.StatusNotFound)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	assert.NotEmpty(t, seenID)
	assert.Equal(t, seenID, rr.Header().Get(RequestIDHeader))

	traces := mc.Traces(5)
	require.Len(t, traces, 1)
	assert.Equal(t, http.StatusNotFound, traces[0].Status)
	require.Len(t, traces[0].StoreOps, 2)
	assert.Equal(t, "create", traces[0].StoreOps[0].Operation)
	assert.Equal(t, "read", traces[0].StoreOps[1].Operation)
	assert.NotEmpty(t, traces[0].StoreOps[1].Error)

	summary := mc.Summary()
	assert.Equal(t, int64(1), summary["totalRequests"])
	assert.Equal(t, int64(1), summary["totalErrors"])
	routes := mc.SlowestRoutes()
	require.Len(t, routes, 1)
	assert.Equal(t, "/api/users", routes[0].Path)
}

func TestMetricsCollectorKeepsRecentTraces(t *testing.T) {
	mc := NewMetricsCollector(2)
	for i := 0; i < 3; i++ {
		mc.RecordTrace(RequestTrace{Method: "GET", Path: "/ping", Status: 200, TotalDuration: time.Duration(i+1) * time.Millisecond})
	}
	traces := mc.Traces(10)
	require.Len(t, traces, 2)
	assert.Equal(t, 2*time.Millisecond, traces[0].TotalDuration)

	routes := mc.SlowestRoutes()
	require.Len(t, routes, 1)
	assert.Equal(t, int64(3), routes[0].Count)
	assert.Equal(t, time.Millisecond, routes[0].MinTime)
	assert.Equal(t, 3*time.Millisecond, routes[0].MaxTime)
}

func TestTimeoutMiddleware(t *testing.T) {
	var deadline bool
	h := TimeoutMiddleware(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, deadline = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, deadline)
}

type fakeCounter struct {
	counts  map[string]int64
	expires map[string]time.Duration
	err     error
}

func (f *fakeCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.counts[key]++
	cmd.SetVal(f.counts[key])
	return cmd
}

func (f *fakeCounter) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.expires[key] = expiration
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

func TestRateLimiter(t *testing.T) {
	counter := &fakeCounter{counts: map[string]int64{}, expires: map[string]time.Duration{}}
	l := NewRateLimiter(counter, 2, time.Minute)
	l.now = func() time.Time { return time.Unix(600, 0) }

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := l.Middleware(next)

	codes := []int{}
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/tokens", nil))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.Equal(t, time.Minute, counter.expires["ratelimit:192.0.2.1:10"])

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tokens", nil))
	assert.Equal(t, http.StatusOK, rr.Code, "reads are not limited")

	l.now = func() time.Time { return time.Unix(660, 0) }
	assert.True(t, l.Allow(context.Background(), "192.0.2.1"), "a new window starts fresh")
}

func TestRateLimiterFailsOpen(t *testing.T) {
	l := NewRateLimiter(&fakeCounter{err: errors.New("connection refused")}, 1, time.Minute)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(context.Background(), "client"))
	}

	var nilLimiter *RateLimiter
	assert.True(t, nilLimiter.Allow(context.Background(), "client"))
}

func TestTraceStoreForwardsEveryOperation(t *testing.T) {
	store := &mocks.DocumentStore{}
	store.On("Update", mock.Anything, "checks", "c1", mock.Anything).Return(nil)
	store.On("Delete", mock.Anything, "checks", "c1").Return(databases.ErrNotFound)
	store.On("List", mock.Anything, "checks").Return([]string{"c2"}, nil)

	trace := &RequestTrace{}
	ctx := WithRequestTrace(context.Background(), trace)
	traced := TraceStore(store)

	assert.NoError(t, traced.Update(ctx, "checks", "c1", models.Check{ID: "c1"}))
	assert.ErrorIs(t, traced.Delete(ctx, "checks", "c1"), databases.ErrNotFound)
	keys, err := traced.List(ctx, "checks")
	require.NoError(t, err)
	assert.Equal(t, []string{"c2"}, keys)
	store.AssertExpectations(t)

	require.Len(t, trace.StoreOps, 3)
	assert.Equal(t, "update", trace.StoreOps[0].Operation)
	assert.Equal(t, "delete", trace.StoreOps[1].Operation)
	assert.Equal(t, databases.ErrNotFound.Error(), trace.StoreOps[1].Error)
	assert.Equal(t, "list", trace.StoreOps[2].Operation)

	// untraced contexts still reach the store
	store.On("Read", mock.Anything, "users", "5551234567", mock.Anything).Return(nil)
	assert.NoError(t, traced.Read(context.Background(), "users", "5551234567", &models.User{}))
	assert.Len(t, trace.StoreOps, 3)
}
