package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/chartpad/pkg/core/mapping"
	"github.com/matzehuels/chartpad/pkg/errors"
	"github.com/matzehuels/chartpad/pkg/observability"
	"github.com/matzehuels/chartpad/pkg/session"
)

const financeCSV = "year,revenue,cogs\n2019,100,40\n2020,120,50\n2021,150,55\n"

type specBody struct {
	ChartType mapping.ChartType `json:"chartType"`
	Rows      []json.RawMessage `json:"rows"`
	Mapping   mapping.Mapping   `json:"mapping"`
}

func newTestServer(t *testing.T, store session.Store) (*Server, *httptest.Server) {
	t.Helper()
	if store == nil {
		store = session.NewMemoryStore(0)
	}
	s := New(store, Config{}, nil)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, method, url, contentType, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func create(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, body := do(t, http.MethodPost, ts.URL+"/api/v1/sessions", "text/csv", financeCSV)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out struct {
		ID   string   `json:"id"`
		Spec specBody `json:"spec"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.NoError(t, errors.ValidateSessionID(out.ID))
	assert.Len(t, out.Spec.Rows, 3)
	return out.ID
}

func ops(t *testing.T, ts *httptest.Server, id, body string) (applied []bool, mode string, spec specBody) {
	t.Helper()
	resp, data := do(t, http.MethodPost, ts.URL+"/api/v1/sessions/"+id+"/ops", "application/json", body)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var out struct {
		Applied []bool   `json:"applied"`
		Mode    string   `json:"mode"`
		Spec    specBody `json:"spec"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	return out.Applied, out.Mode, out.Spec
}

func errorCode(t *testing.T, body []byte) errors.Code {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e), string(body))
	return e.Error.Code
}

func TestCreateAndEdit(t *testing.T) {
	_, ts := newTestServer(t, nil)
	id := create(t, ts)

	applied, _, spec := ops(t, ts, id, `[
		{"op":"setColumnVisible","id":"cogs","visible":false},
		{"op":"setColumnVisible","id":"cogs","visible":false},
		{"op":"setChartType","chartType":"bar"}
	]`)
	assert.Equal(t, []bool{true, false, true}, applied)
	assert.Equal(t, mapping.Bar, spec.ChartType)
	assert.Equal(t, []string{"revenue"}, spec.Mapping.Series)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/sessions/"+id+"/spec", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got specBody
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, mapping.Bar, got.ChartType)

	resp, body = do(t, http.MethodGet, ts.URL+"/api/v1/sessions/"+id+"/options/y", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"revenue"`)
	assert.NotContains(t, string(body), `"cogs"`)
}

// A sweep spans several requests; the live handle carries it.
func TestGestureAcrossRequests(t *testing.T) {
	_, ts := newTestServer(t, nil)
	id := create(t, ts)

	applied, mode, spec := ops(t, ts, id, `{"op":"pointerDown","kind":"row","id":"2019"}`)
	assert.Equal(t, []bool{true}, applied)
	assert.Equal(t, "sweeping", mode)
	assert.Len(t, spec.Rows, 2)

	applied, _, spec = ops(t, ts, id, `{"op":"pointerEnter","kind":"row","id":"2020"}`)
	assert.Equal(t, []bool{true}, applied)
	assert.Len(t, spec.Rows, 1)

	_, mode, _ = ops(t, ts, id, `{"op":"pointerUp"}`)
	assert.Equal(t, "idle", mode)
}

func TestSessionsSurviveEviction(t *testing.T) {
	store := session.NewMemoryStore(0)
	s, ts := newTestServer(t, store)
	id := create(t, ts)
	ops(t, ts, id, `{"op":"renameColumn","id":"revenue","text":"Sales"}`)

	assert.Equal(t, 1, s.Live())
	assert.Equal(t, 1, s.evictIdle(time.Now().Add(2*DefaultIdleTimeout)))
	assert.Equal(t, 0, s.Live())

	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/sessions/"+id, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"Sales"`)
	assert.Contains(t, string(body), `"mode":"idle"`)

	// A second server over the same store sees the session too.
	_, ts2 := newTestServer(t, store)
	resp, body = do(t, http.MethodGet, ts2.URL+"/api/v1/sessions", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), id)
}

// A request that was waiting on a handle while the janitor dropped it must
// not edit the orphaned copy.
func TestAcquireAfterEviction(t *testing.T) {
	s, ts := newTestServer(t, nil)
	id := create(t, ts)

	s.mu.Lock()
	stale := s.handles[id]
	s.mu.Unlock()
	stale.mu.Lock()

	got := make(chan *handle, 1)
	go func() {
		h, err := s.acquire(context.Background(), id)
		if err != nil {
			got <- nil
			return
		}
		got <- h
		s.release(h)
	}()
	time.Sleep(20 * time.Millisecond)

	s.mu.Lock()
	s.dropLocked(id, stale)
	s.mu.Unlock()
	stale.mu.Unlock()

	var h *handle
	select {
	case h = <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("acquire did not return")
	}
	require.NotNil(t, h)
	assert.NotSame(t, stale, h)
	assert.False(t, h.dropped)
	s.mu.Lock()
	assert.Same(t, h, s.handles[id])
	s.mu.Unlock()
}

func TestDeleteDropsLiveHandle(t *testing.T) {
	s, ts := newTestServer(t, nil)
	id := create(t, ts)
	s.mu.Lock()
	h := s.handles[id]
	s.mu.Unlock()

	resp, _ := do(t, http.MethodDelete, ts.URL+"/api/v1/sessions/"+id, "", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.True(t, h.dropped)
	assert.Equal(t, 0, s.Live())
}

func TestExport(t *testing.T) {
	_, ts := newTestServer(t, nil)
	id := create(t, ts)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/sessions/"+id+"/export?format=csv", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(string(body), "year,revenue,cogs"), string(body))

	resp, body = do(t, http.MethodGet, ts.URL+"/api/v1/sessions/"+id+"/export?format=pdf", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, errors.ErrCodeInvalidFormat, errorCode(t, body))
}

func TestDelete(t *testing.T) {
	s, ts := newTestServer(t, nil)
	id := create(t, ts)

	resp, _ := do(t, http.MethodDelete, ts.URL+"/api/v1/sessions/"+id, "", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, s.Live())

	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/sessions/"+id, "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, errors.ErrCodeSessionNotFound, errorCode(t, body))
}

func TestErrors(t *testing.T) {
	_, ts := newTestServer(t, nil)
	id := create(t, ts)

	tests := []struct {
		name        string
		method, url string
		ctype, body string
		status      int
		code        errors.Code
	}{
		{"bad id", http.MethodGet, "/api/v1/sessions/nope", "", "", http.StatusNotFound, errors.ErrCodeSessionNotFound},
		{"unknown id", http.MethodGet, "/api/v1/sessions/00000000-0000-4000-8000-000000000000", "", "", http.StatusNotFound, errors.ErrCodeSessionNotFound},
		{"bad op", http.MethodPost, "/api/v1/sessions/" + id + "/ops", "application/json", `{"op":"explode"}`, http.StatusBadRequest, errors.ErrCodeInvalidOp},
		{"bad slot", http.MethodGet, "/api/v1/sessions/" + id + "/options/z", "", "", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"duplicate keys", http.MethodPost, "/api/v1/sessions", "text/csv", "year,a\n2019,1\n2019,2\n", http.StatusBadRequest, errors.ErrCodeInvalidDataset},
		{"bad chart type", http.MethodPost, "/api/v1/sessions?chartType=gantt", "text/csv", financeCSV, http.StatusBadRequest, errors.ErrCodeInvalidChartType},
		{"bad json", http.MethodPost, "/api/v1/sessions", "application/json", `{`, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, ts.URL+tt.url, tt.ctype, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
			assert.Equal(t, tt.code, errorCode(t, body))
		})
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, body := do(t, http.MethodGet, ts.URL+"/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"ok"`)
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route)
}

func TestObserveReportsRoutePattern(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	_, ts := newTestServer(t, nil)
	id := create(t, ts)
	do(t, http.MethodGet, ts.URL+"/api/v1/sessions/"+id+"/spec", "", "")

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	assert.Contains(t, hooks.routes, "GET /api/v1/sessions/{id}/spec")
}
