package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/nisimpson/dynarec"
	"github.com/nisimpson/dynarec/dynamock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *dynamock.MemoryClient) {
	t.Helper()
	table := dynarec.NewTable("movies")
	client := dynamock.NewMemoryClient(table.TableName, table.KeyAttribute)
	srv := New(dynarec.New(client, table), client, Options{RequestTimeout: time.Second})
	srv.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return srv, client
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Lifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/records", `{"title": "The Matrix", "year": "1999", "actors": "Reeves"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, dynarec.ContentTypeJSON, rec.Header().Get("Content-Type"))

	rec = do(t, srv, http.MethodGet, "/records/The%20Matrix", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"title": "The Matrix", "year": "1999", "info": {"actors": "Reeves"}}`, rec.Body.String())

	rec = do(t, srv, http.MethodPatch, "/records/The%20Matrix", `{"title": "ignored", "rating": "4.50", "plot": "Red pill"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"info": {"rating": 4.5, "plot": "Red pill"}}`, rec.Body.String())

	rec = do(t, srv, http.MethodDelete, "/records/The%20Matrix?year=1999", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"title": "The Matrix", "year": "1999", "info": {"actors": "Reeves", "rating": 4.5, "plot": "Red pill"}}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/records/The%20Matrix", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_EscapedKeys(t *testing.T) {
	tests := []struct {
		name string
		key  string
		path string
	}{
		{"percent escape in key", "50%41", "/records/50%2541"},
		{"trailing percent", "100%", "/records/100%25"},
		{"slash", "a/b", "/records/a%2Fb"},
		{"space", "The Matrix", "/records/The%20Matrix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, client := newTestServer(t)

			body, err := json.Marshal(dynarec.CreateRequest{Key: tt.key, Actors: "Someone"})
			require.NoError(t, err)
			rec := do(t, srv, http.MethodPost, "/records", string(body))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			rec = do(t, srv, http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var got map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.key, got["title"])

			rec = do(t, srv, http.MethodPatch, tt.path, `{"rating": 3}`)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			rec = do(t, srv, http.MethodDelete, tt.path, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			_, stillThere := client.Item(tt.key)
			assert.False(t, stillThere)
		})
	}
}

func TestServer_ErrorStatuses(t *testing.T) {
	srv, client := newTestServer(t)
	dynamock.NewRecord(dynarec.NewTable("movies"), "Heat", dynamock.WithoutActors()).Put(client)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
		kind   dynarec.Kind
	}{
		{"create without title", http.MethodPost, "/records", `{"year": "1995"}`, http.StatusBadRequest, dynarec.KindValidation},
		{"create malformed body", http.MethodPost, "/records", `{"title": `, http.StatusBadRequest, dynarec.KindValidation},
		{"update bad rating", http.MethodPatch, "/records/Heat", `{"rating": "high"}`, http.StatusBadRequest, dynarec.KindValidation},
		{"update missing", http.MethodPatch, "/records/Ronin", `{"rating": 3}`, http.StatusNotFound, dynarec.KindNotFound},
		{"delete precondition", http.MethodDelete, "/records/Heat", "", http.StatusConflict, dynarec.KindPreconditionFailed},
		{"delete missing", http.MethodDelete, "/records/Ronin", "", http.StatusNotFound, dynarec.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.target, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			var body dynarec.ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body.Error.Kind)
			assert.NotEmpty(t, body.Error.Message)
		})
	}

	_, stillThere := client.Item("Heat")
	assert.True(t, stillThere)
}

func TestServer_StoreFault(t *testing.T) {
	mock := dynamock.NewMockClient(t)
	mock.GetFunc = dynamock.Fail[dynamodb.GetItemInput, dynamodb.GetItemOutput](dynamock.ThrottlingError())
	srv := New(dynarec.New(mock, dynarec.NewTable("movies")), nil, Options{})

	rec := do(t, srv, http.MethodGet, "/records/Heat", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		srv, _ := newTestServer(t)

		rec := do(t, srv, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var body HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body.Status)
		assert.Equal(t, "ACTIVE", body.Database)
		assert.Equal(t, "movies", body.Table)
		assert.Equal(t, "2024-01-02T03:04:05Z", body.Timestamp)
	})

	t.Run("unhealthy", func(t *testing.T) {
		mock := dynamock.NewMockClient(t)
		mock.DescribeTableFunc = func(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
			return nil, errors.New("connection refused")
		}
		srv := New(dynarec.New(mock, dynarec.NewTable("movies")), mock, Options{})

		rec := do(t, srv, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "unhealthy", body.Status)
		assert.Equal(t, "disconnected", body.Database)
		assert.Contains(t, body.Error, "connection refused")
	})

	t.Run("unchecked", func(t *testing.T) {
		srv := New(dynarec.New(dynamock.NewMockClient(t), dynarec.NewTable("movies")), nil, Options{})

		rec := do(t, srv, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"database":"unchecked"`)
	})
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	table := dynarec.NewTable("movies")
	client := dynamock.NewMemoryClient(table.TableName, table.KeyAttribute)
	srv := New(dynarec.New(client, table), client, Options{Registerer: reg, Gatherer: reg})

	do(t, srv, http.MethodGet, "/records/Heat", "")
	do(t, srv, http.MethodGet, "/records/Ronin", "")

	count := testutil.ToFloat64(srv.metrics.requests.WithLabelValues(http.MethodGet, "/records/{title}", "404"))
	assert.Equal(t, float64(2), count)

	rec := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dynarec_http_requests_total")
	assert.NotContains(t, rec.Body.String(), "Ronin")
}

func TestServer_CORS(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/records/Heat", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
