package audit

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

	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

// fakeElasticsearch answers each request with the next canned response for
// its path suffix and records what it received.
type fakeElasticsearch struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string][]cannedResponse
}

type cannedResponse struct {
	status int
	body   string
}

func (f *fakeElasticsearch) on(suffix string, status int, body string) {
	f.responses[suffix] = append(f.responses[suffix], cannedResponse{status, body})
}

func (f *fakeElasticsearch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: body})

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	for suffix, queue := range f.responses {
		if strings.HasSuffix(r.URL.Path, suffix) && len(queue) > 0 {
			f.responses[suffix] = queue[1:]
			w.WriteHeader(queue[0].status)
			_, _ = io.WriteString(w, queue[0].body)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, `{"error":"unexpected request"}`)
}

func newFakeRepository(t *testing.T) (*ElasticsearchRepository, *fakeElasticsearch) {
	t.Helper()
	fake := &fakeElasticsearch{responses: map[string][]cannedResponse{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	repo, err := NewElasticsearchRepository(srv.URL, "audit-test")
	require.NoError(t, err)
	return repo, fake
}

func TestElasticsearchRepository_Index(t *testing.T) {
	repo, fake := newFakeRepository(t)
	fake.on("/_doc/01J2ABC", http.StatusCreated, `{"result":"created"}`)

	err := repo.Index(context.Background(), AuditLog{
		ID: "01J2ABC", Timestamp: time.Date(2024, 7, 9, 10, 0, 0, 0, time.UTC),
		UserID: 7, Action: "view_employee_salary", Resource: "employee_salary:42",
		Result: ResultAllowed, Reason: "Policy: HR", IPAddress: "10.0.0.1",
	})
	require.NoError(t, err)
	require.Len(t, fake.requests, 1)
	assert.Equal(t, "/audit-test/_doc/01J2ABC", fake.requests[0].Path)
	assert.Equal(t, "employee_salary:42", fake.requests[0].Body["resource"])
	assert.Equal(t, float64(7), fake.requests[0].Body["user_id"])
}

func TestElasticsearchRepository_IndexFailure(t *testing.T) {
	repo, fake := newFakeRepository(t)
	fake.on("/_doc/x", http.StatusInternalServerError, `{"error":"disk full"}`)
	assert.Error(t, repo.Index(context.Background(), AuditLog{ID: "x"}))
}

func TestElasticsearchRepository_Search(t *testing.T) {
	repo, fake := newFakeRepository(t)
	fake.on("/_search", http.StatusOK, `{
		"hits": {"total": {"value": 42}, "hits": [
			{"_id": "02", "_source": {"id": "02", "action": "view_employee_salary", "result": "denied", "user_id": 7}},
			{"_id": "01", "_source": {"action": "create_policy", "result": "success", "user_id": 1}}
		]}}`)

	userID := int64(7)
	from := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	logs, total, err := repo.Search(context.Background(), Filter{Action: "View", UserID: &userID, From: &from}, 20, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(42), total)
	require.Len(t, logs, 2)
	assert.Equal(t, "02", logs[0].ID)
	assert.Equal(t, "01", logs[1].ID, "id falls back to _id")

	body := fake.requests[0].Body
	assert.Equal(t, float64(20), body["from"])
	assert.Equal(t, float64(10), body["size"])
	assert.Equal(t, true, body["track_total_hits"])
	sortJSON, _ := json.Marshal(body["sort"])
	assert.JSONEq(t, `[{"timestamp":{"order":"desc"}},{"id":{"order":"desc"}}]`, string(sortJSON))
}

func TestElasticsearchRepository_ScanFollowsSearchAfter(t *testing.T) {
	repo, fake := newFakeRepository(t)

	var first strings.Builder
	first.WriteString(`{"hits":{"total":{"value":1001},"hits":[`)
	for i := 0; i < exportPageSize; i++ {
		if i > 0 {
			first.WriteString(",")
		}
		first.WriteString(`{"_id":"a","_source":{"id":"a"},"sort":[1720519200000,"a"]}`)
	}
	first.WriteString(`]}}`)
	fake.on("/_search", http.StatusOK, first.String())
	fake.on("/_search", http.StatusOK, `{"hits":{"total":{"value":1001},"hits":[{"_id":"z","_source":{"id":"z"},"sort":[1,"z"]}]}}`)

	logs, err := repo.Scan(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, logs, exportPageSize+1)
	require.Len(t, fake.requests, 2)
	assert.Nil(t, fake.requests[0].Body["search_after"])
	assert.Equal(t, []any{float64(1720519200000), "a"}, fake.requests[1].Body["search_after"])
}

func TestElasticsearchRepository_Stats(t *testing.T) {
	repo, fake := newFakeRepository(t)
	fake.on("/_search", http.StatusOK, `{
		"hits": {"total": {"value": 10}, "hits": []},
		"aggregations": {
			"success": {"doc_count": 7},
			"failure": {"doc_count": 3},
			"by_action": {"buckets": [{"key": "view_employee_salary", "doc_count": 8}, {"key": "create_policy", "doc_count": 2}]},
			"by_user": {"buckets": [{"key": 7, "doc_count": 6}]},
			"by_resource": {"buckets": [{"key": "employee_salary:42", "doc_count": 5}]}
		}}`)

	stats, err := repo.Stats(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.Total)
	assert.Equal(t, int64(7), stats.Success)
	assert.Equal(t, int64(3), stats.Failure)
	assert.Equal(t, []CountEntry{{Key: "view_employee_salary", Count: 8}, {Key: "create_policy", Count: 2}}, stats.ByAction)
	assert.Equal(t, []CountEntry{{Key: "7", Count: 6}}, stats.ByUser)
	assert.Equal(t, "employee_salary:42", stats.ByResource[0].Key)

	assert.Equal(t, float64(0), fake.requests[0].Body["size"])
}

func TestElasticsearchRepository_Get(t *testing.T) {
	repo, fake := newFakeRepository(t)
	fake.on("/_doc/found", http.StatusOK, `{"found": true, "_source": {"id": "found", "action": "delete_policy"}}`)
	fake.on("/_doc/missing", http.StatusNotFound, `{"found": false}`)

	log, err := repo.Get(context.Background(), "found")
	require.NoError(t, err)
	assert.Equal(t, "delete_policy", log.Action)

	_, err = repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, echo_errors.ErrAuditLogNotFound)
}

func TestElasticsearchRepository_EnsureIndex(t *testing.T) {
	repo, fake := newFakeRepository(t)
	fake.on("/audit-test", http.StatusNotFound, ``)
	fake.on("/audit-test", http.StatusOK, `{"acknowledged": true}`)

	require.NoError(t, repo.EnsureIndex(context.Background()))
	require.Len(t, fake.requests, 2)
	assert.Equal(t, http.MethodHead, fake.requests[0].Method)
	assert.Equal(t, http.MethodPut, fake.requests[1].Method)
	assert.NotNil(t, fake.requests[1].Body["mappings"])
}

func TestBuildQuery(t *testing.T) {
	q, _ := json.Marshal(buildQuery(Filter{}))
	assert.JSONEq(t, `{"match_all":{}}`, string(q))

	userID := int64(9)
	to := time.Date(2024, 7, 9, 23, 59, 59, 999000000, time.UTC)
	q, _ = json.Marshal(buildQuery(Filter{Resource: "salary*", UserID: &userID, To: &to}))
	var parsed struct {
		Bool struct {
			Filter []map[string]any `json:"filter"`
		} `json:"bool"`
	}
	require.NoError(t, json.Unmarshal(q, &parsed))
	require.Len(t, parsed.Bool.Filter, 3)
	assert.Contains(t, string(q), `"value":"*salary\\**"`)
	assert.Contains(t, string(q), `"case_insensitive":true`)
	assert.Contains(t, string(q), `"term":{"user_id":9}`)
	assert.Contains(t, string(q), `"lte":"2024-07-09T23:59:59.999Z"`)
}

func TestElasticsearchRepository_SearchPastResultWindow(t *testing.T) {
	repo, fake := newFakeRepository(t)
	fake.on("/_search", http.StatusBadRequest,
		`{"error":{"type":"illegal_argument_exception","reason":"Result window is too large, from + size must be less than or equal to: [10000] but was [10100]."},"status":400}`)

	_, _, err := repo.Search(context.Background(), Filter{}, 10000, 100)
	assert.ErrorIs(t, err, echo_errors.ErrInvalidPagination)
}

func TestElasticsearchRepository_Ping(t *testing.T) {
	repo, fake := newFakeRepository(t)
	fake.on("/", http.StatusOK, `{"version":{"number":"8.5.0"}}`)
	fake.on("/", http.StatusServiceUnavailable, `{}`)

	require.NoError(t, repo.Ping(context.Background()))
	assert.ErrorIs(t, repo.Ping(context.Background()), echo_errors.ErrStorageUnavailable)
}
