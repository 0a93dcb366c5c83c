// File: internal/search/index_test.go
package search

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/category"
	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/donation"
	"wecare_donations_backend/internal/events"
	es "wecare_donations_backend/internal/platform/elasticsearch"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   []byte
}

// fakeES answers the handful of endpoints the index uses.
type fakeES struct {
	mu       sync.Mutex
	requests []recordedRequest
	respond  func(method, path string, body []byte) (int, string)
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: body})
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	status, payload := http.StatusOK, `{}`
	if f.respond != nil {
		status, payload = f.respond(r.Method, r.URL.Path, body)
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, payload)
}

func (f *fakeES) find(method, path string) *recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.requests {
		if f.requests[i].Method == method && f.requests[i].Path == path {
			return &f.requests[i]
		}
	}
	return nil
}

func newTestIndex(t *testing.T, fake *fakeES) *Index {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewIndex(&es.ESClientWrapper{Client: client}, zap.NewNop())
}

func float(v float64) *float64 { return &v }

func sampleDonation() *donation.Donation {
	d := &donation.Donation{
		Title:       "Winter coats",
		Description: "Three coats, adult sizes",
		CategoryID:  uuid.New(),
		Category:    category.Category{Name: "Clothing"},
		UserID:      uuid.New(),
		Status:      donation.StatusPending,
		Latitude:    float(40.7128),
		Longitude:   float(-74.0060),
	}
	d.ID = uuid.New()
	d.CreatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return d
}

func TestToDocument(t *testing.T) {
	d := sampleDonation()
	doc, err := ToDocument(d)
	require.NoError(t, err)
	assert.Equal(t, "Winter coats", doc.Title)
	assert.Equal(t, "Clothing", doc.CategoryName)
	assert.Equal(t, "pending", doc.Status)
	require.NotNil(t, doc.Location)
	assert.InDelta(t, 40.7128, doc.Location.Lat, 1e-9)

	d.Longitude = nil
	doc, err = ToDocument(d)
	require.NoError(t, err)
	assert.Nil(t, doc.Location, "half a coordinate pair is not indexed")

	_, err = ToDocument(nil)
	assert.Error(t, err)
}

func TestNewIndex_NilClient(t *testing.T) {
	assert.Nil(t, NewIndex(nil, zap.NewNop()))
	assert.Nil(t, AsSearcher(nil))
	assert.Nil(t, NewEventHandler(nil, nil, zap.NewNop()))
}

func TestIndex_Put(t *testing.T) {
	fake := &fakeES{}
	idx := newTestIndex(t, fake)
	d := sampleDonation()

	require.NoError(t, idx.Put(context.Background(), d))

	req := fake.find(http.MethodPut, "/donations/_doc/"+d.ID.String())
	require.NotNil(t, req)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(req.Body, &doc))
	assert.Equal(t, "Winter coats", doc["title"])
	assert.Equal(t, map[string]interface{}{"lat": 40.7128, "lon": -74.006}, doc["location"])
}

func TestIndex_RemoveToleratesMissingDocument(t *testing.T) {
	fake := &fakeES{respond: func(method, path string, _ []byte) (int, string) {
		return http.StatusNotFound, `{"result":"not_found"}`
	}}
	idx := newTestIndex(t, fake)

	assert.NoError(t, idx.Remove(context.Background(), uuid.New()))
}

func TestIndex_RemoveReportsServerError(t *testing.T) {
	fake := &fakeES{respond: func(method, path string, _ []byte) (int, string) {
		return http.StatusBadRequest, `{"error":{"type":"illegal_argument_exception","reason":"bad"}}`
	}}
	idx := newTestIndex(t, fake)

	err := idx.Remove(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal_argument_exception")
}

func TestIndex_SearchPending(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	fake := &fakeES{respond: func(method, path string, _ []byte) (int, string) {
		return http.StatusOK, `{"hits":{"total":{"value":7},"hits":[` +
			`{"_id":"` + first.String() + `"},{"_id":"not-a-uuid"},{"_id":"` + second.String() + `"}]}}`
	}}
	idx := newTestIndex(t, fake)
	categoryID := uuid.New()

	ids, total, err := idx.SearchPending(context.Background(), "coat", &categoryID, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first, second}, ids)
	assert.Equal(t, int64(7), total)

	req := fake.find(http.MethodPost, "/donations/_search")
	require.NotNil(t, req)
	body := string(req.Body)
	assert.Contains(t, body, `"multi_match"`)
	assert.Contains(t, body, `"query":"coat"`)
	assert.Contains(t, body, `"status":"pending"`)
	assert.Contains(t, body, categoryID.String())
	assert.Contains(t, body, `"from":10`)
	assert.Contains(t, body, `"size":5`)
}

func TestIndex_SearchPending_BlankTextMatchesAll(t *testing.T) {
	fake := &fakeES{respond: func(string, string, []byte) (int, string) {
		return http.StatusOK, `{"hits":{"total":{"value":0},"hits":[]}}`
	}}
	idx := newTestIndex(t, fake)

	ids, total, err := idx.SearchPending(context.Background(), "  ", nil, 0, 20)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Zero(t, total)

	req := fake.find(http.MethodPost, "/donations/_search")
	require.NotNil(t, req)
	assert.Contains(t, string(req.Body), `"match_all"`)
	assert.NotContains(t, string(req.Body), "category_id")
}

func TestIndex_Sync(t *testing.T) {
	fake := &fakeES{respond: func(method, path string, _ []byte) (int, string) {
		switch {
		case method == http.MethodHead:
			return http.StatusOK, ``
		case path == "/_bulk":
			return http.StatusOK, `{"errors":true,"items":[{"index":{"_id":"a","status":201}},{"index":{"_id":"b","status":400}}]}`
		case strings.HasSuffix(path, "/_delete_by_query"):
			return http.StatusOK, `{"deleted":3}`
		}
		return http.StatusOK, `{}`
	}}
	idx := newTestIndex(t, fake)
	a, b := sampleDonation(), sampleDonation()

	indexed, removed, err := idx.Sync(context.Background(), []donation.Donation{*a, *b})
	require.NoError(t, err)
	assert.Equal(t, 1, indexed)
	assert.Equal(t, int64(3), removed)

	bulk := fake.find(http.MethodPost, "/_bulk")
	require.NotNil(t, bulk)
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(bulk.Body))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], a.ID.String())
	assert.Contains(t, lines[2], b.ID.String())

	del := fake.find(http.MethodPost, "/donations/_delete_by_query")
	require.NotNil(t, del)
	assert.Contains(t, string(del.Body), a.ID.String())
	assert.Contains(t, string(del.Body), `"must_not"`)
}

func TestIndex_SyncEmptyClearsIndex(t *testing.T) {
	fake := &fakeES{respond: func(method, path string, _ []byte) (int, string) {
		if strings.HasSuffix(path, "/_delete_by_query") {
			return http.StatusOK, `{"deleted":2}`
		}
		return http.StatusOK, `{}`
	}}
	idx := newTestIndex(t, fake)

	indexed, removed, err := idx.Sync(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, indexed)
	assert.Equal(t, int64(2), removed)
	assert.Nil(t, fake.find(http.MethodPost, "/_bulk"))
}

type stubLoader struct {
	byID    map[uuid.UUID]*donation.Donation
	pending []donation.Donation
}

func (s *stubLoader) FindByID(_ context.Context, id uuid.UUID, _ bool) (*donation.Donation, error) {
	d, ok := s.byID[id]
	if !ok {
		return nil, common.ErrNotFound.WithDetails("Donation not found.")
	}
	return d, nil
}

func (s *stubLoader) FindAllPending(context.Context) ([]donation.Donation, error) {
	return s.pending, nil
}

func TestEventHandler(t *testing.T) {
	fake := &fakeES{}
	idx := newTestIndex(t, fake)
	d := sampleDonation()
	loader := &stubLoader{byID: map[uuid.UUID]*donation.Donation{d.ID: d}}
	handler := NewEventHandler(idx, loader, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, handler.Handle(ctx, events.New(events.DonationCreated, d.ID, d.UserID, nil, d.Title)))
	assert.NotNil(t, fake.find(http.MethodPut, "/donations/_doc/"+d.ID.String()))

	require.NoError(t, handler.Handle(ctx, events.New(events.DonationAccepted, d.ID, d.UserID, nil, d.Title)))
	assert.NotNil(t, fake.find(http.MethodDelete, "/donations/_doc/"+d.ID.String()))

	gone := uuid.New()
	assert.NoError(t, handler.Handle(ctx, events.New(events.DonationCreated, gone, d.UserID, nil, "x")),
		"a donation deleted before indexing is skipped")
	assert.Nil(t, fake.find(http.MethodPut, "/donations/_doc/"+gone.String()))
}

func TestReindex(t *testing.T) {
	assert.Error(t, Reindex(context.Background(), nil, &stubLoader{}, zap.NewNop()))

	fake := &fakeES{respond: func(method, path string, _ []byte) (int, string) {
		switch {
		case path == "/_bulk":
			return http.StatusOK, `{"errors":false,"items":[{"index":{"_id":"a","status":201}}]}`
		case strings.HasSuffix(path, "/_delete_by_query"):
			return http.StatusOK, `{"deleted":0}`
		}
		return http.StatusOK, `{}`
	}}
	idx := newTestIndex(t, fake)
	loader := &stubLoader{pending: []donation.Donation{*sampleDonation()}}

	require.NoError(t, Reindex(context.Background(), idx, loader, zap.NewNop()))
	assert.NotNil(t, fake.find(http.MethodPost, "/_bulk"))
}
