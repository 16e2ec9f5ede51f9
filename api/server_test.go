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

	"rbitracker/orchestrator"
	"rbitracker/state"
	"rbitracker/storage"
	"rbitracker/types"

	"github.com/gin-gonic/gin"
)

type blockingDiscoverer struct {
	release chan struct{}
}

func (d *blockingDiscoverer) Discover(ctx context.Context, _ time.Time) ([]types.CircularDescriptor, error) {
	select {
	case <-d.release:
	case <-ctx.Done():
	}
	return nil, nil
}

type staticComparator struct {
	report *types.ComparisonRecord
	err    error
}

func (c *staticComparator) Compare(context.Context, *types.StoredCircular) (*types.ComparisonRecord, error) {
	return c.report, c.err
}

func newTestServer(discoverer orchestrator.Discoverer, comparator orchestrator.Comparator, store storage.RecordStore) *Server {
	mgr := state.NewManager()
	return &Server{
		Pipeline: &orchestrator.Pipeline{
			Discoverer: discoverer,
			Comparator: comparator,
			Store:      store,
			State:      mgr,
		},
		Store: store,
		State: mgr,
	}
}

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(newTestServer(&blockingDiscoverer{release: make(chan struct{})}, &staticComparator{}, storage.NewMemoryStore()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/health = %d, want 200", w.Code)
	}
}

func TestIngestRejectsBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(newTestServer(&blockingDiscoverer{release: make(chan struct{})}, &staticComparator{}, storage.NewMemoryStore()))

	for _, body := range []string{`{}`, `{"date":"13-02-2025"}`} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("POST /api/ingest with %s = %d, want 400", body, w.Code)
		}
	}
}

func TestIngestRejectsConcurrentRuns(t *testing.T) {
	gin.SetMode(gin.TestMode)
	discoverer := &blockingDiscoverer{release: make(chan struct{})}
	r := NewRouter(newTestServer(discoverer, &staticComparator{}, storage.NewMemoryStore()))
	defer close(discoverer.release)

	body := `{"date":"2025-02-13"}`
	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(first, req)
	if first.Code != http.StatusAccepted {
		t.Fatalf("first POST /api/ingest = %d, want 202", first.Code)
	}

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(second, req)
	if second.Code != http.StatusConflict {
		t.Fatalf("second POST /api/ingest = %d, want 409", second.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newTestServer(&blockingDiscoverer{release: make(chan struct{})}, &staticComparator{}, storage.NewMemoryStore())
	s.State.AddLog("Discovered %d circular(s)", 3)
	r := NewRouter(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/status = %d, want 200", w.Code)
	}
	var status types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.State != types.StateIdle {
		t.Errorf("status.State = %q, want %q", status.State, types.StateIdle)
	}
	if len(status.Logs) != 1 {
		t.Errorf("got %d log lines, want 1", len(status.Logs))
	}
}

func TestCircularsEndpointFiltersByDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := storage.NewMemoryStore()
	for ref, date := range map[string]string{
		"/data/a.pdf": "13 Feb, 2025",
		"/data/b.pdf": "12 Feb, 2025",
	} {
		err := store.Upsert(context.Background(), &types.StoredCircular{
			CircularDocument: types.CircularDocument{
				CircularDescriptor: types.CircularDescriptor{Name: ref, CircularDate: date},
				SourceDocumentRef:  ref,
			},
		})
		if err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	r := NewRouter(newTestServer(&blockingDiscoverer{release: make(chan struct{})}, &staticComparator{}, store))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/circulars?date=13+Feb,+2025", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/circulars = %d, want 200", w.Code)
	}
	var resp struct {
		Count     int                    `json:"count"`
		Circulars []types.StoredCircular `json:"circulars"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Circulars) != 1 {
		t.Fatalf("count = %d, circulars = %d; want 1 filtered record", resp.Count, len(resp.Circulars))
	}
	if resp.Circulars[0].SourceDocumentRef != "/data/a.pdf" {
		t.Errorf("got record %q", resp.Circulars[0].SourceDocumentRef)
	}
}

func TestReportEndpointWithoutCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(newTestServer(&blockingDiscoverer{release: make(chan struct{})}, &staticComparator{}, storage.NewMemoryStore()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/2025-02-13", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /api/reports without cache = %d, want 404", w.Code)
	}
}

func TestCompareEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := storage.NewMemoryStore()
	err := store.Upsert(context.Background(), &types.StoredCircular{
		CircularDocument: types.CircularDocument{
			CircularDescriptor: types.CircularDescriptor{Name: "Circular A"},
			SourceDocumentRef:  "/data/a.pdf",
		},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	comparator := &staticComparator{report: &types.ComparisonRecord{CompliantFlag: types.FlagCompliant}}
	r := NewRouter(newTestServer(&blockingDiscoverer{release: make(chan struct{})}, comparator, store))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/compare", strings.NewReader(`{"source_document_ref":"/data/a.pdf"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/compare = %d, want 200: %s", w.Code, w.Body.String())
	}
	var report types.ComparisonRecord
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.CompliantFlag != types.FlagCompliant {
		t.Errorf("CompliantFlag = %q, want %q", report.CompliantFlag, types.FlagCompliant)
	}
}

func TestCompareEndpointInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := storage.NewMemoryStore()
	err := store.Upsert(context.Background(), &types.StoredCircular{
		CircularDocument: types.CircularDocument{
			CircularDescriptor: types.CircularDescriptor{Name: "Circular A"},
			SourceDocumentRef:  "/data/a.pdf",
		},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	comparator := &staticComparator{err: errors.New("marshal circular: unexpected state")}
	r := NewRouter(newTestServer(&blockingDiscoverer{release: make(chan struct{})}, comparator, store))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/compare", strings.NewReader(`{"source_document_ref":"/data/a.pdf"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("POST /api/compare with internal failure = %d, want 500", w.Code)
	}
}

func TestCompareEndpointUnknownRef(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(newTestServer(&blockingDiscoverer{release: make(chan struct{})}, &staticComparator{}, storage.NewMemoryStore()))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/compare", strings.NewReader(`{"source_document_ref":"/data/absent.pdf"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("POST /api/compare for unknown ref = %d, want 404", w.Code)
	}
}
