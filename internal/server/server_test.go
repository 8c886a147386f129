package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/flowweave/flowweave/pkg/cache"
	"github.com/flowweave/flowweave/pkg/dataset"
	"github.com/flowweave/flowweave/pkg/errors"
	"github.com/flowweave/flowweave/pkg/graph"
	"github.com/flowweave/flowweave/pkg/pipeline"
	"github.com/flowweave/flowweave/pkg/sankey"
)

// memStore is an in-memory GraphStore for tests.
type memStore struct {
	graphs map[string]*graph.Graph
}

func newMemStore() *memStore {
	return &memStore{graphs: make(map[string]*graph.Graph)}
}

func (m *memStore) Save(ctx context.Context, name string, g *graph.Graph, hash string) error {
	m.graphs[name] = g
	return nil
}

func (m *memStore) Load(ctx context.Context, name string) (*graph.Graph, error) {
	g, ok := m.graphs[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no graph %q", name)
	}
	return g, nil
}

func (m *memStore) List(ctx context.Context) ([]GraphInfo, error) {
	var out []GraphInfo
	for name := range m.graphs {
		out = append(out, GraphInfo{Name: name})
	}
	return out, nil
}

func (m *memStore) Delete(ctx context.Context, name string) error {
	if _, ok := m.graphs[name]; !ok {
		return errors.New(errors.ErrCodeNotFound, "no graph %q", name)
	}
	delete(m.graphs, name)
	return nil
}

func testServer(t *testing.T, graphs GraphStore) *Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
	return New(runner, graphs, logger, ":0")
}

func fruitRequest() weaveRequest {
	return weaveRequest{
		Flows: []dataset.FlowRecord{
			{Source: "farm1", Target: "Fred", Material: "fruit", Value: 10},
			{Source: "farm2", Target: "Susan", Material: "fruit", Value: 5},
		},
		ProcessDims: &tableRequest{
			Columns: []string{"type", "sex"},
			Rows: map[string]map[string]string{
				"farm1": {"type": "farm"},
				"farm2": {"type": "farm"},
				"Fred":  {"type": "customer", "sex": "Men"},
				"Susan": {"type": "customer", "sex": "Women"},
			},
		},
		Definition: sankey.DefinitionConfig{
			Nodes: map[string]sankey.NodeConfig{
				"farms": {Selector: `type == "farm"`},
				"customers": {
					Selector:  `type == "customer"`,
					Partition: &sankey.PartitionConfig{Column: "sex", Values: []string{"Men", "Women"}},
				},
			},
			Bundles:  []sankey.BundleConfig{{Source: "farms", Target: "customers"}},
			Ordering: [][]string{{"farms"}, {"customers"}},
		},
		Formats: []string{pipeline.FormatJSON, pipeline.FormatDOT},
	}
}

func postWeave(t *testing.T, s *Server, req weaveRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/weave", bytes.NewReader(body)))
	return rec
}

func TestWeaveEndpoint(t *testing.T) {
	s := testServer(t, nil)
	rec := postWeave(t, s, fruitRequest())

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp weaveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(resp.Graph.Nodes) != 3 || len(resp.Graph.Links) != 2 {
		t.Errorf("graph = %d nodes / %d links", len(resp.Graph.Nodes), len(resp.Graph.Links))
	}
	if resp.Graph.TotalValue() != 15 {
		t.Errorf("TotalValue() = %v, want 15", resp.Graph.TotalValue())
	}
	if resp.Diagnostics.UnmatchedCount != 0 {
		t.Errorf("diagnostics = %+v", resp.Diagnostics)
	}
	if resp.GraphHash == "" || resp.RequestID == "" {
		t.Errorf("missing hashes/ids: %+v", resp)
	}
	if !strings.Contains(string(resp.Artifacts[pipeline.FormatDOT]), "rankdir=LR") {
		t.Error("dot artifact missing")
	}
	if _, ok := resp.Artifacts[pipeline.FormatJSON]; ok {
		t.Error("json artifact should be dropped in favor of the graph field")
	}
}

func TestWeaveEndpoint_BadBody(t *testing.T) {
	s := testServer(t, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/weave", strings.NewReader("{")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestWeaveEndpoint_ConfigErrorIs400(t *testing.T) {
	s := testServer(t, nil)
	req := fruitRequest()
	req.Definition.Bundles[0].Target = "ghost"

	rec := postWeave(t, s, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Code != string(errors.ErrCodeUnknownNode) {
		t.Errorf("code = %q, want UNKNOWN_NODE", resp.Code)
	}
}

func TestWeaveEndpoint_SaveAs(t *testing.T) {
	store := newMemStore()
	s := testServer(t, store)
	req := fruitRequest()
	req.SaveAs = "fruit"

	if rec := postWeave(t, s, req); rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := store.graphs["fruit"]; !ok {
		t.Error("graph was not saved")
	}
}

func TestGraphEndpoints(t *testing.T) {
	store := newMemStore()
	store.graphs["fruit"] = &graph.Graph{
		Nodes: []graph.Node{{ID: "farms", Band: 0}},
	}
	s := testServer(t, store)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/graphs/fruit", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET graph status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/graphs/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET missing graph status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/graphs/fruit", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("DELETE graph status = %d, want 204", rec.Code)
	}
}

func TestGraphEndpoints_NotConfigured(t *testing.T) {
	s := testServer(t, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/graphs/", nil))
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	s := testServer(t, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequestIDEcho(t *testing.T) {
	s := testServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}
