// Package server implements the HTTP API: weave-on-demand plus named
// graph storage, with Prometheus metrics and per-request logging.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowweave/flowweave/pkg/dataset"
	"github.com/flowweave/flowweave/pkg/errors"
	"github.com/flowweave/flowweave/pkg/graph"
	"github.com/flowweave/flowweave/pkg/pipeline"
	"github.com/flowweave/flowweave/pkg/sankey"
	"github.com/flowweave/flowweave/pkg/sankey/weave"
)

// GraphStore is the persistence interface for named graphs. The mongo
// store implements it; a nil store disables the /v1/graphs endpoints.
type GraphStore interface {
	Save(ctx context.Context, name string, g *graph.Graph, graphHash string) error
	Load(ctx context.Context, name string) (*graph.Graph, error)
	List(ctx context.Context) ([]GraphInfo, error)
	Delete(ctx context.Context, name string) error
}

// GraphInfo summarizes a stored graph.
type GraphInfo struct {
	Name      string    `json:"name"`
	GraphHash string    `json:"graph_hash"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Server wires the pipeline runner and graph store into an HTTP API.
type Server struct {
	runner *pipeline.Runner
	graphs GraphStore
	logger *log.Logger
	server *http.Server
}

// New creates a server listening on addr. A nil graph store disables
// persistence endpoints; a nil logger falls back to log.Default().
func New(runner *pipeline.Runner, graphs GraphStore, logger *log.Logger, addr string) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{runner: runner, graphs: graphs, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(recoverPanics)
	r.Use(measureRequests)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/weave", s.handleWeave)
		r.Route("/graphs", func(r chi.Router) {
			r.Get("/", s.handleListGraphs)
			r.Get("/{name}", s.handleGetGraph)
			r.Put("/{name}", s.handleSaveGraph)
			r.Delete("/{name}", s.handleDeleteGraph)
		})
	})

	s.server = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// ListenAndServe runs the server until the listener fails or Shutdown
// is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// tableRequest is the wire form of a dimension table.
type tableRequest struct {
	Columns []string                     `json:"columns"`
	Rows    map[string]map[string]string `json:"rows"`
}

func (t *tableRequest) build() (*dataset.DimensionTable, error) {
	if t == nil {
		return nil, nil
	}
	table := dataset.NewDimensionTable(t.Columns...)
	for id, values := range t.Rows {
		if err := table.AddRow(id, values); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// weaveRequest is the POST /v1/weave body.
type weaveRequest struct {
	Flows       []dataset.FlowRecord     `json:"flows"`
	ProcessDims *tableRequest            `json:"process_dims,omitempty"`
	FlowDims    *tableRequest            `json:"flow_dims,omitempty"`
	Definition  sankey.DefinitionConfig  `json:"definition"`
	Formats     []string                 `json:"formats,omitempty"`
	Detailed    bool                     `json:"detailed,omitempty"`
	Refresh     bool                     `json:"refresh,omitempty"`

	// SaveAs persists the woven graph under this name when set.
	SaveAs string `json:"save_as,omitempty"`
}

// weaveResponse is the POST /v1/weave reply. Artifact bytes are
// base64-encoded by the JSON encoder.
type weaveResponse struct {
	Graph       *graph.Graph       `json:"graph"`
	Diagnostics weave.Diagnostics  `json:"diagnostics"`
	GraphHash   string             `json:"graph_hash"`
	Artifacts   map[string][]byte  `json:"artifacts,omitempty"`
	CacheHit    bool               `json:"cache_hit"`
	RequestID   string             `json:"request_id"`
}

func (s *Server) handleWeave(w http.ResponseWriter, r *http.Request) {
	var req weaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	procDims, err := req.ProcessDims.build()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	flowDims, err := req.FlowDims.build()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var dsOpts []dataset.Option
	if procDims != nil {
		dsOpts = append(dsOpts, dataset.WithProcessDims(procDims))
	}
	if flowDims != nil {
		dsOpts = append(dsOpts, dataset.WithFlowDims(flowDims))
	}
	ds, err := dataset.New(req.Flows, dsOpts...)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	def, err := req.Definition.Build()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	opts := pipeline.Options{
		Dataset:        ds,
		Definition:     def,
		DatasetHash:    hashJSON(req.Flows, req.ProcessDims, req.FlowDims),
		DefinitionHash: hashJSON(req.Definition),
		Formats:        req.Formats,
		Detailed:       req.Detailed,
		Refresh:        req.Refresh,
		Logger:         s.logger,
	}
	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if req.SaveAs != "" {
		if s.graphs == nil {
			writeError(w, r, http.StatusNotImplemented, "graph storage is not configured")
			return
		}
		if err := s.graphs.Save(r.Context(), req.SaveAs, result.Graph, result.GraphHash); err != nil {
			writeDomainError(w, r, err)
			return
		}
	}

	// The graph itself is the JSON artifact; don't ship it twice.
	delete(result.Artifacts, pipeline.FormatJSON)

	writeJSON(w, http.StatusOK, weaveResponse{
		Graph:       result.Graph,
		Diagnostics: result.Diagnostics,
		GraphHash:   result.GraphHash,
		Artifacts:   result.Artifacts,
		CacheHit:    result.CacheInfo.WeaveHit,
		RequestID:   requestIDFrom(r.Context()),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListGraphs(w http.ResponseWriter, r *http.Request) {
	if s.graphs == nil {
		writeError(w, r, http.StatusNotImplemented, "graph storage is not configured")
		return
	}
	infos, err := s.graphs.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if infos == nil {
		infos = []GraphInfo{}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	if s.graphs == nil {
		writeError(w, r, http.StatusNotImplemented, "graph storage is not configured")
		return
	}
	g, err := s.graphs.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleSaveGraph(w http.ResponseWriter, r *http.Request) {
	if s.graphs == nil {
		writeError(w, r, http.StatusNotImplemented, "graph storage is not configured")
		return
	}
	g, err := graph.Read(r.Body)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	data, err := graph.Marshal(g)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	name := chi.URLParam(r, "name")
	if err := s.graphs.Save(r.Context(), name, g, hashBytes(data)); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": name})
}

func (s *Server) handleDeleteGraph(w http.ResponseWriter, r *http.Request) {
	if s.graphs == nil {
		writeError(w, r, http.StatusNotImplemented, "graph storage is not configured")
		return
	}
	if err := s.graphs.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// errorResponse is the wire form of every error reply.
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		RequestID: requestIDFrom(r.Context()),
	})
}

// writeDomainError maps coded errors to HTTP statuses: configuration and
// data errors are the client's fault, unknown names are 404, everything
// else is a 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := errors.GetCode(err)
	switch {
	case code == errors.ErrCodeNotFound || code == errors.ErrCodeFileNotFound:
		status = http.StatusNotFound
	case errors.IsConfig(err) || errors.IsData(err):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{
		Error:     err.Error(),
		Code:      string(code),
		RequestID: requestIDFrom(r.Context()),
	})
}
