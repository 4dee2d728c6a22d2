// Package api provides the HTTP handlers for the CPE report toolkit API.
package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"

	"github.com/solatis/cpereport/internal/catalog"
	"github.com/solatis/cpereport/internal/core/auth"
	"github.com/solatis/cpereport/internal/core/db"
)

// Service implements the JSON API over the report toolkit.
// Thin orchestration layer delegating to the report, rules, extract, and
// catalog packages.
type Service struct {
	logger  log.Logger
	catalog *catalog.Catalog
	queries *db.Queries // nil without a configured store
	auth    *auth.Authenticator
	dataDir string

	jsonlMutexes map[string]*sync.Mutex
	mutexLock    sync.Mutex
}

// NewService creates the service. queries and authn may be nil: without a
// store the rule-set CRUD and run history routes answer 503, and without
// secrets the API runs open.
func NewService(logger log.Logger, cat *catalog.Catalog, queries *db.Queries, authn *auth.Authenticator, dataDir string) (*Service, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}

	if dataDir != "" {
		if err := os.MkdirAll(filepath.Join(dataDir, "runs"), 0755); err != nil {
			return nil, err
		}
	}

	return &Service{
		logger:       logger,
		catalog:      cat,
		queries:      queries,
		auth:         authn,
		dataDir:      dataDir,
		jsonlMutexes: make(map[string]*sync.Mutex),
	}, nil
}

// Router builds the route table. All /v1 routes pass through
// authentication; the health check stays open for probes.
func (s *Service) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(s.logRequests)
	if s.auth != nil {
		v1.Use(s.auth.Middleware)
	}

	v1.HandleFunc("/convert", s.handleConvert).Methods(http.MethodPost)
	v1.HandleFunc("/validate", s.handleValidate).Methods(http.MethodPost)
	v1.HandleFunc("/extract", s.handleExtract).Methods(http.MethodPost)
	v1.HandleFunc("/inspect", s.handleInspect).Methods(http.MethodPost)

	v1.HandleFunc("/rulesets", s.handleListRuleSets).Methods(http.MethodGet)
	v1.HandleFunc("/rulesets/{name}", s.handleGetRuleSet).Methods(http.MethodGet)
	v1.HandleFunc("/rulesets/{name}", s.handlePutRuleSet).Methods(http.MethodPut)
	v1.HandleFunc("/rulesets/{name}", s.handleDeleteRuleSet).Methods(http.MethodDelete)

	v1.HandleFunc("/runs", s.handleListRuns).Methods(http.MethodGet)

	return r
}

// handleHealth reports liveness, plus store reachability when configured.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.queries != nil {
		if err := s.queries.Ping(r.Context()); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// logRequests records per-request outcomes.
func (s *Service) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		level.Debug(s.logger).Log(
			"msg", "request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// getJSONLMutex returns the mutex for a given filename, creating it on
// first use. Per-file mutexes protect concurrent appends to the same
// daily audit file; the map grows by one entry per day.
func (s *Service) getJSONLMutex(filename string) *sync.Mutex {
	s.mutexLock.Lock()
	defer s.mutexLock.Unlock()

	if _, ok := s.jsonlMutexes[filename]; !ok {
		s.jsonlMutexes[filename] = &sync.Mutex{}
	}
	return s.jsonlMutexes[filename]
}
