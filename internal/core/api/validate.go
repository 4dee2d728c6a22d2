package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-kit/log/level"

	"github.com/solatis/cpereport/internal/catalog"
	"github.com/solatis/cpereport/internal/report"
	"github.com/solatis/cpereport/internal/rules"
	"github.com/solatis/cpereport/internal/types"
)

type validateRequest struct {
	Report        json.RawMessage `json:"report"`
	RuleSet       string          `json:"ruleset,omitempty"`
	RuleSetSource string          `json:"ruleset_source,omitempty"`
	Format        string          `json:"format,omitempty"`
}

type validateResponse struct {
	RunID       types.RunID `json:"run_id"`
	GeneratedAt string      `json:"generated_at"`
	*rules.ValidationResult
}

// handleValidate checks a report against a rule set. The rule set comes
// from the request body, a named catalog entry, or the built-in default,
// in that order.
func (s *Service) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if len(req.Report) == 0 {
		s.badRequest(w, "report field is required")
		return
	}

	format, err := report.ParseFormat(req.Format)
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}

	norm, err := report.Normalize(req.Report, format)
	if err != nil {
		s.writeError(w, err)
		return
	}

	compiled, ruleWarnings, err := s.resolveRuleSet(r.Context(), &req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res := rules.Validate(norm.Flat, compiled)
	res.Warnings = mergeWarnings(norm.Warnings, ruleWarnings)

	runID := types.NewRunID()
	generatedAt := time.Now().UTC()
	s.auditRun(r.Context(), runID, res, generatedAt)

	s.writeJSON(w, http.StatusOK, validateResponse{
		RunID:            runID,
		GeneratedAt:      generatedAt.Format(time.RFC3339),
		ValidationResult: res,
	})
}

// resolveRuleSet picks the rule set a validation request asks for.
func (s *Service) resolveRuleSet(ctx context.Context, req *validateRequest) (*rules.CompiledRuleSet, []string, error) {
	if req.RuleSetSource != "" {
		return rules.ParseAndCompile([]byte(req.RuleSetSource))
	}

	var loaded *catalog.Loaded
	var err error
	if req.RuleSet != "" {
		loaded, err = s.catalog.Load(ctx, req.RuleSet)
	} else {
		loaded, err = s.catalog.LoadDefault(ctx)
	}
	if err != nil {
		return nil, nil, err
	}

	compiled, warnings, err := rules.Compile(loaded.RuleSet)
	return compiled, mergeWarnings(loaded.Warnings, warnings), err
}

func mergeWarnings(lists ...[]string) []string {
	var merged []string
	for _, l := range lists {
		merged = append(merged, l...)
	}
	return merged
}

// auditRun records a validation run in the store and the daily JSONL
// file. Both are best-effort debugging aids; a failure here never fails
// the request.
func (s *Service) auditRun(ctx context.Context, runID types.RunID, res *rules.ValidationResult, at time.Time) {
	createdAt := at.Format(time.RFC3339)

	if s.queries != nil {
		_, err := s.queries.Exec(ctx, "insert-validation-run",
			runID, res.RuleSet, res.Version, res.ReportKeys,
			res.Stats.Expected, res.Stats.Found, res.Stats.Missing,
			res.Stats.TotalInstances, res.Stats.SuccessRate, createdAt)
		if err != nil {
			level.Warn(s.logger).Log("msg", "failed to record validation run", "run_id", runID, "err", err)
		}
	}

	if s.dataDir == "" {
		return
	}

	// One file per day; all runs of a request land in the file chosen at
	// request time even if processing spans midnight
	filename := filepath.Join(s.dataDir, "runs", at.Format("2006-01-02")+".jsonl")
	mu := s.getJSONLMutex(filename)
	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		level.Warn(s.logger).Log("msg", "failed to open audit file", "file", filename, "err", err)
		return
	}
	defer f.Close()

	record := map[string]interface{}{
		"run_id":      runID,
		"ruleset":     res.RuleSet,
		"version":     res.Version,
		"report_keys": res.ReportKeys,
		"stats":       res.Stats,
		"created_at":  createdAt,
	}
	if err := json.NewEncoder(f).Encode(record); err != nil {
		level.Warn(s.logger).Log("msg", "failed to append audit record", "file", filename, "err", err)
	}
}
