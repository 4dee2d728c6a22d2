package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/solatis/cpereport/internal/types"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 500
)

// handleListRuns returns recent validation runs, newest first.
func (s *Service) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.queries == nil {
		s.writeError(w, types.ErrNoStore)
		return
	}

	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.badRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxRunsLimit {
		limit = maxRunsLimit
	}

	type runRow struct {
		RunID          string  `db:"run_id" json:"run_id"`
		RuleSetName    string  `db:"ruleset_name" json:"ruleset"`
		RuleSetVersion string  `db:"ruleset_version" json:"version,omitempty"`
		ReportKeys     int     `db:"report_keys" json:"report_keys"`
		TotalExpected  int     `db:"total_expected" json:"total_expected"`
		TotalFound     int     `db:"total_found" json:"total_found"`
		TotalMissing   int     `db:"total_missing" json:"total_missing"`
		TotalInstances int     `db:"total_instances" json:"total_instances"`
		SuccessRate    float64 `db:"success_rate" json:"success_rate"`
		CreatedAt      string  `db:"created_at" json:"created_at"`
	}

	runs := []runRow{}
	if err := s.queries.Select(r.Context(), "list-validation-runs", &runs, limit); err != nil {
		s.writeError(w, fmt.Errorf("failed to query validation runs: %w", err))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}
