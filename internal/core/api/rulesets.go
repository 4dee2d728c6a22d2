package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/solatis/cpereport/internal/catalog"
	"github.com/solatis/cpereport/internal/rules"
	"github.com/solatis/cpereport/internal/types"
)

type ruleSetListResponse struct {
	RuleSets []catalog.Entry `json:"rulesets"`
}

type ruleSetResponse struct {
	Origin   string         `json:"origin"`
	RuleSet  *types.RuleSet `json:"ruleset"`
	Warnings []string       `json:"warnings,omitempty"`
}

type putRuleSetResponse struct {
	Name     string   `json:"name"`
	Warnings []string `json:"warnings,omitempty"`
}

// handleListRuleSets lists every known rule set across catalog sources.
func (s *Service) handleListRuleSets(w http.ResponseWriter, r *http.Request) {
	entries, err := s.catalog.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ruleSetListResponse{RuleSets: entries})
}

// handleGetRuleSet returns one rule set, parsed or raw YAML with ?raw=1.
func (s *Service) handleGetRuleSet(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	loaded, err := s.catalog.Load(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if r.URL.Query().Get("raw") == "1" {
		s.writeText(w, "application/yaml", string(loaded.Source))
		return
	}

	s.writeJSON(w, http.StatusOK, ruleSetResponse{
		Origin:   loaded.Origin,
		RuleSet:  loaded.RuleSet,
		Warnings: loaded.Warnings,
	})
}

// handlePutRuleSet stores a rule set document after parse validation.
// The body is the raw YAML document; its name must match the URL.
func (s *Service) handlePutRuleSet(w http.ResponseWriter, r *http.Request) {
	if s.queries == nil {
		s.writeError(w, types.ErrNoStore)
		return
	}
	name := mux.Vars(r)["name"]

	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	compiled, warnings, err := rules.ParseAndCompile(body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if compiled.Name != name {
		s.badRequest(w, fmt.Sprintf("document name %q does not match URL name %q", compiled.Name, name))
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.queries.Exec(r.Context(), "upsert-ruleset",
		types.NewRuleSetID(), compiled.Name, compiled.Description, compiled.Version, string(body), now, now)
	if err != nil {
		s.writeError(w, fmt.Errorf("failed to store rule set: %w", err))
		return
	}

	s.writeJSON(w, http.StatusOK, putRuleSetResponse{Name: compiled.Name, Warnings: warnings})
}

// handleDeleteRuleSet removes a stored rule set. Built-in and directory
// entries are not deletable; only the database origin is writable.
func (s *Service) handleDeleteRuleSet(w http.ResponseWriter, r *http.Request) {
	if s.queries == nil {
		s.writeError(w, types.ErrNoStore)
		return
	}
	name := mux.Vars(r)["name"]

	result, err := s.queries.Exec(r.Context(), "delete-ruleset", name)
	if err != nil {
		s.writeError(w, fmt.Errorf("failed to delete rule set: %w", err))
		return
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		s.writeError(w, fmt.Errorf("%q: %w", name, types.ErrRuleSetNotFound))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
