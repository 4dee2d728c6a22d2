package api

import (
	"encoding/json"
	"net/http"

	"github.com/solatis/cpereport/internal/extract"
	"github.com/solatis/cpereport/internal/report"
	"github.com/solatis/cpereport/internal/types"
)

type extractRequest struct {
	Report json.RawMessage `json:"report"`
	Format string          `json:"format,omitempty"`
	Render string          `json:"render,omitempty"`
	Name   string          `json:"name,omitempty"`
}

type extractResponse struct {
	RunID types.RunID `json:"run_id"`
	*extract.Extraction
}

// handleExtract generalizes a report's keys into wildcard patterns.
// Without render the extraction returns as JSON; with render the
// response is the rendered document.
func (s *Service) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
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

	ex := extract.Extract(norm.Flat)
	ex.Warnings = mergeWarnings(norm.Warnings, ex.Warnings)

	name := req.Name
	if name == "" {
		name = "Extracted Metrics"
	}

	switch req.Render {
	case "":
		s.writeJSON(w, http.StatusOK, extractResponse{RunID: types.NewRunID(), Extraction: ex})
	case "list":
		s.writeText(w, "text/plain; charset=utf-8", extract.RenderList(ex))
	case "rules":
		yamlText, err := extract.RenderRuleSetYAML(extract.AsRuleSet(ex, name))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeText(w, "application/yaml", yamlText)
	case "markdown":
		s.writeText(w, "text/markdown; charset=utf-8", extract.RenderMarkdown(ex, name))
	default:
		s.badRequest(w, `render must be "list", "rules", or "markdown"`)
	}
}
