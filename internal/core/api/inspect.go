package api

import (
	"encoding/json"
	"net/http"

	"github.com/solatis/cpereport/internal/report"
)

type inspectRequest struct {
	Report json.RawMessage `json:"report"`
	Grep   string          `json:"grep,omitempty"`
	Keys   bool            `json:"keys,omitempty"`
}

type inspectResponse struct {
	Stats    report.ReportStats `json:"stats"`
	Keys     []string           `json:"keys,omitempty"`
	Warnings []string           `json:"warnings,omitempty"`
}

// handleInspect reports structural statistics for a document, plus its
// flat key list when asked. Stats work on any decodable JSON; the key
// list needs a normalizable report.
func (s *Service) handleInspect(w http.ResponseWriter, r *http.Request) {
	var req inspectRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if len(req.Report) == 0 {
		s.badRequest(w, "report field is required")
		return
	}

	decoded, err := report.DecodeValue(req.Report)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := inspectResponse{Stats: report.Describe(decoded, len(req.Report))}

	if req.Keys || req.Grep != "" {
		norm, err := report.Normalize(req.Report, report.FormatAuto)
		if err != nil {
			s.writeError(w, err)
			return
		}
		flat := norm.Flat
		if req.Grep != "" {
			flat = flat.Filter(req.Grep)
		}
		resp.Keys = flat.Keys()
		resp.Warnings = norm.Warnings
	}

	s.writeJSON(w, http.StatusOK, resp)
}
