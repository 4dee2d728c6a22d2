package api

import (
	"encoding/json"
	"net/http"

	"github.com/solatis/cpereport/internal/report"
	"github.com/solatis/cpereport/internal/types"
)

type convertRequest struct {
	Report json.RawMessage `json:"report"`
	To     string          `json:"to"`
	Format string          `json:"format,omitempty"`
}

type convertResponse struct {
	RunID          types.RunID         `json:"run_id"`
	FormatDetected string              `json:"format_detected"`
	Result         interface{}         `json:"result"`
	Stats          report.ConvertStats `json:"stats"`
	Warnings       []string            `json:"warnings,omitempty"`
	Sample         string              `json:"sample,omitempty"`
}

// handleConvert converts a report between flat and tree form.
func (s *Service) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if len(req.Report) == 0 {
		s.badRequest(w, "report field is required")
		return
	}
	if req.To != "tree" && req.To != "flat" {
		s.badRequest(w, `to must be "tree" or "flat"`)
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

	resp := convertResponse{
		RunID:          types.NewRunID(),
		FormatDetected: norm.Format.String(),
		Stats:          norm.Stats,
		Warnings:       norm.Warnings,
	}

	if req.To == "flat" {
		resp.Result = norm.Flat
		s.writeJSON(w, http.StatusOK, resp)
		return
	}

	node, stats, err := report.Unflatten(norm.Flat)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp.Result = node
	resp.Stats = stats
	resp.Sample = report.Sample(node, 0, 0)
	s.writeJSON(w, http.StatusOK, resp)
}
