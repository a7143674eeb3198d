package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lakshminarasimha6802/sheetsql/domain/model"
	"github.com/lakshminarasimha6802/sheetsql/internal/anomaly"
	"github.com/lakshminarasimha6802/sheetsql/internal/export"
	"github.com/lakshminarasimha6802/sheetsql/internal/insights"
	"github.com/lakshminarasimha6802/sheetsql/internal/logging"
	"github.com/lakshminarasimha6802/sheetsql/internal/storage"
)

type tablesResponse struct {
	Tables []storage.TableInfo `json:"tables"`
}

// handleTables lists the imported tables with their row counts.
func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.Store.Tables(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tablesResponse{Tables: tables})
}

// handleRows returns a page of table rows. The q parameter filters
// rows by substring match across all columns.
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", storage.DefaultBrowseLimit)
	if err != nil {
		s.respondErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := intQuery(r, "offset", 0)
	if err != nil {
		s.respondErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}

	table := model.TableName(chi.URLParam(r, "table"))
	result, err := s.Store.Browse(r.Context(), table, r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleDropTable deletes a table and its rows.
func (s *Server) handleDropTable(w http.ResponseWriter, r *http.Request) {
	table := model.TableName(chi.URLParam(r, "table"))
	if err := s.Store.Drop(r.Context(), table); err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.InfoContext(r.Context(), "table dropped", "table", table.String())
	w.WriteHeader(http.StatusNoContent)
}

// handleExport streams a table to the client as a download. Format and
// compression come from query parameters, defaulting to plain CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	compression, err := export.ParseCompression(r.URL.Query().Get("compression"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	opts := export.Options{Format: format, Compression: compression}
	table := model.TableName(chi.URLParam(r, "table"))

	// Resolve the table before committing to a 200, so a missing
	// table still gets its status code.
	if _, err := s.Store.Columns(r.Context(), table); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", opts.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", opts.Filename(table)))
	if err := export.Write(r.Context(), s.Store, table, opts, w); err != nil {
		// The response is already streaming, so the truncated body is
		// the only signal the client gets.
		logging.ErrorContext(r.Context(), "export stream failed",
			"table", table.String(), "error", err)
	}
}

// handleInsights returns per-column summary statistics for a table.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	table := model.TableName(chi.URLParam(r, "table"))
	report, err := insights.Analyze(r.Context(), s.Store, table)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// handleAnomalies scores the numeric rows of a table and returns the
// ones flagged as outliers.
func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	table := model.TableName(chi.URLParam(r, "table"))
	report, err := anomaly.Detect(r.Context(), s.Store, table, s.Detector)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}
