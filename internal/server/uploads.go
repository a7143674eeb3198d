package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	sheetsql "github.com/lakshminarasimha6802/sheetsql"
	"github.com/lakshminarasimha6802/sheetsql/domain/model"
	"github.com/lakshminarasimha6802/sheetsql/internal/logging"
	"github.com/lakshminarasimha6802/sheetsql/internal/manifest"
	"github.com/lakshminarasimha6802/sheetsql/internal/metrics"
)

type uploadsResponse struct {
	Uploads []manifest.Record `json:"uploads"`
}

type sheetsResponse struct {
	Sheets []string `json:"sheets"`
}

// sheetSelectionResponse asks the client to pick a sheet before the
// upload can be staged.
type sheetSelectionResponse struct {
	Upload *manifest.Record `json:"upload"`
	Sheets []string         `json:"sheets"`
}

type planColumnPayload struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Storage string `json:"storage"`
}

type planResponse struct {
	Table   string              `json:"table"`
	Columns []planColumnPayload `json:"columns"`
}

type tablePreview struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// stagedResponse describes a parsed upload waiting for import
// confirmation.
type stagedResponse struct {
	Upload         *manifest.Record `json:"upload"`
	ArtifactID     string           `json:"artifact_id"`
	SuggestedTable string           `json:"suggested_table"`
	Plan           planResponse     `json:"plan"`
	RowCount       int              `json:"row_count"`
	Preview        tablePreview     `json:"preview"`
}

// handleUpload receives a multipart file, records it in the upload
// manifest and stages it for import. Workbooks uploaded without a
// sheet parameter get a sheet list back instead of a staged artifact.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.Config.MaxUploadBytes)

	if n, err := s.Artifacts.Sweep(s.Config.ArtifactTTL); err != nil {
		logging.WarnContext(r.Context(), "artifact sweep failed", "error", err)
	} else if n > 0 {
		logging.DebugContext(r.Context(), "swept expired artifacts", "count", n)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.respondError(w, r, err)
			return
		}
		s.respondErrorMsg(w, http.StatusBadRequest, "multipart form with a file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	if !validUploadName(header.Filename) {
		logging.SecurityEvent("rejected_filename", r.RemoteAddr, "filename", sanitizeForLog(header.Filename))
		s.respondErrorMsg(w, http.StatusBadRequest, "invalid filename")
		return
	}

	rec, err := s.Uploads.Add(file, header.Filename)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sheet := r.FormValue("sheet")
	if sheet == "" && model.NewFile(rec.SavedFilename).IsXLSX() {
		sheets, err := sheetsql.SheetNames(s.Uploads.FilePath(rec))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		logging.UploadEvent(r.Context(), sanitizeForLog(rec.OriginalName), rec.SizeBytes, "",
			"upload_id", rec.ID, "sheets", len(sheets))
		s.Metrics.IncCounter(metrics.MetricUploadsTotal, 1, metrics.Labels{"status": "awaiting_sheet"})
		respondJSON(w, http.StatusOK, sheetSelectionResponse{Upload: rec, Sheets: sheets})
		return
	}

	s.stageUpload(w, r, rec, sheet)
}

// stageUpload parses the saved upload and stores the normalized table
// as a staged artifact.
func (s *Server) stageUpload(w http.ResponseWriter, r *http.Request, rec *manifest.Record, sheet string) {
	opts := []sheetsql.Option{sheetsql.WithTableName(model.StripExtensions(rec.OriginalName))}
	if sheet != "" {
		opts = append(opts, sheetsql.WithSheet(sheet))
	}

	table, err := sheetsql.Ingest(s.Uploads.FilePath(rec), opts...)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if len(table.Columns()) > maxUploadColumns {
		s.respondErrorMsg(w, http.StatusBadRequest,
			fmt.Sprintf("table has %d columns, the limit is %d", len(table.Columns()), maxUploadColumns))
		return
	}
	if table.RowCount() == 0 {
		s.respondErrorMsg(w, http.StatusBadRequest, "uploaded file has no rows")
		return
	}

	artifactID, err := s.Artifacts.Put(table)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.UploadEvent(r.Context(), sanitizeForLog(rec.OriginalName), rec.SizeBytes, artifactID,
		"upload_id", rec.ID, "table", table.Name().String(), "rows", table.RowCount())
	s.Metrics.IncCounter(metrics.MetricUploadsTotal, 1, metrics.Labels{"status": "staged"})

	plan := model.PlanSchema(table)
	respondJSON(w, http.StatusCreated, stagedResponse{
		Upload:         rec,
		ArtifactID:     artifactID,
		SuggestedTable: table.Name().String(),
		Plan:           planPayload(plan),
		RowCount:       table.RowCount(),
		Preview: tablePreview{
			Columns: table.ColumnNames(),
			Rows:    table.Preview(s.Config.PreviewRows),
		},
	})
}

func planPayload(p *model.SchemaPlan) planResponse {
	columns := make([]planColumnPayload, 0, len(p.Columns()))
	for _, c := range p.Columns() {
		columns = append(columns, planColumnPayload{
			Name:    c.Name,
			Type:    c.Semantic.String(),
			Storage: c.Storage.String(),
		})
	}
	return planResponse{Table: p.Table().String(), Columns: columns}
}

// handleListUploads returns the manifest, newest upload first.
func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, uploadsResponse{Uploads: s.Uploads.List()})
}

// handleUploadSheets lists the sheets of an uploaded workbook.
func (s *Server) handleUploadSheets(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Uploads.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	sheets, err := sheetsql.SheetNames(s.Uploads.FilePath(rec))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sheetsResponse{Sheets: sheets})
}

type ingestRequest struct {
	Sheet string `json:"sheet"`
}

// handleIngest stages a previously uploaded file, optionally from a
// named sheet. A workbook staged without a sheet uses its first one.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Uploads.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErrorMsg(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.stageUpload(w, r, rec, req.Sheet)
}

// handleDeleteUpload removes an upload from the manifest along with
// its saved file.
func (s *Server) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	if err := s.Uploads.Remove(chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type importRequest struct {
	ArtifactID string `json:"artifact_id"`
	Table      string `json:"table"`
}

type importResponse struct {
	Action   string `json:"action"`
	Table    string `json:"table"`
	RowCount int    `json:"row_count"`
}

// handleImport loads a staged artifact into the store. The artifact is
// consumed on success; the upload it came from stays in the manifest.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErrorMsg(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ArtifactID == "" {
		s.respondErrorMsg(w, http.StatusBadRequest, "artifact_id is required")
		return
	}

	start := time.Now()
	table, err := s.Artifacts.Get(r.Context(), req.ArtifactID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Table != "" {
		table = model.NewNormalizedTable(model.NormalizeTableName(req.Table), table.Columns())
	}

	plan := model.PlanSchema(table)
	rows, err := model.NewRows(table, plan)
	if err != nil {
		s.importFailed(w, r, plan.Table(), err)
		return
	}
	result, err := s.Store.CreateOrAppend(r.Context(), plan, rows)
	if err != nil {
		s.importFailed(w, r, plan.Table(), err)
		return
	}

	// The staged copy is spent. The original upload is kept so the
	// file can be ingested again, into another table or sheet.
	if err := s.Artifacts.Delete(req.ArtifactID); err != nil {
		logging.WarnContext(r.Context(), "discard staged artifact",
			"artifact_id", req.ArtifactID, "error", err)
	}

	action := result.Action.String()
	logging.ImportEvent(r.Context(), result.Table.String(), action, result.Rows)
	s.Metrics.IncCounter(metrics.MetricImportsTotal, 1, metrics.Labels{"action": action, "status": "ok"})
	s.Metrics.IncCounter(metrics.MetricRowsLoaded, float64(result.Rows), metrics.Labels{"action": action})
	s.Metrics.ObserveHistogram(metrics.MetricImportDuration, time.Since(start).Seconds(), metrics.Labels{"action": action})

	respondJSON(w, http.StatusOK, importResponse{
		Action:   action,
		Table:    result.Table.String(),
		RowCount: result.Rows,
	})
}

// importFailed logs and counts a failed import, then reports it to
// the client.
func (s *Server) importFailed(w http.ResponseWriter, r *http.Request, table model.TableName, err error) {
	logging.ImportError(r.Context(), table.String(), err)
	s.Metrics.IncCounter(metrics.MetricImportsTotal, 1, metrics.Labels{"action": "none", "status": "error"})
	s.respondError(w, r, err)
}
