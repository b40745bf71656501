// Package server is the thin HTTP boundary over the ingestion subsystem. It
// decodes uploads, runs them through the ingestion service and shapes success
// and error payloads; no business logic lives here.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/yekaditya11/shindler-oicc-sub001/internal/cleaner"
	"github.com/yekaditya11/shindler-oicc-sub001/internal/database"
	"github.com/yekaditya11/shindler-oicc-sub001/internal/ingestion"
	"github.com/yekaditya11/shindler-oicc-sub001/internal/schema"
)

type UploadService struct {
	svc           *ingestion.Service
	store         database.Store
	catalog       *schema.Catalog
	logger        *logrus.Logger
	maxUploadSize int64
}

func NewUploadService(svc *ingestion.Service, store database.Store, catalog *schema.Catalog, logger *logrus.Logger, maxUploadSize int64) *UploadService {
	return &UploadService{svc: svc, store: store, catalog: catalog, logger: logger, maxUploadSize: maxUploadSize}
}

// HandleUpload ingests one multipart-uploaded spreadsheet.
func (h *UploadService) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "could not parse multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing 'file' form field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "could not read upload body")
		return
	}

	sourceRef := r.FormValue("source_reference")
	if sourceRef == "" {
		sourceRef = "upload://" + uuid.NewString()
	}

	report, err := h.svc.Ingest(r.Context(), header.Filename, data, sourceRef)
	if err != nil {
		h.writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleGetUpload returns one upload audit record.
func (h *UploadService) HandleGetUpload(w http.ResponseWriter, r *http.Request) {
	uploadID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "upload id must be an integer")
		return
	}

	rec, err := h.store.GetUpload(r.Context(), uploadID)
	if err != nil {
		if errors.Is(err, database.ErrUploadNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err.Error())
			return
		}
		h.logger.WithError(err).Error("failed to load upload record")
		writeError(w, http.StatusInternalServerError, "internal", "failed to load upload record")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type registerSchemaRequest struct {
	Name            string   `json:"name"`
	ExpectedColumns []string `json:"expected_columns"`
	IsAugmented     bool     `json:"is_augmented"`
}

// HandleRegisterSchema publishes a new schema definition at runtime.
func (h *UploadService) HandleRegisterSchema(w http.ResponseWriter, r *http.Request) {
	var req registerSchemaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Name == "" || len(req.ExpectedColumns) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "name and expected_columns are required")
		return
	}

	if err := h.catalog.Register(req.Name, req.ExpectedColumns, req.IsAugmented); err != nil {
		if errors.Is(err, schema.ErrDuplicateSchema) {
			writeError(w, http.StatusConflict, "duplicate_schema", err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": req.Name})
}

// HandleListSchemas returns every known schema definition.
func (h *UploadService) HandleListSchemas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.All())
}

func (h *UploadService) writeIngestError(w http.ResponseWriter, err error) {
	if inputErr, ok := ingestion.AsInputError(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, inputErr)
		return
	}
	switch {
	case errors.Is(err, cleaner.ErrUnknownSchema):
		writeError(w, http.StatusUnprocessableEntity, "unknown_schema", err.Error())
	case errors.Is(err, ingestion.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
	case errors.Is(err, ingestion.ErrVersioningConflict):
		writeError(w, http.StatusConflict, "versioning_conflict", err.Error())
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "request_cancelled", err.Error())
	default:
		h.logger.WithError(err).Error("ingestion failed")
		writeError(w, http.StatusInternalServerError, "internal", "ingestion failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorPayload struct {
	Kind   string `json:"error_kind"`
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, kind, detail string) {
	writeJSON(w, status, errorPayload{Kind: kind, Detail: detail})
}
