package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/devadoot/devadoot/agent"
	"github.com/devadoot/devadoot/artifact"
	"github.com/devadoot/devadoot/cases"
	"github.com/devadoot/devadoot/internal/uuidutil"
	"github.com/devadoot/devadoot/logger"
	"github.com/devadoot/devadoot/storage"
)

// maxUploadBytes caps artifact upload size at 50MB.
const maxUploadBytes = 50 << 20

// CaseHandler handles case lifecycle and artifact upload requests.
type CaseHandler struct {
	caseStore     cases.Store
	artifactStore artifact.Store
	blobStorage   storage.BlobStorage
	logger        logger.Logger
}

// NewCaseHandler creates a new case handler.
func NewCaseHandler(caseStore cases.Store, artifactStore artifact.Store, blobStorage storage.BlobStorage, log logger.Logger) *CaseHandler {
	return &CaseHandler{
		caseStore:     caseStore,
		artifactStore: artifactStore,
		blobStorage:   blobStorage,
		logger:        log,
	}
}

// CreateCaseRequest represents a case creation request. The rule
// snapshot is frozen into the case so later agent edits do not shift
// an active session.
type CreateCaseRequest struct {
	AgentID      uuid.UUID          `json:"agentId"`
	URL          string             `json:"url"`
	Site         string             `json:"site"`
	RuleSnapshot agent.RuleSnapshot `json:"ruleSnapshot"`
}

// CreateCaseResponse carries the id of a newly opened case.
type CreateCaseResponse struct {
	CaseID uuid.UUID `json:"caseId"`
}

// CaseResponse represents a case with its collected artifacts.
type CaseResponse struct {
	*cases.Case
	Artifacts []*artifact.Artifact `json:"artifacts"`
}

// ListCasesResponse carries a filtered case listing.
type ListCasesResponse struct {
	Cases []*cases.Case `json:"cases"`
}

// UploadArtifactResponse carries the stored location of an uploaded
// artifact.
type UploadArtifactResponse struct {
	ArtifactID uuid.UUID `json:"artifactId"`
	S3Key      string    `json:"s3Key"`
	S3URL      string    `json:"s3Url"`
}

// Create handles opening a new case.
func (h *CaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCaseRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := &cases.Case{
		AgentID:        req.AgentID,
		URL:            req.URL,
		Site:           req.Site,
		RuleNL:         req.RuleSnapshot.NL,
		RuleStructured: req.RuleSnapshot.Structured,
	}

	if err := h.caseStore.Create(r.Context(), c); err != nil {
		if errors.Is(err, cases.ErrInvalidAgentID) || errors.Is(err, cases.ErrInvalidURL) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to create case", map[string]interface{}{
			"error":    err.Error(),
			"agent_id": req.AgentID,
		})
		respondError(w, http.StatusInternalServerError, "failed to create case")
		return
	}

	respondJSON(w, http.StatusCreated, CreateCaseResponse{CaseID: c.ID})
}

// GetByID handles getting a case together with its artifacts.
func (h *CaseHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "case")
	if !ok {
		return
	}

	c, err := h.caseStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, cases.ErrCaseNotFound) {
			respondError(w, http.StatusNotFound, "case not found")
			return
		}
		h.logger.Error(r.Context(), "failed to get case", map[string]interface{}{
			"error":   err.Error(),
			"case_id": id,
		})
		respondError(w, http.StatusInternalServerError, "failed to get case")
		return
	}

	artifacts, err := h.artifactStore.ListByCase(r.Context(), id)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list case artifacts", map[string]interface{}{
			"error":   err.Error(),
			"case_id": id,
		})
		respondError(w, http.StatusInternalServerError, "failed to list case artifacts")
		return
	}

	respondJSON(w, http.StatusOK, CaseResponse{Case: c, Artifacts: artifacts})
}

// List handles listing cases with optional agent and status filters.
func (h *CaseHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := cases.Filter{}

	if agentIDStr := r.URL.Query().Get("agentId"); agentIDStr != "" {
		agentID, err := uuidutil.Parse(agentIDStr)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid agent ID: must be a valid UUID")
			return
		}
		filter.AgentID = agentID
	}

	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status := cases.Status(statusStr)
		if !status.IsValid() {
			respondError(w, http.StatusBadRequest, "invalid status: must be open or closed")
			return
		}
		filter.Status = status
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			filter.Limit = l
		}
	}

	results, err := h.caseStore.List(r.Context(), filter)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list cases", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list cases")
		return
	}

	respondJSON(w, http.StatusOK, ListCasesResponse{Cases: results})
}

// Close handles closing a case.
func (h *CaseHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "case")
	if !ok {
		return
	}

	_, err := h.caseStore.Close(r.Context(), id)
	if err != nil {
		if errors.Is(err, cases.ErrCaseNotFound) {
			respondError(w, http.StatusNotFound, "case not found")
			return
		}
		if errors.Is(err, cases.ErrCaseClosed) {
			respondError(w, http.StatusConflict, "case is already closed")
			return
		}
		h.logger.Error(r.Context(), "failed to close case", map[string]interface{}{
			"error":   err.Error(),
			"case_id": id,
		})
		respondError(w, http.StatusInternalServerError, "failed to close case")
		return
	}

	respondOK(w)
}

// Upload handles uploading an artifact for a case. The artifact data
// arrives either as a "file" multipart part or as a "json" form field.
func (h *CaseHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "case")
	if !ok {
		return
	}

	if _, err := h.caseStore.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, cases.ErrCaseNotFound) {
			respondError(w, http.StatusNotFound, "case not found")
			return
		}
		h.logger.Error(r.Context(), "failed to get case", map[string]interface{}{
			"error":   err.Error(),
			"case_id": id,
		})
		respondError(w, http.StatusInternalServerError, "failed to get case")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form or file too large")
		return
	}

	kind := artifact.Kind(r.FormValue("kind"))
	if !kind.IsValid() {
		respondError(w, http.StatusBadRequest, "invalid artifact kind")
		return
	}

	data, contentType, err := h.readUploadPayload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := fmt.Sprintf("cases/%s/%s-%d%s",
		id, kind, time.Now().UnixMilli(), artifact.ExtensionForKind(kind))

	if err := h.blobStorage.Upload(r.Context(), key, bytes.NewReader(data)); err != nil {
		h.logger.Error(r.Context(), "failed to upload artifact", map[string]interface{}{
			"error":   err.Error(),
			"case_id": id,
			"kind":    string(kind),
		})
		respondError(w, http.StatusInternalServerError, "failed to store artifact")
		return
	}

	storageURL, err := h.blobStorage.URL(r.Context(), key)
	if err != nil {
		h.logger.Warn(r.Context(), "failed to build artifact URL", map[string]interface{}{
			"error": err.Error(),
			"key":   key,
		})
	}

	a := &artifact.Artifact{
		CaseID:      id,
		Kind:        kind,
		StorageKey:  key,
		StorageURL:  storageURL,
		SizeBytes:   int64(len(data)),
		ContentType: contentType,
	}

	if err := h.artifactStore.Create(r.Context(), a); err != nil {
		h.logger.Error(r.Context(), "failed to record artifact", map[string]interface{}{
			"error":   err.Error(),
			"case_id": id,
			"kind":    string(kind),
		})
		respondError(w, http.StatusInternalServerError, "failed to record artifact")
		return
	}

	respondJSON(w, http.StatusCreated, UploadArtifactResponse{
		ArtifactID: a.ID,
		S3Key:      a.StorageKey,
		S3URL:      a.StorageURL,
	})
}

// readUploadPayload extracts the artifact bytes from the multipart form,
// preferring a file part over an inline json field.
func (h *CaseHandler) readUploadPayload(r *http.Request) ([]byte, string, error) {
	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read uploaded file")
		}
		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return data, contentType, nil
	}

	if jsonField := r.FormValue("json"); jsonField != "" {
		return []byte(jsonField), "application/json", nil
	}

	return nil, "", fmt.Errorf("file part or json field is required")
}
