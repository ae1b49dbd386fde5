// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/enconsulting/projectdesk/internal/models"
)

// maxUploadBytes caps a single document upload (multipart overhead included).
const maxUploadBytes = 32 << 20

// ListDocuments handles GET /projects/{projectID}/documents. Content is
// excluded from the listing; fetch individual documents to download.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	projectID, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanViewProject(r.Context(), act, projectID)
	if !requireAllowed(w, allowed, err) {
		return
	}

	docs, err := h.db.ListDocuments(r.Context(), projectID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, docs)
}

// UploadDocument handles POST /projects/{projectID}/documents. The file
// arrives as the "file" part of a multipart form.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	projectID, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanUploadDocument(r.Context(), act, projectID)
	if !requireAllowed(w, allowed, err) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_UPLOAD", "expected multipart form with a file part")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_UPLOAD", "missing file part")
		return
	}
	defer file.Close()

	// Strip any client-supplied directory components.
	filename := filepath.Base(header.Filename)
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		respondError(w, http.StatusBadRequest, "INVALID_UPLOAD", "missing filename")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_UPLOAD", "failed to read file")
		return
	}

	doc, err := h.db.CreateDocument(r.Context(), projectID, filename, content, act.ID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusCreated, doc)
}

// DownloadDocument handles GET /projects/{projectID}/documents/{docID} and
// streams the stored bytes back as an attachment.
func (h *Handler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	projectID, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	docID, ok := urlID(w, r, "docID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanViewProject(r.Context(), act, projectID)
	if !requireAllowed(w, allowed, err) {
		return
	}

	doc, err := h.db.GetDocument(r.Context(), docID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if doc.ProjectID != projectID {
		respondAppError(w, models.ErrNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(doc.Content)))
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Content)
}

// DeleteDocument handles DELETE /projects/{projectID}/documents/{docID}.
// Employees may only delete documents they uploaded.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	projectID, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	docID, ok := urlID(w, r, "docID")
	if !ok {
		return
	}

	// View rights gate the lookup so outsiders cannot distinguish a
	// missing document from a forbidden one.
	allowed, err := h.engine.CanViewProject(r.Context(), act, projectID)
	if !requireAllowed(w, allowed, err) {
		return
	}

	doc, err := h.db.GetDocument(r.Context(), docID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if doc.ProjectID != projectID {
		respondAppError(w, models.ErrNotFound)
		return
	}

	allowed, err = h.engine.CanDeleteDocument(r.Context(), act, projectID, doc.UploadedBy)
	if !requireAllowed(w, allowed, err) {
		return
	}

	if err := h.db.DeleteDocument(r.Context(), docID); err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"deleted": true})
}
