// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"
	"strconv"

	"github.com/MKhiriev/go-offline-sync/internal/app"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	collection := chi.URLParam(r, "collection")

	q := r.URL.Query()
	filter, err := parseFilter(q.Get("filter"))
	if err != nil {
		log.Err(err).Str("func", "*Handler.listRecords").Msg(app.MsgInvalidFilter)
		utils.WriteError(w, http.StatusBadRequest, app.MsgInvalidFilter)
		return
	}

	query := service.ListQuery{Filter: filter}
	query.Page, _ = strconv.Atoi(q.Get("page"))
	query.PerPage, _ = strconv.Atoi(q.Get("perPage"))

	list, err := h.services.RecordService.List(r.Context(), collection, query)
	if err != nil {
		log.Err(err).Str("func", "*Handler.listRecords").Str("collection", collection).Msg("error listing records")
		writeServiceError(w, err)
		return
	}

	utils.WriteJSON(w, list, http.StatusOK)
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	collection, id := chi.URLParam(r, "collection"), chi.URLParam(r, "id")

	rec, err := h.services.RecordService.Get(r.Context(), collection, id)
	if err != nil {
		log.Err(err).Str("func", "*Handler.getRecord").Str("collection", collection).Str("id", id).Msg("error getting record")
		writeServiceError(w, err)
		return
	}

	utils.WriteJSON(w, rec, http.StatusOK)
}

func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	collection := chi.URLParam(r, "collection")

	body, files, ok := h.readRecordPayload(w, r, "*Handler.createRecord")
	if !ok {
		return
	}

	rec, err := h.services.RecordService.Create(r.Context(), collection, body, files)
	if err != nil {
		log.Err(err).Str("func", "*Handler.createRecord").Str("collection", collection).Msg("error creating record")
		writeServiceError(w, err)
		return
	}

	utils.WriteJSON(w, rec, http.StatusOK)
}

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	collection, id := chi.URLParam(r, "collection"), chi.URLParam(r, "id")

	body, files, ok := h.readRecordPayload(w, r, "*Handler.updateRecord")
	if !ok {
		return
	}

	rec, err := h.services.RecordService.Update(r.Context(), collection, id, body, files)
	if err != nil {
		log.Err(err).Str("func", "*Handler.updateRecord").Str("collection", collection).Str("id", id).Msg("error updating record")
		writeServiceError(w, err)
		return
	}

	utils.WriteJSON(w, rec, http.StatusOK)
}

func (h *Handler) upsertRecord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	collection := chi.URLParam(r, "collection")

	body, files, ok := h.readRecordPayload(w, r, "*Handler.upsertRecord")
	if !ok {
		return
	}

	rec, err := h.services.RecordService.Upsert(r.Context(), collection, body, files)
	if err != nil {
		log.Err(err).Str("func", "*Handler.upsertRecord").Str("collection", collection).Msg("error upserting record")
		writeServiceError(w, err)
		return
	}

	utils.WriteJSON(w, rec, http.StatusOK)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	collection, id := chi.URLParam(r, "collection"), chi.URLParam(r, "id")

	if err := h.services.RecordService.Delete(r.Context(), collection, id); err != nil {
		log.Err(err).Str("func", "*Handler.deleteRecord").Str("collection", collection).Str("id", id).Msg("error deleting record")
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getSchema(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	collection := chi.URLParam(r, "collection")

	schema, err := h.services.RecordService.Schema(r.Context(), collection)
	if err != nil {
		log.Err(err).Str("func", "*Handler.getSchema").Str("collection", collection).Msg("error describing collection")
		writeServiceError(w, err)
		return
	}

	utils.WriteJSON(w, schema, http.StatusOK)
}

func (h *Handler) getFile(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	collection, id, filename := chi.URLParam(r, "collection"), chi.URLParam(r, "id"), chi.URLParam(r, "filename")

	data, err := h.services.RecordService.File(r.Context(), collection, id, filename)
	if err != nil {
		log.Err(err).Str("func", "*Handler.getFile").Str("collection", collection).Str("id", id).Msg("error reading file")
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) readRecordPayload(w http.ResponseWriter, r *http.Request, fn string) (map[string]any, []models.FileAttachment, bool) {
	body, files, err := decodeRecordPayload(r)
	if err != nil {
		msg := app.MsgInvalidJSON
		if isMultipart(r) {
			msg = app.MsgInvalidMultipart
		}
		logger.FromRequest(r).Err(err).Str("func", fn).Msg(msg)
		utils.WriteError(w, http.StatusBadRequest, msg)
		return nil, nil, false
	}
	return body, files, true
}
