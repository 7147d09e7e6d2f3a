package report

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/report-management/internal/auth"
	"github.com/frahmantamala/report-management/internal/authz"
	"github.com/frahmantamala/report-management/internal/transport"
	"github.com/frahmantamala/report-management/pkg/logger"
)

const weekEndingLayout = "2006-01-02"

type Handler struct {
	*transport.BaseHandler
	Service        *Service
	maxUploadBytes int64
}

func NewHandler(service *Service, maxUploadBytes int64) *Handler {
	return &Handler{
		BaseHandler:    transport.NewBaseHandler(logger.L()),
		Service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

// SubmitReport accepts a multipart form with a weekEnding date and a PDF file.
func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	// a little slack over the ceiling so the store can report FILE_TOO_LARGE
	// instead of the parser failing opaquely
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	weekEnding, err := time.Parse(weekEndingLayout, r.FormValue("weekEnding"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "weekEnding must be a YYYY-MM-DD date")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "missing report file")
		return
	}
	defer file.Close()

	rep, err := h.Service.Submit(r.Context(), actor, SubmitReportDTO{
		WeekEnding:  weekEnding,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	})
	if err != nil {
		h.Logger.Error("SubmitReport: service error", "error", err, "actor_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, rep)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.reportID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid report ID")
		return
	}

	rep, err := h.Service.Get(r.Context(), actor, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rep)
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := pagination(r)

	reports, err := h.Service.ListForActor(r.Context(), actor, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, reports)
}

func (h *Handler) ApproveReport(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, (*Service).Approve)
}

func (h *Handler) RejectReport(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, (*Service).Reject)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.reportID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid report ID")
		return
	}

	var dto AddCommentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	comment, err := h.Service.AddComment(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, comment)
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.reportID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid report ID")
		return
	}

	comments, err := h.Service.ListComments(r.Context(), actor, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, comments)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, op func(*Service, context.Context, *authz.Actor, int64) (*Report, error)) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.reportID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid report ID")
		return
	}

	rep, err := op(h.Service, r.Context(), actor, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rep)
}

func (h *Handler) reportID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}
