package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"keja/internal/promotions/service"
	apperrors "keja/pkg/errors"
	httputil "keja/pkg/http"
	"keja/pkg/logger"
	"keja/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type PromotionHandler struct {
	service service.PromotionService
	log     *logger.Logger
}

func NewPromotionHandler(service service.PromotionService, log *logger.Logger) *PromotionHandler {
	return &PromotionHandler{
		service: service,
		log:     log,
	}
}

type submitRequest struct {
	ListingID   string `json:"listing_id"`
	Weeks       int    `json:"weeks"`
	EvidenceRef string `json:"evidence_ref"`
}

type decisionRequest struct {
	Outcome string `json:"outcome"`
}

func (h *PromotionHandler) Submit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	callerID, ok := h.callerID(w, r, "Submit")
	if !ok {
		return
	}

	var body submitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid request body")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Submit", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	req, err := h.service.Submit(r.Context(), body.ListingID, callerID, body.Weeks, body.EvidenceRef)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Submit", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, req); err != nil {
		h.log.Error("failed to write created response", "handler", "Submit", "operation", "WriteCreated", "error", err)
	}
}

func (h *PromotionHandler) Decide(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	callerID, ok := h.callerID(w, r, "Decide")
	if !ok {
		return
	}

	var body decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid request body")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Decide", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	req, err := h.service.Decide(r.Context(), ps.ByName("id"), callerID, body.Outcome)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Decide", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, req); err != nil {
		h.log.Error("failed to write success response", "handler", "Decide", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PromotionHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	req, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, req); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PromotionHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	query := r.URL.Query()
	requests, total, err := h.service.List(r.Context(), query.Get("status"), query.Get("listing_id"), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, requests, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

// callerID reads the identity an upstream gateway already authorised.
func (h *PromotionHandler) callerID(w http.ResponseWriter, r *http.Request, handler string) (string, bool) {
	callerID := strings.TrimSpace(r.Header.Get(middleware.CallerIDHeader))
	if callerID != "" {
		return callerID, true
	}

	if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Missing "+middleware.CallerIDHeader+" header")); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
	return "", false
}

func (h *PromotionHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/promotions", h.Submit)
	router.GET("/api/v1/promotions", h.List)
	router.GET("/api/v1/promotions/id/:id", h.GetByID)
	router.POST("/api/v1/promotions/id/:id/decision", h.Decide)
}
