package handler

import (
	"keja/internal/listings/service"
	httputil "keja/pkg/http"
	"keja/pkg/logger"
	"keja/pkg/model"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type ListingHandler struct {
	service service.ListingService
	log     *logger.Logger
}

func NewListingHandler(service service.ListingService, log *logger.Logger) *ListingHandler {
	return &ListingHandler{
		service: service,
		log:     log,
	}
}

func (h *ListingHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filters, page, pageSize, err := parseSearchQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.service.Search(r.Context(), filters, page, pageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := httputil.WritePage(w, result.Items, result.Page, result.PageSize, result.TotalCount, result.TotalPages); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Search", "operation", "WritePage", "error", err)
	}
}

func (h *ListingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listing, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := httputil.WriteSuccess(w, listing); err != nil {
		h.log.Error("failed to write JSON response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ListingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/listings/search", h.Search)
	router.GET("/api/v1/listings/id/:id", h.GetByID)
}

func (h *ListingHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "path", r.URL.Path, "error", writeErr)
	}
}

func parseSearchQuery(r *http.Request) (*model.SearchFilters, int, int, error) {
	query := r.URL.Query()

	filters := &model.SearchFilters{
		Query:       query.Get("q"),
		Categories:  httputil.QueryCSV(query, "category"),
		Amenities:   httputil.QueryCSV(query, "amenities"),
		ListingType: query.Get("status"),
	}

	var err error
	if filters.MinBathrooms, err = httputil.QueryInt(query, "min_bathrooms"); err != nil {
		return nil, 0, 0, err
	}
	if filters.Bedrooms, err = httputil.QueryInt(query, "bedrooms"); err != nil {
		return nil, 0, 0, err
	}
	if filters.MinPrice, err = httputil.QueryInt64(query, "min_price"); err != nil {
		return nil, 0, 0, err
	}
	if filters.MaxPrice, err = httputil.QueryInt64(query, "max_price"); err != nil {
		return nil, 0, 0, err
	}

	page, err := httputil.QueryInt(query, "page")
	if err != nil {
		return nil, 0, 0, err
	}
	pageSize, err := httputil.QueryInt(query, "page_size")
	if err != nil {
		return nil, 0, 0, err
	}

	return filters, valueOrZero(page), valueOrZero(pageSize), nil
}

func valueOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
