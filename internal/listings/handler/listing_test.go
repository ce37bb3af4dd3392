package handler

import (
	"context"
	"encoding/json"
	"io"
	apperrors "keja/pkg/errors"
	httputil "keja/pkg/http"
	"keja/pkg/logger"
	"keja/pkg/model"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
)

type mockListingService struct {
	searchFunc  func(ctx context.Context, filters *model.SearchFilters, page, pageSize int) (*model.SearchResult, error)
	getByIDFunc func(ctx context.Context, id string) (*model.ListingView, error)
}

func (m *mockListingService) Search(ctx context.Context, filters *model.SearchFilters, page, pageSize int) (*model.SearchResult, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, filters, page, pageSize)
	}
	return &model.SearchResult{Items: []*model.ListingView{}, Page: 1, PageSize: 12, TotalPages: 1}, nil
}

func (m *mockListingService) GetByID(ctx context.Context, id string) (*model.ListingView, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, apperrors.NotFoundWithID("Listing", id)
}

func newTestRouter(svc *mockListingService) *httprouter.Router {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Output:    io.Discard,
		Service:   "test",
	})
	router := httprouter.New()
	NewListingHandler(svc, log).RegisterRoutes(router)
	return router
}

func TestSearch_ParsesQuery(t *testing.T) {
	var gotFilters *model.SearchFilters
	var gotPage, gotPageSize int
	svc := &mockListingService{
		searchFunc: func(ctx context.Context, filters *model.SearchFilters, page, pageSize int) (*model.SearchResult, error) {
			gotFilters, gotPage, gotPageSize = filters, page, pageSize
			return &model.SearchResult{
				Items:      []*model.ListingView{{Listing: &model.Listing{ID: "b"}, CurrentlyPromoted: true}},
				Page:       page,
				PageSize:   pageSize,
				TotalCount: 1,
				TotalPages: 1,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/listings/search?q=kilimani&category=apartment,studio&min_bathrooms=1&min_price=100&max_price=900&bedrooms=2&amenities=parking&status=for-rent&page=2&page_size=5", nil)
	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotFilters.Query != "kilimani" || len(gotFilters.Categories) != 2 || gotFilters.ListingType != "for-rent" {
		t.Errorf("unexpected filters %+v", gotFilters)
	}
	if *gotFilters.MinBathrooms != 1 || *gotFilters.MinPrice != 100 || *gotFilters.MaxPrice != 900 || *gotFilters.Bedrooms != 2 {
		t.Errorf("unexpected numeric filters %+v", gotFilters)
	}
	if gotPage != 2 || gotPageSize != 5 {
		t.Errorf("unexpected page %d/%d", gotPage, gotPageSize)
	}

	var body struct {
		Data       []map[string]any `json:"data"`
		TotalPages int              `json:"total_pages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0]["id"] != "b" || body.Data[0]["currently_promoted"] != true {
		t.Errorf("unexpected body %s", w.Body.String())
	}
	if body.TotalPages != 1 {
		t.Errorf("expected total_pages 1, got %d", body.TotalPages)
	}
}

func TestSearch_InvalidNumbers(t *testing.T) {
	called := false
	svc := &mockListingService{
		searchFunc: func(ctx context.Context, filters *model.SearchFilters, page, pageSize int) (*model.SearchResult, error) {
			called = true
			return nil, nil
		},
	}

	tests := []string{"min_price=cheap", "bedrooms=two", "page=x", "page_size=1.5"}

	for _, query := range tests {
		t.Run(query, func(t *testing.T) {
			called = false
			w := httptest.NewRecorder()
			newTestRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/listings/search?"+query, nil))

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if called {
				t.Error("service must not be called with malformed input")
			}
		})
	}
}

func TestSearch_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expectCode int
	}{
		{"validation", apperrors.Validation("Invalid search filters", nil), http.StatusUnprocessableEntity},
		{"storage", apperrors.Storage("Failed to search listings", io.EOF), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockListingService{
				searchFunc: func(ctx context.Context, filters *model.SearchFilters, page, pageSize int) (*model.SearchResult, error) {
					return nil, tt.err
				},
			}
			w := httptest.NewRecorder()
			newTestRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/listings/search", nil))

			if w.Code != tt.expectCode {
				t.Errorf("expected %d, got %d", tt.expectCode, w.Code)
			}
			var body httputil.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Code == "" {
				t.Errorf("expected error envelope, got %s", w.Body.String())
			}
		})
	}
}

func TestGetByID(t *testing.T) {
	svc := &mockListingService{
		getByIDFunc: func(ctx context.Context, id string) (*model.ListingView, error) {
			if id != "65f000000000000000000001" {
				return nil, apperrors.NotFoundWithID("Listing", id)
			}
			return &model.ListingView{Listing: &model.Listing{ID: id, Title: "Kilimani Heights"}}, nil
		},
	}
	router := newTestRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/listings/id/65f000000000000000000001", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/listings/id/65f000000000000000000009", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
