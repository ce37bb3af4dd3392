package handler

import (
	"context"
	"encoding/json"
	"io"
	apperrors "keja/pkg/errors"
	httputil "keja/pkg/http"
	"keja/pkg/logger"
	"keja/pkg/middleware"
	"keja/pkg/model"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
)

type mockPromotionService struct {
	submitFunc  func(ctx context.Context, listingID, requesterID string, weeks int, evidenceRef string) (*model.PromotionRequest, error)
	decideFunc  func(ctx context.Context, requestID, deciderID, outcome string) (*model.PromotionRequest, error)
	getByIDFunc func(ctx context.Context, id string) (*model.PromotionRequest, error)
	listFunc    func(ctx context.Context, status, listingID string, limit int, offset int64) ([]*model.PromotionRequest, int64, error)
}

func (m *mockPromotionService) Submit(ctx context.Context, listingID, requesterID string, weeks int, evidenceRef string) (*model.PromotionRequest, error) {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, listingID, requesterID, weeks, evidenceRef)
	}
	return &model.PromotionRequest{ID: "req-1", Status: model.PromotionStatusPending}, nil
}

func (m *mockPromotionService) Decide(ctx context.Context, requestID, deciderID, outcome string) (*model.PromotionRequest, error) {
	if m.decideFunc != nil {
		return m.decideFunc(ctx, requestID, deciderID, outcome)
	}
	return &model.PromotionRequest{ID: requestID, Status: outcome}, nil
}

func (m *mockPromotionService) GetByID(ctx context.Context, id string) (*model.PromotionRequest, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, apperrors.NotFoundWithID("Promotion request", id)
}

func (m *mockPromotionService) List(ctx context.Context, status, listingID string, limit int, offset int64) ([]*model.PromotionRequest, int64, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, status, listingID, limit, offset)
	}
	return []*model.PromotionRequest{}, 0, nil
}

func newTestRouter(svc *mockPromotionService) *httprouter.Router {
	log := logger.New(logger.Config{
		Level:   "info",
		Format:  logger.JSON,
		Output:  io.Discard,
		Service: "test",
	})
	router := httprouter.New()
	NewPromotionHandler(svc, log).RegisterRoutes(router)
	return router
}

func TestSubmit(t *testing.T) {
	var gotListing, gotRequester, gotEvidence string
	var gotWeeks int
	svc := &mockPromotionService{
		submitFunc: func(ctx context.Context, listingID, requesterID string, weeks int, evidenceRef string) (*model.PromotionRequest, error) {
			gotListing, gotRequester, gotWeeks, gotEvidence = listingID, requesterID, weeks, evidenceRef
			return &model.PromotionRequest{ID: "req-1", ListingID: listingID, Weeks: weeks, Status: model.PromotionStatusPending}, nil
		},
	}
	router := newTestRouter(svc)

	body := `{"listing_id":"65f1a2b3c4d5e6f708091a2b","weeks":2,"evidence_ref":"mpesa:QWE123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/promotions", strings.NewReader(body))
	req.Header.Set(middleware.CallerIDHeader, "landlord-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotListing != "65f1a2b3c4d5e6f708091a2b" || gotRequester != "landlord-1" || gotWeeks != 2 || gotEvidence != "mpesa:QWE123" {
		t.Errorf("unexpected service arguments: %q %q %d %q", gotListing, gotRequester, gotWeeks, gotEvidence)
	}

	var resp struct {
		Data model.PromotionRequest `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Data.ID != "req-1" || resp.Data.Status != model.PromotionStatusPending {
		t.Errorf("unexpected body %+v", resp.Data)
	}
}

func TestSubmit_BadRequests(t *testing.T) {
	tests := []struct {
		name       string
		callerID   string
		body       string
		wantStatus int
	}{
		{"missing caller", "", `{"listing_id":"x","weeks":1,"evidence_ref":"e"}`, http.StatusBadRequest},
		{"blank caller", "   ", `{"listing_id":"x","weeks":1,"evidence_ref":"e"}`, http.StatusBadRequest},
		{"malformed body", "landlord-1", `{"weeks":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &mockPromotionService{
				submitFunc: func(ctx context.Context, listingID, requesterID string, weeks int, evidenceRef string) (*model.PromotionRequest, error) {
					called = true
					return nil, nil
				},
			}
			router := newTestRouter(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/promotions", strings.NewReader(tt.body))
			if tt.callerID != "" {
				req.Header.Set(middleware.CallerIDHeader, tt.callerID)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if called {
				t.Error("service must not be called")
			}
		})
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"approved", nil, http.StatusOK, ""},
		{"already decided", apperrors.InvalidState("Promotion request has already been decided", "rejected"), http.StatusConflict, apperrors.CodeInvalidState},
		{"lock timeout", apperrors.Conflict("retry later"), http.StatusConflict, apperrors.CodeConflict},
		{"invalid outcome", apperrors.Validation("Invalid promotion decision", map[string]any{"outcome": "must be one of [approved rejected]"}), http.StatusUnprocessableEntity, apperrors.CodeValidation},
		{"unknown request", apperrors.NotFoundWithID("Promotion request", "req-9"), http.StatusNotFound, apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID, gotDecider, gotOutcome string
			svc := &mockPromotionService{
				decideFunc: func(ctx context.Context, requestID, deciderID, outcome string) (*model.PromotionRequest, error) {
					gotID, gotDecider, gotOutcome = requestID, deciderID, outcome
					if tt.err != nil {
						return nil, tt.err
					}
					return &model.PromotionRequest{ID: requestID, Status: model.PromotionStatusApproved, Applied: true}, nil
				},
			}
			router := newTestRouter(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/promotions/id/req-9/decision", strings.NewReader(`{"outcome":"approved"}`))
			req.Header.Set(middleware.CallerIDHeader, "admin-1")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if gotID != "req-9" || gotDecider != "admin-1" || gotOutcome != "approved" {
				t.Errorf("unexpected service arguments: %q %q %q", gotID, gotDecider, gotOutcome)
			}
			if tt.wantCode == "" {
				return
			}

			var errResp httputil.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if errResp.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, errResp.Code)
			}
			if tt.wantCode == apperrors.CodeInvalidState && errResp.Details["current_status"] != "rejected" {
				t.Errorf("expected current_status in details, got %v", errResp.Details)
			}
		})
	}
}

func TestGetByID(t *testing.T) {
	svc := &mockPromotionService{
		getByIDFunc: func(ctx context.Context, id string) (*model.PromotionRequest, error) {
			if id != "req-1" {
				return nil, apperrors.NotFoundWithID("Promotion request", id)
			}
			return &model.PromotionRequest{ID: id, Status: model.PromotionStatusApproved, Applied: true}, nil
		},
	}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/promotions/id/req-1", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/promotions/id/req-2", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestList(t *testing.T) {
	var gotStatus, gotListing string
	var gotLimit int
	var gotOffset int64
	svc := &mockPromotionService{
		listFunc: func(ctx context.Context, status, listingID string, limit int, offset int64) ([]*model.PromotionRequest, int64, error) {
			gotStatus, gotListing, gotLimit, gotOffset = status, listingID, limit, offset
			return []*model.PromotionRequest{{ID: "req-1"}}, 7, nil
		},
	}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/promotions?status=pending&listing_id=l1&limit=5&offset=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotStatus != "pending" || gotListing != "l1" || gotLimit != 5 || gotOffset != 5 {
		t.Errorf("unexpected service arguments: %q %q %d %d", gotStatus, gotListing, gotLimit, gotOffset)
	}

	var resp httputil.PaginatedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.TotalCount != 7 || resp.Limit != 5 || resp.Offset != 5 {
		t.Errorf("unexpected envelope %+v", resp)
	}
}

func TestList_InvalidLimit(t *testing.T) {
	router := newTestRouter(&mockPromotionService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/promotions?limit=abc", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
