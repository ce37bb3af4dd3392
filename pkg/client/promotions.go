package client

import (
	"context"
	"fmt"
	"keja/pkg/model"
	"net/http"
)

type promotionEnvelope struct {
	Data *model.PromotionRequest `json:"data"`
}

// SubmitPromotion posts a request as requesterID. A non-empty idempotencyKey
// makes retries safe.
func (c *HttpClient) SubmitPromotion(ctx context.Context, requesterID, idempotencyKey, listingID string, weeks int, evidenceRef string) (*model.PromotionRequest, error) {
	headers := map[string]string{HeaderUserID: requesterID}
	if idempotencyKey != "" {
		headers[HeaderIdempotencyKey] = idempotencyKey
	}
	body := map[string]any{
		"listing_id":   listingID,
		"weeks":        weeks,
		"evidence_ref": evidenceRef,
	}

	resp, err := c.POSTWithHeaders(ctx, "/api/v1/promotions", body, headers)
	if err != nil {
		return nil, err
	}
	return decodePromotion(resp, http.StatusCreated, "submit promotion")
}

func (c *HttpClient) DecidePromotion(ctx context.Context, deciderID, requestID, outcome string) (*model.PromotionRequest, error) {
	resp, err := c.POSTWithHeaders(ctx,
		"/api/v1/promotions/id/"+requestID+"/decision",
		map[string]string{"outcome": outcome},
		map[string]string{HeaderUserID: deciderID},
	)
	if err != nil {
		return nil, err
	}
	return decodePromotion(resp, http.StatusOK, "decide promotion")
}

func (c *HttpClient) GetPromotion(ctx context.Context, requestID string) (*model.PromotionRequest, error) {
	resp, err := c.GET(ctx, "/api/v1/promotions/id/"+requestID)
	if err != nil {
		return nil, err
	}
	return decodePromotion(resp, http.StatusOK, "get promotion")
}

func decodePromotion(resp *Response, wantStatus int, operation string) (*model.PromotionRequest, error) {
	if resp.StatusCode != wantStatus {
		return nil, fmt.Errorf("%s: status %d: %s", operation, resp.StatusCode, GetErrorMessage(resp))
	}

	var envelope promotionEnvelope
	if err := resp.DecodeJSON(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", operation, err)
	}
	return envelope.Data, nil
}
