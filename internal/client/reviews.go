package client

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/augbriz/desarrollo-FE-tp/internal/domain"
	"github.com/augbriz/desarrollo-FE-tp/pkg/httpclient"
)

// ReviewClient reads and deletes reviews through the store API's admin
// endpoints.
type ReviewClient struct {
	api storeAPI
}

// NewReviewClient creates a ReviewClient for the store API at baseURL.
func NewReviewClient(doer httpclient.Doer, baseURL string, logger *slog.Logger) *ReviewClient {
	return &ReviewClient{api: newStoreAPI(doer, baseURL, logger)}
}

// ListAll fetches every review. A 401 surfaces as apperrors.ErrUnauthorized
// and a 403 as apperrors.ErrForbidden.
func (c *ReviewClient) ListAll(ctx context.Context, token string) ([]domain.Review, error) {
	var reviews []domain.Review
	if err := c.api.call(ctx, "reviews.list", http.MethodGet, "/resenias/admin", nil, token, nil, &reviews); err != nil {
		return nil, err
	}

	c.api.logger.DebugContext(ctx, "reviews fetched", slog.Int("count", len(reviews)))
	return reviews, nil
}

// Delete removes the review with id.
func (c *ReviewClient) Delete(ctx context.Context, token string, id int) error {
	return c.api.call(ctx, "reviews.delete", http.MethodDelete, "/resenias/admin/"+strconv.Itoa(id), nil, token, nil, nil)
}
