package r2r

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"ragloader/pkg/errors"
	"ragloader/pkg/models"
)

const collectionPageSize = 100

// GetOrCreateCollection looks a collection up by name and creates it when
// absent. Idempotent across runs; the server enforces name uniqueness.
// Failure here is fatal for a load run.
func (c *Client) GetOrCreateCollection(ctx context.Context, name, description string) (*models.Collection, error) {
	existing, err := c.FindCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	var out resultsEnvelope[models.Collection]
	body := map[string]string{"name": name, "description": description}
	if err := c.doJSON(ctx, http.MethodPost, "/v3/collections", body, &out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCollectionFailed, "Failed to create collection").
			WithContext("collection", name)
	}
	if out.Results.ID == "" {
		return nil, errors.New(errors.ErrCodeCollectionFailed, "Create collection response carried no id").
			WithContext("collection", name)
	}
	return &out.Results, nil
}

// FindCollection returns the collection with the exact given name, or nil
// when none exists. The name filter is applied server-side and the match
// re-checked here since the server may filter by substring.
func (c *Client) FindCollection(ctx context.Context, name string) (*models.Collection, error) {
	var out resultsEnvelope[[]models.Collection]

	path := "/v3/collections?name=" + url.QueryEscape(name)
	err := errors.Retry(ctx, c.retry, func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodGet, path, nil, &out)
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCollectionFailed, "Failed to look up collection").
			WithContext("collection", name)
	}

	for i := range out.Results {
		if out.Results[i].Name == name {
			return &out.Results[i], nil
		}
	}
	return nil, nil
}

// ListCollections returns all collections, paging through the server's
// offset/limit windows.
func (c *Client) ListCollections(ctx context.Context) ([]models.Collection, error) {
	var all []models.Collection

	for offset := 0; ; offset += collectionPageSize {
		var out resultsEnvelope[[]models.Collection]
		path := fmt.Sprintf("/v3/collections?offset=%d&limit=%d", offset, collectionPageSize)
		err := errors.Retry(ctx, c.retry, func(ctx context.Context) error {
			return c.doJSON(ctx, http.MethodGet, path, nil, &out)
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCollectionFailed, "Failed to list collections")
		}

		all = append(all, out.Results...)
		if len(out.Results) < collectionPageSize {
			return all, nil
		}
	}
}

// DeleteCollection removes a collection by id. Documents remain on the
// server; only the grouping is deleted.
func (c *Client) DeleteCollection(ctx context.Context, collectionID string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/v3/collections/"+collectionID, nil, nil); err != nil {
		return errors.Wrap(err, errors.ErrCodeCollectionFailed, "Failed to delete collection").
			WithContext("collection_id", collectionID)
	}
	return nil
}
