package r2r

import (
	"context"
	"fmt"
	"net/http"

	"ragloader/pkg/errors"
	"ragloader/pkg/models"
)

// PullGraph asks the server to extract knowledge-graph entities and
// relationships for a collection. The extraction runs asynchronously
// server-side; callers poll GraphStats afterwards.
func (c *Client) PullGraph(ctx context.Context, collectionID string) error {
	path := "/v3/collections/" + collectionID + "/graphs/pull"
	err := c.doJSON(ctx, http.MethodPost, path, map[string]any{}, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeAPIRequest, "Failed to trigger graph extraction").
			WithContext("collection_id", collectionID)
	}
	return nil
}

// GraphStats reports the entity and relationship counts of a collection's
// knowledge graph. Counts come from the list endpoints' total_entries so no
// graph content is transferred.
func (c *Client) GraphStats(ctx context.Context, collectionID string) (models.GraphSummary, error) {
	var summary models.GraphSummary

	entities, err := c.graphCount(ctx, collectionID, "entities")
	if err != nil {
		return summary, err
	}
	relationships, err := c.graphCount(ctx, collectionID, "relationships")
	if err != nil {
		return summary, err
	}

	summary.Entities = entities
	summary.Relationships = relationships
	return summary, nil
}

func (c *Client) graphCount(ctx context.Context, collectionID, kind string) (int, error) {
	var out resultsEnvelope[[]map[string]any]
	path := fmt.Sprintf("/v3/collections/%s/graphs/%s?offset=0&limit=1", collectionID, kind)

	err := errors.Retry(ctx, c.retry, func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodGet, path, nil, &out)
	})
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeAPIRequest, "Failed to read graph "+kind).
			WithContext("collection_id", collectionID)
	}
	return out.TotalEntries, nil
}
