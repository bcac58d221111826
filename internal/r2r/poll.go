package r2r

import (
	"context"
	"net/http"
	"time"

	"ragloader/pkg/errors"
	"ragloader/pkg/models"
)

// StatusProvider reports the server-side ingestion state of a document.
// Implemented by Client; injectable so polling logic is testable without a
// server.
type StatusProvider interface {
	DocumentStatus(ctx context.Context, documentID string) (models.IngestionStatus, error)
}

// Poller repeatedly checks document statuses until every document reaches a
// terminal state or the deadline passes.
type Poller struct {
	Interval time.Duration
	Timeout  time.Duration

	// Sleep is swappable for tests; defaults to a context-aware wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Await polls the provider for each document until terminal or timed out.
// Documents that never reach a terminal state before the deadline report
// unknown, which is distinct from failed: the server may still complete
// them later. Transient status-read errors leave the document pending.
func (p *Poller) Await(ctx context.Context, sp StatusProvider, documentIDs []string) map[string]models.IngestionStatus {
	statuses := make(map[string]models.IngestionStatus, len(documentIDs))
	pending := make([]string, 0, len(documentIDs))
	for _, id := range documentIDs {
		statuses[id] = models.StatusUnknown
		pending = append(pending, id)
	}

	deadline := time.Now().Add(p.Timeout)

	for len(pending) > 0 {
		next := pending[:0]
		for _, id := range pending {
			status, err := sp.DocumentStatus(ctx, id)
			if err != nil {
				next = append(next, id)
				continue
			}
			statuses[id] = status
			if !status.Terminal() {
				next = append(next, id)
			}
		}
		pending = next

		if len(pending) == 0 || time.Now().After(deadline) {
			break
		}
		if err := p.sleep(ctx, p.Interval); err != nil {
			break
		}
	}

	// Anything non-terminal at the deadline is unknown, whatever was last
	// observed.
	for _, id := range pending {
		statuses[id] = models.StatusUnknown
	}
	return statuses
}

func (p *Poller) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AwaitIngestion polls this client for the given documents with the given
// interval and deadline.
func (c *Client) AwaitIngestion(ctx context.Context, documentIDs []string, interval, timeout time.Duration) map[string]models.IngestionStatus {
	p := &Poller{Interval: interval, Timeout: timeout, Sleep: c.sleep}
	return p.Await(ctx, c, documentIDs)
}

// DocumentStatus reads the ingestion state of one document. A 404 means the
// upload has not materialized into a document yet and reports queued.
func (c *Client) DocumentStatus(ctx context.Context, documentID string) (models.IngestionStatus, error) {
	var out resultsEnvelope[struct {
		ID              string `json:"id"`
		IngestionStatus string `json:"ingestion_status"`
	}]

	err := c.doJSON(ctx, http.MethodGet, "/v3/documents/"+documentID, nil, &out)
	if err != nil {
		if errors.HTTPStatus(err) == http.StatusNotFound {
			return models.StatusQueued, nil
		}
		return models.StatusUnknown, err
	}
	return normalizeStatus(out.Results.IngestionStatus), nil
}

// normalizeStatus maps the server's status vocabulary onto the client's.
// Intermediate stages the server reports (parsing, embedding, enriching,
// storing, augmenting) all count as processing.
func normalizeStatus(s string) models.IngestionStatus {
	switch s {
	case "pending", "queued":
		return models.StatusQueued
	case "success":
		return models.StatusSuccess
	case "failed", "failure":
		return models.StatusFailed
	case "":
		return models.StatusUnknown
	default:
		return models.StatusProcessing
	}
}
