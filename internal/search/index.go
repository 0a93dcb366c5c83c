// File: internal/search/index.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/donation"
	es "wecare_donations_backend/internal/platform/elasticsearch"
)

// Index reads and writes the donations index.
type Index struct {
	client *es.ESClientWrapper
	name   string
	logger *zap.Logger
}

// NewIndex returns nil when client is nil (search not configured).
func NewIndex(client *es.ESClientWrapper, logger *zap.Logger) *Index {
	if client == nil {
		return nil
	}
	return &Index{client: client, name: DonationsIndexName, logger: logger.Named("search_index")}
}

// AsSearcher exposes idx to the donation service, keeping a nil index a nil interface.
func AsSearcher(idx *Index) donation.Searcher {
	if idx == nil {
		return nil
	}
	return idx
}

// EnsureIndex creates the donations index if it is missing.
func (i *Index) EnsureIndex(ctx context.Context) error {
	return es.CreateIndexIfNotExists(ctx, i.client, i.name, donationsMapping(), i.logger)
}

// Put indexes d under its id, replacing any previous version.
func (i *Index) Put(ctx context.Context, d *donation.Donation) error {
	doc, err := ToDocument(d)
	if err != nil {
		return err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode search document: %w", err)
	}
	req := esapi.IndexRequest{
		Index:      i.name,
		DocumentID: d.ID.String(),
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, i.client.Client)
	if err != nil {
		return fmt.Errorf("index donation %s: %w", d.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index donation %s: %w", d.ID, es.ResponseError(res))
	}
	return nil
}

// Remove deletes the document for id. A missing document is not an error.
func (i *Index) Remove(ctx context.Context, id uuid.UUID) error {
	req := esapi.DeleteRequest{Index: i.name, DocumentID: id.String()}
	res, err := req.Do(ctx, i.client.Client)
	if err != nil {
		return fmt.Errorf("remove donation %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove donation %s: %w", id, es.ResponseError(res))
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchPending runs a full-text query over pending donations and returns
// matching ids in relevance order.
func (i *Index) SearchPending(ctx context.Context, text string, categoryID *uuid.UUID, from, size int) ([]uuid.UUID, int64, error) {
	filters := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"status": string(donation.StatusPending)}},
	}
	if categoryID != nil {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"category_id": categoryID.String()}})
	}
	var must interface{} = map[string]interface{}{"match_all": map[string]interface{}{}}
	if strings.TrimSpace(text) != "" {
		must = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"fields": []string{"title^2", "description", "category_name"},
			},
		}
	}
	query := map[string]interface{}{
		"from":    from,
		"size":    size,
		"_source": false,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must, "filter": filters},
		},
		"sort": []interface{}{"_score", map[string]interface{}{"created_at": "desc"}},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, 0, fmt.Errorf("encode search query: %w", err)
	}

	req := esapi.SearchRequest{Index: []string{i.name}, Body: bytes.NewReader(body)}
	res, err := req.Do(ctx, i.client.Client)
	if err != nil {
		return nil, 0, fmt.Errorf("search donations: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, 0, fmt.Errorf("search donations: %w", es.ResponseError(res))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			i.logger.Warn("Skipping search hit with a foreign id", zap.String("id", hit.ID))
			continue
		}
		ids = append(ids, id)
	}
	return ids, parsed.Hits.Total.Value, nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
	} `json:"items"`
}

// Sync indexes donations in one bulk request and deletes every other
// document, leaving the index holding exactly the given set.
func (i *Index) Sync(ctx context.Context, donations []donation.Donation) (indexed int, removed int64, err error) {
	if err := i.EnsureIndex(ctx); err != nil {
		return 0, 0, err
	}

	keep := make([]string, 0, len(donations))
	if len(donations) > 0 {
		var buf bytes.Buffer
		encoder := json.NewEncoder(&buf)
		for idx := range donations {
			d := &donations[idx]
			doc, err := ToDocument(d)
			if err != nil {
				return 0, 0, err
			}
			meta := map[string]interface{}{"index": map[string]interface{}{"_index": i.name, "_id": d.ID.String()}}
			if err := encoder.Encode(meta); err != nil {
				return 0, 0, fmt.Errorf("encode bulk meta: %w", err)
			}
			if err := encoder.Encode(doc); err != nil {
				return 0, 0, fmt.Errorf("encode bulk document: %w", err)
			}
			keep = append(keep, d.ID.String())
		}

		res, err := esapi.BulkRequest{Body: &buf, Refresh: "true"}.Do(ctx, i.client.Client)
		if err != nil {
			return 0, 0, fmt.Errorf("bulk index donations: %w", err)
		}
		defer res.Body.Close()
		if res.IsError() {
			return 0, 0, fmt.Errorf("bulk index donations: %w", es.ResponseError(res))
		}
		var parsed bulkResponse
		if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
			return 0, 0, fmt.Errorf("decode bulk response: %w", err)
		}
		for _, item := range parsed.Items {
			for _, result := range item {
				if result.Status >= 200 && result.Status < 300 {
					indexed++
				} else {
					i.logger.Warn("Bulk item failed", zap.String("id", result.ID), zap.Int("status", result.Status))
				}
			}
		}
	}

	removed, err = i.removeAllExcept(ctx, keep)
	return indexed, removed, err
}

func (i *Index) removeAllExcept(ctx context.Context, keep []string) (int64, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must_not": map[string]interface{}{"ids": map[string]interface{}{"values": keep}},
			},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return 0, fmt.Errorf("encode delete query: %w", err)
	}
	refresh := true
	req := esapi.DeleteByQueryRequest{Index: []string{i.name}, Body: bytes.NewReader(body), Refresh: &refresh}
	res, err := req.Do(ctx, i.client.Client)
	if err != nil {
		return 0, fmt.Errorf("delete stale donations: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("delete stale donations: %w", es.ResponseError(res))
	}
	var parsed struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode delete response: %w", err)
	}
	return parsed.Deleted, nil
}
