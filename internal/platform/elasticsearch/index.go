// File: internal/platform/elasticsearch/index.go
package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// CreateIndexIfNotExists creates index with mapping unless it already exists.
func CreateIndexIfNotExists(ctx context.Context, client *ESClientWrapper, index string, mapping map[string]interface{}, logger *zap.Logger) error {
	log := logger.Named("elasticsearch_index_setup")

	req := esapi.IndicesExistsRequest{Index: []string{index}}
	res, err := req.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("error checking if index %s exists: %w", index, err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		log.Debug("Index already exists", zap.String("index_name", index))
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("error checking if index %s exists: status %s", index, res.Status())
	}

	mappingJSON, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("error marshalling %s mapping to JSON: %w", index, err)
	}

	createReq := esapi.IndicesCreateRequest{
		Index: index,
		Body:  strings.NewReader(string(mappingJSON)),
	}
	createRes, err := createReq.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("error creating index %s: %w", index, err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		cause := ResponseError(createRes)
		// Another instance may have created it between the two calls.
		if strings.Contains(cause.Error(), "resource_already_exists_exception") {
			return nil
		}
		return fmt.Errorf("failed to create index %s: %w", index, cause)
	}

	log.Info("Index created successfully", zap.String("index_name", index))
	return nil
}
