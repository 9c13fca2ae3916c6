// audit/repository.go
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
)

const (
	topN           = 10
	exportPageSize = 1000
)

type Repository interface {
	EnsureIndex(ctx context.Context) error
	Index(ctx context.Context, log AuditLog) error
	Search(ctx context.Context, filter Filter, from, size int) ([]AuditLog, int64, error)
	Scan(ctx context.Context, filter Filter) ([]AuditLog, error)
	Stats(ctx context.Context, filter Filter) (*Statistics, error)
	Get(ctx context.Context, id string) (*AuditLog, error)
}

type ElasticsearchRepository struct {
	esClient *elasticsearch.Client
	index    string
}

// NewElasticsearchRepository creates a new repository with a given Elasticsearch client URL.
func NewElasticsearchRepository(esURL, index string) (*ElasticsearchRepository, error) {
	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	if err != nil {
		return nil, err
	}
	if index == "" {
		index = "audit-logs"
	}
	return &ElasticsearchRepository{esClient: esClient, index: index}, nil
}

var indexMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"id":         map[string]any{"type": "keyword"},
			"timestamp":  map[string]any{"type": "date"},
			"user_id":    map[string]any{"type": "long"},
			"username":   map[string]any{"type": "keyword"},
			"action":     map[string]any{"type": "keyword"},
			"resource":   map[string]any{"type": "keyword"},
			"result":     map[string]any{"type": "keyword"},
			"reason":     map[string]any{"type": "text"},
			"ip_address": map[string]any{"type": "keyword"},
			"purpose":    map[string]any{"type": "text"},
		},
	},
}

// EnsureIndex creates the audit index with its mapping when missing.
func (r *ElasticsearchRepository) EnsureIndex(ctx context.Context) error {
	res, err := r.esClient.Indices.Exists([]string{r.index}, r.esClient.Indices.Exists.WithContext(ctx))
	if err != nil {
		return storageError(err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, err := json.Marshal(indexMapping)
	if err != nil {
		return err
	}
	res, err = r.esClient.Indices.Create(r.index,
		r.esClient.Indices.Create.WithContext(ctx),
		r.esClient.Indices.Create.WithBody(bytes.NewReader(body)))
	if err != nil {
		return storageError(err)
	}
	defer res.Body.Close()
	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return fmt.Errorf("error creating index: %s", res.String())
	}
	return nil
}

// Index writes a record under its own id; records are never updated.
func (r *ElasticsearchRepository) Index(ctx context.Context, log AuditLog) error {
	data, err := json.Marshal(log)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      r.index,
		DocumentID: log.ID,
		OpType:     "create",
		Body:       bytes.NewReader(data),
		Refresh:    "wait_for",
	}

	res, err := req.Do(ctx, r.esClient)
	if err != nil {
		return storageError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}
	return nil
}

// Search returns one page of matches, newest first, and the total count.
func (r *ElasticsearchRepository) Search(ctx context.Context, filter Filter, from, size int) ([]AuditLog, int64, error) {
	body := map[string]any{
		"query":            buildQuery(filter),
		"sort":             sortOrder(),
		"from":             from,
		"size":             size,
		"track_total_hits": true,
	}
	var resp searchResponse
	if err := r.search(ctx, body, &resp); err != nil {
		return nil, 0, err
	}
	return resp.logs(), resp.Hits.Total.Value, nil
}

// Scan returns every match, newest first, paging with search_after.
func (r *ElasticsearchRepository) Scan(ctx context.Context, filter Filter) ([]AuditLog, error) {
	logs := []AuditLog{}
	var after []any
	for {
		body := map[string]any{
			"query": buildQuery(filter),
			"sort":  sortOrder(),
			"size":  exportPageSize,
		}
		if after != nil {
			body["search_after"] = after
		}
		var resp searchResponse
		if err := r.search(ctx, body, &resp); err != nil {
			return nil, err
		}
		hits := resp.Hits.Hits
		logs = append(logs, resp.logs()...)
		if len(hits) < exportPageSize {
			return logs, nil
		}
		after = hits[len(hits)-1].Sort
	}
}

// Stats aggregates totals, success/failure and top-10 breakdowns.
func (r *ElasticsearchRepository) Stats(ctx context.Context, filter Filter) (*Statistics, error) {
	body := map[string]any{
		"query":            buildQuery(filter),
		"size":             0,
		"track_total_hits": true,
		"aggs": map[string]any{
			"success":     map[string]any{"filter": map[string]any{"terms": map[string]any{"result": []string{ResultSuccess, ResultAllowed}}}},
			"failure":     map[string]any{"filter": map[string]any{"terms": map[string]any{"result": []string{ResultFailure, ResultDenied}}}},
			"by_action":   map[string]any{"terms": map[string]any{"field": "action", "size": topN}},
			"by_user":     map[string]any{"terms": map[string]any{"field": "user_id", "size": topN}},
			"by_resource": map[string]any{"terms": map[string]any{"field": "resource", "size": topN}},
		},
	}
	var resp searchResponse
	if err := r.search(ctx, body, &resp); err != nil {
		return nil, err
	}

	aggs := resp.Aggregations
	stats := &Statistics{
		Total:      resp.Hits.Total.Value,
		Success:    aggs.Success.DocCount,
		Failure:    aggs.Failure.DocCount,
		ByAction:   aggs.ByAction.entries(),
		ByUser:     aggs.ByUser.entries(),
		ByResource: aggs.ByResource.entries(),
	}
	return stats, nil
}

// Ping reports whether the cluster answers.
func (r *ElasticsearchRepository) Ping(ctx context.Context) error {
	res, err := r.esClient.Ping(r.esClient.Ping.WithContext(ctx))
	if err != nil {
		return storageError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: %s", echo_errors.ErrStorageUnavailable, res.Status())
	}
	return nil
}

func (r *ElasticsearchRepository) Get(ctx context.Context, id string) (*AuditLog, error) {
	res, err := r.esClient.Get(r.index, id, r.esClient.Get.WithContext(ctx))
	if err != nil {
		return nil, storageError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, echo_errors.ErrAuditLogNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("error getting document: %s", res.String())
	}

	var doc struct {
		Found  bool     `json:"found"`
		Source AuditLog `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, err
	}
	if !doc.Found {
		return nil, echo_errors.ErrAuditLogNotFound
	}
	return &doc.Source, nil
}

func (r *ElasticsearchRepository) search(ctx context.Context, body map[string]any, out *searchResponse) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	res, err := r.esClient.Search(
		r.esClient.Search.WithContext(ctx),
		r.esClient.Search.WithIndex(r.index),
		r.esClient.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return storageError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg := res.String()
		if res.StatusCode == http.StatusBadRequest && strings.Contains(msg, "Result window is too large") {
			return fmt.Errorf("%w: %s", echo_errors.ErrInvalidPagination, msg)
		}
		return fmt.Errorf("error searching documents: %s", msg)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func storageError(err error) error {
	return fmt.Errorf("%w: %v", echo_errors.ErrStorageUnavailable, err)
}

func sortOrder() []any {
	return []any{
		map[string]any{"timestamp": map[string]any{"order": "desc"}},
		map[string]any{"id": map[string]any{"order": "desc"}},
	}
}

func buildQuery(f Filter) map[string]any {
	var filters []any
	for field, value := range map[string]string{
		"action":   f.Action,
		"resource": f.Resource,
		"result":   f.Result,
	} {
		if value == "" {
			continue
		}
		filters = append(filters, map[string]any{
			"wildcard": map[string]any{
				field: map[string]any{
					"value":            "*" + escapeWildcard(value) + "*",
					"case_insensitive": true,
				},
			},
		})
	}
	if f.UserID != nil {
		filters = append(filters, map[string]any{"term": map[string]any{"user_id": *f.UserID}})
	}
	if f.From != nil || f.To != nil {
		bounds := map[string]any{}
		if f.From != nil {
			bounds["gte"] = f.From.UTC().Format(time.RFC3339Nano)
		}
		if f.To != nil {
			bounds["lte"] = f.To.UTC().Format(time.RFC3339Nano)
		}
		filters = append(filters, map[string]any{"range": map[string]any{"timestamp": bounds}})
	}
	if len(filters) == 0 {
		return map[string]any{"match_all": map[string]any{}}
	}
	return map[string]any{"bool": map[string]any{"filter": filters}}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string   `json:"_id"`
			Source AuditLog `json:"_source"`
			Sort   []any    `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations struct {
		Success    docCount  `json:"success"`
		Failure    docCount  `json:"failure"`
		ByAction   termsAggr `json:"by_action"`
		ByUser     termsAggr `json:"by_user"`
		ByResource termsAggr `json:"by_resource"`
	} `json:"aggregations"`
}

func (s *searchResponse) logs() []AuditLog {
	logs := make([]AuditLog, 0, len(s.Hits.Hits))
	for _, h := range s.Hits.Hits {
		log := h.Source
		if log.ID == "" {
			log.ID = h.ID
		}
		logs = append(logs, log)
	}
	return logs
}

type docCount struct {
	DocCount int64 `json:"doc_count"`
}

type termsAggr struct {
	Buckets []struct {
		Key      json.RawMessage `json:"key"`
		DocCount int64           `json:"doc_count"`
	} `json:"buckets"`
}

func (a termsAggr) entries() []CountEntry {
	out := make([]CountEntry, 0, len(a.Buckets))
	for _, b := range a.Buckets {
		key := string(b.Key)
		if unquoted, err := strconv.Unquote(key); err == nil {
			key = unquoted
		}
		out = append(out, CountEntry{Key: key, Count: b.DocCount})
	}
	return out
}
