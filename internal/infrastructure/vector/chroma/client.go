// Package chroma is a thin HTTP client for a ChromaDB collection used as the
// similarity search backend. Query embeddings are produced by the configured
// embedder; Chroma only stores and searches vectors.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/raglab/docquery/internal/core/domain"
	"github.com/raglab/docquery/internal/core/ports"
)

type Client struct {
	baseURL    string
	collection string
	embedder   ports.Embedder
	httpClient *http.Client

	ensureMu     sync.Mutex
	collectionID string
}

func New(baseURL, collection string, embedder ports.Embedder) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		embedder:   embedder,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Query embeds the text and runs a nearest-neighbor search. Distances come
// back smaller-is-closer with no guaranteed numeric range.
func (c *Client) Query(ctx context.Context, text string, topK int) ([]domain.ChunkDistance, error) {
	if topK <= 0 {
		topK = 5
	}

	vector, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	collectionID, err := c.ensureCollection(ctx)
	if err != nil {
		return nil, err
	}

	reqBody := map[string]any{
		"query_embeddings": [][]float32{vector},
		"n_results":        topK,
		"include":          []string{"distances"},
	}

	var queryResp struct {
		IDs       [][]string  `json:"ids"`
		Distances [][]float64 `json:"distances"`
	}
	path := fmt.Sprintf("/api/v1/collections/%s/query", collectionID)
	if err := c.postJSON(ctx, path, reqBody, &queryResp, "query"); err != nil {
		return nil, err
	}

	if len(queryResp.IDs) == 0 {
		return nil, nil
	}
	ids := queryResp.IDs[0]
	distances := queryResp.Distances[0]

	out := make([]domain.ChunkDistance, 0, len(ids))
	for i, id := range ids {
		if i >= len(distances) {
			break
		}
		out = append(out, domain.ChunkDistance{
			ChunkID:  id,
			Distance: distances[i],
		})
	}
	return out, nil
}

// IndexChunks upserts chunk vectors with provenance metadata.
func (c *Client) IndexChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors))
	}

	collectionID, err := c.ensureCollection(ctx)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(chunks))
	documents := make([]string, 0, len(chunks))
	metadatas := make([]map[string]any, 0, len(chunks))
	for _, chunk := range chunks {
		ids = append(ids, chunk.ID)
		documents = append(documents, chunk.Text)
		metadata := map[string]any{
			"document_name": chunk.DocumentName,
			"page_number":   chunk.PageNumber,
			"chunk_type":    string(chunk.ChunkType),
		}
		if chunk.SectionName != "" {
			metadata["section_name"] = chunk.SectionName
		}
		if chunk.SubsectionName != "" {
			metadata["subsection_name"] = chunk.SubsectionName
		}
		metadatas = append(metadatas, metadata)
	}

	reqBody := map[string]any{
		"ids":        ids,
		"embeddings": vectors,
		"documents":  documents,
		"metadatas":  metadatas,
	}
	path := fmt.Sprintf("/api/v1/collections/%s/upsert", collectionID)
	return c.postJSON(ctx, path, reqBody, nil, "upsert")
}

// DeleteDocument removes every vector belonging to the named document.
func (c *Client) DeleteDocument(ctx context.Context, documentName string) error {
	collectionID, err := c.ensureCollection(ctx)
	if err != nil {
		return err
	}

	reqBody := map[string]any{
		"where": map[string]any{
			"document_name": documentName,
		},
	}
	path := fmt.Sprintf("/api/v1/collections/%s/delete", collectionID)
	return c.postJSON(ctx, path, reqBody, nil, "delete")
}

func (c *Client) ensureCollection(ctx context.Context) (string, error) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	if c.collectionID != "" {
		return c.collectionID, nil
	}

	reqBody := map[string]any{
		"name":          c.collection,
		"get_or_create": true,
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := c.postJSON(ctx, "/api/v1/collections", reqBody, &created, "ensure collection"); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("chroma ensure collection: empty collection id")
	}
	c.collectionID = created.ID
	return c.collectionID, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chroma %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return fmt.Errorf("chroma %s status: %s: %s", operation, resp.Status, msg)
		}
		return fmt.Errorf("chroma %s status: %s", operation, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}
