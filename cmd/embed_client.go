package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/simmap/simmap/qmap/embedding"
)

// EmbedClient requests embeddings from an OpenAI-compatible server.
type EmbedClient struct {
	baseURL    string
	apiKey     string
	modelName  string
	httpClient *http.Client
}

var _ embedding.Embedder = (*EmbedClient)(nil)

// NewEmbedClient creates a new embedding HTTP client.
func NewEmbedClient(baseURL, apiKey, modelName string) *EmbedClient {
	return &EmbedClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		modelName:  modelName,
		httpClient: &http.Client{Timeout: time.Minute},
	}
}

// newEmbedClientFromConfig builds a client from the embedding section; the API
// key is read from the configured environment variable.
func newEmbedClientFromConfig(cfg EmbeddingConfig) *EmbedClient {
	apiKey := ""
	if cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
	}
	return NewEmbedClient(cfg.URL, apiKey, cfg.Model)
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed posts text to /v1/embeddings and returns the first embedding.
func (c *EmbedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	bodyBytes, err := json.Marshal(map[string]interface{}{
		"model": c.modelName,
		"input": text,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal error: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/embeddings", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("request creation error: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP error: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	bodyData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(bodyData))
	}

	var parsed embedResponse
	if err := json.Unmarshal(bodyData, &parsed); err != nil {
		return nil, fmt.Errorf("decoding embedding response: %w", err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding response has no data")
	}
	return parsed.Data[0].Embedding, nil
}
