package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedClient_Embed_SendsModelAndInput(t *testing.T) {
	// GIVEN a server that echoes a fixed embedding and records the request
	var gotBody map[string]string
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.5,-1,2]}]}`))
	}))
	defer server.Close()

	client := NewEmbedClient(server.URL+"/", "secret", "test-model")

	// WHEN embedding a text
	vec, err := client.Embed(context.Background(), `{"arch":{},"gates":[[0]]}`)

	// THEN the request follows the embeddings API and the vector is returned
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -1, 2}, vec)
	assert.Equal(t, "/v1/embeddings", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "test-model", gotBody["model"])
	assert.Equal(t, `{"arch":{},"gates":[[0]]}`, gotBody["input"])
}

func TestEmbedClient_Embed_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `boom`},
		{name: "invalid json", status: http.StatusOK, body: `{"data":`},
		{name: "no data", status: http.StatusOK, body: `{"data":[]}`},
		{name: "empty embedding", status: http.StatusOK, body: `{"data":[{"embedding":[]}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// GIVEN a server answering with a bad response
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			// WHEN embedding
			vec, err := NewEmbedClient(server.URL, "", "m").Embed(context.Background(), "x")

			// THEN an error is returned and no vector
			assert.Error(t, err)
			assert.Nil(t, vec)
		})
	}
}

func TestEmbedClient_Embed_NoAuthHeaderWithoutKey(t *testing.T) {
	// GIVEN a client without an API key
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1]}]}`))
	}))
	defer server.Close()

	// WHEN embedding
	_, err := NewEmbedClient(server.URL, "", "m").Embed(context.Background(), "x")

	// THEN no Authorization header is sent
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestNewEmbedClientFromConfig_ReadsKeyFromEnv(t *testing.T) {
	// GIVEN an API key in the configured variable
	t.Setenv("SIMMAP_TEST_EMBED_KEY", "k1")

	// WHEN building the client
	c := newEmbedClientFromConfig(EmbeddingConfig{URL: "http://x/", Model: "m", APIKeyEnv: "SIMMAP_TEST_EMBED_KEY"})

	// THEN the key and trimmed URL are used
	assert.Equal(t, "k1", c.apiKey)
	assert.Equal(t, "http://x", c.baseURL)
	assert.Equal(t, "m", c.modelName)
}
