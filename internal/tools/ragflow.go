package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lexcouncil/lexcouncil/internal/domain"
)

// EvidenceSearchName is the capability name bound to the retriever agent.
const EvidenceSearchName = "evidence.search"

const defaultTopK = 10

// RagFlowClient retrieves legal document chunks from a RAGFlow instance.
// Knowledge base IDs are explicit client configuration; there is no
// process-wide retrieval state.
type RagFlowClient struct {
	baseURL      string
	apiKey       string
	knowledgeIDs []string
	httpClient   *http.Client
}

// NewRagFlowClient creates a retrieval client for the given RAGFlow base URL
// and knowledge base IDs.
func NewRagFlowClient(baseURL, apiKey string, knowledgeIDs []string, timeout time.Duration) *RagFlowClient {
	return &RagFlowClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		apiKey:       apiKey,
		knowledgeIDs: knowledgeIDs,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

type ragflowRequest struct {
	Question            string   `json:"question"`
	TopK                int      `json:"top_k"`
	SimilarityThreshold float64  `json:"similarity_threshold"`
	DatasetIDs          []string `json:"dataset_ids"`
}

type ragflowChunk struct {
	Content           string  `json:"content"`
	ContentWithWeight string  `json:"content_with_weight"`
	ChunkID           string  `json:"chunk_id"`
	DocName           string  `json:"doc_name"`
	DocumentKeyword   string  `json:"document_keyword"`
	Similarity        float64 `json:"similarity"`
}

type ragflowResponse struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

// Search retrieves evidence for the query. It fails soft: every error path
// returns an empty pack so the conversation loop never aborts on a
// retrieval failure.
func (c *RagFlowClient) Search(ctx context.Context, query string) domain.EvidencePack {
	empty := domain.EvidencePack{Query: query, Items: []domain.EvidenceItem{}}

	body, err := json.Marshal(ragflowRequest{
		Question:            query,
		TopK:                defaultTopK,
		SimilarityThreshold: 0.5,
		DatasetIDs:          c.knowledgeIDs,
	})
	if err != nil {
		log.Error().Err(err).Msg("ragflow: marshal request")
		return empty
	}

	endpoint := c.baseURL + "/api/v1/retrieval"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Msg("ragflow: create request")
		return empty
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("ragflow: request failed")
		return empty
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn().Err(err).Msg("ragflow: read response")
		return empty
	}
	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("query", query).Msg("ragflow: non-OK response")
		return empty
	}

	var parsed ragflowResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		log.Warn().Err(err).Msg("ragflow: unmarshal response")
		return empty
	}
	if parsed.Code != 0 || len(parsed.Data) == 0 {
		return empty
	}

	items := parseRagflowData(parsed.Data)
	return domain.EvidencePack{Query: query, Items: items, TotalItems: len(items)}
}

// parseRagflowData handles the response shapes RAGFlow has used across
// versions: {"chunks":[...]}, a bare list, and {"docs":[...]}.
func parseRagflowData(data json.RawMessage) []domain.EvidenceItem {
	var wrapped struct {
		Chunks []ragflowChunk `json:"chunks"`
		Docs   []ragflowChunk `json:"docs"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		if len(wrapped.Chunks) > 0 {
			return chunksToItems(wrapped.Chunks)
		}
		if len(wrapped.Docs) > 0 {
			return chunksToItems(wrapped.Docs)
		}
	}

	var list []ragflowChunk
	if err := json.Unmarshal(data, &list); err == nil {
		return chunksToItems(list)
	}

	return []domain.EvidenceItem{}
}

func chunksToItems(chunks []ragflowChunk) []domain.EvidenceItem {
	items := make([]domain.EvidenceItem, 0, len(chunks))
	for _, chunk := range chunks {
		content := chunk.ContentWithWeight
		if content == "" {
			content = chunk.Content
		}
		name := chunk.DocName
		if name == "" {
			name = chunk.DocumentKeyword
		}
		if name == "" {
			name = "Unknown Document"
		}
		items = append(items, domain.EvidenceItem{
			Content:         content,
			DocumentName:    name,
			ChunkID:         chunk.ChunkID,
			SimilarityScore: chunk.Similarity,
		})
	}
	return items
}

// Spec declares the evidence search capability for the model backend.
func (c *RagFlowClient) Spec() Spec {
	return Spec{
		Name:        EvidenceSearchName,
		Description: "Search the internal database for legal documents, laws, decrees, and circulars relevant to the query. Returns a structured package of evidence with quotes and metadata.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "The search query to find legal documents and evidence"}
			},
			"required": ["query"]
		}`),
	}
}

// Executor adapts Search to the registry contract.
func (c *RagFlowClient) Executor() ExecutorFunc {
	return func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		var in struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		pack := c.Search(ctx, in.Query)
		out, err := json.Marshal(pack)
		if err != nil {
			return nil, fmt.Errorf("marshal evidence pack: %w", err)
		}
		return out, nil
	}
}
