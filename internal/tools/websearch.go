package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ValiditySearchName is the capability name bound to the searcher agent.
const ValiditySearchName = "validity.search"

const notFoundMessage = "Không tìm thấy thông tin trên web."

// ValiditySearcher checks legal document validity against public web
// sources via the DuckDuckGo instant-answer API. On any failure it returns
// a human-readable "not found" digest instead of an error.
type ValiditySearcher struct {
	baseURL    string
	httpClient *http.Client
}

// NewValiditySearcher creates a web validity searcher. baseURL overrides the
// DuckDuckGo endpoint, mainly for tests; empty means the public API.
func NewValiditySearcher(baseURL string, timeout time.Duration) *ValiditySearcher {
	if baseURL == "" {
		baseURL = "https://api.duckduckgo.com"
	}
	return &ValiditySearcher{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgResponse struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

// Search returns a free-text digest of web evidence about the validity of a
// legal document. The query is scoped to Vietnamese legal reference sites
// the way the research team expects.
func (s *ValiditySearcher) Search(ctx context.Context, query string) string {
	scoped := fmt.Sprintf("hiệu lực văn bản %s thuvienphapluat vanbanphapluat", query)

	endpoint := fmt.Sprintf("%s/?q=%s&format=json&no_html=1&skip_disambig=1", s.baseURL, url.QueryEscape(scoped))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Error().Err(err).Msg("validity search: create request")
		return notFoundMessage
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("validity search: request failed")
		return notFoundMessage
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("validity search: non-OK response")
		return notFoundMessage
	}

	var parsed ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		log.Warn().Err(err).Msg("validity search: decode response")
		return notFoundMessage
	}

	var sections []string
	if parsed.AbstractText != "" {
		section := parsed.AbstractText
		if parsed.AbstractURL != "" {
			section += "\nLink: " + parsed.AbstractURL
		}
		sections = append(sections, section)
	}
	for _, topic := range flattenTopics(parsed.RelatedTopics) {
		if topic.Text == "" {
			continue
		}
		section := topic.Text
		if topic.FirstURL != "" {
			section += "\nLink: " + topic.FirstURL
		}
		sections = append(sections, section)
		if len(sections) >= 5 {
			break
		}
	}

	if len(sections) == 0 {
		return notFoundMessage
	}
	return strings.Join(sections, "\n---\n")
}

func flattenTopics(topics []ddgTopic) []ddgTopic {
	var out []ddgTopic
	for _, t := range topics {
		if len(t.Topics) > 0 {
			out = append(out, flattenTopics(t.Topics)...)
			continue
		}
		out = append(out, t)
	}
	return out
}

// Spec declares the validity search capability for the model backend.
func (s *ValiditySearcher) Spec() Spec {
	return Spec{
		Name:        ValiditySearchName,
		Description: "Search the web to check whether a legal document is still in effect or has been replaced. Use when internal evidence needs validity verification.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Document name or legal keyword to verify"}
			},
			"required": ["query"]
		}`),
	}
}

// Executor adapts Search to the registry contract.
func (s *ValiditySearcher) Executor() ExecutorFunc {
	return func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		var in struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		digest := s.Search(ctx, in.Query)
		out, err := json.Marshal(map[string]string{"digest": digest})
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}
