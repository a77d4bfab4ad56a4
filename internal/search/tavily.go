package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.tavily.com"

// Client talks to the Tavily search API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient builds a client from TAVILY_API_KEY. Callers that can run
// without search should check the error and pass a nil client downstream.
func NewClient() (*Client, error) {
	key := strings.TrimSpace(os.Getenv("TAVILY_API_KEY"))
	if key == "" {
		return nil, errors.New("missing TAVILY_API_KEY")
	}
	return &Client{
		apiKey:  key,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// NewClientWith builds a client against a custom endpoint, used by tests.
func NewClientWith(apiKey, baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Query describes one search request.
type Query struct {
	Query      string
	Depth      string // "basic" or "advanced"
	Topic      string // "general" or "news"
	MaxResults int
}

// Answer is the search outcome surfaced to callers.
type Answer struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer,omitempty"`
	Results []Result `json:"results"`
}

// Result is one ranked hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Page is the outcome of extracting a single URL.
type Page struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// Search runs one query. Empty queries are rejected before any network
// call.
func (c *Client) Search(ctx context.Context, q Query) (*Answer, error) {
	if strings.TrimSpace(q.Query) == "" {
		return nil, errors.New("empty query")
	}

	body := map[string]any{
		"api_key":        c.apiKey,
		"query":          q.Query,
		"include_answer": true,
	}
	if q.Depth != "" {
		body["search_depth"] = q.Depth
	}
	if q.Topic != "" {
		body["topic"] = q.Topic
	}
	if q.MaxResults > 0 {
		body["max_results"] = q.MaxResults
	}

	var payload struct {
		Query   string `json:"query"`
		Answer  string `json:"answer"`
		Results []struct {
			Title   string  `json:"title"`
			URL     string  `json:"url"`
			Content string  `json:"content"`
			Score   float64 `json:"score"`
		} `json:"results"`
	}
	if err := c.post(ctx, "/search", body, &payload); err != nil {
		return nil, err
	}

	out := &Answer{Query: payload.Query, Answer: payload.Answer, Results: []Result{}}
	if out.Query == "" {
		out.Query = q.Query
	}
	for _, r := range payload.Results {
		out.Results = append(out.Results, Result{Title: r.Title, URL: r.URL, Content: r.Content, Score: r.Score})
	}
	return out, nil
}

// Extract fetches the readable content of one URL.
func (c *Client) Extract(ctx context.Context, url string) (*Page, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("empty url")
	}

	var payload struct {
		Results []struct {
			URL        string `json:"url"`
			Title      string `json:"title"`
			RawContent string `json:"raw_content"`
		} `json:"results"`
		Failed []struct {
			URL   string `json:"url"`
			Error string `json:"error"`
		} `json:"failed_results"`
	}
	if err := c.post(ctx, "/extract", map[string]any{"api_key": c.apiKey, "urls": []string{url}}, &payload); err != nil {
		return nil, err
	}

	if len(payload.Results) == 0 {
		if len(payload.Failed) > 0 && payload.Failed[0].Error != "" {
			return nil, fmt.Errorf("tavily could not extract %s: %s", url, payload.Failed[0].Error)
		}
		return nil, fmt.Errorf("tavily returned no content for %s", url)
	}
	r := payload.Results[0]
	return &Page{URL: r.URL, Title: r.Title, Content: r.RawContent}, nil
}

func (c *Client) post(ctx context.Context, path string, body map[string]any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		var e struct {
			Detail string `json:"detail"`
			Error  string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&e)
		msg := e.Detail
		if msg == "" {
			msg = e.Error
		}
		if msg != "" {
			return fmt.Errorf("tavily error: %s (http %d)", msg, res.StatusCode)
		}
		return fmt.Errorf("tavily http %d", res.StatusCode)
	}

	return json.NewDecoder(res.Body).Decode(out)
}
