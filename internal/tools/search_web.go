package tools

import (
	"context"
	"encoding/json"

	"github.com/odalmau/webmcp/internal/rpc"
	"github.com/odalmau/webmcp/internal/search"
)

var searchSchema = Schema{Fields: []Field{
	{Name: "query", Type: TypeString, Required: true, NonEmpty: true, Description: "Search query"},
	{Name: "search_depth", Type: TypeString, Enum: []string{"basic", "advanced"}, Description: "How thorough the search should be"},
	{Name: "topic", Type: TypeString, Enum: []string{"general", "news"}, Description: "Search topic category"},
	{Name: "max_results", Type: TypeNumber, Description: "Maximum number of results to return"},
}}

var extractSchema = Schema{Fields: []Field{
	{Name: "url", Type: TypeString, Required: true, NonEmpty: true, Description: "URL to extract content from"},
}}

func (r *Registry) searchWeb(ctx context.Context, params map[string]any) ([]rpc.Content, error) {
	if r.searcher == nil {
		return nil, rpc.Errorf(rpc.KindExecutionError, "search is not configured, set TAVILY_API_KEY")
	}

	q := search.Query{Query: params["query"].(string)}
	if depth, ok := params["search_depth"].(string); ok {
		q.Depth = depth
	}
	if topic, ok := params["topic"].(string); ok {
		q.Topic = topic
	}
	if n, ok := asNumber(params["max_results"]); ok {
		q.MaxResults = int(n)
	}

	answer, err := r.searcher.Search(ctx, q)
	if err != nil {
		return nil, rpc.Errorf(rpc.KindExecutionError, "tavily search failed: %s", err)
	}

	out, err := json.Marshal(answer)
	if err != nil {
		return nil, rpc.Errorf(rpc.KindExecutionError, "encoding search results: %s", err)
	}
	return []rpc.Content{rpc.Text(string(out))}, nil
}

func (r *Registry) extractPage(ctx context.Context, params map[string]any) ([]rpc.Content, error) {
	if r.searcher == nil {
		return nil, rpc.Errorf(rpc.KindExecutionError, "search is not configured, set TAVILY_API_KEY")
	}

	page, err := r.searcher.Extract(ctx, params["url"].(string))
	if err != nil {
		return nil, rpc.Errorf(rpc.KindExecutionError, "tavily extract failed: %s", err)
	}

	out, err := json.Marshal(page)
	if err != nil {
		return nil, rpc.Errorf(rpc.KindExecutionError, "encoding extracted page: %s", err)
	}
	return []rpc.Content{rpc.Text(string(out))}, nil
}
