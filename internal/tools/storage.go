package tools

import (
	"context"

	"github.com/odalmau/webmcp/internal/rpc"
)

var storageSetSchema = Schema{Fields: []Field{
	{Name: "key", Type: TypeString, Required: true, NonEmpty: true, Description: "Key to store the value under"},
	{Name: "value", Type: TypeString, Required: true, Description: "Value to store"},
}}

var storageGetSchema = Schema{Fields: []Field{
	{Name: "key", Type: TypeString, Required: true, NonEmpty: true, Description: "Key to look up"},
}}

func (r *Registry) storageSet(_ context.Context, params map[string]any) ([]rpc.Content, error) {
	key := params["key"].(string)
	value := params["value"].(string)

	r.mu.Lock()
	r.storage[key] = value
	r.mu.Unlock()

	return []rpc.Content{rpc.Text("Value stored successfully")}, nil
}

// storageGet backs both the tool form and the resource-read form. A
// missing key is a KeyNotFound error, never a success carrying sentinel
// text.
func (r *Registry) storageGet(_ context.Context, params map[string]any) ([]rpc.Content, error) {
	key := params["key"].(string)

	r.mu.Lock()
	value, ok := r.storage[key]
	r.mu.Unlock()

	if !ok {
		return nil, rpc.Errorf(rpc.KindKeyNotFound, "no value stored under key %q", key)
	}
	return []rpc.Content{rpc.Text(value)}, nil
}
