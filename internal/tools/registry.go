package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/odalmau/webmcp/internal/rpc"
	"github.com/odalmau/webmcp/internal/search"
)

// HandlerFunc executes an invocation whose parameters already passed
// schema validation.
type HandlerFunc func(ctx context.Context, params map[string]any) ([]rpc.Content, error)

// SearchClient is the boundary to the external search collaborator.
// *search.Client satisfies it; a nil client disables the search tools.
type SearchClient interface {
	Search(ctx context.Context, q search.Query) (*search.Answer, error)
	Extract(ctx context.Context, url string) (*search.Page, error)
}

type registration struct {
	name        string
	description string
	schema      Schema
	handler     HandlerFunc
}

// Registry holds the invocable tool and resource sets and owns the
// key-value storage they operate on. State is per instance: independent
// registries never share storage.
type Registry struct {
	tools     map[string]*registration
	resources map[string]*registration
	toolOrder []string

	searcher SearchClient

	mu      sync.Mutex
	storage map[string]string
}

// NewRegistry builds a registry with the built-in tools registered.
// searcher may be nil, in which case the search tools report an execution
// error when invoked.
func NewRegistry(searcher SearchClient) *Registry {
	r := &Registry{
		tools:     map[string]*registration{},
		resources: map[string]*registration{},
		searcher:  searcher,
		storage:   map[string]string{},
	}
	r.registerBuiltins()
	return r
}

// Register adds a named target under the given method namespace. A
// duplicate name or a malformed schema is a configuration error.
func (r *Registry) Register(method rpc.Method, name, description string, schema Schema, h HandlerFunc) error {
	if name == "" {
		return fmt.Errorf("registering a tool without a name")
	}
	if h == nil {
		return fmt.Errorf("registering %q without a handler", name)
	}
	if err := schema.check(); err != nil {
		return fmt.Errorf("registering %q: %w", name, err)
	}

	set := r.namespace(method)
	if set == nil {
		return fmt.Errorf("registering %q under unknown method %q", name, method)
	}
	if _, exists := set[name]; exists {
		return fmt.Errorf("%s %q is already registered", method, name)
	}

	set[name] = &registration{name: name, description: description, schema: schema, handler: h}
	if method == rpc.MethodTool {
		r.toolOrder = append(r.toolOrder, name)
	}
	return nil
}

// Invoke implements rpc.Handler: resolve the target, validate parameters,
// run the handler. The response is only produced after the handler's side
// effects on storage are applied.
func (r *Registry) Invoke(ctx context.Context, method rpc.Method, name string, params map[string]any) ([]rpc.Content, error) {
	set := r.namespace(method)
	if set == nil {
		return nil, rpc.Errorf(rpc.KindUnknownMethod, "unknown method %q", method)
	}
	reg, ok := set[name]
	if !ok {
		return nil, rpc.Errorf(rpc.KindUnknownTarget, "unknown %s %q", method, name)
	}
	if params == nil {
		params = map[string]any{}
	}
	if err := reg.schema.Validate(params); err != nil {
		return nil, err
	}
	return reg.handler(ctx, params)
}

func (r *Registry) namespace(method rpc.Method) map[string]*registration {
	switch method {
	case rpc.MethodTool:
		return r.tools
	case rpc.MethodResource:
		return r.resources
	}
	return nil
}

// Info describes one registered tool for prompt construction.
type Info struct {
	Name        string
	Description string
	Schema      map[string]any
}

// Tools lists the registered tools in registration order.
func (r *Registry) Tools() []Info {
	out := make([]Info, 0, len(r.toolOrder))
	for _, name := range r.toolOrder {
		reg := r.tools[name]
		out = append(out, Info{Name: reg.name, Description: reg.description, Schema: reg.schema.JSON()})
	}
	return out
}

func (r *Registry) registerBuiltins() {
	regs := []error{
		r.Register(rpc.MethodTool, "calculate",
			"Perform basic arithmetic on two numbers.", calculateSchema, r.calculate),
		r.Register(rpc.MethodTool, "storage-set",
			"Store a string value under a key. Overwrites any previous value.", storageSetSchema, r.storageSet),
		r.Register(rpc.MethodTool, "storage-get",
			"Read the string value stored under a key.", storageGetSchema, r.storageGet),
		r.Register(rpc.MethodResource, "storage-get",
			"Read the string value stored under a key.", storageGetSchema, r.storageGet),
		r.Register(rpc.MethodTool, "tavily-search",
			"Search the web and return ranked results with an optional direct answer.", searchSchema, r.searchWeb),
		r.Register(rpc.MethodTool, "tavily-extract",
			"Fetch the readable content of a single URL.", extractSchema, r.extractPage),
	}
	for _, err := range regs {
		if err != nil {
			panic(fmt.Sprintf("tools: built-in registration failed: %v", err))
		}
	}
}
