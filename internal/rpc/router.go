package rpc

import (
	"context"
	"log/slog"
	"sync"
)

// Handler resolves a named invocation into content items. The registry
// implements this; tests plug in stubs.
type Handler interface {
	Invoke(ctx context.Context, method Method, name string, params map[string]any) ([]Content, error)
}

// Observer receives every Response produced by Send, in call order.
type Observer func(*Response)

// Router turns one Request into exactly one Response. It owns the
// connected flag and the observer list; target resolution is delegated to
// the Handler.
type Router struct {
	handler Handler

	mu        sync.Mutex
	connected bool
	observers []observerEntry
	nextObs   int
}

type observerEntry struct {
	id int
	fn Observer
}

func NewRouter(h Handler) *Router {
	return &Router{handler: h}
}

// Start transitions the router to connected. Send before Start fails with
// NotConnected.
func (r *Router) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = true
}

// Stop disconnects the router and clears all observers. Idempotent.
func (r *Router) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = false
	r.observers = nil
}

// Connected reports whether Send will accept requests.
func (r *Router) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected
}

// OnMessage registers an observer and returns its disposer. Observers run
// in registration order; disposing one during dispatch does not disturb
// the rest.
func (r *Router) OnMessage(fn Observer) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextObs
	r.nextObs++
	r.observers = append(r.observers, observerEntry{id: id, fn: fn})
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, e := range r.observers {
			if e.id == id {
				r.observers = append(r.observers[:i], r.observers[i+1:]...)
				return
			}
		}
	}
}

// Send resolves one request into one response, correlated by id. Failures
// travel inside the response; Send itself never fails.
func (r *Router) Send(ctx context.Context, req *Request) *Response {
	resp := &Response{JSONRPC: Version, ID: req.ID}

	switch {
	case !r.Connected():
		resp.Error = Errorf(KindNotConnected, "router is not connected, call Start first").Body()
	case req.Method != MethodTool && req.Method != MethodResource:
		resp.Error = Errorf(KindUnknownMethod, "unknown method %q", req.Method).Body()
	default:
		contents, err := r.handler.Invoke(ctx, req.Method, req.Params.Name, req.Params.Params)
		if err != nil {
			e := Coerce(err)
			slog.WarnContext(ctx, "Request failed", "id", req.ID, "target", req.Params.Name, "kind", e.Kind, "error", e.Message)
			resp.Error = e.Body()
		} else {
			resp.Result = &Result{Contents: contents}
		}
	}

	r.notify(resp)
	return resp
}

func (r *Router) notify(resp *Response) {
	r.mu.Lock()
	snapshot := make([]Observer, len(r.observers))
	for i, e := range r.observers {
		snapshot[i] = e.fn
	}
	r.mu.Unlock()

	for _, fn := range snapshot {
		fn(resp)
	}
}
