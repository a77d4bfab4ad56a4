package rpc

// Version is the protocol tag carried by every envelope.
const Version = "2.0"

// Method selects the namespace a request targets.
type Method string

const (
	MethodTool     Method = "tool"
	MethodResource Method = "resource"
)

// Request is the wire shape of one invocation. The id is caller-assigned
// and must be unique among outstanding calls; responses echo it.
type Request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  Method        `json:"method"`
	Params  RequestParams `json:"params"`
}

// RequestParams names the registered target and carries its raw arguments.
type RequestParams struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params"`
}

// Response resolves exactly one Request. Either Result or Error is set,
// never both.
type Response struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      int64      `json:"id"`
	Result  *Result    `json:"result,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// Result is an ordered sequence of content items.
type Result struct {
	Contents []Content `json:"contents"`
}

// Content is one tagged payload item. Only "text" is produced today; the
// tag leaves room for other content types.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Text builds a text content item.
func Text(s string) Content {
	return Content{Type: "text", Text: s}
}
