package rpc

import (
	"errors"
	"fmt"
)

// Kind tags a protocol-level failure. Callers branch on the kind (or its
// wire code), never on message text.
type Kind string

const (
	KindUnknownMethod  Kind = "UnknownMethod"
	KindUnknownTarget  Kind = "UnknownTarget"
	KindInvalidParams  Kind = "InvalidParams"
	KindDivisionByZero Kind = "DivisionByZero"
	KindKeyNotFound    Kind = "KeyNotFound"
	KindExecutionError Kind = "ExecutionError"
	KindNotConnected   Kind = "NotConnected"
)

// Wire codes are stable: -32601/-32602 follow the JSON-RPC reserved range,
// the -32000 block holds the server-defined kinds.
var kindCodes = map[Kind]int{
	KindUnknownMethod:  -32601,
	KindInvalidParams:  -32602,
	KindExecutionError: -32000,
	KindUnknownTarget:  -32001,
	KindDivisionByZero: -32002,
	KindKeyNotFound:    -32003,
	KindNotConnected:   -32010,
}

var codeKinds = func() map[int]Kind {
	m := make(map[int]Kind, len(kindCodes))
	for k, c := range kindCodes {
		m[c] = k
	}
	return m
}()

// Error is a tagged business failure flowing from handlers to the envelope.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Code returns the stable wire code for the error's kind.
func (e *Error) Code() int {
	return kindCodes[e.Kind]
}

// Errorf builds a tagged error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Coerce turns any handler failure into a tagged Error. Foreign errors are
// wrapped as ExecutionError so nothing raw reaches the wire.
func Coerce(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindExecutionError, Message: err.Error()}
}

// ErrorBody is the wire form of a failed response.
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Body renders the error for the envelope.
func (e *Error) Body() *ErrorBody {
	return &ErrorBody{Code: e.Code(), Message: e.Message}
}

// Kind maps the wire code back to its tag. Unknown codes report as
// ExecutionError.
func (b *ErrorBody) Kind() Kind {
	if k, ok := codeKinds[b.Code]; ok {
		return k
	}
	return KindExecutionError
}
