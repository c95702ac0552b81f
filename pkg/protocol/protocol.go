// Package protocol defines the WebSocket wire envelope shared by the
// gateway server and its clients, in the vein of the teacher's
// pkg/protocol (name/payload events, method-name constants) trimmed to
// this module's commerce domain. Route handling itself is out of
// scope (SPEC_FULL.md §6); this package only fixes the shapes a
// transport layer would serialize.
package protocol

// ProtocolVersion is bumped whenever Envelope's wire shape changes
// incompatibly.
const ProtocolVersion = 1

// Envelope is the single message shape exchanged over the WebSocket
// connection, JSON-RPC-flavored like the teacher's gateway: a request
// carries Method+Params, a response carries Result or Error, and a
// server-pushed Event carries Name+Payload instead of a Method.
type Envelope struct {
	ID      string      `json:"id,omitempty"`
	Method  string      `json:"method,omitempty"`
	Params  interface{} `json:"params,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   *WireError  `json:"error,omitempty"`
	Name    string      `json:"name,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// WireError is the JSON-RPC-style error shape carried on a failed
// Envelope response.
type WireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent builds a server-pushed Envelope carrying a named event.
func NewEvent(name string, payload interface{}) *Envelope {
	return &Envelope{Name: name, Payload: payload}
}

// NewResult builds a successful RPC response Envelope.
func NewResult(id string, result interface{}) *Envelope {
	return &Envelope{ID: id, Result: result}
}

// NewError builds a failed RPC response Envelope.
func NewError(id, code, message string) *Envelope {
	return &Envelope{ID: id, Error: &WireError{Code: code, Message: message}}
}

// Server-pushed event names.
const (
	EventMessage  = "message"  // AgentResponse pushed after ProcessMessage
	EventVoice    = "voice"    // voice call status transitions
	EventAlert    = "alert"    // voice/admin alert raised
	EventShutdown = "shutdown" // graceful shutdown notice
)

// Client-invoked RPC method names.
const (
	MethodMessageSend    = "message.send"
	MethodSessionHistory = "session.history"
	MethodVoiceStatus    = "voice.status"
)
