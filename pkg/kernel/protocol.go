package kernel

import (
	"time"

	"github.com/google/uuid"
)

// Header is a message's routing envelope (spec.md 6.1): every frame on
// the wire carries one, request or reply.
type Header struct {
	MsgID    string `json:"msg_id"`
	Session  string `json:"session"`
	Username string `json:"username"`
	MsgType  string `json:"msg_type"`
	Version  string `json:"version"`
}

// Message is the single framed envelope every request/reply uses —
// there is no five-channel decomposition here, just header,
// parent-header, metadata and a msg_type-specific content map.
type Message struct {
	Header       Header         `json:"header"`
	ParentHeader *Header        `json:"parent_header,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Content      map[string]any `json:"content"`
}

const protocolVersion = "orin.kernel.v1"

// NewRequest builds a request Message with a fresh msg_id.
func NewRequest(session, msgType string, content map[string]any) Message {
	return Message{
		Header: Header{
			MsgID:    uuid.NewString(),
			Session:  session,
			MsgType:  msgType,
			Version:  protocolVersion,
		},
		Content: content,
	}
}

// Reply builds the reply Message to req, stamping req's header as the
// reply's parent_header the way every Jupyter-style reply does.
func Reply(req Message, msgType string, content map[string]any) Message {
	parent := req.Header
	return Message{
		Header: Header{
			MsgID:    uuid.NewString(),
			Session:  req.Header.Session,
			MsgType:  msgType,
			Version:  protocolVersion,
		},
		ParentHeader: &parent,
		Content:      content,
	}
}

// Protocol abstracts message parsing so a transport can carry more
// than one wire format (Jupyter-style today, DAP or LSP framing is a
// future addition per spec.md 4.8 without touching the kernel loop or
// the transport).
type Protocol interface {
	// RequestType extracts the dispatch key (execute_request,
	// shutdown_request, complete_request, debug_request, ...) from msg.
	RequestType(msg Message) string
}

// JupyterProtocol is the reference Protocol: msg_type drives dispatch,
// exactly as spec.md 6.1 describes.
type JupyterProtocol struct{}

func (JupyterProtocol) RequestType(msg Message) string { return msg.Header.MsgType }

func timestamp() string { return time.Now().UTC().Format(time.RFC3339Nano) }
