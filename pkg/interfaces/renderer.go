package interfaces

import (
	"context"
	"encoding/json"
)

// TransformResult is the opaque tree produced by an external Markdown
// transformer. The generator embeds it verbatim into interactive artifacts.
type TransformResult struct {
	Root     json.RawMessage `json:"root"`
	Features json.RawMessage `json:"features,omitempty"`
}

// Transformer converts Markdown into the tree consumed by the client-side
// viewer. Calls are treated as blocking I/O and must honour ctx.
type Transformer interface {
	Transform(ctx context.Context, markdown string) (*TransformResult, error)
}
