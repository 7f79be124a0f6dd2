package generator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-markmap/internal/outline"
	"github.com/goliatone/go-markmap/internal/validation"
)

// outlineDocument is the serialised outline. Children is never null.
type outlineDocument struct {
	Title    string            `json:"title"`
	Children []outlineDocument `json:"children"`
}

func toDocument(title string, nodes []*outline.Node) outlineDocument {
	doc := outlineDocument{Title: title, Children: make([]outlineDocument, 0, len(nodes))}
	for _, node := range nodes {
		doc.Children = append(doc.Children, toDocument(node.Title, node.Children))
	}
	return doc
}

// buildOutline encodes the tree with the display title at the root and checks
// the result against the published schema before it is stored.
func (s *service) buildOutline(_ context.Context, doc document) (built, error) {
	data, err := json.MarshalIndent(toDocument(doc.title, doc.tree.Children), "", "  ")
	if err != nil {
		return built{}, err
	}
	if err := validation.ValidateOutline(data); err != nil {
		return built{}, fmt.Errorf("outline document: %w", err)
	}
	return built{data: data}, nil
}
