// Package outline extracts the heading hierarchy of a Markdown document.
package outline

import (
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-markmap/internal/domain"
)

const (
	// DefaultMaxNodes caps how many heading lines are consumed per document.
	DefaultMaxNodes = 500
	// MaxTitleRunes bounds a heading title after trimming.
	MaxTitleRunes = 100
)

// Node is one heading in the outline. The root is synthetic with Depth 0 and
// an empty Title; every other node has Depth >= 1 and a Depth greater than
// its parent.
type Node struct {
	Title    string  `json:"title"`
	Depth    int     `json:"depth"`
	Children []*Node `json:"children"`
}

// Option customises parsing.
type Option func(*options)

type options struct {
	maxNodes int
}

// WithMaxNodes overrides the heading cap. Non-positive values keep the default.
func WithMaxNodes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxNodes = n
		}
	}
}

type frame struct {
	level int
	node  *Node
}

// Parse builds the heading tree for text. It never fails: lines that are not
// headings are ignored, and headings past the node cap are dropped.
func Parse(text string, opts ...Option) *Node {
	cfg := options{maxNodes: DefaultMaxNodes}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	root := &Node{Children: []*Node{}}
	stack := []frame{{level: 0, node: root}}
	count := 0

	for _, line := range strings.Split(text, "\n") {
		if count >= cfg.maxNodes {
			break
		}
		level, title, ok := heading(strings.TrimSuffix(line, "\r"))
		if !ok {
			continue
		}
		count++

		node := &Node{Title: title, Depth: level, Children: []*Node{}}
		for stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, node)
		stack = append(stack, frame{level: level, node: node})
	}
	return root
}

// heading reports the level and title of an ATX style heading line: one or
// more '#' followed by a space or tab.
func heading(line string) (int, string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level >= len(line) {
		return 0, "", false
	}
	if c := line[level]; c != ' ' && c != '\t' {
		return 0, "", false
	}
	return level, truncate(strings.TrimSpace(line[level:]), MaxTitleRunes), true
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

// Validate reports InvalidInput when text is not valid UTF-8. Parse itself
// accepts any input.
func Validate(text string) error {
	if !utf8.ValidString(text) {
		return domain.InvalidInput("markdown must be valid UTF-8")
	}
	return nil
}

// Walk visits every non-root node depth first in document order. Returning
// false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || fn == nil {
		return
	}
	for _, child := range n.Children {
		if fn(child) {
			child.Walk(fn)
		}
	}
}

// Count returns the number of headings below n.
func (n *Node) Count() int {
	total := 0
	n.Walk(func(*Node) bool {
		total++
		return true
	})
	return total
}

// Headings serialises the tree back into heading lines, one per node, using
// each node's depth as its level.
func (n *Node) Headings() string {
	var b strings.Builder
	n.Walk(func(node *Node) bool {
		b.WriteString(strings.Repeat("#", node.Depth))
		b.WriteByte(' ')
		b.WriteString(node.Title)
		b.WriteByte('\n')
		return true
	})
	return b.String()
}

// FirstTitle returns the title of the first top-level heading, or "".
func (n *Node) FirstTitle() string {
	if n == nil {
		return ""
	}
	for _, child := range n.Children {
		if child.Title != "" {
			return child.Title
		}
	}
	return ""
}
