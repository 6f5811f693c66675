// Package graph stores the knowledge-graph nodes pushed by PKM plugins:
// blocks and pages with parent/child structure and the references extracted
// from their content.
package graph

import (
	"errors"
	"strings"
	"time"
)

// NodeType distinguishes block nodes from page nodes.
type NodeType string

// NodeTypeBlock and NodeTypePage are the two node kinds.
const (
	NodeTypeBlock NodeType = "block"
	NodeTypePage  NodeType = "page"
)

// Node is one stored graph node.
type Node struct {
	ID         string            `json:"id"`
	Type       NodeType          `json:"type"`
	Content    string            `json:"content"`
	ParentID   string            `json:"parent_id,omitempty"`
	Children   []string          `json:"children,omitempty"`
	Page       string            `json:"page,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
	References []string          `json:"references,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// BlockData is the block payload sent by a PKM plugin.
type BlockData struct {
	ID         string            `json:"id"`
	Content    string            `json:"content"`
	Parent     string            `json:"parent,omitempty"`
	Children   []string          `json:"children,omitempty"`
	Page       string            `json:"page,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Validate checks the payload is storable.
func (b BlockData) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return errors.New("block id is empty")
	}
	return nil
}

// PageData is the page payload sent by a PKM plugin.
type PageData struct {
	Name       string            `json:"name"`
	Blocks     []string          `json:"blocks,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Validate checks the payload is storable.
func (p PageData) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("page name is empty")
	}
	return nil
}

// ExtractReferences scans block content for ((block-id)) references,
// [[page]] links, and #tag markers and returns the referenced names in
// order of appearance.
func ExtractReferences(content string) []string {
	var refs []string
	for i := 0; i < len(content); {
		switch {
		case strings.HasPrefix(content[i:], "(("):
			start := i + 2
			end := strings.Index(content[start:], "))")
			if end < 0 {
				i += 2
				continue
			}
			refs = append(refs, content[start:start+end])
			i = start + end + 2
		case strings.HasPrefix(content[i:], "[["):
			start := i + 2
			end := strings.Index(content[start:], "]]")
			if end < 0 {
				i += 2
				continue
			}
			refs = append(refs, content[start:start+end])
			i = start + end + 2
		case content[i] == '#' && i+1 < len(content) && isTagChar(content[i+1]):
			start := i + 1
			end := start
			for end < len(content) && isTagChar(content[end]) {
				end++
			}
			refs = append(refs, content[start:end])
			i = end
		default:
			i++
		}
	}
	return refs
}

func isTagChar(c byte) bool {
	return c == '-' || c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
