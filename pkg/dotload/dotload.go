// Package dotload reads graphs and rule graphs from Graphviz DOT files.
//
// A file may hold several digraph blocks; each becomes one graph.Graph.
// Node and edge attribute lists are applied with graph.UpdateNodeAttributes
// and graph.UpdateEdgeAttributes, so unknown keys such as Graphviz styling
// are ignored. Inside a subgraph, node [...] and edge [...] statements set
// the subgraph defaults; an element first declared in a scope starts from
// the defaults of every enclosing scope before its own attributes apply.
//
// Node names containing ':' (such as L:head) must be quoted, since DOT
// reads an unquoted colon as a port.
package dotload

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/awalterschulze/gographviz"
	"github.com/awalterschulze/gographviz/ast"

	"github.com/chazu/robogram/pkg/graph"
)

// LoadGraphs reads every digraph in the DOT file at path.
func LoadGraphs(path string) ([]*graph.Graph, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dotload: %w", err)
	}
	graphs, err := ParseGraphs(string(src))
	if err != nil {
		return nil, fmt.Errorf("dotload: %s: %w", path, err)
	}
	return graphs, nil
}

// ParseGraphs parses every digraph in src, in source order.
func ParseGraphs(src string) ([]*graph.Graph, error) {
	blocks, err := splitGraphs(src)
	if err != nil {
		return nil, err
	}
	graphs := make([]*graph.Graph, 0, len(blocks))
	for i, block := range blocks {
		tree, err := gographviz.ParseString(block)
		if err != nil {
			return nil, fmt.Errorf("%w: graph %d: %v", graph.ErrMalformedInput, i, err)
		}
		if tree.Type != ast.DIGRAPH {
			return nil, fmt.Errorf("%w: graph %d: %q is undirected, want digraph", graph.ErrMalformedInput, i, unquote(tree.ID))
		}
		g, err := convert(tree)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, g)
	}
	return graphs, nil
}

// ---------------------------------------------------------------------------
// AST conversion
// ---------------------------------------------------------------------------

func convert(tree *ast.Graph) (*graph.Graph, error) {
	b := graph.NewBuilder(unquote(tree.ID))
	c := &converter{b: b}
	c.stmts(tree.StmtList, b.Root())
	return b.Graph()
}

type converter struct {
	b *graph.Builder
}

func (c *converter) stmts(list ast.StmtList, sc *graph.Scope) {
	for _, stmt := range list {
		switch s := any(stmt).(type) {
		case *ast.NodeStmt:
			sc.Node(unquote(s.NodeID.ID), pairs(s.Attrs))
		case *ast.EdgeStmt:
			c.edges(s, sc)
		case ast.NodeAttrs:
			sc.NodeDefaults(pairs(ast.AttrList(s)))
		case *ast.NodeAttrs:
			sc.NodeDefaults(pairs(ast.AttrList(*s)))
		case ast.EdgeAttrs:
			sc.EdgeDefaults(pairs(ast.AttrList(s)))
		case *ast.EdgeAttrs:
			sc.EdgeDefaults(pairs(ast.AttrList(*s)))
		case *ast.SubGraph:
			name := unquote(s.ID)
			if anonymous(name) {
				name = ""
			}
			c.stmts(s.StmtList, sc.Subgraph(name))
		default:
			// Graph attributes (rankdir=..., graph [...]) carry no design data.
		}
	}
}

// anonymous reports whether a subgraph ID was left out in the source. The
// parser names such subgraphs anon<N>.
func anonymous(name string) bool {
	if name == "" {
		return true
	}
	digits := strings.TrimPrefix(name, "anon")
	if digits == name || digits == "" {
		return false
	}
	_, err := strconv.Atoi(digits)
	return err == nil
}

// edges converts a chain a -> b -> c into one edge per hop, each with the
// statement's attributes.
func (c *converter) edges(s *ast.EdgeStmt, sc *graph.Scope) {
	tail, ok := c.location(s.Source)
	if !ok {
		return
	}
	attrs := pairs(s.Attrs)
	for _, rh := range s.EdgeRHS {
		head, ok := c.location(rh.Destination)
		if !ok {
			return
		}
		sc.Edge(tail, head, attrs)
		tail = head
	}
}

// location returns the node name of an edge endpoint. Subgraph endpoints
// are rejected.
func (c *converter) location(loc ast.Location) (string, bool) {
	if id, ok := any(loc).(*ast.NodeID); ok {
		return unquote(id.ID), true
	}
	c.b.Fail(fmt.Errorf("%w: edge endpoint %s is not a node", graph.ErrMalformedInput, loc))
	return "", false
}

// pairs flattens a DOT attribute list, keeping source order.
func pairs(attrs ast.AttrList) []graph.AttrPair {
	var out []graph.AttrPair
	for _, list := range attrs {
		for _, a := range list {
			out = append(out, graph.AttrPair{Key: unquote(a.Field), Value: unquote(a.Value)})
		}
	}
	return out
}

// unquote strips DOT string quoting from an ID.
func unquote(id ast.ID) string {
	s := string(id)
	if len(s) >= 2 && s[0] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	}
	return s
}

// ---------------------------------------------------------------------------
// Multi-graph splitting
// ---------------------------------------------------------------------------

// splitGraphs cuts src into one chunk per top level graph block. The DOT
// grammar accepts a single graph per parse, so blocks are located by
// brace depth, skipping strings and comments.
func splitGraphs(src string) ([]string, error) {
	var blocks []string
	depth, start := 0, 0
	for i := 0; i < len(src); i++ {
		switch ch := src[i]; {
		case ch == '"':
			j := i + 1
			for ; j < len(src) && src[j] != '"'; j++ {
				if src[j] == '\\' {
					j++
				}
			}
			if j >= len(src) {
				return nil, fmt.Errorf("%w: unterminated string at offset %d", graph.ErrMalformedInput, i)
			}
			i = j
		case ch == '/' && strings.HasPrefix(src[i:], "//"), ch == '#' && atLineStart(src, i):
			if j := strings.IndexByte(src[i:], '\n'); j >= 0 {
				i += j
			} else {
				i = len(src)
			}
		case ch == '/' && strings.HasPrefix(src[i:], "/*"):
			j := strings.Index(src[i+2:], "*/")
			if j < 0 {
				return nil, fmt.Errorf("%w: unterminated comment at offset %d", graph.ErrMalformedInput, i)
			}
			i += j + 3
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced '}' at offset %d", graph.ErrMalformedInput, i)
			}
			if depth == 0 {
				blocks = append(blocks, src[start:i+1])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced '{'", graph.ErrMalformedInput)
	}
	if strings.TrimSpace(stripComments(src[start:])) != "" {
		return nil, fmt.Errorf("%w: trailing text after last graph", graph.ErrMalformedInput)
	}
	return blocks, nil
}

// atLineStart reports whether only blanks precede offset i on its line.
func atLineStart(src string, i int) bool {
	for j := i - 1; j >= 0 && src[j] != '\n'; j-- {
		if src[j] != ' ' && src[j] != '\t' {
			return false
		}
	}
	return true
}

// stripComments drops // and # line comments and /* */ blocks from a tail
// that contains no strings.
func stripComments(s string) string {
	var b strings.Builder
	for len(s) > 0 {
		switch {
		case strings.HasPrefix(s, "/*"):
			j := strings.Index(s, "*/")
			if j < 0 {
				return b.String()
			}
			s = s[j+2:]
		case strings.HasPrefix(s, "//"), s[0] == '#':
			j := strings.IndexByte(s, '\n')
			if j < 0 {
				return b.String()
			}
			s = s[j:]
		default:
			b.WriteByte(s[0])
			s = s[1:]
		}
	}
	return b.String()
}
