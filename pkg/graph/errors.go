package graph

import (
	"errors"
	"fmt"
)

// Error kinds. Every *Error unwraps to exactly one of these, so callers
// classify failures with errors.Is.
var (
	ErrMalformedInput   = errors.New("malformed input")
	ErrInvalidReference = errors.New("invalid reference")
	ErrInvalidEmbedding = errors.New("invalid embedding")
	ErrMalformedDesign  = errors.New("malformed design")
)

// ElementKind names the kind of graph element an Error refers to.
type ElementKind int

const (
	ElementGraph ElementKind = iota
	ElementNode
	ElementEdge
	ElementSubgraph
	ElementMapping
)

func (k ElementKind) String() string {
	switch k {
	case ElementGraph:
		return "graph"
	case ElementNode:
		return "node"
	case ElementEdge:
		return "edge"
	case ElementSubgraph:
		return "subgraph"
	case ElementMapping:
		return "mapping"
	default:
		return fmt.Sprintf("ElementKind(%d)", int(k))
	}
}

// Error describes a single failure with enough context to locate it:
// the graph name and, when relevant, the offending element index.
type Error struct {
	Kind    error       // one of the Err* kinds above
	Graph   string      // name of the graph involved (may be empty)
	Element ElementKind // element kind the Index refers to
	Index   int         // offending index, or -1 if graph-level
	Message string      // human-readable description
}

// NewError builds an Error. Pass index -1 for graph-level failures.
func NewError(kind error, graphName string, element ElementKind, index int, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Graph:   graphName,
		Element: element,
		Index:   index,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *Error) Error() string {
	if e.Index < 0 || e.Element == ElementGraph {
		return fmt.Sprintf("%s: graph %q: %s", e.Kind, e.Graph, e.Message)
	}
	return fmt.Sprintf("%s: graph %q: %s %d: %s", e.Kind, e.Graph, e.Element, e.Index, e.Message)
}

// Unwrap returns the error kind.
func (e *Error) Unwrap() error {
	return e.Kind
}
