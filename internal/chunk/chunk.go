// Package chunk splits rich-text HTML into bounded-size structural chunks
// for the ingestion pipeline. Each chunk is a verbatim slice of the source
// document together with its position span, so downstream consumers can
// re-anchor a chunk (for highlighting) without re-parsing.
package chunk

import (
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// DefaultMinSize is the minimum visible-text length of a chunk, in
// characters. A structural child shorter than this becomes a single chunk;
// a longer one is recursed into.
const DefaultMinSize = 500

// Position locates one end of a chunk in the source document. Line and
// Column are 1-based; Offset is the byte offset.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

// Chunk is one bounded slice of the source document.
type Chunk struct {
	HTML  string   `json:"html"`
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Chunker splits documents. The zero value uses DefaultMinSize.
type Chunker struct {
	MinSize int
}

// New returns a Chunker with the given minimum chunk size. Non-positive
// sizes fall back to DefaultMinSize.
func New(minSize int) *Chunker {
	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	return &Chunker{MinSize: minSize}
}

// node is a structural element of the source with its byte span and the
// length of its flattened visible text.
type node struct {
	start    int
	end      int
	textLen  int
	children []*node
}

// Split chunks an HTML document. The result is the position-ordered list of
// leaf chunks; under well-formed input the spans of a recursed node's
// children cover that node's content without gap or overlap.
func (c *Chunker) Split(source string) ([]Chunk, error) {
	root, err := buildTree(source)
	if err != nil {
		return nil, err
	}

	lines := lineOffsets(source)
	min := c.MinSize
	if min <= 0 {
		min = DefaultMinSize
	}

	var chunks []Chunk
	var walk func(n *node)
	emit := func(n *node) {
		chunks = append(chunks, Chunk{
			HTML:  source[n.start:n.end],
			Start: position(lines, n.start),
			End:   position(lines, n.end),
		})
	}
	walk = func(n *node) {
		for _, child := range n.children {
			switch {
			case child.textLen < min || len(child.children) == 0:
				emit(child)
			default:
				walk(child)
			}
		}
	}

	if len(root.children) == 0 {
		if root.end > root.start {
			emit(root)
		}
		return chunks, nil
	}
	walk(root)
	return chunks, nil
}

// voidElements never receive an end tag, so the tokenizer emits only a
// start tag for them.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// buildTree tokenizes the source and reconstructs the element tree with
// byte spans. The tokenizer, unlike the parser, leaves the document exactly
// as written, which keeps spans aligned with the original bytes.
func buildTree(source string) (*node, error) {
	tokenizer := html.NewTokenizer(strings.NewReader(source))

	root := &node{start: 0, end: len(source)}
	stack := []*node{root}
	offset := 0

	for {
		tokenType := tokenizer.Next()
		raw := tokenizer.Raw()
		tokenStart := offset
		offset += len(raw)

		switch tokenType {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != nil && !errors.Is(err, io.EOF) {
				// Tokenization never fails on malformed markup, only on
				// reader errors, which cannot happen for a string reader.
				return nil, err
			}
			// Close any elements left open at end of input.
			for len(stack) > 1 {
				open := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				open.end = len(source)
				attach(stack[len(stack)-1], open)
			}
			return root, nil

		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if voidElements[string(name)] {
				attach(stack[len(stack)-1], &node{start: tokenStart, end: offset})
				continue
			}
			stack = append(stack, &node{start: tokenStart})

		case html.SelfClosingTagToken:
			attach(stack[len(stack)-1], &node{start: tokenStart, end: offset})

		case html.EndTagToken:
			if len(stack) == 1 {
				continue // stray end tag
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			open.end = offset
			attach(stack[len(stack)-1], open)

		case html.TextToken:
			text := string(tokenizer.Text())
			attach(stack[len(stack)-1], &node{
				start:   tokenStart,
				end:     offset,
				textLen: utf8.RuneCountInString(text),
			})

		case html.CommentToken, html.DoctypeToken:
			attach(stack[len(stack)-1], &node{start: tokenStart, end: offset})
		}
	}
}

func attach(parent, child *node) {
	parent.children = append(parent.children, child)
	parent.textLen += child.textLen
}

func lineOffsets(source string) []int {
	offsets := []int{0}
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

func position(lines []int, offset int) Position {
	// binary search for the last line start at or before offset
	lo, hi := 0, len(lines)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if lines[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return Position{
		Line:   lo + 1,
		Column: offset - lines[lo] + 1,
		Offset: offset,
	}
}
