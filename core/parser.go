package mylisp

import (
	"fmt"
	"strings"
	"unicode"
)

// Parse tree tags. Category tags are matched by substring, the root by
// equality.
const (
	TagRoot        = ">"
	TagRegex       = "regex"
	TagChar        = "char"
	TagNumber      = "expression|number|regex"
	TagSymbol      = "expression|symbol|regex"
	TagSExpression = "expression|sexpression|>"
	TagQExpression = "expression|qexpression|>"
)

// Node is a generic parse tree node.
type Node struct {
	Tag      string
	Contents string
	Line     int
	Col      int
	Children []*Node
}

func (n *Node) String() string {
	var b strings.Builder
	n.dump(&b, 0)
	return b.String()
}

func (n *Node) dump(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Tag)
	if n.Contents != "" {
		fmt.Fprintf(b, " '%s'", n.Contents)
	}
	b.WriteByte('\n')
	for _, c := range n.Children {
		c.dump(b, depth+1)
	}
}

// ParseError reports where the grammar failed to match.
type ParseError struct {
	Source   string
	Line     int
	Col      int
	Expected []string
	Found    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: error: expected %s at %s",
		e.Source, e.Line, e.Col, joinExpected(e.Expected), e.Found)
}

func joinExpected(exp []string) string {
	switch len(exp) {
	case 0:
		return "nothing"
	case 1:
		return exp[0]
	default:
		return strings.Join(exp[:len(exp)-1], ", ") + " or " + exp[len(exp)-1]
	}
}

var expressionStarts = []string{"number", "symbol", "'('", "'{'"}

type parser struct {
	source string
	input  []rune
	pos    int
	line   int
	col    int
}

// Parse matches input against the phrase grammar and returns the root node.
// source names the input in error messages.
func Parse(source, input string) (*Node, error) {
	p := &parser{source: source, input: []rune(input), line: 1, col: 1}
	root := &Node{Tag: TagRoot, Line: 1, Col: 1}
	root.Children = append(root.Children, &Node{Tag: TagRegex, Line: 1, Col: 1})
	for {
		p.skipWhitespace()
		if p.pos >= len(p.input) {
			break
		}
		node, err := p.parseExpression(nil)
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, node)
	}
	root.Children = append(root.Children, &Node{Tag: TagRegex, Line: p.line, Col: p.col})
	return root, nil
}

// parseExpression parses one expression. closers lists the group
// terminators that are acceptable at this position, for error reporting.
func (p *parser) parseExpression(closers []string) (*Node, error) {
	ch := p.input[p.pos]
	switch {
	case ch == '(':
		return p.parseGroup(TagSExpression, ')')
	case ch == '{':
		return p.parseGroup(TagQExpression, '}')
	}
	if n := p.matchNumber(); n > 0 {
		return p.leaf(TagNumber, n), nil
	}
	if n := p.matchSymbol(); n > 0 {
		return p.leaf(TagSymbol, n), nil
	}
	if closers == nil {
		closers = []string{"end of input"}
	}
	return nil, p.errorf(append(append([]string{}, expressionStarts...), closers...))
}

func (p *parser) parseGroup(tag string, end rune) (*Node, error) {
	group := &Node{Tag: tag, Line: p.line, Col: p.col}
	group.Children = append(group.Children, p.leaf(TagChar, 1))
	closer := fmt.Sprintf("'%c'", end)
	for {
		p.skipWhitespace()
		if p.pos >= len(p.input) {
			return nil, p.errorf(append(append([]string{}, expressionStarts...), closer))
		}
		if p.input[p.pos] == end {
			group.Children = append(group.Children, p.leaf(TagChar, 1))
			return group, nil
		}
		child, err := p.parseExpression([]string{closer})
		if err != nil {
			return nil, err
		}
		group.Children = append(group.Children, child)
	}
}

// matchNumber returns the length of a /-?[0-9]+/ match at pos, or 0.
func (p *parser) matchNumber() int {
	i := p.pos
	if i < len(p.input) && p.input[i] == '-' {
		i++
	}
	start := i
	for i < len(p.input) && p.input[i] >= '0' && p.input[i] <= '9' {
		i++
	}
	if i == start {
		return 0
	}
	return i - p.pos
}

// matchSymbol returns the length of a symbol match at pos, or 0.
func (p *parser) matchSymbol() int {
	i := p.pos
	for i < len(p.input) && isSymbolRune(p.input[i]) {
		i++
	}
	return i - p.pos
}

func isSymbolRune(ch rune) bool {
	switch {
	case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		return true
	}
	return strings.ContainsRune(`_+-*/\=<>!&`, ch)
}

// leaf consumes n runes into a leaf node.
func (p *parser) leaf(tag string, n int) *Node {
	node := &Node{Tag: tag, Contents: string(p.input[p.pos : p.pos+n]), Line: p.line, Col: p.col}
	p.advance(n)
	return node
}

func (p *parser) advance(n int) {
	for ; n > 0; n-- {
		if p.input[p.pos] == '\n' {
			p.line++
			p.col = 1
		} else {
			p.col++
		}
		p.pos++
	}
}

func (p *parser) skipWhitespace() {
	for p.pos < len(p.input) && unicode.IsSpace(p.input[p.pos]) {
		p.advance(1)
	}
}

func (p *parser) errorf(expected []string) error {
	found := "end of input"
	if p.pos < len(p.input) {
		found = fmt.Sprintf("'%c'", p.input[p.pos])
	}
	return &ParseError{
		Source:   p.source,
		Line:     p.line,
		Col:      p.col,
		Expected: expected,
		Found:    found,
	}
}
