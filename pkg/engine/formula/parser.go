package formula

import (
	"fmt"
	"strings"
)

const (
	// MaxLength is the longest formula accepted, in bytes.
	MaxLength = 512

	// MaxDepth bounds parenthesis and unary-operator nesting.
	MaxDepth = 32
)

// Expr is a parsed formula.
type Expr struct {
	source string
	root   node
	idents []string
}

// Source returns the formula text the expression was parsed from.
func (e *Expr) Source() string {
	return e.source
}

// Identifiers returns the distinct identifiers referenced by the formula in
// first-seen order.
func (e *Expr) Identifiers() []string {
	out := make([]string, len(e.idents))
	copy(out, e.idents)
	return out
}

// String renders the expression fully parenthesised.
func (e *Expr) String() string {
	return e.root.String()
}

// Parse parses src into an expression.
func Parse(src string) (*Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, ErrEmpty
	}
	if len(src) > MaxLength {
		return nil, &SyntaxError{Formula: src[:32] + "...", Pos: MaxLength, Message: fmt.Sprintf("formula exceeds %d bytes", MaxLength)}
	}

	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}

	p := &parser{src: src, tokens: tokens, seen: make(map[string]bool)}
	root, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok, "unexpected %s", describe(tok))
	}

	return &Expr{source: src, root: root, idents: p.idents}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level constants.
func MustParse(src string) *Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

type parser struct {
	src    string
	tokens []token
	pos    int
	idents []string
	seen   map[string]bool
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorf(tok token, format string, args ...any) *SyntaxError {
	return &SyntaxError{Formula: p.src, Pos: tok.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) parseExpr(depth int) (node, error) {
	left, err := p.parseTerm(depth)
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokPlus && tok.kind != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.parseTerm(depth)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tok.text[0], left: left, right: right}
	}
}

func (p *parser) parseTerm(depth int) (node, error) {
	left, err := p.parseUnary(depth)
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokStar && tok.kind != tokSlash {
			return left, nil
		}
		p.next()
		right, err := p.parseUnary(depth)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tok.text[0], left: left, right: right}
	}
}

func (p *parser) parseUnary(depth int) (node, error) {
	tok := p.peek()
	if tok.kind == tokPlus || tok.kind == tokMinus {
		if depth >= MaxDepth {
			return nil, p.errorf(tok, "nesting exceeds %d levels", MaxDepth)
		}
		p.next()
		operand, err := p.parseUnary(depth + 1)
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: tok.text[0], operand: operand}, nil
	}
	return p.parsePrimary(depth)
}

func (p *parser) parsePrimary(depth int) (node, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return numberNode(tok.value), nil
	case tokIdent:
		if !p.seen[tok.text] {
			p.seen[tok.text] = true
			p.idents = append(p.idents, tok.text)
		}
		return identNode(tok.text), nil
	case tokLParen:
		if depth >= MaxDepth {
			return nil, p.errorf(tok, "nesting exceeds %d levels", MaxDepth)
		}
		inner, err := p.parseExpr(depth + 1)
		if err != nil {
			return nil, err
		}
		closing := p.next()
		if closing.kind != tokRParen {
			return nil, p.errorf(closing, "expected ')' but found %s", describe(closing))
		}
		return inner, nil
	default:
		return nil, p.errorf(tok, "expected number, identifier or '(' but found %s", describe(tok))
	}
}

func describe(tok token) string {
	if tok.kind == tokNumber || tok.kind == tokIdent {
		return fmt.Sprintf("%s %q", tok.kind, tok.text)
	}
	return tok.kind.String()
}
