package formula

import (
	"strconv"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of formula"
	case tokNumber:
		return "number"
	case tokIdent:
		return "identifier"
	case tokPlus:
		return "'+'"
	case tokMinus:
		return "'-'"
	case tokStar:
		return "'*'"
	case tokSlash:
		return "'/'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	default:
		return "token"
	}
}

type token struct {
	kind  tokenKind
	pos   int
	text  string
	value float64
}

// tokenize splits src into tokens. Identifiers may contain letters, digits,
// underscores and dots (for nested fact paths) but must start with a letter
// or underscore.
func tokenize(src string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '+':
			tokens = append(tokens, token{kind: tokPlus, pos: i, text: "+"})
			i++
		case c == '-':
			tokens = append(tokens, token{kind: tokMinus, pos: i, text: "-"})
			i++
		case c == '*':
			tokens = append(tokens, token{kind: tokStar, pos: i, text: "*"})
			i++
		case c == '/':
			tokens = append(tokens, token{kind: tokSlash, pos: i, text: "/"})
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, pos: i, text: "("})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, pos: i, text: ")"})
			i++
		case isDigit(c) || c == '.':
			start := i
			for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
				i++
			}
			text := src[start:i]
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, &SyntaxError{Formula: src, Pos: start, Message: "malformed number " + strconv.Quote(text)}
			}
			tokens = append(tokens, token{kind: tokNumber, pos: start, text: text, value: v})
		case isIdentStart(c):
			start := i
			for i < len(src) && (isIdentStart(src[i]) || isDigit(src[i]) || src[i] == '.') {
				i++
			}
			text := src[start:i]
			if text[len(text)-1] == '.' {
				return nil, &SyntaxError{Formula: src, Pos: start, Message: "identifier cannot end with '.'"}
			}
			tokens = append(tokens, token{kind: tokIdent, pos: start, text: text})
		default:
			return nil, &SyntaxError{Formula: src, Pos: i, Message: "unexpected character " + strconv.QuoteRune(rune(c))}
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(src)})
	return tokens, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
