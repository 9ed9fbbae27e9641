package formula

import (
	"math"
	"strconv"
)

// Bindings maps identifiers to values.
type Bindings map[string]float64

// Eval evaluates the expression. Every identifier must be bound.
func (e *Expr) Eval(bindings Bindings) (float64, error) {
	v, err := e.root.eval(bindings)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNonFinite
	}
	return v, nil
}

// Evaluate parses and evaluates src in one step.
func Evaluate(src string, bindings Bindings) (float64, error) {
	e, err := Parse(src)
	if err != nil {
		return 0, err
	}
	return e.Eval(bindings)
}

type node interface {
	eval(Bindings) (float64, error)
	String() string
}

type numberNode float64

func (n numberNode) eval(Bindings) (float64, error) {
	return float64(n), nil
}

func (n numberNode) String() string {
	return strconv.FormatFloat(float64(n), 'g', -1, 64)
}

type identNode string

func (n identNode) eval(b Bindings) (float64, error) {
	v, ok := b[string(n)]
	if !ok {
		return 0, &UnknownIdentifierError{Name: string(n)}
	}
	return v, nil
}

func (n identNode) String() string {
	return string(n)
}

type unaryNode struct {
	op      byte
	operand node
}

func (n *unaryNode) eval(b Bindings) (float64, error) {
	v, err := n.operand.eval(b)
	if err != nil {
		return 0, err
	}
	if n.op == '-' {
		return -v, nil
	}
	return v, nil
}

func (n *unaryNode) String() string {
	return "(" + string(n.op) + n.operand.String() + ")"
}

type binaryNode struct {
	op          byte
	left, right node
}

func (n *binaryNode) eval(b Bindings) (float64, error) {
	l, err := n.left.eval(b)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(b)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	default:
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return l / r, nil
	}
}

func (n *binaryNode) String() string {
	return "(" + n.left.String() + " " + string(n.op) + " " + n.right.String() + ")"
}
