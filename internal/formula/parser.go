package formula

import (
	"errors"
	"fmt"
	"strconv"
)

// Sentinel errors reported by evaluation.
var (
	ErrDivisionByZero    = errors.New("division by zero")
	ErrUnknownIdentifier = errors.New("unknown identifier")
	ErrType              = errors.New("type mismatch")
)

// SyntaxError reports a malformed formula.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

// Node is an expression tree node.
type Node interface {
	node()
}

// Number is a numeric literal.
type Number struct{ Value float64 }

// Bool is a boolean literal.
type Bool struct{ Value bool }

// Ident is a reference to a variable of the environment.
type Ident struct {
	Name string
	Pos  int
}

// Unary is a prefix operation: negation or logical not.
type Unary struct {
	Op TokenKind
	X  Node
}

// Binary is an arithmetic, comparison or logical operation.
type Binary struct {
	Op   TokenKind
	X, Y Node
}

func (Number) node() {}
func (Bool) node()   {}
func (Ident) node()  {}
func (Unary) node()  {}
func (Binary) node() {}

// Parse builds the expression tree of src.
//
// Grammar, lowest precedence first:
//
//	or         = and { ("||" | "or") and }
//	and        = equality { ("&&" | "and") equality }
//	equality   = comparison { ("==" | "!=") comparison }
//	comparison = additive { (">" | "<" | ">=" | "<=") additive }
//	additive   = term { ("+" | "-") term }
//	term       = unary { ("*" | "/") unary }
//	unary      = ("-" | "!" | "not") unary | primary
//	primary    = number | ident | "true" | "false" | "(" or ")"
func Parse(src string) (Node, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	if len(toks) == 1 {
		return nil, &SyntaxError{Pos: 0, Msg: "empty formula"}
	}
	p := &parser{toks: toks}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != TokEOF {
		return nil, &SyntaxError{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected %q", tok.Text)}
	}
	return n, nil
}

type parser struct {
	toks []Token
	pos  int
}

func (p *parser) peek() Token { return p.toks[p.pos] }

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Kind != TokEOF {
		p.pos++
	}
	return t
}

// binaryLevel parses a left-associative chain of operators drawn from ops,
// with operands produced by sub.
func (p *parser) binaryLevel(sub func() (Node, error), ops ...TokenKind) (Node, error) {
	left, err := sub()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().Kind
		if !containsKind(ops, op) {
			return left, nil
		}
		p.next()
		right, err := sub()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, X: left, Y: right}
	}
}

func (p *parser) parseOr() (Node, error) { return p.binaryLevel(p.parseAnd, TokOr) }

func (p *parser) parseAnd() (Node, error) { return p.binaryLevel(p.parseEquality, TokAnd) }

func (p *parser) parseEquality() (Node, error) {
	return p.binaryLevel(p.parseComparison, TokEq, TokNe)
}

func (p *parser) parseComparison() (Node, error) {
	return p.binaryLevel(p.parseAdditive, TokGt, TokLt, TokGe, TokLe)
}

func (p *parser) parseAdditive() (Node, error) {
	return p.binaryLevel(p.parseTerm, TokPlus, TokMinus)
}

func (p *parser) parseTerm() (Node, error) {
	return p.binaryLevel(p.parseUnary, TokStar, TokSlash)
}

func (p *parser) parseUnary() (Node, error) {
	switch p.peek().Kind {
	case TokMinus, TokNot:
		op := p.next().Kind
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Unary{Op: op, X: x}, nil
	case TokPlus:
		p.next()
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.next()
	switch tok.Kind {
	case TokNumber:
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: tok.Pos, Msg: fmt.Sprintf("bad number %q", tok.Text)}
		}
		return Number{Value: v}, nil
	case TokIdent:
		return Ident{Name: tok.Text, Pos: tok.Pos}, nil
	case TokTrue:
		return Bool{Value: true}, nil
	case TokFalse:
		return Bool{Value: false}, nil
	case TokLParen:
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.Kind != TokRParen {
			return nil, &SyntaxError{Pos: closing.Pos, Msg: "missing closing parenthesis"}
		}
		return n, nil
	case TokEOF:
		return nil, &SyntaxError{Pos: tok.Pos, Msg: "unexpected end of formula"}
	default:
		return nil, &SyntaxError{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected %q", tok.Text)}
	}
}

func containsKind(kinds []TokenKind, k TokenKind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}
