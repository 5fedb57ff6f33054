// Package formula implements the restricted expression language used by
// scoring conditions. A formula combines test references, numeric literals
// and the operators + - * / > < >= <= == != && || ! (with the keywords
// and, or, not, true, false) under the usual precedence rules.
//
// Formulas are parsed into a small tagged AST and evaluated against an
// environment of reference weights. There is no way to call functions,
// assign variables or loop, so evaluation always terminates.
package formula

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenKind identifies a lexical token.
type TokenKind int

// Token kinds.
const (
	TokEOF TokenKind = iota
	TokNumber
	TokIdent
	TokTrue
	TokFalse
	TokLParen
	TokRParen
	TokPlus
	TokMinus
	TokStar
	TokSlash
	TokGt
	TokLt
	TokGe
	TokLe
	TokEq
	TokNe
	TokAnd
	TokOr
	TokNot
)

var tokenNames = map[TokenKind]string{
	TokEOF:    "end of formula",
	TokNumber: "number",
	TokIdent:  "identifier",
	TokTrue:   "true",
	TokFalse:  "false",
	TokLParen: "(",
	TokRParen: ")",
	TokPlus:   "+",
	TokMinus:  "-",
	TokStar:   "*",
	TokSlash:  "/",
	TokGt:     ">",
	TokLt:     "<",
	TokGe:     ">=",
	TokLe:     "<=",
	TokEq:     "==",
	TokNe:     "!=",
	TokAnd:    "&&",
	TokOr:     "||",
	TokNot:    "!",
}

func (k TokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// Token is one lexical unit. Pos and End are byte offsets into the source.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
	End  int
}

var keywords = map[string]TokenKind{
	"and":   TokAnd,
	"or":    TokOr,
	"not":   TokNot,
	"true":  TokTrue,
	"false": TokFalse,
}

// Lex splits src into tokens. The returned slice always ends with a TokEOF
// token.
func Lex(src string) ([]Token, error) {
	var toks []Token
	i := 0
	for i < len(src) {
		c := rune(src[i])
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
			continue
		case isIdentStart(c):
			start := i
			for i < len(src) && (isIdentPart(rune(src[i])) || innerDot(src, i)) {
				i++
			}
			text := src[start:i]
			kind := TokIdent
			if kw, ok := keywords[strings.ToLower(text)]; ok {
				kind = kw
			}
			toks = append(toks, Token{Kind: kind, Text: text, Pos: start, End: i})
			continue
		case unicode.IsDigit(c) || (c == '.' && i+1 < len(src) && unicode.IsDigit(rune(src[i+1]))):
			start := i
			seenDot := false
			for i < len(src) {
				d := rune(src[i])
				if d == '.' && !seenDot {
					seenDot = true
					i++
					continue
				}
				if !unicode.IsDigit(d) {
					break
				}
				i++
			}
			toks = append(toks, Token{Kind: TokNumber, Text: src[start:i], Pos: start, End: i})
			continue
		}

		kind, width := operator(src[i:])
		if width == 0 {
			return nil, &SyntaxError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", src[i])}
		}
		toks = append(toks, Token{Kind: kind, Text: src[i : i+width], Pos: i, End: i + width})
		i += width
	}
	toks = append(toks, Token{Kind: TokEOF, Pos: len(src), End: len(src)})
	return toks, nil
}

func operator(s string) (TokenKind, int) {
	if len(s) >= 2 {
		switch s[:2] {
		case ">=":
			return TokGe, 2
		case "<=":
			return TokLe, 2
		case "==":
			return TokEq, 2
		case "!=":
			return TokNe, 2
		case "&&":
			return TokAnd, 2
		case "||":
			return TokOr, 2
		}
	}
	switch s[0] {
	case '(':
		return TokLParen, 1
	case ')':
		return TokRParen, 1
	case '+':
		return TokPlus, 1
	case '-':
		return TokMinus, 1
	case '*':
		return TokStar, 1
	case '/':
		return TokSlash, 1
	case '>':
		return TokGt, 1
	case '<':
		return TokLt, 1
	case '!':
		return TokNot, 1
	}
	return TokEOF, 0
}

// IsIdentifier reports whether s lexes as exactly one identifier, which is
// what a test reference must be to appear in a formula.
func IsIdentifier(s string) bool {
	toks, err := Lex(s)
	return err == nil && len(toks) == 2 && toks[0].Kind == TokIdent && toks[0].Text == s
}

// innerDot reports whether src[i] is a dot joining two identifier parts, as
// in "F1.1".
func innerDot(src string, i int) bool {
	return src[i] == '.' && i+1 < len(src) && isIdentPart(rune(src[i+1]))
}

func isIdentStart(c rune) bool {
	return c == '_' || (c < 0x80 && unicode.IsLetter(c))
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || (c < 0x80 && unicode.IsDigit(c))
}
