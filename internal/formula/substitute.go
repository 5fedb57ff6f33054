package formula

import (
	"strings"
)

// Substitute replaces every identifier token of src that has a value in env
// with that value, leaving everything else byte for byte. Matching is by
// whole token, so "T1" never matches inside "T10". Unknown identifiers are
// kept as written. On a lexing error src is returned unchanged.
func Substitute(src string, env Env) string {
	toks, err := Lex(src)
	if err != nil {
		return src
	}
	var sb strings.Builder
	last := 0
	for _, tok := range toks {
		if tok.Kind != TokIdent {
			continue
		}
		v, ok := env[tok.Text]
		if !ok {
			continue
		}
		sb.WriteString(src[last:tok.Pos])
		sb.WriteString(FormatNumber(v))
		last = tok.End
	}
	sb.WriteString(src[last:])
	return sb.String()
}

// Identifiers returns the distinct identifiers referenced by src in order of
// first appearance.
func Identifiers(src string) ([]string, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range toks {
		if tok.Kind != TokIdent {
			continue
		}
		if _, ok := seen[tok.Text]; ok {
			continue
		}
		seen[tok.Text] = struct{}{}
		out = append(out, tok.Text)
	}
	return out, nil
}
