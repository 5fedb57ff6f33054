package algorithm

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/formula"
	"github.com/ahrav/go-champion/internal/rdf"
)

// validate is the package-level validator instance used for validating
// parsed rows.
var validate = validator.New()

// Block names used in structure errors.
const (
	BlockMetadata   = "metadata"
	BlockTests      = "tests"
	BlockConditions = "conditions"
)

// Header names, in folded form.
const (
	colProperty      = "property"
	colDCATProperty  = "dcat property"
	colValue         = "value"
	colTestReference = "test reference"
	colTestGUID      = "test guid"
	colPassWeight    = "pass weight"
	colFailWeight    = "fail weight"
	colIndetWeight   = "indeterminate weight"
	colCondition     = "condition"
	colDescription   = "description"
	colFormula       = "formula"
	colSuccess       = "success message"
	colFail          = "fail message"
	colFailure       = "failure message"
	colGuidance      = "guidance"
)

// ParsedConfig is the typed content of a configuration export.
type ParsedConfig struct {
	Metadata   []domain.MetadataEntry
	Tests      []domain.TestSpec
	Conditions []domain.ConditionSpec
}

type parseState int

const (
	stateMetadata parseState = iota
	stateTests
	stateConditions
)

// blockLines holds the logical lines of one block with the 1-based line
// number of the first one.
type blockLines struct {
	start int
	lines []string
}

// IsSeparator reports whether a line separates blocks: once every comma is
// removed nothing but whitespace is left.
func IsSeparator(line string) bool {
	return strings.TrimSpace(strings.ReplaceAll(line, ",", "")) == ""
}

// ParseConfig splits a configuration export into its metadata, tests and
// conditions blocks and parses each one. It is a pure function of lines.
//
// The blocks are separated by blank lines. A run of consecutive separator
// lines counts as a single transition and only once a row follows it, so
// trailing separators never open a block. Separators before the first row
// of a block are ignored, and anything after the conditions block belongs
// to it. An export that never reaches the conditions block fails with a
// *domain.ConfigStructureError.
func ParseConfig(lines []string) (*ParsedConfig, error) {
	logical := logicalLines(lines)

	blocks := [3]blockLines{}
	state := stateMetadata
	transitions := 0
	pending := false
	for i, line := range logical {
		if IsSeparator(line) {
			if state < stateConditions && len(blocks[state].lines) > 0 {
				pending = true
			}
			continue
		}
		// A separator only ends a block once another row follows it.
		if pending {
			state++
			transitions++
			pending = false
		}
		if len(blocks[state].lines) == 0 {
			blocks[state].start = i + 1
		}
		blocks[state].lines = append(blocks[state].lines, line)
	}
	if transitions < 2 {
		return nil, domain.NewConfigStructureError("", 0,
			fmt.Errorf("%w: found %d", domain.ErrMissingSeparators, transitions))
	}

	cfg := &ParsedConfig{}
	var err error
	if cfg.Metadata, err = parseMetadata(blocks[stateMetadata]); err != nil {
		return nil, err
	}
	if cfg.Tests, err = parseTests(blocks[stateTests]); err != nil {
		return nil, err
	}
	if cfg.Conditions, err = parseConditions(blocks[stateConditions]); err != nil {
		return nil, err
	}
	return cfg, nil
}

// logicalLines joins physical lines that belong to one CSV record because a
// quoted cell spans a line break.
func logicalLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	var pending strings.Builder
	open := false
	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r\n")
		if open {
			pending.WriteByte('\n')
		}
		pending.WriteString(line)
		if strings.Count(line, `"`)%2 == 1 {
			open = !open
		}
		if open {
			continue
		}
		out = append(out, pending.String())
		pending.Reset()
	}
	if pending.Len() > 0 {
		out = append(out, pending.String())
	}
	return out
}

// table is a parsed block: a folded header index and the data records with
// their line numbers.
type table struct {
	block   string
	columns map[string]int
	rows    [][]string
	lineNos []int
}

func readTable(block string, b blockLines) (*table, error) {
	t := &table{block: block, columns: make(map[string]int)}
	if len(b.lines) == 0 {
		return t, nil
	}
	r := csv.NewReader(strings.NewReader(strings.Join(b.lines, "\n")))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, domain.NewConfigStructureError(block, b.start, err)
	}
	for i, name := range header {
		key := foldName(name)
		if _, dup := t.columns[key]; !dup && key != "" {
			t.columns[key] = i
		}
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.NewConfigStructureError(block, b.start, err)
		}
		if blankRecord(rec) {
			continue
		}
		line, _ := r.FieldPos(0)
		t.rows = append(t.rows, rec)
		t.lineNos = append(t.lineNos, b.start+line-1)
	}
	return t, nil
}

// cell returns the trimmed value of the named column, or "" when the
// column or the cell is missing.
func (t *table) cell(row []string, names ...string) string {
	for _, name := range names {
		if i, ok := t.columns[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
	}
	return ""
}

func (t *table) has(names ...string) bool {
	for _, name := range names {
		if _, ok := t.columns[name]; ok {
			return true
		}
	}
	return false
}

func (t *table) require(names ...string) error {
	if t.has(names...) {
		return nil
	}
	return domain.NewConfigStructureError(t.block, 0,
		fmt.Errorf("%w: %q", domain.ErrMissingColumn, names[0]))
}

func parseMetadata(b blockLines) ([]domain.MetadataEntry, error) {
	t, err := readTable(BlockMetadata, b)
	if err != nil {
		return nil, err
	}
	if err := t.require(colProperty, colDCATProperty); err != nil {
		return nil, err
	}
	if err := t.require(colValue); err != nil {
		return nil, err
	}

	entries := make([]domain.MetadataEntry, 0, len(t.rows))
	for _, row := range t.rows {
		prop := t.cell(row, colProperty, colDCATProperty)
		if prop == "" {
			continue
		}
		entries = append(entries, domain.MetadataEntry{Property: prop, Value: t.cell(row, colValue)})
	}
	return entries, nil
}

func parseTests(b blockLines) ([]domain.TestSpec, error) {
	t, err := readTable(BlockTests, b)
	if err != nil {
		return nil, err
	}
	if err := t.require(colTestReference); err != nil {
		return nil, err
	}
	if err := t.require(colTestGUID); err != nil {
		return nil, err
	}

	tests := make([]domain.TestSpec, 0, len(t.rows))
	seen := make(map[string]struct{})
	for i, row := range t.rows {
		spec := domain.TestSpec{
			Reference:           t.cell(row, colTestReference),
			TestIdentifier:      t.cell(row, colTestGUID),
			PassWeight:          parseWeight(t.cell(row, colPassWeight)),
			FailWeight:          parseWeight(t.cell(row, colFailWeight)),
			IndeterminateWeight: parseWeight(t.cell(row, colIndetWeight)),
		}
		if err := validate.Struct(spec); err != nil {
			return nil, domain.NewConfigStructureError(BlockTests, t.lineNos[i], err)
		}
		if !formula.IsIdentifier(spec.Reference) {
			return nil, domain.NewConfigStructureError(BlockTests, t.lineNos[i],
				fmt.Errorf("test reference %q cannot be used in formulas", spec.Reference))
		}
		if _, dup := seen[spec.Reference]; dup {
			return nil, domain.NewConfigStructureError(BlockTests, t.lineNos[i],
				fmt.Errorf("%w: %q", domain.ErrDuplicateReference, spec.Reference))
		}
		seen[spec.Reference] = struct{}{}
		tests = append(tests, spec)
	}
	return tests, nil
}

func parseConditions(b blockLines) ([]domain.ConditionSpec, error) {
	t, err := readTable(BlockConditions, b)
	if err != nil {
		return nil, err
	}
	if len(t.rows) > 0 {
		if err := t.require(colFormula); err != nil {
			return nil, err
		}
	}

	conds := make([]domain.ConditionSpec, 0, len(t.rows))
	for _, row := range t.rows {
		conds = append(conds, domain.ConditionSpec{
			ID:             t.cell(row, colCondition),
			Description:    t.cell(row, colDescription),
			Formula:        t.cell(row, colFormula),
			SuccessMessage: t.cell(row, colSuccess),
			FailureMessage: t.cell(row, colFail, colFailure),
			Guidance:       ParseGuidance(t.cell(row, colGuidance)),
		})
	}
	return conds, nil
}

// ParseGuidance splits a guidance cell into entries. Entries are separated
// by line breaks or semicolons; each is "url|description", "url
// description" or a bare description.
func ParseGuidance(cell string) []domain.Guidance {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	parts := strings.FieldsFunc(cell, func(r rune) bool { return r == '\n' || r == ';' })
	var out []domain.Guidance
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if u, desc, ok := strings.Cut(part, "|"); ok {
			out = append(out, domain.Guidance{URL: strings.TrimSpace(u), Description: strings.TrimSpace(desc)})
			continue
		}
		first, rest, _ := strings.Cut(part, " ")
		if rdf.LooksLikeHTTPURI(first) {
			out = append(out, domain.Guidance{URL: first, Description: strings.TrimSpace(rest)})
			continue
		}
		out = append(out, domain.Guidance{Description: part})
	}
	return out
}

// parseWeight reads a weight cell. Empty, non-numeric and non-finite
// values are 0.0.
func parseWeight(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.0
	}
	return v
}

// foldName normalises header and property names for case-insensitive
// matching. Casers are stateful, so each call gets its own.
func foldName(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}

func blankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
