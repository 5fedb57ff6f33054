// Package algorithm implements the scoring core: parsing the three-block
// configuration export, describing the algorithm as a DCAT data service,
// extracting per-test outcomes from a result set and evaluating the
// configured conditions over them.
package algorithm

import (
	"net/url"
	"regexp"
	"strings"
)

var editSuffix = regexp.MustCompile(`/edit.*$`)

// StripEditSuffix removes a spreadsheet "/edit..." suffix from a
// calculation URI.
func StripEditSuffix(calculationURI string) string {
	return editSuffix.ReplaceAllString(strings.TrimSpace(calculationURI), "")
}

// ExportURL returns the CSV export location of a calculation URI.
func ExportURL(calculationURI string) string {
	return strings.TrimRight(StripEditSuffix(calculationURI), "/") + "/export?exportFormat=csv"
}

// ID derives the stable algorithm id from a calculation URI: the last path
// segment once any "/edit..." suffix, query and trailing slashes are gone.
// For https://docs.google.com/spreadsheets/d/16s2/edit#gid=0 it is "16s2".
func ID(calculationURI string) string {
	base := StripEditSuffix(calculationURI)
	if u, err := url.Parse(base); err == nil && u.Path != "" {
		base = u.Path
	} else if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimRight(base, "/")
	if i := strings.LastIndex(base, "/"); i >= 0 {
		return base[i+1:]
	}
	return base
}
