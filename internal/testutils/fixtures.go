// Package testutils provides shared fixtures for tests across the module:
// a sample algorithm export, FTR result documents, and in-memory stand-ins
// for the test registry and test services.
package testutils

import (
	"encoding/json"
	"strings"
)

// Test identifiers used by SampleAlgorithmCSV.
const (
	TestT1 = "https://tests.example.org/tests/t1"
	TestT2 = "https://tests.example.org/tests/t2"
	TestT3 = "https://tests.example.org/tests/t3"

	// SampleCalculationURI is a spreadsheet URI whose id is SampleAlgorithmID.
	SampleCalculationURI = "https://docs.google.com/spreadsheets/d/1SampleAlgorithmSheet_abc/edit"
	SampleAlgorithmID    = "1SampleAlgorithmSheet_abc"

	SampleBenchmark = "https://w3id.org/fair-benchmarks/sample"
	SampleSubject   = "https://doi.org/10.5281/zenodo.1234"
)

// SampleAlgorithmCSV is a three-block algorithm export with three tests and
// three conditions. With T1 and T2 passing and T3 failing the score is 4
// and only C1 holds; with all three passing it is 6 and every condition
// holds.
const SampleAlgorithmCSV = `Property,Value
title,Sample findability algorithm
description,Checks that identifiers resolve and metadata is indexed
SIO_000233,` + SampleBenchmark + `
keyword,"fair, sample"
License,https://creativecommons.org/licenses/by/4.0/
,,,,
Test Reference,Test GUID,Pass Weight,Fail Weight,Indeterminate Weight
T1,` + TestT1 + `,3,0,1
T2,` + TestT2 + `,2,0,1
T3,` + TestT3 + `,1,-1,0
,,,,
Condition,Description,Formula,Success Message,Fail Message,Guidance
C1,Identifiers,T1 + T2 >= 5,Identifiers resolve,Identifiers do not resolve,"https://fair.example.org/ids|Use persistent identifiers"
C2,Indexing,T3 > 0,Metadata is indexed,Metadata is not indexed,"https://fair.example.org/index|Register with a search engine; check robots.txt"
C3,Overall,T1 + T2 + T3 > 4,Good overall,Needs work,
`

// SampleAlgorithmLines returns the sample export split the way a
// ConfigSource returns it.
func SampleAlgorithmLines() []string {
	lines := strings.SplitAfter(SampleAlgorithmCSV, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// ResultDocument returns the JSON-LD body a test service answers with: an
// execution activity associated with the test that used the subject and
// generated one result with the given value.
func ResultDocument(testIdentifier, subject, value string) []byte {
	doc := map[string]any{
		"@context": map[string]string{
			"ftr":  "https://w3id.org/ftr#",
			"prov": "http://www.w3.org/ns/prov#",
		},
		"@graph": []map[string]any{
			{
				"@id":                    "_:exec",
				"@type":                  "ftr:TestExecutionActivity",
				"prov:wasAssociatedWith": map[string]string{"@id": testIdentifier},
				"prov:used":              map[string]string{"@id": subject},
				"prov:generated":         map[string]string{"@id": "_:result"},
			},
			{
				"@id":        "_:result",
				"@type":      "ftr:TestResult",
				"prov:value": value,
			},
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return data
}
