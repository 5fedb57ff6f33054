package testutils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// ServiceError is the result value that makes a fake test answer 500.
const ServiceError = "error"

// TestService is an httptest server that plays both the spreadsheet host
// and the FAIR test services of SampleAlgorithmCSV.
//
//	GET  /sheets/{id}/export  serves SampleAlgorithmCSV
//	POST /tests/{name}        answers with a ResultDocument
type TestService struct {
	*httptest.Server

	mu       sync.Mutex
	results  map[string]string
	subjects []string
	exports  int
}

// NewTestService starts a service whose tests answer with the given
// values, keyed by test name (t1, t2, t3). A test without a value answers
// 404 and one set to ServiceError answers 500. Close it when done.
func NewTestService(results map[string]string) *TestService {
	s := &TestService{results: make(map[string]string, len(results))}
	for name, v := range results {
		s.results[name] = v
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /sheets/{id}/export", s.export)
	mux.HandleFunc("POST /tests/{name}", s.test)
	s.Server = httptest.NewServer(mux)
	return s
}

// CalculationURI returns an edit URI of the sample algorithm on this
// server.
func (s *TestService) CalculationURI() string {
	return s.URL + "/sheets/" + SampleAlgorithmID + "/edit"
}

// Endpoint returns the URL of the named test.
func (s *TestService) Endpoint(name string) string {
	return s.URL + "/tests/" + name
}

// Endpoints returns registry bindings for the three sample tests.
func (s *TestService) Endpoints() map[string]string {
	return map[string]string{
		TestT1: s.Endpoint("t1"),
		TestT2: s.Endpoint("t2"),
		TestT3: s.Endpoint("t3"),
	}
}

// SetResult changes the value a test answers with.
func (s *TestService) SetResult(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[name] = value
}

// Subjects returns the GUIDs posted to the tests so far.
func (s *TestService) Subjects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.subjects...)
}

// Exports returns the number of configuration downloads served.
func (s *TestService) Exports() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports
}

func (s *TestService) export(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.exports++
	s.mu.Unlock()
	w.Header().Set("Content-Type", "text/csv")
	_, _ = io.WriteString(w, SampleAlgorithmCSV)
}

func (s *TestService) test(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ResourceIdentifier string `json:"resource_identifier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	name := r.PathValue("name")
	s.mu.Lock()
	s.subjects = append(s.subjects, payload.ResourceIdentifier)
	value, ok := s.results[name]
	s.mu.Unlock()

	switch {
	case !ok:
		http.NotFound(w, r)
	case value == ServiceError:
		http.Error(w, "test crashed", http.StatusInternalServerError)
	default:
		w.Header().Set("Content-Type", "application/ld+json")
		testID := "https://tests.example.org/tests/" + strings.TrimSpace(name)
		_, _ = w.Write(ResultDocument(testID, payload.ResourceIdentifier, value))
	}
}
