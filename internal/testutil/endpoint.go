package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Recorded is one request received by an Endpoint.
type Recorded struct {
	Path        string
	ContentType string
	Accept      string
	Header      http.Header
	Body        string
}

// Reply is a canned endpoint response.
type Reply struct {
	Status      int
	ContentType string
	Header      map[string]string
	Body        string
}

// Endpoint is a fake SPARQL protocol server. It serves POST /sparql for
// queries and POST /update for updates, records every request and answers
// with the reply configured for the path (204 No Content by default).
type Endpoint struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []Recorded
	replies  map[string]Reply
}

// NewEndpoint starts an Endpoint that is closed when t finishes.
func NewEndpoint(t testing.TB) *Endpoint {
	t.Helper()

	e := &Endpoint{replies: map[string]Reply{}}
	r := chi.NewRouter()
	r.Post("/sparql", e.serve)
	r.Post("/update", e.serve)

	e.server = httptest.NewServer(r)
	t.Cleanup(e.server.Close)
	return e
}

// QueryURL is the query endpoint address.
func (e *Endpoint) QueryURL() string { return e.server.URL + "/sparql" }

// UpdateURL is the update endpoint address.
func (e *Endpoint) UpdateURL() string { return e.server.URL + "/update" }

// Client returns an HTTP client wired to the server.
func (e *Endpoint) Client() *http.Client { return e.server.Client() }

// Reply sets the response served for path ("/sparql" or "/update").
func (e *Endpoint) Reply(path string, reply Reply) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.replies[path] = reply
}

// ReplyJSON serves body as application/sparql-results+json on path.
func (e *Endpoint) ReplyJSON(path, body string) {
	e.Reply(path, Reply{Status: http.StatusOK, ContentType: "application/sparql-results+json", Body: body})
}

// ReplyTurtle serves body as text/turtle on path.
func (e *Endpoint) ReplyTurtle(path, body string) {
	e.Reply(path, Reply{Status: http.StatusOK, ContentType: "text/turtle", Body: body})
}

// Requests returns a copy of the requests received so far.
func (e *Endpoint) Requests() []Recorded {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Recorded, len(e.requests))
	copy(out, e.requests)
	return out
}

// Last returns the most recent request. It fails t when none was received.
func (e *Endpoint) Last(t testing.TB) Recorded {
	t.Helper()
	reqs := e.Requests()
	if len(reqs) == 0 {
		t.Fatal("testutil: endpoint received no requests")
	}
	return reqs[len(reqs)-1]
}

func (e *Endpoint) serve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	e.mu.Lock()
	e.requests = append(e.requests, Recorded{
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		Accept:      r.Header.Get("Accept"),
		Header:      r.Header.Clone(),
		Body:        string(body),
	})
	reply, ok := e.replies[r.URL.Path]
	e.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	for k, v := range reply.Header {
		w.Header().Set(k, v)
	}
	if reply.ContentType != "" {
		w.Header().Set("Content-Type", reply.ContentType)
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, reply.Body)
}
