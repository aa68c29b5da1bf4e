package databorg

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pneff/databorg-client/exchange"
	"github.com/pneff/databorg-client/internal/testutil"
	"github.com/pneff/databorg-client/sparql"
	"github.com/pneff/databorg-client/substitute"
)

func newClient(t *testing.T, e *testutil.Endpoint, mutate func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		QueryEndpoint:  e.QueryURL(),
		UpdateEndpoint: e.UpdateURL(),
		HTTPClient:     e.Client(),
		IDGenerator:    NewFixedGenerator("req-1", "req-2", "req-3"),
		Prefixes: map[string]string{
			"dbpedia": "http://dbpedia.org/ontology/",
			"schema":  "http://schema.org/",
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresEndpoint(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(Config{QueryEndpoint: "http://localhost/sparql"})
	require.NoError(t, err)

	name, version := c.Name()
	assert.Equal(t, DefaultName, name)
	assert.Equal(t, DefaultVersion, version)
	assert.Equal(t, "http://localhost/sparql", c.cfg.UpdateEndpoint)
}

func TestClient_UpdateInsertsNamedNode(t *testing.T) {
	e := testutil.NewEndpoint(t)
	c := newClient(t, e, nil)

	res, err := c.Update(context.Background(), Request{
		Query:     "INSERT DATA { var:uri a dbpedia:Resource }",
		Variables: substitute.Variables{"uri": sparql.URL("http://dbpedia.org/Test")},
	})
	require.NoError(t, err)

	last := e.Last(t)
	assert.Equal(t, "/update", last.Path)
	assert.Equal(t, exchange.MediaTypeUpdate, last.ContentType)
	assert.Equal(t, "PREFIX dbpedia: <http://dbpedia.org/ontology/>\nINSERT DATA { <http://dbpedia.org/Test> a dbpedia:Resource. }", last.Body)
	assert.NotContains(t, last.Body, "var:")

	assert.True(t, res.Update)
	assert.Equal(t, "req-1", res.ID)
	assert.Nil(t, res.Response)
}

func TestClient_SelectNoContentIsNil(t *testing.T) {
	e := testutil.NewEndpoint(t)
	c := newClient(t, e, nil)

	res, err := c.Query(context.Background(), Request{Query: "SELECT * WHERE { ?s ?p ?o }"})
	require.NoError(t, err)
	assert.False(t, res.Update)
	assert.Nil(t, res.Response)
}

func TestClient_SelectSimpleResults(t *testing.T) {
	e := testutil.NewEndpoint(t)
	e.ReplyJSON("/sparql", `{
		"head": {"vars": ["name", "type"]},
		"results": {"bindings": [
			{"name": {"type": "literal", "value": "Tim"}, "type": {"type": "uri", "value": "http://schema.org/Person"}}
		]}
	}`)
	c := newClient(t, e, nil)

	res, err := c.Query(context.Background(), Request{
		Query:     "SELECT ?name ?type WHERE { ?uri schema:name ?name ; a ?type }",
		Variables: substitute.Variables{"uri": sparql.URL("http://example.org/tim")},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"PREFIX schema: <http://schema.org/>\nSELECT ?name ?type\nWHERE { <http://example.org/tim> schema:name ?name. <http://example.org/tim> a ?type. }",
		e.Last(t).Body)
	assert.Equal(t, []map[string]string{{"name": "Tim", "type": "schema:Person"}}, res.Response)
	assert.Equal(t, "application/sparql-results+json", res.ResponseHeaders["content-type"])
}

func TestClient_ConstructFramed(t *testing.T) {
	e := testutil.NewEndpoint(t)
	e.ReplyTurtle("/sparql", `<http://example.org/tim> a <http://schema.org/Person> ; <http://schema.org/name> "Tim" .`)
	c := newClient(t, e, nil)

	res, err := c.Query(context.Background(), Request{
		Query:   "CONSTRUCT WHERE { ?s a schema:Person ; schema:name ?n }",
		Options: exchange.Options{Frame: map[string]any{"@type": "schema:Person"}},
	})
	require.NoError(t, err)

	node, ok := res.Response.(map[string]any)
	require.True(t, ok, "got %T", res.Response)
	assert.Equal(t, "http://example.org/tim", node["@id"])
	assert.Equal(t, "schema:Person", node["@type"])
}

func TestClient_ParseErrorPropagatesUnchanged(t *testing.T) {
	e := testutil.NewEndpoint(t)
	c := newClient(t, e, nil)

	_, err := c.Query(context.Background(), Request{Query: "SELEKT ?x WHERE { ?x ?y ?z }"})

	var perr *sparql.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Line)
	assert.Equal(t, 1, perr.Column)
	assert.Empty(t, e.Requests())
}

func TestClient_TransportErrorPropagates(t *testing.T) {
	e := testutil.NewEndpoint(t)
	e.Reply("/sparql", testutil.Reply{Status: http.StatusInternalServerError, Body: "virtuoso exploded"})
	c := newClient(t, e, nil)

	_, err := c.Query(context.Background(), Request{Query: "ASK {}"})
	var herr *exchange.HTTPError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, http.StatusInternalServerError, herr.StatusCode)
}

func TestClient_ResultParseErrorKeepsResponse(t *testing.T) {
	e := testutil.NewEndpoint(t)
	e.Reply("/sparql", testutil.Reply{Status: http.StatusOK, ContentType: "application/json", Body: `{"head": `})
	c := newClient(t, e, nil)

	_, err := c.Query(context.Background(), Request{Query: "ASK {}"})
	var perr *exchange.ResultParseError
	require.ErrorAs(t, err, &perr)
	assert.NotNil(t, perr.Response)
}

func TestClient_UserAgent(t *testing.T) {
	e := testutil.NewEndpoint(t)

	c := newClient(t, e, nil)
	_, err := c.Query(context.Background(), Request{Query: "ASK {}"})
	require.NoError(t, err)
	assert.Equal(t, "DataborgClient/1.0.0", e.Last(t).Header.Get("User-Agent"))

	c = newClient(t, e, func(cfg *Config) {
		cfg.Headers = map[string]string{"User-Agent": "wiki/2", "X-Api-Key": "k"}
	})
	_, err = c.Query(context.Background(), Request{Query: "ASK {}"})
	require.NoError(t, err)
	assert.Equal(t, "wiki/2", e.Last(t).Header.Get("User-Agent"))
	assert.Equal(t, "k", e.Last(t).Header.Get("X-Api-Key"))
}

func TestClient_StagesRunBeforeTransport(t *testing.T) {
	e := testutil.NewEndpoint(t)
	e.ReplyJSON("/sparql", `{"head": {}, "boolean": true}`)

	var calls []string
	stage := exchange.Func(func(ctx context.Context, req *exchange.Request, next exchange.Next) (*exchange.Result, error) {
		calls = append(calls, "before:"+req.ID)
		res, err := next(ctx, req)
		if err == nil {
			calls = append(calls, "after")
		}
		return res, err
	})
	c := newClient(t, e, func(cfg *Config) { cfg.Stages = []exchange.Exchange{stage} })

	res, err := c.Query(context.Background(), Request{Query: "ASK {}"})
	require.NoError(t, err)
	assert.Equal(t, []string{"before:req-1", "after"}, calls)
	assert.Equal(t, true, res.Response)
}

type captureExecutor struct {
	req *exchange.Request
}

func (x *captureExecutor) Execute(_ context.Context, req *exchange.Request) (*exchange.Result, error) {
	x.req = req
	return req.Result(), nil
}

func TestClient_CustomExchange(t *testing.T) {
	capture := &captureExecutor{}
	c, err := New(Config{Exchange: capture, IDGenerator: NewFixedGenerator("fixed")})
	require.NoError(t, err)

	_, err = c.Update(context.Background(), Request{
		Query:     "INSERT DATA { ?s <http://schema.org/name> ?name }",
		Variables: substitute.Variables{"s": sparql.URL("http://ex/s"), "name": "Tim"},
		Options:   exchange.Options{RawResults: true},
	})
	require.NoError(t, err)

	require.NotNil(t, capture.req)
	assert.Equal(t, "fixed", capture.req.ID)
	assert.True(t, capture.req.Update)
	assert.True(t, capture.req.Options.RawResults)
	text, err := sparql.Generate(capture.req.Query)
	require.NoError(t, err)
	assert.Equal(t, `INSERT DATA { <http://ex/s> <http://schema.org/name> "Tim". }`, text)
}

func TestClient_DocumentInputIsNotMutated(t *testing.T) {
	capture := &captureExecutor{}
	c, err := New(Config{Exchange: capture})
	require.NoError(t, err)

	doc := sparql.MustBuild("SELECT * WHERE { ?s ?p var:o }")
	before, err := sparql.Generate(doc)
	require.NoError(t, err)

	for _, v := range []any{1, "two"} {
		_, err := c.Query(context.Background(), Request{Query: doc, Variables: substitute.Variables{"o": v}})
		require.NoError(t, err)
	}

	after, err := sparql.Generate(doc)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	text, err := sparql.Generate(capture.req.Query)
	require.NoError(t, err)
	assert.Contains(t, text, `"two"`)
}

func TestClient_UnsupportedQueryInput(t *testing.T) {
	c, err := New(Config{Exchange: &captureExecutor{}})
	require.NoError(t, err)

	_, err = c.Query(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoQuery)

	_, err = c.Query(context.Background(), Request{Query: 42})
	assert.ErrorContains(t, err, "unsupported query type int")
}

func TestClient_Prepare(t *testing.T) {
	c, err := New(Config{Exchange: &captureExecutor{}, Prefixes: map[string]string{"ex": "http://example.org/"}})
	require.NoError(t, err)

	text, err := c.Prepare(Request{
		Query:     "SELECT ?o WHERE { ?s ex:p ?o }",
		Variables: substitute.Variables{"s": sparql.URL("http://example.org/a")},
	})
	require.NoError(t, err)
	assert.Equal(t, "PREFIX ex: <http://example.org/>\nSELECT ?o\nWHERE { ex:a ex:p ?o. }", text)
}

func TestClient_ConcurrentRequests(t *testing.T) {
	e := testutil.NewEndpoint(t)
	e.ReplyJSON("/sparql", `{"head": {}, "boolean": true}`)
	c := newClient(t, e, func(cfg *Config) { cfg.IDGenerator = UUIDv7Generator{} })

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.Query(context.Background(), Request{
				Query:     "ASK { ?s ?p ?o }",
				Variables: substitute.Variables{"o": i},
			})
			if err == nil && res.Response != true {
				err = errors.New("unexpected response")
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, e.Requests(), 20)
}
