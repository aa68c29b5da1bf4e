package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"slices"
	"testing"
	"time"

	databorg "github.com/pneff/databorg-client"
	"github.com/pneff/databorg-client/exchange"
	"github.com/pneff/databorg-client/internal/journal"
	"github.com/pneff/databorg-client/internal/testutil"
	"github.com/pneff/databorg-client/sparql"
)

// epoch is the first reading of the journal clock.
var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness holds the per-run fixtures.
type Harness struct {
	endpoint *testutil.Endpoint
	client   *databorg.Client

	// requests holds what the endpoint received, per step.
	requests [][]testutil.Recorded
}

// Run executes a scenario and returns the result.
//
// Each scenario gets its own endpoint and in-memory journal. The returned
// error reports broken fixtures; failed expectations and assertions are
// reported in the Result.
func Run(tb testing.TB, scenario *Scenario) (*Result, error) {
	tb.Helper()

	j, err := journal.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer j.Close()

	h, err := newHarness(tb, scenario, j)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	entries, err := j.Recent(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	slices.Reverse(entries)
	for _, e := range entries {
		result.Journal = append(result.Journal, JournalRecord{Seq: e.Seq, ID: e.ID, Kind: e.Kind, Status: e.Status})
	}

	actx := &AssertionContext{Requests: h.requests, Journal: result.Journal}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(tb testing.TB, scenario *Scenario, j *journal.Journal) (*Harness, error) {
	e := testutil.NewEndpoint(tb)

	prefix := scenario.RequestID
	if prefix == "" {
		prefix = "req"
	}
	ids := make([]string, len(scenario.Steps))
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%d", prefix, i+1)
	}

	clock := testutil.NewStepClock(epoch, time.Millisecond)
	client, err := databorg.New(databorg.Config{
		QueryEndpoint:  e.QueryURL(),
		UpdateEndpoint: e.UpdateURL(),
		HTTPClient:     e.Client(),
		Headers:        scenario.Headers,
		Prefixes:       scenario.Prefixes,
		IDGenerator:    databorg.NewFixedGenerator(ids...),
		Stages:         []exchange.Exchange{journal.NewStage(j, journal.WithClock(clock.Now))},
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Harness{endpoint: e, client: client}, nil
}

// executeStep sends one request and traces what was sent and received.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	opts, err := exchange.DecodeOptions(step.Options)
	if err != nil {
		return err
	}

	path := "/sparql"
	if step.Kind == KindUpdate {
		path = "/update"
	}
	reply := testutil.Reply{Status: http.StatusNoContent}
	if step.Reply != nil {
		reply = testutil.Reply{Status: step.Reply.Status, ContentType: step.Reply.ContentType, Body: step.Reply.Body}
	}
	h.endpoint.Reply(path, reply)

	before := len(h.endpoint.Requests())
	req := databorg.Request{Query: step.Query, Variables: step.variables(), Options: opts}
	var res *exchange.Result
	if step.Kind == KindUpdate {
		res, err = h.client.Update(ctx, req)
	} else {
		res, err = h.client.Query(ctx, req)
	}

	sent := h.endpoint.Requests()[before:]
	h.requests = append(h.requests, sent)
	for _, r := range sent {
		result.addEvent(TraceEvent{Step: i, Type: EventRequest, Path: r.Path, Query: r.Body})
	}

	if err != nil {
		class := errorClass(err)
		result.addEvent(TraceEvent{Step: i, Type: EventError, Error: class})
		checkExpect(i, step.Expect, nil, class, result)
		return nil
	}

	response, jerr := jsonValue(res.Response)
	if jerr != nil {
		return fmt.Errorf("response is not JSON-encodable: %w", jerr)
	}
	result.addEvent(TraceEvent{Step: i, Type: EventResponse, ID: res.ID, Response: response})
	checkExpect(i, step.Expect, response, "", result)
	return nil
}

func checkExpect(i int, expect *ExpectClause, response any, class string, result *Result) {
	if expect == nil {
		return
	}
	switch {
	case expect.Error == "" && class != "":
		result.AddError(fmt.Sprintf("steps[%d]: unexpected error %s", i, class))
		return
	case expect.Error != "" && class == "":
		result.AddError(fmt.Sprintf("steps[%d]: expected error %s, request succeeded", i, expect.Error))
		return
	case expect.Error != "" && !matchClass(class, expect.Error):
		result.AddError(fmt.Sprintf("steps[%d]: expected error %s, got %s", i, expect.Error, class))
		return
	}

	if expect.Response == nil || class != "" {
		return
	}
	want, err := jsonValue(expect.Response)
	if err != nil {
		result.AddError(fmt.Sprintf("steps[%d]: expected response: %v", i, err))
		return
	}
	if !reflect.DeepEqual(want, response) {
		result.AddError(fmt.Sprintf("steps[%d]: response mismatch\n  Expected: %v\n  Actual: %v", i, want, response))
	}
}

// errorClass names the failure kind without the parts that vary between
// runs, such as the endpoint address.
func errorClass(err error) string {
	var herr *exchange.HTTPError
	switch {
	case errors.As(err, &herr):
		return fmt.Sprintf("http %d", herr.StatusCode)
	case exchange.IsResultParseError(err):
		return "results"
	case sparql.IsParseError(err):
		return "parse"
	default:
		return "error"
	}
}

// matchClass accepts an exact class or its first word ("http" for
// "http 500").
func matchClass(class, want string) bool {
	if class == want {
		return true
	}
	return len(class) > len(want) && class[:len(want)] == want && class[len(want)] == ' '
}

// jsonValue reduces v to the generic values encoding/json decodes into, so
// typed results and YAML expectations compare equal.
func jsonValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
