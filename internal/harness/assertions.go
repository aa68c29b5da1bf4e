package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pneff/databorg-client/internal/testutil"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Sent     []string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Sent) > 0 {
		fmt.Fprintf(&buf, "\nRequests sent:\n")
		for i, body := range e.Sent {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, body)
		}
	}
	return buf.String()
}

// AssertionContext is what assertions are evaluated against.
type AssertionContext struct {
	// Requests holds the requests the endpoint received, per step.
	Requests [][]testutil.Recorded
	Journal  []JournalRecord
}

func (c *AssertionContext) all() []testutil.Recorded {
	var out []testutil.Recorded
	for _, reqs := range c.Requests {
		out = append(out, reqs...)
	}
	return out
}

func (c *AssertionContext) bodies() []string {
	var out []string
	for _, r := range c.all() {
		out = append(out, r.Body)
	}
	return out
}

// step returns the request sent in step i, if any.
func (c *AssertionContext) step(i int) (testutil.Recorded, bool) {
	if i < 0 || i >= len(c.Requests) || len(c.Requests[i]) == 0 {
		return testutil.Recorded{}, false
	}
	return c.Requests[i][0], true
}

func assertRequestContains(actx *AssertionContext, a Assertion) error {
	r, ok := actx.step(a.Step)
	if !ok {
		return &AssertionError{
			Type:     AssertRequestContains,
			Expected: fmt.Sprintf("step %d request containing %q", a.Step, a.Text),
			Actual:   "no request sent",
			Sent:     actx.bodies(),
		}
	}
	if !strings.Contains(r.Body, a.Text) {
		return &AssertionError{
			Type:     AssertRequestContains,
			Expected: fmt.Sprintf("step %d request containing %q", a.Step, a.Text),
			Actual:   r.Body,
			Sent:     actx.bodies(),
		}
	}
	return nil
}

func assertRequestCount(actx *AssertionContext, a Assertion) error {
	if n := len(actx.all()); n != a.Count {
		return &AssertionError{
			Type:     AssertRequestCount,
			Expected: fmt.Sprintf("%d requests", a.Count),
			Actual:   fmt.Sprintf("%d requests", n),
			Sent:     actx.bodies(),
		}
	}
	return nil
}

// assertRequestOrder compares the sequence of request kinds, derived from
// the endpoint path, with the expected one.
func assertRequestOrder(actx *AssertionContext, a Assertion) error {
	var kinds []string
	for _, r := range actx.all() {
		kind := KindQuery
		if r.Path == "/update" {
			kind = KindUpdate
		}
		kinds = append(kinds, kind)
	}
	if !slices.Equal(kinds, a.Kinds) {
		return &AssertionError{
			Type:     AssertRequestOrder,
			Expected: strings.Join(a.Kinds, ", "),
			Actual:   strings.Join(kinds, ", "),
			Sent:     actx.bodies(),
		}
	}
	return nil
}

func assertRequestHeader(actx *AssertionContext, a Assertion) error {
	r, ok := actx.step(a.Step)
	if !ok {
		return &AssertionError{
			Type:     AssertRequestHeader,
			Expected: fmt.Sprintf("step %d header %s: %s", a.Step, a.Header, a.Value),
			Actual:   "no request sent",
		}
	}
	got := r.Header.Get(a.Header)
	if got != a.Value {
		return &AssertionError{
			Type:     AssertRequestHeader,
			Expected: fmt.Sprintf("%s: %s", a.Header, a.Value),
			Actual:   fmt.Sprintf("%s: %s", a.Header, got),
		}
	}
	return nil
}

func assertJournal(actx *AssertionContext, a Assertion) error {
	statuses := make([]string, len(actx.Journal))
	for i, e := range actx.Journal {
		statuses[i] = string(e.Status)
	}
	if !slices.Equal(statuses, a.Status) {
		return &AssertionError{
			Type:     AssertJournal,
			Expected: strings.Join(a.Status, ", "),
			Actual:   strings.Join(statuses, ", "),
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertRequestContains:
			err = assertRequestContains(actx, assertion)
		case AssertRequestCount:
			err = assertRequestCount(actx, assertion)
		case AssertRequestOrder:
			err = assertRequestOrder(actx, assertion)
		case AssertRequestHeader:
			err = assertRequestHeader(actx, assertion)
		case AssertJournal:
			err = assertJournal(actx, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
