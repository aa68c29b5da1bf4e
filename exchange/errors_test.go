package exchange

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestHTTPError_TruncatesLongBody(t *testing.T) {
	testCases := []struct {
		name string
		body string
		want string
	}{
		{name: "short", body: "bad query", want: "bad query"},
		{name: "ascii", body: strings.Repeat("a", 250), want: strings.Repeat("a", 200) + "..."},
		{name: "multibyte at cut", body: strings.Repeat("a", 199) + "\u00e9\u00e9\u00e9", want: strings.Repeat("a", 199) + "..."},
		{name: "multibyte before cut", body: strings.Repeat("\u00e9", 150), want: strings.Repeat("\u00e9", 100) + "..."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := &HTTPError{StatusCode: 400, Status: "400 Bad Request", Endpoint: "http://x/sparql", Body: tc.body}

			msg := err.Error()
			assert.True(t, utf8.ValidString(msg))
			assert.Equal(t, "exchange: http://x/sparql: 400 Bad Request: "+tc.want, msg)
		})
	}
}
