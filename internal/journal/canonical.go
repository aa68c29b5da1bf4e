package journal

import (
	"bytes"
	"encoding/json"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// marshalHeaders encodes headers as canonical JSON (RFC 8785 subset for
// string maps): keys sorted by UTF-16 code units, strings NFC normalized,
// no HTML escaping. Equal header sets always produce identical bytes.
func marshalHeaders(headers map[string]string) ([]byte, error) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalString(k)
		if err != nil {
			return nil, err
		}
		value, err := marshalString(headers[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func unmarshalHeaders(data string) (map[string]string, error) {
	headers := map[string]string{}
	if data == "" {
		return headers, nil
	}
	if err := json.Unmarshal([]byte(data), &headers); err != nil {
		return nil, err
	}
	return headers, nil
}

func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

// marshalString escapes only quote, backslash and control characters.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	return unescapeSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// unescapeSeparators turns the U+2028 and U+2029 escapes added by
// encoding/json back into literal characters. Escape pairs are consumed
// whole, so an escaped backslash followed by "u2028" text is left alone.
func unescapeSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if data[i+1] == 'u' && i+6 <= len(data) {
			switch string(data[i+2 : i+6]) {
			case "2028":
				out = append(out, "\u2028"...)
				i += 5
				continue
			case "2029":
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}
