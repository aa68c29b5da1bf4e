package sparql

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIRI
	tokPName
	tokBlank
	tokVar
	tokString
	tokLangTag
	tokInteger
	tokDecimal
	tokDouble
	tokKeyword
	tokPunct
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIRI:
		return "IRI"
	case tokPName:
		return "prefixed name"
	case tokBlank:
		return "blank node"
	case tokVar:
		return "variable"
	case tokString:
		return "string"
	case tokLangTag:
		return "language tag"
	case tokInteger, tokDecimal, tokDouble:
		return "number"
	case tokKeyword:
		return "keyword"
	default:
		return "punctuation"
	}
}

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

// lexer splits SPARQL source into tokens. The whole input is tokenized up
// front so the parser can look ahead freely.
type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func tokenize(src string) ([]token, error) {
	lx := &lexer{src: src, line: 1, col: 1}
	var toks []token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (lx *lexer) errorf(line, col int, msg string) error {
	return &ParseError{Line: line, Column: col, Message: msg}
}

func (lx *lexer) peekByte(off int) byte {
	if lx.pos+off < len(lx.src) {
		return lx.src[lx.pos+off]
	}
	return 0
}

// advance moves the cursor to end, keeping line and column in sync.
func (lx *lexer) advance(end int) {
	for lx.pos < end {
		r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
		if r == '\n' {
			lx.line++
			lx.col = 1
		} else {
			lx.col++
		}
		lx.pos += size
	}
}

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			lx.advance(lx.pos + 1)
		case c == '#':
			end := strings.IndexByte(lx.src[lx.pos:], '\n')
			if end < 0 {
				lx.advance(len(lx.src))
			} else {
				lx.advance(lx.pos + end)
			}
		default:
			return
		}
	}
}

func (lx *lexer) next() (token, error) {
	lx.skipSpace()
	line, col := lx.line, lx.col
	emit := func(kind tokenKind, text string, end int) (token, error) {
		lx.advance(end)
		return token{kind: kind, text: text, line: line, col: col}, nil
	}
	if lx.pos >= len(lx.src) {
		return token{kind: tokEOF, line: line, col: col}, nil
	}

	c := lx.src[lx.pos]
	switch {
	case c == '<':
		if end, ok := lx.scanIRI(); ok {
			return emit(tokIRI, lx.src[lx.pos+1:end-1], end)
		}
		if lx.peekByte(1) == '=' {
			return emit(tokPunct, "<=", lx.pos+2)
		}
		return emit(tokPunct, "<", lx.pos+1)

	case c == '?' || c == '$':
		end := lx.scanVarName(lx.pos + 1)
		if end == lx.pos+1 {
			if c == '$' {
				return token{}, lx.errorf(line, col, "empty variable name")
			}
			return emit(tokPunct, "?", lx.pos+1)
		}
		return emit(tokVar, lx.src[lx.pos+1:end], end)

	case c == '"' || c == '\'':
		text, end, err := lx.scanString()
		if err != nil {
			return token{}, err
		}
		return emit(tokString, text, end)

	case c == '@':
		end := lx.pos + 1
		for end < len(lx.src) && (isAlpha(lx.src[end]) || isDigit(lx.src[end]) || lx.src[end] == '-') {
			end++
		}
		if end == lx.pos+1 {
			return token{}, lx.errorf(line, col, "empty language tag")
		}
		return emit(tokLangTag, lx.src[lx.pos+1:end], end)

	case isDigit(c) || (c == '.' && isDigit(lx.peekByte(1))):
		kind, end := lx.scanNumber()
		return emit(kind, lx.src[lx.pos:end], end)

	case c == '_' && lx.peekByte(1) == ':':
		end := lx.scanLocal(lx.pos + 2)
		if end == lx.pos+2 {
			return token{}, lx.errorf(line, col, "empty blank node label")
		}
		return emit(tokBlank, lx.src[lx.pos+2:end], end)

	case c == ':':
		end := lx.scanLocal(lx.pos + 1)
		return emit(tokPName, ":"+unescapeLocal(lx.src[lx.pos+1:end]), end)
	}

	r, _ := utf8.DecodeRuneInString(lx.src[lx.pos:])
	if isNameStart(r) {
		end := lx.scanPrefix(lx.pos)
		if end < len(lx.src) && lx.src[end] == ':' {
			localEnd := lx.scanLocal(end + 1)
			return emit(tokPName, lx.src[lx.pos:end+1]+unescapeLocal(lx.src[end+1:localEnd]), localEnd)
		}
		end = lx.pos
		for end < len(lx.src) && (isAlpha(lx.src[end]) || isDigit(lx.src[end]) || lx.src[end] == '_') {
			end++
		}
		if end == lx.pos {
			return token{}, lx.errorf(line, col, "unexpected character "+strconv.QuoteRune(r))
		}
		return emit(tokKeyword, lx.src[lx.pos:end], end)
	}

	for _, op := range []string{"^^", "!=", ">=", "&&", "||"} {
		if strings.HasPrefix(lx.src[lx.pos:], op) {
			return emit(tokPunct, op, lx.pos+len(op))
		}
	}
	if strings.IndexByte("{}()[].,;*/|^!+-=>", c) >= 0 {
		return emit(tokPunct, string(c), lx.pos+1)
	}
	return token{}, lx.errorf(line, col, "unexpected character "+strconv.QuoteRune(r))
}

// scanIRI reports whether an IRIREF starts at the cursor and where it ends.
// A '<' that is not followed by a well-formed IRIREF is an operator.
func (lx *lexer) scanIRI() (int, bool) {
	for i := lx.pos + 1; i < len(lx.src); i++ {
		c := lx.src[i]
		switch {
		case c == '>':
			return i + 1, true
		case c <= ' ' || strings.IndexByte("<\"{}|^`", c) >= 0:
			return 0, false
		}
	}
	return 0, false
}

func (lx *lexer) scanVarName(start int) int {
	end := start
	for end < len(lx.src) {
		r, size := utf8.DecodeRuneInString(lx.src[end:])
		if !(isNameStart(r) || unicode.IsDigit(r)) {
			break
		}
		end += size
	}
	return end
}

// scanPrefix scans PN_PREFIX characters; a prefix never ends with '.'.
func (lx *lexer) scanPrefix(start int) int {
	end := start
	for end < len(lx.src) {
		r, size := utf8.DecodeRuneInString(lx.src[end:])
		if !(isNameStart(r) || unicode.IsDigit(r) || r == '-' || r == '.') {
			break
		}
		end += size
	}
	for end > start && lx.src[end-1] == '.' {
		end--
	}
	return end
}

// scanLocal scans PN_LOCAL characters, including escapes and percent
// encodings; a local name never ends with '.'.
func (lx *lexer) scanLocal(start int) int {
	end := start
	for end < len(lx.src) {
		c := lx.src[end]
		if c == '\\' && end+1 < len(lx.src) {
			end += 2
			continue
		}
		if c == '%' && end+2 < len(lx.src) && isHex(lx.src[end+1]) && isHex(lx.src[end+2]) {
			end += 3
			continue
		}
		r, size := utf8.DecodeRuneInString(lx.src[end:])
		if !(isNameStart(r) || unicode.IsDigit(r) || r == '-' || r == '.' || r == ':') {
			break
		}
		end += size
	}
	for end > start && lx.src[end-1] == '.' && (end-2 < start || lx.src[end-2] != '\\') {
		end--
	}
	return end
}

func (lx *lexer) scanNumber() (tokenKind, int) {
	end := lx.pos
	kind := tokInteger
	for end < len(lx.src) && isDigit(lx.src[end]) {
		end++
	}
	if end < len(lx.src) && lx.src[end] == '.' && end+1 < len(lx.src) && isDigit(lx.src[end+1]) {
		kind = tokDecimal
		end++
		for end < len(lx.src) && isDigit(lx.src[end]) {
			end++
		}
	}
	if end < len(lx.src) && (lx.src[end] == 'e' || lx.src[end] == 'E') {
		exp := end + 1
		if exp < len(lx.src) && (lx.src[exp] == '+' || lx.src[exp] == '-') {
			exp++
		}
		if exp < len(lx.src) && isDigit(lx.src[exp]) {
			kind = tokDouble
			end = exp
			for end < len(lx.src) && isDigit(lx.src[end]) {
				end++
			}
		}
	}
	return kind, end
}

func (lx *lexer) scanString() (string, int, error) {
	quote := lx.src[lx.pos]
	long := strings.Repeat(string(quote), 3)
	start := lx.pos + 1
	if strings.HasPrefix(lx.src[lx.pos:], long) {
		start = lx.pos + 3
	}
	isLong := start == lx.pos+3

	var b strings.Builder
	for i := start; i < len(lx.src); {
		c := lx.src[i]
		switch {
		case isLong && strings.HasPrefix(lx.src[i:], long):
			// A long string may end with up to two extra quote characters.
			for strings.HasPrefix(lx.src[i+1:], long) {
				b.WriteByte(quote)
				i++
			}
			return b.String(), i + 3, nil
		case !isLong && c == quote:
			return b.String(), i + 1, nil
		case !isLong && (c == '\n' || c == '\r'):
			return "", 0, lx.errorf(lx.line, lx.col, "unterminated string")
		case c == '\\':
			r, n, ok := unescapeAt(lx.src, i)
			if !ok {
				return "", 0, lx.errorf(lx.line, lx.col, "invalid escape sequence in string")
			}
			b.WriteRune(r)
			i += n
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, lx.errorf(lx.line, lx.col, "unterminated string")
}

// unescapeAt decodes the string escape starting at src[i] and returns the
// rune and the number of bytes consumed.
func unescapeAt(src string, i int) (rune, int, bool) {
	if i+1 >= len(src) {
		return 0, 0, false
	}
	switch src[i+1] {
	case 't':
		return '\t', 2, true
	case 'n':
		return '\n', 2, true
	case 'r':
		return '\r', 2, true
	case 'b':
		return '\b', 2, true
	case 'f':
		return '\f', 2, true
	case '"', '\'', '\\':
		return rune(src[i+1]), 2, true
	case 'u', 'U':
		n := 4
		if src[i+1] == 'U' {
			n = 8
		}
		if i+2+n > len(src) {
			return 0, 0, false
		}
		v, err := strconv.ParseUint(src[i+2:i+2+n], 16, 32)
		if err != nil {
			return 0, 0, false
		}
		return rune(v), 2 + n, true
	}
	return 0, 0, false
}

func unescapeLocal(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isAlpha(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isHex(c byte) bool   { return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F' }

func isNameStart(r rune) bool {
	return r == '_' || r < utf8.RuneSelf && isAlpha(byte(r)) || r >= utf8.RuneSelf && unicode.IsLetter(r)
}
