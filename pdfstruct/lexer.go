package pdfstruct

import (
	"bytes"
	"fmt"
	"strconv"
)

// A lexer reads objects out of a byte slice holding PDF syntax: a whole file,
// or the decoded data of an object stream.
type lexer struct {
	data  []byte
	pos   int
	depth int
}

// maxNesting bounds how deeply arrays, dictionaries and object definitions
// may nest.  Every recursive walk over the object graph relies on it.
const maxNesting = 512

// readObjectFrom parses the object at the start of by.  It returns the object
// and the offset just past it.
func readObjectFrom(by []byte) (obj Object, end int, err error) {
	lx := &lexer{data: by}
	obj, err = lx.object()
	return obj, lx.pos, err
}

const (
	whitespace      = "\x00\t\n\f\r "
	nonRegularChars = whitespace + "()<>[]{}/%"
)

func isRegularChar(b byte) bool {
	return bytes.IndexByte([]byte(nonRegularChars), b) < 0
}

func isDigits(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func hexDigit(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	}
	return 0, false
}

func (lx *lexer) eof() bool { return lx.pos >= len(lx.data) }

func (lx *lexer) errorf(format string, args ...any) error {
	return fmt.Errorf("offset %d: %s", lx.pos, fmt.Sprintf(format, args...))
}

// skipWhitespace skips white space but not comments.
func (lx *lexer) skipWhitespace() {
	for !lx.eof() && bytes.IndexByte([]byte(whitespace), lx.data[lx.pos]) >= 0 {
		lx.pos++
	}
}

// skipSpace skips white space and comments.
func (lx *lexer) skipSpace() {
	for {
		lx.skipWhitespace()
		if lx.eof() || lx.data[lx.pos] != '%' {
			return
		}
		for !lx.eof() && lx.data[lx.pos] != '\r' && lx.data[lx.pos] != '\n' {
			lx.pos++
		}
	}
}

// word returns the run of regular characters at the current position, which
// is empty if the lexer sits on a delimiter.
func (lx *lexer) word() []byte {
	start := lx.pos
	for !lx.eof() && isRegularChar(lx.data[lx.pos]) {
		lx.pos++
	}
	return lx.data[start:lx.pos]
}

// keyword skips space and consumes kw if it comes next as a whole word.
func (lx *lexer) keyword(kw string) bool {
	save := lx.pos
	lx.skipSpace()
	if string(lx.word()) == kw {
		return true
	}
	lx.pos = save
	return false
}

// integer skips space and reads an unsigned integer.
func (lx *lexer) integer() (int, error) {
	lx.skipSpace()
	w := lx.word()
	if !isDigits(w) {
		return 0, lx.errorf("expected an integer, found %q", w)
	}
	return strconv.Atoi(string(w))
}

// object reads the next object.  An indirect object definition ("N G obj ...
// endobj") yields the object it defines.
func (lx *lexer) object() (Object, error) {
	lx.depth++
	defer func() { lx.depth-- }()
	if lx.depth > maxNesting {
		return nil, lx.errorf("objects nested too deeply")
	}
	lx.skipSpace()
	if lx.eof() {
		return nil, lx.errorf("unexpected end of data")
	}
	switch c := lx.data[lx.pos]; c {
	case '(':
		lx.pos++
		return lx.literal()
	case '<':
		if lx.pos+1 < len(lx.data) && lx.data[lx.pos+1] == '<' {
			lx.pos += 2
			return lx.dict()
		}
		lx.pos++
		return lx.hex()
	case '/':
		lx.pos++
		return lx.name()
	case '[':
		lx.pos++
		return lx.array()
	case ')', '>', ']', '{', '}':
		return nil, lx.errorf("unexpected %c", c)
	case '+', '-', '.', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return lx.number()
	}
	switch w := lx.word(); string(w) {
	case "null":
		return nil, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return nil, lx.errorf("unexpected bare word %q", w)
	}
}

// number reads a number, a reference ("N G R"), or an indirect object
// definition.
func (lx *lexer) number() (Object, error) {
	tok := lx.word()
	if isDigits(tok) {
		after := lx.pos
		lx.skipSpace()
		if gen := lx.word(); isDigits(gen) {
			lx.skipSpace()
			switch string(lx.word()) {
			case "R":
				num, _ := strconv.Atoi(string(tok))
				g, _ := strconv.Atoi(string(gen))
				return Reference{Number: num, Generation: g}, nil
			case "obj":
				return lx.definition()
			}
		}
		lx.pos = after
	}
	if n, err := strconv.Atoi(string(tok)); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(string(tok), 64); err == nil {
		return f, nil
	}
	return nil, lx.errorf("invalid number %q", tok)
}

func (lx *lexer) definition() (Object, error) {
	obj, err := lx.object()
	if err != nil {
		return nil, err
	}
	if !lx.keyword("endobj") {
		return nil, lx.errorf(`expected "endobj" after indirect object`)
	}
	return obj, nil
}

func (lx *lexer) literal() (Object, error) {
	var (
		out   []byte
		depth = 1
	)
	for !lx.eof() {
		c := lx.data[lx.pos]
		lx.pos++
		switch c {
		case '(':
			depth++
		case ')':
			if depth--; depth == 0 {
				return string(out), nil
			}
		case '\r':
			if !lx.eof() && lx.data[lx.pos] == '\n' {
				lx.pos++
			}
			c = '\n'
		case '\\':
			if lx.eof() {
				continue
			}
			c = lx.data[lx.pos]
			lx.pos++
			switch c {
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			case 'b':
				c = '\b'
			case 'f':
				c = '\f'
			case '\r':
				if !lx.eof() && lx.data[lx.pos] == '\n' {
					lx.pos++
				}
				continue
			case '\n':
				continue
			case '0', '1', '2', '3', '4', '5', '6', '7':
				c -= '0'
				for i := 0; i < 2 && !lx.eof() && lx.data[lx.pos] >= '0' && lx.data[lx.pos] <= '7'; i++ {
					c = c*8 + lx.data[lx.pos] - '0'
					lx.pos++
				}
			}
		}
		out = append(out, c)
	}
	return nil, lx.errorf("unterminated string")
}

// hex reads a hex string.  A final odd digit is treated as if followed by 0.
func (lx *lexer) hex() (Object, error) {
	var (
		out  = []byte{}
		half bool
	)
	for !lx.eof() {
		c := lx.data[lx.pos]
		lx.pos++
		if c == '>' {
			return out, nil
		}
		if bytes.IndexByte([]byte(whitespace), c) >= 0 {
			continue
		}
		d, ok := hexDigit(c)
		if !ok {
			return nil, lx.errorf("invalid character %q in hex string", c)
		}
		if half {
			out[len(out)-1] |= d
		} else {
			out = append(out, d<<4)
		}
		half = !half
	}
	return nil, lx.errorf("unterminated hex string")
}

func (lx *lexer) name() (Object, error) {
	var out []byte
	for !lx.eof() && isRegularChar(lx.data[lx.pos]) {
		c := lx.data[lx.pos]
		if c == '#' {
			if lx.pos+2 >= len(lx.data) {
				return nil, lx.errorf("truncated hex escape in /Name")
			}
			hi, ok1 := hexDigit(lx.data[lx.pos+1])
			lo, ok2 := hexDigit(lx.data[lx.pos+2])
			if !ok1 || !ok2 {
				return nil, lx.errorf("invalid hex escape in /Name")
			}
			c = hi<<4 | lo
			lx.pos += 2
		}
		out = append(out, c)
		lx.pos++
	}
	return Name(out), nil
}

func (lx *lexer) array() (Object, error) {
	var a Array
	for {
		lx.skipSpace()
		if lx.eof() {
			return nil, lx.errorf("unterminated array")
		}
		if lx.data[lx.pos] == ']' {
			lx.pos++
			return a, nil
		}
		obj, err := lx.object()
		if err != nil {
			return nil, fmt.Errorf("reading array element %d: %w", len(a), err)
		}
		a = append(a, obj)
	}
}

// dict reads a dictionary, and the stream data following it if there is any.
func (lx *lexer) dict() (Object, error) {
	d := make(Dict)
	for {
		lx.skipSpace()
		if lx.eof() {
			return nil, lx.errorf("unterminated dict")
		}
		if bytes.HasPrefix(lx.data[lx.pos:], []byte(">>")) {
			lx.pos += 2
			break
		}
		key, err := lx.object()
		if err != nil {
			return nil, fmt.Errorf("reading dict key: %w", err)
		}
		name, ok := key.(Name)
		if !ok {
			return nil, lx.errorf("dict key is %s, not Name", typeName(key))
		}
		if d[name], err = lx.object(); err != nil {
			return nil, fmt.Errorf("reading value for /%s: %w", name, err)
		}
	}
	save := lx.pos
	lx.skipWhitespace()
	rest := lx.data[lx.pos:]
	switch {
	case bytes.HasPrefix(rest, []byte("stream\r\n")):
		lx.pos += 8
	case bytes.HasPrefix(rest, []byte("stream\n")):
		lx.pos += 7
	default:
		lx.pos = save
		return d, nil
	}
	return lx.stream(d)
}

// stream reads the stream data following its dictionary.  If /Length is
// missing, indirect, or simply wrong, the data is taken to end at the
// "endstream" keyword instead.
func (lx *lexer) stream(d Dict) (Object, error) {
	s := Stream{Dict: d}
	rest := lx.data[lx.pos:]
	if size, ok := d["Length"].(int); ok && size >= 0 && size <= len(rest) && endsStream(rest[size:]) {
		s.Data = rest[:size]
	} else {
		idx := bytes.Index(rest, []byte("endstream"))
		if idx < 0 {
			return nil, lx.errorf(`missing "endstream" at end of stream`)
		}
		s.Data = bytes.TrimSuffix(bytes.TrimSuffix(rest[:idx], []byte("\n")), []byte("\r"))
	}
	lx.pos += len(s.Data)
	if !lx.keyword("endstream") {
		return nil, lx.errorf(`expected "endstream" at end of stream`)
	}
	return s, nil
}

// endsStream returns whether by starts with an optional end of line followed
// by the "endstream" keyword.
func endsStream(by []byte) bool {
	lx := &lexer{data: by}
	lx.skipWhitespace()
	return lx.pos <= 2 && string(lx.word()) == "endstream"
}
