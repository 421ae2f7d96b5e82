// Package pdftext decodes PDF text strings: the strings found in the document
// information dictionary, outlines, annotations and the like.  A text string
// is either UTF-16BE with a byte order mark, UTF-8 with a byte order mark, or
// PDFDocEncoding.
package pdftext

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"

	"github.com/rothskeller/pdfpages/pdfstruct"
)

var (
	bomUTF16 = []byte{0xfe, 0xff}
	bomUTF8  = []byte{0xef, 0xbb, 0xbf}
)

// FromObject returns the decoded text of a string object, which may be a
// literal or a hex string.  It returns false if obj is not a string.
func FromObject(obj pdfstruct.Object) (string, bool) {
	switch obj := obj.(type) {
	case string:
		return Decode([]byte(obj)), true
	case []byte:
		return Decode(obj), true
	}
	return "", false
}

// Decode converts a PDF text string to a Go string in NFC form.  Bytes that
// have no meaning in the string's encoding become U+FFFD.
func Decode(b []byte) string {
	var s string

	switch {
	case bytes.HasPrefix(b, bomUTF16):
		out, _ := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(b)
		s = string(out)
	case bytes.HasPrefix(b, bomUTF8):
		s = strings.ToValidUTF8(string(b[3:]), string(utf8.RuneError))
	default:
		s = decodePDFDoc(b)
	}
	return norm.NFC.String(s)
}

func decodePDFDoc(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		sb.WriteRune(pdfDocEncoding[c])
	}
	return sb.String()
}
