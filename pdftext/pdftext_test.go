package pdftext

import (
	"testing"

	"github.com/rothskeller/pdfpages/pdfstruct"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"ascii", []byte("Quarterly report"), "Quarterly report"},
		{"utf16", []byte{0xfe, 0xff, 0x00, 'A', 0x00, 0xe9, 0x4e, 0x2d}, "Aé中"},
		{"utf16 decomposed", []byte{0xfe, 0xff, 0x00, 'e', 0x03, 0x01}, "é"},
		{"utf16 surrogate pair", []byte{0xfe, 0xff, 0xd8, 0x3d, 0xde, 0x00}, "😀"},
		{"utf8", []byte("\xef\xbb\xbfna\xc3\xafve"), "naïve"},
		{"pdfdoc", []byte{0x80, ' ', 0x93, 0xa0, 0x18, 0xe9}, "• ﬁ€˘é"},
		{"pdfdoc undefined", []byte{'a', 0x9f, 'b'}, "a�b"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decode(tt.in); got != tt.want {
				t.Errorf("Decode(% x) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromObject(t *testing.T) {
	if s, ok := FromObject("plain"); !ok || s != "plain" {
		t.Errorf("literal string: %q, %v", s, ok)
	}
	if s, ok := FromObject([]byte{0xfe, 0xff, 0x00, 'x'}); !ok || s != "x" {
		t.Errorf("hex string: %q, %v", s, ok)
	}
	if _, ok := FromObject(pdfstruct.Name("Title")); ok {
		t.Error("Name accepted as text string")
	}
}
