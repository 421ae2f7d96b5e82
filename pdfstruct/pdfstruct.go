// Package pdfstruct provides methods for reading and writing the basic
// structure of a PDF.  It doesn't understand the semantics of the PDF at all;
// it just knows how to parse a file into a graph of objects held in memory,
// and how to write such a graph back out as a complete file.
package pdfstruct

import (
	"errors"
	"fmt"
	"strconv"
)

// An Object is an object as defined by the PDF specification.  While an Object
// is defined as "any", it will in fact be one of the following:
//   - nil (a null object)
//   - bool
//   - int
//   - float64
//   - string (a literal string)
//   - []byte (a hex string)
//   - Name
//   - Array
//   - Dict
//   - Stream
//   - Reference
type Object any

// A Name is a PDF/Postscript name, without the leading slash.
type Name string

// An Array is an array of objects.
type Array []Object

// A Dict is a map from Name to Object.
type Dict map[Name]Object

// A Stream is a Dict followed by a block of arbitrary data.  The data is kept
// exactly as it appears in the file, still encoded according to the stream's
// /Filter; call Decompress to decode it.
type Stream struct {
	Dict Dict
	Data []byte
}

// A Reference is an indirect reference to an Object.  It is the identity of
// an object within one Document.
type Reference struct {
	Number     int
	Generation int
}

func (r Reference) String() string {
	return strconv.Itoa(r.Number) + " " + strconv.Itoa(r.Generation) + " R"
}

// ErrMissingObject is returned (wrapped) when a Reference does not resolve to
// an object in the Document.
var ErrMissingObject = errors.New("object does not exist")

// ErrEncrypted is returned when reading an encrypted file.
var ErrEncrypted = errors.New("encrypted documents are not supported")

// TypeOf returns the /Type of a dictionary or stream, or "" if it has none.
func TypeOf(obj Object) Name {
	switch obj := obj.(type) {
	case Dict:
		n, _ := obj["Type"].(Name)
		return n
	case Stream:
		n, _ := obj.Dict["Type"].(Name)
		return n
	}
	return ""
}

// typeName describes the type of obj for error messages.
func typeName(obj Object) string {
	switch obj.(type) {
	case nil:
		return "null"
	case bool:
		return "Boolean"
	case int:
		return "Integer"
	case float64:
		return "Real"
	case string, []byte:
		return "String"
	case Name:
		return "Name"
	case Array:
		return "Array"
	case Dict:
		return "Dict"
	case Stream:
		return "Stream"
	case Reference:
		return "Reference"
	default:
		return fmt.Sprintf("%T", obj)
	}
}
