package pdfops

import (
	"log/slog"

	"github.com/rothskeller/pdfpages/pdfstruct"
	"github.com/rothskeller/pdfpages/pdftext"
)

// ReadInfo returns the text entries of the document information dictionary
// of the PDF file at path (Title, Author, and so on), keyed by entry name.
// Entries that are not strings are left out.  A document without an
// information dictionary yields an empty map.
func ReadInfo(path string) (info map[string]string, err error) {
	var doc *pdfstruct.Document

	if err = checkInput(path); err != nil {
		return nil, err
	}
	if doc, err = load(path); err != nil {
		return nil, err
	}
	info = make(map[string]string)
	dict, ok := doc.Resolve(doc.Trailer["Info"]).(pdfstruct.Dict)
	if !ok {
		if _, present := doc.Trailer["Info"]; present {
			slog.Warn("document information is not a dictionary", "path", path)
		}
		return info, nil
	}
	for key, val := range dict {
		if s, ok := pdftext.FromObject(val); ok {
			info[string(key)] = s
		}
	}
	return info, nil
}
