package pdfops

import (
	"log/slog"

	"github.com/rothskeller/pdfpages/pdfgraph"
	"github.com/rothskeller/pdfpages/pdfstruct"
	"github.com/rothskeller/pdfpages/pdftree"
)

// DeletePages writes the PDF file at path to out without the listed pages
// (1-based).  Pages listed more than once are deleted once.  Objects that
// only the deleted pages used are dropped from the output.
func DeletePages(path string, pages []int, out string) (err error) {
	var (
		doc  *pdfstruct.Document
		refs []pdfstruct.Reference
	)
	if len(pages) == 0 {
		return invalid("the list of pages to delete cannot be empty")
	}
	for _, num := range pages {
		if num < 1 {
			return invalid("invalid page number %d: page numbers are 1-based", num)
		}
	}
	if err = checkInput(path); err != nil {
		return err
	}
	if doc, err = load(path); err != nil {
		return err
	}
	if refs, err = pageList(doc, path); err != nil {
		return err
	}
	for _, num := range pages {
		if num > len(refs) {
			return invalid("invalid page number %d: page numbers must be between 1 and %d", num, len(refs))
		}
	}
	slog.Debug("deleting pages", "path", path, "pages", pages, "out", out)
	if err = pdftree.Remove(doc, pages); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	removed, err := pdfgraph.Prune(doc)
	if err != nil {
		return err
	}
	slog.Debug("dropped unused objects", "count", removed)
	return save(doc, out)
}
