// Package pdfops implements the page operations on PDF files: extracting,
// splitting, merging, deleting and rotating pages, and reading document
// information.  Each operation reads its input files, checks every argument
// before it writes anything, and writes its output in a single step at the
// end, so a failed operation never leaves a damaged output file behind.
package pdfops

import (
	"log/slog"

	"github.com/rothskeller/pdfpages/pdfgraph"
	"github.com/rothskeller/pdfpages/pdfstruct"
	"github.com/rothskeller/pdfpages/pdftree"
)

// ExtractPage writes page number page (1-based) of the PDF file at path to a
// new one-page PDF file at out.
func ExtractPage(path string, page int, out string) error {
	if page < 1 {
		return invalid("page number must be 1-based (greater than 0), got %d", page)
	}
	slog.Debug("extracting page", "path", path, "page", page, "out", out)
	return copyPages(path, []int{page}, out)
}

// SplitPages writes the listed pages (1-based) of the PDF file at path to a
// new PDF file at out, in the order listed.  A page listed more than once
// appears more than once in the output, sharing a single page object.
func SplitPages(path string, pages []int, out string) error {
	if len(pages) == 0 {
		return invalid("the list of pages to split out cannot be empty")
	}
	for _, num := range pages {
		if num < 1 {
			return invalid("page number must be 1-based (greater than 0), got %d", num)
		}
	}
	slog.Debug("splitting pages", "path", path, "pages", pages, "out", out)
	return copyPages(path, pages, out)
}

// copyPages builds a new document holding the numbered pages of the document
// at path, and the source's document information.
func copyPages(path string, numbers []int, out string) (err error) {
	var (
		src    *pdfstruct.Document
		pages  []pdfstruct.Reference
		wanted []pdfstruct.Reference
		extra  []pdfstruct.Reference
	)
	if err = checkInput(path); err != nil {
		return err
	}
	if src, err = load(path); err != nil {
		return err
	}
	if pages, err = pageList(src, path); err != nil {
		return err
	}
	if wanted, err = lookupPages(pages, numbers, path); err != nil {
		return err
	}
	info := src.Trailer["Info"]
	switch info := info.(type) {
	case pdfstruct.Reference:
		extra = append(extra, info)
	case pdfstruct.Dict:
		extra = append(extra, pdfgraph.References(info)...)
	}
	dst := pdfstruct.NewDocument(src.Version)
	m, err := transplantPages(src, dst, unique(wanted), extra, pdfgraph.Fresh{},
		func(m *pdfgraph.Mapping) (pdfstruct.Reference, error) {
			tree, _ := pdftree.Assemble(dst, mapped(m, wanted))
			return tree, nil
		})
	if err != nil {
		return err
	}
	switch info := info.(type) {
	case pdfstruct.Reference:
		if nr, ok := m.Lookup(info); ok {
			dst.Trailer["Info"] = nr
		}
	case pdfstruct.Dict:
		dst.Trailer["Info"] = pdfgraph.RewriteObject(pdfgraph.Clone(info), m)
	}
	slog.Debug("copied pages", "pages", len(wanted), "objects", m.Len())
	return save(dst, out)
}
