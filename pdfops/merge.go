package pdfops

import (
	"log/slog"

	"github.com/rothskeller/pdfpages/pdfgraph"
	"github.com/rothskeller/pdfpages/pdfstruct"
	"github.com/rothskeller/pdfpages/pdftree"
)

// Merge writes a PDF file at out containing all pages of the PDF files at
// paths, in order.  The first file is the base: its catalog, document
// information and page tree are kept, and the pages of the others are added
// to the end of its page tree.  Merging a single file copies it unchanged.
func Merge(paths []string, out string) (err error) {
	var (
		target *pdfstruct.Document
		root   pdfstruct.Reference
	)
	if len(paths) == 0 {
		return invalid("no PDF files provided for merging")
	}
	for _, path := range paths {
		if err = checkInput(path); err != nil {
			return err
		}
	}
	slog.Debug("merging", "paths", paths, "out", out)
	if len(paths) == 1 {
		return copyFile(paths[0], out)
	}
	if target, err = load(paths[0]); err != nil {
		return err
	}
	if root, err = pdftree.Root(target); err != nil {
		return &DecodeError{Path: paths[0], Err: err}
	}
	for _, path := range paths[1:] {
		if err = mergeInto(target, root, path); err != nil {
			return err
		}
	}
	return save(target, out)
}

// mergeInto appends the pages of the document at path to the page tree node
// root of target.
func mergeInto(target *pdfstruct.Document, root pdfstruct.Reference, path string) (err error) {
	var (
		src   *pdfstruct.Document
		pages []pdfstruct.Reference
		m     *pdfgraph.Mapping
	)
	if src, err = load(path); err != nil {
		return err
	}
	if pages, err = pageList(src, path); err != nil {
		return err
	}
	if len(pages) == 0 {
		slog.Warn("document has no pages", "path", path)
		return nil
	}
	alloc := pdfgraph.Offset{Delta: target.MaxID}
	m, err = transplantPages(src, target, unique(pages), nil, alloc,
		func(*pdfgraph.Mapping) (pdfstruct.Reference, error) { return root, nil })
	if err != nil {
		return err
	}
	copied := mapped(m, pages)
	shield(target, root, unique(copied))
	if err = pdftree.Append(target, root, copied); err != nil {
		return err
	}
	target.Version = max(target.Version, src.Version)
	slog.Debug("merged document", "path", path, "pages", len(pages), "objects", m.Len(), "offset", alloc.Delta)
	return nil
}

// shield keeps appended pages from picking up inheritable attributes of the
// node they are appended to, which they did not have in their own document.
func shield(doc *pdfstruct.Document, root pdfstruct.Reference, pages []pdfstruct.Reference) {
	node, err := doc.GetDict(root)
	if err != nil {
		return
	}
	for _, ref := range pages {
		page, err := doc.GetDict(ref)
		if err != nil {
			continue
		}
		for _, key := range pdftree.InheritableKeys {
			if _, ok := page[key]; ok {
				continue
			}
			if _, ok := node[key]; !ok {
				continue
			}
			switch key {
			case "Resources":
				page[key] = pdfstruct.Dict{}
			case "Rotate":
				page[key] = 0
			case "CropBox":
				if mb, ok := page["MediaBox"]; ok {
					page[key] = pdfgraph.Clone(mb)
				}
			}
		}
		doc.Set(ref, page)
	}
}
