package pdfops

import (
	"log/slog"

	"github.com/rothskeller/pdfpages/pdfstruct"
	"github.com/rothskeller/pdfpages/pdftree"
)

// RotatePages writes the PDF file at path to out with the listed pages
// (1-based) turned clockwise by angle degrees, which must be 0, ±90, ±180 or
// ±270.  An empty list rotates every page.  A page listed more than once is
// rotated once.
func RotatePages(path string, pages []int, angle int, out string) (err error) {
	var (
		doc     *pdfstruct.Document
		refs    []pdfstruct.Reference
		targets []pdfstruct.Reference
	)
	if !pdftree.ValidAngle(angle) {
		return invalid("invalid rotation angle %d: must be one of 0, 90, 180, 270 or their negatives", angle)
	}
	for _, num := range pages {
		if num < 1 {
			return invalid("page number must be 1-based (greater than 0), got %d", num)
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
	if len(pages) == 0 {
		targets = refs
	} else if targets, err = lookupPages(refs, pages, path); err != nil {
		return err
	}
	targets = unique(targets)
	slog.Debug("rotating pages", "path", path, "pages", len(targets), "angle", angle, "out", out)
	for _, ref := range targets {
		if err = pdftree.Rotate(doc, ref, angle); err != nil {
			return &DecodeError{Path: path, Err: err}
		}
	}
	return save(doc, out)
}
