// Package pdfsample generates small labelled PDF documents.  Each page shows
// its label and page number in large type, which makes it easy to see where
// pages went after they are extracted, merged, deleted or rotated.
package pdfsample

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/phpdave11/gofpdf"
)

// Options describes the document to generate.
type Options struct {
	Pages  int    // number of pages; at least 1
	Label  string // default = "Page"
	Title  string // document title, optional
	Author string // document author, optional
	// Landscape turns every other page sideways, so that page geometry
	// differs from page to page.
	Landscape bool
}

// creationDate is fixed so that repeated runs produce identical files.
var creationDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Write writes a sample document to w.
func Write(w io.Writer, opts Options) error {
	if opts.Pages < 1 {
		return errors.New("sample document needs at least one page")
	}
	if opts.Label == "" {
		opts.Label = "Page"
	}
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetCompression(true)
	pdf.SetCreationDate(creationDate)
	pdf.SetCatalogSort(true)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	if opts.Author != "" {
		pdf.SetAuthor(opts.Author, true)
	}
	for i := 1; i <= opts.Pages; i++ {
		if opts.Landscape && i%2 == 0 {
			pdf.AddPageFormat("L", pdf.GetPageSizeStr("Letter"))
		} else {
			pdf.AddPage()
		}
		label := fmt.Sprintf("%s %d", opts.Label, i)
		pdf.SetFont("Helvetica", "B", 48)
		pw, ph := pdf.GetPageSize()
		pdf.Text((pw-pdf.GetStringWidth(label))/2, ph/2, label)
		pdf.SetFont("Helvetica", "", 12)
		footer := fmt.Sprintf("%d of %d", i, opts.Pages)
		pdf.Text((pw-pdf.GetStringWidth(footer))/2, ph-36, footer)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("generating sample: %w", err)
	}
	return nil
}

// Save writes a sample document to the file at path.
func Save(path string, opts Options) (err error) {
	var fh *os.File

	if fh, err = os.Create(path); err != nil {
		return err
	}
	if err = Write(fh, opts); err != nil {
		fh.Close()
		os.Remove(path)
		return err
	}
	return fh.Close()
}
