package pdfops

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rothskeller/pdfpages/pdfstruct"
	"github.com/rothskeller/pdfpages/pdftree"
)

// checkInput verifies that path names an existing regular file.
func checkInput(path string) error {
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return notFound("input file not found: %s", path)
	}
	if err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	if !fi.Mode().IsRegular() {
		return notFound("input path is not a file: %s", path)
	}
	return nil
}

// load reads the document at path, which checkInput has already vetted.
func load(path string) (*pdfstruct.Document, error) {
	doc, err := pdfstruct.Load(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return doc, nil
}

// pageList returns the pages of doc, which was loaded from path.
func pageList(doc *pdfstruct.Document, path string) ([]pdfstruct.Reference, error) {
	pages, err := pdftree.Pages(doc)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return pages, nil
}

// lookupPages resolves 1-based page numbers against the page list, keeping
// their order and any repeats.
func lookupPages(pages []pdfstruct.Reference, numbers []int, path string) ([]pdfstruct.Reference, error) {
	refs := make([]pdfstruct.Reference, len(numbers))
	for i, num := range numbers {
		if num > len(pages) {
			return nil, notFound("page number %d not found in document %q (which has %d pages)", num, path, len(pages))
		}
		refs[i] = pages[num-1]
	}
	return refs, nil
}

// ensureDir creates the directory that will hold out.
func ensureDir(out string) error {
	dir := filepath.Dir(out)
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return &EncodeError{Path: out, Err: err}
	}
	return nil
}

// save writes doc to out, creating the output directory if needed.
func save(doc *pdfstruct.Document, out string) error {
	if err := ensureDir(out); err != nil {
		return err
	}
	if err := pdfstruct.Save(doc, out); err != nil {
		return &EncodeError{Path: out, Err: err}
	}
	return nil
}

// copyFile copies src to out byte for byte.  Like pdfstruct.Save, it writes a
// temporary file and renames it into place.
func copyFile(src, out string) (err error) {
	var in, fh *os.File

	if err = ensureDir(out); err != nil {
		return err
	}
	if in, err = os.Open(src); err != nil {
		return &DecodeError{Path: src, Err: err}
	}
	defer in.Close()
	if fh, err = os.CreateTemp(filepath.Dir(out), "."+filepath.Base(out)+".*"); err != nil {
		return &EncodeError{Path: out, Err: err}
	}
	defer func() {
		if err != nil {
			fh.Close()
			os.Remove(fh.Name())
			err = &EncodeError{Path: out, Err: err}
		}
	}()
	if _, err = io.Copy(fh, in); err != nil {
		return err
	}
	if err = fh.Close(); err != nil {
		return err
	}
	return os.Rename(fh.Name(), out)
}

// unique returns refs without repeats, in order of first appearance.
func unique(refs []pdfstruct.Reference) []pdfstruct.Reference {
	var (
		seen = make(map[pdfstruct.Reference]bool, len(refs))
		out  = make([]pdfstruct.Reference, 0, len(refs))
	)
	for _, r := range refs {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}
