package pdfstruct

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"regexp"
	"slices"
)

// Reader is the interface that must be satisfied by any file passed to Read.
type Reader interface {
	io.Seeker
	io.ReaderAt
}

// file is a PDF file being read.
type file struct {
	data    []byte
	xref    map[int]xrefEntry
	trailer Dict
	objstms map[int]Stream
}

// Load reads the PDF file at path into memory.
func Load(path string) (doc *Document, err error) {
	var fh *os.File

	if fh, err = os.Open(path); err != nil {
		return nil, err
	}
	defer fh.Close()
	return Read(fh)
}

// Read reads an entire PDF file into memory.  Objects that cannot be read are
// left out of the resulting document (with a logged warning) rather than
// failing the whole read; references to them will not resolve.
func Read(fh Reader) (doc *Document, err error) {
	var size int64

	if size, err = fh.Seek(0, io.SeekEnd); err != nil {
		return nil, err
	}
	f := &file{
		data:    make([]byte, size),
		xref:    make(map[int]xrefEntry),
		trailer: make(Dict),
		objstms: make(map[int]Stream),
	}
	if n, err := fh.ReadAt(f.data, 0); err != nil && (err != io.EOF || n != len(f.data)) {
		return nil, err
	}
	doc = NewDocument("")
	if doc.Version, err = f.version(); err != nil {
		return nil, err
	}
	if err = f.readXRef(); err != nil {
		return nil, err
	}
	if _, ok := f.trailer["Encrypt"]; ok {
		return nil, ErrEncrypted
	}
	for _, num := range slices.Sorted(maps.Keys(f.xref)) {
		var ref = Reference{Number: num}
		switch e := f.xref[num]; e.kind {
		case entryInFile:
			ref.Generation = e.b
		case entryInStream:
		default:
			continue
		}
		obj, err := f.get(ref)
		if err != nil {
			slog.Warn("skipping unreadable object", "ref", ref, "err", err)
			continue
		}
		// Cross-reference streams and object streams describe the
		// file layout; they are rebuilt when the document is written.
		if ty := TypeOf(obj); ty == "XRef" || ty == "ObjStm" {
			continue
		}
		doc.Set(ref, obj)
	}
	for key, val := range f.trailer {
		switch key {
		case "Root", "Info", "ID":
			doc.Trailer[key] = val
		}
	}
	if _, ok := doc.Trailer["Root"].(Reference); !ok {
		return nil, errors.New("trailer has no /Root reference")
	}
	slog.Debug("read document", "version", doc.Version, "objects", len(doc.Objects))
	return doc, nil
}

var headerRE = regexp.MustCompile(`%PDF-(\d\.\d)`)

// version verifies the file signature and returns the header version.  The
// header belongs at the very start, but readers accept junk in the first
// kilobyte.
func (f *file) version() (string, error) {
	head := f.data[:min(len(f.data), 1024)]
	if !bytes.Contains(head, []byte("%PDF-")) {
		return "", errors.New("not a PDF file")
	}
	if match := headerRE.FindSubmatch(head); match != nil {
		return string(match[1]), nil
	}
	return "1.4", nil
}

// get reads the object specified by the reference.
func (f *file) get(r Reference) (obj Object, err error) {
	e, ok := f.xref[r.Number]
	if !ok || r.Number < 1 {
		return nil, fmt.Errorf("object number %d is not in the cross-reference table", r.Number)
	}
	switch e.kind {
	case entryInFile:
		if e.b != r.Generation {
			return nil, fmt.Errorf("object number %d has generation %d but %d was requested", r.Number, e.b, r.Generation)
		}
		if e.a < 0 || e.a >= len(f.data) {
			return nil, fmt.Errorf("object number %d has offset %d, outside the file", r.Number, e.a)
		}
		lx := &lexer{data: f.data, pos: e.a}
		if obj, err = lx.object(); err != nil {
			return nil, fmt.Errorf("reading object number %d: %w", r.Number, err)
		}
		return obj, nil
	case entryInStream:
		if r.Generation != 0 {
			return nil, fmt.Errorf("object number %d is in an object stream but has a nonzero generation number", r.Number)
		}
		str, err := f.objectStream(e.a)
		if err != nil {
			return nil, fmt.Errorf("reading stream %d containing object %d: %w", e.a, r.Number, err)
		}
		if obj, err = extractObjectFromStream(str, e.b); err != nil {
			return nil, fmt.Errorf("extracting object %d from stream %d at index %d: %w", r.Number, e.a, e.b, err)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("object number %d is on the free list", r.Number)
	}
}

// objectStream returns the decoded object stream with the specified number.
// Decoded streams are cached, since many objects usually share one.
func (f *file) objectStream(num int) (Stream, error) {
	if str, ok := f.objstms[num]; ok {
		return str, nil
	}
	if f.xref[num].kind != entryInFile {
		return Stream{}, fmt.Errorf("object %d is not stored directly in the file", num)
	}
	obj, err := f.get(Reference{Number: num, Generation: f.xref[num].b})
	if err != nil {
		return Stream{}, err
	}
	str, ok := obj.(Stream)
	if !ok {
		return Stream{}, fmt.Errorf("object %d is %s, not Stream", num, typeName(obj))
	}
	if err = str.Decompress(0); err != nil {
		return Stream{}, err
	}
	f.objstms[num] = str
	return str, nil
}

// extractObjectFromStream returns object number idx (0-based) of an object
// stream.  The stream data starts with pairs of integers, object number and
// offset relative to /First, one pair per object.
func extractObjectFromStream(s Stream, idx int) (Object, error) {
	if TypeOf(s) != "ObjStm" {
		return nil, errors.New("stream is not an object stream")
	}
	n, ok := s.Dict["N"].(int)
	if !ok || idx < 0 || idx >= n {
		return nil, errors.New("index out of range for object stream")
	}
	first, ok := s.Dict["First"].(int)
	if !ok {
		return nil, errors.New("object stream missing /First")
	}
	var (
		lx  = &lexer{data: s.Data}
		off int
		err error
	)
	for i := 0; i <= idx; i++ {
		if _, err = lx.integer(); err == nil {
			off, err = lx.integer()
		}
		if err != nil {
			return nil, fmt.Errorf("reading object stream header: %w", err)
		}
	}
	if lx.pos = first + off; lx.pos < 0 || lx.pos >= len(s.Data) {
		return nil, fmt.Errorf("object offset %d is outside the stream", lx.pos)
	}
	return lx.object()
}
