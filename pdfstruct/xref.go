package pdfstruct

import (
	"bytes"
	"errors"
	"fmt"
)

type entryKind uint8

const (
	entryFree entryKind = iota
	entryInFile
	entryInStream
)

// An xrefEntry locates one object.  For an object stored directly in the
// file, a is its byte offset and b its generation.  For an object inside an
// object stream, a is the number of the stream and b the index within it.
type xrefEntry struct {
	kind entryKind
	a, b int
}

// add records the entry for object num.  Sections are read from the newest to
// the oldest, so an entry already present wins.
func (f *file) add(num int, e xrefEntry) {
	if _, ok := f.xref[num]; !ok {
		f.xref[num] = e
	}
}

func (f *file) addTrailer(key Name, val Object) {
	if _, ok := f.trailer[key]; !ok {
		f.trailer[key] = val
	}
}

// readXRef reads the chain of cross-reference sections, newest first, into
// one table.
func (f *file) readXRef() error {
	addr, err := f.startXRef()
	if err != nil {
		return fmt.Errorf(`reading "startxref": %w`, err)
	}
	seen := make(map[int]bool)
	for addr != 0 {
		if seen[addr] {
			return fmt.Errorf("xref section at offset %d is its own predecessor", addr)
		}
		seen[addr] = true
		prev, err := f.readXRefSection(addr)
		if err != nil {
			return fmt.Errorf("reading xref section at offset %d: %w", addr, err)
		}
		addr = prev
	}
	return nil
}

// startXRef returns the offset given after the last "startxref" keyword near
// the end of the file.
func (f *file) startXRef() (int, error) {
	tail := f.data[max(0, len(f.data)-1024):]
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, errors.New(`no "startxref" found at end of file`)
	}
	lx := &lexer{data: tail, pos: idx + len("startxref")}
	return lx.integer()
}

// readXRefSection reads a cross-reference table or stream and returns the
// offset of the previous section, or zero if there is none.
func (f *file) readXRefSection(addr int) (prev int, err error) {
	if addr < 0 || addr >= len(f.data) {
		return 0, errors.New("offset is outside the file")
	}
	lx := &lexer{data: f.data, pos: addr}
	if lx.keyword("xref") {
		return f.readXRefTable(lx)
	}
	return f.readXRefStream(addr)
}

// readXRefTable reads the subsections of a classic table and the trailer
// dictionary after them.  Entries are read as tokens rather than fixed
// 20-byte lines, so tables with sloppy line ends still load.
func (f *file) readXRefTable(lx *lexer) (prev int, err error) {
	for !lx.keyword("trailer") {
		var start, count int
		if start, err = lx.integer(); err != nil {
			return 0, fmt.Errorf("reading subsection header: %w", err)
		}
		if count, err = lx.integer(); err != nil {
			return 0, fmt.Errorf("reading subsection header: %w", err)
		}
		for num := start; num < start+count; num++ {
			if err = f.readXRefTableEntry(lx, num); err != nil {
				return 0, err
			}
		}
	}
	obj, err := lx.object()
	if err != nil {
		return 0, fmt.Errorf("reading trailer: %w", err)
	}
	trailer, ok := obj.(Dict)
	if !ok {
		return 0, fmt.Errorf(`expected dict after "trailer", found %s`, typeName(obj))
	}
	for key, val := range trailer {
		switch key {
		case "Prev":
			if prev, ok = val.(int); !ok {
				return 0, errors.New("trailer /Prev is not an integer")
			}
		case "XRefStm":
			addr, ok := val.(int)
			if !ok {
				return 0, errors.New("trailer /XRefStm is not an integer")
			}
			if _, err = f.readXRefStream(addr); err != nil {
				return 0, fmt.Errorf("reading /XRefStm: %w", err)
			}
		default:
			f.addTrailer(key, val)
		}
	}
	return prev, nil
}

func (f *file) readXRefTableEntry(lx *lexer, num int) (err error) {
	var a, b int
	if a, err = lx.integer(); err != nil {
		return fmt.Errorf("reading entry for object %d: %w", num, err)
	}
	if b, err = lx.integer(); err != nil {
		return fmt.Errorf("reading entry for object %d: %w", num, err)
	}
	lx.skipSpace()
	switch kw := lx.word(); string(kw) {
	case "n":
		f.add(num, xrefEntry{entryInFile, a, b})
	case "f":
		f.add(num, xrefEntry{entryFree, a, b})
	default:
		return fmt.Errorf("entry for object %d has type %q, not n or f", num, kw)
	}
	return nil
}

// readXRefStream reads the cross-reference stream at addr.
func (f *file) readXRefStream(addr int) (prev int, err error) {
	var index, w []int

	lx := &lexer{data: f.data, pos: addr}
	obj, err := lx.object()
	if err != nil {
		return 0, err
	}
	str, ok := obj.(Stream)
	if !ok || TypeOf(str) != "XRef" {
		return 0, errors.New("expected an xref stream")
	}
	for key, val := range str.Dict {
		switch key {
		case "Prev":
			if prev, ok = val.(int); !ok {
				return 0, errors.New("xref stream /Prev is not an integer")
			}
		case "Index":
			if index, ok = ints(val); !ok || len(index) < 2 || len(index)%2 != 0 {
				return 0, errors.New("xref stream /Index is not an even-length array of integers")
			}
		case "W":
			if w, ok = ints(val); !ok || len(w) != 3 {
				return 0, errors.New("xref stream /W is not an array of three integers")
			}
		case "Type", "Length", "Filter", "DecodeParms", "F", "FFilter", "FDecodeParms", "DL":
		default:
			f.addTrailer(key, val)
		}
	}
	if index == nil {
		size, ok := str.Dict["Size"].(int)
		if !ok {
			return 0, errors.New("xref stream has neither /Index nor an integer /Size")
		}
		index = []int{0, size}
	}
	if w == nil {
		return 0, errors.New("xref stream has no /W")
	}
	for _, n := range w {
		if n < 0 || n > 8 {
			return 0, fmt.Errorf("xref stream field width %d is not supported", n)
		}
	}
	width := w[0] + w[1] + w[2]
	if err = str.Decompress(width); err != nil {
		return 0, fmt.Errorf("decoding xref stream: %w", err)
	}
	data := str.Data
	for ; len(index) != 0; index = index[2:] {
		for num := index[0]; num < index[0]+index[1]; num++ {
			if len(data) < width {
				return 0, errors.New("xref stream data is too short for its /Index")
			}
			row := data[:width]
			data = data[width:]
			e := xrefEntry{
				a: field(row[w[0]:w[0]+w[1]], 0),
				b: field(row[w[0]+w[1]:], 0),
			}
			switch field(row[:w[0]], 1) {
			case 0:
				e.kind = entryFree
			case 1:
				e.kind = entryInFile
			case 2:
				e.kind = entryInStream
			default:
				// Reserved types; references to them resolve to null.
				continue
			}
			f.add(num, e)
		}
	}
	return prev, nil
}

// field decodes a big-endian xref stream field.  A zero-width field takes the
// default value def.
func field(b []byte, def int) (v int) {
	if len(b) == 0 {
		return def
	}
	for _, c := range b {
		v = v<<8 | int(c)
	}
	return v
}

func ints(obj Object) ([]int, bool) {
	arr, ok := obj.(Array)
	if !ok {
		return nil, false
	}
	out := make([]int, len(arr))
	for i, o := range arr {
		if out[i], ok = o.(int); !ok {
			return nil, false
		}
	}
	return out, true
}
