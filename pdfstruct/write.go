package pdfstruct

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Save writes the document to the file at path.  The document is written to a
// temporary file in the same directory, which then replaces path, so a failed
// save never leaves a partially written document behind.
func Save(doc *Document, path string) (err error) {
	var fh *os.File

	if fh, err = os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*"); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			fh.Close()
			os.Remove(fh.Name())
		}
	}()
	if err = Write(doc, fh); err != nil {
		return err
	}
	if err = fh.Close(); err != nil {
		return err
	}
	return os.Rename(fh.Name(), path)
}

// Write writes the document as a complete PDF file, with all objects in
// object number order and a classic cross-reference table.
func Write(doc *Document, w io.Writer) (err error) {
	var (
		wr      = &countingWriter{w: bufio.NewWriter(w)}
		refs    = make([]Reference, 0, len(doc.Objects))
		offsets = make(map[int]int64, len(doc.Objects))
		gens    = make(map[int]int, len(doc.Objects))
		size    int
		xref    int64
	)
	if _, ok := doc.Trailer["Root"].(Reference); !ok {
		return errors.New("trailer has no /Root reference")
	}
	for ref := range doc.Objects {
		if ref.Number < 1 {
			return fmt.Errorf("invalid object number %d", ref.Number)
		}
		if g, ok := gens[ref.Number]; ok {
			return fmt.Errorf("object number %d is used with generations %d and %d", ref.Number, g, ref.Generation)
		}
		gens[ref.Number] = ref.Generation
		refs = append(refs, ref)
		size = max(size, ref.Number+1)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Number < refs[j].Number })
	fmt.Fprintf(wr, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", doc.Version)
	for _, ref := range refs {
		offsets[ref.Number] = wr.n
		if err = writeObject(wr, ref, doc.Objects[ref]); err != nil {
			return fmt.Errorf("writing object %s: %w", ref, err)
		}
	}
	xref = wr.n
	if err = writeXRefTable(wr, size, offsets, gens); err != nil {
		return err
	}
	var trailer = Dict{"Size": size}
	for _, key := range []Name{"Root", "Info", "ID"} {
		if val, ok := doc.Trailer[key]; ok {
			trailer[key] = val
		}
	}
	fmt.Fprint(wr, "trailer\n")
	if err = writeRawObject(wr, trailer); err != nil {
		return err
	}
	if err = writeStartXRef(wr, xref); err != nil {
		return err
	}
	return wr.w.Flush()
}

// countingWriter tracks the number of bytes written so far, which gives the
// offsets for the cross-reference table.  It remembers the first write error
// so that callers can check once at the end.
type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	if cw.err != nil {
		return 0, cw.err
	}
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	cw.err = err
	return n, err
}

func writeObject(wr io.Writer, ref Reference, obj Object) (err error) {
	if _, err = fmt.Fprintf(wr, "%d %d obj\n", ref.Number, ref.Generation); err != nil {
		return err
	}
	if err = writeRawObject(wr, obj); err != nil {
		return err
	}
	if _, err = fmt.Fprint(wr, "\nendobj\n"); err != nil {
		return err
	}
	return nil
}

func writeRawObject(wr io.Writer, obj Object) (err error) {
	switch obj := obj.(type) {
	case nil:
		_, err = fmt.Fprint(wr, "null")
	case bool, int:
		_, err = fmt.Fprint(wr, obj)
	case float64:
		_, err = fmt.Fprint(wr, strconv.FormatFloat(obj, 'f', -1, 64))
	case string:
		_, err = fmt.Fprint(wr, encodeString(obj))
	case []byte:
		_, err = fmt.Fprint(wr, encodeHexString(obj))
	case Name:
		_, err = fmt.Fprint(wr, encodeName(obj))
	case Array:
		if _, err = fmt.Fprint(wr, "["); err != nil {
			return err
		}
		for i, o := range obj {
			if i != 0 {
				if _, err = fmt.Fprint(wr, " "); err != nil {
					return err
				}
			}
			if err = writeRawObject(wr, o); err != nil {
				return err
			}
		}
		_, err = fmt.Fprint(wr, "]")
	case Dict:
		err = writeDict(wr, obj, nil)
	case Stream:
		if err = writeDict(wr, obj.Dict, Dict{"Length": len(obj.Data)}); err != nil {
			return err
		}
		if _, err = fmt.Fprint(wr, "\nstream\n"); err != nil {
			return err
		}
		if _, err = wr.Write(obj.Data); err != nil {
			return err
		}
		_, err = fmt.Fprint(wr, "\nendstream")
	case Reference:
		_, err = fmt.Fprintf(wr, "%d %d R", obj.Number, obj.Generation)
	default:
		return fmt.Errorf("unsupported object type %T", obj)
	}
	return err
}

// writeDict writes d with its keys in sorted order.  Entries in override
// replace the corresponding entries of d.
func writeDict(wr io.Writer, d, override Dict) (err error) {
	var keys = make([]Name, 0, len(d)+len(override))
	for key := range d {
		if _, ok := override[key]; !ok {
			keys = append(keys, key)
		}
	}
	for key := range override {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	if _, err = fmt.Fprint(wr, "<<"); err != nil {
		return err
	}
	for _, key := range keys {
		val, ok := override[key]
		if !ok {
			val = d[key]
		}
		if _, err = fmt.Fprintf(wr, "%s ", encodeName(key)); err != nil {
			return err
		}
		if err = writeRawObject(wr, val); err != nil {
			return err
		}
		if _, err = fmt.Fprint(wr, "\n"); err != nil {
			return err
		}
	}
	_, err = fmt.Fprint(wr, ">>")
	return err
}

// writeXRefTable writes a classic cross-reference table covering object
// numbers 0 through size-1.  Numbers without an object are chained into the
// free list.
func writeXRefTable(wr io.Writer, size int, offsets map[int]int64, gens map[int]int) (err error) {
	if _, err = fmt.Fprintf(wr, "xref\n0 %d\n", size); err != nil {
		return err
	}
	var next = make([]int, size)
	var last = 0
	for num := size - 1; num > 0; num-- {
		if _, ok := offsets[num]; !ok {
			next[num] = last
			last = num
		}
	}
	next[0] = last
	for num := 0; num < size; num++ {
		if off, ok := offsets[num]; ok {
			_, err = fmt.Fprintf(wr, "%010d %05d n\r\n", off, gens[num])
		} else if num == 0 {
			_, err = fmt.Fprintf(wr, "%010d 65535 f\r\n", next[num])
		} else {
			_, err = fmt.Fprintf(wr, "%010d 00001 f\r\n", next[num])
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func writeStartXRef(wr io.Writer, start int64) (err error) {
	_, err = fmt.Fprintf(wr, "\nstartxref\n%d\n%%%%EOF\n", start)
	return err
}

func encodeString(s string) string {
	var sb strings.Builder
	var by = []byte(s)
	sb.WriteByte('(')
	for _, b := range by {
		switch b {
		case '\r':
			sb.WriteByte('\\')
			sb.WriteByte('r')
		case '\\', '(', ')':
			sb.WriteByte('\\')
			sb.WriteByte(b)
		default:
			sb.WriteByte(b)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

func encodeHexString(by []byte) string {
	return "<" + hex.EncodeToString(by) + ">"
}

func encodeName(n Name) string {
	var by = []byte(string(n))
	var sb strings.Builder
	sb.WriteByte('/')
	for _, b := range by {
		if isRegularChar(b) && b != '#' && b > ' ' && b < 0x7f {
			sb.WriteByte(b)
		} else {
			fmt.Fprintf(&sb, "#%02X", b)
		}
	}
	return sb.String()
}
