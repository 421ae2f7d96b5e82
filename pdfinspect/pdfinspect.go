// pdfinspect dumps one or more objects from a PDF file.
//
//	usage: pdfinspect pdf-file path
//
// path is a slash-separated path of Dict keys or Array indexes leading to the
// object in question.  The first component selects the starting point:
//
//	(empty)  the trailer dictionary, i.e. the path starts with a /
//	#N       page N (1-based) of the document
//	@N       indirect object number N
//
// Any other path starts in the document catalog (as if the "current
// directory" is /Root).  The path may contain "*" wildcards replacing an
// entire component, in which case all Dict entries or Array elements at that
// component are listed.
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/rothskeller/pdfpages/pdfstruct"
	"github.com/rothskeller/pdfpages/pdftext"
	"github.com/rothskeller/pdfpages/pdftree"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: pdfinspect pdf-file path/to/object\n")
		os.Exit(2)
	}
	doc, err := pdfstruct.Load(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s: %s\n", os.Args[1], err)
		os.Exit(1)
	}
	in := &inspector{doc: doc, out: os.Stdout, errs: os.Stderr}
	if !in.inspect(os.Args[2]) {
		os.Exit(1)
	}
}

// An inspector prints objects of one document.
type inspector struct {
	doc    *pdfstruct.Document
	out    io.Writer
	errs   io.Writer
	failed bool
}

// inspect prints the objects named by path.  It returns false if anything
// could not be found.
func (in *inspector) inspect(path string) bool {
	var (
		parts  = strings.Split(path, "/")
		root   pdfstruct.Object
		prefix string
	)
	switch first := parts[0]; {
	case first == "":
		parts, root = parts[1:], in.doc.Trailer
	case strings.HasPrefix(first, "#"):
		pages, err := pdftree.Pages(in.doc)
		if err != nil {
			in.errorf("page tree: %s", err)
			return false
		}
		num, err := strconv.Atoi(first[1:])
		if err != nil || num < 1 || num > len(pages) {
			in.errorf("%q is not a page number between 1 and %d", first[1:], len(pages))
			return false
		}
		parts, root, prefix = parts[1:], pages[num-1], first
	case strings.HasPrefix(first, "@"):
		num, err := strconv.Atoi(first[1:])
		if err != nil {
			in.errorf("%q is not an object number", first[1:])
			return false
		}
		ref := pdfstruct.Reference{Number: num}
		for r := range in.doc.Objects {
			if r.Number == num {
				ref = r
			}
		}
		parts, root, prefix = parts[1:], ref, first
	default:
		root, prefix = in.doc.Trailer["Root"], "/Root"
	}
	if len(parts) != 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	in.find(root, prefix, parts)
	return !in.failed
}

func (in *inspector) errorf(format string, args ...any) {
	fmt.Fprintf(in.errs, "ERROR: "+format+"\n", args...)
	in.failed = true
}

func (in *inspector) find(root pdfstruct.Object, prefix string, path []string) {
	var err error

	if len(path) == 0 {
		in.dump(root, prefix, 0)
		return
	}
	if ref, ok := root.(pdfstruct.Reference); ok {
		if root, err = in.doc.Get(ref); err != nil {
			in.errorf("%s: (#%d,%d): %s", prefix, ref.Number, ref.Generation, err)
			return
		}
	}
	if str, ok := root.(pdfstruct.Stream); ok {
		root = str.Dict
	}
	switch root := root.(type) {
	case pdfstruct.Array:
		if path[0] == "*" {
			for i := range root {
				in.find(root[i], fmt.Sprintf("%s/%d", prefix, i), path[1:])
			}
			break
		}
		var idx int
		if idx, err = strconv.Atoi(path[0]); err != nil || idx < 0 {
			in.errorf("%s is an Array but %q is not a valid array index", prefix, path[0])
			return
		}
		if idx >= len(root) {
			in.errorf("index %d is out of bounds for %s (length %d)", idx, prefix, len(root))
			return
		}
		in.find(root[idx], fmt.Sprintf("%s/%d", prefix, idx), path[1:])
	case pdfstruct.Dict:
		if path[0] == "*" {
			for _, key := range slices.Sorted(maps.Keys(root)) {
				in.find(root[key], fmt.Sprintf("%s/%s", prefix, key), path[1:])
			}
			break
		}
		if obj, ok := root[pdfstruct.Name(path[0])]; ok {
			in.find(obj, fmt.Sprintf("%s/%s", prefix, path[0]), path[1:])
		} else {
			in.errorf("key %q does not exist in %s", path[0], prefix)
		}
	default:
		in.errorf("%s is a %T, not a Dict, Stream, or Array", prefix, root)
	}
}

func (in *inspector) dump(obj pdfstruct.Object, path string, indent int) {
	if ref, ok := obj.(pdfstruct.Reference); ok && indent == 0 {
		var err error
		if obj, err = in.doc.Get(ref); err != nil {
			in.errorf("%s: (#%d,%d): %s", path, ref.Number, ref.Generation, err)
			return
		}
		fmt.Fprintf(in.out, "%s = (#%d,%d) -> ", path, ref.Number, ref.Generation)
	} else {
		fmt.Fprintf(in.out, "%s = ", path)
	}
	switch obj := obj.(type) {
	case nil:
		fmt.Fprintln(in.out, "null")
	case bool, int:
		fmt.Fprintf(in.out, "%v\n", obj)
	case float64:
		fmt.Fprintf(in.out, "%f\n", obj)
	case string:
		in.dumpText(fmt.Sprintf("%q", obj), obj)
	case []byte:
		in.dumpText("<"+hex.EncodeToString(obj)+">", obj)
	case pdfstruct.Name:
		fmt.Fprintf(in.out, "/%s\n", string(obj))
	case pdfstruct.Array:
		fmt.Fprintln(in.out, "Array[")
		for i := range obj {
			in.dump(obj[i], fmt.Sprintf("%*s[%d]", indent*4+4, "", i), indent+1)
		}
		fmt.Fprintf(in.out, "%*s]\n", indent*4, "")
	case pdfstruct.Dict:
		fmt.Fprintln(in.out, "Dict<<")
		in.dumpDict(obj, indent)
		fmt.Fprintf(in.out, "%*s>>\n", indent*4, "")
	case pdfstruct.Stream:
		fmt.Fprintln(in.out, "Stream<<")
		in.dumpDict(obj.Dict, indent)
		fmt.Fprintf(in.out, "%*s>>\n", indent*4, "")
		// Decompress rewrites the dictionary, which belongs to the document.
		obj.Dict = maps.Clone(obj.Dict)
		if err := obj.Decompress(0); err != nil {
			fmt.Fprintf(in.out, "%*s(cannot decode: %s)\n", indent*4, "", err)
		}
		spew.Fdump(in.out, obj.Data)
	case pdfstruct.Reference:
		fmt.Fprintf(in.out, "(#%d,%d)\n", obj.Number, obj.Generation)
	default:
		panic("unknown object type")
	}
}

// dumpText prints a string object, followed by its decoded text when that
// differs from the raw form.
func (in *inspector) dumpText(raw string, obj pdfstruct.Object) {
	text, _ := pdftext.FromObject(obj)
	if q := strconv.Quote(text); q != raw {
		fmt.Fprintf(in.out, "%s  (text %s)\n", raw, q)
		return
	}
	fmt.Fprintln(in.out, raw)
}

func (in *inspector) dumpDict(d pdfstruct.Dict, indent int) {
	for _, key := range slices.Sorted(maps.Keys(d)) {
		in.dump(d[key], fmt.Sprintf("%*s/%s", indent*4+4, "", string(key)), indent+1)
	}
}
