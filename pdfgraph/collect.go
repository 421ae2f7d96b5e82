// Package pdfgraph copies subgraphs of PDF objects from one document into
// another.  A copy happens in three passes: Collect finds the closure of the
// objects reachable from a set of roots, Transplant deep-copies that closure
// into the target under new object numbers, and Rewrite points the references
// inside the copies at the new numbers.  Copy runs all three.
package pdfgraph

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/rothskeller/pdfpages/pdfstruct"
)

// LimitFactor bounds the work done by Collect.  A traversal may dequeue at
// most LimitFactor times as many references as the source document has
// objects (plus roots).
const LimitFactor = 2

// ErrLimitExceeded is returned when a traversal exceeds its work limit.
var ErrLimitExceeded = errors.New("object graph traversal limit exceeded")

// ErrGraphIntegrity is returned (wrapped) when a copy would leave the target
// document internally inconsistent.
var ErrGraphIntegrity = errors.New("object graph integrity violated")

// Collect returns the references of every object in src reachable from roots,
// roots first, in breadth-first order.  References inside arrays, dictionaries
// and stream dictionaries are followed; stream data is not examined.
//
// The /Parent entry of page and page tree node dictionaries is not followed.
// It points back up the page tree, and following it would pull every page of
// the source into the closure of any one of them.
//
// References to objects that are not in src are dropped from the result with
// a warning.
func Collect(src *pdfstruct.Document, roots []pdfstruct.Reference) ([]pdfstruct.Reference, error) {
	limit := (len(src.Objects) + len(roots)) * LimitFactor
	ids, err := closure(src, roots, limit, true)
	if err != nil {
		return nil, err
	}
	slog.Debug("collected closure", "roots", len(roots), "objects", len(ids))
	return ids, nil
}

// closure walks the graph from roots.  A limit of zero means unlimited.
func closure(doc *pdfstruct.Document, roots []pdfstruct.Reference, limit int, skipParents bool) (ids []pdfstruct.Reference, err error) {
	var (
		queue   = make([]pdfstruct.Reference, 0, len(roots))
		seen    = make(map[pdfstruct.Reference]bool, len(roots))
		dequeue int
	)
	for _, r := range roots {
		if !seen[r] {
			seen[r] = true
			queue = append(queue, r)
		}
	}
	for len(queue) != 0 {
		ref := queue[0]
		queue = queue[1:]
		if dequeue++; limit > 0 && dequeue > limit {
			return nil, fmt.Errorf("%w: more than %d references visited", ErrLimitExceeded, limit)
		}
		obj, ok := doc.Objects[ref]
		if !ok {
			slog.Warn("dropping reference to missing object", "ref", ref)
			continue
		}
		ids = append(ids, ref)
		references(obj, skipParents, func(r pdfstruct.Reference) {
			if !seen[r] {
				seen[r] = true
				queue = append(queue, r)
			}
		})
	}
	return ids, nil
}

// References returns the references contained in obj, including those in
// nested arrays and dictionaries, in a stable order.  It is how a caller
// turns a direct object it will copy by hand into roots for Collect.
func References(obj pdfstruct.Object) (refs []pdfstruct.Reference) {
	references(obj, false, func(r pdfstruct.Reference) { refs = append(refs, r) })
	return refs
}

// references calls fn for every reference contained in obj, in a stable
// order.  Stream data is opaque and is never scanned.
func references(obj pdfstruct.Object, skipParents bool, fn func(pdfstruct.Reference)) {
	switch obj := obj.(type) {
	case pdfstruct.Reference:
		fn(obj)
	case pdfstruct.Array:
		for _, o := range obj {
			references(o, skipParents, fn)
		}
	case pdfstruct.Dict:
		skip := skipParents && isTreeNode(obj)
		for _, key := range sortedKeys(obj) {
			if skip && key == "Parent" {
				continue
			}
			references(obj[key], skipParents, fn)
		}
	case pdfstruct.Stream:
		references(obj.Dict, skipParents, fn)
	}
}

func isTreeNode(d pdfstruct.Dict) bool {
	ty := pdfstruct.TypeOf(d)
	return ty == "Page" || ty == "Pages"
}

func sortedKeys(d pdfstruct.Dict) []pdfstruct.Name {
	keys := make([]pdfstruct.Name, 0, len(d))
	for key := range d {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
