package pdfgraph

import (
	"fmt"
	"log/slog"

	"github.com/rothskeller/pdfpages/pdfstruct"
)

// A PatchFunc may replace parts of a copied object after its references have
// been rewritten.  old is the object's reference in the source document.  It
// returns the object to store.
type PatchFunc func(old pdfstruct.Reference, obj pdfstruct.Object) pdfstruct.Object

// Rewrite replaces, in every object copied according to m, each reference
// that m maps with its target reference.  References m does not know about
// are left alone.  patch, if not nil, is then applied to each object.
func Rewrite(dst *pdfstruct.Document, m *Mapping, patch PatchFunc) error {
	for _, old := range m.Olds() {
		nr, _ := m.Lookup(old)
		obj, err := dst.Get(nr)
		if err != nil {
			return fmt.Errorf("%w: copy of %s: %s", ErrGraphIntegrity, old, err)
		}
		obj = RewriteObject(obj, m)
		if patch != nil {
			obj = patch(old, obj)
		}
		dst.Set(nr, obj)
	}
	return nil
}

// RewriteObject returns obj with every reference mapped by m replaced.  Arrays
// and dictionaries are modified in place.
func RewriteObject(obj pdfstruct.Object, m *Mapping) pdfstruct.Object {
	switch obj := obj.(type) {
	case pdfstruct.Reference:
		if nr, ok := m.Lookup(obj); ok {
			return nr
		}
		return obj
	case pdfstruct.Array:
		for i, o := range obj {
			obj[i] = RewriteObject(o, m)
		}
		return obj
	case pdfstruct.Dict:
		for key, o := range obj {
			obj[key] = RewriteObject(o, m)
		}
		return obj
	case pdfstruct.Stream:
		RewriteObject(obj.Dict, m)
		return obj
	default:
		return obj
	}
}

// Copy copies the closure of roots from src into dst, allocating references
// with alloc, and rewrites the copies with patch.
func Copy(src, dst *pdfstruct.Document, roots []pdfstruct.Reference, alloc Allocator, patch PatchFunc) (*Mapping, error) {
	ids, err := Collect(src, roots)
	if err != nil {
		return nil, err
	}
	m, err := Transplant(src, dst, ids, alloc)
	if err != nil {
		return nil, err
	}
	if err = Rewrite(dst, m, patch); err != nil {
		return nil, err
	}
	return m, nil
}

// Prune removes every object that cannot be reached from the trailer and
// returns the number removed.  MaxID is left unchanged.
func Prune(doc *pdfstruct.Document) (removed int, err error) {
	var roots []pdfstruct.Reference

	references(doc.Trailer, false, func(r pdfstruct.Reference) { roots = append(roots, r) })
	ids, err := closure(doc, roots, 0, false)
	if err != nil {
		return 0, err
	}
	keep := make(map[pdfstruct.Reference]bool, len(ids))
	for _, r := range ids {
		keep[r] = true
	}
	for ref := range doc.Objects {
		if !keep[ref] {
			delete(doc.Objects, ref)
			removed++
		}
	}
	if removed != 0 {
		slog.Debug("pruned unreachable objects", "count", removed)
	}
	return removed, nil
}
