package pdfgraph

import (
	"fmt"
	"log/slog"

	"github.com/rothskeller/pdfpages/pdfstruct"
)

// An Allocator chooses the reference under which a copied object is stored in
// the target document.
type Allocator interface {
	Allocate(dst *pdfstruct.Document, old pdfstruct.Reference) (pdfstruct.Reference, error)
}

// Fresh allocates the next unused object number of the target document for
// each copied object.  It is the strategy for copying into a new document.
type Fresh struct{}

// Allocate implements Allocator.
func (Fresh) Allocate(dst *pdfstruct.Document, _ pdfstruct.Reference) (pdfstruct.Reference, error) {
	return dst.NewReference(), nil
}

// Offset shifts every object number by Delta and keeps the generation.  With
// Delta set to the target's MaxID before the copy, the copied range cannot
// overlap anything already in the target.
type Offset struct {
	Delta int
}

// Allocate implements Allocator.
func (o Offset) Allocate(dst *pdfstruct.Document, old pdfstruct.Reference) (pdfstruct.Reference, error) {
	nr := pdfstruct.Reference{Number: old.Number + o.Delta, Generation: old.Generation}
	if dst.Has(nr) {
		return pdfstruct.Reference{}, fmt.Errorf("%w: offset %d maps %s onto existing object %s", ErrGraphIntegrity, o.Delta, old, nr)
	}
	return nr, nil
}

// A Mapping records the reference each copied object was given in the target
// document.  It remembers the order in which objects were copied.
type Mapping struct {
	olds []pdfstruct.Reference
	m    map[pdfstruct.Reference]pdfstruct.Reference
}

// NewMapping returns an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{m: make(map[pdfstruct.Reference]pdfstruct.Reference)}
}

// Add records that old was copied to nr.
func (m *Mapping) Add(old, nr pdfstruct.Reference) {
	if _, ok := m.m[old]; !ok {
		m.olds = append(m.olds, old)
	}
	m.m[old] = nr
}

// Lookup returns the target reference for old.
func (m *Mapping) Lookup(old pdfstruct.Reference) (nr pdfstruct.Reference, ok bool) {
	nr, ok = m.m[old]
	return nr, ok
}

// Olds returns the source references in copy order.
func (m *Mapping) Olds() []pdfstruct.Reference { return m.olds }

// Len returns the number of copied objects.
func (m *Mapping) Len() int { return len(m.olds) }

// Transplant deep-copies the objects named by ids from src into dst, storing
// each under a reference chosen by alloc.  References inside the copies still
// use the source numbering until Rewrite is run.  Objects that are not in src
// are skipped with a warning; the caller must check the mapping for any
// object it cannot do without.
func Transplant(src, dst *pdfstruct.Document, ids []pdfstruct.Reference, alloc Allocator) (*Mapping, error) {
	var m = NewMapping()

	for _, old := range ids {
		if _, ok := m.Lookup(old); ok {
			continue
		}
		obj, err := src.Get(old)
		if err != nil {
			slog.Warn("skipping object missing from source", "ref", old)
			continue
		}
		nr, err := alloc.Allocate(dst, old)
		if err != nil {
			return nil, err
		}
		dst.Set(nr, Clone(obj))
		m.Add(old, nr)
	}
	slog.Debug("transplanted objects", "count", m.Len())
	return m, nil
}

// Clone returns a deep copy of obj.  The copy shares no storage with the
// original, including stream data.
func Clone(obj pdfstruct.Object) pdfstruct.Object {
	switch obj := obj.(type) {
	case []byte:
		return append([]byte{}, obj...)
	case pdfstruct.Array:
		na := make(pdfstruct.Array, len(obj))
		for i, o := range obj {
			na[i] = Clone(o)
		}
		return na
	case pdfstruct.Dict:
		return cloneDict(obj)
	case pdfstruct.Stream:
		return pdfstruct.Stream{Dict: cloneDict(obj.Dict), Data: append([]byte{}, obj.Data...)}
	default:
		return obj
	}
}

func cloneDict(d pdfstruct.Dict) pdfstruct.Dict {
	nd := make(pdfstruct.Dict, len(d))
	for key, o := range d {
		nd[key] = Clone(o)
	}
	return nd
}
