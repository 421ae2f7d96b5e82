package pdftree

import (
	"maps"
	"slices"

	"github.com/rothskeller/pdfpages/pdfstruct"
)

// InheritableKeys are the page attributes a page may take from an ancestor
// node of the page tree.
var InheritableKeys = []pdfstruct.Name{"Resources", "MediaBox", "CropBox", "Rotate"}

// Inherited returns the inheritable attributes that the page lacks itself but
// gets from its ancestors.  The values are returned as stored in the nearest
// ancestor that has them; they may contain references.
func Inherited(doc *pdfstruct.Document, page pdfstruct.Reference) pdfstruct.Dict {
	var (
		found = make(pdfstruct.Dict)
		seen  = map[pdfstruct.Reference]bool{page: true}
	)
	pd, err := doc.GetDict(page)
	if err != nil {
		return found
	}
	parent, ok := pd["Parent"].(pdfstruct.Reference)
	for ok && !seen[parent] {
		seen[parent] = true
		node, err := doc.GetDict(parent)
		if err != nil {
			break
		}
		for _, key := range InheritableKeys {
			if _, has := pd[key]; has {
				continue
			}
			if _, has := found[key]; has {
				continue
			}
			if val, has := node[key]; has {
				found[key] = val
			}
		}
		parent, ok = node["Parent"].(pdfstruct.Reference)
	}
	return found
}

// References returns the references found in the inheritable attributes of d,
// including those nested in direct arrays and dictionaries, in a stable order.
// Orchestrators use it to add the objects named by inherited attributes to
// the roots of a copy.
func References(d pdfstruct.Dict) (refs []pdfstruct.Reference) {
	var add func(pdfstruct.Object)
	add = func(obj pdfstruct.Object) {
		switch obj := obj.(type) {
		case pdfstruct.Reference:
			refs = append(refs, obj)
		case pdfstruct.Array:
			for _, o := range obj {
				add(o)
			}
		case pdfstruct.Dict:
			for _, key := range slices.Sorted(maps.Keys(obj)) {
				add(obj[key])
			}
		}
	}
	for _, key := range InheritableKeys {
		if val, ok := d[key]; ok {
			add(val)
		}
	}
	return refs
}
