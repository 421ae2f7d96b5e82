package pdfops

import (
	"fmt"

	"github.com/rothskeller/pdfpages/pdfgraph"
	"github.com/rothskeller/pdfpages/pdfstruct"
	"github.com/rothskeller/pdfpages/pdftree"
)

// transplantPages copies pages, together with everything they refer to and
// the attributes they inherit, from src into dst.  extra names more objects
// to copy along.  Once everything is copied, attach is called to get the tree
// node the pages are to hang from; their references are then rewritten and
// their /Parent set to that node.
func transplantPages(
	src, dst *pdfstruct.Document, pages, extra []pdfstruct.Reference, alloc pdfgraph.Allocator,
	attach func(m *pdfgraph.Mapping) (pdfstruct.Reference, error),
) (m *pdfgraph.Mapping, err error) {
	var (
		roots     = append([]pdfstruct.Reference{}, pages...)
		inherited = make(map[pdfstruct.Reference]pdfstruct.Dict, len(pages))
		ids       []pdfstruct.Reference
		tree      pdfstruct.Reference
	)
	for _, p := range pages {
		inherited[p] = pdftree.Inherited(src, p)
		roots = append(roots, pdftree.References(inherited[p])...)
	}
	roots = append(roots, extra...)
	if ids, err = pdfgraph.Collect(src, roots); err != nil {
		return nil, err
	}
	if m, err = pdfgraph.Transplant(src, dst, ids, alloc); err != nil {
		return nil, err
	}
	for _, p := range pages {
		if _, ok := m.Lookup(p); !ok {
			return nil, fmt.Errorf("%w: page object %s was not copied", pdfgraph.ErrGraphIntegrity, p)
		}
	}
	if tree, err = attach(m); err != nil {
		return nil, err
	}
	if err = pdfgraph.Rewrite(dst, m, pdftree.Adopt(tree, m, pages, inherited)); err != nil {
		return nil, err
	}
	return m, nil
}

// mapped returns the target references of refs.  Every one of them must be in
// the mapping.
func mapped(m *pdfgraph.Mapping, refs []pdfstruct.Reference) []pdfstruct.Reference {
	out := make([]pdfstruct.Reference, len(refs))
	for i, r := range refs {
		out[i], _ = m.Lookup(r)
	}
	return out
}
