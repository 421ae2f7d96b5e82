package pdftree

import (
	"github.com/rothskeller/pdfpages/pdfgraph"
	"github.com/rothskeller/pdfpages/pdfstruct"
)

// Assemble builds a single-level page tree over pages, in the order given,
// and a catalog that refers to it, and makes that catalog the document root.
// A page may appear more than once.  The pages' /Parent entries are not
// touched; see Adopt.
func Assemble(dst *pdfstruct.Document, pages []pdfstruct.Reference) (tree, catalog pdfstruct.Reference) {
	var kids = make(pdfstruct.Array, len(pages))

	for i, p := range pages {
		kids[i] = p
	}
	tree = dst.Add(pdfstruct.Dict{
		"Type":  pdfstruct.Name("Pages"),
		"Kids":  kids,
		"Count": len(pages),
	})
	catalog = dst.Add(pdfstruct.Dict{
		"Type":  pdfstruct.Name("Catalog"),
		"Pages": tree,
	})
	dst.Trailer["Root"] = catalog
	return tree, catalog
}

// Adopt returns a patch for pdfgraph.Rewrite that attaches copied pages to a
// new parent node.  pages lists the source references of the pages being
// attached; each gets /Parent set to tree and receives, as its own entries,
// the attributes it used to inherit (given by inherited, keyed by source
// reference).  Any other page that was copied along, typically as the target
// of a link, is not part of the new tree and loses its /Parent.
//
// The reference to tree can be allocated before the node itself is stored.
func Adopt(tree pdfstruct.Reference, m *pdfgraph.Mapping, pages []pdfstruct.Reference, inherited map[pdfstruct.Reference]pdfstruct.Dict) pdfgraph.PatchFunc {
	var adopt = make(map[pdfstruct.Reference]bool, len(pages))

	for _, p := range pages {
		adopt[p] = true
	}
	return func(old pdfstruct.Reference, obj pdfstruct.Object) pdfstruct.Object {
		page, ok := obj.(pdfstruct.Dict)
		if !ok || pdfstruct.TypeOf(page) != "Page" {
			return obj
		}
		if !adopt[old] {
			delete(page, "Parent")
			return page
		}
		page["Parent"] = tree
		for key, val := range inherited[old] {
			if _, ok := page[key]; !ok {
				page[key] = pdfgraph.RewriteObject(pdfgraph.Clone(val), m)
			}
		}
		return page
	}
}
