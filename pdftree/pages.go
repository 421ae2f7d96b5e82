// Package pdftree reads and edits the page tree of a PDF document: it finds
// the pages, builds new trees over copied pages, and makes structural edits
// (appending, removing, rotating) to an existing tree.
package pdftree

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rothskeller/pdfpages/pdfstruct"
)

// A slot is one occurrence of a page in the tree: the page, the node whose
// Kids array lists it, and its index in that array.
type slot struct {
	page   pdfstruct.Reference
	parent pdfstruct.Reference
	index  int
}

// Root returns the reference to the root node of the page tree.
func Root(doc *pdfstruct.Document) (pdfstruct.Reference, error) {
	_, catalog, err := doc.Catalog()
	if err != nil {
		return pdfstruct.Reference{}, err
	}
	root, ok := catalog["Pages"].(pdfstruct.Reference)
	if !ok {
		return pdfstruct.Reference{}, errors.New("catalog /Pages is not a Reference")
	}
	return root, nil
}

// Pages returns the pages of the document in page order.  Page number n is
// at index n-1.
func Pages(doc *pdfstruct.Document) (pages []pdfstruct.Reference, err error) {
	var slots []slot

	if slots, err = walk(doc); err != nil {
		return nil, err
	}
	pages = make([]pdfstruct.Reference, len(slots))
	for i, s := range slots {
		pages[i] = s.page
	}
	return pages, nil
}

// walk enumerates the page leaves depth first.  An intermediate node that is
// reached a second time would make the tree cyclic; it is skipped with a
// warning.  Leaves may legitimately appear more than once.
func walk(doc *pdfstruct.Document) (slots []slot, err error) {
	var (
		root  pdfstruct.Reference
		nodes = make(map[pdfstruct.Reference]bool)
		visit func(ref pdfstruct.Reference) error
	)
	if root, err = Root(doc); err != nil {
		return nil, err
	}
	visit = func(ref pdfstruct.Reference) error {
		node, err := doc.GetDict(ref)
		if err != nil {
			return fmt.Errorf("page tree node: %w", err)
		}
		nodes[ref] = true
		kids, err := Kids(doc, node)
		if err != nil {
			return fmt.Errorf("page tree node %s: %s", ref, err)
		}
		for i, kid := range kids {
			kref, ok := kid.(pdfstruct.Reference)
			if !ok {
				slog.Warn("skipping direct object in page tree", "node", ref, "index", i)
				continue
			}
			kd, err := doc.GetDict(kref)
			if err != nil {
				slog.Warn("skipping unusable page tree entry", "node", ref, "index", i, "err", err)
				continue
			}
			if isLeaf(kd) {
				slots = append(slots, slot{page: kref, parent: ref, index: i})
				continue
			}
			if nodes[kref] {
				slog.Warn("skipping cycle in page tree", "node", kref)
				continue
			}
			if err = visit(kref); err != nil {
				return err
			}
		}
		return nil
	}
	if err = visit(root); err != nil {
		return nil, err
	}
	return slots, nil
}

// isLeaf reports whether a page tree entry is a page rather than an
// intermediate node.  Some writers omit /Type; an entry with /Kids is then
// taken to be a node.
func isLeaf(d pdfstruct.Dict) bool {
	switch pdfstruct.TypeOf(d) {
	case "Page":
		return true
	case "Pages":
		return false
	}
	_, ok := d["Kids"]
	return !ok
}

// Kids returns the Kids array of a page tree node, which may be stored
// directly in the node or as an indirect object.
func Kids(doc *pdfstruct.Document, node pdfstruct.Dict) (kids pdfstruct.Array, err error) {
	switch k := node["Kids"].(type) {
	case pdfstruct.Array:
		return k, nil
	case pdfstruct.Reference:
		return doc.GetArray(k)
	case nil:
		return nil, nil
	default:
		return nil, errors.New("/Kids is not an Array")
	}
}

// setKids stores a replacement Kids array wherever the node keeps its current
// one.
func setKids(doc *pdfstruct.Document, ref pdfstruct.Reference, node pdfstruct.Dict, kids pdfstruct.Array) {
	if kref, ok := node["Kids"].(pdfstruct.Reference); ok {
		doc.Set(kref, kids)
		return
	}
	node["Kids"] = kids
	doc.Set(ref, node)
}
