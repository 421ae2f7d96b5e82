package pdftree

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/rothskeller/pdfpages/pdfstruct"
)

// Append adds pages to the end of the Kids array of the tree node and
// recomputes its /Count.
func Append(doc *pdfstruct.Document, tree pdfstruct.Reference, pages []pdfstruct.Reference) error {
	node, err := doc.GetDict(tree)
	if err != nil {
		return fmt.Errorf("page tree root: %w", err)
	}
	kids, err := Kids(doc, node)
	if err != nil {
		return fmt.Errorf("page tree root: %s", err)
	}
	kids = slices.Clip(kids)
	for _, p := range pages {
		kids = append(kids, p)
	}
	setKids(doc, tree, node, kids)
	_, err = Recount(doc, tree)
	return err
}

// Recount sets /Count on the tree node and every node below it to the number
// of page leaves it contains, and returns the count for the node.  Like
// Pages, it visits an intermediate node only once, so the counts agree with
// the page list even in a tree that shares nodes.
func Recount(doc *pdfstruct.Document, tree pdfstruct.Reference) (int, error) {
	var (
		nodes  = make(map[pdfstruct.Reference]bool)
		count  func(ref pdfstruct.Reference) (int, error)
	)
	count = func(ref pdfstruct.Reference) (n int, err error) {
		node, err := doc.GetDict(ref)
		if err != nil {
			return 0, fmt.Errorf("page tree node: %w", err)
		}
		nodes[ref] = true
		kids, err := Kids(doc, node)
		if err != nil {
			return 0, fmt.Errorf("page tree node %s: %s", ref, err)
		}
		for _, kid := range kids {
			kref, ok := kid.(pdfstruct.Reference)
			if !ok {
				continue
			}
			kd, err := doc.GetDict(kref)
			if err != nil {
				continue
			}
			if isLeaf(kd) {
				n++
				continue
			}
			if nodes[kref] {
				slog.Warn("skipping repeated node in page tree", "node", kref)
				continue
			}
			sub, err := count(kref)
			if err != nil {
				return 0, err
			}
			n += sub
		}
		node["Count"] = n
		doc.Set(ref, node)
		return n, nil
	}
	return count(tree)
}

// Remove deletes the pages with the specified 1-based numbers from the page
// tree and fixes /Count in every node above them.  The page objects stay in
// the document; pdfgraph.Prune purges them once nothing refers to them.
func Remove(doc *pdfstruct.Document, numbers []int) error {
	slots, err := walk(doc)
	if err != nil {
		return err
	}
	var drop = make(map[pdfstruct.Reference][]int)
	for _, num := range numbers {
		if num < 1 || num > len(slots) {
			return fmt.Errorf("page %d is out of range 1-%d", num, len(slots))
		}
		s := slots[num-1]
		if !slices.Contains(drop[s.parent], s.index) {
			drop[s.parent] = append(drop[s.parent], s.index)
		}
	}
	for parent, indexes := range drop {
		node, err := doc.GetDict(parent)
		if err != nil {
			return err
		}
		kids, err := Kids(doc, node)
		if err != nil {
			return err
		}
		var keep = make(pdfstruct.Array, 0, len(kids))
		for i, kid := range kids {
			if !slices.Contains(indexes, i) {
				keep = append(keep, kid)
			}
		}
		setKids(doc, parent, node, keep)
	}
	root, err := Root(doc)
	if err != nil {
		return err
	}
	_, err = Recount(doc, root)
	return err
}

// ValidAngle reports whether angle is an allowed rotation: a multiple of 90
// degrees no larger than 270 in magnitude.
func ValidAngle(angle int) bool {
	return angle%90 == 0 && angle >= -270 && angle <= 270
}

// Rotate turns the page by angle degrees clockwise, on top of whatever
// rotation it already has, its own or inherited.  The stored value is always
// in the range 0 to 359.
func Rotate(doc *pdfstruct.Document, page pdfstruct.Reference, angle int) error {
	pd, err := doc.GetDict(page)
	if err != nil {
		return fmt.Errorf("page: %w", err)
	}
	rotate, ok := pd["Rotate"]
	if !ok {
		rotate = Inherited(doc, page)["Rotate"]
	}
	var current int
	switch r := doc.Resolve(rotate).(type) {
	case int:
		current = r
	case float64:
		current = int(r)
	}
	pd["Rotate"] = ((current+angle)%360 + 360) % 360
	doc.Set(page, pd)
	return nil
}
