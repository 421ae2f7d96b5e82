package pdfstruct

import (
	"errors"
	"fmt"
)

// A Document is a complete PDF object graph held in memory.  It is the sole
// owner of every Object in it; References are logical links to be looked up
// in Objects, never pointers into another Document.
type Document struct {
	// Version is the header version, such as "1.7".
	Version string
	// Objects holds every indirect object of the document.
	Objects map[Reference]Object
	// Trailer is the trailer dictionary.  Its /Root entry is a Reference to
	// the document catalog.
	Trailer Dict
	// MaxID is the largest object number allocated so far.  It is never
	// less than the largest object number in Objects.
	MaxID int
}

// NewDocument returns an empty document with the specified header version.
func NewDocument(version string) *Document {
	if version == "" {
		version = "1.7"
	}
	return &Document{
		Version: version,
		Objects: make(map[Reference]Object),
		Trailer: make(Dict),
	}
}

// NewReference allocates a fresh object number.  Nothing is stored under it
// until Set is called.
func (d *Document) NewReference() Reference {
	d.MaxID++
	return Reference{Number: d.MaxID}
}

// Add stores obj under a freshly allocated reference and returns it.
func (d *Document) Add(obj Object) Reference {
	ref := d.NewReference()
	d.Objects[ref] = obj
	return ref
}

// Set stores obj under ref, replacing whatever was there.
func (d *Document) Set(ref Reference, obj Object) {
	if ref.Number > d.MaxID {
		d.MaxID = ref.Number
	}
	d.Objects[ref] = obj
}

// Has returns whether an object is stored under ref.
func (d *Document) Has(ref Reference) bool {
	_, ok := d.Objects[ref]
	return ok
}

// Get returns the object specified by the reference.
func (d *Document) Get(ref Reference) (obj Object, err error) {
	var ok bool
	if obj, ok = d.Objects[ref]; !ok {
		return nil, fmt.Errorf("%s: %w", ref, ErrMissingObject)
	}
	return obj, nil
}

// GetArray gets the array object specified by the reference.
func (d *Document) GetArray(r Reference) (Array, error) { return getAs[Array](d, r) }

// GetDict gets the dict object specified by the reference.
func (d *Document) GetDict(r Reference) (Dict, error) { return getAs[Dict](d, r) }

// GetStream gets the stream object specified by the reference.
func (d *Document) GetStream(r Reference) (Stream, error) { return getAs[Stream](d, r) }

func getAs[T Array | Dict | Stream](d *Document, r Reference) (v T, err error) {
	obj, err := d.Get(r)
	if err != nil {
		return v, err
	}
	if v, ok := obj.(T); ok {
		return v, nil
	}
	return v, fmt.Errorf("%s is %s, not %s", r, typeName(obj), typeName(v))
}

// Resolve returns obj, or, if obj is a Reference, the object it refers to.
// A reference that does not resolve yields null, as the PDF specification
// prescribes for references to nonexistent objects.
func (d *Document) Resolve(obj Object) Object {
	if ref, ok := obj.(Reference); ok {
		return d.Objects[ref]
	}
	return obj
}

// Catalog returns the document catalog and its reference.
func (d *Document) Catalog() (ref Reference, catalog Dict, err error) {
	var ok bool
	if ref, ok = d.Trailer["Root"].(Reference); !ok {
		return Reference{}, nil, fmt.Errorf("document Root is %s, not Reference", typeName(d.Trailer["Root"]))
	}
	if catalog, err = d.GetDict(ref); err != nil {
		return Reference{}, nil, fmt.Errorf("reading document catalog: %w", err)
	}
	return ref, catalog, nil
}

// Recount sets MaxID to the largest object number in Objects.
func (d *Document) Recount() {
	d.MaxID = 0
	for ref := range d.Objects {
		if ref.Number > d.MaxID {
			d.MaxID = ref.Number
		}
	}
}

// Check verifies the structural invariants that every saved document must
// satisfy: the trailer refers to a catalog, the catalog refers to a page tree
// node, and MaxID covers every object.
func (d *Document) Check() error {
	_, catalog, err := d.Catalog()
	if err != nil {
		return err
	}
	if TypeOf(catalog) != "Catalog" {
		return errors.New("document catalog does not have /Type /Catalog")
	}
	pagesRef, ok := catalog["Pages"].(Reference)
	if !ok {
		return errors.New("catalog /Pages is not a Reference")
	}
	pages, err := d.GetDict(pagesRef)
	if err != nil {
		return fmt.Errorf("catalog /Pages: %w", err)
	}
	if TypeOf(pages) != "Pages" {
		return errors.New("catalog /Pages does not have /Type /Pages")
	}
	for ref := range d.Objects {
		if ref.Number > d.MaxID {
			return fmt.Errorf("object %s is beyond MaxID %d", ref, d.MaxID)
		}
	}
	return nil
}
