package pdfops

import (
	"bytes"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rothskeller/pdfpages/pdfsample"
	"github.com/rothskeller/pdfpages/pdfstruct"
	"github.com/rothskeller/pdfpages/pdftree"
)

// sample writes a gofpdf sample document whose pages read "<label> <n>".
func sample(t *testing.T, dir, label string, pages int) string {
	t.Helper()
	path := filepath.Join(dir, label+".pdf")
	err := pdfsample.Save(path, pdfsample.Options{Pages: pages, Label: label, Title: label + " title", Author: "pdfops"})
	if err != nil {
		t.Fatalf("creating sample: %s", err)
	}
	return path
}

// open loads an output document, checks its structure, and returns it with
// its pages.
func open(t *testing.T, path string) (*pdfstruct.Document, []pdfstruct.Reference) {
	t.Helper()
	doc, err := pdfstruct.Load(path)
	if err != nil {
		t.Fatalf("Load %s: %s", path, err)
	}
	if err = doc.Check(); err != nil {
		t.Errorf("Check: %s", err)
	}
	pages, err := pdftree.Pages(doc)
	if err != nil {
		t.Fatalf("Pages: %s", err)
	}
	root, _ := pdftree.Root(doc)
	if count := doc.Objects[root].(pdfstruct.Dict)["Count"]; count != len(pages) {
		t.Errorf("root Count = %v, document has %d pages", count, len(pages))
	}
	if d := dangling(doc); len(d) != 0 {
		t.Errorf("dangling references: %v", d)
	}
	return doc, pages
}

// dangling returns the references in doc that do not resolve.
func dangling(doc *pdfstruct.Document) (refs []pdfstruct.Reference) {
	var scan func(pdfstruct.Object)
	scan = func(obj pdfstruct.Object) {
		switch obj := obj.(type) {
		case pdfstruct.Reference:
			if !doc.Has(obj) {
				refs = append(refs, obj)
			}
		case pdfstruct.Array:
			for _, o := range obj {
				scan(o)
			}
		case pdfstruct.Dict:
			for _, o := range obj {
				scan(o)
			}
		case pdfstruct.Stream:
			scan(obj.Dict)
		}
	}
	for _, obj := range doc.Objects {
		scan(obj)
	}
	scan(doc.Trailer)
	return refs
}

var labelRE = regexp.MustCompile(`\(([^)]*)\) Tj`)

// labels returns the label drawn on each page.
func labels(t *testing.T, doc *pdfstruct.Document, pages []pdfstruct.Reference) (out []string) {
	t.Helper()
	for _, p := range pages {
		pd, err := doc.GetDict(p)
		if err != nil {
			t.Fatal(err)
		}
		cref, _ := pd["Contents"].(pdfstruct.Reference)
		content, err := doc.GetStream(cref)
		if err != nil {
			t.Fatalf("page %s contents: %s", p, err)
		}
		content.Dict = maps.Clone(content.Dict)
		if err = content.Decompress(0); err != nil {
			t.Fatal(err)
		}
		match := labelRE.FindSubmatch(content.Data)
		if match == nil {
			t.Fatalf("page %s has no label", p)
		}
		out = append(out, string(match[1]))
	}
	return out
}

func parentOf(doc *pdfstruct.Document, page pdfstruct.Reference) pdfstruct.Object {
	return doc.Objects[page].(pdfstruct.Dict)["Parent"]
}

func assertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("%s exists after a failed operation", path)
	}
}

func TestExtractPage(t *testing.T) {
	dir := t.TempDir()
	in := sample(t, dir, "S", 3)
	out := filepath.Join(dir, "new", "sub", "page2.pdf")
	if err := ExtractPage(in, 2, out); err != nil {
		t.Fatalf("ExtractPage: %s", err)
	}
	doc, pages := open(t, out)
	if diff := cmp.Diff([]string{"S 2"}, labels(t, doc, pages)); diff != "" {
		t.Errorf("labels (-want +got):\n%s", diff)
	}
	root, _ := pdftree.Root(doc)
	if parentOf(doc, pages[0]) != root {
		t.Errorf("page Parent = %v, want %v", parentOf(doc, pages[0]), root)
	}
	page := doc.Objects[pages[0]].(pdfstruct.Dict)
	if _, ok := page["MediaBox"]; !ok {
		t.Error("page did not take over its inherited MediaBox")
	}
	if res, ok := doc.Resolve(page["Resources"]).(pdfstruct.Dict); !ok || res["Font"] == nil {
		t.Errorf("page resources = %v", page["Resources"])
	}
	info, err := ReadInfo(out)
	if err != nil {
		t.Fatal(err)
	}
	if info["Title"] != "S title" {
		t.Errorf("Title = %q, want %q", info["Title"], "S title")
	}
}

func TestExtractPageErrors(t *testing.T) {
	dir := t.TempDir()
	in := sample(t, dir, "S", 3)
	text := filepath.Join(dir, "text.pdf")
	if err := os.WriteFile(text, []byte("not a PDF at all\n"), 0o666); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out", "x.pdf")
	tests := []struct {
		name string
		path string
		page int
		want error
	}{
		{"page zero", in, 0, ErrInvalidArgument},
		{"page out of range", in, 4, ErrNotFound},
		{"missing input", filepath.Join(dir, "missing.pdf"), 1, ErrNotFound},
		{"directory input", dir, 1, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ExtractPage(tt.path, tt.page, out); !errors.Is(err, tt.want) {
				t.Errorf("got error %v, want %v", err, tt.want)
			}
			assertNoFile(t, out)
		})
	}
	err := ExtractPage(text, 1, out)
	var de *DecodeError
	if !errors.As(err, &de) || de.Path != text {
		t.Errorf("got error %v, want DecodeError for %s", err, text)
	}
	assertNoFile(t, out)
}

func TestSplitPages(t *testing.T) {
	dir := t.TempDir()
	in := sample(t, dir, "S", 4)
	out := filepath.Join(dir, "split.pdf")
	if err := SplitPages(in, []int{3, 1, 3}, out); err != nil {
		t.Fatalf("SplitPages: %s", err)
	}
	doc, pages := open(t, out)
	if diff := cmp.Diff([]string{"S 3", "S 1", "S 3"}, labels(t, doc, pages)); diff != "" {
		t.Errorf("labels (-want +got):\n%s", diff)
	}
	if pages[0] != pages[2] {
		t.Errorf("repeated page was copied twice: %v and %v", pages[0], pages[2])
	}
	// Only two of the four content streams were copied.
	var streams int
	for _, obj := range doc.Objects {
		if _, ok := obj.(pdfstruct.Stream); ok {
			streams++
		}
	}
	if streams != 2 {
		t.Errorf("output has %d streams, want 2", streams)
	}
}

func TestSplitPagesErrors(t *testing.T) {
	dir := t.TempDir()
	in := sample(t, dir, "S", 2)
	out := filepath.Join(dir, "split.pdf")
	if err := SplitPages(in, nil, out); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty list: got %v", err)
	}
	if err := SplitPages(in, []int{1, 0}, out); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("page zero: got %v", err)
	}
	if err := SplitPages(in, []int{1, 3}, out); !errors.Is(err, ErrNotFound) {
		t.Errorf("page out of range: got %v", err)
	}
	assertNoFile(t, out)
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	a := sample(t, dir, "A", 2)
	b := sample(t, dir, "B", 3)
	out := filepath.Join(dir, "merged.pdf")
	if err := Merge([]string{a, b, a}, out); err != nil {
		t.Fatalf("Merge: %s", err)
	}
	doc, pages := open(t, out)
	want := []string{"A 1", "A 2", "B 1", "B 2", "B 3", "A 1", "A 2"}
	if diff := cmp.Diff(want, labels(t, doc, pages)); diff != "" {
		t.Errorf("labels (-want +got):\n%s", diff)
	}
	root, _ := pdftree.Root(doc)
	for i, p := range pages {
		if parentOf(doc, p) != root {
			t.Errorf("page %d Parent = %v, want %v", i+1, parentOf(doc, p), root)
		}
	}
	if len(unique(pages)) != len(pages) {
		t.Error("pages from the two copies of A share objects")
	}
	info, err := ReadInfo(out)
	if err != nil {
		t.Fatal(err)
	}
	if info["Title"] != "A title" {
		t.Errorf("Title = %q, want the first document's", info["Title"])
	}
}

func TestMergeSingle(t *testing.T) {
	dir := t.TempDir()
	a := sample(t, dir, "A", 2)
	out := filepath.Join(dir, "copy", "a.pdf")
	if err := Merge([]string{a}, out); err != nil {
		t.Fatalf("Merge: %s", err)
	}
	want, _ := os.ReadFile(a)
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(want, got) {
		t.Error("single-file merge is not a byte copy")
	}
}

func TestMergeErrors(t *testing.T) {
	dir := t.TempDir()
	a := sample(t, dir, "A", 2)
	out := filepath.Join(dir, "merged.pdf")
	if err := Merge(nil, out); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("no inputs: got %v", err)
	}
	if err := Merge([]string{a, filepath.Join(dir, "missing.pdf")}, out); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing input: got %v", err)
	}
	assertNoFile(t, out)
}

func TestDeletePages(t *testing.T) {
	dir := t.TempDir()
	in := sample(t, dir, "S", 5)
	out := filepath.Join(dir, "deleted.pdf")
	if err := DeletePages(in, []int{4, 2, 4}, out); err != nil {
		t.Fatalf("DeletePages: %s", err)
	}
	doc, pages := open(t, out)
	if diff := cmp.Diff([]string{"S 1", "S 3", "S 5"}, labels(t, doc, pages)); diff != "" {
		t.Errorf("labels (-want +got):\n%s", diff)
	}
	var streams int
	for _, obj := range doc.Objects {
		if _, ok := obj.(pdfstruct.Stream); ok {
			streams++
		}
	}
	if streams != 3 {
		t.Errorf("output has %d streams, want 3", streams)
	}
}

func TestDeleteAllPages(t *testing.T) {
	dir := t.TempDir()
	in := sample(t, dir, "S", 2)
	out := filepath.Join(dir, "empty.pdf")
	if err := DeletePages(in, []int{1, 2}, out); err != nil {
		t.Fatalf("DeletePages: %s", err)
	}
	if _, pages := open(t, out); len(pages) != 0 {
		t.Errorf("%d pages left", len(pages))
	}
}

func TestDeletePagesErrors(t *testing.T) {
	dir := t.TempDir()
	in := sample(t, dir, "S", 5)
	out := filepath.Join(dir, "deleted.pdf")
	for _, pages := range [][]int{nil, {0}, {1, 6}} {
		if err := DeletePages(in, pages, out); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%v: got %v", pages, err)
		}
	}
	assertNoFile(t, out)
}

func rotation(doc *pdfstruct.Document, page pdfstruct.Reference) pdfstruct.Object {
	pd := doc.Objects[page].(pdfstruct.Dict)
	if r, ok := pd["Rotate"]; ok {
		return r
	}
	return pdftree.Inherited(doc, page)["Rotate"]
}

func TestRotatePages(t *testing.T) {
	dir := t.TempDir()
	in := sample(t, dir, "S", 3)
	once := filepath.Join(dir, "once.pdf")
	twice := filepath.Join(dir, "twice.pdf")
	if err := RotatePages(in, []int{2}, 180, once); err != nil {
		t.Fatal(err)
	}
	if err := RotatePages(in, []int{2, 2}, 90, twice); err != nil {
		t.Fatal(err)
	}
	if err := RotatePages(twice, []int{2}, 90, twice); err != nil {
		t.Fatal(err)
	}
	d1, p1 := open(t, once)
	d2, p2 := open(t, twice)
	if rotation(d1, p1[1]) != 180 || rotation(d2, p2[1]) != 180 {
		t.Errorf("Rotate = %v once and %v twice, want 180", rotation(d1, p1[1]), rotation(d2, p2[1]))
	}
	if r := rotation(d1, p1[0]); r != nil && r != 0 {
		t.Errorf("unlisted page rotated to %v", r)
	}
	all := filepath.Join(dir, "all.pdf")
	if err := RotatePages(in, nil, -90, all); err != nil {
		t.Fatal(err)
	}
	doc, pages := open(t, all)
	for i, p := range pages {
		if r := rotation(doc, p); r != 270 {
			t.Errorf("page %d Rotate = %v, want 270", i+1, r)
		}
	}
}

func TestRotatePagesErrors(t *testing.T) {
	dir := t.TempDir()
	in := sample(t, dir, "S", 3)
	out := filepath.Join(dir, "rotated.pdf")
	if err := RotatePages(in, nil, 45, out); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("angle 45: got %v", err)
	}
	if err := RotatePages(in, []int{0}, 90, out); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("page zero: got %v", err)
	}
	if err := RotatePages(in, []int{9}, 90, out); !errors.Is(err, ErrNotFound) {
		t.Errorf("page out of range: got %v", err)
	}
	assertNoFile(t, out)
}

// nestedDocument writes a document whose pages inherit their resources, media
// box and rotation from an intermediate page tree node, and one of whose
// pages has inline resources.
func nestedDocument(t *testing.T, dir string) string {
	t.Helper()
	ref := func(n int) pdfstruct.Reference { return pdfstruct.Reference{Number: n} }
	content := func(s string) pdfstruct.Stream { return pdfstruct.Stream{Dict: pdfstruct.Dict{}, Data: []byte(s)} }
	doc := pdfstruct.NewDocument("1.6")
	doc.Set(ref(1), pdfstruct.Dict{"Type": pdfstruct.Name("Catalog"), "Pages": ref(2)})
	doc.Set(ref(2), pdfstruct.Dict{"Type": pdfstruct.Name("Pages"), "Kids": pdfstruct.Array{ref(3), ref(6)}, "Count": 3})
	doc.Set(ref(3), pdfstruct.Dict{
		"Type": pdfstruct.Name("Pages"), "Parent": ref(2), "Kids": pdfstruct.Array{ref(4), ref(5)}, "Count": 2,
		"MediaBox": pdfstruct.Array{0, 0, 300, 400}, "Resources": ref(7), "Rotate": 90,
	})
	doc.Set(ref(4), pdfstruct.Dict{"Type": pdfstruct.Name("Page"), "Parent": ref(3), "Contents": ref(8)})
	doc.Set(ref(5), pdfstruct.Dict{"Type": pdfstruct.Name("Page"), "Parent": ref(3), "Contents": ref(9)})
	doc.Set(ref(6), pdfstruct.Dict{
		"Type": pdfstruct.Name("Page"), "Parent": ref(2), "Contents": ref(10),
		"MediaBox":  pdfstruct.Array{0, 0, 612, 792},
		"Resources": pdfstruct.Dict{"Font": pdfstruct.Dict{"F2": ref(12)}},
	})
	doc.Set(ref(7), pdfstruct.Dict{"Font": pdfstruct.Dict{"F1": ref(11)}})
	doc.Set(ref(8), content("BT /F1 9 Tf (N 1) Tj ET"))
	doc.Set(ref(9), content("BT /F1 9 Tf (N 2) Tj ET"))
	doc.Set(ref(10), content("BT /F2 9 Tf (N 3) Tj ET"))
	doc.Set(ref(11), pdfstruct.Dict{"Type": pdfstruct.Name("Font"), "Subtype": pdfstruct.Name("Type1"), "BaseFont": pdfstruct.Name("Times-Roman")})
	doc.Set(ref(12), pdfstruct.Dict{"Type": pdfstruct.Name("Font"), "Subtype": pdfstruct.Name("Type1"), "BaseFont": pdfstruct.Name("Courier")})
	doc.Set(ref(13), pdfstruct.Dict{"Title": "Nested"})
	doc.Trailer["Root"] = ref(1)
	doc.Trailer["Info"] = ref(13)
	path := filepath.Join(dir, "nested.pdf")
	if err := pdfstruct.Save(doc, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func baseFont(t *testing.T, doc *pdfstruct.Document, page pdfstruct.Reference, font pdfstruct.Name) pdfstruct.Object {
	t.Helper()
	pd := doc.Objects[page].(pdfstruct.Dict)
	res, _ := doc.Resolve(pd["Resources"]).(pdfstruct.Dict)
	fonts, _ := doc.Resolve(res["Font"]).(pdfstruct.Dict)
	fd, _ := doc.Resolve(fonts[font]).(pdfstruct.Dict)
	return fd["BaseFont"]
}

func TestSplitInheritedAttributes(t *testing.T) {
	dir := t.TempDir()
	in := nestedDocument(t, dir)
	out := filepath.Join(dir, "out.pdf")
	if err := SplitPages(in, []int{3, 2}, out); err != nil {
		t.Fatalf("SplitPages: %s", err)
	}
	doc, pages := open(t, out)
	if diff := cmp.Diff([]string{"N 3", "N 2"}, labels(t, doc, pages)); diff != "" {
		t.Errorf("labels (-want +got):\n%s", diff)
	}
	second := doc.Objects[pages[1]].(pdfstruct.Dict)
	if diff := cmp.Diff(pdfstruct.Array{0, 0, 300, 400}, second["MediaBox"]); diff != "" {
		t.Errorf("MediaBox (-want +got):\n%s", diff)
	}
	if second["Rotate"] != 90 {
		t.Errorf("Rotate = %v, want 90", second["Rotate"])
	}
	if got := baseFont(t, doc, pages[1], "F1"); got != pdfstruct.Name("Times-Roman") {
		t.Errorf("inherited font = %v", got)
	}
	// Inline resources survive with their references rewritten.
	first := doc.Objects[pages[0]].(pdfstruct.Dict)
	if _, ok := first["Resources"].(pdfstruct.Dict); !ok {
		t.Errorf("inline Resources became %T", first["Resources"])
	}
	if got := baseFont(t, doc, pages[0], "F2"); got != pdfstruct.Name("Courier") {
		t.Errorf("inline font = %v", got)
	}
	if doc.Version != "1.6" {
		t.Errorf("Version = %q, want 1.6", doc.Version)
	}
	info, err := ReadInfo(out)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]string{"Title": "Nested"}, info); diff != "" {
		t.Errorf("info (-want +got):\n%s", diff)
	}
}

func TestExtractDirectInfo(t *testing.T) {
	dir := t.TempDir()
	src, err := pdfstruct.Load(nestedDocument(t, dir))
	if err != nil {
		t.Fatal(err)
	}
	// The information dictionary sits in the trailer itself and refers to
	// an object that no page uses.
	note := src.Add("Kept with the document")
	src.Trailer["Info"] = pdfstruct.Dict{"Title": "Direct", "Subject": note}
	in := filepath.Join(dir, "direct.pdf")
	if err = pdfstruct.Save(src, in); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out.pdf")
	if err = ExtractPage(in, 1, out); err != nil {
		t.Fatalf("ExtractPage: %s", err)
	}
	doc, _ := open(t, out)
	info, ok := doc.Trailer["Info"].(pdfstruct.Dict)
	if !ok {
		t.Fatalf("Info = %T, want Dict", doc.Trailer["Info"])
	}
	if got := doc.Resolve(info["Subject"]); got != "Kept with the document" {
		t.Errorf("Subject resolves to %v", got)
	}
}

func TestMergeNested(t *testing.T) {
	dir := t.TempDir()
	nested := nestedDocument(t, dir)
	plain := sample(t, dir, "P", 1)
	out := filepath.Join(dir, "merged.pdf")
	if err := Merge([]string{plain, nested}, out); err != nil {
		t.Fatalf("Merge: %s", err)
	}
	doc, pages := open(t, out)
	if diff := cmp.Diff([]string{"P 1", "N 1", "N 2", "N 3"}, labels(t, doc, pages)); diff != "" {
		t.Errorf("labels (-want +got):\n%s", diff)
	}
	if r := rotation(doc, pages[1]); r != 90 {
		t.Errorf("merged page Rotate = %v, want 90", r)
	}
	if got := baseFont(t, doc, pages[2], "F1"); got != pdfstruct.Name("Times-Roman") {
		t.Errorf("merged page font = %v", got)
	}
	if doc.Version != "1.6" {
		t.Errorf("Version = %q, want the highest input version 1.6", doc.Version)
	}
}

func TestRotateInherited(t *testing.T) {
	dir := t.TempDir()
	in := nestedDocument(t, dir)
	out := filepath.Join(dir, "out.pdf")
	if err := RotatePages(in, []int{1, 3}, 90, out); err != nil {
		t.Fatal(err)
	}
	doc, pages := open(t, out)
	want := []pdfstruct.Object{180, 90, 90}
	for i, p := range pages {
		if r := rotation(doc, p); r != want[i] {
			t.Errorf("page %d Rotate = %v, want %v", i+1, r, want[i])
		}
	}
}

func TestReadInfoErrors(t *testing.T) {
	if _, err := ReadInfo(filepath.Join(t.TempDir(), "missing.pdf")); !errors.Is(err, ErrNotFound) {
		t.Errorf("got error %v, want ErrNotFound", err)
	}
}
