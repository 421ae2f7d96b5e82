package pdfstruct

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// sampleDocument builds a two-page document exercising every object type.
func sampleDocument() *Document {
	doc := NewDocument("1.5")
	pagesRef := doc.NewReference()
	font := doc.Add(Dict{"Type": Name("Font"), "Subtype": Name("Type1"), "BaseFont": Name("Helvetica")})
	res := doc.Add(Dict{"Font": Dict{"F1": font}, "ProcSet": Array{Name("PDF"), Name("Text")}})
	var kids Array
	for i := 0; i < 2; i++ {
		content := doc.Add(Stream{Dict: Dict{}, Data: []byte("BT /F1 12 Tf 100 700 Td (Hello) Tj ET\n")})
		page := doc.Add(Dict{
			"Type":      Name("Page"),
			"Parent":    pagesRef,
			"MediaBox":  Array{0, 0, 612, 792},
			"Contents":  content,
			"Resources": res,
		})
		kids = append(kids, page)
	}
	doc.Set(pagesRef, Dict{"Type": Name("Pages"), "Kids": kids, "Count": 2})
	info := doc.Add(Dict{
		"Title":   "Nested (parens) and \\ backslash",
		"Author":  []byte{0xfe, 0xff, 0x00, 0x41},
		"Ratio":   0.25,
		"Flag":    true,
		"Nothing": nil,
		"Odd":     Name("A B#C"),
	})
	doc.Trailer["Root"] = doc.Add(Dict{"Type": Name("Catalog"), "Pages": pagesRef})
	doc.Trailer["Info"] = info
	return doc
}

func TestWriteReadRoundTrip(t *testing.T) {
	doc := sampleDocument()
	var buf bytes.Buffer
	if err := Write(doc, &buf); err != nil {
		t.Fatalf("Write: %s", err)
	}
	got, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read: %s", err)
	}
	if got.Version != "1.5" {
		t.Errorf("Version = %q, want 1.5", got.Version)
	}
	// Streams come back with their /Length.
	for ref, obj := range doc.Objects {
		if s, ok := obj.(Stream); ok {
			s.Dict["Length"] = len(s.Data)
			doc.Objects[ref] = s
		}
	}
	if diff := cmp.Diff(doc.Objects, got.Objects, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("objects differ (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(doc.Trailer, got.Trailer); diff != "" {
		t.Errorf("trailer differs (-want +got):\n%s", diff)
	}
	if got.MaxID != doc.MaxID {
		t.Errorf("MaxID = %d, want %d", got.MaxID, doc.MaxID)
	}
	if err := got.Check(); err != nil {
		t.Errorf("Check: %s", err)
	}
}

func TestWriteIsDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	if err := Write(sampleDocument(), &a); err != nil {
		t.Fatal(err)
	}
	if err := Write(sampleDocument(), &b); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("two writes of the same document differ")
	}
}

func TestWriteRejectsGenerationClash(t *testing.T) {
	doc := sampleDocument()
	doc.Set(Reference{Number: 1, Generation: 3}, 42)
	if err := Write(doc, &bytes.Buffer{}); err == nil {
		t.Error("Write accepted two generations of one object number")
	}
}

func TestWriteFreeList(t *testing.T) {
	doc := sampleDocument()
	delete(doc.Objects, Reference{Number: 2})
	var buf bytes.Buffer
	if err := Write(doc, &buf); err != nil {
		t.Fatal(err)
	}
	got, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read: %s", err)
	}
	if got.Has(Reference{Number: 2}) {
		t.Error("deleted object came back")
	}
	if len(got.Objects) != len(doc.Objects) {
		t.Errorf("read %d objects, want %d", len(got.Objects), len(doc.Objects))
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pdf")
	if err := Save(sampleDocument(), path); err != nil {
		t.Fatalf("Save: %s", err)
	}
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if _, _, err := doc.Catalog(); err != nil {
		t.Errorf("Catalog: %s", err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the saved file", len(entries))
	}
}

func TestSaveFailureKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pdf")
	if err := os.WriteFile(path, []byte("previous"), 0o666); err != nil {
		t.Fatal(err)
	}
	doc := sampleDocument()
	doc.Set(Reference{Number: 3}, make(chan int))
	if err := Save(doc, path); err == nil {
		t.Fatal("Save accepted an unsupported object")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "previous" {
		t.Errorf("existing file was overwritten with %q", data)
	}
}

func TestReadNotPDF(t *testing.T) {
	_, err := Read(strings.NewReader("This is text.\n"))
	if err == nil || !strings.Contains(err.Error(), "not a PDF file") {
		t.Errorf("got error %v, want not a PDF file", err)
	}
}

func TestReadEncrypted(t *testing.T) {
	doc := sampleDocument()
	doc.Trailer["Encrypt"] = Dict{"Filter": Name("Standard")}
	var buf bytes.Buffer
	// Write drops unknown trailer keys, so splice /Encrypt in by hand.
	if err := Write(doc, &buf); err != nil {
		t.Fatal(err)
	}
	data := bytes.Replace(buf.Bytes(), []byte("trailer\n<<"), []byte("trailer\n<</Encrypt 1 0 R "), 1)
	if _, err := Read(bytes.NewReader(data)); !errors.Is(err, ErrEncrypted) {
		t.Errorf("got error %v, want ErrEncrypted", err)
	}
}

func TestReadObjectFrom(t *testing.T) {
	tests := []struct {
		in   string
		want Object
	}{
		{"null ", nil},
		{"true]", true},
		{"false", false},
		{"-17 ", -17},
		{"3.25 ", 3.25},
		{"12 0 R ", Reference{12, 0}},
		{"/Name#20X ", Name("Name X")},
		{"(a\\(b\\)c\\n) ", "a(b)c\n"},
		{"(\\101\\102) ", "AB"},
		{"<48 65 6c6C 6>", []byte("Hell`")},
		{"[1 2 0 R /X] ", Array{1, Reference{2, 0}, Name("X")}},
		{"<< /A 1 /B << /C (x) >> >> ", Dict{"A": 1, "B": Dict{"C": "x"}}},
		{"5", 5},
		{"/End", Name("End")},
	}
	for _, test := range tests {
		got, _, err := readObjectFrom([]byte(test.in))
		if err != nil {
			t.Errorf("%q: %s", test.in, err)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("%q (-want +got):\n%s", test.in, diff)
		}
	}
}

func TestStreamWithWrongLength(t *testing.T) {
	in := "7 0 obj\n<< /Length 99999 >>\nstream\nabc def\nendstream\nendobj\n"
	got, _, err := readObjectFrom([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	s, ok := got.(Stream)
	if !ok {
		t.Fatalf("got %T, want Stream", got)
	}
	if string(s.Data) != "abc def" {
		t.Errorf("Data = %q, want %q", s.Data, "abc def")
	}
}

func TestStreamWithIndirectLength(t *testing.T) {
	in := "7 0 obj\n<< /Length 8 0 R >>\nstream\r\nxyz\r\nendstream\nendobj\n"
	got, _, err := readObjectFrom([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	if s := got.(Stream); string(s.Data) != "xyz" {
		t.Errorf("Data = %q, want %q", s.Data, "xyz")
	}
}

func TestObjectStream(t *testing.T) {
	s := Stream{
		Dict: Dict{"Type": Name("ObjStm"), "N": 2, "First": 9},
		Data: []byte("4 0 5 11 << /A 1 >> [1 2 3]"),
	}
	obj, err := extractObjectFromStream(s, 1)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Array{1, 2, 3}, obj); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestDecompressHex(t *testing.T) {
	s := Stream{Dict: Dict{"Filter": Name("ASCIIHexDecode")}, Data: []byte("68 69 7>")}
	if err := s.Decompress(0); err != nil {
		t.Fatal(err)
	}
	if string(s.Data) != "hip" {
		t.Errorf("Data = %q, want %q", s.Data, "hip")
	}
	if _, ok := s.Dict["Filter"]; ok {
		t.Error("Filter still present after Decompress")
	}
}

func TestDocumentReferences(t *testing.T) {
	doc := NewDocument("")
	if doc.Version != "1.7" {
		t.Errorf("default Version = %q", doc.Version)
	}
	a := doc.NewReference()
	doc.Set(Reference{Number: 10}, 1)
	b := doc.NewReference()
	if a.Number != 1 || b.Number != 11 {
		t.Errorf("allocated %v then %v, want 1 then 11", a, b)
	}
	if _, err := doc.Get(a); !errors.Is(err, ErrMissingObject) {
		t.Errorf("Get of unset reference: %v", err)
	}
	if doc.Resolve(Reference{Number: 10}) != 1 {
		t.Error("Resolve did not follow the reference")
	}
	doc.MaxID = 0
	doc.Recount()
	if doc.MaxID != 10 {
		t.Errorf("Recount gave MaxID %d, want 10", doc.MaxID)
	}
}

func TestUnpredictPNG(t *testing.T) {
	in := []byte{
		2, 1, 1, // up, from an all-zero row
		1, 5, 1, // sub
		2, 1, 1, // up
		3, 2, 2, // average
		4, 1, 1, // paeth
	}
	got, err := unpredictPNG(in, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 1, 5, 6, 6, 7, 5, 8, 6, 9}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if _, err := unpredictPNG(in[:14], 2, 1); err == nil {
		t.Error("accepted a partial row")
	}
}

func TestReadSloppyXRefTable(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(sampleDocument(), &buf); err != nil {
		t.Fatal(err)
	}
	// Entries are meant to be 20 bytes each; shorten them to 19.
	data := bytes.ReplaceAll(buf.Bytes(), []byte(" n\r\n"), []byte(" n\n"))
	data = bytes.ReplaceAll(data, []byte(" f\r\n"), []byte(" f\n"))
	doc, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read: %s", err)
	}
	if len(doc.Objects) != len(sampleDocument().Objects) {
		t.Errorf("read %d objects, want %d", len(doc.Objects), len(sampleDocument().Objects))
	}
}

// handBuiltFile lays out the objects (numbered from 1) with a classic xref
// table, as a writer would, whatever their contents.
func handBuiltFile(objects ...string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f\r\n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n\r\n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestReadDeepNesting(t *testing.T) {
	const depth = 5_000_000
	deep := "<< /X " + strings.Repeat("[", depth) + strings.Repeat("]", depth) + " >>"
	if _, _, err := readObjectFrom([]byte(deep)); err == nil || !strings.Contains(err.Error(), "nested too deeply") {
		t.Errorf("got error %v, want nested too deeply", err)
	}
	data := handBuiltFile(
		"<< /Type /Catalog /Pages 3 0 R >>",
		deep,
		"<< /Type /Pages /Kids [] /Count 0 >>",
	)
	doc, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read: %s", err)
	}
	if doc.Has(Reference{Number: 2}) {
		t.Error("deeply nested object was read")
	}
	if !doc.Has(Reference{Number: 1}) || !doc.Has(Reference{Number: 3}) {
		t.Error("well-formed objects were lost")
	}
	// Nesting up to the limit is fine.
	ok := strings.Repeat("[", maxNesting-1) + strings.Repeat("]", maxNesting-1)
	if _, _, err := readObjectFrom([]byte(ok)); err != nil {
		t.Errorf("nesting %d: %s", maxNesting-1, err)
	}
}
