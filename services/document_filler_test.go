package services

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testTemplateDir = "../templates"

func newTestFiller(t *testing.T, opts FillOptions) *DocumentFiller {
	t.Helper()
	if opts.DefaultFormID == "" {
		opts.DefaultFormID = "RO.01"
	}
	return NewDocumentFiller(mustRegistry(t), NewTemplateStore(testTemplateDir), opts)
}

func zipPart(t *testing.T, content []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		t.Fatalf("open output zip: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		return string(data)
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func TestFillSickLeave(t *testing.T) {
	f := newTestFiller(t, FillOptions{Semester: "1/2568"})
	doc, err := f.Fill(map[string]any{
		"formType":     "RO.16",
		"studentId":    "65070501001",
		"name":         "สมชาย ใจดี",
		"faculty":      "วิศวกรรมศาสตร์",
		"draft_reason": "ป่วยเป็นไข้หวัดใหญ่ & พักฟื้น",
		"leave_from":   "1 ม.ค.",
	})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if doc.Filename != "Filled_RO.16_65070501001.docx" {
		t.Fatalf("unexpected filename %q", doc.Filename)
	}
	if doc.FellBack || doc.FormID != "RO.16" || doc.MediaType != DocxMediaType {
		t.Fatalf("unexpected document meta %+v", doc)
	}

	body := zipPart(t, doc.Content, "word/document.xml")
	for _, want := range []string{"สมชาย ใจดี", "65070501001", "1/2568", "ป่วยเป็นไข้หวัดใหญ่ &amp; พักฟื้น", "1 ม.ค."} {
		if !strings.Contains(body, want) {
			t.Errorf("document body missing %q", want)
		}
	}
	if strings.Contains(body, "{{") {
		t.Fatal("unrendered placeholder left in body")
	}
	// department and leave_to were not supplied
	if !strings.Contains(body, "สาขาวิชา "+FieldPlaceholder) {
		t.Fatal("missing field should render the dotted placeholder")
	}

	header := zipPart(t, doc.Content, "word/header1.xml")
	if !strings.Contains(header, "(RO.16)") || strings.Contains(header, "{{") {
		t.Fatalf("header not rendered: %s", header)
	}
}

func TestFillSplitPlaceholder(t *testing.T) {
	f := newTestFiller(t, FillOptions{})
	doc, err := f.Fill(map[string]any{"formType": "RO.01", "student_tel": "0812345678"})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	body := zipPart(t, doc.Content, "word/document.xml")
	if !strings.Contains(body, "โทรศัพท์: 0812345678</w:t>") {
		t.Fatalf("split placeholder not replaced in place:\n%s", body)
	}
	if strings.Count(body, "<w:t>")+strings.Count(body, "<w:t ") != strings.Count(body, "</w:t>") {
		t.Fatal("run text elements are unbalanced")
	}
}

func TestFillDeterministic(t *testing.T) {
	f := newTestFiller(t, FillOptions{Semester: "2/2567"})
	fields := map[string]any{"formType": "ro-13", "studentId": "64000000001", "name": "ทดสอบ", "year": float64(3)}
	a, err := f.Fill(fields)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	b, err := f.Fill(fields)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if !bytes.Equal(a.Content, b.Content) {
		t.Fatal("same input produced different documents")
	}
	if a.FormID != "RO.13" || a.Values["year"] != "3" {
		t.Fatalf("unexpected values %+v", a.Values)
	}
}

func TestFillFallsBackToGeneralRequest(t *testing.T) {
	f := newTestFiller(t, FillOptions{})
	doc, err := f.Fill(map[string]any{"formType": "RO.99"})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if !doc.FellBack || doc.FormID != "RO.01" {
		t.Fatalf("expected fallback to RO.01, got %+v", doc)
	}
	if doc.Filename != "Filled_RO.01_unknown.docx" {
		t.Fatalf("unexpected filename %q", doc.Filename)
	}

	// registry forms without a template also fall back
	doc, err = f.Fill(map[string]any{"formType": "RO.08"})
	if err != nil || doc.FormID != "RO.01" {
		t.Fatalf("expected RO.08 to fall back, got %+v, %v", doc, err)
	}
}

func TestFillStrictUnknownForm(t *testing.T) {
	f := newTestFiller(t, FillOptions{Strict: true})
	_, err := f.Fill(map[string]any{"formType": "RO.99"})
	if !errors.Is(err, ErrUnknownFormType) {
		t.Fatalf("expected ErrUnknownFormType, got %v", err)
	}
	if !strings.Contains(err.Error(), "RO.99") {
		t.Fatalf("detail should name the requested form: %v", err)
	}
}

func TestFillMissingTemplate(t *testing.T) {
	dir := t.TempDir()
	f := NewDocumentFiller(mustRegistry(t), NewTemplateStore(dir), FillOptions{DefaultFormID: "RO.01"})
	_, err := f.Fill(map[string]any{"formType": "RO.16"})
	if !errors.Is(err, ErrTemplateMissing) {
		t.Fatalf("expected ErrTemplateMissing, got %v", err)
	}
	want := "Server Missing File: " + filepath.Join(dir, "RO-16_Sick_Leave.docx")
	if err.Error() != want {
		t.Fatalf("detail = %q, want %q", err.Error(), want)
	}
}

func TestFillCorruptTemplate(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "RO-16_Sick_Leave.docx"), []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := NewDocumentFiller(mustRegistry(t), NewTemplateStore(dir), FillOptions{DefaultFormID: "RO.01"})
	_, err := f.Fill(map[string]any{"formType": "RO.16"})
	if !errors.Is(err, ErrRender) {
		t.Fatalf("expected ErrRender, got %v", err)
	}
}

func TestFillSanitizesStudentIDInFilename(t *testing.T) {
	f := newTestFiller(t, FillOptions{})
	doc, err := f.Fill(map[string]any{"formType": "RO.16", "studentId": "../../etc/passwd"})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if strings.ContainsAny(doc.Filename, `/\`) {
		t.Fatalf("filename escapes directory: %q", doc.Filename)
	}
}

func TestRenderPlaceholders(t *testing.T) {
	mapping := map[string]string{"name": "A<B>", "note": "line1\nline2"}
	cases := []struct {
		in, want string
	}{
		{`<w:t>{{name}}</w:t>`, `<w:t>A&lt;B&gt;</w:t>`},
		{`<w:t>{{ name }}</w:t>`, `<w:t>A&lt;B&gt;</w:t>`},
		{`<w:t>{{ missing }}</w:t>`, `<w:t>` + FieldPlaceholder + `</w:t>`},
		{`<w:t>{</w:t><w:t>{na</w:t><w:t>me}}</w:t>`, `<w:t>A&lt;B&gt;</w:t><w:t></w:t><w:t></w:t>`},
		{`<w:t xml:space="preserve">{{note}}</w:t>`, `<w:t xml:space="preserve">line1</w:t><w:br/><w:t xml:space="preserve">line2</w:t>`},
		{`<w:t>{single}</w:t>`, `<w:t>{single}</w:t>`},
	}
	for _, c := range cases {
		if got := renderPlaceholders(c.in, mapping); got != c.want {
			t.Errorf("renderPlaceholders(%q)\n got %q\nwant %q", c.in, got, c.want)
		}
	}
}

func TestFillKeepsResolvedFormID(t *testing.T) {
	f := newTestFiller(t, FillOptions{Semester: "2/2567"})
	cases := []struct {
		name   string
		fields map[string]any
		wantID string
	}{
		{"normalized", map[string]any{"form_id": "ro-16", "semester": "9/9999"}, "RO.16"},
		{"fallback", map[string]any{"form_id": "RO.99", "form_name": "ฟอร์มปลอม"}, "RO.01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := f.Fill(tc.fields)
			if err != nil {
				t.Fatalf("fill: %v", err)
			}
			if doc.FormID != tc.wantID || doc.Values["form_id"] != doc.FormID {
				t.Fatalf("form_id %q rendered for form %q", doc.Values["form_id"], doc.FormID)
			}
			entry, _ := mustRegistry(t).Get(doc.FormID)
			if doc.Values["form_name"] != entry.Name {
				t.Fatalf("form_name %q, want %q", doc.Values["form_name"], entry.Name)
			}
			if doc.Values["semester"] != "2/2567" {
				t.Fatalf("semester %q, want configured value", doc.Values["semester"])
			}
			body := zipPart(t, doc.Content, "word/document.xml")
			if strings.Contains(body, "RO.99") || strings.Contains(body, "ro-16") {
				t.Fatal("raw caller form id leaked into the document")
			}
		})
	}
}
