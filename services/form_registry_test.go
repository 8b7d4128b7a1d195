package services

import (
	"strings"
	"testing"

	"regis_chat_backend/models"
)

func mustRegistry(t *testing.T) *FormRegistry {
	t.Helper()
	reg, err := LoadFormRegistry()
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	return reg
}

func TestLoadFormRegistry(t *testing.T) {
	reg := mustRegistry(t)
	all := reg.All()
	if len(all) != 19 {
		t.Fatalf("expected 19 forms, got %d", len(all))
	}
	withTemplate := 0
	for _, e := range all {
		if e.HasTemplate() {
			withTemplate++
		}
	}
	if withTemplate != 5 {
		t.Fatalf("expected 5 forms with templates, got %d", withTemplate)
	}
}

func TestLookupSickLeave(t *testing.T) {
	reg := mustRegistry(t)
	hits := reg.Lookup("ลาป่วยทำไง")
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if hits[0].ID != "RO.16" {
		t.Fatalf("expected RO.16 first, got %s", hits[0].ID)
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	reg := mustRegistry(t)
	hits := reg.Lookup("How do I fill RO.12 for a DROP?")
	if len(hits) != 1 || hits[0].ID != "RO.12" {
		t.Fatalf("expected only RO.12, got %+v", hits)
	}
}

func TestLookupRegistryOrder(t *testing.T) {
	reg := mustRegistry(t)
	hits := reg.Lookup("ลาออก หรือ ลาพัก ดี")
	if len(hits) != 2 {
		t.Fatalf("expected two hits, got %d", len(hits))
	}
	if hits[0].ID != "RO.12" || hits[1].ID != "RO.13" {
		t.Fatalf("expected registry order RO.12, RO.13, got %s, %s", hits[0].ID, hits[1].ID)
	}
}

func TestLookupEmpty(t *testing.T) {
	reg := mustRegistry(t)
	if hits := reg.Lookup("   "); len(hits) != 0 {
		t.Fatalf("expected no hits for blank query, got %d", len(hits))
	}
}

func TestNormalize(t *testing.T) {
	reg := mustRegistry(t)
	cases := map[string]string{
		"ro-16":  "RO.16",
		"RO_16":  "RO.16",
		"ro16":   "RO.16",
		"Ro 16":  "RO.16",
		"RO.1":   "RO.01",
		"สทน.12": "RO.12",
		"กค18":   "กค.18",
		"RO.26":  "RO.26",
	}
	for in, want := range cases {
		got, ok := reg.Normalize(in)
		if !ok || got != want {
			t.Errorf("Normalize(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	for _, in := range []string{"", "RO.99", "hello", "XX.16"} {
		if got, ok := reg.Normalize(in); ok {
			t.Errorf("Normalize(%q) = %q, expected no match", in, got)
		}
	}
}

func TestFindSource(t *testing.T) {
	reg := mustRegistry(t)
	e, ok := reg.FindSource("https://regis.kmutt.ac.th/service/form/RO-13Updated.pdf", "ข้อความ")
	if !ok || e.ID != "RO.13" {
		t.Fatalf("expected RO.13 by file url, got %+v", e)
	}
	e, ok = reg.FindSource("", "ให้ใช้แบบฟอร์ม RO.22 ยื่นที่สำนักงาน")
	if !ok || e.ID != "RO.22" {
		t.Fatalf("expected RO.22 by id in text, got %+v", e)
	}
	if _, ok := reg.FindSource("https://example.com/a.pdf", "ไม่มีรหัส"); ok {
		t.Fatal("expected no match")
	}
}

func TestListText(t *testing.T) {
	reg := mustRegistry(t)
	text := reg.ListText()
	if !strings.Contains(text, "- คำร้องขอลาป่วย/ลากิจ ใช้ฟอร์มรหัส: RO.16\n") {
		t.Fatalf("list text missing RO.16 line:\n%s", text)
	}
	if strings.Count(text, "\n") != 19 {
		t.Fatalf("expected 19 lines, got %d", strings.Count(text, "\n"))
	}
}

func TestNewFormRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewFormRegistry([]models.FormEntry{
		{ID: "RO.01", Name: "a", URL: "https://x/a.pdf"},
		{ID: "ro.01", Name: "b", URL: "https://x/b.pdf"},
	})
	if err == nil {
		t.Fatal("expected duplicate id error")
	}
}
