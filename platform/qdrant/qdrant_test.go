package qdrant

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"

	"regis_chat_backend/models"
)

func TestParseEndpoint(t *testing.T) {
	cases := []struct {
		in   string
		want Endpoint
	}{
		{"http://localhost:6333", Endpoint{Host: "localhost", Port: 6334}},
		{"https://abc.cloud.qdrant.io:6333", Endpoint{Host: "abc.cloud.qdrant.io", Port: 6334, UseTLS: true}},
		{"https://abc.cloud.qdrant.io", Endpoint{Host: "abc.cloud.qdrant.io", Port: 6334, UseTLS: true}},
		{"qdrant:7000", Endpoint{Host: "qdrant", Port: 7000}},
		{"http://10.0.0.5:6334/", Endpoint{Host: "10.0.0.5", Port: 6334}},
	}
	for _, tc := range cases {
		got, err := ParseEndpoint(tc.in)
		if err != nil {
			t.Errorf("ParseEndpoint(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseEndpoint(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"", "ftp://host", "http://:6333"} {
		if _, err := ParseEndpoint(bad); err == nil {
			t.Errorf("ParseEndpoint(%q) expected error", bad)
		}
	}
}

func TestPassageFromPoint(t *testing.T) {
	p := &qdrant.ScoredPoint{
		Id:    qdrant.NewIDUUID("0b7d8c1e-4d2a-5f43-9e0a-6a1d3f7c2b11"),
		Score: 0.5,
		Payload: qdrant.NewValueMap(map[string]any{
			"page_content": "ยื่นคำร้อง RO.16",
			"metadata": map[string]any{
				"source": "https://regis.kmutt.ac.th/service/form/RO-16.pdf",
				"page":   2,
			},
		}),
	}
	got := passageFromPoint(p)
	if got.ID != "0b7d8c1e-4d2a-5f43-9e0a-6a1d3f7c2b11" || got.Score != 0.5 {
		t.Fatalf("unexpected id/score %+v", got)
	}
	if got.Text != "ยื่นคำร้อง RO.16" {
		t.Fatalf("unexpected text %q", got.Text)
	}
	if got.File != "https://regis.kmutt.ac.th/service/form/RO-16.pdf" {
		t.Fatalf("expected source fallback, got %q", got.File)
	}
	if got.Page != 2 {
		t.Fatalf("expected page 2, got %d", got.Page)
	}
}

func TestPassageFromPointWithoutPayload(t *testing.T) {
	got := passageFromPoint(&qdrant.ScoredPoint{Id: qdrant.NewIDNum(7)})
	if got.ID != "7" || got.Text != "" || got.File != "" {
		t.Fatalf("unexpected passage %+v", got)
	}
}

func TestPointStructVectors(t *testing.T) {
	ps, err := pointStruct(models.VectorPoint{
		ID:    "0b7d8c1e-4d2a-5f43-9e0a-6a1d3f7c2b11",
		Dense: []float32{0.1, 0.2},
		Text:  "chunk",
		File:  "https://example.com/a.pdf",
		Page:  1,
	}, "dense_vector", "sparse_vector")
	if err != nil {
		t.Fatalf("pointStruct: %v", err)
	}
	named := ps.GetVectors().GetVectors().GetVectors()
	if _, ok := named["dense_vector"]; !ok {
		t.Fatal("missing dense vector")
	}
	if _, ok := named["sparse_vector"]; ok {
		t.Fatal("empty sparse vector should be omitted")
	}
	if ps.GetPayload()["metadata"].GetStructValue().GetFields()["file"].GetStringValue() != "https://example.com/a.pdf" {
		t.Fatal("metadata.file not written")
	}
}
