package vectorstore

import "testing"

func TestVectorLiteralRoundTrip(t *testing.T) {
	emb := []float32{0.25, -1, 0.5}
	lit, err := toVectorLiteral(emb, 3)
	if err != nil {
		t.Fatalf("toVectorLiteral: %v", err)
	}
	if lit != "[0.25,-1,0.5]" {
		t.Fatalf("literal = %q", lit)
	}
	back := parseVectorLiteral(lit)
	if len(back) != len(emb) {
		t.Fatalf("parsed %d values, want %d", len(back), len(emb))
	}
	for i := range emb {
		if back[i] != emb[i] {
			t.Fatalf("value %d = %v, want %v", i, back[i], emb[i])
		}
	}
}

func TestVectorLiteralDimensionMismatch(t *testing.T) {
	if _, err := toVectorLiteral([]float32{1, 2}, 3); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
	if _, err := toVectorLiteral(nil, 3); err == nil {
		t.Fatal("expected error for empty embedding")
	}
}

func TestBuildFilterSQL(t *testing.T) {
	sqlStr, args := buildFilterSQL(QueryFilter{
		TenantID:     "t1",
		ProjectID:    "p1",
		SourceFamily: "jira",
	})
	want := "tenant_id = $1 AND project_id = $2 AND source_family = $3"
	if sqlStr != want {
		t.Fatalf("where = %q, want %q", sqlStr, want)
	}
	if len(args) != 3 {
		t.Fatalf("got %d args, want 3", len(args))
	}
}
