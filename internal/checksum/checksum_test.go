package checksum

import "testing"

func TestSum_Deterministic(t *testing.T) {
	a := Sum([]byte("graph TD; A-->B;"))
	b := Sum([]byte("graph TD; A-->B;"))
	if a != b {
		t.Errorf("Sum not deterministic: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64 hex chars", len(a))
	}
}

func TestSum_DistinguishesContent(t *testing.T) {
	if Sum([]byte("graph TD; A;")) == Sum([]byte("graph TD; B;")) {
		t.Error("different content produced the same fingerprint")
	}
}

func TestMatch(t *testing.T) {
	content := []byte("sequenceDiagram\n  A->>B: hi")
	if !Match(content, Sum(content)) {
		t.Error("content should match its own fingerprint")
	}
	if Match(content, Sum([]byte("other"))) {
		t.Error("content should not match a foreign fingerprint")
	}
	if Match(content, "") {
		t.Error("empty sum must never match")
	}
}
