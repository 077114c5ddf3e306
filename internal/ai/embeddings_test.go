package ai

import "testing"

func TestCheckDimensions(t *testing.T) {
	vec := []float32{0.1, 0.2, 0.3}

	if err := checkDimensions(vec, 3); err != nil {
		t.Errorf("matching dimensions: %v", err)
	}
	if err := checkDimensions(vec, 0); err != nil {
		t.Errorf("check disabled with 0: %v", err)
	}
	if err := checkDimensions(vec, 768); err == nil {
		t.Error("expected error on dimension mismatch")
	}
	if err := checkDimensions(nil, 3); err == nil {
		t.Error("expected error on empty vector with configured dimensions")
	}
}
