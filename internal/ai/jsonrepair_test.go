package ai

import (
	"encoding/json"
	"testing"
)

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", `[{"a":1}]`, `[{"a":1}]`},
		{"json fence", "```json\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n[]\n```  ", `[]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripCodeFences(tc.in); got != tc.want {
				t.Errorf("StripCodeFences(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRepairLatexEscapes(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"latex times", `$4 \times 10^{-5}$`, `$4 \\times 10^{-5}$`},
		{"latex frac", `\frac{a}{b}`, `\\frac{a}{b}`},
		{"already escaped", `\\alpha`, `\\alpha`},
		{"newline escape kept", `line one\nline two`, `line one\nline two`},
		{"tab escape kept", `a\tb`, `a\tb`},
		{"unicode escape kept", `\u09ac`, `\u09ac`},
		{"usepackage repaired", `\usepackage{amsmath}`, `\\usepackage{amsmath}`},
		{"triple backslash", `\\\theta`, `\\\\theta`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RepairLatexEscapes(tc.in); got != tc.want {
				t.Errorf("RepairLatexEscapes(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeModelJSON(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		doc, err := NormalizeModelJSON(`[{"stem":"s"}]`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var arr []map[string]string
		if err := json.Unmarshal(doc, &arr); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if len(arr) != 1 || arr[0]["stem"] != "s" {
			t.Errorf("unexpected document: %v", arr)
		}
	})

	t.Run("latex escapes recovered", func(t *testing.T) {
		doc, err := NormalizeModelJSON(`{"x": "$4 \times 10^{-5}$"}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var obj map[string]string
		if err := json.Unmarshal(doc, &obj); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if obj["x"] != `$4 \times 10^{-5}$` {
			t.Errorf("got %q, want LaTeX preserved", obj["x"])
		}
	})

	t.Run("double encoded", func(t *testing.T) {
		inner := `[{"a":"x"}]`
		wrapped, _ := json.Marshal(inner)
		doc, err := NormalizeModelJSON(string(wrapped))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var arr []map[string]string
		if err := json.Unmarshal(doc, &arr); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if len(arr) != 1 || arr[0]["a"] != "x" {
			t.Errorf("unexpected document: %v", arr)
		}
	})

	t.Run("fenced with latex", func(t *testing.T) {
		raw := "```json\n[{\"q\": \"\\sin x\"}]\n```"
		doc, err := NormalizeModelJSON(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var arr []map[string]string
		if err := json.Unmarshal(doc, &arr); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if arr[0]["q"] != `\sin x` {
			t.Errorf("got %q, want backslash-sin preserved", arr[0]["q"])
		}
	})

	t.Run("garbage degrades to error", func(t *testing.T) {
		if _, err := NormalizeModelJSON("I could not read the image, sorry."); err == nil {
			t.Fatal("expected error for non-JSON text")
		}
	})

	t.Run("empty response", func(t *testing.T) {
		if _, err := NormalizeModelJSON("   "); err == nil {
			t.Fatal("expected error for empty text")
		}
	})
}

func TestCanonicalText(t *testing.T) {
	t.Run("string passthrough", func(t *testing.T) {
		got, err := CanonicalText("ভেক্টর কাকে বলে?")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "ভেক্টর কাকে বলে?" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("key order canonicalized", func(t *testing.T) {
		a := map[string]any{"b": 2, "a": 1, "c": map[string]any{"z": 1, "y": 2}}
		b := map[string]any{"c": map[string]any{"y": 2, "z": 1}, "a": 1, "b": 2}

		ca, err := CanonicalText(a)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cb, err := CanonicalText(b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ca != cb {
			t.Errorf("canonical forms differ: %q vs %q", ca, cb)
		}
	})
}
