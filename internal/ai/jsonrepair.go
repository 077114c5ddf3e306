package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Vision-model output is expected to be JSON but routinely arrives wrapped
// in markdown fences, JSON-encoded twice, or with single backslashes before
// LaTeX commands (invalid or lossy JSON escapes). NormalizeModelJSON applies
// the repair pipeline and returns the first syntactically valid document.

var (
	codeFenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	escapeRunRe = regexp.MustCompile(`\\+[A-Za-z][A-Za-z0-9]*`)
)

// StripCodeFences removes a markdown code-fence wrapper if present.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFenceRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// latexAmbiguous lists common LaTeX commands whose first letter is also a
// valid JSON escape letter (b, f, n, r, t). For any other initial letter the
// escape is invalid JSON and is always repaired; for these, only a lexicon
// hit is treated as LaTeX.
var latexAmbiguous = []string{
	"bar", "because", "beta", "big", "binom", "boxed", "bullet",
	"forall", "frac",
	"nabla", "ne", "neq", "nmid", "not", "nu",
	"rceil", "rfloor", "rho", "right", "rightarrow",
	"tan", "tau", "text", "textbf", "therefore", "theta", "tilde", "times", "to", "triangle",
}

// RepairLatexEscapes doubles odd-length backslash runs that precede a LaTeX
// command, turning `\times` into `\\times` while leaving already-valid
// escapes alone: even runs pair up on their own, `\uXXXX` unicode escapes are
// recognized by their hex digits, and `\n`-style short escapes survive unless
// the following word is a known LaTeX command.
func RepairLatexEscapes(s string) string {
	return escapeRunRe.ReplaceAllStringFunc(s, func(m string) string {
		i := 0
		for i < len(m) && m[i] == '\\' {
			i++
		}
		word := m[i:]

		if i%2 == 0 {
			return m
		}
		switch word[0] {
		case 'u':
			if len(word) >= 5 && isHex(word[1:5]) {
				return m
			}
		case 'b', 'f', 'n', 'r', 't':
			if !looksLikeLatexCommand(word) {
				return m
			}
		}

		return `\` + m
	})
}

// looksLikeLatexCommand reports whether word is exactly a lexicon command,
// or a lexicon command directly followed by a digit (`\neq0`). The word is a
// maximal alphanumeric run, so a command followed by space or braces arrives
// here on its own.
func looksLikeLatexCommand(word string) bool {
	for _, cmd := range latexAmbiguous {
		if word == cmd {
			return true
		}
		if strings.HasPrefix(word, cmd) && word[len(cmd)] >= '0' && word[len(cmd)] <= '9' {
			return true
		}
	}
	return false
}

// NormalizeModelJSON strips fences, repairs LaTeX escapes and unwraps
// double-encoded payloads, returning the first candidate that is valid JSON.
// The repaired form is preferred: a payload that parses with `\times` intact
// as a tab character is still a corrupted payload.
func NormalizeModelJSON(raw string) (json.RawMessage, error) {
	s := StripCodeFences(raw)
	if s == "" {
		return nil, fmt.Errorf("empty model response")
	}

	candidates := []string{RepairLatexEscapes(s), s}

	// Double-encoded payloads arrive as a JSON string wrapping the document.
	var inner string
	if err := json.Unmarshal([]byte(s), &inner); err == nil {
		inner = StripCodeFences(inner)
		candidates = append(candidates, RepairLatexEscapes(inner), inner)
	}

	for _, c := range candidates {
		if json.Valid([]byte(c)) && !isJSONString(c) {
			return json.RawMessage(c), nil
		}
	}

	return nil, fmt.Errorf("model response is not valid JSON")
}

// isJSONString reports whether s is a bare JSON string literal, which is
// never a usable extraction document.
func isJSONString(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), `"`)
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
