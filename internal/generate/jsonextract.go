package generate

import "errors"

// ErrNoJSONObject is returned when a model response contains no object span.
var ErrNoJSONObject = errors.New("no JSON object found in model output")

// ExtractJSONObject returns the first balanced {...} span in raw text,
// tolerating surrounding prose and markdown fences. String literals are
// respected so braces inside values cannot unbalance the scan. Running the
// function on its own output returns the same span.
func ExtractJSONObject(raw string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start >= 0 {
				depth--
				if depth == 0 {
					return raw[start : i+1], nil
				}
			}
		}
	}
	return "", ErrNoJSONObject
}
