package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// normalizeJSONC blanks out comments and drops trailing commas so encoding/json
// can decode the result. Byte offsets are preserved for error reporting, except
// that removed commas shift later offsets by one.
func normalizeJSONC(content string) (string, error) {
	blanked, err := blankComments(content)
	if err != nil {
		return "", err
	}
	return dropTrailingCommas(blanked), nil
}

type jsonScan struct {
	inString bool
	escape   bool
}

// step advances string tracking for ch and reports whether ch is inside a string literal.
func (s *jsonScan) step(ch byte) bool {
	if s.inString {
		switch {
		case s.escape:
			s.escape = false
		case ch == '\\':
			s.escape = true
		case ch == '"':
			s.inString = false
		}
		return true
	}
	if ch == '"' {
		s.inString = true
		return true
	}
	return false
}

func blankComments(content string) (string, error) {
	out := []byte(content)
	var scan jsonScan

	for i := 0; i < len(out); i++ {
		if scan.step(out[i]) || out[i] != '/' || i+1 >= len(out) {
			continue
		}

		switch out[i+1] {
		case '/':
			for ; i < len(out) && out[i] != '\n' && out[i] != '\r'; i++ {
				out[i] = ' '
			}
		case '*':
			end := strings.Index(content[i+2:], "*/")
			if end < 0 {
				return "", fmt.Errorf("unterminated block comment in JSONC")
			}
			stop := i + 2 + end + 2
			for ; i < stop; i++ {
				if out[i] != '\n' && out[i] != '\r' && out[i] != '\t' {
					out[i] = ' '
				}
			}
			i--
		}
	}
	return string(out), nil
}

func dropTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))
	var scan jsonScan

	for i := 0; i < len(content); i++ {
		ch := content[i]
		if !scan.step(ch) && ch == ',' {
			rest := strings.TrimLeft(content[i+1:], " \t\r\n")
			if rest != "" && (rest[0] == '}' || rest[0] == ']') {
				continue
			}
		}
		out.WriteByte(ch)
	}
	return out.String()
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return err
	}
	line, col := offsetToLineCol(content, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if content == "" {
		return 1, 1
	}
	limit := min(max(int(offset), 1), len(content))
	prefix := content[:limit-1]
	line := strings.Count(prefix, "\n") + 1
	col := limit - strings.LastIndex(prefix, "\n") - 1
	return line, col
}
