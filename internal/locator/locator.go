// Package locator finds the array literal assigned to an exported constant
// inside the text of a source file.
package locator

import (
	"fmt"
	"regexp"

	"github.com/dimitrije/sitecms/internal/models"
)

// Span delimits the array literal: Body[Start:End] starts with '[' and ends
// with the matching ']'.
type Span struct {
	Start int
	End   int
}

func (s Span) Text(body string) string {
	return body[s.Start:s.End]
}

// Locate returns the span of the array literal assigned to
// `export const <exportName>`. The first declaration wins. Brackets are
// balanced with string, template, escape and comment state tracked, so field
// values may contain any characters.
func Locate(body, exportName string) (Span, error) {
	if exportName == "" {
		return Span{}, fmt.Errorf("%w: empty export name", models.ErrBlockNotFound)
	}

	re := regexp.MustCompile(`export\s+const\s+` + regexp.QuoteMeta(exportName) + `\b`)
	loc := re.FindStringIndex(body)
	if loc == nil {
		return Span{}, fmt.Errorf("%w: export %s", models.ErrBlockNotFound, exportName)
	}

	eq, err := findAssignment(body, loc[1])
	if err != nil {
		return Span{}, fmt.Errorf("%w: export %s: %v", models.ErrBlockNotFound, exportName, err)
	}

	start := skipTrivia(body, eq+1)
	if start >= len(body) || body[start] != '[' {
		return Span{}, fmt.Errorf("%w: export %s is not assigned an array literal", models.ErrBlockNotFound, exportName)
	}

	end, err := matchClose(body, start)
	if err != nil {
		return Span{}, fmt.Errorf("%w: export %s: %v", models.ErrBlockNotFound, exportName, err)
	}

	return Span{Start: start, End: end}, nil
}

// Splice replaces the span with literal, keeping all surrounding text.
func Splice(body string, span Span, literal string) string {
	return body[:span.Start] + literal + body[span.End:]
}

// findAssignment returns the index of the '=' that follows the declared name,
// skipping an optional type annotation. Angle brackets and arrow tokens in
// the annotation are stepped over.
func findAssignment(body string, from int) (int, error) {
	depth := 0
	for i := from; i < len(body); i++ {
		switch body[i] {
		case '<', '(', '{', '[':
			depth++
		case '>':
			if i > 0 && body[i-1] == '=' {
				continue
			}
			depth--
		case ')', '}', ']':
			depth--
		case '=':
			if i+1 < len(body) && body[i+1] == '>' {
				continue
			}
			if depth <= 0 {
				return i, nil
			}
		case ';':
			if depth <= 0 {
				return 0, fmt.Errorf("declaration has no initializer")
			}
		}
	}
	return 0, fmt.Errorf("declaration has no initializer")
}

func skipTrivia(body string, i int) int {
	for i < len(body) {
		switch {
		case body[i] == ' ' || body[i] == '\t' || body[i] == '\n' || body[i] == '\r':
			i++
		case hasPrefixAt(body, i, "//"):
			for i < len(body) && body[i] != '\n' {
				i++
			}
		case hasPrefixAt(body, i, "/*"):
			end := indexFrom(body, i+2, "*/")
			if end < 0 {
				return len(body)
			}
			i = end + 2
		default:
			return i
		}
	}
	return i
}

type scanState int

const (
	stCode scanState = iota
	stDouble
	stSingle
	stTemplate
	stLineComment
	stBlockComment
)

// matchClose scans from the '[' at start and returns the index just past its
// matching ']'.
func matchClose(body string, start int) (int, error) {
	var stack []byte
	state := stCode

	for i := start; i < len(body); i++ {
		ch := body[i]
		switch state {
		case stCode:
			switch ch {
			case '[', '{', '(':
				stack = append(stack, ch)
			case ']', '}', ')':
				if len(stack) == 0 || stack[len(stack)-1] != opener(ch) {
					return 0, fmt.Errorf("unbalanced %q at offset %d", ch, i)
				}
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					return i + 1, nil
				}
			case '"':
				state = stDouble
			case '\'':
				state = stSingle
			case '`':
				state = stTemplate
			case '/':
				if i+1 < len(body) {
					switch body[i+1] {
					case '/':
						state = stLineComment
						i++
					case '*':
						state = stBlockComment
						i++
					}
				}
			}
		case stDouble, stSingle, stTemplate:
			if ch == '\\' {
				i++
				continue
			}
			if (state == stDouble && ch == '"') || (state == stSingle && ch == '\'') || (state == stTemplate && ch == '`') {
				state = stCode
			}
			if ch == '\n' && state != stTemplate {
				return 0, fmt.Errorf("unterminated string at offset %d", i)
			}
		case stLineComment:
			if ch == '\n' {
				state = stCode
			}
		case stBlockComment:
			if ch == '*' && i+1 < len(body) && body[i+1] == '/' {
				state = stCode
				i++
			}
		}
	}
	return 0, fmt.Errorf("array literal is not terminated")
}

func opener(closer byte) byte {
	switch closer {
	case ']':
		return '['
	case '}':
		return '{'
	}
	return '('
}

func hasPrefixAt(s string, i int, prefix string) bool {
	return len(s)-i >= len(prefix) && s[i:i+len(prefix)] == prefix
}

func indexFrom(s string, from int, sub string) int {
	for i := from; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
