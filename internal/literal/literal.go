// Package literal parses the data subset of JavaScript object literal syntax:
// strings, substitution-free template strings, numbers, booleans, null,
// arrays and objects. Nothing is executed; identifiers, calls, spreads and
// template substitutions are rejected.
package literal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dimitrije/sitecms/internal/models"
)

const (
	DefaultTimeout = time.Second
	MaxDepth       = 64
	MaxInputSize   = 8 << 20

	// the deadline is polled every checkEvery values
	checkEvery = 256
)

// Template is a string that was written as a backtick literal. The codec
// uses the distinction to undo multi-line indentation.
type Template string

// Object keeps keys in source order.
type Object struct {
	Keys   []string
	Values map[string]any
}

func (o *Object) Get(key string) (any, bool) {
	v, ok := o.Values[key]
	return v, ok
}

// Evaluate parses text under the given time budget. A zero timeout means
// DefaultTimeout.
func Evaluate(ctx context.Context, text string, timeout time.Duration) (any, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return Parse(ctx, text)
}

// Parse returns one of: []any, *Object, string, Template, float64, bool, or
// nil for null/undefined.
func Parse(ctx context.Context, text string) (any, error) {
	if len(text) > MaxInputSize {
		return nil, fmt.Errorf("%w: input exceeds %d bytes", models.ErrMalformedLiteral, MaxInputSize)
	}
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: input is not valid UTF-8", models.ErrMalformedLiteral)
	}

	p := &parser{ctx: ctx, src: text}
	if expired(ctx) {
		return nil, models.ErrEvalTimeout
	}
	v, err := p.value(0)
	if err != nil {
		return nil, err
	}
	if err := p.skipTrivia(); err != nil {
		return nil, err
	}
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q after value", p.src[p.pos])
	}
	return v, nil
}

type parser struct {
	ctx   context.Context
	src   string
	pos   int
	count int
}

func (p *parser) errorf(format string, args ...any) error {
	line, col := p.lineCol()
	return fmt.Errorf("%w: line %d col %d: %s", models.ErrMalformedLiteral, line, col, fmt.Sprintf(format, args...))
}

func (p *parser) lineCol() (int, int) {
	line, col := 1, 1
	for i := 0; i < p.pos && i < len(p.src); i++ {
		if p.src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func (p *parser) tick() error {
	p.count++
	if p.count%checkEvery != 0 {
		return nil
	}
	if expired(p.ctx) {
		return fmt.Errorf("%w after %d values", models.ErrEvalTimeout, p.count)
	}
	return p.ctx.Err()
}

// expired reports a passed deadline even before the context's timer fires.
func expired(ctx context.Context) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	deadline, ok := ctx.Deadline()
	return ok && !time.Now().Before(deadline)
}

func (p *parser) skipTrivia() error {
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f':
			p.pos++
		case strings.HasPrefix(p.src[p.pos:], "\u00a0"), strings.HasPrefix(p.src[p.pos:], "\ufeff"):
			_, size := utf8.DecodeRuneInString(p.src[p.pos:])
			p.pos += size
		case strings.HasPrefix(p.src[p.pos:], "//"):
			end := strings.IndexByte(p.src[p.pos:], '\n')
			if end < 0 {
				p.pos = len(p.src)
			} else {
				p.pos += end + 1
			}
		case strings.HasPrefix(p.src[p.pos:], "/*"):
			end := strings.Index(p.src[p.pos+2:], "*/")
			if end < 0 {
				return p.errorf("unterminated comment")
			}
			p.pos += end + 4
		default:
			return nil
		}
	}
	return nil
}

func (p *parser) value(depth int) (any, error) {
	if err := p.tick(); err != nil {
		return nil, err
	}
	if depth > MaxDepth {
		return nil, p.errorf("nesting deeper than %d", MaxDepth)
	}
	if err := p.skipTrivia(); err != nil {
		return nil, err
	}
	if p.pos >= len(p.src) {
		return nil, p.errorf("unexpected end of input")
	}

	switch ch := p.src[p.pos]; {
	case ch == '[':
		return p.array(depth)
	case ch == '{':
		return p.object(depth)
	case ch == '"' || ch == '\'':
		return p.quoted(ch)
	case ch == '`':
		return p.template()
	case ch == '-' || ch == '+' || ch == '.' || (ch >= '0' && ch <= '9'):
		return p.number()
	case isIdentStart(ch):
		word := p.ident()
		switch word {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null", "undefined":
			return nil, nil
		}
		return nil, p.errorf("identifier %q is not a literal value", word)
	default:
		return nil, p.errorf("unexpected %q", ch)
	}
}

func (p *parser) array(depth int) (any, error) {
	p.pos++ // [
	items := make([]any, 0)
	for {
		if err := p.skipTrivia(); err != nil {
			return nil, err
		}
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated array")
		}
		if p.src[p.pos] == ']' {
			p.pos++
			return items, nil
		}
		if p.src[p.pos] == ',' {
			return nil, p.errorf("array holes are not supported")
		}
		if strings.HasPrefix(p.src[p.pos:], "...") {
			return nil, p.errorf("spread is not a literal value")
		}

		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		items = append(items, v)

		if err := p.skipTrivia(); err != nil {
			return nil, err
		}
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated array")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ']':
		default:
			return nil, p.errorf("expected ',' or ']' in array, found %q", p.src[p.pos])
		}
	}
}

func (p *parser) object(depth int) (any, error) {
	p.pos++ // {
	obj := &Object{Values: make(map[string]any)}
	for {
		if err := p.skipTrivia(); err != nil {
			return nil, err
		}
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated object")
		}
		if p.src[p.pos] == '}' {
			p.pos++
			return obj, nil
		}

		key, err := p.key()
		if err != nil {
			return nil, err
		}

		if err := p.skipTrivia(); err != nil {
			return nil, err
		}
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return nil, p.errorf("expected ':' after key %q", key)
		}
		p.pos++

		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		if _, dup := obj.Values[key]; !dup {
			obj.Keys = append(obj.Keys, key)
		}
		obj.Values[key] = v

		if err := p.skipTrivia(); err != nil {
			return nil, err
		}
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated object")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case '}':
		default:
			return nil, p.errorf("expected ',' or '}' in object, found %q", p.src[p.pos])
		}
	}
}

func (p *parser) key() (string, error) {
	ch := p.src[p.pos]
	switch {
	case ch == '"' || ch == '\'':
		v, err := p.quoted(ch)
		if err != nil {
			return "", err
		}
		return v.(string), nil
	case isIdentStart(ch):
		return p.ident(), nil
	case ch >= '0' && ch <= '9':
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		return p.src[start:p.pos], nil
	case ch == '[':
		return "", p.errorf("computed keys are not supported")
	case ch == '.':
		return "", p.errorf("spread is not a literal value")
	}
	return "", p.errorf("unexpected %q where a key was expected", ch)
}

func (p *parser) ident() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) number() (any, error) {
	start := p.pos
	if p.src[p.pos] == '-' || p.src[p.pos] == '+' {
		p.pos++
	}
	if strings.HasPrefix(p.src[p.pos:], "0x") || strings.HasPrefix(p.src[p.pos:], "0X") {
		p.pos += 2
		digits := p.pos
		for p.pos < len(p.src) && isHex(p.src[p.pos]) {
			p.pos++
		}
		n, err := strconv.ParseInt(p.src[digits:p.pos], 16, 64)
		if err != nil {
			return nil, p.errorf("invalid number %q", p.src[start:p.pos])
		}
		if p.src[start] == '-' {
			n = -n
		}
		return float64(n), nil
	}
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		if (ch >= '0' && ch <= '9') || ch == '.' || ch == 'e' || ch == 'E' || ch == '_' {
			p.pos++
			continue
		}
		if (ch == '-' || ch == '+') && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E') {
			p.pos++
			continue
		}
		break
	}
	raw := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, p.errorf("invalid number %q", p.src[start:p.pos])
	}
	return f, nil
}

func (p *parser) quoted(quote byte) (any, error) {
	p.pos++
	var sb strings.Builder
	for {
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated string")
		}
		ch := p.src[p.pos]
		switch {
		case ch == quote:
			p.pos++
			return sb.String(), nil
		case ch == '\n' || ch == '\r':
			return nil, p.errorf("newline in string")
		case ch == '\\':
			if err := p.escape(&sb); err != nil {
				return nil, err
			}
		default:
			sb.WriteByte(ch)
			p.pos++
		}
	}
}

func (p *parser) template() (any, error) {
	p.pos++
	var sb strings.Builder
	for {
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated template string")
		}
		ch := p.src[p.pos]
		switch {
		case ch == '`':
			p.pos++
			return Template(sb.String()), nil
		case ch == '$' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '{':
			return nil, p.errorf("template substitutions are not supported")
		case ch == '\\':
			if err := p.escape(&sb); err != nil {
				return nil, err
			}
		case ch == '\r':
			// template strings normalise CRLF and CR to LF
			sb.WriteByte('\n')
			p.pos++
			if p.pos < len(p.src) && p.src[p.pos] == '\n' {
				p.pos++
			}
		default:
			sb.WriteByte(ch)
			p.pos++
		}
	}
}

func (p *parser) escape(sb *strings.Builder) error {
	p.pos++ // backslash
	if p.pos >= len(p.src) {
		return p.errorf("unterminated escape")
	}
	ch := p.src[p.pos]
	p.pos++
	switch ch {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case '0':
		sb.WriteByte(0)
	case '\n':
		// line continuation
	case '\r':
		if p.pos < len(p.src) && p.src[p.pos] == '\n' {
			p.pos++
		}
	case 'x':
		if p.pos+2 > len(p.src) {
			return p.errorf("invalid \\x escape")
		}
		n, err := strconv.ParseUint(p.src[p.pos:p.pos+2], 16, 8)
		if err != nil {
			return p.errorf("invalid \\x escape")
		}
		sb.WriteRune(rune(n))
		p.pos += 2
	case 'u':
		r, err := p.unicodeEscape()
		if err != nil {
			return err
		}
		sb.WriteRune(r)
	default:
		// \" \' \\ \` \$ and any other character escape to themselves
		r, size := utf8.DecodeRuneInString(p.src[p.pos-1:])
		sb.WriteRune(r)
		p.pos += size - 1
	}
	return nil
}

func (p *parser) unicodeEscape() (rune, error) {
	if p.pos < len(p.src) && p.src[p.pos] == '{' {
		end := strings.IndexByte(p.src[p.pos:], '}')
		if end < 0 {
			return 0, p.errorf("invalid \\u escape")
		}
		n, err := strconv.ParseUint(p.src[p.pos+1:p.pos+end], 16, 32)
		if err != nil || n > utf8.MaxRune {
			return 0, p.errorf("invalid \\u escape")
		}
		p.pos += end + 1
		return rune(n), nil
	}

	r, err := p.hex4()
	if err != nil {
		return 0, err
	}
	// surrogate pair
	if r >= 0xD800 && r < 0xDC00 && strings.HasPrefix(p.src[p.pos:], "\\u") {
		save := p.pos
		p.pos += 2
		lo, err := p.hex4()
		if err == nil && lo >= 0xDC00 && lo < 0xE000 {
			return (r-0xD800)<<10 + (lo - 0xDC00) + 0x10000, nil
		}
		p.pos = save
	}
	return r, nil
}

func (p *parser) hex4() (rune, error) {
	if p.pos+4 > len(p.src) {
		return 0, p.errorf("invalid \\u escape")
	}
	n, err := strconv.ParseUint(p.src[p.pos:p.pos+4], 16, 32)
	if err != nil {
		return 0, p.errorf("invalid \\u escape")
	}
	p.pos += 4
	return rune(n), nil
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

func isHex(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
