package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dimitrije/sitecms/internal/models"
)

const (
	recordIndent = "  "
	fieldIndent  = "    "
	textIndent   = fieldIndent + "  "
)

// Encode renders records as the canonical array literal: highest id first,
// one field per line in schema order, empty optional fields omitted and the
// closing bracket alone on the last line.
func (s Schema) Encode(records []models.Record) (string, error) {
	sorted := make([]models.Record, len(records))
	copy(sorted, records)
	models.SortByIDDesc(sorted)

	blocks := make([]string, 0, len(sorted))
	for _, r := range sorted {
		block, err := s.encodeRecord(r)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, block)
	}

	return "[\n" + strings.Join(blocks, ",\n") + "\n]", nil
}

type line struct {
	text  string
	multi bool
}

func (s Schema) encodeRecord(r models.Record) (string, error) {
	if err := s.Validate(r); err != nil {
		return "", err
	}

	lines := []line{{text: fmt.Sprintf("%sid: %d", fieldIndent, r.ID)}}

	for _, f := range s.Fields {
		v := r.Fields[f.Name]
		switch f.Kind {
		case String:
			str, _ := v.(string)
			if f.Optional && strings.TrimSpace(str) == "" {
				continue
			}
			lines = append(lines, line{text: fieldIndent + f.Name + ": " + quote(str)})
		case Bool:
			b, _ := v.(bool)
			lines = append(lines, line{text: fmt.Sprintf("%s%s: %t", fieldIndent, f.Name, b)})
		case Text:
			str, _ := v.(string)
			if f.Optional && strings.TrimSpace(str) == "" {
				continue
			}
			lines = append(lines, line{text: fieldIndent + f.Name + ": " + encodeText(str), multi: true})
		}
	}

	extras := make([]string, 0)
	for k := range r.Fields {
		if k == "id" {
			continue
		}
		if _, declared := s.field(k); declared {
			continue
		}
		extras = append(extras, k)
	}
	sort.Strings(extras)
	for _, k := range extras {
		v := r.Fields[k]
		if v == nil {
			continue
		}
		raw, err := marshal(v)
		if err != nil {
			return "", fmt.Errorf("%w: record %d: %s: %v", models.ErrSchemaViolation, r.ID, k, err)
		}
		lines = append(lines, line{text: fieldIndent + key(k) + ": " + raw})
	}

	var sb strings.Builder
	sb.WriteString(recordIndent + "{\n")
	for i, l := range lines {
		sb.WriteString(l.text)
		if !(l.multi && i == len(lines)-1) {
			sb.WriteByte(',')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(recordIndent + "}")
	return sb.String(), nil
}

// encodeText writes a backtick literal whose body lines are indented one
// level deeper than the field; blank lines stay empty.
func encodeText(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	src := strings.Split(content, "\n")
	out := make([]string, len(src))
	for i, l := range src {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out[i] = textIndent + escapeTemplate(l)
	}
	return "`\n" + strings.Join(out, "\n") + "\n" + fieldIndent + "`"
}

func escapeTemplate(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "`", "\\`")
	s = strings.ReplaceAll(s, "${", "\\${")
	s = strings.ReplaceAll(s, "\r", `\r`)
	return s
}

func quote(s string) string {
	raw, err := marshal(s)
	if err != nil {
		return `""`
	}
	return raw
}

// marshal is json.Marshal without HTML escaping, matching JSON.stringify.
func marshal(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func key(k string) string {
	if k == "" {
		return `""`
	}
	for i := 0; i < len(k); i++ {
		ch := k[i]
		ident := ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (i > 0 && ch >= '0' && ch <= '9')
		if !ident {
			return quote(k)
		}
	}
	return k
}
