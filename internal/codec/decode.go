package codec

import (
	"fmt"
	"strings"

	"github.com/dimitrije/sitecms/internal/literal"
	"github.com/dimitrije/sitecms/internal/models"
)

// Decode turns an evaluated array literal into records. Required fields must
// be present; fields the schema does not declare are passed through.
func (s Schema) Decode(v any) ([]models.Record, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an array", models.ErrMalformedLiteral, s.Export)
	}

	records := make([]models.Record, 0, len(items))
	for i, item := range items {
		obj, ok := item.(*literal.Object)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is not an object", models.ErrSchemaViolation, s.Export, i)
		}
		rec, err := s.decodeRecord(obj)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", s.Export, i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s Schema) decodeRecord(obj *literal.Object) (models.Record, error) {
	rawID, ok := obj.Get("id")
	if !ok || rawID == nil {
		return models.Record{}, fmt.Errorf("%w: missing id", models.ErrSchemaViolation)
	}
	id, err := models.ParseID(rawID)
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: %v", models.ErrSchemaViolation, err)
	}

	rec := models.NewRecord(id, nil)
	for _, f := range s.Fields {
		v, ok := obj.Get(f.Name)
		if !ok || v == nil {
			if f.Optional {
				continue
			}
			return models.Record{}, fmt.Errorf("%w: record %d: missing %s", models.ErrSchemaViolation, id, f.Name)
		}

		switch f.Kind {
		case String:
			str, ok := plainString(v)
			if !ok {
				return models.Record{}, fmt.Errorf("%w: record %d: %s must be a string", models.ErrSchemaViolation, id, f.Name)
			}
			rec.Fields[f.Name] = str
		case Text:
			switch t := v.(type) {
			case literal.Template:
				rec.Fields[f.Name] = dedent(string(t))
			case string:
				rec.Fields[f.Name] = t
			default:
				return models.Record{}, fmt.Errorf("%w: record %d: %s must be a string", models.ErrSchemaViolation, id, f.Name)
			}
		case Bool:
			b, ok := v.(bool)
			if !ok {
				return models.Record{}, fmt.Errorf("%w: record %d: %s must be a boolean", models.ErrSchemaViolation, id, f.Name)
			}
			rec.Fields[f.Name] = b
		}
	}

	for _, key := range obj.Keys {
		if key == "id" {
			continue
		}
		if _, declared := s.field(key); declared {
			continue
		}
		if v := plain(obj.Values[key]); v != nil {
			rec.Fields[key] = v
		}
	}
	return rec, nil
}

func plainString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case literal.Template:
		return string(t), true
	}
	return "", false
}

// plain converts parser values into JSON-friendly Go values.
func plain(v any) any {
	switch t := v.(type) {
	case literal.Template:
		return string(t)
	case *literal.Object:
		m := make(map[string]any, len(t.Keys))
		for _, k := range t.Keys {
			if pv := plain(t.Values[k]); pv != nil {
				m[k] = pv
			}
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plain(item)
		}
		return out
	}
	return v
}

// dedent reverses the multi-line layout written by encodeText: the newline
// after the opening backtick, the line holding the closing backtick and the
// body indentation are removed.
func dedent(s string) string {
	if !strings.HasPrefix(s, "\n") {
		return s
	}
	lines := strings.Split(s[1:], "\n")
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "" {
		lines = lines[:n-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimPrefix(l, textIndent)
	}
	return strings.Join(lines, "\n")
}
