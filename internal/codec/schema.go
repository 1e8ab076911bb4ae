// Package codec maps collection records to and from the array literal stored
// in the site's source files.
package codec

import (
	"fmt"

	"github.com/dimitrije/sitecms/internal/models"
)

type FieldKind int

const (
	// String is emitted as a JSON-quoted string.
	String FieldKind = iota
	// Bool is emitted as a bare true/false token.
	Bool
	// Text is emitted as a multi-line backtick literal, indented one level
	// deeper than the record.
	Text
)

type Field struct {
	Name     string
	Kind     FieldKind
	Optional bool
}

// Schema is the ordered field set of one collection kind. The id field is
// implicit and always emitted first.
type Schema struct {
	Kind   models.Kind
	Export string
	Fields []Field
}

var Events = Schema{
	Kind:   models.KindEvents,
	Export: "eventsData",
	Fields: []Field{
		{Name: "title", Kind: String},
		{Name: "date", Kind: String},
		{Name: "endDate", Kind: String, Optional: true},
		{Name: "displayDate", Kind: String},
		{Name: "location", Kind: String},
		{Name: "description", Kind: String},
		{Name: "image", Kind: String, Optional: true},
	},
}

var News = Schema{
	Kind:   models.KindNews,
	Export: "newsData",
	Fields: []Field{
		{Name: "date", Kind: String},
		{Name: "category", Kind: String},
		{Name: "title", Kind: String},
		{Name: "excerpt", Kind: String},
		{Name: "author", Kind: String},
		{Name: "featured", Kind: Bool},
		{Name: "content", Kind: Text},
	},
}

func For(kind models.Kind) (Schema, error) {
	switch kind {
	case models.KindEvents:
		return Events, nil
	case models.KindNews:
		return News, nil
	}
	return Schema{}, fmt.Errorf("%w: %q", models.ErrUnknownKind, kind)
}

// WithExport returns a copy of the schema bound to a different export name.
func (s Schema) WithExport(name string) Schema {
	if name != "" {
		s.Export = name
	}
	return s
}

func (s Schema) field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks the declared fields of r have the right types. Missing
// required fields are allowed here; they are written out empty.
func (s Schema) Validate(r models.Record) error {
	for _, f := range s.Fields {
		v, ok := r.Fields[f.Name]
		if !ok || v == nil {
			continue
		}
		switch f.Kind {
		case String, Text:
			if _, ok := v.(string); !ok {
				return fmt.Errorf("%w: record %d: %s must be a string", models.ErrSchemaViolation, r.ID, f.Name)
			}
		case Bool:
			if _, ok := v.(bool); !ok {
				return fmt.Errorf("%w: record %d: %s must be a boolean", models.ErrSchemaViolation, r.ID, f.Name)
			}
		}
	}
	return nil
}
