package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindEvents Kind = "events"
	KindNews   Kind = "news"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case KindEvents:
		return KindEvents, nil
	case KindNews:
		return KindNews, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Record is one entry of a collection. Schema field values are string or
// bool; extra fields not declared by the schema are kept as-is.
type Record struct {
	ID     int64
	Fields map[string]any
}

func NewRecord(id int64, fields map[string]any) Record {
	if fields == nil {
		fields = make(map[string]any)
	}
	return Record{ID: id, Fields: fields}
}

func (r Record) String(name string) string {
	s, _ := r.Fields[name].(string)
	return s
}

func (r Record) Bool(name string) bool {
	b, _ := r.Fields[name].(bool)
	return b
}

func (r Record) Clone() Record {
	fields := make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return Record{ID: r.ID, Fields: fields}
}

func (r Record) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		if k == "id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString(`{"id":`)
	buf.WriteString(fmt.Sprintf("%d", r.ID))
	for _, k := range keys {
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.Fields[k])
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	idVal, ok := raw["id"]
	if !ok {
		return fmt.Errorf("record is missing id")
	}
	id, err := toID(idVal)
	if err != nil {
		return err
	}
	delete(raw, "id")

	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		val, err := fromJSON(v)
		if err != nil {
			return fmt.Errorf("field %s: %w", k, err)
		}
		if val != nil {
			fields[k] = val
		}
	}

	r.ID = id
	r.Fields = fields
	return nil
}

// fromJSON replaces json.Number with float64 so decoded records compare
// equal to records decoded from a literal.
func fromJSON(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		return val.Float64()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			conv, err := fromJSON(item)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			conv, err := fromJSON(item)
			if err != nil {
				return nil, err
			}
			if conv != nil {
				out[k] = conv
			}
		}
		return out, nil
	}
	return v, nil
}

func toID(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("invalid id %q", n)
		}
		return floatID(f)
	case float64:
		return floatID(n)
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	}
	return 0, fmt.Errorf("invalid id of type %T", v)
}

func floatID(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("id %v is not an integer", f)
	}
	return int64(f), nil
}

// ParseID converts a decoded literal number into a record id.
func ParseID(v any) (int64, error) {
	return toID(v)
}

// NextID returns max(existing id)+1, or 1 for an empty collection.
func NextID(records []Record) int64 {
	var max int64
	for _, r := range records {
		if r.ID > max {
			max = r.ID
		}
	}
	return max + 1
}

// SortByIDDesc orders records newest first.
func SortByIDDesc(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ID > records[j].ID
	})
}

func CheckUniqueIDs(records []Record) error {
	seen := make(map[int64]struct{}, len(records))
	for _, r := range records {
		if _, ok := seen[r.ID]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateID, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

// Document is a collection together with the version it was read at.
// Parent is set on documents returned by a write to the version they
// replaced.
type Document struct {
	Kind    Kind
	Path    string
	Records []Record
	Version string
	Parent  string
}

// Editor is the caller of a collection operation. Authorized is set only by
// the sign-in boundary once the identity has been checked against the
// allow-list.
type Editor struct {
	Login      string
	Authorized bool
}

type CommitEntry struct {
	ID          uuid.UUID `json:"id"`
	Kind        Kind      `json:"kind"`
	Editor      string    `json:"editor"`
	OldVersion  string    `json:"old_version"`
	NewVersion  string    `json:"new_version"`
	RecordCount int       `json:"record_count"`
	CreatedAt   time.Time `json:"created_at"`
}
