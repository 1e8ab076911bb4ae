package literal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dimitrije/sitecms/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ObjectArray(t *testing.T) {
	src := `[
  {
    id: 2,
    title: "Spring \"fair\"",
    'location': 'Town hall',
    featured: true,
    draft: false,
    image: null,
  },
  { id: 1, title: "Opening", },
]`

	v, err := Parse(context.Background(), src)
	require.NoError(t, err)

	items, ok := v.([]any)
	require.True(t, ok)
	require.Len(t, items, 2)

	first := items[0].(*Object)
	assert.Equal(t, []string{"id", "title", "location", "featured", "draft", "image"}, first.Keys)
	assert.Equal(t, float64(2), first.Values["id"])
	assert.Equal(t, `Spring "fair"`, first.Values["title"])
	assert.Equal(t, "Town hall", first.Values["location"])
	assert.Equal(t, true, first.Values["featured"])
	assert.Equal(t, false, first.Values["draft"])
	assert.Nil(t, first.Values["image"])
}

func TestParse_TemplateString(t *testing.T) {
	src := "[{ content: `\n      <p>A</p>\n\n      <p>\\`B\\` \\${x}</p>\n    ` }]"

	v, err := Parse(context.Background(), src)
	require.NoError(t, err)

	obj := v.([]any)[0].(*Object)
	assert.Equal(t, Template("\n      <p>A</p>\n\n      <p>`B` ${x}</p>\n    "), obj.Values["content"])
}

func TestParse_TemplateNormalisesCRLF(t *testing.T) {
	v, err := Parse(context.Background(), "`a\r\nb`")
	require.NoError(t, err)
	assert.Equal(t, Template("a\nb"), v)
}

func TestParse_Escapes(t *testing.T) {
	v, err := Parse(context.Background(), `"tab\there \u00e8 \u{1F600} \ud83d\ude00 \x41 \\ \/"`)
	require.NoError(t, err)
	assert.Equal(t, "tab\there è 😀 😀 A \\ /", v)
}

func TestParse_Numbers(t *testing.T) {
	v, err := Parse(context.Background(), "[1, -2, 3.5, 1e3, 0x10, 1_000, .5]")
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, -2.0, 3.5, 1000.0, 16.0, 1000.0, 0.5}, v)
}

func TestParse_Comments(t *testing.T) {
	src := `[
  // newest first
  { id: 1 /* inline */ },
]`
	v, err := Parse(context.Background(), src)
	require.NoError(t, err)
	assert.Len(t, v, 1)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"identifier":     `[{ title: process }]`,
		"call":           `[{ title: require("fs") }]`,
		"substitution":   "[{ title: `${secret}` }]",
		"spread":         `[...other]`,
		"spread in obj":  `[{ ...other }]`,
		"computed key":   `[{ [k]: 1 }]`,
		"trailing code":  `[1]; evil()`,
		"unterminated":   `[{ id: 1 }`,
		"newline string": "[\"a\nb\"]",
		"hole":           `[1,,2]`,
		"missing colon":  `[{ id 1 }]`,
		"function":       `[function () {}]`,
		"empty":          ``,
	}

	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(context.Background(), src)
			assert.ErrorIs(t, err, models.ErrMalformedLiteral)
		})
	}
}

func TestParse_DepthLimit(t *testing.T) {
	src := strings.Repeat("[", MaxDepth+2) + strings.Repeat("]", MaxDepth+2)
	_, err := Parse(context.Background(), src)
	assert.ErrorIs(t, err, models.ErrMalformedLiteral)
}

func TestParse_ExpiredDeadline(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := Parse(ctx, "[1, 2, 3]")
	assert.ErrorIs(t, err, models.ErrEvalTimeout)
}

func TestEvaluate_Timeout(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < 200000; i++ {
		sb.WriteString(`{ id: 1, title: "x" },`)
	}
	sb.WriteString("]")

	_, err := Evaluate(context.Background(), sb.String(), time.Nanosecond)
	assert.ErrorIs(t, err, models.ErrEvalTimeout)
}

func TestEvaluate_DefaultTimeout(t *testing.T) {
	v, err := Evaluate(context.Background(), `[{ id: 1 }]`, 0)
	require.NoError(t, err)
	assert.Len(t, v, 1)
}
