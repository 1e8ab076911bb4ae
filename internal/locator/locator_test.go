package locator

import (
	"testing"

	"github.com/dimitrije/sitecms/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventsFile = `import type { EventItem } from "./types";

// upcoming and past events
export const eventsData: EventItem[] = [
  {
    id: 2,
    title: "Spring fair",
  },
  {
    id: 1,
    title: "Opening",
  }
];

export function latest() {
  return eventsData[0];
}
`

func TestLocate_FindsArrayAfterTypeAnnotation(t *testing.T) {
	span, err := Locate(eventsFile, "eventsData")
	require.NoError(t, err)

	text := span.Text(eventsFile)
	assert.True(t, len(text) > 2)
	assert.Equal(t, byte('['), text[0])
	assert.Equal(t, byte(']'), text[len(text)-1])
	assert.Contains(t, text, "Spring fair")
	assert.NotContains(t, text, "latest")
	assert.Equal(t, ";", eventsFile[span.End:span.End+1])
}

func TestLocate_NotFound(t *testing.T) {
	_, err := Locate(eventsFile, "newsData")
	assert.ErrorIs(t, err, models.ErrBlockNotFound)
}

func TestLocate_DoesNotMatchLongerName(t *testing.T) {
	body := "export const eventsDataArchive = [\n  { id: 1 }\n];\n"
	_, err := Locate(body, "eventsData")
	assert.ErrorIs(t, err, models.ErrBlockNotFound)
}

func TestLocate_NotAnArray(t *testing.T) {
	body := "export const eventsData = loadEvents();\n"
	_, err := Locate(body, "eventsData")
	assert.ErrorIs(t, err, models.ErrBlockNotFound)
}

func TestLocate_NoInitializer(t *testing.T) {
	body := "export const eventsData;\nconst x = [1];\n"
	_, err := Locate(body, "eventsData")
	assert.ErrorIs(t, err, models.ErrBlockNotFound)
}

func TestLocate_Unterminated(t *testing.T) {
	body := "export const newsData = [\n  { id: 1, title: \"a\" },\n"
	_, err := Locate(body, "newsData")
	assert.ErrorIs(t, err, models.ErrBlockNotFound)
}

func TestLocate_ValuesContainingClosingLine(t *testing.T) {
	body := "export const newsData = [\n  {\n    id: 1,\n    content: `\n];\n]`,\n    title: \"]; [\",\n  }\n];\nexport const other = 1;\n"

	span, err := Locate(body, "newsData")
	require.NoError(t, err)

	assert.Equal(t, "\nexport const other = 1;\n", body[span.End+1:])
}

func TestLocate_IgnoresBracketsInComments(t *testing.T) {
	body := "export const newsData = [ // ] not the end\n  { id: 1 }, /* ] */\n];\n"

	span, err := Locate(body, "newsData")
	require.NoError(t, err)
	assert.Equal(t, len(body)-2, span.End)
}

func TestLocate_EscapedQuotes(t *testing.T) {
	body := "export const eventsData = [\n  { id: 1, title: \"say \\\"]\\\"\" }\n];"

	span, err := Locate(body, "eventsData")
	require.NoError(t, err)
	assert.Equal(t, len(body)-1, span.End)
}

func TestLocate_GenericAnnotation(t *testing.T) {
	body := "export const eventsData: Array<Record<string, () => void>> = [\n];\n"

	span, err := Locate(body, "eventsData")
	require.NoError(t, err)
	assert.Equal(t, "[\n]", span.Text(body))
}

func TestSplice_PreservesSurroundingText(t *testing.T) {
	span, err := Locate(eventsFile, "eventsData")
	require.NoError(t, err)

	out := Splice(eventsFile, span, "[\n]")

	assert.Contains(t, out, "export const eventsData: EventItem[] = [\n];\n")
	assert.Contains(t, out, "import type { EventItem } from \"./types\";")
	assert.Contains(t, out, "export function latest() {")
	assert.NotContains(t, out, "Spring fair")
}
