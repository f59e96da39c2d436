package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardsNumberedSectionWithHeader(t *testing.T) {
	text := strings.Join([]string{
		"### Strategy",
		"1. **Book Early**",
		"   - **Why:** Venues fill up fast",
		"   - Call ahead",
		"2. **Keep It Small**",
		"3. **Outdoor Option**",
	}, "\n")

	sections := Cards(text)
	require.Len(t, sections, 1)
	section := sections[0]
	assert.Equal(t, "Strategy", section.Header)
	require.Len(t, section.Cards, 3)

	first := section.Cards[0]
	assert.Equal(t, "#1", first.Badge)
	assert.Equal(t, "Book Early", first.Title)
	require.Len(t, first.Details, 2)
	assert.Equal(t, Detail{Key: "Why", Value: "Venues fill up fast"}, first.Details[0])
	assert.Equal(t, Detail{Value: "Call ahead"}, first.Details[1])

	assert.Equal(t, "Keep It Small", section.Cards[1].Title)
	assert.Equal(t, "Outdoor Option", section.Cards[2].Title)
}

func TestCardsNumberedItemWithoutBoldTitle(t *testing.T) {
	text := "1. **Proper Card**\n2. just plain content"
	sections := Cards(text)
	require.Len(t, sections, 1)
	require.Len(t, sections[0].Cards, 2)

	plain := sections[0].Cards[1]
	assert.Equal(t, "Item 2", plain.Badge)
	assert.Equal(t, "just plain content", plain.Title)
	assert.Empty(t, plain.Details)
}

func TestCardsUnmatchedChunkPreservedAsFallback(t *testing.T) {
	text := strings.Join([]string{
		"Some intro paragraph before the list.",
		"1. **Real Item**",
		"2. **Another Item**",
	}, "\n")

	sections := Cards(text)
	require.Len(t, sections, 1)
	require.Len(t, sections[0].Cards, 3)

	fallback := sections[0].Cards[0]
	assert.Empty(t, fallback.Title)
	assert.Equal(t, "Some intro paragraph before the list.", fallback.Text)
}

func TestCardsBulletedSection(t *testing.T) {
	text := strings.Join([]string{
		"### Gift Ideas",
		"- **Art Supplies** something thoughtful",
		"  - **Budget:** $50",
		"- **Concert Tickets**",
		"  - **Where:** City Hall",
	}, "\n")

	sections := Cards(text)
	require.Len(t, sections, 1)
	section := sections[0]
	assert.Equal(t, "Gift Ideas", section.Header)
	require.Len(t, section.Cards, 2)

	first := section.Cards[0]
	assert.Equal(t, BadgeCheck, first.Badge)
	assert.Equal(t, "Art Supplies", first.Title)

	second := section.Cards[1]
	assert.Equal(t, "Concert Tickets", second.Title)
	require.Len(t, second.Details, 1)
	assert.Equal(t, Detail{Key: "Where", Value: "City Hall"}, second.Details[0])
}

func TestCardsPlainTextSection(t *testing.T) {
	text := "### Notes\nNothing listed here, just advice in prose."
	sections := Cards(text)
	require.Len(t, sections, 1)
	assert.Equal(t, "Notes", sections[0].Header)
	assert.Empty(t, sections[0].Cards)
	assert.Equal(t, "Nothing listed here, just advice in prose.", sections[0].Text)
}

func TestCardsMultipleSections(t *testing.T) {
	text := strings.Join([]string{
		"Preamble without a header.",
		"### Venues",
		"1. **Rooftop Bar**",
		"### Gifts",
		"- **Flowers**",
	}, "\n")

	sections := Cards(text)
	require.Len(t, sections, 3)
	assert.Empty(t, sections[0].Header)
	assert.Equal(t, "Preamble without a header.", sections[0].Text)
	assert.Equal(t, "Venues", sections[1].Header)
	require.Len(t, sections[1].Cards, 1)
	assert.Equal(t, "Rooftop Bar", sections[1].Cards[0].Title)
	assert.Equal(t, "Gifts", sections[2].Header)
	require.Len(t, sections[2].Cards, 1)
	assert.Equal(t, BadgeCheck, sections[2].Cards[0].Badge)
}

func TestCardsHeaderOnlySectionSkipped(t *testing.T) {
	assert.Empty(t, Cards("### Lonely Header\n"))
}

func TestCardsEmptyInput(t *testing.T) {
	assert.NotNil(t, Cards(""))
	assert.Empty(t, Cards(""))
	assert.Empty(t, Cards("   \n  "))
}

func TestCardsNumberedWithParenthesisMarker(t *testing.T) {
	text := "1) **First**\n2) **Second**"
	sections := Cards(text)
	require.Len(t, sections, 1)
	require.Len(t, sections[0].Cards, 2)
	assert.Equal(t, "#2", sections[0].Cards[1].Badge)
}

func TestCardsIdempotent(t *testing.T) {
	text := "### Strategy\n1. **Plan**\n- **When:** Soon"
	assert.Equal(t, Cards(text), Cards(text))
}
