package extract

import (
	"regexp"
	"strings"
)

// Detail is one line of a card body. Key is empty for plain lines.
type Detail struct {
	Key   string `json:"key,omitempty"`
	Value string `json:"value"`
}

// Card is a single recommendation or gift idea. A chunk that matched no
// recognized item shape is preserved verbatim in Text instead of dropped.
type Card struct {
	Badge   string   `json:"badge,omitempty"`
	Title   string   `json:"title,omitempty"`
	Details []Detail `json:"details,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Section groups the cards under one "### " header. When a section body is
// neither a numbered nor a bulleted list it is carried as a plain text block.
type Section struct {
	Header string `json:"header,omitempty"`
	Cards  []Card `json:"cards,omitempty"`
	Text   string `json:"text,omitempty"`
}

// BadgeCheck marks bulleted items, which carry no ordinal of their own.
const BadgeCheck = "✓"

var (
	sectionHeaderRe = regexp.MustCompile(`(?m)^###[ \t]+`)
	numberedStartRe = regexp.MustCompile(`(?m)^\d+[.)]\s`)
	numberedItemRe  = regexp.MustCompile(`^(\d+)[.)]\s+([\s\S]*)$`)
	bulletStartRe   = regexp.MustCompile(`(?m)^-\s+\*\*`)
	bulletTitleRe   = regexp.MustCompile(`^-\s*\*\*(.*?)\*\*`)
	detailPairRe    = regexp.MustCompile(`^-\s*\*\*(.*?):\*\*\s*(.*)$`)
)

// Cards segments already-extracted recommendation text into sections of
// structured cards. It is pure and total: empty input yields an empty slice,
// and unmatched chunks surface as fallback entries.
func Cards(text string) []Section {
	sections := []Section{}
	for _, segment := range splitBefore(sectionHeaderRe, text) {
		header, body := splitHeader(segment)
		body = strings.TrimSpace(body)
		if body == "" {
			continue
		}
		sections = append(sections, parseSection(header, body))
	}
	return sections
}

func splitHeader(segment string) (header, body string) {
	if !strings.HasPrefix(segment, "###") {
		return "", segment
	}
	rest := strings.TrimLeft(segment[3:], " \t")
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		return strings.TrimSpace(rest[:idx]), rest[idx+1:]
	}
	return strings.TrimSpace(rest), ""
}

// parseSection detects the list style of a section body: numbered first,
// then bulleted, then a plain text block.
func parseSection(header, body string) Section {
	chunks := trimmedChunks(splitBefore(numberedStartRe, body))
	if anyMatch(chunks, numberedStartRe) {
		return Section{Header: header, Cards: numberedCards(chunks)}
	}

	chunks = trimmedChunks(splitBefore(bulletStartRe, body))
	if anyPrefixed(chunks, "- **") {
		return Section{Header: header, Cards: bulletCards(chunks)}
	}

	return Section{Header: header, Text: body}
}

func numberedCards(chunks []string) []Card {
	cards := make([]Card, 0, len(chunks))
	for _, chunk := range chunks {
		m := numberedItemRe.FindStringSubmatch(chunk)
		if m == nil {
			cards = append(cards, Card{Text: chunk})
			continue
		}
		ordinal, rest := m[1], m[2]
		if title := leadingBoldRe.FindStringSubmatch(rest); title != nil {
			cards = append(cards, Card{
				Badge:   "#" + ordinal,
				Title:   title[1],
				Details: parseDetails(rest[len(title[0]):]),
			})
			continue
		}
		cards = append(cards, Card{
			Badge: "Item " + ordinal,
			Title: strings.TrimSpace(rest),
		})
	}
	return cards
}

func bulletCards(chunks []string) []Card {
	cards := make([]Card, 0, len(chunks))
	for _, chunk := range chunks {
		m := bulletTitleRe.FindStringSubmatch(chunk)
		if m == nil {
			cards = append(cards, Card{Text: chunk})
			continue
		}
		cards = append(cards, Card{
			Badge:   BadgeCheck,
			Title:   m[1],
			Details: parseDetails(chunk[len(m[0]):]),
		})
	}
	return cards
}

// parseDetails turns the remainder of an item into labeled pairs where lines
// look like "- **Key:** Value" and plain strings otherwise.
func parseDetails(src string) []Detail {
	var details []Detail
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := detailPairRe.FindStringSubmatch(line); m != nil {
			details = append(details, Detail{Key: m[1], Value: strings.TrimSpace(m[2])})
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "- "))
		if line != "" {
			details = append(details, Detail{Value: line})
		}
	}
	return details
}

// splitBefore cuts text at the start of every match, keeping the match with
// its following chunk. The stdlib regexp package has no lookahead, so the
// split points come from match offsets instead.
func splitBefore(re *regexp.Regexp, text string) []string {
	if text == "" {
		return nil
	}
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}
	var parts []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			parts = append(parts, text[prev:loc[0]])
		}
		prev = loc[0]
	}
	parts = append(parts, text[prev:])
	return parts
}

func trimmedChunks(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func anyMatch(chunks []string, re *regexp.Regexp) bool {
	for _, chunk := range chunks {
		if loc := re.FindStringIndex(chunk); loc != nil && loc[0] == 0 {
			return true
		}
	}
	return false
}

func anyPrefixed(chunks []string, prefix string) bool {
	for _, chunk := range chunks {
		if strings.HasPrefix(chunk, prefix) {
			return true
		}
	}
	return false
}
