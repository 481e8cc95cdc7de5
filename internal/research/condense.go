package research

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Condense returns at most maxRunes of text, keeping the paragraphs that best
// match query. Text that already fits is returned trimmed and untouched.
// Selected paragraphs keep their original relative order. When nothing
// matches the query the leading paragraphs are kept instead. maxRunes <= 0
// disables condensing.
func Condense(text, query string, maxRunes int, opts ...Option) string {
	text = strings.TrimSpace(text)
	if text == "" || maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	paras := SplitParagraphs(FlattenTables(text))
	idx := NewIndexFromParagraphs(paras, opts...)

	ranked := idx.TopK(query, idx.Len())
	order := make([]int, 0, len(ranked))
	for _, r := range ranked {
		order = append(order, r.Position)
	}
	if len(order) == 0 {
		for i := range paras {
			order = append(order, i)
		}
	}

	const sep = "\n\n"
	budget := maxRunes
	picked := make([]int, 0, len(order))
	for _, pos := range order {
		n := utf8.RuneCountInString(paras[pos])
		if len(picked) > 0 {
			n += len(sep)
		}
		if n > budget {
			continue
		}
		budget -= n
		picked = append(picked, pos)
	}

	if len(picked) == 0 {
		// Even the best paragraph is too long; cut it on a rune boundary.
		return truncateRunes(paras[order[0]], maxRunes)
	}

	sort.Ints(picked)
	out := make([]string, len(picked))
	for i, pos := range picked {
		out[i] = paras[pos]
	}
	return strings.Join(out, sep)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return strings.TrimSpace(s[:pos])
		}
		i++
	}
	return s
}
