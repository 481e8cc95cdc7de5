// Package research condenses market research text before it is embedded in a
// generation request. Reports scraped from the web are long and mostly
// irrelevant to a single offer concept, so paragraphs are ranked against the
// concept and only the best ones are kept, in their original order.
//
// Ranking uses Jaccard similarity between the query token set and each
// paragraph's token set: score = |Q ∩ P| / |Q ∪ P|. An Index is read-only
// after construction and safe for concurrent use.
package research

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Result is a ranked paragraph. Position is its ordinal in the source text.
type Result struct {
	Snippet  string
	Score    float64
	Position int
}

// Index ranks paragraphs against a query.
type Index interface {
	TopK(query string, k int) []Result
	Len() int
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minParagraphRunes int
	stopwords         map[string]struct{}
}

func defaultConfig() config {
	return config{
		minParagraphRunes: 20,
		stopwords:         toSet(englishStopwords),
	}
}

// WithMinParagraphRunes drops paragraphs shorter than n runes. Negative n is ignored.
func WithMinParagraphRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minParagraphRunes = n
		}
	}
}

// WithStopwords replaces the default English stop-word list. An empty list
// disables stop-word removal.
func WithStopwords(words []string) Option {
	return func(c *config) {
		c.stopwords = toSet(words)
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	text   string
	tokens map[string]struct{}
	pos    int
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndex splits text on blank lines and indexes every paragraph.
func NewIndex(text string, opts ...Option) Index {
	return NewIndexFromParagraphs(SplitParagraphs(text), opts...)
}

// NewIndexFromParagraphs indexes the given paragraphs in order.
func NewIndexFromParagraphs(paragraphs []string, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	docs := make([]doc, 0, len(paragraphs))
	for i, raw := range paragraphs {
		t := strings.TrimSpace(normalizeWhitespace(raw))
		if t == "" {
			continue
		}
		if cfg.minParagraphRunes > 0 && utf8.RuneCountInString(t) < cfg.minParagraphRunes {
			continue
		}
		toks := tokenize(t, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		docs = append(docs, doc{text: t, tokens: toks, pos: i})
	}
	return &index{cfg: cfg, docs: docs}
}

func (i *index) Len() int { return len(i.docs) }

// TopK returns up to k paragraphs with non-zero similarity, best first.
// Ties break on shorter paragraph, then earlier position.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}

	type scored struct {
		Result
		lenRunes int
	}
	buf := make([]scored, 0, len(i.docs))
	for _, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(len(qTokens) + len(d.tokens) - over)
		buf = append(buf, scored{
			Result:   Result{Snippet: d.text, Score: float64(over) / union, Position: d.pos},
			lenRunes: utf8.RuneCountInString(d.text),
		})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].Score != buf[b].Score {
			return buf[a].Score > buf[b].Score
		}
		if buf[a].lenRunes != buf[b].lenRunes {
			return buf[a].lenRunes < buf[b].lenRunes
		}
		return buf[a].Position < buf[b].Position
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for j := 0; j < k; j++ {
		out[j] = buf[j].Result
	}
	return out
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	// Casers are stateful; one per call.
	words := wordRE.FindAllString(cases.Fold().String(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

var paraSplitRE = regexp.MustCompile(`\n\s*\n`)

// SplitParagraphs splits text on blank lines, dropping empty chunks.
func SplitParagraphs(text string) []string {
	chunks := paraSplitRE.Split(strings.ReplaceAll(text, "\r\n", "\n"), -1)
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if t := strings.TrimSpace(c); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			m[w] = struct{}{}
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

var englishStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "but", "by", "for", "from",
	"has", "have", "how", "i", "in", "is", "it", "its", "of", "on", "or",
	"our", "that", "the", "their", "them", "they", "this", "to", "was",
	"we", "were", "what", "when", "which", "who", "will", "with", "you", "your",
}
