package research

import (
	"bufio"
	"strings"
)

// FlattenTables turns every Markdown table row into its own paragraph so a
// row can be ranked as a standalone fact. Separator rows are dropped, cells
// are joined with single spaces and other lines pass through unchanged.
// Text without tables is returned as-is.
func FlattenTables(text string) string {
	if !strings.Contains(text, "|") {
		return text
	}

	var b strings.Builder
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	sawTable := false
	inTable := false
	for sc.Scan() {
		raw := sc.Text()
		line := strings.TrimSpace(raw)

		if isTableRow(line) {
			sawTable = true
			if !inTable && b.Len() > 0 {
				b.WriteByte('\n') // close the preceding paragraph
			}
			inTable = true
			if fact := rowFact(line); fact != "" {
				b.WriteString(fact)
				b.WriteString("\n\n")
			}
			continue
		}

		inTable = false
		b.WriteString(raw)
		b.WriteByte('\n')
	}
	if sc.Err() != nil || !sawTable {
		return text
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func isTableRow(line string) bool {
	return len(line) > 1 && strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|")
}

// rowFact joins the non-empty cells of a row. Separator rows yield "".
func rowFact(line string) string {
	cols := strings.Split(strings.Trim(line, "|"), "|")
	cells := make([]string, 0, len(cols))
	allSep := true
	for _, c := range cols {
		cell := strings.TrimSpace(c)
		if cell != "" {
			cells = append(cells, cell)
		}
		if strings.Trim(cell, ":-") != "" {
			allSep = false
		}
	}
	if allSep {
		return ""
	}
	return strings.Join(cells, " ")
}
