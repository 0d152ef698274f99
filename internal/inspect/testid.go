package inspect

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/PuerkitoBio/goquery"
)

const maxTextLen = 40

type TestID struct {
	ID   string
	Tag  string
	Text string
	// Count is how many elements share the ID.
	Count int
}

// Selector is the CSS selector a scenario step would use.
func (t TestID) Selector() string {
	return fmt.Sprintf(`[data-testid=%q]`, t.ID)
}

// TestIDs returns each distinct data-testid in document order, with the
// tag and trimmed text of its first occurrence.
func TestIDs(html string) ([]TestID, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var out []TestID
	index := map[string]int{}

	doc.Find("[data-testid]").Each(func(_ int, sel *goquery.Selection) {
		id := strings.TrimSpace(sel.AttrOr("data-testid", ""))
		if id == "" {
			return
		}
		if i, ok := index[id]; ok {
			out[i].Count++
			return
		}

		index[id] = len(out)
		out = append(out, TestID{
			ID:    id,
			Tag:   goquery.NodeName(sel),
			Text:  shorten(collapse(sel.Text()), maxTextLen),
			Count: 1,
		})
	})

	return out, nil
}

// Filter keeps IDs containing substr, case-insensitively.
func Filter(ids []TestID, substr string) []TestID {
	if substr == "" {
		return ids
	}
	substr = strings.ToLower(substr)

	var out []TestID
	for _, id := range ids {
		if strings.Contains(strings.ToLower(id.ID), substr) {
			out = append(out, id)
		}
	}
	return out
}

func Format(w io.Writer, ids []TestID) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TESTID\tTAG\tCOUNT\tTEXT")
	for _, id := range ids {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", id.ID, id.Tag, id.Count, id.Text)
	}
	return tw.Flush()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
