package inspect

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><body>
<aside>
  <button data-testid="sidebar-toggle-button">Toggle</button>
  <div data-testid="sidebar-history-item">Q3 strategy   review</div>
  <div data-testid="sidebar-history-item">Pricing</div>
  <button data-testid="user-nav-button">
     <img src="a.png"/> <span data-testid="user-email">someone@example.com</span>
  </button>
</aside>
<div data-testid="">ignored</div>
<main data-testid="chat">A very long paragraph of text that definitely exceeds forty characters</main>
</body></html>`

func TestTestIDs(t *testing.T) {
	ids, err := TestIDs(page)
	require.NoError(t, err)

	require.Len(t, ids, 5)
	assert.Equal(t, "sidebar-toggle-button", ids[0].ID)
	assert.Equal(t, "button", ids[0].Tag)
	assert.Equal(t, "Toggle", ids[0].Text)

	assert.Equal(t, "sidebar-history-item", ids[1].ID)
	assert.Equal(t, 2, ids[1].Count)
	assert.Equal(t, "Q3 strategy review", ids[1].Text)

	assert.Equal(t, "user-nav-button", ids[2].ID)
	assert.Equal(t, "someone@example.com", ids[2].Text)
	assert.Equal(t, "user-email", ids[3].ID)

	assert.Equal(t, "main", ids[4].Tag)
	assert.Len(t, []rune(ids[4].Text), maxTextLen)
	assert.True(t, strings.HasSuffix(ids[4].Text, "…"))
}

func TestFilter(t *testing.T) {
	ids, err := TestIDs(page)
	require.NoError(t, err)

	got := Filter(ids, "USER")
	require.Len(t, got, 2)
	assert.Equal(t, `[data-testid="user-nav-button"]`, got[0].Selector())
	assert.Len(t, Filter(ids, ""), 5)
}

func TestFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Format(&buf, []TestID{{ID: "user-nav-menu", Tag: "div", Count: 1, Text: "Account"}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "TESTID"))
	assert.Contains(t, lines[1], "user-nav-menu")
	assert.Contains(t, lines[1], "Account")
}
