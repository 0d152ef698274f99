package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brogergvhs/democap/internal/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planCards() []Element {
	return []Element{
		{NodeID: 10, Text: "Free\nFor trying things out", Box: &Box{X: 100, Y: 300, Width: 300, Height: 400}},
		{NodeID: 11, Text: "Pro\nUnlimited projects", Box: &Box{X: 450, Y: 300, Width: 300, Height: 400}},
		{NodeID: 12, Text: "Team\nFor companies", Box: &Box{X: 800, Y: 300, Width: 300, Height: 400}},
		// Too small.
		{NodeID: 13, Text: "Pro badge", Box: &Box{X: 460, Y: 310, Width: 40, Height: 20}},
		// Not rendered.
		{NodeID: 14, Text: "Hidden plan", Box: nil},
	}
}

func TestHoverCards_Filters(t *testing.T) {
	f := newRunnerFixture(t)
	f.page.elements[".card"] = planCards()
	// Same nodes reached through a second selector.
	f.page.elements["[data-plan]"] = planCards()[:2]

	step := scenario.Step{
		Action:    scenario.ActionHoverCards,
		Selectors: []string{".card", "[data-plan]"},
		MinWidth:  200,
		MinHeight: 150,
		Frames:    3,
		Hold:      true,
		Interval:  300 * time.Millisecond,
	}
	sc := &scenario.Scenario{Name: "cards", Steps: []scenario.Step{step}}

	res, err := f.runner.Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Len(t, res.Frames, 3*(3+1))
	assert.Equal(t, []string{
		"hover 10", "hover 10", "hover 10",
		"hover 11", "hover 11", "hover 11",
		"hover 12", "hover 12", "hover 12",
	}, f.page.called("hover"))

	out := f.log.String()
	assert.Contains(t, out, "Found card: Free")
	assert.Contains(t, out, "Hovering over 3 card(s)")
}

func TestHoverCards_TextFiltersAndLimit(t *testing.T) {
	f := newRunnerFixture(t)
	f.page.elements[".card"] = planCards()

	sc := &scenario.Scenario{Name: "cards", Steps: []scenario.Step{{
		Action:         scenario.ActionHoverCards,
		Selectors:      []string{".card"},
		AnyText:        []string{"pro", "TEAM"},
		Limit:          1,
		Frames:         1,
		ScrollIntoView: true,
	}}}

	res, err := f.runner.Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Len(t, res.Frames, 1)
	assert.Equal(t, []string{"hover 11"}, f.page.called("hover"))
	assert.Equal(t, []string{"scroll-into-view 11"}, f.page.called("scroll-into-view"))
}

func TestHoverCards_RequireText(t *testing.T) {
	f := newRunnerFixture(t)
	f.page.elements[".card"] = planCards()

	sc := &scenario.Scenario{Name: "cards", Steps: []scenario.Step{{
		Action:      scenario.ActionHoverCards,
		Selectors:   []string{".card"},
		RequireText: []string{"for", "companies"},
		Frames:      1,
	}}}

	_, err := f.runner.Run(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, []string{"hover 12"}, f.page.called("hover"))
}

func TestHoverCards_DedupeByRow(t *testing.T) {
	f := newRunnerFixture(t)
	f.page.elements[".card"] = planCards()

	run := func(mode string) []string {
		f.page.calls = nil
		sc := &scenario.Scenario{Name: "cards", Steps: []scenario.Step{{
			Action:    scenario.ActionHoverCards,
			Selectors: []string{".card"},
			Dedupe:    mode,
			Frames:    1,
		}}}
		_, err := f.runner.Run(context.Background(), sc)
		require.NoError(t, err)
		return f.page.called("hover")
	}

	assert.Equal(t, []string{"hover 10", "hover 13"}, run("y"))
	assert.Len(t, run("xy"), 4)
	assert.Len(t, run("none"), 4)
}

func TestHoverCards_HoverErrorSkipsCard(t *testing.T) {
	f := newRunnerFixture(t)
	f.page.elements[".card"] = planCards()[:3]
	f.page.hoverErr[11] = errors.New("node detached")

	sc := &scenario.Scenario{Name: "cards", Steps: []scenario.Step{{
		Action:    scenario.ActionHoverCards,
		Selectors: []string{".card"},
		Frames:    2,
	}}}

	res, err := f.runner.Run(context.Background(), sc)
	require.NoError(t, err)
	assert.Len(t, res.Frames, 4)
	assert.Contains(t, f.log.String(), "Error hovering card 2")
}

func TestCardTitle(t *testing.T) {
	assert.Equal(t, "Unknown", cardTitle("  \n "))
	assert.Equal(t, "Pro", cardTitle("\n Pro \nUnlimited"))
	assert.Equal(t, "abcdefghijklmnopqrstuvwxyz0123", cardTitle("abcdefghijklmnopqrstuvwxyz0123456789"))
}
