package scenario

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidScenario(t *testing.T) {
	doc := `
name: profile-dropdown
description: Open the profile menu
url: /new
framerate: 6
viewport: {width: 1400, height: 900, scale: 1}
login:
  mode: manual
  message: ["Log in to your account"]
steps:
  - action: require_visible
    selector: '[data-testid="user-nav-button"]'
    timeout: 5s
  - action: capture
    count: 3
    interval: 100ms
  - action: click
    selector: '[data-testid="user-nav-button"]'
    settle: 400ms
  - action: hover_each
    selector: '[data-testid="user-nav-menu"] a, [data-testid="user-nav-menu"] button'
    settle: 200ms
    frames: 2
    interval: 150ms
`
	sc, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "profile-dropdown", sc.Name)
	assert.Equal(t, LoginManual, sc.Login.EffectiveMode())
	require.Len(t, sc.Steps, 4)
	assert.Equal(t, 5*time.Second, sc.Steps[0].Timeout)
	assert.Equal(t, 100*time.Millisecond, sc.Steps[1].Interval)
	assert.Equal(t, 400*time.Millisecond, sc.Steps[2].Settle)
	assert.Equal(t, 2, sc.Steps[3].Frames)
	assert.Equal(t, 1400, sc.Viewport.Width)

	assert.True(t, sc.CapturesFrames())
	assert.Equal(t, 5, sc.EstimateFrames())
	assert.Equal(t, "profile-dropdown.gif", sc.OutputName())
	assert.Equal(t, "profile-dropdown-frames.zip", sc.ArchiveName())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "", "empty scenario file"},
		{"unknown field", "name: x\nstepz: []\n", "failed to parse scenario"},
		{"no name", "steps: [{action: scroll_top}]\n", "name must be non-empty"},
		{"no steps", "name: x\n", "at least one step"},
		{"unknown action", "name: x\nsteps: [{action: dance}]\n", `step 0 (dance): unknown action "dance"`},
		{"missing action", "name: x\nsteps: [{selector: a}]\n", "action is required"},
		{"bad login", "name: x\nlogin: {mode: sso}\nsteps: [{action: scroll_top}]\n", `login: unknown mode "sso"`},
		{"bad viewport", "name: x\nviewport: {width: 0, height: 10}\nsteps: [{action: scroll_top}]\n", "viewport: width and height"},
		{"capture count", "name: x\nsteps: [{action: capture}]\n", "count must be at least 1"},
		{"negative interval", "name: x\nsteps: [{action: capture, count: 1, interval: -1s}]\n", "interval must not be negative"},
		{"goto url", "name: x\nsteps: [{action: goto}]\n", "url is required"},
		{"sleep", "name: x\nsteps: [{action: sleep}]\n", "duration must be positive"},
		{"click selector", "name: x\nsteps: [{action: click}]\n", "selector is required"},
		{"select text", "name: x\nsteps: [{action: select_item, selector: a}]\n", "selector and text are required"},
		{"scroll repeat", "name: x\nsteps: [{action: scroll, by: 100}]\n", "repeat must be at least 1"},
		{"cards selectors", "name: x\nsteps: [{action: hover_cards}]\n", "selectors must contain"},
		{"cards dedupe", "name: x\nsteps: [{action: hover_cards, selectors: [a], dedupe: z}]\n", "dedupe must be"},
		{"css", "name: x\nsteps: [{action: inject_css, css: ' '}]\n", "css is required"},
		{"still ext", "name: x\nsteps: [{action: screenshot, name: a.jpg}]\n", "must end in .png"},
		{"still path", "name: x\nsteps: [{action: screenshot, name: ../a.png}]\n", "bare file name"},
		{"still pattern", "name: x\nsteps: [{action: hover_each, selector: a, name: item.png}]\n", "exactly one %d"},
		{"hover frames", "name: x\nsteps: [{action: hover_each, selector: a}]\n", "frames must be at least 1"},
		{"still pattern verbs", "name: x\nsteps: [{action: hover_each, selector: a, name: '%s%d.png'}]\n", "no other verbs"},
		{"still pattern escaped", "name: x\nsteps: [{action: hover_each, selector: a, name: 'item-%%-%d.png'}]\n", "no other verbs"},
		{"fill selector", "name: x\nsteps: [{action: fill, value: a}]\n", "selector is required"},
		{"login step capture", "name: x\nlogin: {steps: [{action: capture, count: 1}]}\nsteps: [{action: scroll_top}]\n", "login: step 0 (capture): not allowed before login"},
		{"login step invalid", "name: x\nlogin: {steps: [{action: fill}]}\nsteps: [{action: scroll_top}]\n", "login: step 0 (fill): selector is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("does-not-exist.yaml")
	assert.ErrorContains(t, err, "failed to open scenario file")
}

func TestScenario_StillsOnly(t *testing.T) {
	sc := &Scenario{
		Name: "stills",
		Steps: []Step{
			{Action: ActionScreenshot, Name: "closed.png"},
			{Action: ActionHoverEach, Selector: "a", Name: "item-%d.png"},
			{Action: ActionScroll, Repeat: 2},
		},
	}
	require.NoError(t, sc.Validate())
	assert.False(t, sc.CapturesFrames())
	assert.Zero(t, sc.EstimateFrames())
	assert.True(t, sc.Steps[1].WritesStills())
}

func TestScenario_EstimateFrames(t *testing.T) {
	sc := &Scenario{Steps: []Step{
		{Action: ActionCapture, Count: 3},
		{Action: ActionScroll, Repeat: 5, Capture: true},
		{Action: ActionSelectItem, Frames: 5},
		{Action: ActionHoverCards, Frames: 4, Hold: true, Limit: 3},
		{Action: ActionClick},
	}}
	assert.Equal(t, 3+5+5+15, sc.EstimateFrames())
}

func TestLoad_LoginSteps(t *testing.T) {
	doc := `
name: signup
url: /signup
login:
  mode: auto
  steps:
    - action: fill
      selector: 'input[name="email"]'
      value: gif-demo-{{random}}@test.com
    - action: click
      selector: 'button[type="submit"]'
    - action: goto
      url: /new
steps:
  - action: capture
    count: 1
`
	sc, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, sc.Login.Steps, 3)
	assert.Equal(t, LoginAuto, sc.Login.EffectiveMode())
	assert.Equal(t, 1, sc.EstimateFrames())

	fill := sc.Login.Steps[0]
	assert.Equal(t, "gif-demo-1a2b3c4d@test.com", fill.FillValue("1a2b3c4d"))
	assert.Equal(t, `fill input[name="email"]`, fill.Describe())
}

func TestStep_WaitTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, (&Step{}).WaitTimeout())
	assert.Equal(t, time.Second, (&Step{Timeout: time.Second}).WaitTimeout())
}

func TestStep_Describe(t *testing.T) {
	assert.Equal(t, "goto /subscription", (&Step{Action: ActionGoto, URL: "/subscription"}).Describe())
	assert.Equal(t, `hover+click item "subscription" in a, 5 frame(s)`,
		(&Step{Action: ActionSelectItem, Selector: "a", Text: "subscription", Frames: 5, Click: true}).Describe())
	assert.Equal(t, "scroll to top", (&Step{Action: ActionScrollTop}).Describe())
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"profile-dropdown":          "profile-dropdown",
		"Profile Dropdown (manual)": "profile-dropdown-manual",
		"  Subscription  Flow ":     "subscription-flow",
		"a/b\\c.d":                  "a-b-c-d",
		"__x__":                     "x",
		"!!!":                       "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "custom.gif", (&Scenario{Name: "x", Output: "custom.gif"}).OutputName())
	assert.Equal(t, "capture.gif", (&Scenario{Name: "???"}).OutputName())
}

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "http://localhost:3000/new", ResolveURL("http://localhost:3000", "/new"))
	assert.Equal(t, "http://localhost:3000/subscription", ResolveURL("http://localhost:3000/", "subscription"))
	assert.Equal(t, "https://prod.example.com/new", ResolveURL("http://localhost:3000", "https://prod.example.com/new"))
	assert.Equal(t, "http://localhost:3000", ResolveURL("http://localhost:3000", ""))

	sc := &Scenario{URL: "/demo"}
	assert.Equal(t, "http://localhost:3000/demo", sc.StartURL("http://localhost:3000"))
}
