package capture

import (
	"context"
	"errors"
	"time"
)

var (
	ErrElementNotFound = errors.New("element not found")
	ErrNotInteractive  = errors.New("manual login needs an interactive terminal")
)

// Box is an element's border box in CSS pixels, relative to the viewport.
type Box struct {
	X, Y, Width, Height float64
}

// Element is a snapshot of a matched DOM node taken when it was queried.
type Element struct {
	NodeID int64
	Text   string
	// Box is nil when the element is not rendered.
	Box *Box
}

// Page is the browser surface the runner drives.
type Page interface {
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Visible(ctx context.Context, selector string, timeout time.Duration) bool
	Click(ctx context.Context, selector string) error
	// Fill replaces the value of the input matched by selector.
	Fill(ctx context.Context, selector, value string) error
	// Elements returns the matches of selector in document order.
	Elements(ctx context.Context, selector string) ([]Element, error)
	Hover(ctx context.Context, el Element) error
	ClickElement(ctx context.Context, el Element) error
	ScrollIntoView(ctx context.Context, el Element) error
	ScrollBy(ctx context.Context, dx, dy int) error
	ScrollTo(ctx context.Context, x, y int) error
	Screenshot(ctx context.Context, path string, fullPage bool) error
	InjectCSS(ctx context.Context, css string) error
	HTML(ctx context.Context) (string, error)
}

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Println(args ...any)
}

// Progress receives frame counts. ui.ProgressHandle implements it.
type Progress interface {
	SetTotal(total int)
	Increment()
	Current() int
}
