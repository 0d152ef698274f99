package ui

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

type MPBProgressManager struct {
	p *mpb.Progress
}

// NewProgressManager renders bars only when enabled and stdout is a
// terminal. Otherwise every handle it returns is a no-op.
func NewProgressManager(enabled bool) *MPBProgressManager {
	if !enabled || !term.IsTerminal(int(os.Stdout.Fd())) {
		return &MPBProgressManager{}
	}

	p := mpb.New(
		mpb.WithWidth(40),
		mpb.WithOutput(os.Stdout),
		mpb.WithRefreshRate(150*time.Millisecond),
	)
	return &MPBProgressManager{p: p}
}

// Close waits for the bars to finish rendering. It is safe to call twice.
func (pm *MPBProgressManager) Close() {
	if pm.p != nil {
		pm.p.Wait()
		pm.p = nil
	}
}

// Register adds a bar counting units (e.g. "frames") under the given name.
func (pm *MPBProgressManager) Register(name, unit string) *ProgressHandle {
	h := &ProgressHandle{name: name, unit: unit}
	if pm.p != nil {
		h.initBar(pm.p)
	}
	return h
}

type ProgressHandle struct {
	name string
	unit string
	bar  *mpb.Bar

	total   atomic.Int64
	current atomic.Int64

	start   time.Time
	elapsed atomic.Int64
	final   atomic.Bool
}

func (h *ProgressHandle) initBar(p *mpb.Progress) {
	h.start = time.Now()
	h.bar = p.New(
		0,
		mpb.BarStyle().Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(h.name+"  "),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit(" %d/%d "+h.unit, decor.WCSyncWidth),
			decor.Any(func(_ decor.Statistics) string {
				if h.final.Load() {
					return fmt.Sprintf(" | %ds", h.elapsed.Load())
				}
				return fmt.Sprintf(" | %ds", int(time.Since(h.start).Seconds()))
			}),
		),
	)
}

// SetTotal only ever grows the total; steps that discover their element
// count at run time call it with the new estimate.
func (h *ProgressHandle) SetTotal(total int) {
	if h == nil || h.final.Load() {
		return
	}
	if int64(total) <= h.total.Load() {
		return
	}

	h.total.Store(int64(total))
	if h.bar != nil {
		h.bar.SetTotal(int64(total), false)
	}
}

func (h *ProgressHandle) Increment() {
	if h == nil || h.final.Load() {
		return
	}

	n := h.current.Add(1)
	if n > h.total.Load() {
		h.SetTotal(int(n))
	}
	if h.bar != nil {
		h.bar.SetCurrent(n)
	}
}

func (h *ProgressHandle) Current() int {
	if h == nil {
		return 0
	}
	return int(h.current.Load())
}

func (h *ProgressHandle) MarkDone() {
	if h == nil || h.final.Swap(true) {
		return
	}
	if h.bar == nil {
		return
	}

	h.elapsed.Store(int64(time.Since(h.start).Seconds()))
	n := h.current.Load()
	h.bar.SetCurrent(n)
	h.bar.SetTotal(n, true)
}
