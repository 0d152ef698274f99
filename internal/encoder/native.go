package encoder

import (
	"context"
	"fmt"
	"image"
	"image/gif"
	_ "image/png"
	"os"
	"runtime"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// Native encodes GIFs without external tools. Output is larger and
// slower to produce than ffmpeg's, but needs nothing installed.
type Native struct {
	// Workers bounds concurrent decoding and dithering. Zero means one
	// per CPU.
	Workers int
}

func NewNative() *Native {
	return &Native{}
}

func (n *Native) Name() string { return KindNative }

func (n *Native) workers() int {
	if n.Workers > 0 {
		return n.Workers
	}
	return runtime.NumCPU()
}

func (n *Native) Encode(ctx context.Context, job Job) error {
	if err := job.validate(); err != nil {
		return err
	}

	frames, err := n.decode(ctx, job)
	if err != nil {
		return err
	}

	pal := Popularity(frames, job.colors())

	paletted, err := n.dither(ctx, frames, pal)
	if err != nil {
		return err
	}

	delay := max(1, 100/job.Framerate)
	anim := &gif.GIF{
		Image:     paletted,
		Delay:     make([]int, len(paletted)),
		LoopCount: 0,
	}
	for i := range anim.Delay {
		anim.Delay[i] = delay
	}

	return writeGIF(job.partial(), job.Output, anim)
}

func (n *Native) decode(ctx context.Context, job Job) ([]*image.RGBA, error) {
	frames := make([]*image.RGBA, job.Count)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(n.workers())

	for i := 0; i < job.Count; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := loadFrame(job.frame(i), job.ScaleWidth)
			if err != nil {
				return err
			}
			frames[i] = img
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}

func loadFrame(path string, width int) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return scale(src, width), nil
}

// scale resizes src to width, keeping its aspect ratio. A zero width
// only converts to RGBA.
func scale(src image.Image, width int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if width > 0 && width != w && w > 0 {
		h = max(1, h*width/w)
		w = width
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}

	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func (n *Native) dither(ctx context.Context, frames []*image.RGBA, pal []colorRGB) ([]*image.Paletted, error) {
	out := make([]*image.Paletted, len(frames))
	palette := toPalette(pal)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(n.workers())

	for i, src := range frames {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			dst := image.NewPaletted(src.Bounds(), palette)
			draw.FloydSteinberg.Draw(dst, dst.Bounds(), src, src.Bounds().Min)
			out[i] = dst
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// writeGIF encodes anim into tmp and moves it over output once complete.
func writeGIF(tmp, output string, anim *gif.GIF) error {
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if err := gif.EncodeAll(f, anim); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return &Error{Encoder: KindNative, Err: err}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return &Error{Encoder: KindNative, Err: err}
	}

	if err := os.Rename(tmp, output); err != nil {
		_ = os.Remove(tmp)
		return &Error{Encoder: KindNative, Err: err}
	}
	return nil
}
