package encoder

import (
	"cmp"
	"image"
	"image/color"
	"slices"
)

type colorRGB struct {
	R, G, B uint8
}

// bucket keys a colour by its top five bits per channel.
func bucket(r, g, b uint8) uint16 {
	return uint16(r>>3)<<10 | uint16(g>>3)<<5 | uint16(b>>3)
}

type bin struct {
	key     uint16
	count   int
	r, g, b int
}

// Popularity builds a palette of at most n colours shared by all frames:
// the n most frequent 15-bit buckets, each represented by the mean of the
// pixels that fell into it.
func Popularity(frames []*image.RGBA, n int) []colorRGB {
	bins := make([]bin, 1<<15)
	for i := range bins {
		bins[i].key = uint16(i)
	}

	for _, img := range frames {
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
			for x := 0; x+3 < len(row); x += 4 {
				r, g, bl := row[x], row[x+1], row[x+2]
				p := &bins[bucket(r, g, bl)]
				p.count++
				p.r += int(r)
				p.g += int(g)
				p.b += int(bl)
			}
		}
	}

	used := slices.DeleteFunc(bins, func(b bin) bool { return b.count == 0 })
	slices.SortFunc(used, func(a, b bin) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})

	if len(used) > n {
		used = used[:n]
	}

	out := make([]colorRGB, 0, max(1, len(used)))
	for _, b := range used {
		out = append(out, colorRGB{
			R: uint8(b.r / b.count),
			G: uint8(b.g / b.count),
			B: uint8(b.b / b.count),
		})
	}
	if len(out) == 0 {
		out = append(out, colorRGB{})
	}
	return out
}

func toPalette(cs []colorRGB) color.Palette {
	p := make(color.Palette, len(cs))
	for i, c := range cs {
		p[i] = color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
	}
	return p
}
