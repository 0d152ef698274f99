package ui

import "sync/atomic"

type Stats struct {
	Frames   atomic.Int64
	Stills   atomic.Int64
	GIFBytes atomic.Int64
}
