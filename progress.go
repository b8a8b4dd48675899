package main

import (
	"io"
	"math"

	"github.com/cheggaaa/pb"
)

// barProgress shows one progress bar per planning pass.
type barProgress struct {
	out io.Writer
	bar *pb.ProgressBar
}

func newBarProgress(out io.Writer) *barProgress {
	return &barProgress{out: out}
}

func (p *barProgress) Begin(pass string) {
	p.bar = pb.New(100)
	p.bar.Output = p.out
	p.bar.ShowCounters = false
	p.bar.Prefix(pass + " ")
	p.bar.Format("[=> ]")
	p.bar.Start()
}

func (p *barProgress) Update(fraction float64) {
	if p.bar != nil {
		p.bar.Set(int(math.Round(fraction * 100)))
	}
}

func (p *barProgress) End() {
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}
