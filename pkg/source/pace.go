package source

import (
	"time"
)

type pacedSource struct {
	src    Source
	ticker *time.Ticker
}

// Pace limits src to rate frames per second. Every Pull waits for the next
// tick before pulling from src, so a file replays in real time. A rate of zero
// or less returns src unchanged.
func Pace(src Source, rate float64) Source {
	if rate <= 0 {
		return src
	}
	return &pacedSource{
		src:    src,
		ticker: time.NewTicker(time.Duration(float64(time.Second) / rate)),
	}
}

func (p *pacedSource) Pull(n int) ([]byte, error) {
	if p.ticker == nil {
		return p.src.Pull(n)
	}
	<-p.ticker.C
	chunk, err := p.src.Pull(n)
	if err != nil || len(chunk) < n {
		p.ticker.Stop()
		p.ticker = nil
	}
	return chunk, err
}
