package evaluate

import (
	"time"

	"golang.org/x/time/rate"
)

// #region progress
type progress struct {
	observer Observer
	total    int
	start    time.Time
	every    rate.Sometimes
}

func newProgress(o Observer, total int, cfg Config) *progress {
	p := &progress{observer: o, total: total, start: time.Now()}
	p.every.Every = cfg.ProgressEvery
	p.every.Interval = cfg.ProgressInterval
	if p.every.Every <= 0 && p.every.Interval <= 0 {
		p.every.Every = DefaultConfig().ProgressEvery
	}
	return p
}

func (p *progress) update(row int) {
	p.every.Do(func() {
		p.observer.Progress(Progress{Row: row, Total: p.total, Elapsed: time.Since(p.start)})
	})
}

func (p *progress) elapsed() time.Duration {
	return time.Since(p.start)
}

// #endregion progress
