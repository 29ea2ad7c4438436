package round

import "time"

// Ticker delivers the once-per-second round clock.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker with the given period.
type TickerFunc func(d time.Duration) Ticker

type clockTicker struct {
	*time.Ticker
}

func (t clockTicker) C() <-chan time.Time {
	return t.Ticker.C
}

// NewTicker is the wall-clock TickerFunc.
func NewTicker(d time.Duration) Ticker {
	return clockTicker{time.NewTicker(d)}
}
