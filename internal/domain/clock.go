package domain

import "github.com/jonboulle/clockwork"

// clock stamps step summaries. Tests freeze it via SetClock so summaries
// compare exactly.
var clock = clockwork.NewRealClock()

// SetClock swaps the summary time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
