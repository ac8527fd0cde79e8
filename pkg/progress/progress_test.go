package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilSinkDiscards(t *testing.T) {
	var s Sink
	assert.NotPanics(t, func() { s.Report(Update{Phase: PhaseLoad, Current: 1, Total: Unknown}) })
}

func TestThrottlePassesFirstAndFinal(t *testing.T) {
	var got []Update
	s := Throttle(func(u Update) { got = append(got, u) }, time.Hour)

	s.Report(Update{Phase: PhaseDownload, Current: 1, Total: 10})
	s.Report(Update{Phase: PhaseDownload, Current: 5, Total: 10})
	s.Report(Update{Phase: PhaseLoad, Current: 1, Total: Unknown})
	s.Report(Update{Phase: PhaseDownload, Current: 10, Total: 10})

	assert.Equal(t, []Update{
		{Phase: PhaseDownload, Current: 1, Total: 10},
		{Phase: PhaseLoad, Current: 1, Total: Unknown},
		{Phase: PhaseDownload, Current: 10, Total: 10},
	}, got)
}
