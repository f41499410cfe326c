package allocation

import (
	"fmt"

	"github.com/vsinha/rollalloc/pkg/domain/entities"
)

// Window is the span of days one model covers. Today is the first day and the only one whose
// decisions are committed.
type Window struct {
	Today entities.Day
	End   entities.Day
}

// NewWindow creates the window [today, min(today+days-1, horizonEnd)]
func NewWindow(today entities.Day, days int, horizonEnd entities.Day) (Window, error) {
	if days < 1 {
		return Window{}, fmt.Errorf("window must span at least one day, got %d", days)
	}
	if today > horizonEnd {
		return Window{}, fmt.Errorf("day %d is past the horizon end %d", today, horizonEnd)
	}
	end := today + entities.Day(days-1)
	if end > horizonEnd {
		end = horizonEnd
	}
	return Window{Today: today, End: end}, nil
}

// Days returns the window length
func (w Window) Days() int {
	return int(w.End-w.Today) + 1
}

// Index returns the offset of a day from today, clamped at 0 for days already past
func (w Window) Index(day entities.Day) int {
	if day <= w.Today {
		return 0
	}
	return int(day - w.Today)
}

func (w Window) String() string {
	return fmt.Sprintf("[%d, %d]", w.Today, w.End)
}
