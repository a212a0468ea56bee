package concert

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ParseDateWindow builds a window from caller-supplied bounds. Each bound is
// either YYYY-MM-DD or RFC3339. A date-only end covers the whole day. Empty
// bounds are left open, and two empty bounds mean no window at all.
func ParseDateWindow(start, end string) (*DateWindow, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" && end == "" {
		return nil, nil
	}
	var w DateWindow
	if start != "" {
		t, _, err := parseBound(start)
		if err != nil {
			return nil, fmt.Errorf("start: %w", err)
		}
		w.Start = t
	}
	if end != "" {
		t, dateOnly, err := parseBound(end)
		if err != nil {
			return nil, fmt.Errorf("end: %w", err)
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Second)
		}
		w.End = t
	}
	if !w.Start.IsZero() && !w.End.IsZero() && w.End.Before(w.Start) {
		return nil, errors.New("date window ends before it starts")
	}
	return &w, nil
}

func parseBound(s string) (t time.Time, dateOnly bool, err error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%q is neither YYYY-MM-DD nor RFC3339", s)
	}
	return t, false, nil
}
