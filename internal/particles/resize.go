package particles

import "time"

// resizeTimer debounces viewport changes. It is polled from the frame
// goroutine instead of firing a callback, so regeneration never races a
// frame. Arm and Cancel are its only mutators apart from Fire consuming it.
type resizeTimer struct {
	quiet    time.Duration
	pending  Size
	deadline time.Time
	armed    bool
}

// Arm cancels any pending resize and schedules size after the quiet period.
func (t *resizeTimer) Arm(size Size, now time.Time) {
	t.pending = size
	t.deadline = now.Add(t.quiet)
	t.armed = true
}

func (t *resizeTimer) Cancel() {
	t.armed = false
	t.pending = Size{}
}

func (t *resizeTimer) Armed() bool { return t.armed }

// Fire returns the pending size once the quiet period has elapsed and
// disarms the timer.
func (t *resizeTimer) Fire(now time.Time) (Size, bool) {
	if !t.armed || now.Before(t.deadline) {
		return Size{}, false
	}
	size := t.pending
	t.Cancel()
	return size, true
}
