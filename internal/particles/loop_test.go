package particles

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fixedTheme Theme

func (f fixedTheme) Theme() Theme { return Theme(f) }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestLoopInertWithoutCanvas(t *testing.T) {
	t.Parallel()

	l := NewLoop(newTestField(t), nil, fixedTheme(Dark), time.Millisecond)
	if !l.Inert() {
		t.Fatal("loop without canvas should be inert")
	}
	if err := l.Run(context.Background()); err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
	if l.Frames() != 0 {
		t.Errorf("inert loop rendered %d frames", l.Frames())
	}
}

func TestLoopRendersAndStops(t *testing.T) {
	t.Parallel()

	f := newTestField(t)
	f.Resize(400, 300)
	rec := &recorder{}
	l := NewLoop(f, rec, fixedTheme(Light), time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()

	if !l.Post(func(f *Field) { f.MovePointer(10, 20) }) {
		t.Fatal("Post on a running loop failed")
	}
	waitFor(t, func() bool { return l.Frames() >= 3 })

	l.Stop()
	l.Stop() // idempotent
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() after Stop = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	if f.Pointer() != (Point{X: 10, Y: 20}) {
		t.Errorf("posted pointer move not applied: %+v", f.Pointer())
	}
	if rec.presents == 0 {
		t.Error("presenter canvas was never flushed")
	}
	if l.Post(func(*Field) {}) {
		t.Error("Post after Stop should report false")
	}
}

func TestLoopContextCancel(t *testing.T) {
	t.Parallel()

	l := NewLoop(newTestField(t), &recorder{}, fixedTheme(Dark), time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestResizeTimer(t *testing.T) {
	t.Parallel()

	timer := resizeTimer{quiet: 100 * time.Millisecond}
	t0 := time.Unix(0, 0)

	if _, ok := timer.Fire(t0); ok {
		t.Fatal("unarmed timer fired")
	}

	timer.Arm(Size{Width: 1, Height: 1}, t0)
	timer.Arm(Size{Width: 2, Height: 2}, t0.Add(50*time.Millisecond))
	if _, ok := timer.Fire(t0.Add(100 * time.Millisecond)); ok {
		t.Fatal("re-armed timer fired on the first deadline")
	}
	size, ok := timer.Fire(t0.Add(150 * time.Millisecond))
	if !ok || size != (Size{Width: 2, Height: 2}) {
		t.Fatalf("Fire() = %+v, %v; want last size", size, ok)
	}
	if _, ok := timer.Fire(t0.Add(time.Second)); ok {
		t.Error("timer fired twice")
	}

	timer.Arm(Size{Width: 3, Height: 3}, t0)
	timer.Cancel()
	if _, ok := timer.Fire(t0.Add(time.Second)); ok {
		t.Error("cancelled timer fired")
	}
}
