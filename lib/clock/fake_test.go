// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.UnixMilli(1_700_000_000_000)

func TestFakeNowMovesOnlyOnAdvance(t *testing.T) {
	t.Parallel()

	fake := Fake(epoch)
	if got := fake.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	fake.Advance(250 * time.Millisecond)
	if got, want := UnixMilli(fake), epoch.UnixMilli()+250; got != want {
		t.Fatalf("UnixMilli after Advance = %d, want %d", got, want)
	}
}

func TestFakeTimerFiresAtDeadline(t *testing.T) {
	t.Parallel()

	fake := Fake(epoch)
	timer := fake.NewTimer(time.Second)

	fake.Advance(999 * time.Millisecond)
	select {
	case <-timer.C:
		t.Fatal("timer fired before its deadline")
	default:
	}

	fake.Advance(time.Millisecond)
	select {
	case fired := <-timer.C:
		if !fired.Equal(epoch.Add(time.Second)) {
			t.Errorf("fire time = %v, want %v", fired, epoch.Add(time.Second))
		}
	default:
		t.Fatal("timer did not fire at its deadline")
	}
	if timer.Stop() {
		t.Error("Stop after firing reported true")
	}
}

func TestFakeNonPositiveDurationIsReady(t *testing.T) {
	t.Parallel()

	fake := Fake(epoch)
	for _, duration := range []time.Duration{0, -time.Second} {
		select {
		case <-fake.After(duration):
		default:
			t.Errorf("After(%v) not ready immediately", duration)
		}
	}
	if count := fake.PendingCount(); count != 0 {
		t.Errorf("PendingCount = %d, want 0", count)
	}
}

func TestFakeStopRemovesPendingTimer(t *testing.T) {
	t.Parallel()

	fake := Fake(epoch)
	timer := fake.NewTimer(time.Minute)
	if count := fake.PendingCount(); count != 1 {
		t.Fatalf("PendingCount = %d, want 1", count)
	}
	if !timer.Stop() {
		t.Fatal("Stop on armed timer reported false")
	}
	if count := fake.PendingCount(); count != 0 {
		t.Fatalf("PendingCount after Stop = %d, want 0", count)
	}

	fake.Advance(time.Hour)
	select {
	case <-timer.C:
		t.Fatal("stopped timer fired")
	default:
	}
}

func TestFakeWaitForTimers(t *testing.T) {
	t.Parallel()

	fake := Fake(epoch)
	woke := make(chan struct{})
	go func() {
		<-fake.After(5 * time.Second)
		close(woke)
	}()

	fake.WaitForTimers(1)
	fake.Advance(5 * time.Second)

	select {
	case <-woke:
	case <-time.After(5 * time.Second):
		t.Fatal("goroutine did not wake after Advance")
	}
}

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	t.Parallel()

	fake := Fake(epoch)
	late := fake.NewTimer(3 * time.Second)
	early := fake.NewTimer(time.Second)

	fake.Advance(10 * time.Second)
	lateTime := <-late.C
	earlyTime := <-early.C
	if !lateTime.Equal(earlyTime) {
		t.Errorf("timers fired with different times %v and %v", earlyTime, lateTime)
	}
	if count := fake.PendingCount(); count != 0 {
		t.Errorf("PendingCount = %d, want 0", count)
	}
}
