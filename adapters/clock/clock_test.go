package clock_test

import (
	"testing"
	"time"

	"github.com/artpar/cmsdesk/adapters/clock"
)

func TestReal_Now(t *testing.T) {
	c := clock.Real{}

	before := time.Now()
	got := c.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", got, before, after)
	}
	if got.Location() != time.UTC {
		t.Errorf("Now() location = %v, want UTC", got.Location())
	}
}

func TestFake(t *testing.T) {
	fixed := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	c := clock.NewFake(fixed)

	if !c.Now().Equal(fixed) || !c.Now().Equal(fixed) {
		t.Error("fake clock should not move on its own")
	}

	c.Advance(time.Hour)
	if want := fixed.Add(time.Hour); !c.Now().Equal(want) {
		t.Errorf("after Advance = %v, want %v", c.Now(), want)
	}

	c.Set(fixed)
	if !c.Now().Equal(fixed) {
		t.Errorf("after Set = %v, want %v", c.Now(), fixed)
	}
}

func TestTicking(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := clock.NewTicking(start, time.Second)

	first := c.Now()
	second := c.Now()
	if !first.Equal(start) {
		t.Errorf("first = %v, want %v", first, start)
	}
	if second.Sub(first) != time.Second {
		t.Errorf("step = %v, want 1s", second.Sub(first))
	}
}
