package backupmgr

import (
	"testing"
	"time"
)

func TestPendingChanges(t *testing.T) {
	t0 := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	grace := 500 * time.Millisecond

	t.Run("later change replaces earlier one", func(t *testing.T) {
		p := newPendingChanges()
		p.touch("/saves/World", t0)
		if n := p.touch("/saves/World", t0.Add(150*time.Millisecond)); n != 1 {
			t.Errorf("touch() size = %d, want 1", n)
		}
		at, ok := p.lastChange("/saves/World")
		if !ok || !at.Equal(t0.Add(150*time.Millisecond)) {
			t.Errorf("lastChange() = %v, %v", at, ok)
		}
	})

	t.Run("drains only settled entries", func(t *testing.T) {
		p := newPendingChanges()
		p.touch("/saves/A", t0)
		p.touch("/saves/B", t0.Add(300*time.Millisecond))

		settled, remaining := p.drainSettled(t0.Add(grace), grace)
		if len(settled) != 1 || settled[0] != "/saves/A" {
			t.Errorf("drainSettled() = %v, want [/saves/A]", settled)
		}
		if remaining != 1 || p.len() != 1 {
			t.Errorf("remaining = %d, len = %d, want 1", remaining, p.len())
		}

		settled, remaining = p.drainSettled(t0.Add(800*time.Millisecond), grace)
		if len(settled) != 1 || settled[0] != "/saves/B" || remaining != 0 {
			t.Errorf("drainSettled() = %v (%d left), want [/saves/B]", settled, remaining)
		}
	})

	t.Run("returns paths sorted", func(t *testing.T) {
		p := newPendingChanges()
		for _, path := range []string{"/s/c", "/s/a", "/s/b"} {
			p.touch(path, t0)
		}
		settled, _ := p.drainSettled(t0.Add(time.Second), grace)
		if len(settled) != 3 || settled[0] != "/s/a" || settled[1] != "/s/b" || settled[2] != "/s/c" {
			t.Errorf("drainSettled() = %v, want sorted", settled)
		}
	})
}
