package game

import (
	"testing"
	"time"

	"pantry-exchange/pkg/types"
)

func TestApplyFillStatusTransitions(t *testing.T) {
	t.Parallel()
	o := newTestOrder("o1", "p1", types.SideBuy, 10, 5, 1)

	o.ApplyFill(types.Fill{TradeID: "t1", Qty: 4, Price: 5, Time: time.Now().UTC()})
	if o.Status != types.OrderPartial {
		t.Errorf("status = %s, want partial", o.Status)
	}
	if o.Remaining != 6 {
		t.Errorf("remaining = %d, want 6", o.Remaining)
	}

	o.ApplyFill(types.Fill{TradeID: "t2", Qty: 6, Price: 5, Time: time.Now().UTC()})
	if o.Status != types.OrderFilled {
		t.Errorf("status = %s, want filled", o.Status)
	}
	if !o.Terminal() {
		t.Error("filled order must be terminal")
	}
	if len(o.Fills) != 2 {
		t.Errorf("fills = %d, want 2", len(o.Fills))
	}
}

func TestMarkCancelled(t *testing.T) {
	t.Parallel()
	o := newTestOrder("o1", "p1", types.SideSell, 10, 5, 1)

	o.MarkCancelled(time.Now().UTC())
	if o.Status != types.OrderCancelled {
		t.Errorf("status = %s, want cancelled", o.Status)
	}
	if !o.Terminal() {
		t.Error("cancelled order must be terminal")
	}
	if o.Remaining != 10 {
		t.Errorf("remaining = %d, want 10 (cancel does not fill)", o.Remaining)
	}
}

func TestOrderCloneIsIndependent(t *testing.T) {
	t.Parallel()
	o := newTestOrder("o1", "p1", types.SideBuy, 10, 5, 1)
	o.ApplyFill(types.Fill{TradeID: "t1", Qty: 1, Price: 5, Time: time.Now().UTC()})

	cp := o.Clone()
	o.ApplyFill(types.Fill{TradeID: "t2", Qty: 9, Price: 5, Time: time.Now().UTC()})

	if cp.Remaining != 9 {
		t.Errorf("clone remaining = %d, want 9", cp.Remaining)
	}
	if len(cp.Fills) != 1 {
		t.Errorf("clone fills = %d, want 1", len(cp.Fills))
	}
}

func TestClockMonotonic(t *testing.T) {
	t.Parallel()
	c := NewClock()

	lastSeq, lastTime := c.Tick()
	for i := 0; i < 1000; i++ {
		seq, ts := c.Tick()
		if seq <= lastSeq {
			t.Fatalf("seq %d not after %d", seq, lastSeq)
		}
		if !ts.After(lastTime) {
			t.Fatalf("timestamp %v not after %v", ts, lastTime)
		}
		lastSeq, lastTime = seq, ts
	}
}
