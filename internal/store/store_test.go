package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pantry-exchange/pkg/types"
)

func readLines(t *testing.T, dir string) []types.Record {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("log files = %d, want 1", len(entries))
	}

	f, err := os.Open(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	var recs []types.Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec types.Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("Unmarshal line %q: %v", sc.Text(), err)
		}
		recs = append(recs, rec)
	}
	return recs
}

func TestLogAppendsJSONLines(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	l, err := OpenLog(dir)
	if err != nil {
		t.Fatalf("OpenLog: %v", err)
	}

	if err := l.Append(types.NewRecord("trade", map[string]any{"qty": 5})); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Append(types.NewRecord("order", map[string]any{"price": 10})); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	recs := readLines(t, dir)
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if recs[0].Kind != "trade" || recs[1].Kind != "order" {
		t.Errorf("kinds = [%s %s], want [trade order]", recs[0].Kind, recs[1].Kind)
	}
	if recs[0].Time == "" {
		t.Error("record time should be stamped")
	}
}

func TestOpenLogCreatesDir(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "nested", "data")

	l, err := OpenLog(dir)
	if err != nil {
		t.Fatalf("OpenLog: %v", err)
	}
	defer l.Close()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("data dir not created: %v", err)
	}
}

type failSink struct{ err error }

func (s failSink) Append(types.Record) error { return s.err }
func (s failSink) Close() error              { return s.err }

func TestFanDeliversToAllSinks(t *testing.T) {
	t.Parallel()
	dir1, dir2 := t.TempDir(), t.TempDir()

	l1, err := OpenLog(dir1)
	if err != nil {
		t.Fatalf("OpenLog: %v", err)
	}
	l2, err := OpenLog(dir2)
	if err != nil {
		t.Fatalf("OpenLog: %v", err)
	}

	fan := Fan(l1, l2)
	if err := fan.Append(types.NewRecord("event", nil)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := fan.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if got := len(readLines(t, dir1)); got != 1 {
		t.Errorf("sink 1 records = %d, want 1", got)
	}
	if got := len(readLines(t, dir2)); got != 1 {
		t.Errorf("sink 2 records = %d, want 1", got)
	}
}

func TestFanJoinsErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	fan := Fan(Discard{}, failSink{err: boom})

	if err := fan.Append(types.NewRecord("event", nil)); !errors.Is(err, boom) {
		t.Errorf("Append err = %v, want wrapped boom", err)
	}
	if err := fan.Close(); !errors.Is(err, boom) {
		t.Errorf("Close err = %v, want wrapped boom", err)
	}
}
