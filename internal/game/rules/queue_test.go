package rules

import (
	"encoding/json"
	"testing"
)

func types(events []ActionEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestActionQueueAppendAndAdvance(t *testing.T) {
	q := NewActionQueue()
	if !q.Drained() {
		t.Fatal("new queue should be drained")
	}

	first := q.Append(ActionEvent{Type: "game:start"})
	second := q.Append(ActionEvent{Type: "game:roundStart"})
	if first.Index != 0 || second.Index != 1 {
		t.Fatalf("expected indexes 0 and 1, got %d and %d", first.Index, second.Index)
	}

	current, ok := q.Current()
	if !ok || current.Type != "game:start" {
		t.Fatalf("expected game:start to be current, got %+v", current)
	}

	q.Advance()
	q.Advance()
	if !q.Drained() || q.Cursor() != 2 {
		t.Fatalf("expected drained queue at cursor 2, got cursor %d", q.Cursor())
	}

	// Advancing a drained queue is a no-op.
	q.Advance()
	if q.Cursor() != 2 {
		t.Fatalf("cursor moved past the end: %d", q.Cursor())
	}
}

func TestActionQueueInsertAfterCursorPreservesOrder(t *testing.T) {
	q := NewActionQueue()
	q.Append(ActionEvent{Type: "game:roleTurn"})
	q.Append(ActionEvent{Type: "game:later"})

	insertAt := q.Cursor() + 1
	for _, typ := range []string{"workingClass:proposeBill", "game:roleCurrent"} {
		if _, err := q.InsertAt(insertAt, ActionEvent{Type: typ}); err != nil {
			t.Fatalf("insert %s: %v", typ, err)
		}
		insertAt++
	}

	want := []string{"game:roleTurn", "workingClass:proposeBill", "game:roleCurrent", "game:later"}
	if got := types(q.Events()); !equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := types(q.Pending()); !equal(got, want[1:]) {
		t.Fatalf("expected pending %v, got %v", want[1:], got)
	}
}

func TestActionQueueInsertRejectsDoneOrCurrent(t *testing.T) {
	q := NewActionQueue()
	q.Append(ActionEvent{Type: "a:b"})
	q.Append(ActionEvent{Type: "c:d"})
	q.Advance()

	if _, err := q.InsertAt(1, ActionEvent{Type: "x:y"}); err == nil {
		t.Fatal("expected error inserting at the cursor")
	}
	if _, err := q.InsertAt(5, ActionEvent{Type: "x:y"}); err == nil {
		t.Fatal("expected error inserting past the tail")
	}
}

func TestActionQueueTraceIsMostRecentFirst(t *testing.T) {
	q := NewActionQueue()
	q.Append(ActionEvent{Type: "game:start"})
	q.Append(ActionEvent{Type: "game:roundStart"})
	q.Append(ActionEvent{Type: "game:turnStart"})
	q.Advance()

	want := []string{"game:roundStart", "game:start"}
	if got := q.Trace(); !equal(got, want) {
		t.Fatalf("expected trace %v, got %v", want, got)
	}
}

func TestActionQueueSetCurrentData(t *testing.T) {
	q := NewActionQueue()
	q.Append(ActionEvent{Type: "game:roleTurn"})
	q.SetCurrentData("workingClass:skip")

	current, _ := q.Current()
	if current.Data != "workingClass:skip" {
		t.Fatalf("expected data to be recorded, got %v", current.Data)
	}
}

func TestActionQueueMarshalJSON(t *testing.T) {
	q := NewActionQueue()
	q.Append(ActionEvent{Type: "game:start"})
	q.Advance()

	raw, err := json.Marshal(q)
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		ActionQueue        []ActionEvent `json:"actionQueue"`
		CurrentActionIndex int           `json:"currentActionIndex"`
		NextActionIndex    int           `json:"nextActionIndex"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.ActionQueue) != 1 || decoded.CurrentActionIndex != 1 || decoded.NextActionIndex != 1 {
		t.Fatalf("unexpected JSON %s", raw)
	}
}
