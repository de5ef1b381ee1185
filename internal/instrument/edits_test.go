package instrument

import (
	"strings"
	"testing"
)

func TestEditListApplyOrder(t *testing.T) {
	snapshot := []string{"a\n", "b\n", "c\n"}
	var l EditList
	l.Insert(1, "start\n")
	l.Insert(3, "tail\n")
	l.Insert(1, "finish\n")
	l.Insert(0, "head\n")

	out, err := l.Apply(snapshot)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := "head\na\nstart\nfinish\nb\nc\ntail\n"
	if got := strings.Join(out, ""); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if strings.Join(snapshot, "") != "a\nb\nc\n" {
		t.Fatal("snapshot was modified")
	}

	edits := l.Edits()
	if edits[0].Pos != 0 || edits[1].Text != "start\n" || edits[2].Text != "finish\n" || edits[3].Pos != 3 {
		t.Fatalf("Edits() order = %+v", edits)
	}
}

func TestEditListOutOfRange(t *testing.T) {
	var l EditList
	l.Insert(5, "x\n")
	if _, err := l.Apply([]string{"a\n"}); err == nil {
		t.Fatal("expected out of range error")
	}
}
