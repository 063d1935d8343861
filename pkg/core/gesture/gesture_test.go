package gesture

import (
	"slices"
	"testing"
)

func col(id string) Target { return Target{Kind: Column, ID: id} }
func row(id string) Target { return Target{Kind: Row, ID: id} }

func TestSweepTogglesEachHeaderOnce(t *testing.T) {
	var tr Tracker
	toggles := map[string]int{}
	apply := func(tgt Target, ok bool) {
		if ok {
			toggles[tgt.ID]++
		}
	}

	apply(col("a"), tr.Press(col("a"), Header))
	for _, id := range []string{"b", "a", "b", "c", "b", "a", "c", "d"} {
		apply(col(id), tr.Enter(col(id)))
	}
	if tr.Mode() != Sweeping {
		t.Fatalf("mode = %v", tr.Mode())
	}
	if got := tr.Touched(); !slices.Equal(got, []string{"a", "b", "c", "d"}) {
		t.Errorf("Touched = %v", got)
	}
	tr.Release()

	for _, id := range []string{"a", "b", "c", "d"} {
		if toggles[id] != 1 {
			t.Errorf("%s toggled %d times", id, toggles[id])
		}
	}
	if tr.Mode() != Idle || len(tr.Touched()) != 0 {
		t.Error("release did not clear the sweep")
	}
	if tr.Enter(col("e")) {
		t.Error("enter after release toggled")
	}
}

func TestSweepIgnoresOtherKind(t *testing.T) {
	var tr Tracker
	tr.Press(row("2019"), Header)
	if tr.Enter(col("2020")) {
		t.Error("column toggled during row sweep")
	}
	if !tr.Enter(row("2020")) {
		t.Error("row not toggled")
	}
}

func TestPressOnControlsDoesNotSweep(t *testing.T) {
	for _, part := range []Part{RenameControl, VisibilityButton, DragHandle} {
		var tr Tracker
		if tr.Press(col("a"), part) {
			t.Errorf("part %d started a sweep", part)
		}
		if tr.Mode() != Idle {
			t.Errorf("part %d changed mode to %v", part, tr.Mode())
		}
	}
}

func TestRenameBlocksSweepAndDrag(t *testing.T) {
	var tr Tracker
	if !tr.BeginRename(col("a"), "Revenue") {
		t.Fatal("BeginRename")
	}
	if tr.Press(col("a"), Header) {
		t.Error("sweep started on header mid-rename")
	}
	if tr.StartDrag(col("a")) {
		t.Error("drag started mid-rename")
	}
	tr.Release()
	if !tr.IsRenaming(col("a")) {
		t.Error("release ended rename")
	}
	tr.Edit("Sales")
	tgt, text, ok := tr.Commit()
	if !ok || tgt != col("a") || text != "Sales" {
		t.Errorf("Commit = %v %q %v", tgt, text, ok)
	}
	if tr.Mode() != Idle {
		t.Errorf("mode = %v", tr.Mode())
	}
}

func TestCancelRenameDiscardsBuffer(t *testing.T) {
	var tr Tracker
	tr.BeginRename(row("2019"), "2019")
	tr.Edit("2020")
	if !tr.CancelRename() {
		t.Fatal("CancelRename")
	}
	if _, _, ok := tr.Commit(); ok {
		t.Error("commit after cancel")
	}
	if tr.Buffer() != "" {
		t.Errorf("buffer = %q", tr.Buffer())
	}
}

func TestDragBlocksRename(t *testing.T) {
	var tr Tracker
	if !tr.StartDrag(col("cogs")) {
		t.Fatal("StartDrag")
	}
	if tr.BeginRename(col("cogs"), "COGS") {
		t.Error("rename started mid-drag")
	}
	src, ok := tr.Drop(col("revenue"))
	if !ok || src != col("cogs") {
		t.Errorf("Drop = %v %v", src, ok)
	}
	if tr.Mode() != Idle {
		t.Errorf("mode = %v", tr.Mode())
	}
}

func TestDragEndWithoutDrop(t *testing.T) {
	var tr Tracker
	tr.StartDrag(row("2019"))
	tr.Release()
	if _, ok := tr.Drop(row("2020")); ok {
		t.Error("drop after release succeeded")
	}

	tr.StartDrag(row("2019"))
	if _, ok := tr.Drop(col("revenue")); ok {
		t.Error("cross-kind drop succeeded")
	}
	if tr.Mode() != Idle {
		t.Error("cross-kind drop left drag active")
	}

	tr.StartDrag(row("2019"))
	if !tr.CancelDrag() || tr.CancelDrag() {
		t.Error("CancelDrag change reporting")
	}
}

func TestParseKind(t *testing.T) {
	if k, ok := ParseKind("column"); !ok || k != Column {
		t.Error("column")
	}
	if k, ok := ParseKind("row"); !ok || k != Row {
		t.Error("row")
	}
	if _, ok := ParseKind("cell"); ok {
		t.Error("cell accepted")
	}
}
