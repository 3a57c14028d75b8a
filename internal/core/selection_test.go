package core

import "testing"

func TestSelectionTransitions(t *testing.T) {
	var s Selection
	if s.StartEdit() || s.State() != SelectNone {
		t.Fatalf("edit without selection must be ignored")
	}

	s.Select("a")
	if s.State() != SelectActive || s.ID() != "a" {
		t.Fatalf("expected selected(a), got %v(%s)", s.State(), s.ID())
	}
	if !s.StartEdit() || !s.IsEditing("a") {
		t.Fatalf("expected editing(a)")
	}

	s.Cancel()
	if s.State() != SelectActive || !s.IsSelected("a") {
		t.Fatalf("cancel must keep the selection, got %v", s.State())
	}

	s.StartEdit()
	s.Select("b")
	if s.State() != SelectActive || s.ID() != "b" {
		t.Fatalf("selecting another bill must leave edit mode, got %v(%s)", s.State(), s.ID())
	}

	s.Select("b")
	if s.State() != SelectNone || s.ID() != "" {
		t.Fatalf("reselecting must toggle off, got %v(%s)", s.State(), s.ID())
	}

	s.Select("c")
	s.StartEdit()
	s.Save()
	if s.State() != SelectNone {
		t.Fatalf("save must clear the selection")
	}

	s.Select("d")
	s.StartEdit()
	s.Select("d")
	if s.State() != SelectNone {
		t.Fatalf("reselecting the edited bill must clear it")
	}
}

func TestSelectionClear(t *testing.T) {
	var s Selection
	s.Select("a")
	s.StartEdit()
	s.Clear()
	if s.State() != SelectNone || s.IsSelected("a") || s.IsEditing("a") {
		t.Fatalf("clear must reset everything")
	}
}
