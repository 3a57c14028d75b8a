package core

// SelectionState is the mode of the bill list: nothing selected, one bill selected,
// or the selected bill being edited.
type SelectionState int

const (
	SelectNone SelectionState = iota
	SelectActive
	SelectEditing
)

func (s SelectionState) String() string {
	switch s {
	case SelectActive:
		return "selected"
	case SelectEditing:
		return "editing"
	default:
		return "none"
	}
}

// Selection tracks at most one selected bill, identified by ID.
//
// Transitions:
//
//	none      --Select(a)-->  selected(a)
//	selected(a) --Select(a)--> none
//	selected(a) --Select(b)--> selected(b)
//	selected(a) --StartEdit--> editing(a)
//	editing(a)  --Select(a)--> none
//	editing(a)  --Select(b)--> selected(b)
//	editing(a)  --Cancel-->    selected(a)
//	editing(a)  --Save-->      none
//	any         --Clear-->     none
//
// StartEdit without a selection is ignored.
type Selection struct {
	state SelectionState
	id    string
}

func (s Selection) State() SelectionState { return s.state }

// ID returns the selected bill ID, or "" when nothing is selected.
func (s Selection) ID() string { return s.id }

func (s Selection) IsSelected(id string) bool {
	return s.state != SelectNone && s.id == id
}

func (s Selection) IsEditing(id string) bool {
	return s.state == SelectEditing && s.id == id
}

// Select toggles the selection of id and always leaves edit mode.
func (s *Selection) Select(id string) {
	if s.state != SelectNone && s.id == id {
		s.Clear()
		return
	}
	s.state, s.id = SelectActive, id
}

// StartEdit enters edit mode for the selected bill. It reports whether edit mode is active.
func (s *Selection) StartEdit() bool {
	if s.state == SelectNone {
		return false
	}
	s.state = SelectEditing
	return true
}

// Cancel leaves edit mode and keeps the bill selected.
func (s *Selection) Cancel() {
	if s.state == SelectEditing {
		s.state = SelectActive
	}
}

// Save leaves edit mode and clears the selection.
func (s *Selection) Save() {
	s.Clear()
}

func (s *Selection) Clear() {
	s.state, s.id = SelectNone, ""
}
