package autocomplete

import (
	"reflect"
	"testing"
)

func opts(labels ...string) []Option {
	out := make([]Option, len(labels))
	for i, l := range labels {
		out[i] = Option{ID: "id-" + l, Label: l}
	}
	return out
}

func labels(o []Option) []string {
	out := make([]string, len(o))
	for i, x := range o {
		out[i] = x.Label
	}
	return out
}

func TestFilter(t *testing.T) {
	all := opts("Onion", "Green Onion", "Tomato", "onion powder", "Garlic")

	tests := []struct {
		name  string
		text  string
		want  []string
	}{
		{"empty shows all", "", []string{"Onion", "Green Onion", "Tomato", "onion powder", "Garlic"}},
		{"case insensitive", "ONI", []string{"Onion", "Green Onion", "onion powder"}},
		{"substring in middle", "mat", []string{"Tomato"}},
		{"no match", "xyz", []string{}},
		{"order preserved", "o", []string{"Onion", "Green Onion", "Tomato", "onion powder"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := labels(Filter(all, tt.text))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTextChanged(t *testing.T) {
	s := New(opts("Boiled", "Baked", "Fried"), "")
	s, _ = s.Key(KeyDown)

	s, ev := s.TextChanged("ba")
	if ev.Kind != EventChanged || ev.Text != "ba" {
		t.Errorf("event = %+v, want changed with text %q", ev, "ba")
	}
	if !s.IsOpen() {
		t.Error("expected dropdown to open on text change")
	}
	if _, ok := s.Highlighted(); ok {
		t.Error("expected highlight cleared on text change")
	}
	if got := labels(s.Visible()); !reflect.DeepEqual(got, []string{"Baked"}) {
		t.Errorf("visible = %v, want [Baked]", got)
	}
	if s.Input() != "ba" {
		t.Errorf("input = %q, want %q", s.Input(), "ba")
	}
}

func TestNavigationWraps(t *testing.T) {
	s := New(opts("A", "B", "C"), "")

	steps := []struct {
		key  Key
		want int
	}{
		{KeyDown, 0},
		{KeyDown, 1},
		{KeyDown, 2},
		{KeyDown, 0},
		{KeyUp, 2},
		{KeyUp, 1},
		{KeyUp, 0},
		{KeyUp, 2},
	}
	for i, step := range steps {
		s, _ = s.Key(step.key)
		got, ok := s.Highlighted()
		if !ok || got != step.want {
			t.Fatalf("step %d: highlight = %d (%v), want %d", i, got, ok, step.want)
		}
	}
}

func TestArrowUpFromNothingGoesToLast(t *testing.T) {
	s := New(opts("A", "B", "C"), "")
	s, _ = s.Key(KeyUp)
	if i, ok := s.Highlighted(); !ok || i != 2 {
		t.Errorf("highlight = %d (%v), want 2", i, ok)
	}
}

func TestNavigationOnEmptyListIsNoop(t *testing.T) {
	s := New(nil, "")
	for _, k := range []Key{KeyUp, KeyDown, KeyEnter, KeyRight} {
		var ev Event
		s, ev = s.Key(k)
		if ev.Kind != EventNone {
			t.Errorf("key %d emitted %+v", k, ev)
		}
		if _, ok := s.Highlighted(); ok {
			t.Errorf("key %d highlighted a row in an empty list", k)
		}
	}
}

func TestOtherKeysForceOpen(t *testing.T) {
	s := New(opts("A"), "")
	s, _ = s.Key(KeyOther)
	if !s.IsOpen() {
		t.Error("expected other key to open dropdown")
	}

	s = New(opts("A"), "")
	s, _ = s.Key(KeyEnter)
	if s.IsOpen() {
		t.Error("enter without highlight should not open dropdown")
	}
	s, _ = s.Key(KeyRight)
	if s.IsOpen() {
		t.Error("right without highlight should not open dropdown")
	}
}

func TestEnterWithoutHighlightIsNoop(t *testing.T) {
	s := New(opts("A", "B"), "")
	s = s.Focus()
	next, ev := s.Key(KeyEnter)
	if ev.Kind != EventNone {
		t.Errorf("event = %+v, want none", ev)
	}
	if !reflect.DeepEqual(next, s) {
		t.Errorf("state changed: %+v -> %+v", s, next)
	}
}

func TestCommitPostconditions(t *testing.T) {
	all := opts("Chana", "Coriander", "Cumin")

	commitByKey := func(k Key) func(State) (State, Event) {
		return func(s State) (State, Event) {
			s, _ = s.Key(KeyDown)
			s, _ = s.Key(KeyDown)
			return s.Key(k)
		}
	}

	tests := []struct {
		name   string
		commit func(State) (State, Event)
	}{
		{"enter", commitByKey(KeyEnter)},
		{"right", commitByKey(KeyRight)},
		{"click", func(s State) (State, Event) { return s.ClickRow(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(all, "")
			s, _ = s.TextChanged("c")
			s, ev := tt.commit(s)

			if ev.Kind != EventSelected || ev.ID != "id-Coriander" {
				t.Fatalf("event = %+v, want selected id-Coriander", ev)
			}
			if s.Input() != "Coriander" {
				t.Errorf("input = %q, want Coriander", s.Input())
			}
			if !reflect.DeepEqual(s.Visible(), all) {
				t.Errorf("visible = %v, want full set", labels(s.Visible()))
			}
			if _, ok := s.Highlighted(); ok {
				t.Error("expected no highlight after commit")
			}
			if s.IsOpen() {
				t.Error("expected dropdown closed after commit")
			}
		})
	}
}

func TestHoverSharesHighlightWithKeyboard(t *testing.T) {
	s := New(opts("A", "B", "C"), "")
	s, _ = s.Key(KeyDown)
	s = s.Hover(2)
	if i, _ := s.Highlighted(); i != 2 {
		t.Errorf("highlight after hover = %d, want 2", i)
	}
	s, _ = s.Key(KeyDown)
	if i, _ := s.Highlighted(); i != 0 {
		t.Errorf("highlight after down = %d, want 0", i)
	}

	s = s.Hover(9)
	if i, _ := s.Highlighted(); i != 0 {
		t.Errorf("out of range hover moved highlight to %d", i)
	}
}

func TestSetOptionsClearsHighlight(t *testing.T) {
	s := New(opts("Rice", "Rye", "Oats"), "")
	s, _ = s.TextChanged("r")
	s, _ = s.Key(KeyDown)

	s = s.SetOptions(opts("Red lentil", "Rice", "Barley"))
	if _, ok := s.Highlighted(); ok {
		t.Error("expected highlight cleared even though index 0 is still in bounds")
	}
	if got := labels(s.Visible()); !reflect.DeepEqual(got, []string{"Red lentil", "Rice", "Barley"}) {
		t.Errorf("visible = %v, want filter reapplied", got)
	}
}

func TestBlurResets(t *testing.T) {
	all := opts("A", "B")
	s := New(all, "")
	s, _ = s.TextChanged("a")
	s, _ = s.Key(KeyDown)

	s = s.Blur()
	if s.IsOpen() {
		t.Error("expected closed after blur")
	}
	if _, ok := s.Highlighted(); ok {
		t.Error("expected highlight cleared after blur")
	}
	if !reflect.DeepEqual(s.Visible(), all) {
		t.Errorf("visible = %v, want full set", labels(s.Visible()))
	}
	if s.Input() != "a" {
		t.Errorf("blur changed input to %q", s.Input())
	}
}

func TestFocusKeepsFilter(t *testing.T) {
	s := New(opts("Apple", "Banana"), "")
	s, _ = s.TextChanged("ban")
	s = s.Blur()
	s, _ = s.TextChanged("ban")
	s = s.Click()
	if got := labels(s.Visible()); !reflect.DeepEqual(got, []string{"Banana"}) {
		t.Errorf("visible = %v, want [Banana]", got)
	}
}

func TestSetValue(t *testing.T) {
	s := New(opts("A", "B"), "")
	s, _ = s.TextChanged("a")
	s, _ = s.Key(KeyDown)
	s = s.SetValue("B")
	if s.Input() != "B" || s.IsOpen() {
		t.Errorf("SetValue left input=%q open=%v", s.Input(), s.IsOpen())
	}
	if _, ok := s.Highlighted(); ok {
		t.Error("expected highlight cleared by SetValue")
	}
}

func TestParseKey(t *testing.T) {
	tests := map[string]Key{
		"up":    KeyUp,
		"down":  KeyDown,
		"right": KeyRight,
		"enter": KeyEnter,
		"a":     KeyOther,
		"left":  KeyOther,
	}
	for in, want := range tests {
		if got := ParseKey(in); got != want {
			t.Errorf("ParseKey(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestFromStrings(t *testing.T) {
	got := FromStrings([]string{"days", "hours"})
	want := []Option{{ID: "days", Label: "days"}, {ID: "hours", Label: "hours"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FromStrings = %+v, want %+v", got, want)
	}
}
