package ui

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bborn/grocer/internal/autocomplete"
)

func fruitOptions() []autocomplete.Option {
	return []autocomplete.Option{
		{ID: "1", Label: "Apple"},
		{ID: "2", Label: "Apricot"},
		{ID: "3", Label: "Banana"},
		{ID: "4", Label: "Cherry"},
		{ID: "5", Label: "Grape"},
		{ID: "6", Label: "Pineapple"},
		{ID: "7", Label: "Plum"},
	}
}

func typeInto(a *AutocompleteInput, s string) autocomplete.Event {
	var ev autocomplete.Event
	for _, k := range typeText(s) {
		_, ev = a.Update(k)
	}
	return ev
}

func TestAutocompleteInputTypingFilters(t *testing.T) {
	a := NewAutocompleteInput(fruitOptions(), "", "Fruit")
	a.Focus()

	ev := typeInto(a, "ap")
	if ev.Kind != autocomplete.EventChanged || ev.Text != "ap" {
		t.Fatalf("event = %+v, want changed to ap", ev)
	}
	var labels []string
	for _, o := range a.State().Visible() {
		labels = append(labels, o.Label)
	}
	if got := strings.Join(labels, ","); got != "Apple,Apricot,Grape,Pineapple" {
		t.Errorf("visible = %s", got)
	}
	if !a.State().ShowDropdown() {
		t.Error("dropdown should be shown while typing")
	}
}

func TestAutocompleteInputIgnoresKeysWhenBlurred(t *testing.T) {
	a := NewAutocompleteInput(fruitOptions(), "", "Fruit")
	if ev := typeInto(a, "x"); ev.Kind != autocomplete.EventNone {
		t.Errorf("unfocused input emitted %+v", ev)
	}
	if a.Value() != "" {
		t.Errorf("value = %q", a.Value())
	}
}

func TestAutocompleteInputArrowAndEnterCommit(t *testing.T) {
	a := NewAutocompleteInput(fruitOptions(), "", "Fruit")
	a.Focus()
	typeInto(a, "pl")

	// up from no highlight wraps to the last row
	a.Update(keyPress("up"))
	_, ev := a.Update(keyPress("enter"))

	if ev.Kind != autocomplete.EventSelected || ev.ID != "7" {
		t.Fatalf("event = %+v, want Plum selected", ev)
	}
	if a.Value() != "Plum" {
		t.Errorf("value = %q, want Plum", a.Value())
	}
	if a.View() == "" || !strings.Contains(a.View(), "Plum") {
		t.Errorf("text input should show the committed label, got %q", a.View())
	}
	if a.State().ShowDropdown() {
		t.Error("dropdown should close after a commit")
	}
}

func TestAutocompleteInputRightMovesCursorWithoutHighlight(t *testing.T) {
	a := NewAutocompleteInput(fruitOptions(), "", "Fruit")
	a.Focus()
	typeInto(a, "ba")

	_, ev := a.Update(keyPress("right"))
	if ev.Kind != autocomplete.EventNone {
		t.Errorf("right without a highlight should not commit, got %+v", ev)
	}
	if a.Value() != "ba" {
		t.Errorf("value = %q", a.Value())
	}
}

func TestAutocompleteInputDownReopensAfterCommit(t *testing.T) {
	a := NewAutocompleteInput(fruitOptions(), "", "Fruit")
	a.Focus()
	a.Update(keyPress("down"))
	a.Update(keyPress("enter"))
	if a.Value() != "Apple" || a.State().IsOpen() {
		t.Fatalf("value = %q open = %v after commit", a.Value(), a.State().IsOpen())
	}

	a.Update(keyPress("down"))
	if !a.State().ShowDropdown() {
		t.Error("down should reopen the dropdown")
	}
	if row, ok := a.State().Highlighted(); !ok || row != 0 {
		t.Errorf("highlighted = %d, %v; want 0, true", row, ok)
	}
}

func TestAutocompleteInputCursorKeyReopens(t *testing.T) {
	a := NewAutocompleteInput(fruitOptions(), "", "Fruit")
	a.Focus()
	a.Update(keyPress("down"))
	a.Update(keyPress("enter"))

	_, ev := a.Update(keyPress("left"))
	if ev.Kind != autocomplete.EventNone || a.Value() != "Apple" {
		t.Errorf("left emitted %+v, value %q", ev, a.Value())
	}
	if !a.State().IsOpen() {
		t.Error("a key that leaves the text alone should still reopen the dropdown")
	}
}

func TestAutocompleteInputTruncatesMultibyteDescription(t *testing.T) {
	a := NewAutocompleteInput([]autocomplete.Option{
		{ID: "1", Label: "Crème", Description: strings.Repeat("Sautéed crème fraîche ", 6)},
	}, "", "Dish")
	a.SetWidth(30)
	a.Focus()
	a.Update(keyPress("down"))

	view := a.DropdownView()
	if !utf8.ValidString(view) {
		t.Fatalf("dropdown is not valid UTF-8: %q", view)
	}
	if !strings.Contains(view, "...") {
		t.Errorf("long description should be truncated:\n%s", view)
	}
}

func TestAutocompleteInputBlurClosesAfterDelay(t *testing.T) {
	a := NewAutocompleteInput(fruitOptions(), "", "Fruit")
	a.SetBlurDelay(time.Millisecond)
	a.Focus()
	typeInto(a, "a")

	cmd := a.Blur()
	if !a.State().ShowDropdown() {
		t.Fatal("dropdown should stay open until the delay passes")
	}
	a.Update(cmd())
	if a.State().IsOpen() {
		t.Error("dropdown should close after the blur delay")
	}
}

func TestAutocompleteInputRefocusCancelsBlur(t *testing.T) {
	a := NewAutocompleteInput(fruitOptions(), "", "Fruit")
	a.SetBlurDelay(time.Millisecond)
	a.Focus()

	cmd := a.Blur()
	a.Focus()
	a.Update(cmd())
	if !a.State().IsOpen() {
		t.Error("a stale blur should not close a refocused dropdown")
	}
}

func TestAutocompleteInputBlurForOtherInputIgnored(t *testing.T) {
	a := NewAutocompleteInput(fruitOptions(), "", "Fruit")
	b := NewAutocompleteInput(fruitOptions(), "", "Fruit")
	a.SetBlurDelay(time.Millisecond)
	b.SetBlurDelay(time.Millisecond)
	a.Focus()
	b.Focus()

	msg := b.Blur()()
	a.Update(msg)
	if !a.State().IsOpen() {
		t.Error("a should ignore b's blur")
	}
	b.Update(msg)
	if b.State().IsOpen() {
		t.Error("b should close on its own blur")
	}
}

func TestAutocompleteInputDropdownWindow(t *testing.T) {
	a := NewAutocompleteInput(fruitOptions(), "", "Fruit")
	a.Focus()
	a.Update(keyPress("down"))

	view := a.DropdownView()
	if !strings.Contains(view, "... 2 more") {
		t.Errorf("dropdown should note hidden rows:\n%s", view)
	}
	if !strings.Contains(view, "> ") {
		t.Errorf("highlighted row should have a marker:\n%s", view)
	}

	row, ok := a.RowAtLine(1)
	if !ok || row != 0 {
		t.Errorf("RowAtLine(1) = %d, %v; want 0, true", row, ok)
	}
	if _, ok := a.RowAtLine(0); ok {
		t.Error("the top border is not a row")
	}
}

func TestAutocompleteInputClickRow(t *testing.T) {
	a := NewAutocompleteInput(fruitOptions(), "", "Fruit")
	a.Click()
	a.DropdownView()

	row, ok := a.RowAtLine(3)
	if !ok {
		t.Fatal("line 3 should be a row")
	}
	a.Hover(row)
	if got, _ := a.State().Highlighted(); got != row {
		t.Errorf("hover highlighted %d, want %d", got, row)
	}
	ev := a.ClickRow(row)
	if ev.Kind != autocomplete.EventSelected || a.Value() != "Banana" {
		t.Errorf("click selected %+v, value %q", ev, a.Value())
	}
}

func TestAutocompleteInputSetOptionsKeepsText(t *testing.T) {
	a := NewAutocompleteInput(nil, "", "Fruit")
	a.Focus()
	typeInto(a, "ch")
	a.SetOptions(fruitOptions())

	if a.Value() != "ch" {
		t.Errorf("value = %q", a.Value())
	}
	visible := a.State().Visible()
	if len(visible) != 1 || visible[0].Label != "Cherry" {
		t.Errorf("visible = %+v", visible)
	}
}
