package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/bborn/grocer/internal/planner"
)

func TestAccountEmailUser(t *testing.T) {
	user := planner.User{ID: "u1", Name: "Ada Lovelace", Email: "ada@example.com", AuthSource: planner.AuthSourceEmail}
	m := NewAccountModel(nil, DefaultKeyMap(), user)

	view := m.View()
	for _, want := range []string{"Ada Lovelace", "ada@example.com", "email and password", "change password"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m.Update(keyPress("e"))
	if !m.Editing() {
		t.Fatal("e should open the change password form")
	}

	m.Update(passwordChangedMsg{err: errors.New("Current password is incorrect")})
	if !m.Editing() || !strings.Contains(m.View(), "Current password is incorrect") {
		t.Error("a failed change should reopen the form with the error")
	}

	m.Update(passwordChangedMsg{message: "Password updated"})
	if m.Editing() {
		t.Error("form should close after a successful change")
	}
	if !strings.Contains(m.View(), "Password updated") {
		t.Error("confirmation should be shown")
	}
}

func TestAccountGoogleUser(t *testing.T) {
	user := planner.User{ID: "u2", Name: "Grace", AuthSource: planner.AuthSourceNonEmail}
	m := NewAccountModel(nil, DefaultKeyMap(), user)

	m.Update(keyPress("e"))
	if m.Editing() {
		t.Error("Google accounts have no password to change")
	}
	if strings.Contains(m.View(), "change password") {
		t.Error("change password hint should be hidden")
	}
}

func TestAccountLogout(t *testing.T) {
	m := NewAccountModel(nil, DefaultKeyMap(), planner.User{ID: "u1"})
	_, cmd := m.Update(keyPress("L"))
	if cmd == nil {
		t.Fatal("L should log out")
	}
	if _, ok := cmd().(logoutMsg); !ok {
		t.Error("expected logoutMsg")
	}
}
