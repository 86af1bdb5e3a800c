package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

// DefaultToastTimeout is how long a toast stays up when auto close is on.
const DefaultToastTimeout = 3000 * time.Millisecond

// ToastType selects a toast's color and icon.
type ToastType int

const (
	ToastInfo ToastType = iota
	ToastSuccess
	ToastError
)

// Toast is one transient message.
type Toast struct {
	ID      string
	Message string
	Type    ToastType
}

// toastExpiredMsg removes a toast after its timeout.
type toastExpiredMsg struct{ id string }

// Toasts is the stack of visible toasts, newest last.
type Toasts struct {
	items []Toast
}

// Add shows a toast. With autoClose it is removed after timeout
// (DefaultToastTimeout when zero); the returned command must be run for that.
func (t *Toasts) Add(message string, typ ToastType, autoClose bool, timeout time.Duration) (string, tea.Cmd) {
	id := uuid.NewString()
	t.items = append(t.items, Toast{ID: id, Message: message, Type: typ})
	if !autoClose {
		return id, nil
	}
	if timeout <= 0 {
		timeout = DefaultToastTimeout
	}
	return id, tea.Tick(timeout, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} })
}

// Success adds an auto-closing success toast.
func (t *Toasts) Success(message string) tea.Cmd {
	_, cmd := t.Add(message, ToastSuccess, true, 0)
	return cmd
}

// Error adds an auto-closing error toast.
func (t *Toasts) Error(message string) tea.Cmd {
	_, cmd := t.Add(message, ToastError, true, 0)
	return cmd
}

// Remove drops the toast with id. Unknown ids are ignored.
func (t *Toasts) Remove(id string) {
	for i, item := range t.items {
		if item.ID == id {
			t.items = append(t.items[:i:i], t.items[i+1:]...)
			return
		}
	}
}

// Items returns the visible toasts.
func (t *Toasts) Items() []Toast { return t.items }

// Update handles expiry ticks.
func (t *Toasts) Update(msg tea.Msg) bool {
	if m, ok := msg.(toastExpiredMsg); ok {
		t.Remove(m.id)
		return true
	}
	return false
}

// View renders the stack, or "" when empty.
func (t *Toasts) View(width int) string {
	if len(t.items) == 0 {
		return ""
	}
	var rows []string
	for _, item := range t.items {
		rows = append(rows, ToastStyle(item.Type).Render(ToastIcon(item.Type)+" "+item.Message))
	}
	stack := lipgloss.JoinVertical(lipgloss.Right, rows...)
	if width <= 0 {
		return stack
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, strings.TrimRight(stack, "\n"))
}
