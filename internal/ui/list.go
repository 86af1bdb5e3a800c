package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bborn/grocer/internal/api"
	"github.com/bborn/grocer/internal/debounce"
	"github.com/bborn/grocer/internal/planner"
)

// listChrome is the search box, table, pager and loading/empty/error states
// shared by the ingredients and dishes screens. The owning screen does the
// fetching; listChrome only tracks which fetch is current.
type listChrome struct {
	name     string // "ingredients" or "dishes"
	keys     KeyMap
	debounce *debounce.Tracker

	search    textinput.Model
	searching bool
	query     string

	page     int
	pageSize int
	count    int

	seq     int
	loading bool
	loaded  bool
	err     error

	table   table.Model
	pager   paginator.Model
	spinner spinner.Model

	width  int
	height int
}

func newListChrome(name string, columns []table.Column, keys KeyMap, tracker *debounce.Tracker, pageSize int) listChrome {
	if pageSize <= 0 {
		pageSize = planner.PageSize
	}

	si := textinput.New()
	si.Placeholder = "Search " + name + "..."
	si.Prompt = "/ "
	si.CharLimit = 100

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(pageSize+1),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(ColorPrimary).
		Background(ColorSurface).
		Bold(true)
	t.SetStyles(styles)

	p := paginator.New()
	p.Type = paginator.Dots
	p.PerPage = pageSize
	p.ActiveDot = lipgloss.NewStyle().Foreground(ColorPrimary).Render("•")
	p.InactiveDot = Dim.Render("•")

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	return listChrome{
		name:     name,
		keys:     keys,
		debounce: tracker,
		search:   si,
		page:     1,
		pageSize: pageSize,
		table:    t,
		pager:    p,
		spinner:  s,
	}
}

// beginLoad marks a new fetch as current and returns its sequence number.
func (c *listChrome) beginLoad() (int, tea.Cmd) {
	c.seq++
	c.loading = true
	return c.seq, c.spinner.Tick
}

// finishLoad records a fetch result. It reports false for a fetch that has
// been superseded. When the page is past the last page it is clamped and
// reload is set so the owner fetches again.
func (c *listChrome) finishLoad(seq, count int, err error) (current, reload bool) {
	if seq != c.seq {
		return false, false
	}
	c.loading = false
	c.loaded = true
	c.err = err
	if err != nil {
		return true, false
	}
	c.count = count
	total := planner.Pages(count, c.pageSize)
	c.pager.SetTotalPages(count)
	if clamped := planner.ClampPage(c.page, count, c.pageSize); clamped != c.page && total > 0 {
		c.page = clamped
		reload = true
	}
	c.pager.Page = c.page - 1
	return true, reload
}

func (c *listChrome) setRows(rows []table.Row) {
	c.table.SetRows(rows)
	if c.table.Cursor() >= len(rows) {
		c.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (c *listChrome) setSize(width, height int) {
	c.width = width
	c.height = height
	c.table.SetWidth(max(width-4, 20))
	c.search.Width = max(width-10, 10)
}

// update handles search, paging and table navigation. It reports whether the
// owner should fetch again and whether the message was consumed.
func (c *listChrome) update(msg tea.Msg) (cmd tea.Cmd, reload, handled bool) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !c.loading {
			return nil, false, true
		}
		c.spinner, cmd = c.spinner.Update(msg)
		return cmd, false, true

	case debounce.SettledMsg:
		if msg.Key != c.name || !c.debounce.Settled(msg) {
			return nil, false, msg.Key == c.name
		}
		if msg.Value == c.query {
			return nil, false, true
		}
		c.query = msg.Value
		c.page = 1
		return nil, true, true

	case tea.KeyMsg:
		if c.searching {
			switch msg.String() {
			case "esc", "enter", "tab":
				c.searching = false
				c.search.Blur()
				return nil, false, true
			}
			before := c.search.Value()
			c.search, cmd = c.search.Update(msg)
			if v := c.search.Value(); v != before {
				cmd = tea.Batch(cmd, c.debounce.Schedule(c.name, strings.TrimSpace(v)))
			}
			return cmd, false, true
		}

		switch {
		case key.Matches(msg, c.keys.Search):
			c.searching = true
			return c.search.Focus(), false, true
		case key.Matches(msg, c.keys.PrevPage):
			if c.page > 1 {
				c.page--
				return nil, true, true
			}
			return nil, false, true
		case key.Matches(msg, c.keys.NextPage):
			if c.page < planner.Pages(c.count, c.pageSize) {
				c.page++
				return nil, true, true
			}
			return nil, false, true
		case key.Matches(msg, c.keys.Refresh):
			return nil, true, true
		case key.Matches(msg, c.keys.Up), key.Matches(msg, c.keys.Down):
			c.table, cmd = c.table.Update(msg)
			return cmd, false, true
		}
	}
	return nil, false, false
}

// cursor returns the selected row index, or -1 when the table is empty.
func (c *listChrome) cursor() int {
	if len(c.table.Rows()) == 0 {
		return -1
	}
	return c.table.Cursor()
}

func (c *listChrome) view(title string) string {
	var b strings.Builder

	b.WriteString(Header.Render(title))
	if c.count > 0 {
		b.WriteString(Dim.Render(fmt.Sprintf("  %d total", c.count)))
	}
	b.WriteString("\n\n")

	search := c.search.View()
	if c.searching {
		b.WriteString(FocusedBox.Render(search))
	} else {
		b.WriteString(Box.Render(search))
	}
	b.WriteString("\n")

	switch {
	case c.loading && !c.loaded:
		b.WriteString("\n" + c.spinner.View() + " Loading " + c.name + "...\n")
	case c.err != nil:
		b.WriteString("\n" + Error.Render(IconCross()+" "+api.ErrorMessage(c.err)) + "\n")
		b.WriteString(Dim.Render("Press "+c.keys.Refresh.Help().Key+" to retry") + "\n")
	case c.count == 0:
		if c.query != "" {
			b.WriteString("\n" + Dim.Render(fmt.Sprintf("No %s match %q.", c.name, c.query)) + "\n")
		} else {
			b.WriteString("\n" + Dim.Render(fmt.Sprintf("No %s yet. Press %s to add one.", c.name, c.keys.New.Help().Key)) + "\n")
		}
	default:
		b.WriteString(c.table.View())
		b.WriteString("\n")
		pager := c.pager.View() + Dim.Render(fmt.Sprintf("  page %d of %d", c.page, planner.Pages(c.count, c.pageSize)))
		if c.loading {
			pager += "  " + c.spinner.View()
		}
		b.WriteString(lipgloss.PlaceHorizontal(max(c.width-4, 0), lipgloss.Center, pager))
		b.WriteString("\n")
	}
	return b.String()
}
