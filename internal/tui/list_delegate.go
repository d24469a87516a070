package tui

import (
	"fmt"
	"io"
	"strings"

	"replytree/internal/model"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

type threadItem struct {
	thread  model.Thread
	current bool
}

func (it threadItem) FilterValue() string { return it.thread.Title }

func (it threadItem) Title() string {
	title := it.thread.Title
	if it.current {
		title = glyphArrow() + " " + title
	}
	if it.thread.Hidden {
		title += " [hidden]"
	}
	return title
}

func (it threadItem) Description() string {
	return fmt.Sprintf("%s  v%d  %s", it.thread.ID, it.thread.Version, it.thread.UpdatedAt.Format("2006-01-02 15:04"))
}

type compactItemDelegate struct {
	normal   lipgloss.Style
	selected lipgloss.Style
}

func newCompactItemDelegate() compactItemDelegate {
	return compactItemDelegate{
		normal:   lipgloss.NewStyle(),
		selected: styleSelected(),
	}
}

func (d compactItemDelegate) Height() int  { return 1 }
func (d compactItemDelegate) Spacing() int { return 0 }
func (d compactItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d compactItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	contentW := m.Width()
	if contentW < 4 {
		fmt.Fprint(w, "")
		return
	}

	style := d.normal
	if index == m.Index() {
		style = d.selected
	}

	txt := ""
	if t, ok := item.(threadItem); ok {
		txt = t.Title() + "  " + styleMuted().Render(t.Description())
	} else if t, ok := item.(interface{ Title() string }); ok {
		txt = t.Title()
	} else {
		txt = fmt.Sprint(item)
	}
	fmt.Fprint(w, style.Render(padOrCut(txt, contentW)))
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, newCompactItemDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("thread", "threads")
	return l
}

// padOrCut fits s to exactly w cells, closing any styling it cut through.
func padOrCut(s string, w int) string {
	cur := xansi.StringWidth(s)
	switch {
	case cur < w:
		return s + strings.Repeat(" ", w-cur)
	case cur > w:
		return xansi.Cut(s, 0, w) + "\x1b[0m"
	default:
		return s
	}
}

func truncateToWidth(s string, w int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if w <= 0 {
		return ""
	}
	if xansi.StringWidth(s) <= w {
		return s
	}
	ell := glyphPending()
	ew := xansi.StringWidth(ell)
	if w <= ew {
		return xansi.Cut(s, 0, w)
	}
	return xansi.Cut(s, 0, w-ew) + ell
}

func selectListItemByID(l *list.Model, id string) {
	for i, it := range l.Items() {
		if ti, ok := it.(threadItem); ok && ti.thread.ID == id {
			l.Select(i)
			return
		}
	}
}
