package parklist

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize/english"

	"github.com/nhle/community-roots/internal/model"
	"github.com/nhle/community-roots/internal/theme"
)

// ParkItem wraps a model.Park so it can be used in a bubbles/list.
type ParkItem struct {
	Park model.Park
}

// FilterValue returns the string used for fuzzy filtering.
func (i ParkItem) FilterValue() string { return i.Park.Name }

// Title returns the park name for the list.
func (i ParkItem) Title() string { return i.Park.Name }

// Description returns a short summary line for the list.
func (i ParkItem) Description() string {
	return fmt.Sprintf("%s | %s", i.Park.Location, taskSummary(i.Park))
}

// ParkDelegate implements list.ItemDelegate for rendering parks.
type ParkDelegate struct{}

// Height returns the number of lines each item takes.
func (d ParkDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ParkDelegate) Spacing() int { return 1 }

// Update handles per-item messages (unused).
func (d ParkDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a park as a name line followed by its location and tasks.
func (d ParkDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	pi, ok := item.(ParkItem)
	if !ok {
		return
	}

	name := lipgloss.NewStyle().Bold(true).Render(pi.Park.Name)
	if _, ok := pi.Park.Coordinates(); ok {
		name += theme.MutedStyle.Render(" ◎")
	}

	open := len(pi.Park.OpenTasks())
	badge := theme.MutedStyle.Render(taskSummary(pi.Park))
	if open > 0 {
		badge = lipgloss.NewStyle().Foreground(theme.ColorGreen).Render(taskSummary(pi.Park))
	}

	line := fmt.Sprintf(
		"%s\n%s  %s",
		name, theme.MutedStyle.Render(pi.Park.Location), badge,
	)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

func taskSummary(p model.Park) string {
	return english.Plural(len(p.OpenTasks()), "open task", "")
}
