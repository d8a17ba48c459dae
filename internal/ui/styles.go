package ui

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	Status      lipgloss.Style
	Help        lipgloss.Style
	TableStyles TableStyles
	PopupBox    lipgloss.Style
	PopupTitle  lipgloss.Style

	JSONKey    lipgloss.Style
	JSONString lipgloss.Style
	JSONNumber lipgloss.Style
	JSONBool   lipgloss.Style
	JSONNull   lipgloss.Style
	JSONPunct  lipgloss.Style
}

type TableStyles struct {
	Header   lipgloss.Style
	Cell     lipgloss.Style
	Selected lipgloss.Style
}

func NewStyles(dark bool) Styles {
	s := Styles{}
	if dark {
		s.Status = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
		s.Help = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
		s.PopupBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("60")).Padding(1, 2)
		s.PopupTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
		s.JSONKey = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
		s.JSONString = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
		s.JSONNumber = lipgloss.NewStyle().Foreground(lipgloss.Color("215"))
		s.JSONBool = lipgloss.NewStyle().Foreground(lipgloss.Color("176"))
		s.JSONNull = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
		s.JSONPunct = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	} else {
		s.Status = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		s.Help = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		s.PopupBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("12")).Padding(1, 2)
		s.PopupTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("27"))
		s.JSONKey = lipgloss.NewStyle().Foreground(lipgloss.Color("27"))
		s.JSONString = lipgloss.NewStyle().Foreground(lipgloss.Color("28"))
		s.JSONNumber = lipgloss.NewStyle().Foreground(lipgloss.Color("130"))
		s.JSONBool = lipgloss.NewStyle().Foreground(lipgloss.Color("90"))
		s.JSONNull = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		s.JSONPunct = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	}
	// PaddingRight instead of the table default padding keeps the column
	// width math exact.
	s.TableStyles = TableStyles{
		Header:   lipgloss.NewStyle().PaddingRight(1).Bold(true),
		Cell:     lipgloss.NewStyle().PaddingRight(1),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("220")),
	}
	return s
}
