package ui

import tea "github.com/charmbracelet/bubbletea"

type KeyMap struct {
	Pause         tea.Key
	Follow        tea.Key
	Direction     tea.Key
	Search        tea.Key
	Filter        tea.Key
	Keyword       tea.Key
	Expression    tea.Key
	ShowAll       tea.Key
	HideAll       tea.Key
	ClearFilters  tea.Key
	ToggleLevel   tea.Key
	ToggleSource  tea.Key
	ToggleType    tea.Key
	ToggleSubtype tea.Key
	Export        tea.Key
	Explain       tea.Key
	CopyLine      tea.Key
	ClearEntries  tea.Key
	Buffer        tea.Key
	PresetSave    tea.Key
	PresetLoad    tea.Key
	DiagLogs      tea.Key
	Inspector     tea.Key
	Top           tea.Key
	Bottom        tea.Key
	Help          tea.Key
	Quit          tea.Key
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Pause:         tea.Key{Type: tea.KeyRunes, Runes: []rune{' '}},
		Follow:        tea.Key{Type: tea.KeyRunes, Runes: []rune{'t'}},
		Direction:     tea.Key{Type: tea.KeyRunes, Runes: []rune{'d'}},
		Search:        tea.Key{Type: tea.KeyRunes, Runes: []rune{'/'}},
		Filter:        tea.Key{Type: tea.KeyRunes, Runes: []rune{'f'}},
		Keyword:       tea.Key{Type: tea.KeyRunes, Runes: []rune{'k'}},
		Expression:    tea.Key{Type: tea.KeyRunes, Runes: []rune{'x'}},
		ShowAll:       tea.Key{Type: tea.KeyRunes, Runes: []rune{'a'}},
		HideAll:       tea.Key{Type: tea.KeyRunes, Runes: []rune{'H'}},
		ClearFilters:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'F'}},
		ToggleLevel:   tea.Key{Type: tea.KeyRunes, Runes: []rune{'l'}},
		ToggleSource:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'s'}},
		ToggleType:    tea.Key{Type: tea.KeyRunes, Runes: []rune{'y'}},
		ToggleSubtype: tea.Key{Type: tea.KeyRunes, Runes: []rune{'u'}},
		Export:        tea.Key{Type: tea.KeyRunes, Runes: []rune{'e'}},
		Explain:       tea.Key{Type: tea.KeyRunes, Runes: []rune{'i'}},
		CopyLine:      tea.Key{Type: tea.KeyRunes, Runes: []rune{'c'}},
		ClearEntries:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'C'}},
		Buffer:        tea.Key{Type: tea.KeyRunes, Runes: []rune{'B'}},
		PresetSave:    tea.Key{Type: tea.KeyRunes, Runes: []rune{'P'}},
		PresetLoad:    tea.Key{Type: tea.KeyRunes, Runes: []rune{'p'}},
		DiagLogs:      tea.Key{Type: tea.KeyRunes, Runes: []rune{'L'}},
		Inspector:     tea.Key{Type: tea.KeyEnter},
		Top:           tea.Key{Type: tea.KeyRunes, Runes: []rune{'g'}},
		Bottom:        tea.Key{Type: tea.KeyRunes, Runes: []rune{'G'}},
		Help:          tea.Key{Type: tea.KeyRunes, Runes: []rune{'?'}},
		Quit:          tea.Key{Type: tea.KeyRunes, Runes: []rune{'q'}},
	}
}

func keyMatches(msg tea.KeyMsg, k tea.Key) bool {
	if k.Type != tea.KeyRunes {
		return msg.Type == k.Type
	}
	if len(k.Runes) > 0 {
		return msg.String() == string(k.Runes)
	}
	return false
}
