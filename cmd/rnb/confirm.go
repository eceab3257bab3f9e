package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

const (
	confirmFieldKey = "confirm_result"
	baseFieldKey    = "base_ref"
)

var accentColor = lipgloss.Color("#7D56F4")

// runForm is swapped in tests.
var runForm = func(f *huh.Form) error {
	return f.Run()
}

func rnbHuhTheme() *huh.Theme {
	t := *huh.ThemeCharm()
	t.Focused.FocusedButton = t.Focused.FocusedButton.Background(accentColor)
	t.Focused.Next = t.Focused.FocusedButton
	return &t
}

func newConfirmForm(title string, description string, result *bool) *huh.Form {
	confirm := huh.NewConfirm().
		Key(confirmFieldKey).
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(result)

	return huh.NewForm(huh.NewGroup(confirm)).
		WithTheme(rnbHuhTheme()).
		WithShowHelp(false)
}

// newBasePickerForm offers every applicable base ref, highest priority first.
func newBasePickerForm(ticketID int, candidates []Resolution, choice *string) *huh.Form {
	options := make([]huh.Option[string], 0, len(candidates))
	for _, c := range candidates {
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", c.BaseRef, c.Kind), c.BaseRef))
	}
	if len(candidates) > 0 && *choice == "" {
		*choice = candidates[0].BaseRef
	}
	picker := huh.NewSelect[string]().
		Key(baseFieldKey).
		Title(fmt.Sprintf("Base branch for ticket #%d", ticketID)).
		Options(options...).
		Value(choice)

	return huh.NewForm(huh.NewGroup(picker)).
		WithTheme(rnbHuhTheme()).
		WithShowHelp(false)
}

func pickResolution(ticketID int, candidates []Resolution) (Resolution, error) {
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	var choice string
	if err := runForm(newBasePickerForm(ticketID, candidates, &choice)); err != nil {
		return Resolution{}, err
	}
	for _, c := range candidates {
		if c.BaseRef == choice {
			return c, nil
		}
	}
	return candidates[0], nil
}

func confirmCreate(res Resolution) (bool, error) {
	ok := true
	form := newConfirmForm(
		fmt.Sprintf("Create branch %s?", res.NewBranch),
		fmt.Sprintf("Based on %s (%s)", res.BaseRef, res.Kind),
		&ok,
	)
	if err := runForm(form); err != nil {
		return false, err
	}
	return ok, nil
}
