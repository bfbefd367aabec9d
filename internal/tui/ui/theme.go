package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// Theme holds color constants for the TUI.
type Theme struct {
	BgColor           tcell.Color
	FgColor           tcell.Color
	MutedColor        tcell.Color
	BorderColor       tcell.Color
	BorderFocusColor  tcell.Color
	TableHeaderFg     tcell.Color
	TableHeaderBg     tcell.Color
	TableCursorFg     tcell.Color
	TableCursorBg     tcell.Color
	SelfColor         tcell.Color
	PeerColor         tcell.Color
	MenuKeyColor      tcell.Color
	TitleColor        tcell.Color
	StatusBarBg       tcell.Color
	FlashInfoColor    tcell.Color
	FlashWarnColor    tcell.Color
	FlashErrColor     tcell.Color
	PromptBorderColor tcell.Color
}

// DefaultTheme returns a dark theme in the Teams purple.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:           tcell.ColorBlack,
		FgColor:           tcell.ColorWhiteSmoke,
		MutedColor:        tcell.ColorGray,
		BorderColor:       tcell.NewHexColor(0x6264A7),
		BorderFocusColor:  tcell.NewHexColor(0x9EA2FF),
		TableHeaderFg:     tcell.ColorWhite,
		TableHeaderBg:     tcell.ColorBlack,
		TableCursorFg:     tcell.ColorBlack,
		TableCursorBg:     tcell.NewHexColor(0x9EA2FF),
		SelfColor:         tcell.NewHexColor(0xC5CBFA),
		PeerColor:         tcell.ColorNavajoWhite,
		MenuKeyColor:      tcell.NewHexColor(0x9EA2FF),
		TitleColor:        tcell.NewHexColor(0xC5CBFA),
		StatusBarBg:       tcell.NewHexColor(0x33344A),
		FlashInfoColor:    tcell.ColorNavajoWhite,
		FlashWarnColor:    tcell.ColorOrange,
		FlashErrColor:     tcell.ColorOrangeRed,
		PromptBorderColor: tcell.NewHexColor(0x6264A7),
	}
}

// HexColor parses a "#RRGGBB" string, returning fallback when it is not one.
func HexColor(hex string, fallback tcell.Color) tcell.Color {
	c := tcell.GetColor(hex)
	if c == tcell.ColorDefault {
		return fallback
	}
	return c
}

// ColorTag returns a tview color tag name for c.
func ColorTag(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
