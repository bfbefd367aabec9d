package views

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/huddle/internal/chat"
	"github.com/matheus3301/huddle/internal/tui/ui"
	"github.com/rivo/tview"
)

// NewChat is the compose-new form: recipient search, optional group name
// and the matching directory entries.
type NewChat struct {
	*tview.Flex
	theme      *ui.Theme
	recipient  *tview.InputField
	groupName  *tview.InputField
	candidates *tview.Table
	users      []chat.UserRef
	showGroup  bool
	onPick     func(u chat.UserRef)
}

// NewNewChat creates the compose-new form.
func NewNewChat(theme *ui.Theme) *NewChat {
	recipient := tview.NewInputField().
		SetLabel(" To: ").
		SetPlaceholder("Enter name or email (3+ characters)").
		SetFieldWidth(0)
	recipient.SetBackgroundColor(theme.BgColor)
	recipient.SetFieldBackgroundColor(theme.BgColor)
	recipient.SetFieldTextColor(theme.FgColor)
	recipient.SetLabelColor(theme.MenuKeyColor)

	groupName := tview.NewInputField().
		SetLabel(" Group name: ").
		SetFieldWidth(0)
	groupName.SetBackgroundColor(theme.BgColor)
	groupName.SetFieldBackgroundColor(theme.BgColor)
	groupName.SetFieldTextColor(theme.FgColor)
	groupName.SetLabelColor(theme.MenuKeyColor)

	candidates := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	candidates.SetBorder(true)
	candidates.SetBorderColor(theme.BorderColor)
	candidates.SetBackgroundColor(theme.BgColor)
	candidates.SetTitle(" People ")
	candidates.SetTitleColor(theme.TitleColor)
	candidates.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	flex := tview.NewFlex().SetDirection(tview.FlexRow)
	flex.SetBorder(true)
	flex.SetBorderColor(theme.BorderColor)
	flex.SetBackgroundColor(theme.BgColor)
	flex.SetTitle(" New chat ")
	flex.SetTitleColor(theme.TitleColor)

	nc := &NewChat{
		Flex:       flex,
		theme:      theme,
		recipient:  recipient,
		groupName:  groupName,
		candidates: candidates,
	}
	nc.layout()

	candidates.SetSelectedFunc(func(row, _ int) {
		if row >= 0 && row < len(nc.users) && nc.onPick != nil {
			nc.onPick(nc.users[row])
		}
	})

	return nc
}

func (nc *NewChat) layout() {
	nc.Clear()
	nc.AddItem(nc.recipient, 1, 0, true)
	if nc.showGroup {
		nc.AddItem(nc.groupName, 1, 0, false)
	}
	nc.AddItem(nc.candidates, 0, 1, false)
}

// SetOnQuery sets the callback for recipient edits.
func (nc *NewChat) SetOnQuery(fn func(q string)) {
	nc.recipient.SetChangedFunc(fn)
}

// SetOnGroupName sets the callback for group name edits.
func (nc *NewChat) SetOnGroupName(fn func(name string)) {
	nc.groupName.SetChangedFunc(fn)
}

// SetOnPick sets the callback when a candidate is chosen.
func (nc *NewChat) SetOnPick(fn func(u chat.UserRef)) {
	nc.onPick = fn
}

// Update syncs the form with the manager view.
func (nc *NewChat) Update(v chat.View) {
	if nc.recipient.GetText() != v.RecipientQuery {
		nc.recipient.SetText(v.RecipientQuery)
	}
	if nc.groupName.GetText() != v.GroupName {
		nc.groupName.SetText(v.GroupName)
	}
	if nc.showGroup != v.ShowGroupNameField {
		nc.showGroup = v.ShowGroupNameField
		nc.layout()
	}

	nc.users = v.Candidates
	nc.candidates.Clear()
	for i, u := range v.Candidates {
		nc.candidates.SetCell(i, 0, tview.NewTableCell(" "+chat.Initials(u.Name)).SetTextColor(nc.theme.PeerColor))
		nc.candidates.SetCell(i, 1, tview.NewTableCell(" "+display(u.Name)).SetExpansion(1).SetTextColor(nc.theme.FgColor))
		nc.candidates.SetCell(i, 2, tview.NewTableCell(" "+display(u.Email)).SetExpansion(1).SetTextColor(nc.theme.MutedColor))
	}
	switch {
	case utf8.RuneCountInString(strings.TrimSpace(v.RecipientQuery)) < chat.MinQueryLen:
		nc.candidates.SetTitle(" People ")
	default:
		nc.candidates.SetTitle(fmt.Sprintf(" People (%d) ", len(v.Candidates)))
	}
}

// Recipient returns the recipient input.
func (nc *NewChat) Recipient() *tview.InputField {
	return nc.recipient
}

// GroupName returns the group name input.
func (nc *NewChat) GroupName() *tview.InputField {
	return nc.groupName
}

// Candidates returns the candidates table.
func (nc *NewChat) Candidates() *tview.Table {
	return nc.candidates
}
