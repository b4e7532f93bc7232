// Package console is the terminal UI for the console transport: one
// transcript per room, a room switcher and a live feed of bot activity.
package console

import (
	"context"
	"errors"
	"fmt"

	"relaybot/pkg/bus"
	"relaybot/pkg/chat"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Session is the console transport as seen by the UI.
type Session interface {
	Rooms() []chat.Conversation
	User() chat.User
	Say(ctx context.Context, roomID string, text string) (chat.Event, error)
}

// Run blocks until the user quits or ctx ends.
func Run(ctx context.Context, session Session, messages *bus.MessageBus) error {
	if session == nil || messages == nil {
		return errors.New("console session and message bus are required")
	}
	if len(session.Rooms()) == 0 {
		return errors.New("console has no rooms")
	}

	events, unsubscribe := messages.SubscribeEvents(ctx, 64)
	defer unsubscribe()

	model := newModel(ctx, session, messages, events)
	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(renderGoodbyeBanner())
	return nil
}

func renderGoodbyeBanner() string {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("88")).
		Padding(1, 2)

	return style.Render("relaybot console closed")
}
