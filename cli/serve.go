// ABOUTME: HTTP API and terminal UI subcommands
// ABOUTME: Starts the gin server or the agenda browser against the configured store
package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/harperreed/outbound/tui"
	"github.com/harperreed/outbound/web"
)

// ServeCommand runs the HTTP API until the listener fails.
func ServeCommand(_ context.Context, env *Env, args []string) error {
	fs := newFlagSet("serve")
	addr := fs.String("addr", env.Config.Addr, "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return web.NewServer(env.Engine, env.Metrics, env.Log, env.Version).Run(*addr)
}

// TUICommand opens the agenda browser for one owner.
func TUICommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("tui")
	owner := fs.String("owner", "", "Owner email (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *owner == "" {
		return fmt.Errorf("--owner is required")
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui needs an interactive terminal")
	}

	p := tea.NewProgram(tui.NewModel(ctx, env.Engine, *owner), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
