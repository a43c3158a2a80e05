// ABOUTME: Gmail draft CLI command and the OAuth flow it needs
// ABOUTME: Authorizes once through a local callback, then drafts one email per outbound contact
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/term"

	"github.com/harperreed/outbound/outreach"
)

// DraftEmailsCommand creates Gmail drafts for the Email contacts of some experiment generators.
func DraftEmailsCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("draft-emails")
	generators := fs.String("generators", "", "Comma-separated experiment generator ids (required)")
	from := fs.String("from", env.Config.Sender, "Sender address")
	dryRun := fs.Bool("dry-run", false, "Print the composed messages instead of drafting them")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := parseIDs(*generators)
	if err != nil {
		return fmt.Errorf("--generators: %w", err)
	}
	if *from == "" {
		return fmt.Errorf("--from is required (or set sender in the config)")
	}

	contacts, err := env.Engine.OutboundContacts(ctx, ids)
	if err != nil {
		return err
	}

	var creator outreach.DraftCreator
	if *dryRun {
		creator = &printDrafts{env: env}
	} else {
		config := outreach.NewOAuthConfig(env.Config.GoogleClientID, env.Config.GoogleClientSecret)
		if err := outreach.CheckOAuthConfig(config); err != nil {
			return err
		}
		token, err := loadOrAuthorize(ctx, env, config)
		if err != nil {
			return err
		}
		creator, err = outreach.NewGmailDrafts(ctx, config, token)
		if err != nil {
			return err
		}
	}

	results := outreach.DraftAll(ctx, creator, *from, contacts, env.Log)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			env.printf("  ✗ %s: %v\n", r.Email, r.Err)
		}
	}
	env.printf("✓ Drafted %d emails", len(results)-failed)
	if failed > 0 {
		env.printf(", %d failed", failed)
	}
	env.printf("\n")
	if failed > 0 {
		return fmt.Errorf("%d drafts failed", failed)
	}
	return nil
}

type printDrafts struct {
	env *Env
	n   int
}

func (p *printDrafts) CreateDraft(_ context.Context, raw string) (string, error) {
	p.n++
	p.env.printf("--- draft %d (%d bytes encoded)\n", p.n, len(raw))
	return fmt.Sprintf("dry-run-%d", p.n), nil
}

func loadOrAuthorize(ctx context.Context, env *Env, config *oauth2.Config) (*oauth2.Token, error) {
	path := outreach.TokenPath()
	if token, err := outreach.LoadToken(path); err == nil {
		return token, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("no Google token at %s; run draft-emails once from an interactive terminal to authorize", path)
	}
	return authorize(ctx, env, config, path)
}

// authorize runs the browser consent flow against a local callback server.
func authorize(ctx context.Context, env *Env, config *oauth2.Config, path string) (*oauth2.Token, error) {
	callbackChan := make(chan *oauth2.Token, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no authorization code received")
			return
		}

		token, err := outreach.Exchange(ctx, config, code, path)
		if err != nil {
			errChan <- err
			return
		}

		callbackChan <- token
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
	})

	server := &http.Server{Addr: "localhost:8080", Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	defer func() { _ = server.Shutdown(context.Background()) }()

	authURL := config.AuthCodeURL("state", oauth2.AccessTypeOffline)
	env.printf("Opening browser for Google OAuth...\n")
	env.printf("\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)
	_ = openBrowser(authURL)

	select {
	case token := <-callbackChan:
		env.printf("✓ Authenticated; token saved to %s\n", path)
		return token, nil
	case err := <-errChan:
		return nil, fmt.Errorf("OAuth flow failed: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	return exec.Command(cmd, args...).Start()
}
