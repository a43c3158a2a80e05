// ABOUTME: Shared plumbing for the campaign CLI commands
// ABOUTME: Command environment, flag parsing helpers, and tabular output
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/config"
	"github.com/harperreed/outbound/content"
	"github.com/harperreed/outbound/logger"
	"github.com/harperreed/outbound/metrics"
	"github.com/harperreed/outbound/models"
)

// Env is what every command runs against.
type Env struct {
	Engine  *campaign.Engine
	Config  *config.Config
	Log     *logger.Logger
	Metrics *metrics.Collector
	Version string

	// Out receives command output; stdout when nil.
	Out io.Writer
	// Generator overrides the OpenAI generator built from Config.
	Generator content.Generator
}

func (e *Env) out() io.Writer {
	if e.Out == nil {
		return os.Stdout
	}
	return e.Out
}

func (e *Env) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(e.out(), format, args...)
}

func (e *Env) table() *tabwriter.Writer {
	return tabwriter.NewWriter(e.out(), 0, 0, 2, ' ', 0)
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

// parseIDs reads a comma-separated id list such as "3,7".
func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one id is required")
	}
	return ids, nil
}

func optionalPlatform(s string) (models.Platform, error) {
	if s == "" {
		return "", nil
	}
	return models.ParsePlatform(s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
