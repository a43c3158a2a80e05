// ABOUTME: MCP prompt handlers for reusable campaign review templates
// ABOUTME: Builds experiment-review and agenda-briefing prompts from live engine data
package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/models"
)

type PromptHandlers struct {
	engine *campaign.Engine
}

func NewPromptHandlers(engine *campaign.Engine) *PromptHandlers {
	return &PromptHandlers{engine: engine}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	arguments := request.Params.Arguments
	switch name {
	case "experiment-review":
		return h.getExperimentReviewPrompt(ctx, arguments)
	case "agenda-briefing":
		return h.getAgendaBriefingPrompt(ctx, arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

func (h *PromptHandlers) getExperimentReviewPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	owner := args["owner_email"]
	if owner == "" {
		return nil, fmt.Errorf("owner_email is required")
	}
	idStr, ok := args["experiment_generator_id"]
	if !ok {
		return nil, fmt.Errorf("experiment_generator_id is required")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid experiment_generator_id: %w", err)
	}

	views, err := h.engine.GetExperiments(ctx, owner, []int64{id})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch experiments: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Please review the results of experiment generator %d:\n\n", id))
	if len(views) == 0 {
		promptText.WriteString("No experiments have been run yet.\n")
	}
	for _, v := range views {
		promptText.WriteString(fmt.Sprintf("Experiment %d on %s: %d successes out of %d trials\n", v.ID, v.Platform, v.Successes, v.Trials))
		for i, c := range v.Content {
			promptText.WriteString(fmt.Sprintf("  Arm %d:\n", i+1))
			for _, slot := range models.Slots {
				if c[slot] != "" {
					promptText.WriteString(fmt.Sprintf("    %s: %s\n", slot.Kind(), c[slot]))
				}
			}
		}
	}

	promptText.WriteString("\nPlease analyze these experiments and provide:")
	promptText.WriteString("\n1. Which arms and content variables are performing best")
	promptText.WriteString("\n2. Whether there are enough trials to trust the difference")
	promptText.WriteString("\n3. Suggested variables to try in the next round")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review of experiment generator %d", id),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText.String()},
			},
		},
	}, nil
}

func (h *PromptHandlers) getAgendaBriefingPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	owner := args["owner_email"]
	if owner == "" {
		return nil, fmt.Errorf("owner_email is required")
	}

	tasks, err := h.engine.Agenda(ctx, owner, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agenda: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Prepare %s for today's outreach. %d tasks are queued:\n\n", owner, len(tasks)))
	for _, t := range tasks {
		who := t.Customer.Name
		if who == "" {
			who = t.Customer.PhoneNumber
		}
		promptText.WriteString(fmt.Sprintf("- %s (%s), step %d of experiment %d\n", who, t.Platform, t.SequenceIdx, t.ExperimentID))
		if opener := t.Content[models.SlotE]; opener != "" {
			promptText.WriteString(fmt.Sprintf("  Greeting: %s\n", opener))
		}
		if pain := t.Content[models.SlotA]; pain != "" {
			promptText.WriteString(fmt.Sprintf("  Pain point: %s\n", pain))
		}
	}

	promptText.WriteString("\nFor each call, suggest an opening line and one likely objection with a response.")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Agenda briefing for %s", owner),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText.String()},
			},
		},
	}, nil
}
