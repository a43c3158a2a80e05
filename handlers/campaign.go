// ABOUTME: Campaign MCP tool handlers
// ABOUTME: Implements experiment setup, generator and experiment queries, agenda, and event tools
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/models"
)

type CampaignHandlers struct {
	engine *campaign.Engine
}

func NewCampaignHandlers(engine *campaign.Engine) *CampaignHandlers {
	return &CampaignHandlers{engine: engine}
}

// optionalPlatform parses a platform filter; empty means any.
func optionalPlatform(s string) (models.Platform, error) {
	if s == "" {
		return "", nil
	}
	return models.ParsePlatform(s)
}

type SetupExperimentsInput struct {
	VariableGeneratorIDs []int64 `json:"variable_generator_ids" jsonschema:"Ordered variable generator IDs, one per arm (1 to 5)"`
	Trials               int     `json:"trials" jsonschema:"Customers per experiment"`
	Rounds               int     `json:"rounds" jsonschema:"Number of experiments to run"`
	Platform             string  `json:"platform" jsonschema:"Email, LinkedIn, or Phone"`
	Country              string  `json:"country" jsonschema:"Country customers are drawn from"`
	OwnerEmail           string  `json:"owner_email,omitempty" jsonschema:"Operator email; phone tasks are queued on this agenda"`
}

type RoundOutput struct {
	ExperimentID int64 `json:"experiment_id"`
	Created      bool  `json:"created"`
	Assigned     int   `json:"assigned"`
	Skipped      int   `json:"skipped"`
	Tasks        int   `json:"tasks"`
}

type SetupExperimentsOutput struct {
	ExperimentGeneratorID int64         `json:"experiment_generator_id,omitempty"`
	GeneratorCreated      bool          `json:"generator_created"`
	RoundsRequested       int           `json:"rounds_requested"`
	RoundsCommitted       int           `json:"rounds_committed"`
	Rounds                []RoundOutput `json:"rounds"`
	// StoppedEarly holds the cause when fewer rounds than requested were committed.
	StoppedEarly string `json:"stopped_early,omitempty"`
}

func (h *CampaignHandlers) SetupExperiments(ctx context.Context, _ *mcp.CallToolRequest, input SetupExperimentsInput) (*mcp.CallToolResult, SetupExperimentsOutput, error) {
	platform, err := models.ParsePlatform(input.Platform)
	if err != nil {
		return nil, SetupExperimentsOutput{}, err
	}

	result, err := h.engine.FullExperimentalSetup(ctx, campaign.SetupRequest{
		VariableGeneratorIDs: input.VariableGeneratorIDs,
		Trials:               input.Trials,
		Rounds:               input.Rounds,
		Platform:             platform,
		Country:              input.Country,
		OwnerEmail:           input.OwnerEmail,
	})

	var partial *campaign.PartialSetupError
	if err != nil && !errors.As(err, &partial) {
		return nil, SetupExperimentsOutput{}, err
	}

	out := SetupExperimentsOutput{RoundsRequested: input.Rounds, Rounds: []RoundOutput{}}
	if result != nil {
		out.ExperimentGeneratorID = result.ExperimentGenerator.ID
		out.GeneratorCreated = result.GeneratorCreated
		for _, r := range result.Rounds {
			out.Rounds = append(out.Rounds, RoundOutput{
				ExperimentID: r.Experiment.ID,
				Created:      r.ExperimentCreated,
				Assigned:     len(r.Assigned),
				Skipped:      len(r.Skipped),
				Tasks:        r.Tasks,
			})
		}
	}
	out.RoundsCommitted = len(out.Rounds)
	if partial != nil {
		out.StoppedEarly = partial.Err.Error()
	}
	return nil, out, nil
}

type ListVariableGeneratorsInput struct {
	OwnerEmail string `json:"owner_email" jsonschema:"Owner of the generators (required)"`
	Platform   string `json:"platform,omitempty" jsonschema:"Filter by platform"`
	Phase      string `json:"phase,omitempty" jsonschema:"Filter by phase, e.g. Phase 1"`
}

type ListVariableGeneratorsOutput struct {
	Generators []models.VariableGenerator `json:"generators"`
}

func (h *CampaignHandlers) ListVariableGenerators(ctx context.Context, _ *mcp.CallToolRequest, input ListVariableGeneratorsInput) (*mcp.CallToolResult, ListVariableGeneratorsOutput, error) {
	if input.OwnerEmail == "" {
		return nil, ListVariableGeneratorsOutput{}, fmt.Errorf("owner_email is required")
	}
	platform, err := optionalPlatform(input.Platform)
	if err != nil {
		return nil, ListVariableGeneratorsOutput{}, err
	}

	gens, err := h.engine.ListVariableGenerators(ctx, input.OwnerEmail, platform, input.Phase)
	if err != nil {
		return nil, ListVariableGeneratorsOutput{}, err
	}
	return nil, ListVariableGeneratorsOutput{Generators: gens}, nil
}

type ListVariablesInput struct {
	VariableGeneratorID int64 `json:"variable_generator_id" jsonschema:"Generator whose variables to list"`
}

type ListVariablesOutput struct {
	Variables []models.Variable `json:"variables"`
}

func (h *CampaignHandlers) ListVariables(ctx context.Context, _ *mcp.CallToolRequest, input ListVariablesInput) (*mcp.CallToolResult, ListVariablesOutput, error) {
	vars, err := h.engine.ListVariables(ctx, input.VariableGeneratorID)
	if err != nil {
		return nil, ListVariablesOutput{}, err
	}
	return nil, ListVariablesOutput{Variables: vars}, nil
}

type ListExperimentGeneratorsInput struct {
	OwnerEmail string `json:"owner_email,omitempty" jsonschema:"Filter by owner"`
	Platform   string `json:"platform,omitempty" jsonschema:"Filter by platform"`
}

type ListExperimentGeneratorsOutput struct {
	Generators []models.ExperimentGenerator `json:"generators"`
}

func (h *CampaignHandlers) ListExperimentGenerators(ctx context.Context, _ *mcp.CallToolRequest, input ListExperimentGeneratorsInput) (*mcp.CallToolResult, ListExperimentGeneratorsOutput, error) {
	platform, err := optionalPlatform(input.Platform)
	if err != nil {
		return nil, ListExperimentGeneratorsOutput{}, err
	}
	gens, err := h.engine.ListExperimentGenerators(ctx, input.OwnerEmail, platform)
	if err != nil {
		return nil, ListExperimentGeneratorsOutput{}, err
	}
	return nil, ListExperimentGeneratorsOutput{Generators: gens}, nil
}

type GetExperimentsInput struct {
	OwnerEmail             string  `json:"owner_email" jsonschema:"Owner the experiments were created for"`
	ExperimentGeneratorIDs []int64 `json:"experiment_generator_ids" jsonschema:"Experiment generators to read"`
}

type GetExperimentsOutput struct {
	Experiments []campaign.ExperimentView `json:"experiments"`
}

func (h *CampaignHandlers) GetExperiments(ctx context.Context, _ *mcp.CallToolRequest, input GetExperimentsInput) (*mcp.CallToolResult, GetExperimentsOutput, error) {
	if len(input.ExperimentGeneratorIDs) == 0 {
		return nil, GetExperimentsOutput{}, fmt.Errorf("experiment_generator_ids is required")
	}
	views, err := h.engine.GetExperiments(ctx, input.OwnerEmail, input.ExperimentGeneratorIDs)
	if err != nil {
		return nil, GetExperimentsOutput{}, err
	}
	if views == nil {
		views = []campaign.ExperimentView{}
	}
	return nil, GetExperimentsOutput{Experiments: views}, nil
}

type OutboundContactsInput struct {
	ExperimentGeneratorIDs []int64 `json:"experiment_generator_ids" jsonschema:"Experiment generators whose assignments to list"`
}

type OutboundContactsOutput struct {
	Contacts []campaign.OutboundContact `json:"contacts"`
	Count    int                        `json:"count"`
}

func (h *CampaignHandlers) OutboundContacts(ctx context.Context, _ *mcp.CallToolRequest, input OutboundContactsInput) (*mcp.CallToolResult, OutboundContactsOutput, error) {
	if len(input.ExperimentGeneratorIDs) == 0 {
		return nil, OutboundContactsOutput{}, fmt.Errorf("experiment_generator_ids is required")
	}
	contacts, err := h.engine.OutboundContacts(ctx, input.ExperimentGeneratorIDs)
	if err != nil {
		return nil, OutboundContactsOutput{}, err
	}
	if contacts == nil {
		contacts = []campaign.OutboundContact{}
	}
	return nil, OutboundContactsOutput{Contacts: contacts, Count: len(contacts)}, nil
}

type GetAgendaInput struct {
	OwnerEmail string `json:"owner_email" jsonschema:"Operator whose agenda to read (required)"`
	Platform   string `json:"platform,omitempty" jsonschema:"Filter by platform"`
}

type GetAgendaOutput struct {
	Tasks []models.Task `json:"tasks"`
}

func (h *CampaignHandlers) GetAgenda(ctx context.Context, _ *mcp.CallToolRequest, input GetAgendaInput) (*mcp.CallToolResult, GetAgendaOutput, error) {
	if input.OwnerEmail == "" {
		return nil, GetAgendaOutput{}, fmt.Errorf("owner_email is required")
	}
	platform, err := optionalPlatform(input.Platform)
	if err != nil {
		return nil, GetAgendaOutput{}, err
	}
	tasks, err := h.engine.Agenda(ctx, input.OwnerEmail, platform)
	if err != nil {
		return nil, GetAgendaOutput{}, err
	}
	return nil, GetAgendaOutput{Tasks: tasks}, nil
}

type CompleteTaskInput struct {
	OwnerEmail  string `json:"owner_email" jsonschema:"Operator whose agenda holds the task (required)"`
	Platform    string `json:"platform,omitempty" jsonschema:"Task platform"`
	PhoneNumber string `json:"phone_number,omitempty" jsonschema:"Customer phone number"`
	Email       string `json:"email,omitempty" jsonschema:"Customer email"`
	SequenceIdx string `json:"sequence_idx,omitempty" jsonschema:"Arm position of the task, 1-based"`
	Status      string `json:"status,omitempty" jsonschema:"Outcome to record, e.g. answered"`
	Success     bool   `json:"success,omitempty" jsonschema:"Whether the contact converted"`
}

type CompleteTaskOutput struct {
	Task models.Task `json:"task"`
}

func (h *CampaignHandlers) CompleteTask(ctx context.Context, _ *mcp.CallToolRequest, input CompleteTaskInput) (*mcp.CallToolResult, CompleteTaskOutput, error) {
	if input.OwnerEmail == "" {
		return nil, CompleteTaskOutput{}, fmt.Errorf("owner_email is required")
	}
	platform, err := optionalPlatform(input.Platform)
	if err != nil {
		return nil, CompleteTaskOutput{}, err
	}

	task, err := h.engine.CompleteTask(ctx, input.OwnerEmail, campaign.TaskMatch{
		Platform:    platform,
		PhoneNumber: input.PhoneNumber,
		Email:       input.Email,
		SequenceIdx: input.SequenceIdx,
	}, &models.Event{Status: input.Status, Success: input.Success})
	if err != nil {
		return nil, CompleteTaskOutput{}, err
	}
	return nil, CompleteTaskOutput{Task: *task}, nil
}

type RecordEventInput struct {
	Platform              string `json:"platform" jsonschema:"Email, LinkedIn, or Phone"`
	Status                string `json:"status,omitempty" jsonschema:"Event status, e.g. opened or replied"`
	OwnerEmail            string `json:"owner_email,omitempty" jsonschema:"Owner of the experiment"`
	CustomerEmail         string `json:"customer_email,omitempty" jsonschema:"Customer email"`
	LinkedInURL           string `json:"linkedin_url,omitempty" jsonschema:"Customer LinkedIn URL"`
	PhoneNumber           string `json:"phone_number,omitempty" jsonschema:"Customer phone number"`
	ExperimentID          int64  `json:"experiment_id,omitempty" jsonschema:"Experiment the event belongs to"`
	ExperimentGeneratorID int64  `json:"experiment_generator_id,omitempty" jsonschema:"Experiment generator of that experiment"`
	Success               bool   `json:"success,omitempty" jsonschema:"Whether this event counts as a success"`
}

type RecordEventOutput struct {
	Event models.Event `json:"event"`
}

func (h *CampaignHandlers) RecordEvent(ctx context.Context, _ *mcp.CallToolRequest, input RecordEventInput) (*mcp.CallToolResult, RecordEventOutput, error) {
	platform, err := models.ParsePlatform(input.Platform)
	if err != nil {
		return nil, RecordEventOutput{}, err
	}
	stored, err := h.engine.SubmitEvent(ctx, models.Event{
		Platform:              platform,
		Status:                input.Status,
		OwnerEmail:            input.OwnerEmail,
		CustomerEmail:         input.CustomerEmail,
		LinkedInURL:           input.LinkedInURL,
		PhoneNumber:           input.PhoneNumber,
		ExperimentID:          input.ExperimentID,
		ExperimentGeneratorID: input.ExperimentGeneratorID,
		Success:               input.Success,
	})
	if err != nil {
		return nil, RecordEventOutput{}, err
	}
	return nil, RecordEventOutput{Event: *stored}, nil
}
