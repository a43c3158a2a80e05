// ABOUTME: MCP server assembly for the campaign tools and resources
// ABOUTME: Registers every tool against one engine so stdio and tests share the wiring
package handlers

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/outbound/campaign"
)

// NewServer returns an MCP server exposing the campaign tools.
func NewServer(engine *campaign.Engine, version string) *mcp.Server {
	campaignHandlers := NewCampaignHandlers(engine)
	resourceHandlers := NewResourceHandlers(engine)
	promptHandlers := NewPromptHandlers(engine)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "outbound",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "setup_experiments",
		Description: "Resolve an experiment generator from ordered variable generators and run assignment rounds over eligible customers",
	}, campaignHandlers.SetupExperiments)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_variable_generators",
		Description: "List an owner's variable generators, optionally by platform and phase",
	}, campaignHandlers.ListVariableGenerators)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_variables",
		Description: "List the content variables of a variable generator",
	}, campaignHandlers.ListVariables)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_experiment_generators",
		Description: "List experiment generators, optionally by owner and platform",
	}, campaignHandlers.ListExperimentGenerators)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_experiments",
		Description: "Get an owner's experiments under the given experiment generators with each arm's content",
	}, campaignHandlers.GetExperiments)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "outbound_contacts",
		Description: "List customers assigned under the given experiment generators with their assignment content",
	}, campaignHandlers.OutboundContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_agenda",
		Description: "List the tasks queued on an operator's agenda",
	}, campaignHandlers.GetAgenda)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "complete_task",
		Description: "Remove the first matching agenda task and record its outcome",
	}, campaignHandlers.CompleteTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "record_event",
		Description: "Record an outreach event and update experiment counters",
	}, campaignHandlers.RecordEvent)

	server.AddResource(&mcp.Resource{
		URI:         resourceScheme + "statistics",
		Name:        "statistics",
		Description: "Document counts per collection",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         resourceScheme + "experimentgenerators",
		Name:        "experimentgenerators",
		Description: "Every experiment generator",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "experiment-review",
		Description: "Summarize an experiment generator's arms and results for analysis",
		Arguments: []*mcp.PromptArgument{
			{Name: "owner_email", Description: "Owner of the experiments", Required: true},
			{Name: "experiment_generator_id", Description: "Experiment generator to review", Required: true},
		},
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "agenda-briefing",
		Description: "Brief an operator on the calls queued on their agenda",
		Arguments: []*mcp.PromptArgument{
			{Name: "owner_email", Description: "Operator whose agenda to brief", Required: true},
		},
	}, promptHandlers.GetPrompt)

	return server
}
