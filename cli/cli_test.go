// ABOUTME: Tests for the campaign CLI commands
// ABOUTME: Runs commands end to end against an in-memory store, capturing output
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/config"
	"github.com/harperreed/outbound/content"
	"github.com/harperreed/outbound/db"
	"github.com/harperreed/outbound/logger"
	"github.com/harperreed/outbound/models"
)

const owner = "rep@example.com"

func newTestEnv(t *testing.T) (*Env, *bytes.Buffer) {
	t.Helper()
	store, err := db.OpenBadgerMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	var out bytes.Buffer
	cfg := config.DefaultConfig()
	cfg.Sender = "sales@example.com"
	return &Env{
		Engine:  campaign.New(store, campaign.WithSeed(9)),
		Config:  cfg,
		Log:     logger.Nop(),
		Version: "test",
		Out:     &out,
	}, &out
}

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))
	return path
}

// seedCampaign imports two phases of phone variables and three customers.
func seedCampaign(t *testing.T, env *Env) []models.VariableGenerator {
	t.Helper()
	ctx := context.Background()

	vars := writeFile(t, "vars.csv", "Phase,Pain Point,contentA,contentB\n"+
		"Phase 1,slow,Slow onboarding,Fast setup\n"+
		"Phase 1,cost,Too expensive,Half the price\n"+
		"Phase 2,support,No support,24/7 support\n")
	require.NoError(t, ImportVariablesCommand(ctx, env, []string{"--file", vars, "--platform", "phone", "--product", "FT-1", "--owner", owner}))

	customers := writeFile(t, "customers.csv", "Name,Profession,Phone Number,Email\n"+
		"Ana,Dentist,555-0001,ana@example.com\n"+
		"Bo,Dentist,555-0002,bo@example.com\n"+
		"Cy,Dentist,555-0003,cy@example.com\n")
	require.NoError(t, ImportCustomersCommand(ctx, env, []string{"--file", customers, "--platform", "Phone", "--country", "Mexico"}))

	gens, err := env.Engine.ListVariableGenerators(ctx, owner, models.PlatformPhone, "")
	require.NoError(t, err)
	require.Len(t, gens, 2)
	return gens
}

func TestImportAndList(t *testing.T) {
	ctx := context.Background()
	env, out := newTestEnv(t)
	seedCampaign(t, env)

	assert.Contains(t, out.String(), "✓ Imported 3 customers")
	out.Reset()

	require.NoError(t, ListGeneratorsCommand(ctx, env, []string{"--owner", owner}))
	assert.Contains(t, out.String(), "Phase 1")
	assert.Contains(t, out.String(), "Phase 2")
	out.Reset()

	require.NoError(t, ListVariablesCommand(ctx, env, []string{"--generator", "1"}))
	assert.Contains(t, out.String(), "Slow onboarding")
	assert.Contains(t, out.String(), "Too expensive")
	out.Reset()

	require.NoError(t, ListCustomersCommand(ctx, env, []string{"--platform", "phone", "--role", "Dentist"}))
	assert.Equal(t, 4, strings.Count(out.String(), "\n"), out.String())

	assert.Error(t, ListGeneratorsCommand(ctx, env, nil))
	assert.Error(t, ImportCustomersCommand(ctx, env, []string{"--file", "x.csv", "--platform", "fax"}))
}

func TestSetupAgendaAndComplete(t *testing.T) {
	ctx := context.Background()
	env, out := newTestEnv(t)
	gens := seedCampaign(t, env)
	ids := fmt.Sprintf("%d,%d", gens[0].ID, gens[1].ID)
	out.Reset()

	err := SetupCommand(ctx, env, []string{"--generators", ids, "--trials", "2", "--rounds", "2", "--platform", "Phone", "--country", "Mexico", "--owner", owner})
	var partial *campaign.PartialSetupError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 1, partial.Committed)
	assert.Contains(t, out.String(), "Created experiment generator")
	assert.Contains(t, out.String(), "Stopped after 1 of 2 rounds")
	out.Reset()

	require.NoError(t, AgendaCommand(ctx, env, []string{"--owner", owner}))
	assert.Equal(t, 5, strings.Count(out.String(), "\n"), out.String())

	tasks, err := env.Engine.Agenda(ctx, owner, "")
	require.NoError(t, err)
	target := tasks[0]
	out.Reset()

	require.NoError(t, CompleteTaskCommand(ctx, env, []string{
		"--owner", owner, "--phone", target.Customer.PhoneNumber, "--seq", fmt.Sprint(target.SequenceIdx), "--status", "answered", "--success",
	}))
	assert.Contains(t, out.String(), "✓ Completed task")

	events, err := env.Engine.ListEvents(ctx, models.PlatformPhone)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, target.ExperimentID, events[0].ExperimentID)

	err = CompleteTaskCommand(ctx, env, []string{"--owner", owner, "--phone", "000"})
	assert.True(t, campaign.IsNotFound(err))
}

func TestSetupValidation(t *testing.T) {
	ctx := context.Background()
	env, _ := newTestEnv(t)

	err := SetupCommand(ctx, env, []string{"--generators", "1", "--trials", "1", "--platform", "Phone"})
	assert.ErrorIs(t, err, campaign.ErrMissingCountry)

	err = SetupCommand(ctx, env, []string{"--generators", "", "--platform", "Phone"})
	assert.Error(t, err)
}

func TestRecordEventAndListExperiments(t *testing.T) {
	ctx := context.Background()
	env, out := newTestEnv(t)
	gens := seedCampaign(t, env)

	res, err := env.Engine.FullExperimentalSetup(ctx, campaign.SetupRequest{
		VariableGeneratorIDs: []int64{gens[0].ID}, Trials: 1, Rounds: 1, Platform: models.PlatformPhone, Country: "Mexico", OwnerEmail: owner,
	})
	require.NoError(t, err)
	exp := res.Rounds[0].Experiment
	out.Reset()

	require.NoError(t, RecordEventCommand(ctx, env, []string{
		"--platform", "phone", "--status", "replied", "--owner", owner,
		"--experiment", fmt.Sprint(exp.ID), "--generator", fmt.Sprint(exp.ExperimentGeneratorID), "--success",
	}))
	assert.Contains(t, out.String(), "✓ Recorded Phone event")
	out.Reset()

	require.NoError(t, ListExperimentsCommand(ctx, env, []string{"--owner", owner}))
	assert.Contains(t, out.String(), owner)
	out.Reset()

	require.NoError(t, ListExperimentsCommand(ctx, env, []string{"--owner", owner, "--generators", fmt.Sprint(exp.ExperimentGeneratorID)}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], " 1 ")
}

func TestExportAndDraftEmails(t *testing.T) {
	ctx := context.Background()
	env, out := newTestEnv(t)

	g, err := env.Engine.CreateVariableGenerator(ctx, "Phase 1", "FT-1", owner, models.PlatformEmail)
	require.NoError(t, err)
	var c models.Content
	c[models.SlotA] = "Slow onboarding"
	c[models.SlotC] = "Quick question"
	_, _, err = env.Engine.CreateVariable(ctx, g.ID, "slow", c)
	require.NoError(t, err)

	customers := writeFile(t, "emails.csv", "Email,First Name,Last Name,Country\nana@example.com,Ana,Ruiz,Mexico\n")
	require.NoError(t, ImportCustomersCommand(ctx, env, []string{"--file", customers, "--platform", "Email"}))

	res, err := env.Engine.FullExperimentalSetup(ctx, campaign.SetupRequest{
		VariableGeneratorIDs: []int64{g.ID}, Trials: 1, Rounds: 1, Platform: models.PlatformEmail, Country: "Mexico", OwnerEmail: owner,
	})
	require.NoError(t, err)
	egID := fmt.Sprint(res.ExperimentGenerator.ID)
	out.Reset()

	path := filepath.Join(t.TempDir(), "contacts.csv")
	require.NoError(t, ExportContactsCommand(ctx, env, []string{"--generators", egID, "--output", path}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ana@example.com")
	assert.Contains(t, string(data), "Quick question")
	out.Reset()

	require.NoError(t, DraftEmailsCommand(ctx, env, []string{"--generators", egID, "--dry-run"}))
	assert.Contains(t, out.String(), "--- draft 1")
	assert.Contains(t, out.String(), "✓ Drafted 1 emails")
}

type cannedGenerator struct{}

func (cannedGenerator) Generate(_ context.Context, p content.Prompt) (string, error) {
	return "generated " + strings.TrimSpace(p.User), nil
}

func TestGenerateContent(t *testing.T) {
	ctx := context.Background()
	env, out := newTestEnv(t)
	env.Generator = cannedGenerator{}

	brief, err := json.Marshal(content.Brief{Product: "FT-1", Audience: "dentists", Industry: "health", Language: "Spanish"})
	require.NoError(t, err)
	briefPath := writeFile(t, "brief.json", string(brief))

	require.NoError(t, GenerateContentCommand(ctx, env, []string{
		"--brief", briefPath, "--phases", "Phase 1,Phase 2", "--pain-points", "slow,cost", "--slots", "A,Subject",
	}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Phase,Pain Point,contentA,contentB,contentC", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Phase 1,slow,"), lines[1])

	assert.Error(t, GenerateContentCommand(ctx, env, []string{"--brief", briefPath}))
}

func TestNormalizeAndViz(t *testing.T) {
	ctx := context.Background()
	env, out := newTestEnv(t)
	_, err := env.Engine.Store().Add(ctx, models.CollectionCustomers, map[string]any{"name": "None", "country": "NaN"})
	require.NoError(t, err)

	require.NoError(t, NormalizeCommand(ctx, env, []string{"--collections", "customers"}))
	assert.Contains(t, out.String(), "Normalized 1 documents across 1 collections")
	out.Reset()

	require.NoError(t, VizDashboardCommand(ctx, env, nil))
	assert.Contains(t, out.String(), "OUTBOUND DASHBOARD")
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs(" 3, 7,")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 7}, ids)

	_, err = parseIDs("")
	assert.Error(t, err)
	_, err = parseIDs("a")
	assert.Error(t, err)
}
