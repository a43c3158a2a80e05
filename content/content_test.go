// ABOUTME: Tests for prompt construction and bounded content generation
// ABOUTME: Uses a fake generator and checks ordering, concurrency bounds, and goroutine cleanup
package content

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/harperreed/outbound/models"
)

var testBrief = Brief{
	Product:  "FT-1",
	Audience: "respiratory therapists",
	Industry: "healthcare",
	Features: []string{"portable", "wireless"},
	Language: "Spanish",
	CallsToAction: []CallToAction{
		{URL: "https://example.com/demo", Description: "book a demo"},
	},
}

type fakeGenerator struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	fail     string

	mu    sync.Mutex
	calls int
}

func (f *fakeGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.fail != "" && strings.Contains(p.User, f.fail) {
		return "", errors.New("rate limited")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "out:" + strings.TrimSpace(p.User), nil
}

func TestBuildPromptVariesByPhaseAndSlot(t *testing.T) {
	p1, err := BuildPrompt(Request{Brief: testBrief, Phase: "Phase 1", PainPoint: "paperwork", Slot: models.SlotD})
	require.NoError(t, err)
	p5, err := BuildPrompt(Request{Brief: testBrief, Phase: "phase 5", PainPoint: "paperwork", Slot: models.SlotD})
	require.NoError(t, err)

	assert.NotEqual(t, p1.System, p5.System)
	assert.Contains(t, p1.System, "https://example.com/demo")
	assert.Contains(t, p1.System, "Spanish")
	assert.Contains(t, p5.System, "30 WORDS")
	assert.Equal(t, "\nPainPoint: paperwork\n", p1.User)

	greeting, err := BuildPrompt(Request{Brief: testBrief, Phase: "Phase 3", Slot: models.SlotE})
	require.NoError(t, err)
	assert.Empty(t, greeting.User)
	assert.Contains(t, greeting.System, "1 word")

	solution, err := BuildPrompt(Request{Brief: testBrief, Phase: "Phase 2", Slot: models.SlotB})
	require.NoError(t, err)
	assert.Contains(t, solution.System, "respiratory therapists professionals in the healthcare industry")
}

func TestBuildPromptCharacterLimit(t *testing.T) {
	b := testBrief
	b.CharacterLimit = 280
	p, err := BuildPrompt(Request{Brief: b, Phase: "Phase 4", Slot: models.SlotA})
	require.NoError(t, err)
	assert.Contains(t, p.System, "280 CHARACTERS")
}

func TestBuildPromptRejectsUnknownPhase(t *testing.T) {
	_, err := BuildPrompt(Request{Brief: testBrief, Phase: "Phase 9", Slot: models.SlotA})
	assert.Error(t, err)
}

func TestGenerateRowsOrderAndBound(t *testing.T) {
	defer goleak.VerifyNone(t)

	gen := &fakeGenerator{}
	slots := []models.Slot{models.SlotA, models.SlotD}
	rows, err := GenerateRows(context.Background(), gen, testBrief,
		[]string{"Phase 2", "Phase 1"}, []string{"cost", "time", "errors"}, slots, 2)
	require.NoError(t, err)

	require.Len(t, rows, 6)
	assert.Equal(t, "Phase 2", rows[0].Phase)
	assert.Equal(t, "cost", rows[0].PainPoint)
	assert.Equal(t, "Phase 1", rows[5].Phase)
	assert.Equal(t, "errors", rows[5].PainPoint)
	assert.Equal(t, "out:PainPoint: time", rows[1].Content[models.SlotA])
	assert.Equal(t, "", rows[1].Content[models.SlotB])
	assert.Equal(t, 12, gen.calls)
	assert.LessOrEqual(t, gen.peak.Load(), int32(2))
}

func TestGenerateRowsReturnsFirstFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	gen := &fakeGenerator{fail: "time"}
	_, err := GenerateRows(context.Background(), gen, testBrief,
		[]string{"Phase 1"}, []string{"cost", "time"}, []models.Slot{models.SlotA}, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestGenerateRowsValidatesInput(t *testing.T) {
	_, err := GenerateRows(context.Background(), &fakeGenerator{}, testBrief, []string{"Phase 7"}, []string{"cost"}, []models.Slot{models.SlotA}, 1)
	assert.Error(t, err)

	_, err = GenerateRows(context.Background(), &fakeGenerator{}, testBrief, []string{"Phase 1"}, []string{"cost"}, nil, 1)
	assert.Error(t, err)
}

func TestWriteVariablesCSV(t *testing.T) {
	rows := []Row{
		{Phase: "Phase 1", PainPoint: "cost", Content: models.Content{"pain", "", "", "cta", ""}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteVariablesCSV(&buf, rows, []models.Slot{models.SlotD}))

	assert.Equal(t, "Phase,Pain Point,contentA,contentB,contentD\nPhase 1,cost,pain,,cta\n", buf.String())
}
