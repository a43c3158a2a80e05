// ABOUTME: Tests for customer and variable imports and placeholder cleanup
// ABOUTME: Runs against an in-memory Badger store through the campaign engine
package importer

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/db"
	"github.com/harperreed/outbound/models"
)

func newTestImporter(t *testing.T) (*Importer, db.Store) {
	t.Helper()
	store, err := db.OpenBadgerMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(campaign.New(store, campaign.WithSeed(1)), nil), store
}

func mustCSV(t *testing.T, s string) *Table {
	t.Helper()
	table, err := ReadCSV(strings.NewReader(s))
	require.NoError(t, err)
	return table
}

func TestReadCSV(t *testing.T) {
	table := mustCSV(t, ",Name,Phone Number\n0,Ana,None\n1,Bo\n")

	assert.Equal(t, []string{indexColumn, "Name", "Phone Number"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "", table.Rows[0]["Phone Number"])
	assert.Equal(t, "", table.Rows[1]["Phone Number"])
	assert.Equal(t, "Bo", table.Rows[1]["Name"])

	table.Drop(indexColumn)
	assert.False(t, table.Has(indexColumn))
	_, ok := table.Rows[0][indexColumn]
	assert.False(t, ok)

	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		platform models.Platform
		input    string
		expected string
	}{
		{models.PlatformEmail, " Alice@Example.com ", "alice@example.com"},
		{models.PlatformLinkedIn, "https://www.linkedin.com/in/alice/", "linkedin.com/in/alice"},
		{models.PlatformLinkedIn, "linkedin.com/in/alice", "linkedin.com/in/alice"},
		{models.PlatformPhone, "+1 (555) 010-2000", "15550102000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeKey(tt.platform, tt.input), tt.input)
	}
}

func TestMapCustomersEmailAlternateColumns(t *testing.T) {
	table := mustCSV(t, "Email,First Name,Last Name,Lead Source,Lead Status,Title,Specialty,Company,Phone Number,Product-of-Interest-,Country List,Record Stage\n"+
		"ana@example.com,Ana,Li,Web,Open,Doctor,Pulmonology,Clinic,555-1000,FT-1,Mexico,MQL\n")

	customers, err := MapCustomers(table, models.PlatformEmail, "", "United States")
	require.NoError(t, err)
	require.Len(t, customers, 1)

	c := customers[0]
	assert.Equal(t, "Doctor-Pulmonology", c.Role)
	assert.Equal(t, "555-1000", c.PhoneNumber)
	assert.Equal(t, "FT-1", c.ProductOfInterest)
	assert.Equal(t, "Mexico", c.Country)
	assert.Equal(t, "MQL", c.LeadStage)
	assert.True(t, c.HasEmail)
	assert.True(t, c.HasPhone)
	assert.False(t, c.HasLinkedIn)
}

func TestMapCustomersLinkedInUsesTitleAndCountry(t *testing.T) {
	table := mustCSV(t, "profile_url,last_name,first_name,current_company,current_company_position\n"+
		"https://linkedin.com/in/ana,Li,Ana,Acme,Engineer\n")

	customers, err := MapCustomers(table, models.PlatformLinkedIn, "CTO", "Mexico")
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "CTO", customers[0].Role)
	assert.Equal(t, "Mexico", customers[0].Country)
	assert.Equal(t, "Acme", customers[0].Company)
	assert.True(t, customers[0].HasLinkedIn)
}

func TestMapCustomersMissingColumn(t *testing.T) {
	table := mustCSV(t, "Name\nAna\n")
	_, err := MapCustomers(table, models.PlatformPhone, "", "Mexico")
	assert.Error(t, err)
}

func TestImportCustomersDeduplicates(t *testing.T) {
	ctx := context.Background()
	im, store := newTestImporter(t)

	first := mustCSV(t, "Name,Profession,Phone Number\nAna,Nurse,555-0100\nBo,Doctor,(555) 0101\n")
	res, err := im.ImportCustomers(ctx, first, models.PlatformPhone, "", "Mexico")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)

	second := mustCSV(t, "Name,Profession,Phone Number\nAna again,Nurse,5550100\nCy,Doctor,555-0102\nCy twin,Doctor,555 0102\nNo phone,Doctor,\n")
	res, err = im.ImportCustomers(ctx, second, models.PlatformPhone, "", "Mexico")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 2, res.Duplicates)
	assert.Equal(t, 1, res.MissingKey)

	docs, err := store.Query(ctx, models.CollectionCustomers)
	require.NoError(t, err)
	assert.Len(t, docs, 3)

	phones, err := store.Query(ctx, models.CollectionCustomers, db.Eq(models.FieldHasPhone, true), db.Eq(models.FieldCountry, "Mexico"))
	require.NoError(t, err)
	assert.Len(t, phones, 3)
}

func TestImportVariablesGroupsByPhase(t *testing.T) {
	ctx := context.Background()
	im, _ := newTestImporter(t)

	table := mustCSV(t, ",Phase,Pain Point,contentA,contentB,contentD\n"+
		"0,Phase 2,cost,pain one,sol one,cta one\n"+
		"1,Phase 1,time,pain two,sol two,cta two\n"+
		"2,Phase 2,cost,pain one,sol one,cta one\n"+
		"3,Phase 2,speed,pain three,sol three,cta three\n")

	results, err := im.ImportVariables(ctx, table, models.PlatformEmail, "FT-1", "owner@example.com")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Phase 2", results[0].Generator.Phase)
	assert.Equal(t, 2, results[0].Created)
	assert.Equal(t, 1, results[0].Rejected)
	assert.Equal(t, "Phase 1", results[1].Generator.Phase)
	assert.Equal(t, 1, results[1].Created)

	vars, err := im.engine.ListVariables(ctx, results[0].Generator.ID)
	require.NoError(t, err)
	require.Len(t, vars, 2)
	assert.Equal(t, "pain one", vars[0].Content[models.SlotA])
	assert.Equal(t, "cta one", vars[0].Content[models.SlotD])
	assert.Equal(t, "", vars[0].Content[models.SlotC])
	assert.Equal(t, "cost", vars[0].PainPoint)
}

func TestImportVariablesRequiresPhase(t *testing.T) {
	im, _ := newTestImporter(t)
	table := mustCSV(t, "Pain Point,contentA\ncost,pain\n")
	_, err := im.ImportVariables(context.Background(), table, models.PlatformEmail, "FT-1", "owner@example.com")
	assert.Error(t, err)
}

func TestNormalizeCollections(t *testing.T) {
	ctx := context.Background()
	_, store := newTestImporter(t)

	err := db.NewBatch(store).
		Set("customers/a", map[string]any{"name": "Ana", "company": "N/A", "role": "nan"}).
		Set("customers/b", map[string]any{"name": "Bo", "company": "Acme"}).
		Commit(ctx)
	require.NoError(t, err)

	changed, err := NormalizeCollections(ctx, store, []string{models.CollectionCustomers, models.CollectionEvents})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	doc, err := store.Get(ctx, "customers/a")
	require.NoError(t, err)
	assert.Nil(t, doc.Fields["company"])
	assert.Nil(t, doc.Fields["role"])
	assert.Equal(t, "Ana", doc.Fields["name"])
}

func TestPlaceholderFields(t *testing.T) {
	update := PlaceholderFields(map[string]any{
		"a": "None",
		"b": math.Inf(1),
		"c": "fine",
		"d": int64(3),
	})
	assert.Equal(t, map[string]any{"a": nil, "b": nil}, update)
}
