// ABOUTME: Tests for campaign data models
// ABOUTME: Validates platform/slot helpers and document field round trips
package models

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		input    string
		expected Platform
		wantErr  bool
	}{
		{"Email", PlatformEmail, false},
		{"linkedin", PlatformLinkedIn, false},
		{" PHONE ", PlatformPhone, false},
		{"fax", "", true},
	}

	for _, tt := range tests {
		got, err := ParsePlatform(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, got)
	}
}

func TestPlatformFields(t *testing.T) {
	assert.Equal(t, "email", PlatformEmail.ContactField())
	assert.Equal(t, "linkedInUrl", PlatformLinkedIn.ContactField())
	assert.Equal(t, "phoneNumber", PlatformPhone.ContactField())
	assert.Equal(t, "hasPhone", PlatformPhone.FlagField())
	assert.False(t, Platform("Fax").Valid())
}

func TestSlotNames(t *testing.T) {
	assert.Equal(t, "A", SlotA.Letter())
	assert.Equal(t, "contentE", SlotE.FieldName())
	assert.Equal(t, "CallToAction", SlotD.Kind())

	for _, in := range []string{"c", "contentC", "subject"} {
		s, err := ParseSlot(in)
		require.NoError(t, err)
		assert.Equal(t, SlotC, s)
	}
	_, err := ParseSlot("F")
	assert.Error(t, err)
}

func TestArmFieldNames(t *testing.T) {
	assert.Equal(t, "variableGeneratorID_3", ArmGeneratorField(3))
	assert.Equal(t, "variableID_1", ArmVariableField(1))
	assert.Equal(t, "content_2_D", ArmContentField(2, SlotD))
}

func TestArmCountStopsAtGap(t *testing.T) {
	f := map[string]any{
		"variableGeneratorID_1": int64(4),
		"variableGeneratorID_2": int64(9),
		"variableGeneratorID_4": int64(1),
	}
	assert.Equal(t, 2, ArmCount(f))
}

func TestExperimentFieldsRoundTrip(t *testing.T) {
	exp := Experiment{
		ID:                    3,
		ExperimentGeneratorID: 2,
		OwnerEmail:            "owner@example.com",
		Platform:              PlatformEmail,
		Arms: []Arm{
			{VariableGeneratorID: 5, VariableID: 1},
			{VariableGeneratorID: 7, VariableID: 4},
		},
	}

	f := exp.Fields()
	assert.Equal(t, int64(7), f["variableGeneratorID_2"])
	assert.Equal(t, int64(4), f["variableID_2"])

	if diff := cmp.Diff(exp, ExperimentFromFields(f)); diff != "" {
		t.Errorf("experiment round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestVariableStoresUnpopulatedSlotsAsNull(t *testing.T) {
	v := Variable{ID: 1, GeneratorID: 2, PainPoint: "manual entry", Content: Content{"pain", "fix", "", "", ""}}
	f := v.Fields()

	assert.Nil(t, f["contentC"])
	assert.Equal(t, "fix", f["contentB"])
	assert.Equal(t, v, VariableFromFields(f))
}

func TestTaskFieldsCarryCustomerAndArmContent(t *testing.T) {
	task := Task{
		SequenceIdx:           2,
		Platform:              PlatformPhone,
		OwnerEmail:            "owner@example.com",
		ExperimentID:          1,
		ExperimentGeneratorID: 1,
		Arm:                   Arm{VariableGeneratorID: 7, VariableID: 2},
		Content:               Content{"pain", "", "", "call us", ""},
		Customer:              Customer{Name: "Ana Ruiz", PhoneNumber: "+34 600", HasPhone: true, Country: "Spain"},
	}

	f := task.Fields()
	assert.Equal(t, "2", f["sequence_idx"])
	assert.Equal(t, "call us", f["content_2_D"])
	assert.Equal(t, "+34 600", f["phoneNumber"])
	_, hasB := f["content_2_B"]
	assert.False(t, hasB)

	got := TaskFromFields("t1", f)
	assert.Equal(t, "t1", got.DocID)
	assert.Equal(t, task.Arm, got.Arm)
	assert.Equal(t, task.Content, got.Content)
	assert.Equal(t, "Ana Ruiz", got.Customer.Name)
}

func TestEventExtrasSurviveRoundTrip(t *testing.T) {
	e := Event{
		Platform:      PlatformEmail,
		Status:        "Opened",
		CustomerEmail: "lead@example.com",
		Extra:         map[string]any{"campaign": "spring", "status": "ignored"},
	}

	f := e.Fields()
	assert.Equal(t, "Opened", f["status"])
	assert.Equal(t, "spring", f["campaign"])

	got := EventFromFields("e1", f)
	assert.Equal(t, "Opened", got.Status)
	assert.Equal(t, map[string]any{"campaign": "spring"}, got.Extra)
}

func TestCustomerHelpers(t *testing.T) {
	c := Customer{FirstName: "Ana", LastName: "Ruiz", Email: "ana@example.com"}
	c.RefreshFlags()

	assert.Equal(t, "Ana Ruiz", c.DisplayName())
	assert.True(t, c.HasEmail)
	assert.False(t, c.HasPhone)
	assert.Equal(t, "ana@example.com", c.ContactKey(PlatformEmail))
	assert.Equal(t, "", c.ContactKey(PlatformLinkedIn))
}

func TestIntReadsNumericForms(t *testing.T) {
	f := map[string]any{"a": int64(3), "b": 4, "c": 5.0, "d": "6", "e": "x", "f": nil}
	assert.Equal(t, int64(3), Int(f, "a"))
	assert.Equal(t, int64(4), Int(f, "b"))
	assert.Equal(t, int64(5), Int(f, "c"))
	assert.Equal(t, int64(6), Int(f, "d"))
	assert.Equal(t, int64(0), Int(f, "e"))
	assert.Equal(t, int64(0), Int(f, "f"))
	assert.Equal(t, int64(0), Int(f, "missing"))
}
