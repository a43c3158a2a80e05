// ABOUTME: Document field mapping for campaign entities
// ABOUTME: Converts models to and from the flat camelCase documents kept in the store
package models

import (
	"fmt"
	"math"
	"strconv"
)

// Collection names.
const (
	CollectionVariableGenerators   = "variableGenerators"
	CollectionVariables            = "variables"
	CollectionExperimentGenerators = "experimentGenerators"
	CollectionExperiments          = "experiments"
	CollectionCustomers            = "customers"
	CollectionEvents               = "events"
	CollectionUsers                = "Users"

	// SubcollectionAssignments lives under customers/{id}.
	SubcollectionAssignments = "experiments"
	// SubcollectionAgenda lives under Users/{id}.
	SubcollectionAgenda = "Agenda"
)

// Field names.
const (
	FieldVariableGeneratorID   = "variableGeneratorID"
	FieldVersionID             = "versionID"
	FieldPhase                 = "phase"
	FieldProduct               = "product"
	FieldOwnerEmail            = "ownerEmail"
	FieldPlatform              = "platform"
	FieldVariableID            = "variableID"
	FieldPainPoint             = "painPoint"
	FieldTrials                = "trials"
	FieldSuccesses             = "successes"
	FieldExperimentGeneratorID = "experimentGeneratorID"
	FieldExperimentID          = "experimentID"
	FieldStatus                = "status"
	FieldAssignedAt            = "assignedAt"
	FieldSequenceIdx           = "sequence_idx"

	FieldName              = "name"
	FieldFirstName         = "firstName"
	FieldLastName          = "lastName"
	FieldRole              = "role"
	FieldCompany           = "company"
	FieldEmail             = "email"
	FieldLinkedInURL       = "linkedInUrl"
	FieldPhoneNumber       = "phoneNumber"
	FieldLeadStage         = "leadStage"
	FieldLeadSource        = "leadSource"
	FieldLeadStatus        = "leadStatus"
	FieldProductOfInterest = "productOfInterest"
	FieldCountry           = "country"
	FieldHasEmail          = "hasEmail"
	FieldHasLinkedIn       = "hasLinkedIn"
	FieldHasPhone          = "hasPhone"

	FieldCustomerEmail = "customerEmail"
	FieldPostingDate   = "postingDate"
	FieldSuccess       = "success"
	FieldRecordedAt    = "recordedAt"
)

// ArmGeneratorField returns "variableGeneratorID_{i}" for the 1-based arm position i.
func ArmGeneratorField(i int) string {
	return fmt.Sprintf("%s_%d", FieldVariableGeneratorID, i)
}

// ArmVariableField returns "variableID_{i}" for the 1-based arm position i.
func ArmVariableField(i int) string {
	return fmt.Sprintf("%s_%d", FieldVariableID, i)
}

// ArmContentField returns "content_{i}_{A..E}" for the 1-based arm position i.
func ArmContentField(i int, s Slot) string {
	return fmt.Sprintf("content_%d_%s", i, s.Letter())
}

// Int reads a numeric field as int64. Missing or non-numeric values read as 0.
func Int(f map[string]any, key string) int64 {
	switch v := f[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// Str reads a field as a string. Null and missing values read as "".
func Str(f map[string]any, key string) string {
	switch v := f[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Bool reads a boolean field. Anything but true reads as false.
func Bool(f map[string]any, key string) bool {
	v, _ := f[key].(bool)
	return v
}

// Present reports whether key holds a non-null value.
func Present(f map[string]any, key string) bool {
	v, ok := f[key]
	return ok && v != nil
}

// nullable stores "" as null so unpopulated values stay distinguishable from content.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ArmCount counts populated arm positions, stopping at the first gap.
func ArmCount(f map[string]any) int {
	n := 0
	for i := 1; i <= MaxArms; i++ {
		if !Present(f, ArmGeneratorField(i)) {
			break
		}
		n++
	}
	return n
}

func (g VariableGenerator) Fields() map[string]any {
	return map[string]any{
		FieldPhase:               g.Phase,
		FieldProduct:             g.Product,
		FieldOwnerEmail:          g.OwnerEmail,
		FieldPlatform:            string(g.Platform),
		FieldVariableGeneratorID: g.ID,
		FieldVersionID:           g.VersionID,
	}
}

func VariableGeneratorFromFields(f map[string]any) VariableGenerator {
	return VariableGenerator{
		ID:         Int(f, FieldVariableGeneratorID),
		VersionID:  Int(f, FieldVersionID),
		Phase:      Str(f, FieldPhase),
		Product:    Str(f, FieldProduct),
		OwnerEmail: Str(f, FieldOwnerEmail),
		Platform:   Platform(Str(f, FieldPlatform)),
	}
}

func (v Variable) Fields() map[string]any {
	f := map[string]any{
		FieldVariableID:          v.ID,
		FieldVariableGeneratorID: v.GeneratorID,
		FieldPainPoint:           v.PainPoint,
		FieldTrials:              v.Trials,
		FieldSuccesses:           v.Successes,
	}
	for _, s := range Slots {
		f[s.FieldName()] = nullable(v.Content[s])
	}
	return f
}

func VariableFromFields(f map[string]any) Variable {
	v := Variable{
		ID:          Int(f, FieldVariableID),
		GeneratorID: Int(f, FieldVariableGeneratorID),
		PainPoint:   Str(f, FieldPainPoint),
		Trials:      Int(f, FieldTrials),
		Successes:   Int(f, FieldSuccesses),
	}
	v.Content = ContentFromFields(f)
	return v
}

// ContentFromFields reads contentA..contentE.
func ContentFromFields(f map[string]any) Content {
	var c Content
	for _, s := range Slots {
		c[s] = Str(f, s.FieldName())
	}
	return c
}

func (g ExperimentGenerator) Fields() map[string]any {
	f := map[string]any{
		FieldExperimentGeneratorID: g.ID,
		FieldOwnerEmail:            g.OwnerEmail,
		FieldPlatform:              string(g.Platform),
	}
	for i, id := range g.VariableGeneratorIDs {
		f[ArmGeneratorField(i+1)] = id
	}
	return f
}

func ExperimentGeneratorFromFields(f map[string]any) ExperimentGenerator {
	g := ExperimentGenerator{
		ID:         Int(f, FieldExperimentGeneratorID),
		OwnerEmail: Str(f, FieldOwnerEmail),
		Platform:   Platform(Str(f, FieldPlatform)),
	}
	for i := 1; i <= ArmCount(f); i++ {
		g.VariableGeneratorIDs = append(g.VariableGeneratorIDs, Int(f, ArmGeneratorField(i)))
	}
	return g
}

func armFields(f map[string]any, arms []Arm) {
	for i, a := range arms {
		f[ArmGeneratorField(i+1)] = a.VariableGeneratorID
		f[ArmVariableField(i+1)] = a.VariableID
	}
}

func armsFromFields(f map[string]any) []Arm {
	n := ArmCount(f)
	arms := make([]Arm, 0, n)
	for i := 1; i <= n; i++ {
		arms = append(arms, Arm{
			VariableGeneratorID: Int(f, ArmGeneratorField(i)),
			VariableID:          Int(f, ArmVariableField(i)),
		})
	}
	return arms
}

func (e Experiment) Fields() map[string]any {
	f := map[string]any{
		FieldExperimentID:          e.ID,
		FieldExperimentGeneratorID: e.ExperimentGeneratorID,
		FieldOwnerEmail:            e.OwnerEmail,
		FieldPlatform:              string(e.Platform),
		FieldTrials:                e.Trials,
		FieldSuccesses:             e.Successes,
	}
	armFields(f, e.Arms)
	return f
}

func ExperimentFromFields(f map[string]any) Experiment {
	return Experiment{
		ID:                    Int(f, FieldExperimentID),
		ExperimentGeneratorID: Int(f, FieldExperimentGeneratorID),
		OwnerEmail:            Str(f, FieldOwnerEmail),
		Platform:              Platform(Str(f, FieldPlatform)),
		Arms:                  armsFromFields(f),
		Trials:                Int(f, FieldTrials),
		Successes:             Int(f, FieldSuccesses),
	}
}

// ArmContentFields writes content_{i}_{X} for every populated slot of every arm.
func ArmContentFields(f map[string]any, content []Content) {
	for i, c := range content {
		for _, s := range Slots {
			if c.Populated(s) {
				f[ArmContentField(i+1, s)] = c[s]
			}
		}
	}
}

// ArmContentFromFields reads content_{i}_{X} for arms 1..n.
func ArmContentFromFields(f map[string]any, n int) []Content {
	out := make([]Content, n)
	for i := 0; i < n; i++ {
		for _, s := range Slots {
			out[i][s] = Str(f, ArmContentField(i+1, s))
		}
	}
	return out
}

func (c Customer) Fields() map[string]any {
	return map[string]any{
		FieldName:              nullable(c.DisplayName()),
		FieldFirstName:         nullable(c.FirstName),
		FieldLastName:          nullable(c.LastName),
		FieldRole:              nullable(c.Role),
		FieldCompany:           nullable(c.Company),
		FieldEmail:             nullable(c.Email),
		FieldLinkedInURL:       nullable(c.LinkedInURL),
		FieldPhoneNumber:       nullable(c.PhoneNumber),
		FieldLeadStage:         nullable(c.LeadStage),
		FieldLeadSource:        nullable(c.LeadSource),
		FieldLeadStatus:        nullable(c.LeadStatus),
		FieldProductOfInterest: nullable(c.ProductOfInterest),
		FieldCountry:           nullable(c.Country),
		FieldHasEmail:          c.HasEmail,
		FieldHasLinkedIn:       c.HasLinkedIn,
		FieldHasPhone:          c.HasPhone,
	}
}

func CustomerFromFields(id string, f map[string]any) Customer {
	return Customer{
		DocID:             id,
		Name:              Str(f, FieldName),
		FirstName:         Str(f, FieldFirstName),
		LastName:          Str(f, FieldLastName),
		Role:              Str(f, FieldRole),
		Company:           Str(f, FieldCompany),
		Email:             Str(f, FieldEmail),
		LinkedInURL:       Str(f, FieldLinkedInURL),
		PhoneNumber:       Str(f, FieldPhoneNumber),
		LeadStage:         Str(f, FieldLeadStage),
		LeadSource:        Str(f, FieldLeadSource),
		LeadStatus:        Str(f, FieldLeadStatus),
		ProductOfInterest: Str(f, FieldProductOfInterest),
		Country:           Str(f, FieldCountry),
		HasEmail:          Bool(f, FieldHasEmail),
		HasLinkedIn:       Bool(f, FieldHasLinkedIn),
		HasPhone:          Bool(f, FieldHasPhone),
	}
}

// Fields omits assignedAt; the writer supplies a server timestamp.
func (a Assignment) Fields() map[string]any {
	f := map[string]any{
		FieldExperimentID:          a.ExperimentID,
		FieldExperimentGeneratorID: a.ExperimentGeneratorID,
		FieldOwnerEmail:            a.OwnerEmail,
		FieldPlatform:              string(a.Platform),
		FieldStatus:                a.Status,
	}
	armFields(f, a.Arms)
	ArmContentFields(f, a.ArmContent)
	return f
}

func AssignmentFromFields(id string, f map[string]any) Assignment {
	arms := armsFromFields(f)
	return Assignment{
		DocID:                 id,
		ExperimentID:          Int(f, FieldExperimentID),
		ExperimentGeneratorID: Int(f, FieldExperimentGeneratorID),
		OwnerEmail:            Str(f, FieldOwnerEmail),
		Platform:              Platform(Str(f, FieldPlatform)),
		Status:                Str(f, FieldStatus),
		AssignedAt:            Str(f, FieldAssignedAt),
		Arms:                  arms,
		ArmContent:            ArmContentFromFields(f, len(arms)),
	}
}

// Fields flattens the task with the customer's contact fields, as the agenda stores it.
func (t Task) Fields() map[string]any {
	f := t.Customer.Fields()
	f[FieldSequenceIdx] = strconv.Itoa(t.SequenceIdx)
	f[FieldPlatform] = string(t.Platform)
	f[FieldOwnerEmail] = t.OwnerEmail
	f[FieldExperimentID] = t.ExperimentID
	f[FieldExperimentGeneratorID] = t.ExperimentGeneratorID
	f[ArmGeneratorField(t.SequenceIdx)] = t.Arm.VariableGeneratorID
	f[ArmVariableField(t.SequenceIdx)] = t.Arm.VariableID
	for _, s := range Slots {
		if t.Content.Populated(s) {
			f[ArmContentField(t.SequenceIdx, s)] = t.Content[s]
		}
	}
	return f
}

func TaskFromFields(id string, f map[string]any) Task {
	seq := int(Int(f, FieldSequenceIdx))
	t := Task{
		DocID:                 id,
		SequenceIdx:           seq,
		Platform:              Platform(Str(f, FieldPlatform)),
		OwnerEmail:            Str(f, FieldOwnerEmail),
		ExperimentID:          Int(f, FieldExperimentID),
		ExperimentGeneratorID: Int(f, FieldExperimentGeneratorID),
		Arm: Arm{
			VariableGeneratorID: Int(f, ArmGeneratorField(seq)),
			VariableID:          Int(f, ArmVariableField(seq)),
		},
		Customer: CustomerFromFields("", f),
	}
	for _, s := range Slots {
		t.Content[s] = Str(f, ArmContentField(seq, s))
	}
	return t
}

var eventKnownFields = map[string]bool{
	FieldPlatform: true, FieldStatus: true, FieldOwnerEmail: true, FieldCustomerEmail: true,
	FieldEmail: true, FieldPhoneNumber: true, FieldLinkedInURL: true, FieldSequenceIdx: true,
	FieldPostingDate: true, FieldExperimentID: true, FieldExperimentGeneratorID: true,
	FieldSuccess: true, FieldRecordedAt: true,
}

// Fields writes only populated known fields, then the free-form extras.
func (e Event) Fields() map[string]any {
	f := make(map[string]any, len(e.Extra)+8)
	for k, v := range e.Extra {
		if !eventKnownFields[k] {
			f[k] = v
		}
	}
	set := func(k, v string) {
		if v != "" {
			f[k] = v
		}
	}
	set(FieldPlatform, string(e.Platform))
	set(FieldStatus, e.Status)
	set(FieldOwnerEmail, e.OwnerEmail)
	set(FieldCustomerEmail, e.CustomerEmail)
	set(FieldEmail, e.Email)
	set(FieldPhoneNumber, e.PhoneNumber)
	set(FieldLinkedInURL, e.LinkedInURL)
	set(FieldSequenceIdx, e.SequenceIdx)
	set(FieldPostingDate, e.PostingDate)
	if e.ExperimentID != 0 {
		f[FieldExperimentID] = e.ExperimentID
	}
	if e.ExperimentGeneratorID != 0 {
		f[FieldExperimentGeneratorID] = e.ExperimentGeneratorID
	}
	if e.Success {
		f[FieldSuccess] = true
	}
	return f
}

func EventFromFields(id string, f map[string]any) Event {
	e := Event{
		DocID:                 id,
		Platform:              Platform(Str(f, FieldPlatform)),
		Status:                Str(f, FieldStatus),
		OwnerEmail:            Str(f, FieldOwnerEmail),
		CustomerEmail:         Str(f, FieldCustomerEmail),
		Email:                 Str(f, FieldEmail),
		PhoneNumber:           Str(f, FieldPhoneNumber),
		LinkedInURL:           Str(f, FieldLinkedInURL),
		SequenceIdx:           Str(f, FieldSequenceIdx),
		PostingDate:           Str(f, FieldPostingDate),
		ExperimentID:          Int(f, FieldExperimentID),
		ExperimentGeneratorID: Int(f, FieldExperimentGeneratorID),
		Success:               Bool(f, FieldSuccess),
		RecordedAt:            Str(f, FieldRecordedAt),
	}
	for k, v := range f {
		if eventKnownFields[k] {
			continue
		}
		if e.Extra == nil {
			e.Extra = make(map[string]any)
		}
		e.Extra[k] = v
	}
	return e
}
