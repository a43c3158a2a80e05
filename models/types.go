// ABOUTME: Data models for outbound campaign entities
// ABOUTME: Defines platforms, content slots, generators, experiments, customers, tasks, and events
package models

import (
	"fmt"
	"strings"
)

// Platform is the outreach channel a generator, experiment, or task targets.
type Platform string

const (
	PlatformEmail    Platform = "Email"
	PlatformLinkedIn Platform = "LinkedIn"
	PlatformPhone    Platform = "Phone"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{PlatformEmail, PlatformLinkedIn, PlatformPhone}

// ParsePlatform accepts the canonical names case-insensitively.
func ParsePlatform(s string) (Platform, error) {
	for _, p := range Platforms {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q (expected Email, LinkedIn, or Phone)", s)
}

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformEmail, PlatformLinkedIn, PlatformPhone:
		return true
	}
	return false
}

// ContactField is the customer field that uniquely identifies a customer on this platform.
func (p Platform) ContactField() string {
	switch p {
	case PlatformEmail:
		return FieldEmail
	case PlatformLinkedIn:
		return FieldLinkedInURL
	case PlatformPhone:
		return FieldPhoneNumber
	}
	return ""
}

// FlagField is the precomputed boolean customer field for this platform.
func (p Platform) FlagField() string {
	switch p {
	case PlatformEmail:
		return FieldHasEmail
	case PlatformLinkedIn:
		return FieldHasLinkedIn
	case PlatformPhone:
		return FieldHasPhone
	}
	return ""
}

// MaxArms bounds the number of arm positions in an experiment generator.
const MaxArms = 5

// Slot is one of the five named content positions of a variable.
type Slot int

const (
	SlotA Slot = iota // pain point
	SlotB             // solution
	SlotC             // subject
	SlotD             // call to action
	SlotE             // greeting
)

// Slots lists the content slots in their fixed check order.
var Slots = []Slot{SlotA, SlotB, SlotC, SlotD, SlotE}

// Letter returns "A".."E".
func (s Slot) Letter() string {
	return string(rune('A' + int(s)))
}

// FieldName returns the stored variable field, e.g. "contentA".
func (s Slot) FieldName() string {
	return "content" + s.Letter()
}

// Kind returns the semantic role of the slot.
func (s Slot) Kind() string {
	switch s {
	case SlotA:
		return "PainPoint"
	case SlotB:
		return "Solution"
	case SlotC:
		return "Subject"
	case SlotD:
		return "CallToAction"
	case SlotE:
		return "Greeting"
	}
	return ""
}

// ParseSlot accepts a letter ("C"), a field name ("contentC"), or a kind ("Subject").
func ParseSlot(s string) (Slot, error) {
	v := strings.TrimSpace(s)
	for _, slot := range Slots {
		if strings.EqualFold(v, slot.Letter()) || strings.EqualFold(v, slot.FieldName()) || strings.EqualFold(v, slot.Kind()) {
			return slot, nil
		}
	}
	return 0, fmt.Errorf("unknown content slot %q", s)
}

// Content holds the five content slots. An empty string is an unpopulated slot.
type Content [5]string

// Populated reports whether slot s carries content.
func (c Content) Populated(s Slot) bool {
	return c[s] != ""
}

// IsEmpty reports whether no slot is populated.
func (c Content) IsEmpty() bool {
	for _, v := range c {
		if v != "" {
			return false
		}
	}
	return true
}

type VariableGenerator struct {
	ID         int64    `json:"variableGeneratorID"`
	VersionID  int64    `json:"versionID"`
	Phase      string   `json:"phase"`
	Product    string   `json:"product"`
	OwnerEmail string   `json:"ownerEmail"`
	Platform   Platform `json:"platform"`
}

type Variable struct {
	ID          int64   `json:"variableID"`
	GeneratorID int64   `json:"variableGeneratorID"`
	PainPoint   string  `json:"painPoint"`
	Content     Content `json:"content"`
	Trials      int64   `json:"trials"`
	Successes   int64   `json:"successes"`
}

// Arm is one position of an experiment: the generator feeding it and the chosen variable.
type Arm struct {
	VariableGeneratorID int64 `json:"variableGeneratorID"`
	VariableID          int64 `json:"variableID"`
}

type ExperimentGenerator struct {
	ID                   int64    `json:"experimentGeneratorID"`
	OwnerEmail           string   `json:"ownerEmail"`
	Platform             Platform `json:"platform"`
	VariableGeneratorIDs []int64  `json:"variableGeneratorIDs"`
}

type Experiment struct {
	ID                    int64    `json:"experimentID"`
	ExperimentGeneratorID int64    `json:"experimentGeneratorID"`
	OwnerEmail            string   `json:"ownerEmail"`
	Platform              Platform `json:"platform"`
	Arms                  []Arm    `json:"arms"`
	Trials                int64    `json:"trials"`
	Successes             int64    `json:"successes"`
}

type Customer struct {
	DocID             string `json:"id,omitempty"`
	Name              string `json:"name,omitempty"`
	FirstName         string `json:"firstName,omitempty"`
	LastName          string `json:"lastName,omitempty"`
	Role              string `json:"role,omitempty"`
	Company           string `json:"company,omitempty"`
	Email             string `json:"email,omitempty"`
	LinkedInURL       string `json:"linkedInUrl,omitempty"`
	PhoneNumber       string `json:"phoneNumber,omitempty"`
	LeadStage         string `json:"leadStage,omitempty"`
	LeadSource        string `json:"leadSource,omitempty"`
	LeadStatus        string `json:"leadStatus,omitempty"`
	ProductOfInterest string `json:"productOfInterest,omitempty"`
	Country           string `json:"country,omitempty"`
	HasEmail          bool   `json:"hasEmail"`
	HasLinkedIn       bool   `json:"hasLinkedIn"`
	HasPhone          bool   `json:"hasPhone"`
}

// ContactKey returns the platform-specific contact value used to identify the customer.
func (c Customer) ContactKey(p Platform) string {
	switch p {
	case PlatformEmail:
		return c.Email
	case PlatformLinkedIn:
		return c.LinkedInURL
	case PlatformPhone:
		return c.PhoneNumber
	}
	return ""
}

// DisplayName prefers the full name, falling back to first + last.
func (c Customer) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return strings.TrimSpace(strings.Join([]string{c.FirstName, c.LastName}, " "))
}

// RefreshFlags recomputes the has* booleans from the contact fields.
func (c *Customer) RefreshFlags() {
	c.HasEmail = c.Email != ""
	c.HasLinkedIn = c.LinkedInURL != ""
	c.HasPhone = c.PhoneNumber != ""
}

// StatusActive is the status written on new assignment records.
const StatusActive = "Active"

// Assignment is a customer's experiment-assignment sub-record.
type Assignment struct {
	DocID                 string    `json:"id,omitempty"`
	ExperimentID          int64     `json:"experimentID"`
	ExperimentGeneratorID int64     `json:"experimentGeneratorID"`
	OwnerEmail            string    `json:"ownerEmail,omitempty"`
	Platform              Platform  `json:"platform"`
	Status                string    `json:"status"`
	AssignedAt            string    `json:"assignedAt,omitempty"`
	Arms                  []Arm     `json:"arms"`
	ArmContent            []Content `json:"armContent"`
}

// Task is one agenda entry: one arm's content for one customer, queued for an owner.
type Task struct {
	DocID                 string   `json:"id,omitempty"`
	SequenceIdx           int      `json:"sequence_idx"`
	Platform              Platform `json:"platform"`
	OwnerEmail            string   `json:"ownerEmail,omitempty"`
	ExperimentID          int64    `json:"experimentID"`
	ExperimentGeneratorID int64    `json:"experimentGeneratorID"`
	Arm                   Arm      `json:"arm"`
	Content               Content  `json:"content"`
	Customer              Customer `json:"customer"`
}

// Event is an outreach outcome reported by an operator or a tracking hook.
type Event struct {
	DocID                 string         `json:"id,omitempty"`
	Platform              Platform       `json:"platform,omitempty"`
	Status                string         `json:"status,omitempty"`
	OwnerEmail            string         `json:"ownerEmail,omitempty"`
	CustomerEmail         string         `json:"customerEmail,omitempty"`
	Email                 string         `json:"email,omitempty"`
	PhoneNumber           string         `json:"phoneNumber,omitempty"`
	LinkedInURL           string         `json:"linkedInUrl,omitempty"`
	SequenceIdx           string         `json:"sequence_idx,omitempty"`
	PostingDate           string         `json:"postingDate,omitempty"`
	ExperimentID          int64          `json:"experimentID,omitempty"`
	ExperimentGeneratorID int64          `json:"experimentGeneratorID,omitempty"`
	Success               bool           `json:"success,omitempty"`
	RecordedAt            string         `json:"recordedAt,omitempty"`
	Extra                 map[string]any `json:"extra,omitempty"`
}
