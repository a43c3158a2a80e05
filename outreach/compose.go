// ABOUTME: Email composition from an assigned experiment's arm content
// ABOUTME: Subject from arm 1, body from greeting plus each arm's pain point, solution, and call to action
package outreach

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/mail"
	"strings"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/models"
)

const defaultGreeting = "Hi"

// Message is one composed outreach email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// ComposeEmail builds the message for one outbound contact.
func ComposeEmail(from string, contact campaign.OutboundContact) (*Message, error) {
	to := contact.Customer.Email
	if to == "" {
		return nil, fmt.Errorf("customer %s has no email address", contact.Customer.DocID)
	}
	arms := contact.Assignment.ArmContent
	if len(arms) == 0 {
		return nil, fmt.Errorf("assignment %s has no content", contact.Assignment.DocID)
	}

	greeting := arms[0][models.SlotE]
	if greeting == "" {
		greeting = defaultGreeting
	}
	name := contact.Customer.FirstName
	if name == "" {
		name = contact.Customer.DisplayName()
	}

	var body strings.Builder
	body.WriteString(strings.TrimSpace(greeting + " " + name))
	body.WriteString(",\n")
	for _, c := range arms {
		for _, s := range []models.Slot{models.SlotA, models.SlotB, models.SlotD} {
			if c.Populated(s) {
				body.WriteString("\n")
				body.WriteString(c[s])
				body.WriteString("\n")
			}
		}
	}

	return &Message{
		From:    from,
		To:      to,
		Subject: arms[0][models.SlotC],
		Body:    body.String(),
	}, nil
}

// RFC5322 renders the message with headers.
func (m *Message) RFC5322() string {
	var sb strings.Builder
	if m.From != "" {
		sb.WriteString("From: " + (&mail.Address{Address: m.From}).String() + "\r\n")
	}
	sb.WriteString("To: " + (&mail.Address{Address: m.To}).String() + "\r\n")
	sb.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", m.Subject) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return sb.String()
}

// Raw is the base64url form the Gmail API takes.
func (m *Message) Raw() string {
	return base64.URLEncoding.EncodeToString([]byte(m.RFC5322()))
}
