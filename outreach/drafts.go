// ABOUTME: Gmail draft creation for outbound email contacts
// ABOUTME: One draft per Email-platform assignment, collecting per-contact failures
package outreach

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/logger"
	"github.com/harperreed/outbound/models"
)

// DraftCreator stores a raw message as a draft and returns its id.
type DraftCreator interface {
	CreateDraft(ctx context.Context, raw string) (string, error)
}

type GmailDrafts struct {
	service *gmail.Service
}

// NewGmailDrafts creates a Gmail client authorized with token.
func NewGmailDrafts(ctx context.Context, config *oauth2.Config, token *oauth2.Token) (*GmailDrafts, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}

	client := config.Client(ctx, token)
	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &GmailDrafts{service: service}, nil
}

func (g *GmailDrafts) CreateDraft(ctx context.Context, raw string) (string, error) {
	draft, err := g.service.Users.Drafts.Create("me", &gmail.Draft{
		Message: &gmail.Message{Raw: raw},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create draft: %w", err)
	}
	return draft.Id, nil
}

// DraftResult is the outcome for one contact.
type DraftResult struct {
	CustomerID string
	Email      string
	DraftID    string
	Err        error
}

// DraftAll composes and stores a draft for every Email-platform contact.
// Contacts on other platforms are ignored; a failure for one contact does
// not stop the rest.
func DraftAll(ctx context.Context, creator DraftCreator, from string, contacts []campaign.OutboundContact, log *logger.Logger) []DraftResult {
	if log == nil {
		log = logger.Nop()
	}

	var results []DraftResult
	for _, c := range contacts {
		if c.Assignment.Platform != models.PlatformEmail {
			continue
		}
		if ctx.Err() != nil {
			results = append(results, DraftResult{CustomerID: c.Customer.DocID, Email: c.Customer.Email, Err: ctx.Err()})
			continue
		}

		res := DraftResult{CustomerID: c.Customer.DocID, Email: c.Customer.Email}
		msg, err := ComposeEmail(from, c)
		if err == nil {
			res.DraftID, err = creator.CreateDraft(ctx, msg.Raw())
		}
		res.Err = err
		if err != nil {
			log.Warn("draft failed", "customer_id", c.Customer.DocID, "email", c.Customer.Email, "error", err)
		}
		results = append(results, res)
	}
	return results
}
