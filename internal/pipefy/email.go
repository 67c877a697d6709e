package pipefy

import (
	"context"
	"fmt"
)

// CreateInboxEmail drafts an e-mail on a card and returns the e-mail id.
func (c *Client) CreateInboxEmail(ctx context.Context, email InboxEmail) (string, error) {
	if err := validateID("card", email.CardID); err != nil {
		return "", fmt.Errorf("pipefy createInboxEmail: %w", err)
	}
	if err := validateID("pipe", email.PipeID); err != nil {
		return "", fmt.Errorf("pipefy createInboxEmail: %w", err)
	}
	var resp struct {
		CreateInboxEmail *struct {
			InboxEmail *struct {
				ID string `json:"id"`
			} `json:"inbox_email"`
		} `json:"createInboxEmail"`
	}
	query := fmt.Sprintf(`mutation { createInboxEmail(input: { card_id: %s, repo_id: %s, from: %s, fromName: %s, to: %s, subject: %s, html: %s }) { clientMutationId inbox_email { id } } }`,
		email.CardID, email.PipeID, quote(email.From), quote(email.FromName), quote(email.To), quote(email.Subject), quote(email.HTML))
	if err := c.do(ctx, "createInboxEmail", query, &resp); err != nil {
		return "", err
	}
	if resp.CreateInboxEmail == nil || resp.CreateInboxEmail.InboxEmail == nil || resp.CreateInboxEmail.InboxEmail.ID == "" {
		return "", fmt.Errorf("pipefy createInboxEmail: %w: no e-mail id", ErrMalformedResponse)
	}
	return resp.CreateInboxEmail.InboxEmail.ID, nil
}

// SendInboxEmail sends a drafted e-mail.
func (c *Client) SendInboxEmail(ctx context.Context, emailID string) error {
	if err := validateID("e-mail", emailID); err != nil {
		return fmt.Errorf("pipefy sendInboxEmail: %w", err)
	}
	var resp struct {
		Result *mutationResult `json:"sendInboxEmail"`
	}
	query := fmt.Sprintf(`mutation { sendInboxEmail(input: {id: %s}) { clientMutationId } }`, emailID)
	if err := c.do(ctx, "sendInboxEmail", query, &resp); err != nil {
		return err
	}
	return resp.Result.check("sendInboxEmail")
}
