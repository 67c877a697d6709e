package pipefy

import (
	"context"
	"fmt"
)

// GetCardInfo returns the card with its relations, fields, labels and phase
// history. It returns nil when the card does not exist.
func (c *Client) GetCardInfo(ctx context.Context, cardID string, opts CardInfoOptions) (*Card, error) {
	var resp struct {
		Card *Card `json:"card"`
	}
	if err := c.do(ctx, "getCardInfo", cardInfoQuery(cardID, opts), &resp); err != nil {
		return nil, err
	}
	return resp.Card, nil
}

// GetPipeInfo returns the pipe id and name, or nil when it does not exist.
func (c *Client) GetPipeInfo(ctx context.Context, pipeID string) (*Pipe, error) {
	var resp struct {
		Pipe *Pipe `json:"pipe"`
	}
	query := fmt.Sprintf(`{ pipe(id: %s) { id name } }`, quote(pipeID))
	if err := c.do(ctx, "getPipeInfo", query, &resp); err != nil {
		return nil, err
	}
	return resp.Pipe, nil
}

// MoveCardToPhase moves a card to the destination phase.
func (c *Client) MoveCardToPhase(ctx context.Context, cardID, phaseID string) error {
	if err := validateID("card", cardID); err != nil {
		return fmt.Errorf("pipefy moveCardToPhase: %w", err)
	}
	if err := validateID("phase", phaseID); err != nil {
		return fmt.Errorf("pipefy moveCardToPhase: %w", err)
	}
	var resp struct {
		Result *mutationResult `json:"moveCardToPhase"`
	}
	query := fmt.Sprintf(`mutation { moveCardToPhase(input: { card_id: %s, destination_phase_id: %s }) { clientMutationId } }`, cardID, phaseID)
	if err := c.do(ctx, "moveCardToPhase", query, &resp); err != nil {
		return err
	}
	return resp.Result.check("moveCardToPhase")
}

// AllCardsIDs lists the id and title of the cards of a pipe, with title-only
// parent and child relations when requested. Only the first page is read.
func (c *Client) AllCardsIDs(ctx context.Context, pipeID string, parents, children bool) ([]Card, error) {
	sel := "id title"
	if children {
		sel += " " + relationSelection("child_relations", false, CardInfoOptions{}, 1)
	}
	if parents {
		sel += " " + relationSelection("parent_relations", false, CardInfoOptions{}, 1)
	}
	var resp struct {
		AllCards *edges[Card] `json:"allCards"`
	}
	query := fmt.Sprintf(`{ allCards(pipeId: %s) { edges { node { %s } } } }`, quote(pipeID), sel)
	if err := c.do(ctx, "allCards", query, &resp); err != nil {
		return nil, err
	}
	return resp.AllCards.nodes(), nil
}

// FindCard scans the first page of a pipe's cards for an exact title match.
// When several cards share the title the last one listed wins.
func (c *Client) FindCard(ctx context.Context, title, pipeID string) (string, bool, error) {
	var resp struct {
		AllCards *edges[Card] `json:"allCards"`
	}
	query := fmt.Sprintf(`{ allCards(pipeId: %s) { edges { node { id title } } } }`, quote(pipeID))
	if err := c.do(ctx, "findCard", query, &resp); err != nil {
		return "", false, err
	}
	id, found := "", false
	for _, card := range resp.AllCards.nodes() {
		if card.Title == title {
			id, found = card.ID, true
		}
	}
	return id, found, nil
}

// FindCardFromTitle searches a pipe by title on the server and returns the
// first card id in API order.
func (c *Client) FindCardFromTitle(ctx context.Context, title, pipeID string) (string, bool, error) {
	var resp struct {
		Cards *edges[Card] `json:"cards"`
	}
	query := fmt.Sprintf(`{ cards(pipe_id: %s, search: {title: %s}) { edges { node { id } } } }`, quote(pipeID), quote(title))
	if err := c.do(ctx, "findCardFromTitle", query, &resp); err != nil {
		return "", false, err
	}
	cards := resp.Cards.nodes()
	if len(cards) == 0 {
		return "", false, nil
	}
	return cards[0].ID, true, nil
}

func (c *Client) findCards(ctx context.Context, op, fieldID, value, pipeID string, withFields bool) ([]Card, error) {
	if err := validateID("pipe", pipeID); err != nil {
		return nil, fmt.Errorf("pipefy %s: %w", op, err)
	}
	sel := "id"
	if withFields {
		sel += " fields { indexName name value report_value }"
	}
	var resp struct {
		FindCards *edges[Card] `json:"findCards"`
	}
	query := fmt.Sprintf(`{ findCards(pipeId: %s, search: {fieldId: %s, fieldValue: %s}) { edges { node { %s } } } }`,
		pipeID, quote(fieldID), quote(value), sel)
	if err := c.do(ctx, op, query, &resp); err != nil {
		return nil, err
	}
	return resp.FindCards.nodes(), nil
}

// FindCardIDFromField returns the id of the first card whose field matches
// value.
func (c *Client) FindCardIDFromField(ctx context.Context, fieldID, value, pipeID string) (string, bool, error) {
	cards, err := c.findCards(ctx, "findCardFromField", fieldID, value, pipeID, false)
	if err != nil || len(cards) == 0 {
		return "", false, err
	}
	return cards[0].ID, true, nil
}

// FindCardFromField returns the first matching card with its fields, or nil.
func (c *Client) FindCardFromField(ctx context.Context, fieldID, value, pipeID string) (*Card, error) {
	cards, err := c.findCards(ctx, "findCardFromField", fieldID, value, pipeID, true)
	if err != nil || len(cards) == 0 {
		return nil, err
	}
	return &cards[0], nil
}

// FindCardsFromField returns every matching card with its fields.
func (c *Client) FindCardsFromField(ctx context.Context, fieldID, value, pipeID string) ([]Card, error) {
	return c.findCards(ctx, "findCardsFromField", fieldID, value, pipeID, true)
}

// MakeComment adds a comment to a card. Double quotes are removed from text.
func (c *Client) MakeComment(ctx context.Context, cardID, text string) error {
	var resp struct {
		Result *mutationResult `json:"createComment"`
	}
	query := fmt.Sprintf(`mutation { createComment(input: { card_id: %s, text: %s }) { clientMutationId } }`,
		quote(cardID), quote(commentText(text)))
	if err := c.do(ctx, "createComment", query, &resp); err != nil {
		return err
	}
	return resp.Result.check("createComment")
}

// UpdateFieldValue sets one field of a card. Slice values are sent as a
// list, nil as null. op may be empty or one of ADD, REMOVE, REPLACE.
func (c *Client) UpdateFieldValue(ctx context.Context, cardID, fieldID string, value any, op FieldOperation) error {
	operation := ""
	switch op {
	case OpNone:
	case OpAdd, OpRemove, OpReplace:
		operation = ", operation: " + string(op)
	default:
		return fmt.Errorf("pipefy updateFieldsValues: %w: operation %q", ErrInvalidArgument, op)
	}
	var resp struct {
		Result *mutationResult `json:"updateFieldsValues"`
	}
	query := fmt.Sprintf(`mutation { updateFieldsValues(input: {nodeId: %s, values: {fieldId: %s, value: %s%s}}) { clientMutationId } }`,
		quote(cardID), quote(fieldID), renderValue(value), operation)
	if err := c.do(ctx, "updateFieldsValues", query, &resp); err != nil {
		return err
	}
	return resp.Result.check("updateFieldsValues")
}

// UpdateFieldValues sets several fields of a card in one mutation. Nil
// values and empty slices are skipped.
func (c *Client) UpdateFieldValues(ctx context.Context, cardID string, values []FieldAttribute) error {
	var resp struct {
		Result *mutationResult `json:"updateFieldsValues"`
	}
	query := fmt.Sprintf(`mutation { updateFieldsValues(input: {nodeId: %s, values: %s}) { clientMutationId } }`,
		quote(cardID), fieldValueList(values))
	if err := c.do(ctx, "updateFieldsValues", query, &resp); err != nil {
		return err
	}
	return resp.Result.check("updateFieldsValues")
}

// ClearConnectorField sets a connector field of a card to null and returns
// the success flag the API reports.
func (c *Client) ClearConnectorField(ctx context.Context, cardID, fieldID string) (bool, error) {
	if err := validateID("card", cardID); err != nil {
		return false, fmt.Errorf("pipefy updateCardField: %w", err)
	}
	var resp struct {
		Result *mutationResult `json:"updateCardField"`
	}
	query := fmt.Sprintf(`mutation { updateCardField(input: {card_id: %s, field_id: %s, new_value: null}) { clientMutationId success } }`,
		cardID, quote(fieldID))
	if err := c.do(ctx, "updateCardField", query, &resp); err != nil {
		return false, err
	}
	if resp.Result == nil || resp.Result.Success == nil {
		return false, nil
	}
	return *resp.Result.Success, nil
}

func (c *Client) updateCard(ctx context.Context, cardID, attr string) error {
	var resp struct {
		Result *mutationResult `json:"updateCard"`
	}
	query := fmt.Sprintf(`mutation { updateCard(input: {id: %s, %s}) { clientMutationId } }`, quote(cardID), attr)
	if err := c.do(ctx, "updateCard", query, &resp); err != nil {
		return err
	}
	return resp.Result.check("updateCard")
}

// SetAssignees replaces the assignees of a card.
func (c *Client) SetAssignees(ctx context.Context, cardID string, assigneeIDs []string) error {
	if err := validateIDs("assignee", assigneeIDs); err != nil {
		return fmt.Errorf("pipefy updateCard: %w", err)
	}
	return c.updateCard(ctx, cardID, "assignee_ids: "+idList(assigneeIDs))
}

// SetLabels replaces the labels of a card. A nil or empty slice clears them.
func (c *Client) SetLabels(ctx context.Context, cardID string, labelIDs []string) error {
	if err := validateIDs("label", labelIDs); err != nil {
		return fmt.Errorf("pipefy updateCard: %w", err)
	}
	return c.updateCard(ctx, cardID, "label_ids: "+idList(labelIDs))
}

// SetDueDate sets the due date of a card. dueDate is sent as given.
func (c *Client) SetDueDate(ctx context.Context, cardID, dueDate string) error {
	return c.updateCard(ctx, cardID, "due_date: "+quote(dueDate))
}

// CreateCard creates a card in a pipe and returns its id. A GraphQL error
// is returned as *APIError.
func (c *Client) CreateCard(ctx context.Context, pipeID string, fields []FieldAttribute) (string, error) {
	if err := validateID("pipe", pipeID); err != nil {
		return "", fmt.Errorf("pipefy createCard: %w", err)
	}
	var resp struct {
		CreateCard *struct {
			Card *Card `json:"card"`
		} `json:"createCard"`
	}
	query := fmt.Sprintf(`mutation { createCard(input: { pipe_id: %s, fields_attributes: %s }) { clientMutationId card { id } } }`,
		pipeID, fieldAttributeList(fields))
	if err := c.do(ctx, "createCard", query, &resp); err != nil {
		return "", err
	}
	if resp.CreateCard == nil || resp.CreateCard.Card == nil || resp.CreateCard.Card.ID == "" {
		return "", fmt.Errorf("pipefy createCard: %w: no card id", ErrMalformedResponse)
	}
	return resp.CreateCard.Card.ID, nil
}

// DeleteCard deletes a card.
func (c *Client) DeleteCard(ctx context.Context, cardID string) error {
	var resp struct {
		Result *mutationResult `json:"deleteCard"`
	}
	query := fmt.Sprintf(`mutation { deleteCard(input: {id: %s}) { clientMutationId success } }`, quote(cardID))
	if err := c.do(ctx, "deleteCard", query, &resp); err != nil {
		return err
	}
	return resp.Result.check("deleteCard")
}

// CreateCardRelation connects a child card to a parent card through a pipe
// relation or a connector field and returns the relation id.
func (c *Client) CreateCardRelation(ctx context.Context, childID, parentID, sourceID string, sourceType RelationSourceType) (string, error) {
	if sourceType != SourcePipeRelation && sourceType != SourceField {
		return "", fmt.Errorf("pipefy createCardRelation: %w: source type %q", ErrInvalidArgument, sourceType)
	}
	var resp struct {
		Result *struct {
			CardRelation *struct {
				ID string `json:"id"`
			} `json:"cardRelation"`
		} `json:"createCardRelation"`
	}
	query := fmt.Sprintf(`mutation { createCardRelation(input: { childId: %s, parentId: %s, sourceId: %s, sourceType: %s }) { clientMutationId cardRelation { id } } }`,
		quote(childID), quote(parentID), quote(sourceID), quote(string(sourceType)))
	if err := c.do(ctx, "createCardRelation", query, &resp); err != nil {
		return "", err
	}
	if resp.Result == nil || resp.Result.CardRelation == nil {
		return "", fmt.Errorf("pipefy createCardRelation: %w: no relation", ErrMalformedResponse)
	}
	return resp.Result.CardRelation.ID, nil
}
