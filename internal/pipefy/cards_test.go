package pipefy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jamesprial/pipefy-mcp/internal/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_CreateCard_Cases(t *testing.T) {
	fields := FieldAttributes(map[string]any{
		"title": "x",
		"tags":  []string{"y", "z"},
		"skip":  nil,
	})

	t.Run("renders attributes and returns id", func(t *testing.T) {
		c, f := newTestClient(t, staticData(`{"createCard":{"clientMutationId":null,"card":{"id":"900"}}}`))

		id, err := c.CreateCard(context.Background(), "301", fields)
		require.NoError(t, err)
		assert.Equal(t, "900", id)

		q := f.Last(t)
		assert.Contains(t, q, "pipe_id: 301,")
		assert.Contains(t, q, `{ field_id: "title", field_value: "x" }`)
		assert.Contains(t, q, `{ field_id: "tags", field_value: [ "y", "z" ] }`)
		assert.NotContains(t, q, "skip")
	})

	t.Run("api error surfaces first message and details", func(t *testing.T) {
		c, _ := newTestClient(t, staticErrors(`[{"message":"Field is required","code":"INVALID"},{"message":"second"}]`))

		_, err := c.CreateCard(context.Background(), "301", fields)
		require.Error(t, err)
		assert.Equal(t, "Pipefy error: Field is required", err.Error())

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "createCard", apiErr.Op)
		details, ok := apiErr.Details().([]graphql.GraphQLError)
		require.True(t, ok)
		assert.Len(t, details, 2)
		assert.Equal(t, "INVALID", details[0].Code)
	})

	t.Run("missing card id is malformed", func(t *testing.T) {
		c, _ := newTestClient(t, staticData(`{"createCard":{"card":null}}`))

		_, err := c.CreateCard(context.Background(), "301", fields)
		assert.True(t, errors.Is(err, ErrMalformedResponse), "err = %v", err)
	})

	t.Run("invalid pipe id never reaches the server", func(t *testing.T) {
		c, f := newTestClient(t, staticData(`{}`))

		_, err := c.CreateCard(context.Background(), "301) {", fields)
		assert.True(t, errors.Is(err, ErrInvalidID), "err = %v", err)
		assert.Empty(t, f.Queries())
	})
}

func Test_GetCardInfo_Cases(t *testing.T) {
	t.Run("decodes card", func(t *testing.T) {
		c, _ := newTestClient(t, staticData(`{"card":{"id":"7","title":"T","pipe":{"id":"301","name":"Sales"},
			"current_phase":{"id":"9","name":"Doing"},
			"fields":[{"indexName":"amount","name":"Amount","value":"10","report_value":"10.00"}],
			"child_relations":[{"id":"r1","name":"Items","cards":[{"id":"8","title":"child"}]}]}}`))

		card, err := c.GetCardInfo(context.Background(), "7", CardInfoOptions{})
		require.NoError(t, err)
		require.NotNil(t, card)
		assert.Equal(t, "T", card.Title)
		assert.Equal(t, "301", card.Pipe.ID)
		assert.Equal(t, "Doing", card.CurrentPhase.Name)
		require.Len(t, card.ChildRelations, 1)
		assert.Equal(t, "child", card.ChildRelations[0].Cards[0].Title)
	})

	t.Run("null card is nil without error", func(t *testing.T) {
		c, _ := newTestClient(t, staticData(`{"card":null}`))

		card, err := c.GetCardInfo(context.Background(), "7", CardInfoOptions{})
		require.NoError(t, err)
		assert.Nil(t, card)
	})

	t.Run("data of the wrong shape is malformed", func(t *testing.T) {
		c, _ := newTestClient(t, staticData(`{"card":"nope"}`))

		_, err := c.GetCardInfo(context.Background(), "7", CardInfoOptions{})
		assert.True(t, errors.Is(err, ErrMalformedResponse), "err = %v", err)
	})
}

func Test_FindCard_Cases(t *testing.T) {
	const page = `{"allCards":{"edges":[
		{"node":{"id":"1","title":"dup"}},
		{"node":{"id":"2","title":"other"}},
		{"node":{"id":"3","title":"dup"}}]}}`

	tests := []struct {
		name      string
		title     string
		wantID    string
		wantFound bool
	}{
		{name: "last match wins", title: "dup", wantID: "3", wantFound: true},
		{name: "single match", title: "other", wantID: "2", wantFound: true},
		{name: "no match", title: "missing", wantID: "", wantFound: false},
		{name: "match is exact", title: "DUP", wantID: "", wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, staticData(page))

			id, found, err := c.FindCard(context.Background(), tt.title, "301")
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantFound, found)
		})
	}
}

func Test_FindCardFromTitle_FirstEdge(t *testing.T) {
	c, f := newTestClient(t, staticData(`{"cards":{"edges":[{"node":{"id":"5"}},{"node":{"id":"6"}}]}}`))

	id, found, err := c.FindCardFromTitle(context.Background(), `Order "A"`, "301")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "5", id)
	assert.Contains(t, f.Last(t), `search: {title: "Order \"A\""}`)
}

func Test_FindCardFromField_Cases(t *testing.T) {
	const hit = `{"findCards":{"edges":[{"node":{"id":"42","fields":[{"indexName":"email","name":"E-mail","value":"a@b.c","report_value":"a@b.c"}]}},{"node":{"id":"43"}}]}}`
	const miss = `{"findCards":{"edges":[]}}`

	t.Run("id found", func(t *testing.T) {
		c, f := newTestClient(t, staticData(hit))

		id, found, err := c.FindCardIDFromField(context.Background(), "email", "a@b.c", "301")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "42", id)
		q := f.Last(t)
		assert.Contains(t, q, `findCards(pipeId: 301, search: {fieldId: "email", fieldValue: "a@b.c"})`)
		assert.NotContains(t, q, "fields {")
	})

	t.Run("id not found", func(t *testing.T) {
		c, _ := newTestClient(t, staticData(miss))

		id, found, err := c.FindCardIDFromField(context.Background(), "email", "x", "301")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, id)
	})

	t.Run("full card", func(t *testing.T) {
		c, f := newTestClient(t, staticData(hit))

		card, err := c.FindCardFromField(context.Background(), "email", "a@b.c", "301")
		require.NoError(t, err)
		require.NotNil(t, card)
		assert.Equal(t, "42", card.ID)
		assert.Equal(t, "a@b.c", card.Fields[0].Value)
		assert.Contains(t, f.Last(t), "fields { indexName name value report_value }")
	})

	t.Run("full card not found is nil", func(t *testing.T) {
		c, _ := newTestClient(t, staticData(miss))

		card, err := c.FindCardFromField(context.Background(), "email", "x", "301")
		require.NoError(t, err)
		assert.Nil(t, card)
	})

	t.Run("all cards", func(t *testing.T) {
		c, _ := newTestClient(t, staticData(hit))

		cards, err := c.FindCardsFromField(context.Background(), "email", "a@b.c", "301")
		require.NoError(t, err)
		assert.Len(t, cards, 2)
	})

	t.Run("pipe id is validated", func(t *testing.T) {
		c, f := newTestClient(t, staticData(hit))

		_, _, err := c.FindCardIDFromField(context.Background(), "email", "x", "30 1")
		assert.True(t, errors.Is(err, ErrInvalidID))
		assert.Empty(t, f.Queries())
	})
}

func Test_CardMutations_Documents(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		call  func(c *Client) error
		wants []string
	}{
		{
			name: "move uses unquoted ids",
			data: `{"moveCardToPhase":{"clientMutationId":null}}`,
			call: func(c *Client) error { return c.MoveCardToPhase(context.Background(), "10", "20") },
			wants: []string{"card_id: 10, destination_phase_id: 20"},
		},
		{
			name:  "comment drops double quotes",
			data:  `{"createComment":{"clientMutationId":null}}`,
			call:  func(c *Client) error { return c.MakeComment(context.Background(), "10", `he said "ok"`) },
			wants: []string{`card_id: "10", text: "he said ok"`},
		},
		{
			name: "single update with operation",
			data: `{"updateFieldsValues":{"clientMutationId":null}}`,
			call: func(c *Client) error {
				return c.UpdateFieldValue(context.Background(), "10", "tags", []string{"a"}, OpAdd)
			},
			wants: []string{`nodeId: "10", values: {fieldId: "tags", value: [ "a" ], operation: ADD}`},
		},
		{
			name: "single update of nil sends null",
			data: `{"updateFieldsValues":{"clientMutationId":null}}`,
			call: func(c *Client) error {
				return c.UpdateFieldValue(context.Background(), "10", "due", nil, OpNone)
			},
			wants: []string{`values: {fieldId: "due", value: null}`},
		},
		{
			name: "bulk update skips nil and empty",
			data: `{"updateFieldsValues":{"clientMutationId":null}}`,
			call: func(c *Client) error {
				return c.UpdateFieldValues(context.Background(), "10", []FieldAttribute{
					{FieldID: "a", Value: "1"}, {FieldID: "b", Value: nil}, {FieldID: "c", Value: []string{}},
				})
			},
			wants: []string{`values: [ {fieldId: "a", value: "1"} ]`},
		},
		{
			name:  "assignees",
			data:  `{"updateCard":{"clientMutationId":null}}`,
			call:  func(c *Client) error { return c.SetAssignees(context.Background(), "10", []string{"u1", "u2"}) },
			wants: []string{`updateCard(input: {id: "10", assignee_ids: [u1, u2]})`},
		},
		{
			name:  "labels cleared",
			data:  `{"updateCard":{"clientMutationId":null}}`,
			call:  func(c *Client) error { return c.SetLabels(context.Background(), "10", nil) },
			wants: []string{`label_ids: []`},
		},
		{
			name:  "due date",
			data:  `{"updateCard":{"clientMutationId":null}}`,
			call:  func(c *Client) error { return c.SetDueDate(context.Background(), "10", "2024-05-01T10:00:00Z") },
			wants: []string{`due_date: "2024-05-01T10:00:00Z"`},
		},
		{
			name:  "delete",
			data:  `{"deleteCard":{"clientMutationId":null,"success":true}}`,
			call:  func(c *Client) error { return c.DeleteCard(context.Background(), "10") },
			wants: []string{`deleteCard(input: {id: "10"})`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, f := newTestClient(t, staticData(tt.data))

			require.NoError(t, tt.call(c))
			q := f.Last(t)
			assert.True(t, strings.HasPrefix(q, "mutation {"), q)
			for _, want := range tt.wants {
				assert.Contains(t, q, want)
			}
		})
	}
}

func Test_CardMutations_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		call    func(c *Client) error
		wantErr error
	}{
		{
			name:    "unknown operation",
			data:    `{}`,
			call:    func(c *Client) error { return c.UpdateFieldValue(context.Background(), "1", "f", "v", "APPEND") },
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "bad phase id",
			data:    `{}`,
			call:    func(c *Client) error { return c.MoveCardToPhase(context.Background(), "1", "2 }") },
			wantErr: ErrInvalidID,
		},
		{
			name:    "bad assignee id",
			data:    `{}`,
			call:    func(c *Client) error { return c.SetAssignees(context.Background(), "1", []string{"ok", "x]"}) },
			wantErr: ErrInvalidID,
		},
		{
			name:    "success false",
			data:    `{"deleteCard":{"clientMutationId":null,"success":false}}`,
			call:    func(c *Client) error { return c.DeleteCard(context.Background(), "1") },
			wantErr: ErrNotSuccessful,
		},
		{
			name:    "null payload",
			data:    `{"deleteCard":null}`,
			call:    func(c *Client) error { return c.DeleteCard(context.Background(), "1") },
			wantErr: ErrNotSuccessful,
		},
		{
			name: "bad relation source type",
			data: `{}`,
			call: func(c *Client) error {
				_, err := c.CreateCardRelation(context.Background(), "1", "2", "3", "Pipe")
				return err
			},
			wantErr: ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, staticData(tt.data))

			err := tt.call(c)
			assert.True(t, errors.Is(err, tt.wantErr), "err = %v, want %v", err, tt.wantErr)
		})
	}
}

func Test_ClearConnectorField_Cases(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
	}{
		{name: "success true", data: `{"updateCardField":{"clientMutationId":null,"success":true}}`, want: true},
		{name: "success false", data: `{"updateCardField":{"clientMutationId":null,"success":false}}`, want: false},
		{name: "null payload", data: `{"updateCardField":null}`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, f := newTestClient(t, staticData(tt.data))

			ok, err := c.ClearConnectorField(context.Background(), "10", "connector")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Contains(t, f.Last(t), `card_id: 10, field_id: "connector", new_value: null`)
		})
	}
}

func Test_CreateCardRelation_ReturnsID(t *testing.T) {
	c, f := newTestClient(t, staticData(`{"createCardRelation":{"clientMutationId":null,"cardRelation":{"id":"rel-1"}}}`))

	id, err := c.CreateCardRelation(context.Background(), "c1", "p1", "s1", SourceField)
	require.NoError(t, err)
	assert.Equal(t, "rel-1", id)
	assert.Contains(t, f.Last(t), `childId: "c1", parentId: "p1", sourceId: "s1", sourceType: "Field"`)
}

func Test_AllCardsIDs_Relations(t *testing.T) {
	c, f := newTestClient(t, staticData(`{"allCards":{"edges":[{"node":{"id":"1","title":"a","parent_relations":[{"id":"r","name":"P","cards":[{"id":"9","title":"p"}]}]}}]}}`))

	cards, err := c.AllCardsIDs(context.Background(), "301", true, false)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "9", cards[0].ParentRelations[0].Cards[0].ID)

	q := f.Last(t)
	assert.Contains(t, q, "parent_relations { name id cards { id title } }")
	assert.NotContains(t, q, "child_relations")
}

func Test_GetPipeInfo_Cases(t *testing.T) {
	c, _ := newTestClient(t, staticData(`{"pipe":{"id":"301","name":"Sales"}}`))
	pipe, err := c.GetPipeInfo(context.Background(), "301")
	require.NoError(t, err)
	assert.Equal(t, &Pipe{ID: "301", Name: "Sales"}, pipe)

	c, _ = newTestClient(t, staticData(`{"pipe":null}`))
	pipe, err = c.GetPipeInfo(context.Background(), "404")
	require.NoError(t, err)
	assert.Nil(t, pipe)
}
