package pipefy

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Quote_Cases(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "abc", want: `"abc"`},
		{name: "double quote escaped", in: `say "hi"`, want: `"say \"hi\""`},
		{name: "backslash escaped", in: `a\b`, want: `"a\\b"`},
		{name: "newline escaped", in: "a\nb", want: `"a\nb"`},
		{name: "html kept", in: "<b>&</b>", want: `"<b>&</b>"`},
		{name: "unicode kept", in: "café", want: `"café"`},
		{name: "empty", in: "", want: `""`},
		{name: "invalid utf-8 replaced", in: "bad\xffutf8", want: `"bad\ufffdutf8"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, quote(tt.in))
		})
	}
}

func Test_ValidateID_Cases(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "digits", id: "301234"},
		{name: "letters and dashes", id: "aB_c-9"},
		{name: "empty", id: "", wantErr: true},
		{name: "space", id: "1 2", wantErr: true},
		{name: "injection attempt", id: `1) { deleteCard(input: {id: 2`, wantErr: true},
		{name: "quote", id: `1"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateID("card", tt.id)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidID), "err = %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func Test_RenderValue_Cases(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil", in: nil, want: "null"},
		{name: "string", in: "x", want: `"x"`},
		{name: "int", in: 42, want: `"42"`},
		{name: "float", in: 1.5, want: `"1.5"`},
		{name: "bool", in: true, want: `"true"`},
		{name: "string slice keeps order", in: []string{"z", "a", "m"}, want: `[ "z", "a", "m" ]`},
		{name: "mixed slice", in: []any{"a", 1, false}, want: `[ "a", "1", "false" ]`},
		{name: "empty slice", in: []any{}, want: "[]"},
		{name: "bytes are scalar", in: []byte("ab"), want: `"ab"`},
		{name: "quotes escaped in list", in: []string{`a"b`}, want: `[ "a\"b" ]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderValue(tt.in))
		})
	}
}

func Test_Sanitizers(t *testing.T) {
	assert.Equal(t, "say hi", commentText(`say "hi"`))
	assert.Equal(t, "it's fine", commentText("it's fine"))
	assert.Equal(t, "a b c d", recordValue(`"a" [b] (c) d!`))
	assert.Equal(t, "12", recordValue(12))
	assert.Equal(t, "", recordValue(nil))
}

func Test_AttributeLists(t *testing.T) {
	attrs := []FieldAttribute{
		{FieldID: "a", Value: "x"},
		{FieldID: "b", Value: nil},
		{FieldID: "c", Value: []string{}},
		{FieldID: "d", Value: []string{"y", "z"}},
	}

	t.Run("creation skips nil keeps empty list", func(t *testing.T) {
		assert.Equal(t,
			`[ { field_id: "a", field_value: "x" }, { field_id: "c", field_value: [] }, { field_id: "d", field_value: [ "y", "z" ] } ]`,
			fieldAttributeList(attrs))
	})

	t.Run("bulk update skips nil and empty list", func(t *testing.T) {
		assert.Equal(t,
			`[ {fieldId: "a", value: "x"}, {fieldId: "d", value: [ "y", "z" ]} ]`,
			fieldValueList(attrs))
	})

	t.Run("record fields are sanitized text", func(t *testing.T) {
		assert.Equal(t,
			`[ {field_id: "name", field_value: "Ana"}, {field_id: "tags", field_value: "a b"} ]`,
			recordFieldList([]RecordField{{ID: "name", Value: `"Ana"`}, {ID: "tags", Value: "[a b]"}}))
	})

	t.Run("empty lists", func(t *testing.T) {
		assert.Equal(t, "[  ]", fieldAttributeList(nil))
		assert.Equal(t, "[]", idList(nil))
		assert.Equal(t, "[1, 2]", idList([]string{"1", "2"}))
	})
}

func Test_CardInfoQuery_Selection(t *testing.T) {
	const fullCards = "fields { indexName name value report_value } current_phase { name id }"

	tests := []struct {
		name  string
		opts  CardInfoOptions
		check func(t *testing.T, q string)
	}{
		{
			name: "defaults select title-only relations",
			opts: CardInfoOptions{},
			check: func(t *testing.T, q string) {
				assert.Contains(t, q, "child_relations { name id cards { id title } }")
				assert.Contains(t, q, "parent_relations { name id cards { id title } }")
				assert.NotContains(t, q, "date_value")
				assert.NotContains(t, q, "datetime_value")
			},
		},
		{
			name: "children only expands child cards",
			opts: CardInfoOptions{Children: true},
			check: func(t *testing.T, q string) {
				assert.Contains(t, q, "child_relations { name id cards { id title "+fullCards+" } }")
				assert.Contains(t, q, "parent_relations { name id cards { id title } }")
			},
		},
		{
			name: "second level alone is ignored",
			opts: CardInfoOptions{SecondLevel: true},
			check: func(t *testing.T, q string) {
				assert.Equal(t, 1, strings.Count(q, "child_relations"))
				assert.Equal(t, 1, strings.Count(q, "parent_relations"))
			},
		},
		{
			name: "second level nests both kinds inside each relation",
			opts: CardInfoOptions{Parents: true, SecondLevel: true},
			check: func(t *testing.T, q string) {
				assert.Equal(t, 3, strings.Count(q, "child_relations"))
				assert.Equal(t, 3, strings.Count(q, "parent_relations"))
				assert.Contains(t, q, "parent_relations { name id cards { id title "+fullCards+
					" child_relations { name id cards { id title } } parent_relations { name id cards { id title "+fullCards+" } } } }")
			},
		},
		{
			name: "date values",
			opts: CardInfoOptions{DateValue: true, DatetimeValue: true},
			check: func(t *testing.T, q string) {
				assert.Contains(t, q, "fields { indexName name value report_value date_value datetime_value }")
			},
		},
		{
			name: "card id is quoted",
			opts: CardInfoOptions{},
			check: func(t *testing.T, q string) {
				assert.True(t, strings.HasPrefix(q, `{ card(id: "C1") { id pipe { id name suid } title`), q)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cardInfoQuery("C1", tt.opts))
		})
	}
}
