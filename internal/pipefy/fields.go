package pipefy

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Value kinds inferred by IndexFieldsFull.
const (
	KindEmpty   = "empty"
	KindNumber  = "number"
	KindBoolean = "boolean"
	KindArray   = "array"
	KindString  = "string"
)

// IndexedField is a field plus the kind inferred from its raw value.
type IndexedField struct {
	Field
	Kind string `json:"type"`
}

// fieldKey lowercases name and drops everything outside [a-z0-9].
func fieldKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// valueKind infers the kind of a raw field value. Pipefy sends list values
// as JSON-encoded arrays inside the string.
func valueKind(v string) string {
	switch {
	case v == "":
		return KindEmpty
	case v == "true" || v == "false":
		return KindBoolean
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return KindNumber
	}
	if strings.HasPrefix(v, "[") {
		var list []any
		if json.Unmarshal([]byte(v), &list) == nil {
			return KindArray
		}
	}
	return KindString
}

// IndexFields maps each field's normalized display name to its raw value.
// When two names normalize to the same key the later field wins.
func IndexFields(fields []Field) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[fieldKey(f.Name)] = f.Value
	}
	return out
}

// IndexFieldsFull maps each field's indexName to the field and its inferred
// kind. Later fields win on duplicate indexNames.
func IndexFieldsFull(fields []Field) map[string]IndexedField {
	out := make(map[string]IndexedField, len(fields))
	for _, f := range fields {
		out[f.IndexName] = IndexedField{Field: f, Kind: valueKind(f.Value)}
	}
	return out
}

// GetValueFromField returns the value of the first field with the given
// indexName, or its report_value when reportValue is set. ok is false when
// no field matches.
func GetValueFromField(fields []Field, indexName string, reportValue bool) (value string, ok bool) {
	for _, f := range fields {
		if f.IndexName != indexName {
			continue
		}
		if reportValue {
			return f.ReportValue, true
		}
		return f.Value, true
	}
	return "", false
}

// CardsByRelationID returns the cards of the relation with the given id. It
// returns an empty, non-nil slice when no relation matches.
func CardsByRelationID(relations []CardRelation, relationID string) []Card {
	for _, r := range relations {
		if r.ID == relationID {
			if r.Cards == nil {
				return []Card{}
			}
			return r.Cards
		}
	}
	return []Card{}
}

// FindCardByID returns the first card with the given id, or nil.
func FindCardByID(cards []Card, cardID string) *Card {
	for i := range cards {
		if cards[i].ID == cardID {
			return &cards[i]
		}
	}
	return nil
}
