package pipefy

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/spf13/cast"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// validateID checks an id that is written into a document without quotes.
func validateID(kind, id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %s %q", ErrInvalidID, kind, id)
	}
	return nil
}

// validateIDs runs validateID over every element of ids.
func validateIDs(kind string, ids []string) error {
	for _, id := range ids {
		if err := validateID(kind, id); err != nil {
			return err
		}
	}
	return nil
}

// quote renders s as a GraphQL string literal. Invalid UTF-8 bytes are
// replaced with U+FFFD, so the literal does not always round-trip to s.
func quote(s string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}

// commentText drops double quotes from a comment body.
func commentText(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}

var recordValueStripper = strings.NewReplacer(`"`, "", "[", "", "]", "", "!", "", "(", "", ")", "")

// recordValue is the textual form of a table record value with the
// characters " [ ] ! ( ) removed.
func recordValue(v any) string {
	return recordValueStripper.Replace(scalarText(v))
}

// scalarText is the textual form of a scalar value.
func scalarText(v any) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// listElems returns the elements of v when v is a slice or array. Byte
// slices are treated as scalars.
func listElems(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	elems := make([]any, rv.Len())
	for i := range elems {
		elems[i] = rv.Index(i).Interface()
	}
	return elems, true
}

// renderValue renders a field value: slices become [ "a", "b" ] keeping
// order, nil becomes null, anything else a quoted string.
func renderValue(v any) string {
	if v == nil {
		return "null"
	}
	elems, ok := listElems(v)
	if !ok {
		return quote(scalarText(v))
	}
	if len(elems) == 0 {
		return "[]"
	}
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = quote(scalarText(e))
	}
	return "[ " + strings.Join(parts, ", ") + " ]"
}

// isEmptyList reports whether v is a slice or array with no elements.
func isEmptyList(v any) bool {
	elems, ok := listElems(v)
	return ok && len(elems) == 0
}

// idList renders ids as an unquoted list.
func idList(ids []string) string {
	return "[" + strings.Join(ids, ", ") + "]"
}

// ---------------------------------------------------------------------------
// Selection sets
// ---------------------------------------------------------------------------

// fieldsSelection selects card fields, adding date_value and datetime_value
// only when asked for.
func fieldsSelection(opts CardInfoOptions) string {
	sel := "fields { indexName name value report_value"
	if opts.DateValue {
		sel += " date_value"
	}
	if opts.DatetimeValue {
		sel += " datetime_value"
	}
	return sel + " }"
}

// relationSelection selects one kind of relation. Cards are id and title
// only unless full is set. At depth 0 with SecondLevel, relation cards nest
// both relation kinds once more using the same per-kind rule.
func relationSelection(kind string, full bool, opts CardInfoOptions, depth int) string {
	cards := "id title"
	if full {
		cards += " " + fieldsSelection(opts) + " current_phase { name id }"
	}
	if depth == 0 && opts.SecondLevel && (opts.Children || opts.Parents) {
		cards += " " + relationSelection("child_relations", opts.Children, opts, depth+1) +
			" " + relationSelection("parent_relations", opts.Parents, opts, depth+1)
	}
	return kind + " { name id cards { " + cards + " } }"
}

func cardInfoQuery(cardID string, opts CardInfoOptions) string {
	return fmt.Sprintf(
		`{ card(id: %s) { id pipe { id name suid } title assignees { id name } createdAt createdBy { id name email createdAt } %s %s comments_count current_phase { name id } done due_date %s labels { id name } phases_history { phase { name id } firstTimeIn lastTimeOut } url } }`,
		quote(cardID),
		relationSelection("child_relations", opts.Children, opts, 0),
		relationSelection("parent_relations", opts.Parents, opts, 0),
		fieldsSelection(opts),
	)
}

// fieldAttributeList renders card creation attributes. Nil values are
// skipped; empty slices render as [].
func fieldAttributeList(fields []FieldAttribute) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Value == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("{ field_id: %s, field_value: %s }", quote(f.FieldID), renderValue(f.Value)))
	}
	return "[ " + strings.Join(parts, ", ") + " ]"
}

// fieldValueList renders bulk update values. Nil values and empty slices
// are skipped.
func fieldValueList(fields []FieldAttribute) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Value == nil || isEmptyList(f.Value) {
			continue
		}
		parts = append(parts, fmt.Sprintf("{fieldId: %s, value: %s}", quote(f.FieldID), renderValue(f.Value)))
	}
	return "[ " + strings.Join(parts, ", ") + " ]"
}

// recordFieldList renders table record attributes with sanitized values.
func recordFieldList(fields []RecordField) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("{field_id: %s, field_value: %s}", quote(f.ID), quote(recordValue(f.Value)))
	}
	return "[ " + strings.Join(parts, ", ") + " ]"
}
