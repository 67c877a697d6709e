// Package pipefy implements a client for the Pipefy GraphQL API: cards,
// pipes, phases, database tables, inbox e-mail and attachment uploads.
package pipefy

import (
	"context"
	"sort"
)

// User is a Pipefy member as it appears on assignees and card authors.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Pipe identifies the pipe a card belongs to.
type Pipe struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	SUID string `json:"suid,omitempty"`
}

// Phase is a stage of a pipe.
type Phase struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Label is a card label.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PhaseHistory records when a card entered and left a phase.
type PhaseHistory struct {
	Phase       Phase  `json:"phase"`
	FirstTimeIn string `json:"firstTimeIn"`
	LastTimeOut string `json:"lastTimeOut"`
}

// Field is a card or table record field as returned by the API. JSON null
// values decode to the empty string.
type Field struct {
	IndexName     string `json:"indexName"`
	Name          string `json:"name"`
	Value         string `json:"value"`
	ReportValue   string `json:"report_value"`
	DateValue     string `json:"date_value,omitempty"`
	DatetimeValue string `json:"datetime_value,omitempty"`
}

// CardRelation is a parent or child connection of a card. Cards in a
// relation may be partial depending on what was selected.
type CardRelation struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cards []Card `json:"cards"`
}

// Card is a Pipefy card. Which members are populated depends on the query
// that produced it.
type Card struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	URL             string         `json:"url,omitempty"`
	Done            bool           `json:"done,omitempty"`
	DueDate         string         `json:"due_date,omitempty"`
	CreatedAt       string         `json:"createdAt,omitempty"`
	CommentsCount   int            `json:"comments_count,omitempty"`
	Pipe            *Pipe          `json:"pipe,omitempty"`
	CurrentPhase    *Phase         `json:"current_phase,omitempty"`
	CreatedBy       *User          `json:"createdBy,omitempty"`
	Assignees       []User         `json:"assignees,omitempty"`
	Labels          []Label        `json:"labels,omitempty"`
	PhasesHistory   []PhaseHistory `json:"phases_history,omitempty"`
	Fields          []Field        `json:"fields,omitempty"`
	ChildRelations  []CardRelation `json:"child_relations,omitempty"`
	ParentRelations []CardRelation `json:"parent_relations,omitempty"`
}

// TableRecord is a row of a Pipefy database table.
type TableRecord struct {
	ID     string  `json:"id"`
	Title  string  `json:"title,omitempty"`
	Fields []Field `json:"fields,omitempty"`
}

// FieldAttribute is a field id and value pair written to a card. Value may
// be a scalar or a slice; scalars are sent as their textual form.
type FieldAttribute struct {
	FieldID string
	Value   any
}

// FieldAttributes converts a field-id keyed map to a slice ordered by field
// id, so the generated mutation text does not depend on map iteration.
func FieldAttributes(values map[string]any) []FieldAttribute {
	attrs := make([]FieldAttribute, 0, len(values))
	for id, v := range values {
		attrs = append(attrs, FieldAttribute{FieldID: id, Value: v})
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].FieldID < attrs[j].FieldID })
	return attrs
}

// RecordField is a field id and value pair written to a table record.
type RecordField struct {
	ID    string
	Value any
}

// CardInfoOptions controls the selection set of GetCardInfo.
type CardInfoOptions struct {
	// Children selects fields and current phase of child relation cards.
	Children bool
	// Parents selects fields and current phase of parent relation cards.
	Parents bool
	// SecondLevel nests one more level of relations inside relation cards.
	// Ignored unless Children or Parents is set.
	SecondLevel   bool
	DateValue     bool
	DatetimeValue bool
}

// FieldOperation is the optional operation of a single field update.
type FieldOperation string

const (
	OpNone    FieldOperation = ""
	OpAdd     FieldOperation = "ADD"
	OpRemove  FieldOperation = "REMOVE"
	OpReplace FieldOperation = "REPLACE"
)

// RelationSourceType tells Pipefy what sourceID refers to when relating two
// cards.
type RelationSourceType string

const (
	SourcePipeRelation RelationSourceType = "PipeRelation"
	SourceField        RelationSourceType = "Field"
)

// InboxEmail is a draft e-mail attached to a card.
type InboxEmail struct {
	CardID   string
	PipeID   string
	From     string
	FromName string
	To       string
	Subject  string
	HTML     string
}

// CardManager covers card, pipe and phase operations.
type CardManager interface {
	GetCardInfo(ctx context.Context, cardID string, opts CardInfoOptions) (*Card, error)
	GetPipeInfo(ctx context.Context, pipeID string) (*Pipe, error)
	MoveCardToPhase(ctx context.Context, cardID, phaseID string) error
	AllCardsIDs(ctx context.Context, pipeID string, parents, children bool) ([]Card, error)
	FindCard(ctx context.Context, title, pipeID string) (string, bool, error)
	FindCardFromTitle(ctx context.Context, title, pipeID string) (string, bool, error)
	FindCardIDFromField(ctx context.Context, fieldID, value, pipeID string) (string, bool, error)
	FindCardFromField(ctx context.Context, fieldID, value, pipeID string) (*Card, error)
	FindCardsFromField(ctx context.Context, fieldID, value, pipeID string) ([]Card, error)
	MakeComment(ctx context.Context, cardID, text string) error
	UpdateFieldValue(ctx context.Context, cardID, fieldID string, value any, op FieldOperation) error
	UpdateFieldValues(ctx context.Context, cardID string, values []FieldAttribute) error
	ClearConnectorField(ctx context.Context, cardID, fieldID string) (bool, error)
	SetAssignees(ctx context.Context, cardID string, assigneeIDs []string) error
	SetLabels(ctx context.Context, cardID string, labelIDs []string) error
	SetDueDate(ctx context.Context, cardID, dueDate string) error
	CreateCard(ctx context.Context, pipeID string, fields []FieldAttribute) (string, error)
	DeleteCard(ctx context.Context, cardID string) error
	CreateCardRelation(ctx context.Context, childID, parentID, sourceID string, sourceType RelationSourceType) (string, error)
	ClearPipe(ctx context.Context, pipeID string) (*BulkResult, error)
}

// TableManager covers database table operations.
type TableManager interface {
	FindRecordInTable(ctx context.Context, tableID, fieldID, value string) (string, bool, error)
	FindRecordInTableFull(ctx context.Context, tableID, fieldID, value string) (*TableRecord, error)
	CreateTableRecord(ctx context.Context, tableID string, fields []RecordField) (string, error)
	DeleteTableRecord(ctx context.Context, recordID string) error
	ListTableRecords(ctx context.Context, tableID string) ([]TableRecord, error)
	ClearTable(ctx context.Context, tableID string) (*BulkResult, error)
	LogError(ctx context.Context, message string, code int, function string) (string, error)
}

// MailManager covers inbox e-mail operations.
type MailManager interface {
	CreateInboxEmail(ctx context.Context, email InboxEmail) (string, error)
	SendInboxEmail(ctx context.Context, emailID string) error
}

// FileManager covers the attachment upload flow.
type FileManager interface {
	PresignedURL(ctx context.Context, fileName string) (string, error)
	UploadFileFromURL(ctx context.Context, sourceURL string) (string, error)
	UploadFileFromBuffer(ctx context.Context, fileName string, data []byte) (string, error)
	UploadFileFromObject(ctx context.Context, bucket, key string) (string, error)
}

// Manager is the full client surface used by the MCP tools and the CLI.
type Manager interface {
	CardManager
	TableManager
	MailManager
	FileManager
}
