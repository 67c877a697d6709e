package pipefy

import (
	"context"
	"fmt"
)

func (c *Client) findRecords(ctx context.Context, tableID, fieldID, value string, withFields bool) ([]TableRecord, error) {
	sel := "id"
	if withFields {
		sel += " fields { indexName name report_value value }"
	}
	var resp struct {
		FindRecords *edges[TableRecord] `json:"findRecords"`
	}
	query := fmt.Sprintf(`{ findRecords(tableId: %s, search: {fieldId: %s, fieldValue: %s}) { edges { node { %s } } } }`,
		quote(tableID), quote(fieldID), quote(value), sel)
	if err := c.do(ctx, "findRecords", query, &resp); err != nil {
		return nil, err
	}
	return resp.FindRecords.nodes(), nil
}

// FindRecordInTable returns the id of the first record whose field matches
// value.
func (c *Client) FindRecordInTable(ctx context.Context, tableID, fieldID, value string) (string, bool, error) {
	records, err := c.findRecords(ctx, tableID, fieldID, value, false)
	if err != nil || len(records) == 0 {
		return "", false, err
	}
	return records[0].ID, true, nil
}

// FindRecordInTableFull returns the first matching record with its fields,
// or nil.
func (c *Client) FindRecordInTableFull(ctx context.Context, tableID, fieldID, value string) (*TableRecord, error) {
	records, err := c.findRecords(ctx, tableID, fieldID, value, true)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return &records[0], nil
}

// CreateTableRecord adds a record to a table and returns its id. Values are
// sent as text with the characters " [ ] ! ( ) removed.
func (c *Client) CreateTableRecord(ctx context.Context, tableID string, fields []RecordField) (string, error) {
	var resp struct {
		CreateTableRecord *struct {
			TableRecord *TableRecord `json:"table_record"`
		} `json:"createTableRecord"`
	}
	query := fmt.Sprintf(`mutation { createTableRecord(input: {table_id: %s, fields_attributes: %s}) { table_record { id } } }`,
		quote(tableID), recordFieldList(fields))
	if err := c.do(ctx, "createTableRecord", query, &resp); err != nil {
		return "", err
	}
	if resp.CreateTableRecord == nil || resp.CreateTableRecord.TableRecord == nil || resp.CreateTableRecord.TableRecord.ID == "" {
		return "", fmt.Errorf("pipefy createTableRecord: %w: no record id", ErrMalformedResponse)
	}
	return resp.CreateTableRecord.TableRecord.ID, nil
}

// DeleteTableRecord deletes one table record.
func (c *Client) DeleteTableRecord(ctx context.Context, recordID string) error {
	var resp struct {
		Result *mutationResult `json:"deleteTableRecord"`
	}
	query := fmt.Sprintf(`mutation { deleteTableRecord(input: {id: %s}) { clientMutationId success } }`, quote(recordID))
	if err := c.do(ctx, "deleteTableRecord", query, &resp); err != nil {
		return err
	}
	return resp.Result.check("deleteTableRecord")
}

// ListTableRecords returns the ids of the first page of records of a table.
func (c *Client) ListTableRecords(ctx context.Context, tableID string) ([]TableRecord, error) {
	var resp struct {
		TableRecords *edges[TableRecord] `json:"table_records"`
	}
	query := fmt.Sprintf(`{ table_records(table_id: %s) { edges { node { id } } } }`, quote(tableID))
	if err := c.do(ctx, "table_records", query, &resp); err != nil {
		return nil, err
	}
	return resp.TableRecords.nodes(), nil
}
