package apiclient

import "github.com/bistrokit/bistro/pkg/models"

// TableRequest describes a table to add.
type TableRequest struct {
	TableID  int `json:"table_id"`
	Capacity int `json:"capacity"`
}

// ListTables returns every table with its live status.
func (c *Client) ListTables() ([]*models.Table, error) {
	return listResources[*models.Table](c, "/api/v1/tables")
}

// AddTable registers a new table.
func (c *Client) AddTable(tableID, capacity int) (*models.Table, error) {
	req := TableRequest{TableID: tableID, Capacity: capacity}
	var table models.Table
	if err := c.post("/api/v1/tables", req, &table); err != nil {
		return nil, err
	}
	return &table, nil
}

// ResizeTable changes a table's capacity. The server re-checks future
// reservations against the new capacity.
func (c *Client) ResizeTable(tableID, capacity int) error {
	req := struct {
		Capacity int `json:"capacity"`
	}{Capacity: capacity}
	return c.put(resourcePath("/api/v1/tables/%d", tableID), req, nil)
}

// RemoveTable deletes a free table.
func (c *Client) RemoveTable(tableID int) error {
	return c.delete(resourcePath("/api/v1/tables/%d", tableID), nil)
}
