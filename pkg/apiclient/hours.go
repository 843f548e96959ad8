package apiclient

import "github.com/bistrokit/bistro/pkg/models"

// HoursRequest sets opening hours for a weekday or a specific date.
type HoursRequest struct {
	DayOfWeek    int    `json:"day_of_week"`
	SpecificDate string `json:"specific_date,omitempty"` // YYYY-MM-DD
	OpenTime     string `json:"open_time"`
	CloseTime    string `json:"close_time"`
	IsClosed     bool   `json:"is_closed"`
}

// GetHours returns all configured opening hours rows.
func (c *Client) GetHours() ([]*models.OpeningHours, error) {
	return listResources[*models.OpeningHours](c, "/api/v1/hours")
}

// UpdateHours upserts an opening hours row. The server cancels reservations
// that fall outside the new hours.
func (c *Client) UpdateHours(req HoursRequest) error {
	return c.put("/api/v1/hours", req, nil)
}
