package apiclient

import (
	"github.com/bistrokit/bistro/pkg/journal"
	"github.com/bistrokit/bistro/pkg/models"
)

// PerformanceReport returns arrival, stay and cancellation averages for a
// month. Manager only.
func (c *Client) PerformanceReport(month, year int) (map[string]float64, error) {
	var report map[string]float64
	err := c.get(resourcePath("/api/v1/reports/performance?month=%d&year=%d", month, year), &report)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// SubscriptionReport returns per-day member order counts for a month.
// Manager only.
func (c *Client) SubscriptionReport(month, year int) (map[string]float64, error) {
	var report map[string]float64
	err := c.get(resourcePath("/api/v1/reports/subscriptions?month=%d&year=%d", month, year), &report)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ListMembers returns all registered member accounts. Manager only.
func (c *Client) ListMembers() ([]*models.User, error) {
	return listResources[*models.User](c, "/api/v1/members")
}

// AuditLog returns the most recent audit entries, newest first. Manager only.
func (c *Client) AuditLog(limit int) ([]journal.Entry, error) {
	path := "/api/v1/audit"
	if limit > 0 {
		path = resourcePath("/api/v1/audit?limit=%d", limit)
	}
	return listResources[journal.Entry](c, path)
}
