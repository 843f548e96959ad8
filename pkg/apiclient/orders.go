package apiclient

import "github.com/bistrokit/bistro/pkg/models"

// ActiveOrders returns every order still in play today.
func (c *Client) ActiveOrders() ([]*models.Order, error) {
	return listResources[*models.Order](c, "/api/v1/orders")
}

// GetOrder returns one order by number.
func (c *Client) GetOrder(orderID uint) (*models.Order, error) {
	return getResource[models.Order](c, resourcePath("/api/v1/orders/%d", orderID))
}

// UpdateOrderStatus forces an order into the given status. The order must
// currently be in an active status.
func (c *Client) UpdateOrderStatus(orderID uint, status models.OrderStatus) error {
	req := struct {
		Status string `json:"status"`
	}{Status: string(status)}
	return c.put(resourcePath("/api/v1/orders/%d/status", orderID), req, nil)
}

// CancelOrder cancels an order on a customer's behalf. Freed tables go to
// the waitlist.
func (c *Client) CancelOrder(orderID uint) error {
	return c.delete(resourcePath("/api/v1/orders/%d", orderID), nil)
}

// Waitlist returns the current waitlist in queue order.
func (c *Client) Waitlist() ([]*models.Order, error) {
	return listResources[*models.Order](c, "/api/v1/waitlist")
}

// ActiveDiners returns the orders currently seated at tables.
func (c *Client) ActiveDiners() ([]*models.Order, error) {
	return listResources[*models.Order](c, "/api/v1/diners")
}
