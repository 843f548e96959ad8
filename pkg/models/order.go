package models

import (
	"math"
	"time"
)

// OrderStatus represents the lifecycle state of an order.
//
// Transitions are driven by the seating controller and the scheduler:
//
//	PENDING  -> SEATED | NO_SHOW | CANCELLED | NOTIFIED (reminder)
//	WAITING  -> NOTIFIED (table ready) | CANCELLED
//	NOTIFIED -> SEATED | NO_SHOW | CANCELLED
//	SEATED   -> BILLED | COMPLETED
//	BILLED   -> COMPLETED
//
// COMPLETED, CANCELLED and NO_SHOW are terminal.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusWaiting   OrderStatus = "WAITING"
	StatusNotified  OrderStatus = "NOTIFIED"
	StatusSeated    OrderStatus = "SEATED"
	StatusBilled    OrderStatus = "BILLED"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusNoShow    OrderStatus = "NO_SHOW"
)

// ActiveStatuses are the states in which an order still competes for tables
// and its confirmation code must stay unique.
var ActiveStatuses = []OrderStatus{
	StatusPending, StatusWaiting, StatusNotified, StatusSeated, StatusBilled,
}

// IsActive reports whether the order still participates in seating.
func (s OrderStatus) IsActive() bool {
	switch s {
	case StatusPending, StatusWaiting, StatusNotified, StatusSeated, StatusBilled:
		return true
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// HoldsTable reports whether an order in this status holds its assigned
// table. Exactly one SEATED or BILLED order backs each OCCUPIED table.
func (s OrderStatus) HoldsTable() bool {
	return s == StatusSeated || s == StatusBilled
}

// IsValid checks if the status is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	return s.IsActive() || s.IsTerminal()
}

// PricePerGuest is the flat per-guest charge used for invoices.
const PricePerGuest = 100.0

// Order represents a reservation, a waitlist entry, or an in-progress visit.
//
// The table is literally named "order" in the deployment schema; GORM quotes
// the identifier so the reserved word is not a problem.
type Order struct {
	ID              uint        `gorm:"column:order_number;primaryKey" json:"order_number"`
	ScheduledAt     time.Time   `gorm:"column:order_date;not null" json:"order_date"`
	Guests          int         `gorm:"column:number_of_guests;not null" json:"number_of_guests"`
	Code            int         `gorm:"column:confirmation_code;not null;index" json:"confirmation_code"`
	MemberID        uint        `gorm:"column:subscriber_id;default:0" json:"subscriber_id"` // 0 for guest orders
	PlacedAt        time.Time   `gorm:"column:date_of_placing_order" json:"date_of_placing_order"`
	Status          OrderStatus `gorm:"column:status;size:20;not null;index" json:"status"`
	TotalPrice      *float64    `gorm:"column:total_price" json:"total_price,omitempty"`
	Phone           string      `gorm:"column:phone;size:50" json:"phone"`
	Email           string      `gorm:"column:email;size:255" json:"email"`
	CustomerName    string      `gorm:"column:customer_name;size:255" json:"customer_name"`
	EnteredWaitlist bool        `gorm:"column:entered_waitlist;default:false" json:"entered_waitlist"`
	ArrivalAt       *time.Time  `gorm:"column:actual_arrival_time" json:"actual_arrival_time,omitempty"`
	LeaveAt         *time.Time  `gorm:"column:actual_leave_time" json:"actual_leave_time,omitempty"`
	TableID         *int        `gorm:"column:assigned_table_id" json:"assigned_table_id,omitempty"`
}

// TableName returns the table name for Order.
func (Order) TableName() string {
	return "order"
}

// IsGuest reports whether the order belongs to a walk-in/guest customer.
func (o *Order) IsGuest() bool {
	return o.MemberID == 0
}

// BasePrice returns the stored total price, or guests x PricePerGuest when
// no invoice has been issued yet.
func (o *Order) BasePrice() float64 {
	if o.TotalPrice != nil {
		return *o.TotalPrice
	}
	return float64(o.Guests) * PricePerGuest
}

// ContactMatches reports whether the given phone or email exactly matches the
// order's stored contact. Used to authorize guest-owned operations.
func (o *Order) ContactMatches(phone, email string) bool {
	if phone != "" && phone == o.Phone {
		return true
	}
	if email != "" && email == o.Email {
		return true
	}
	return false
}

// RoundCents rounds a price half-up to two decimal places.
func RoundCents(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
