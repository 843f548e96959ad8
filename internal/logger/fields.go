package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so that logs can be
// aggregated and queried by order, table, user, or connection.
const (
	// Distributed tracing
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// Protocol & dispatch
	KeyAction        = "action"         // Envelope action tag: LOGIN, CREATE_ORDER, ...
	KeyCorrelationID = "correlation_id" // Request correlation id echoed in the reply

	// Domain entities
	KeyOrderID     = "order_id"
	KeyOrderStatus = "order_status"
	KeyCode        = "confirmation_code"
	KeyTableID     = "table_id"
	KeyCapacity    = "capacity"
	KeyGuests      = "guests"
	KeyScheduledAt = "scheduled_at"
	KeyMemberCode  = "member_code"
	KeyUserID      = "user_id"
	KeyUsername    = "username"
	KeyRole        = "role"

	// Client identification
	KeyClientAddr   = "client_addr"
	KeyConnectionID = "connection_id"

	// Operation metadata
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyCount      = "count"
	KeyTick       = "tick" // scheduler tick sequence number
)

// Field constructors for type safety.

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Action returns a slog.Attr for an envelope action tag
func Action(tag string) slog.Attr {
	return slog.String(KeyAction, tag)
}

// OrderID returns a slog.Attr for an order identifier
func OrderID(id uint) slog.Attr {
	return slog.Uint64(KeyOrderID, uint64(id))
}

// OrderStatus returns a slog.Attr for an order status
func OrderStatus(status string) slog.Attr {
	return slog.String(KeyOrderStatus, status)
}

// Code returns a slog.Attr for a confirmation code
func Code(code int) slog.Attr {
	return slog.Int(KeyCode, code)
}

// TableID returns a slog.Attr for a table identifier
func TableID(id int) slog.Attr {
	return slog.Int(KeyTableID, id)
}

// Guests returns a slog.Attr for a party size
func Guests(n int) slog.Attr {
	return slog.Int(KeyGuests, n)
}

// ScheduledAt returns a slog.Attr for a reservation time
func ScheduledAt(t time.Time) slog.Attr {
	return slog.Time(KeyScheduledAt, t)
}

// MemberCode returns a slog.Attr for a membership code
func MemberCode(code int) slog.Attr {
	return slog.Int(KeyMemberCode, code)
}

// UserID returns a slog.Attr for a user identifier
func UserID(id uint) slog.Attr {
	return slog.Uint64(KeyUserID, uint64(id))
}

// Username returns a slog.Attr for a username
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// Role returns a slog.Attr for a user role
func Role(role string) slog.Attr {
	return slog.String(KeyRole, role)
}

// ClientAddr returns a slog.Attr for a client network address
func ClientAddr(addr string) slog.Attr {
	return slog.String(KeyClientAddr, addr)
}

// ConnectionID returns a slog.Attr for a connection identifier
func ConnectionID(id string) slog.Attr {
	return slog.String(KeyConnectionID, id)
}

// DurationMs returns a slog.Attr for an operation duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Tick returns a slog.Attr for a scheduler tick sequence number
func Tick(n uint64) slog.Attr {
	return slog.Uint64(KeyTick, n)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
