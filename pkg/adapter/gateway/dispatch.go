package gateway

import (
	"context"
	"time"

	"github.com/bistrokit/bistro/internal/logger"
	"github.com/bistrokit/bistro/internal/protocol/wire"
	"github.com/bistrokit/bistro/internal/telemetry"
)

// handlerFunc produces a fully encoded reply frame for one request.
type handlerFunc func(ctx context.Context, c *Connection, env *wire.Envelope) ([]byte, error)

type authLevel int

const (
	authNone authLevel = iota
	authStaff
	authManager
)

type handlerEntry struct {
	fn   handlerFunc
	auth authLevel
}

func (g *Gateway) buildDispatch() map[string]handlerEntry {
	return map[string]handlerEntry{
		wire.TagLogin:              {fn: g.handleLogin},
		wire.TagLogout:             {fn: g.handleLogout},
		wire.TagRegisterClient:     {fn: g.handleRegisterClient},
		wire.TagIdentifyByQR:       {fn: g.handleIdentifyByQR},
		wire.TagGetUserHistory:     {fn: g.handleGetUserHistory},
		wire.TagUpdateUserInfo:     {fn: g.handleUpdateUserInfo},
		wire.TagGetOrderByCode:     {fn: g.handleGetOrderByCode},
		wire.TagCancelOrder:        {fn: g.handleCancelOrder},
		wire.TagGetAvailableTimes:  {fn: g.handleGetAvailableTimes},
		wire.TagCreateOrder:        {fn: g.handleCreateOrder},
		wire.TagEnterWaitlist:      {fn: g.handleEnterWaitlist},
		wire.TagLeaveWaitlist:      {fn: g.handleLeaveWaitlist},
		wire.TagValidateArrival:    {fn: g.handleValidateArrival},
		wire.TagPayBill:            {fn: g.handlePayBill},
		wire.TagRestoreCode:        {fn: g.handleRestoreCode},
		wire.TagUpdateOrderStatus:  {fn: g.handleUpdateOrderStatus, auth: authStaff},
		wire.TagGetOpeningHours:    {fn: g.handleGetOpeningHours},
		wire.TagUpdateOpeningHours: {fn: g.handleUpdateOpeningHours, auth: authStaff},
		wire.TagGetAllTables:       {fn: g.handleGetAllTables, auth: authStaff},
		wire.TagAddTable:           {fn: g.handleAddTable, auth: authStaff},
		wire.TagRemoveTable:        {fn: g.handleRemoveTable, auth: authStaff},
		wire.TagUpdateTable:        {fn: g.handleUpdateTable, auth: authStaff},
		wire.TagGetActiveDiners:    {fn: g.handleGetActiveDiners, auth: authStaff},
		wire.TagGetAllActiveOrders: {fn: g.handleGetAllActiveOrders, auth: authStaff},
		wire.TagGetWaitingList:     {fn: g.handleGetWaitingList, auth: authStaff},
		wire.TagGetRelevantOrders:  {fn: g.handleGetRelevantOrders},
		wire.TagGetPerformance:     {fn: g.handleGetPerformanceReport, auth: authManager},
		wire.TagGetSubscription:    {fn: g.handleGetSubscriptionReport, auth: authManager},
		wire.TagGetAllMembers:      {fn: g.handleGetAllMembers, auth: authManager},
	}
}

// dispatchRequest routes one envelope to its handler. A panicking handler
// yields a system-error reply; the server keeps running.
func (g *Gateway) dispatchRequest(ctx context.Context, c *Connection, env *wire.Envelope) (reply []byte, quit bool) {
	start := time.Now()
	succeeded := true

	ctx, span := telemetry.StartRequestSpan(ctx, env.Tag)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panic",
				logger.Action(env.Tag), logger.ConnectionID(c.id), "panic", r)
			reply = mustEncodeError(env.Tag, env.CorrelationID, codeSystemError, "internal error")
			succeeded = false
		}
		if g.metrics != nil {
			g.metrics.RecordRequest(env.Tag, succeeded, time.Since(start))
		}
	}()

	if env.Tag == wire.TagClientQuit {
		logger.Debug("client quit", logger.ConnectionID(c.id))
		return nil, true
	}

	entry, known := g.dispatch[env.Tag]
	if !known {
		logger.Warn("unknown action tag", logger.Action(env.Tag), logger.ConnectionID(c.id))
		succeeded = false
		return mustEncodeError(env.Tag, env.CorrelationID, codeUnknownAction, "unknown action tag"), false
	}

	switch entry.auth {
	case authStaff:
		if _, err := g.sessions.RequireStaff(c.id); err != nil {
			succeeded = false
			return g.errorReply(env.Tag, env.CorrelationID, err), false
		}
	case authManager:
		if _, err := g.sessions.RequireManager(c.id); err != nil {
			succeeded = false
			return g.errorReply(env.Tag, env.CorrelationID, err), false
		}
	}

	out, err := entry.fn(ctx, c, env)
	if err != nil {
		logger.Debug("request failed",
			logger.Action(env.Tag), logger.ConnectionID(c.id), logger.Err(err))
		telemetry.RecordError(ctx, err)
		succeeded = false
		return g.errorReply(env.Tag, env.CorrelationID, err), false
	}

	logger.Debug("request served",
		logger.Action(env.Tag), logger.ConnectionID(c.id),
		logger.DurationMs(float64(time.Since(start).Milliseconds())))
	return out, false
}
