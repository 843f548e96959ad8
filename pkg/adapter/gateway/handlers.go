package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bistrokit/bistro/internal/protocol/wire"
	"github.com/bistrokit/bistro/pkg/models"
	"github.com/bistrokit/bistro/pkg/seating"
	"github.com/bistrokit/bistro/pkg/session"
)

// okReply encodes the plain "OK" acknowledgment several mutations return.
func okReply(tag string, cid uint32) ([]byte, error) {
	return wire.EncodeOK(tag, cid, func(buf *bytes.Buffer) error {
		return wire.WriteString(buf, "OK")
	})
}

func (g *Gateway) handleLogin(ctx context.Context, c *Connection, env *wire.Envelope) ([]byte, error) {
	var req wire.LoginRequest
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}

	user, err := g.sessions.Login(ctx, c.id, req.Username, req.Password)
	if err != nil {
		// Failed logins answer null so clients cannot probe which part of
		// the credential was wrong.
		if errors.Is(err, models.ErrInvalidCredentials) || errors.Is(err, models.ErrAlreadyOnline) {
			return wire.EncodeNull(env.Tag, env.CorrelationID)
		}
		return nil, err
	}

	g.audit(user.Username, "login", 0, 0, "")
	return wire.EncodeOK(env.Tag, env.CorrelationID, func(buf *bytes.Buffer) error {
		return wire.WriteUser(buf, user)
	})
}

func (g *Gateway) handleLogout(ctx context.Context, c *Connection, env *wire.Envelope) ([]byte, error) {
	user := g.sessions.Current(c.id)
	if err := g.sessions.Logout(ctx, c.id); err != nil {
		return nil, err
	}
	g.audit(actorName(user), "logout", 0, 0, "")
	return wire.EncodeOK(env.Tag, env.CorrelationID, nil)
}

func (g *Gateway) handleRegisterClient(ctx context.Context, _ *Connection, env *wire.Envelope) ([]byte, error) {
	var req wire.RegisterRequest
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}
	if req.Username == "" || req.Password == "" {
		return nil, validationError("username and password are required")
	}

	user := &models.User{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      models.RoleMember,
		Phone:     req.Phone,
		Email:     req.Email,
	}
	registered, err := g.store.RegisterMember(ctx, user, req.Password)
	if err != nil {
		return nil, err
	}

	g.audit(registered.Username, "register_member", 0, 0,
		fmt.Sprintf("member_code=%d", *registered.MemberCode))
	return wire.EncodeOK(env.Tag, env.CorrelationID, func(buf *bytes.Buffer) error {
		return wire.WriteUser(buf, registered)
	})
}

func (g *Gateway) handleIdentifyByQR(ctx context.Context, _ *Connection, env *wire.Envelope) ([]byte, error) {
	var req wire.IdentifyRequest
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}
	code, err := strconv.Atoi(strings.TrimSpace(req.MemberCode))
	if err != nil {
		return nil, validationError("membership code must be numeric")
	}

	user, err := g.sessions.IdentifyByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return wire.EncodeOK(env.Tag, env.CorrelationID, func(buf *bytes.Buffer) error {
		return wire.WriteUser(buf, user)
	})
}

func (g *Gateway) handleGetUserHistory(ctx context.Context, c *Connection, env *wire.Envelope) ([]byte, error) {
	var req wire.UserIDRequest
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}
	if err := g.requireSelfOrStaff(c, uint(req.UserID)); err != nil {
		return nil, err
	}

	orders, err := g.store.GetMemberHistory(ctx, uint(req.UserID))
	if err != nil {
		return nil, err
	}
	return wire.EncodeOK(env.Tag, env.CorrelationID, func(buf *bytes.Buffer) error {
		return wire.WriteOrderList(buf, orders)
	})
}

func (g *Gateway) handleUpdateUserInfo(ctx context.Context, c *Connection, env *wire.Envelope) ([]byte, error) {
	var req wire.UpdateUserRequest
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}
	if err := g.requireSelfOrStaff(c, uint(req.UserID)); err != nil {
		return nil, err
	}

	err := g.store.UpdateUserContact(ctx, uint(req.UserID), req.FirstName, req.LastName, req.Phone, req.Email)
	if err != nil {
		return nil, err
	}
	g.audit(actorName(g.sessions.Current(c.id)), "update_user_info", 0, 0,
		fmt.Sprintf("user_id=%d", req.UserID))
	return okReply(env.Tag, env.CorrelationID)
}

func (g *Gateway) handleGetOrderByCode(ctx context.Context, _ *Connection, env *wire.Envelope) ([]byte, error) {
	var req wire.CodeRequest
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}

	order, err := g.store.GetOrderByActiveCode(ctx, int(req.Code))
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			return wire.EncodeNull(env.Tag, env.CorrelationID)
		}
		return nil, err
	}
	return wire.EncodeOK(env.Tag, env.CorrelationID, func(buf *bytes.Buffer) error {
		return wire.WriteOrder(buf, order)
	})
}

func (g *Gateway) handleCancelOrder(ctx context.Context, c *Connection, env *wire.Envelope) ([]byte, error) {
	var req wire.CodeRequest
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}

	order, err := g.store.GetOrderByActiveCode(ctx, int(req.Code))
	if err != nil {
		return nil, err
	}
	user := g.sessions.Current(c.id)
	if !session.CanAccessOrder(user, order, req.Phone, req.Email) {
		return nil, models.ErrUnauthorized
	}

	if err := g.seating.Cancel(ctx, order); err != nil {
		return nil, err
	}
	g.audit(actorName(user), "cancel_order", order.ID, 0, fmt.Sprintf("code=%04d", order.Code))
	return okReply(env.Tag, env.CorrelationID)
}

func (g *Gateway) handleGetAvailableTimes(ctx context.Context, _ *Connection, env *wire.Envelope) ([]byte, error) {
	var req wire.AvailableTimesRequest
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}
	if req.Guests == 0 {
		return nil, validationError("guest count must be positive")
	}

	slots, err := g.engine.AvailableSlots(ctx, wire.FromMillis(req.Date), int(req.Guests))
	if err != nil {
		return nil, err
	}
	return wire.EncodeOK(env.Tag, env.CorrelationID, func(buf *bytes.Buffer) error {
		return wire.WriteStringList(buf, slots)
	})
}

func (g *Gateway) handleCreateOrder(ctx context.Context, c *Connection, env *wire.Envelope) ([]byte, error) {
	var req wire.OrderDraft
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}
	if req.Guests == 0 {
		return nil, validationError("guest count must be positive")
	}
	memberID, err := g.resolveOrderOwner(c, uint(req.MemberID))
	if err != nil {
		return nil, err
	}
	if memberID == 0 && strings.TrimSpace(req.Phone) == "" && strings.TrimSpace(req.Email) == "" {
		return nil, models.ErrMissingContact
	}

	at := wire.FromMillis(req.ScheduledAt)
	decision, err := g.engine.CheckAvailability(ctx, at, int(req.Guests), 0)
	if err != nil {
		return nil, err
	}

	if !decision.Approved {
		// The reply swaps the tag so the client knows the payload shape.
		return wire.EncodeOK(wire.TagOrderAlternatives, env.CorrelationID, func(buf *bytes.Buffer) error {
			return wire.WriteTimeList(buf, decision.Alternatives)
		})
	}

	order := &models.Order{
		ScheduledAt:  at,
		Guests:       int(req.Guests),
		MemberID:     memberID,
		Status:       models.StatusPending,
		Phone:        strings.TrimSpace(req.Phone),
		Email:        strings.TrimSpace(req.Email),
		CustomerName: req.CustomerName,
	}
	if err := g.store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	g.audit(actorName(g.sessions.Current(c.id)), "create_order", order.ID, 0,
		fmt.Sprintf("code=%04d guests=%d at=%s", order.Code, order.Guests, at.Format(time.RFC3339)))
	return wire.EncodeOK(env.Tag, env.CorrelationID, func(buf *bytes.Buffer) error {
		return wire.WriteOrder(buf, order)
	})
}

func (g *Gateway) handleEnterWaitlist(ctx context.Context, c *Connection, env *wire.Envelope) ([]byte, error) {
	var req wire.OrderDraft
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}
	if req.Guests == 0 {
		return nil, validationError("guest count must be positive")
	}
	memberID, err := g.resolveOrderOwner(c, uint(req.MemberID))
	if err != nil {
		return nil, err
	}

	order, err := g.seating.WalkIn(ctx, seating.WalkInRequest{
		Guests:       int(req.Guests),
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Email:        req.Email,
		MemberID:     memberID,
	})
	if err != nil {
		return nil, err
	}

	tableID := 0
	if order.TableID != nil {
		tableID = *order.TableID
	}
	g.audit(actorName(g.sessions.Current(c.id)), "walk_in", order.ID, tableID,
		fmt.Sprintf("code=%04d status=%s", order.Code, order.Status))
	return wire.EncodeOK(env.Tag, env.CorrelationID, func(buf *bytes.Buffer) error {
		return wire.WriteOrder(buf, order)
	})
}

func (g *Gateway) handleLeaveWaitlist(ctx context.Context, c *Connection, env *wire.Envelope) ([]byte, error) {
	var req wire.CodeRequest
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}

	order, err := g.store.GetOrderByActiveCode(ctx, int(req.Code))
	if err != nil {
		return nil, err
	}
	user := g.sessions.Current(c.id)
	if !session.CanAccessOrder(user, order, req.Phone, req.Email) {
		return nil, models.ErrUnauthorized
	}

	if err := g.seating.LeaveWaitlist(ctx, int(req.Code)); err != nil {
		return nil, err
	}
	g.audit(actorName(user), "leave_waitlist", order.ID, 0, fmt.Sprintf("code=%04d", order.Code))
	return okReply(env.Tag, env.CorrelationID)
}

func (g *Gateway) handleValidateArrival(ctx context.Context, c *Connection, env *wire.Envelope) ([]byte, error) {
	var req wire.CodeRequest
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}

	order, err := g.seating.Arrive(ctx, int(req.Code))
	if err != nil {
		return nil, err
	}

	g.audit(actorName(g.sessions.Current(c.id)), "arrival", order.ID, *order.TableID,
		fmt.Sprintf("code=%04d", order.Code))
	return wire.EncodeOK(env.Tag, env.CorrelationID, func(buf *bytes.Buffer) error {
		return wire.WriteOrder(buf, order)
	})
}

func (g *Gateway) handlePayBill(ctx context.Context, c *Connection, env *wire.Envelope) ([]byte, error) {
	var req wire.CodeRequest
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}

	order, err := g.store.GetOrderByActiveCode(ctx, int(req.Code))
	if err != nil {
		return nil, err
	}
	payer := g.sessions.Current(c.id)
	if !session.CanAccessOrder(payer, order, req.Phone, req.Email) {
		return nil, models.ErrUnauthorized
	}

	receipt, err := g.seating.Pay(ctx, int(req.Code), payer)
	if err != nil {
		return nil, err
	}
	g.audit(actorName(payer), "pay_bill", order.ID, 0,
		fmt.Sprintf("code=%04d total=%.2f discounted=%t", order.Code, receipt.FinalPrice, receipt.Discounted))
	return okReply(env.Tag, env.CorrelationID)
}

func (g *Gateway) handleRestoreCode(ctx context.Context, c *Connection, env *wire.Envelope) ([]byte, error) {
	var req wire.RestoreCodeRequest
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}

	var orders []*models.Order
	var err error
	switch {
	case req.MemberCode != 0:
		user, uerr := g.store.GetUserByMemberCode(ctx, int(req.MemberCode))
		if uerr != nil {
			return nil, uerr
		}
		orders, err = g.store.GetRelevantOrdersForToday(ctx, user.ID)
	case strings.TrimSpace(req.Phone) != "" || strings.TrimSpace(req.Email) != "":
		orders, err = g.store.GetOrdersByContactActiveToday(ctx,
			strings.TrimSpace(req.Phone), strings.TrimSpace(req.Email))
	default:
		return nil, models.ErrMissingContact
	}
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, models.ErrOrderNotFound
	}

	codes := make([]string, 0, len(orders))
	for _, o := range orders {
		codes = append(codes, fmt.Sprintf("%04d", o.Code))
	}
	text := "Your active confirmation codes: " + strings.Join(codes, ", ")
	payload, err := wire.EncodePush(wire.TagServerNotification, func(buf *bytes.Buffer) error {
		return wire.WriteString(buf, text)
	})
	if err != nil {
		return nil, err
	}
	// Codes go only to the asking terminal, never broadcast.
	if err := c.Push(wire.TagServerNotification, payload); err != nil {
		return nil, err
	}
	return okReply(env.Tag, env.CorrelationID)
}

func (g *Gateway) handleUpdateOrderStatus(ctx context.Context, c *Connection, env *wire.Envelope) ([]byte, error) {
	var req wire.UpdateOrderStatusRequest
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}
	status := models.OrderStatus(req.Status)
	if !status.IsValid() {
		return nil, validationError("unknown order status " + req.Status)
	}

	order, err := g.store.GetOrderByID(ctx, uint(req.OrderID))
	if err != nil {
		return nil, err
	}

	freedTable := 0
	switch {
	case status.HoldsTable() && !order.Status.HoldsTable():
		// Tables are assigned on arrival, never by a raw status write.
		return nil, validationError("cannot move an order into " + req.Status + " without a seated table")
	case order.Status.HoldsTable() && !status.HoldsTable():
		freedTable, err = g.store.ReleaseOrder(ctx, order.ID, status)
		if err != nil {
			return nil, err
		}
		g.seating.PromoteFor(ctx, freedTable)
	default:
		if err := g.store.UpdateOrderStatus(ctx, order.ID, models.ActiveStatuses, status); err != nil {
			return nil, err
		}
	}

	g.audit(actorName(g.sessions.Current(c.id)), "update_order_status", order.ID, freedTable,
		string(status))
	return okReply(env.Tag, env.CorrelationID)
}

func (g *Gateway) handleGetOpeningHours(ctx context.Context, _ *Connection, env *wire.Envelope) ([]byte, error) {
	rules, err := g.store.ListOpeningHours(ctx)
	if err != nil {
		return nil, err
	}
	return wire.EncodeOK(env.Tag, env.CorrelationID, func(buf *bytes.Buffer) error {
		return wire.WriteHoursList(buf, rules)
	})
}

func (g *Gateway) handleUpdateOpeningHours(ctx context.Context, c *Connection, env *wire.Envelope) ([]byte, error) {
	var req wire.HoursUpdate
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}

	rule := &models.OpeningHours{
		DayOfWeek: int(req.DayOfWeek),
		OpenTime:  req.OpenTime,
		CloseTime: req.CloseTime,
		IsClosed:  req.IsClosed,
	}
	if req.SpecificDate != 0 {
		d := wire.FromMillis(req.SpecificDate)
		rule.SpecificDate = &d
	}
	if err := g.store.UpsertOpeningHours(ctx, rule); err != nil {
		return nil, validationError(err.Error())
	}

	cancelled, err := g.sweepHoursChange(ctx)
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("opening hours updated; %d orders cancelled", len(cancelled))
	g.audit(actorName(g.sessions.Current(c.id)), "update_opening_hours", 0, 0, summary)
	return wire.EncodeOK(env.Tag, env.CorrelationID, func(buf *bytes.Buffer) error {
		return wire.WriteString(buf, summary)
	})
}

func (g *Gateway) handleGetAllTables(ctx context.Context, _ *Connection, env *wire.Envelope) ([]byte, error) {
	return g.tableListReply(ctx, env)
}

func (g *Gateway) handleAddTable(ctx context.Context, c *Connection, env *wire.Envelope) ([]byte, error) {
	var req wire.TableRequest
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}

	table := &models.Table{
		ID:       int(req.TableID),
		Capacity: int(req.Capacity),
		Status:   models.TableAvailable,
	}
	if err := g.store.AddTable(ctx, table); err != nil {
		return nil, err
	}
	g.audit(actorName(g.sessions.Current(c.id)), "add_table", 0, table.ID,
		fmt.Sprintf("capacity=%d", table.Capacity))
	return g.tableListReply(ctx, env)
}

func (g *Gateway) handleRemoveTable(ctx context.Context, c *Connection, env *wire.Envelope) ([]byte, error) {
	var req wire.TableIDRequest
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}

	if err := g.store.DeleteTable(ctx, int(req.TableID)); err != nil {
		return nil, err
	}
	cancelled, err := g.sweepFeasibility(ctx)
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("table %d removed; %d orders cancelled", req.TableID, len(cancelled))
	g.audit(actorName(g.sessions.Current(c.id)), "remove_table", 0, int(req.TableID), summary)
	return wire.EncodeOK(env.Tag, env.CorrelationID, func(buf *bytes.Buffer) error {
		return wire.WriteString(buf, summary)
	})
}

func (g *Gateway) handleUpdateTable(ctx context.Context, c *Connection, env *wire.Envelope) ([]byte, error) {
	var req wire.TableRequest
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}

	if err := g.store.UpdateTableCapacity(ctx, int(req.TableID), int(req.Capacity)); err != nil {
		return nil, err
	}
	cancelled, err := g.sweepFeasibility(ctx)
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("table %d capacity set to %d; %d orders cancelled",
		req.TableID, req.Capacity, len(cancelled))
	g.audit(actorName(g.sessions.Current(c.id)), "update_table", 0, int(req.TableID), summary)
	return wire.EncodeOK(env.Tag, env.CorrelationID, func(buf *bytes.Buffer) error {
		return wire.WriteString(buf, summary)
	})
}

func (g *Gateway) handleGetActiveDiners(ctx context.Context, _ *Connection, env *wire.Envelope) ([]byte, error) {
	orders, err := g.store.GetActiveDiners(ctx)
	if err != nil {
		return nil, err
	}
	return orderListReply(env, orders)
}

func (g *Gateway) handleGetAllActiveOrders(ctx context.Context, _ *Connection, env *wire.Envelope) ([]byte, error) {
	orders, err := g.store.GetAllActiveToday(ctx)
	if err != nil {
		return nil, err
	}
	return orderListReply(env, orders)
}

func (g *Gateway) handleGetWaitingList(ctx context.Context, _ *Connection, env *wire.Envelope) ([]byte, error) {
	orders, err := g.store.GetWaitingList(ctx)
	if err != nil {
		return nil, err
	}
	return orderListReply(env, orders)
}

func (g *Gateway) handleGetRelevantOrders(ctx context.Context, c *Connection, env *wire.Envelope) ([]byte, error) {
	var req wire.UserIDRequest
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}
	if err := g.requireSelfOrStaff(c, uint(req.UserID)); err != nil {
		return nil, err
	}

	orders, err := g.store.GetRelevantOrdersForToday(ctx, uint(req.UserID))
	if err != nil {
		return nil, err
	}
	return orderListReply(env, orders)
}

func (g *Gateway) handleGetPerformanceReport(ctx context.Context, _ *Connection, env *wire.Envelope) ([]byte, error) {
	return g.reportReply(ctx, env, g.store.GetPerformanceReport)
}

func (g *Gateway) handleGetSubscriptionReport(ctx context.Context, _ *Connection, env *wire.Envelope) ([]byte, error) {
	return g.reportReply(ctx, env, g.store.GetSubscriptionReport)
}

func (g *Gateway) handleGetAllMembers(ctx context.Context, _ *Connection, env *wire.Envelope) ([]byte, error) {
	members, err := g.store.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	return wire.EncodeOK(env.Tag, env.CorrelationID, func(buf *bytes.Buffer) error {
		return wire.WriteUserList(buf, members)
	})
}

// requireSelfOrStaff admits staff and the addressed user.
func (g *Gateway) requireSelfOrStaff(c *Connection, userID uint) error {
	user := g.sessions.Current(c.id)
	if user == nil {
		return models.ErrUnauthorized
	}
	if user.ID == userID || user.Role.IsStaff() {
		return nil
	}
	return models.ErrUnauthorized
}

// resolveOrderOwner settles which member (if any) an order belongs to. A
// logged-in member always owns their own orders; staff may book on behalf of
// any member; anonymous terminals may pass a member id from QR
// identification.
func (g *Gateway) resolveOrderOwner(c *Connection, requested uint) (uint, error) {
	user := g.sessions.Current(c.id)
	if user == nil || user.Role.IsStaff() {
		return requested, nil
	}
	if requested != 0 && requested != user.ID {
		return 0, models.ErrUnauthorized
	}
	return user.ID, nil
}

func (g *Gateway) tableListReply(ctx context.Context, env *wire.Envelope) ([]byte, error) {
	tables, err := g.store.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	return wire.EncodeOK(env.Tag, env.CorrelationID, func(buf *bytes.Buffer) error {
		return wire.WriteTableList(buf, tables)
	})
}

func orderListReply(env *wire.Envelope, orders []*models.Order) ([]byte, error) {
	return wire.EncodeOK(env.Tag, env.CorrelationID, func(buf *bytes.Buffer) error {
		return wire.WriteOrderList(buf, orders)
	})
}

func (g *Gateway) reportReply(
	ctx context.Context,
	env *wire.Envelope,
	fetch func(context.Context, int, int) (map[string]float64, error),
) ([]byte, error) {
	var req wire.ReportRequest
	if err := wire.DecodeRequest(env.Body, &req); err != nil {
		return nil, validationError(err.Error())
	}
	if req.Month < 1 || req.Month > 12 {
		return nil, validationError("month must be 1-12")
	}

	report, err := fetch(ctx, int(req.Month), int(req.Year))
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(report))
	for key := range report {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return wire.EncodeOK(env.Tag, env.CorrelationID, func(buf *bytes.Buffer) error {
		return wire.WriteReport(buf, report, keys)
	})
}
