package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bistrokit/bistro/internal/logger"
	"github.com/bistrokit/bistro/pkg/journal"
	"github.com/bistrokit/bistro/pkg/models"
)

// --- tables ---

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.store.ListTables(r.Context())
	if err != nil {
		InternalServerError(w, "failed to list tables")
		return
	}
	WriteJSONOK(w, tables)
}

type tableRequest struct {
	TableID  int `json:"table_id" validate:"required,gt=0"`
	Capacity int `json:"capacity" validate:"required,gt=0"`
}

func (s *Server) handleAddTable(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		BadRequest(w, "table_id and capacity must be positive")
		return
	}

	table := &models.Table{ID: req.TableID, Capacity: req.Capacity, Status: models.TableAvailable}
	if err := s.store.AddTable(r.Context(), table); err != nil {
		if errors.Is(err, models.ErrDuplicateTable) {
			Conflict(w, "table id already in use")
			return
		}
		InternalServerError(w, "failed to add table")
		return
	}

	s.audit(r, "table_added", 0, req.TableID, "")
	WriteJSONCreated(w, table)
}

func (s *Server) handleUpdateTable(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		BadRequest(w, "invalid table id")
		return
	}

	var req struct {
		Capacity int `json:"capacity" validate:"required,gt=0"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}
	if req.Capacity <= 0 {
		BadRequest(w, "capacity must be positive")
		return
	}

	if err := s.store.UpdateTableCapacity(r.Context(), id, req.Capacity); err != nil {
		s.writeTableError(w, err)
		return
	}

	// Shrinking a table can strand future reservations.
	if _, err := s.sweeper.SweepFeasibility(r.Context()); err != nil {
		logger.Warn("feasibility sweep failed after table resize", logger.Err(err))
	}

	s.audit(r, "table_resized", 0, id, strconv.Itoa(req.Capacity))
	WriteNoContent(w)
}

func (s *Server) handleRemoveTable(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		BadRequest(w, "invalid table id")
		return
	}

	if err := s.store.DeleteTable(r.Context(), id); err != nil {
		s.writeTableError(w, err)
		return
	}

	if _, err := s.sweeper.SweepFeasibility(r.Context()); err != nil {
		logger.Warn("feasibility sweep failed after table removal", logger.Err(err))
	}

	s.audit(r, "table_removed", 0, id, "")
	WriteNoContent(w)
}

func (s *Server) writeTableError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrTableNotFound):
		NotFoundProblem(w, "table not found")
	case errors.Is(err, models.ErrTableOccupied):
		Conflict(w, "table is occupied")
	default:
		InternalServerError(w, "table operation failed")
	}
}

// --- floor views ---

func (s *Server) handleWaitlist(w http.ResponseWriter, r *http.Request) {
	orders, err := s.store.GetWaitingList(r.Context())
	if err != nil {
		InternalServerError(w, "failed to load waitlist")
		return
	}
	WriteJSONOK(w, orders)
}

func (s *Server) handleActiveDiners(w http.ResponseWriter, r *http.Request) {
	orders, err := s.store.GetActiveDiners(r.Context())
	if err != nil {
		InternalServerError(w, "failed to load active diners")
		return
	}
	WriteJSONOK(w, orders)
}

func (s *Server) handleActiveOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.store.GetAllActiveToday(r.Context())
	if err != nil {
		InternalServerError(w, "failed to load orders")
		return
	}
	WriteJSONOK(w, orders)
}

// --- orders ---

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		BadRequest(w, "invalid order id")
		return
	}

	order, err := s.store.GetOrderByID(r.Context(), uint(id))
	if err != nil {
		NotFoundProblem(w, "order not found")
		return
	}
	WriteJSONOK(w, order)
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		BadRequest(w, "invalid order id")
		return
	}

	var req struct {
		Status string `json:"status" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}

	status := models.OrderStatus(req.Status)
	if !status.IsValid() {
		BadRequest(w, "unknown order status")
		return
	}

	order, err := s.store.GetOrderByID(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			NotFoundProblem(w, "order not found")
		} else {
			InternalServerError(w, "failed to load order")
		}
		return
	}

	// A table-holding order must release its table on the way out, and a
	// status write can never fabricate a seated order.
	released := 0
	switch {
	case status.HoldsTable() && !order.Status.HoldsTable():
		BadRequest(w, "tables are assigned on arrival, not by a status update")
		return
	case order.Status.HoldsTable() && !status.HoldsTable():
		released, err = s.store.ReleaseOrder(r.Context(), order.ID, status)
		if err == nil {
			s.seating.PromoteFor(r.Context(), released)
		}
	default:
		err = s.store.UpdateOrderStatus(r.Context(), order.ID, models.ActiveStatuses, status)
	}
	if err != nil {
		switch {
		case errors.Is(err, models.ErrOrderNotFound):
			NotFoundProblem(w, "order not found")
		case errors.Is(err, models.ErrWrongState):
			Conflict(w, "order is not in a state that allows this transition")
		default:
			InternalServerError(w, "failed to update order")
		}
		return
	}

	s.audit(r, "status_updated", order.ID, released, string(status))
	WriteNoContent(w)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		BadRequest(w, "invalid order id")
		return
	}

	order, err := s.store.GetOrderByID(r.Context(), uint(id))
	if err != nil {
		NotFoundProblem(w, "order not found")
		return
	}

	if err := s.seating.Cancel(r.Context(), order); err != nil {
		if errors.Is(err, models.ErrWrongState) {
			Conflict(w, "order can no longer be cancelled")
			return
		}
		InternalServerError(w, "failed to cancel order")
		return
	}

	s.audit(r, "order_cancelled", order.ID, 0, "")
	WriteNoContent(w)
}

// --- opening hours ---

func (s *Server) handleGetHours(w http.ResponseWriter, r *http.Request) {
	hours, err := s.store.ListOpeningHours(r.Context())
	if err != nil {
		InternalServerError(w, "failed to load opening hours")
		return
	}
	WriteJSONOK(w, hours)
}

type hoursRequest struct {
	DayOfWeek    int    `json:"day_of_week"`
	SpecificDate string `json:"specific_date,omitempty"` // YYYY-MM-DD
	OpenTime     string `json:"open_time"`
	CloseTime    string `json:"close_time"`
	IsClosed     bool   `json:"is_closed"`
}

func (s *Server) handleUpdateHours(w http.ResponseWriter, r *http.Request) {
	var req hoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}

	rule := &models.OpeningHours{
		DayOfWeek: req.DayOfWeek,
		OpenTime:  req.OpenTime,
		CloseTime: req.CloseTime,
		IsClosed:  req.IsClosed,
	}
	if req.SpecificDate != "" {
		date, err := time.ParseInLocation("2006-01-02", req.SpecificDate, time.Local)
		if err != nil {
			BadRequest(w, "specific_date must be YYYY-MM-DD")
			return
		}
		rule.SpecificDate = &date
		rule.DayOfWeek = 0
	}

	if err := s.store.UpsertOpeningHours(r.Context(), rule); err != nil {
		BadRequest(w, err.Error())
		return
	}

	// Changed hours can strand reservations outside the new window.
	if _, err := s.sweeper.SweepHoursChange(r.Context()); err != nil {
		logger.Warn("hours sweep failed after update", logger.Err(err))
	}

	s.audit(r, "hours_updated", 0, 0, rule.OpenTime+"-"+rule.CloseTime)
	WriteNoContent(w)
}

// --- manager: reports, members, audit ---

func (s *Server) handlePerformanceReport(w http.ResponseWriter, r *http.Request) {
	month, year, ok := parseMonthYear(w, r)
	if !ok {
		return
	}
	report, err := s.store.GetPerformanceReport(r.Context(), month, year)
	if err != nil {
		InternalServerError(w, "failed to build report")
		return
	}
	WriteJSONOK(w, report)
}

func (s *Server) handleSubscriptionReport(w http.ResponseWriter, r *http.Request) {
	month, year, ok := parseMonthYear(w, r)
	if !ok {
		return
	}
	report, err := s.store.GetSubscriptionReport(r.Context(), month, year)
	if err != nil {
		InternalServerError(w, "failed to build report")
		return
	}
	WriteJSONOK(w, report)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.store.ListMembers(r.Context())
	if err != nil {
		InternalServerError(w, "failed to list members")
		return
	}
	WriteJSONOK(w, members)
}

func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		WriteJSONOK(w, []journal.Entry{})
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			BadRequest(w, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	entries, err := s.journal.List(limit)
	if err != nil {
		InternalServerError(w, "failed to read audit journal")
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	WriteJSONOK(w, entries)
}

// parseMonthYear extracts and validates the month/year query parameters.
func parseMonthYear(w http.ResponseWriter, r *http.Request) (month, year int, ok bool) {
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		BadRequest(w, "month must be between 1 and 12")
		return 0, 0, false
	}
	year, err = strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 2000 {
		BadRequest(w, "year is required")
		return 0, 0, false
	}
	return month, year, true
}

// audit appends one journal entry attributed to the authenticated staff user.
func (s *Server) audit(r *http.Request, action string, orderID uint, tableID int, detail string) {
	if s.journal == nil {
		return
	}

	actor := "staff"
	if claims := ClaimsFromContext(r.Context()); claims != nil {
		actor = claims.Username
	}

	err := s.journal.Record(journal.Entry{
		Actor:   actor,
		Action:  action,
		OrderID: orderID,
		TableID: tableID,
		Detail:  detail,
	})
	if err != nil {
		logger.Warn("audit journal write failed", "action", action, logger.Err(err))
	}
}
