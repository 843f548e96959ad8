package wire

import (
	"bytes"
	"fmt"
	"time"

	xdr "github.com/rasky/go-xdr/xdr2"

	"github.com/bistrokit/bistro/pkg/models"
)

// Request payload structs. These decode directly from the envelope body via
// go-xdr reflection; field order is the wire order.

// LoginRequest carries credentials for LOGIN.
type LoginRequest struct {
	Username string
	Password string
}

// RegisterRequest carries a new member profile for REGISTER_CLIENT.
type RegisterRequest struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Email     string
}

// IdentifyRequest carries a scanned membership code for IDENTIFY_BY_QR.
// The code is a string on the wire; QR scanners deliver text.
type IdentifyRequest struct {
	MemberCode string
}

// UserIDRequest addresses a user by id (GET_USER_HISTORY,
// GET_RELEVANT_ORDERS, LOGOUT).
type UserIDRequest struct {
	UserID uint32
}

// UpdateUserRequest carries the mutable profile fields for UPDATE_USER_INFO.
type UpdateUserRequest struct {
	UserID    uint32
	FirstName string
	LastName  string
	Phone     string
	Email     string
}

// CodeRequest addresses an order by confirmation code (GET_ORDER_BY_CODE,
// CANCEL_ORDER, LEAVE_WAITLIST, VALIDATE_ARRIVAL, PAY_BILL).
type CodeRequest struct {
	Code uint32
	// Phone and Email let an anonymous caller prove ownership of a guest
	// order; empty for staff and logged-in members.
	Phone string
	Email string
}

// AvailableTimesRequest selects a day and party size for GET_AVAILABLE_TIMES.
type AvailableTimesRequest struct {
	Date   int64 // unix millis anywhere inside the requested day
	Guests uint32
}

// OrderDraft is the client's order for CREATE_ORDER and ENTER_WAITLIST.
type OrderDraft struct {
	ScheduledAt  int64 // unix millis; ignored for ENTER_WAITLIST
	Guests       uint32
	MemberID     uint32 // 0 for guests
	Phone        string
	Email        string
	CustomerName string
}

// UpdateOrderStatusRequest carries an explicit state transition.
type UpdateOrderStatusRequest struct {
	OrderID uint32
	Status  string
}

// HoursUpdate carries one opening-hours rule for UPDATE_OPENING_HOURS.
type HoursUpdate struct {
	DayOfWeek    int32
	SpecificDate int64 // unix millis, 0 for a weekly rule
	OpenTime     string
	CloseTime    string
	IsClosed     bool
}

// TableRequest carries a table definition for ADD_TABLE and UPDATE_TABLE.
type TableRequest struct {
	TableID  int32
	Capacity int32
}

// TableIDRequest addresses a table for REMOVE_TABLE.
type TableIDRequest struct {
	TableID int32
}

// ReportRequest selects a reporting month.
type ReportRequest struct {
	Month int32
	Year  int32
}

// RestoreCodeRequest identifies a customer whose active confirmation codes
// should be resent. Either a contact or a membership code.
type RestoreCodeRequest struct {
	Phone      string
	Email      string
	MemberCode int32
}

// DecodeRequest unmarshals an envelope body into a request struct.
func DecodeRequest(body []byte, v any) error {
	if _, err := xdr.Unmarshal(bytes.NewReader(body), v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

// EncodeRequest builds a complete request frame payload: tag, correlation
// id, then the XDR-marshaled body. Client-side counterpart of
// DecodeEnvelope plus DecodeRequest.
func EncodeRequest(tag string, cid uint32, v any) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := WriteString(buf, tag); err != nil {
		return nil, err
	}
	if err := WriteUint32(buf, cid); err != nil {
		return nil, err
	}
	if v != nil {
		if _, err := xdr.Marshal(buf, v); err != nil {
			return nil, fmt.Errorf("encode %s request: %w", tag, err)
		}
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// Timestamps travel as unix millis; zero encodes a null time.

// ToMillis converts a time to wire millis.
func ToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromMillis converts wire millis to a time. Zero yields the zero time.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func writeOptionalMillis(buf *bytes.Buffer, t *time.Time) error {
	if t == nil {
		return WriteBool(buf, false)
	}
	if err := WriteBool(buf, true); err != nil {
		return err
	}
	return WriteInt64(buf, t.UnixMilli())
}

func decodeOptionalMillis(r *bytes.Reader) (*time.Time, error) {
	present, err := DecodeBool(r)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	ms, err := DecodeInt64(r)
	if err != nil {
		return nil, err
	}
	t := time.UnixMilli(ms)
	return &t, nil
}

// WriteUser encodes a user record. The password hash never travels.
func WriteUser(buf *bytes.Buffer, u *models.User) error {
	if err := WriteUint32(buf, uint32(u.ID)); err != nil {
		return err
	}
	for _, s := range []string{u.Username, u.FirstName, u.LastName, string(u.Role), u.Phone, u.Email} {
		if err := WriteString(buf, s); err != nil {
			return err
		}
	}
	if u.MemberCode == nil {
		if err := WriteBool(buf, false); err != nil {
			return err
		}
	} else {
		if err := WriteBool(buf, true); err != nil {
			return err
		}
		if err := WriteInt32(buf, int32(*u.MemberCode)); err != nil {
			return err
		}
	}
	return WriteBool(buf, u.IsLoggedIn)
}

// DecodeUser decodes a user record.
func DecodeUser(r *bytes.Reader) (*models.User, error) {
	id, err := DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	u := &models.User{ID: uint(id)}
	fields := []*string{&u.Username, &u.FirstName, &u.LastName}
	for _, f := range fields {
		if *f, err = DecodeString(r); err != nil {
			return nil, err
		}
	}
	role, err := DecodeString(r)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	if u.Phone, err = DecodeString(r); err != nil {
		return nil, err
	}
	if u.Email, err = DecodeString(r); err != nil {
		return nil, err
	}
	present, err := DecodeBool(r)
	if err != nil {
		return nil, err
	}
	if present {
		code, err := DecodeInt32(r)
		if err != nil {
			return nil, err
		}
		c := int(code)
		u.MemberCode = &c
	}
	if u.IsLoggedIn, err = DecodeBool(r); err != nil {
		return nil, err
	}
	return u, nil
}

// WriteUserList encodes a counted list of users.
func WriteUserList(buf *bytes.Buffer, users []*models.User) error {
	if err := WriteUint32(buf, uint32(len(users))); err != nil {
		return err
	}
	for _, u := range users {
		if err := WriteUser(buf, u); err != nil {
			return err
		}
	}
	return nil
}

// DecodeUserList decodes a counted list of users.
func DecodeUserList(r *bytes.Reader) ([]*models.User, error) {
	count, err := DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	users := make([]*models.User, 0, count)
	for i := uint32(0); i < count; i++ {
		u, err := DecodeUser(r)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// WriteOrder encodes an order record with its nullable fields.
func WriteOrder(buf *bytes.Buffer, o *models.Order) error {
	if err := WriteUint32(buf, uint32(o.ID)); err != nil {
		return err
	}
	if err := WriteInt64(buf, ToMillis(o.ScheduledAt)); err != nil {
		return err
	}
	if err := WriteUint32(buf, uint32(o.Guests)); err != nil {
		return err
	}
	if err := WriteInt32(buf, int32(o.Code)); err != nil {
		return err
	}
	if err := WriteUint32(buf, uint32(o.MemberID)); err != nil {
		return err
	}
	if err := WriteInt64(buf, ToMillis(o.PlacedAt)); err != nil {
		return err
	}
	if err := WriteString(buf, string(o.Status)); err != nil {
		return err
	}
	if o.TotalPrice == nil {
		if err := WriteBool(buf, false); err != nil {
			return err
		}
	} else {
		if err := WriteBool(buf, true); err != nil {
			return err
		}
		if err := WriteFloat64(buf, *o.TotalPrice); err != nil {
			return err
		}
	}
	for _, s := range []string{o.Phone, o.Email, o.CustomerName} {
		if err := WriteString(buf, s); err != nil {
			return err
		}
	}
	if err := WriteBool(buf, o.EnteredWaitlist); err != nil {
		return err
	}
	if err := writeOptionalMillis(buf, o.ArrivalAt); err != nil {
		return err
	}
	if err := writeOptionalMillis(buf, o.LeaveAt); err != nil {
		return err
	}
	if o.TableID == nil {
		return WriteBool(buf, false)
	}
	if err := WriteBool(buf, true); err != nil {
		return err
	}
	return WriteInt32(buf, int32(*o.TableID))
}

// DecodeOrder decodes an order record.
func DecodeOrder(r *bytes.Reader) (*models.Order, error) {
	id, err := DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	o := &models.Order{ID: uint(id)}

	scheduled, err := DecodeInt64(r)
	if err != nil {
		return nil, err
	}
	o.ScheduledAt = FromMillis(scheduled)

	guests, err := DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	o.Guests = int(guests)

	code, err := DecodeInt32(r)
	if err != nil {
		return nil, err
	}
	o.Code = int(code)

	member, err := DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	o.MemberID = uint(member)

	placed, err := DecodeInt64(r)
	if err != nil {
		return nil, err
	}
	o.PlacedAt = FromMillis(placed)

	status, err := DecodeString(r)
	if err != nil {
		return nil, err
	}
	o.Status = models.OrderStatus(status)

	present, err := DecodeBool(r)
	if err != nil {
		return nil, err
	}
	if present {
		price, err := DecodeFloat64(r)
		if err != nil {
			return nil, err
		}
		o.TotalPrice = &price
	}

	for _, f := range []*string{&o.Phone, &o.Email, &o.CustomerName} {
		if *f, err = DecodeString(r); err != nil {
			return nil, err
		}
	}
	if o.EnteredWaitlist, err = DecodeBool(r); err != nil {
		return nil, err
	}
	if o.ArrivalAt, err = decodeOptionalMillis(r); err != nil {
		return nil, err
	}
	if o.LeaveAt, err = decodeOptionalMillis(r); err != nil {
		return nil, err
	}

	present, err = DecodeBool(r)
	if err != nil {
		return nil, err
	}
	if present {
		tableID, err := DecodeInt32(r)
		if err != nil {
			return nil, err
		}
		t := int(tableID)
		o.TableID = &t
	}
	return o, nil
}

// WriteOrderList encodes a counted list of orders.
func WriteOrderList(buf *bytes.Buffer, orders []*models.Order) error {
	if err := WriteUint32(buf, uint32(len(orders))); err != nil {
		return err
	}
	for _, o := range orders {
		if err := WriteOrder(buf, o); err != nil {
			return err
		}
	}
	return nil
}

// DecodeOrderList decodes a counted list of orders.
func DecodeOrderList(r *bytes.Reader) ([]*models.Order, error) {
	count, err := DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	orders := make([]*models.Order, 0, count)
	for i := uint32(0); i < count; i++ {
		o, err := DecodeOrder(r)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// WriteTable encodes a table record.
func WriteTable(buf *bytes.Buffer, t *models.Table) error {
	if err := WriteInt32(buf, int32(t.ID)); err != nil {
		return err
	}
	if err := WriteInt32(buf, int32(t.Capacity)); err != nil {
		return err
	}
	return WriteString(buf, string(t.Status))
}

// DecodeTable decodes a table record.
func DecodeTable(r *bytes.Reader) (*models.Table, error) {
	id, err := DecodeInt32(r)
	if err != nil {
		return nil, err
	}
	capacity, err := DecodeInt32(r)
	if err != nil {
		return nil, err
	}
	status, err := DecodeString(r)
	if err != nil {
		return nil, err
	}
	return &models.Table{
		ID:       int(id),
		Capacity: int(capacity),
		Status:   models.TableStatus(status),
	}, nil
}

// WriteTableList encodes a counted list of tables.
func WriteTableList(buf *bytes.Buffer, tables []*models.Table) error {
	if err := WriteUint32(buf, uint32(len(tables))); err != nil {
		return err
	}
	for _, t := range tables {
		if err := WriteTable(buf, t); err != nil {
			return err
		}
	}
	return nil
}

// DecodeTableList decodes a counted list of tables.
func DecodeTableList(r *bytes.Reader) ([]*models.Table, error) {
	count, err := DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	tables := make([]*models.Table, 0, count)
	for i := uint32(0); i < count; i++ {
		t, err := DecodeTable(r)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// WriteHours encodes an opening-hours rule.
func WriteHours(buf *bytes.Buffer, h *models.OpeningHours) error {
	if err := WriteUint32(buf, uint32(h.ID)); err != nil {
		return err
	}
	if err := WriteInt32(buf, int32(h.DayOfWeek)); err != nil {
		return err
	}
	if err := writeOptionalMillis(buf, h.SpecificDate); err != nil {
		return err
	}
	if err := WriteString(buf, h.OpenTime); err != nil {
		return err
	}
	if err := WriteString(buf, h.CloseTime); err != nil {
		return err
	}
	return WriteBool(buf, h.IsClosed)
}

// DecodeHours decodes an opening-hours rule.
func DecodeHours(r *bytes.Reader) (*models.OpeningHours, error) {
	id, err := DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	day, err := DecodeInt32(r)
	if err != nil {
		return nil, err
	}
	h := &models.OpeningHours{ID: uint(id), DayOfWeek: int(day)}
	if h.SpecificDate, err = decodeOptionalMillis(r); err != nil {
		return nil, err
	}
	if h.OpenTime, err = DecodeString(r); err != nil {
		return nil, err
	}
	if h.CloseTime, err = DecodeString(r); err != nil {
		return nil, err
	}
	if h.IsClosed, err = DecodeBool(r); err != nil {
		return nil, err
	}
	return h, nil
}

// WriteHoursList encodes a counted list of opening-hours rules.
func WriteHoursList(buf *bytes.Buffer, rules []*models.OpeningHours) error {
	if err := WriteUint32(buf, uint32(len(rules))); err != nil {
		return err
	}
	for _, h := range rules {
		if err := WriteHours(buf, h); err != nil {
			return err
		}
	}
	return nil
}

// DecodeHoursList decodes a counted list of opening-hours rules.
func DecodeHoursList(r *bytes.Reader) ([]*models.OpeningHours, error) {
	count, err := DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	rules := make([]*models.OpeningHours, 0, count)
	for i := uint32(0); i < count; i++ {
		h, err := DecodeHours(r)
		if err != nil {
			return nil, err
		}
		rules = append(rules, h)
	}
	return rules, nil
}

// WriteStringList encodes a counted list of strings.
func WriteStringList(buf *bytes.Buffer, items []string) error {
	if err := WriteUint32(buf, uint32(len(items))); err != nil {
		return err
	}
	for _, s := range items {
		if err := WriteString(buf, s); err != nil {
			return err
		}
	}
	return nil
}

// DecodeStringList decodes a counted list of strings.
func DecodeStringList(r *bytes.Reader) ([]string, error) {
	count, err := DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	items := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		s, err := DecodeString(r)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, nil
}

// WriteTimeList encodes a counted list of timestamps in wire millis.
func WriteTimeList(buf *bytes.Buffer, times []time.Time) error {
	if err := WriteUint32(buf, uint32(len(times))); err != nil {
		return err
	}
	for _, t := range times {
		if err := WriteInt64(buf, ToMillis(t)); err != nil {
			return err
		}
	}
	return nil
}

// DecodeTimeList decodes a counted list of timestamps.
func DecodeTimeList(r *bytes.Reader) ([]time.Time, error) {
	count, err := DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	times := make([]time.Time, 0, count)
	for i := uint32(0); i < count; i++ {
		ms, err := DecodeInt64(r)
		if err != nil {
			return nil, err
		}
		times = append(times, FromMillis(ms))
	}
	return times, nil
}

// WriteReport encodes a key-to-number report map as counted pairs. Keys are
// written in sorted order so the encoding is deterministic.
func WriteReport(buf *bytes.Buffer, report map[string]float64, keys []string) error {
	if err := WriteUint32(buf, uint32(len(keys))); err != nil {
		return err
	}
	for _, key := range keys {
		if err := WriteString(buf, key); err != nil {
			return err
		}
		if err := WriteFloat64(buf, report[key]); err != nil {
			return err
		}
	}
	return nil
}

// DecodeReport decodes a key-to-number report map.
func DecodeReport(r *bytes.Reader) (map[string]float64, error) {
	count, err := DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	report := make(map[string]float64, count)
	for i := uint32(0); i < count; i++ {
		key, err := DecodeString(r)
		if err != nil {
			return nil, err
		}
		value, err := DecodeFloat64(r)
		if err != nil {
			return nil, err
		}
		report[key] = value
	}
	return report, nil
}
