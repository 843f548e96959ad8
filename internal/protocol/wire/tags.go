package wire

// Action tags. The tag string travels on the wire in the envelope header;
// the response to a request echoes the request's tag except where noted.
const (
	TagLogin             = "LOGIN"
	TagLogout            = "LOGOUT"
	TagClientQuit        = "CLIENT_QUIT"
	TagRegisterClient    = "REGISTER_CLIENT"
	TagIdentifyByQR      = "IDENTIFY_BY_QR"
	TagGetUserHistory    = "GET_USER_HISTORY"
	TagUpdateUserInfo    = "UPDATE_USER_INFO"
	TagGetOrderByCode    = "GET_ORDER_BY_CODE"
	TagCancelOrder       = "CANCEL_ORDER"
	TagGetAvailableTimes = "GET_AVAILABLE_TIMES"
	TagCreateOrder       = "CREATE_ORDER"
	// TagOrderAlternatives replaces TagCreateOrder in the response when the
	// requested time is infeasible but nearby times work.
	TagOrderAlternatives   = "ORDER_ALTERNATIVES"
	TagEnterWaitlist       = "ENTER_WAITLIST"
	TagLeaveWaitlist       = "LEAVE_WAITLIST"
	TagValidateArrival     = "VALIDATE_ARRIVAL"
	TagPayBill             = "PAY_BILL"
	TagUpdateOrderStatus   = "UPDATE_ORDER_STATUS"
	TagGetOpeningHours     = "GET_OPENING_HOURS"
	TagUpdateOpeningHours  = "UPDATE_OPENING_HOURS"
	TagGetAllTables        = "GET_ALL_TABLES"
	TagAddTable            = "ADD_TABLE"
	TagRemoveTable         = "REMOVE_TABLE"
	TagUpdateTable         = "UPDATE_TABLE"
	TagGetActiveDiners     = "GET_ACTIVE_DINERS"
	TagGetAllActiveOrders  = "GET_ALL_ACTIVE_ORDERS"
	TagGetWaitingList      = "GET_WAITING_LIST"
	TagGetRelevantOrders   = "GET_RELEVANT_ORDERS"
	TagGetPerformance      = "GET_PERFORMANCE_REPORT"
	TagGetSubscription     = "GET_SUBSCRIPTION_REPORT"
	TagRestoreCode         = "RESTORE_CODE"
	TagServerNotification  = "SERVER_NOTIFICATION"
	TagGetAllMembers       = "GET_ALL_MEMBERS"
)

// Response union arms.
const (
	ArmOK    = 0
	ArmError = 1
	ArmNull  = 2
)

// PushCorrelationID marks server-initiated messages; replies always echo a
// nonzero client correlation id.
const PushCorrelationID = 0
