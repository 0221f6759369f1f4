package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldUsername    = "username"
	FieldUserID      = "user_id"
	FieldRole        = "role"
	FieldAmount      = "amount"
	FieldDelta       = "delta"
	FieldTransaction = "transaction_id"
	FieldProduct     = "product_id"
	FieldCategory    = "category"
	FieldDataset     = "dataset"
	FieldCount       = "count"
	FieldEndpoint    = "endpoint"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentGateway  = "gateway"
	ComponentSession  = "session"
	ComponentDebts    = "debts"
	ComponentCatalog  = "catalog"
	ComponentTxns     = "transactions"
	ComponentSnapshot = "snapshot"
)

// Operations defines standard operation names
const (
	OpLogin    = "login"
	OpLogout   = "logout"
	OpFetch    = "fetch"
	OpRefresh  = "refresh"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpSetDebt  = "set_debt"
	OpAddDebt  = "add_debt"
	OpCheckout = "checkout"
	OpMarkPaid = "mark_paid"
	OpValidate = "validate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
