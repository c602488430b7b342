package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldOwnerID   = "owner_id"
	FieldAccountID = "account_id"
	FieldBudgetID  = "budget_id"
	FieldTxnID     = "transaction_id"
	FieldLevel     = "alert_level"
	FieldCents     = "amount_cents"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentBudget  = "budget"
	ComponentAlerts  = "alerts"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentNotify  = "notify"
	ComponentSweep   = "sweep"
)
