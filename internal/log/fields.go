package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldDuration    = "duration_ms"
	FieldUserID      = "user_id"
	FieldTransaction = "transaction_id"
	FieldAmount      = "amount"
	FieldRange       = "range"
	FieldProcessed   = "processed"
	FieldBackend     = "backend"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentCLI       = "cli"
	ComponentWorker    = "worker"
	ComponentRecurring = "recurring"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpProcess = "process"
	OpSync    = "sync"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithUser(userID int64) LogFields {
	f[FieldUserID] = userID
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds the id and amount of a transaction.
func (f LogFields) WithTransaction(id int64, amount string) LogFields {
	f[FieldTransaction] = id
	f[FieldAmount] = amount
	return f
}

func (f LogFields) WithDuration(ms int64) LogFields {
	f[FieldDuration] = ms
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
