package log

import "sort"

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldProject   = "project"
	FieldPerson    = "person"
	FieldYear      = "year"
	FieldSheet     = "sheet"
	FieldFolder    = "folder"
	FieldFile      = "file"
	FieldURL       = "url"
	FieldRows      = "rows"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldOperation = "operation"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentGenerator = "generator"
	ComponentLifecycle = "lifecycle"
	ComponentSheets    = "sheets"
	ComponentExport    = "export"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpRead      = "read"
	OpValidate  = "validate"
	OpAggregate = "aggregate"
	OpDelete    = "delete"
	OpDuplicate = "duplicate"
	OpWrite     = "write"
	OpExport    = "export"
	OpTrash     = "trash"
	OpUpload    = "upload"
	OpResolve   = "resolve"
)

// Fields provides a builder pattern for structured log fields
type Fields map[string]any

// NewFields creates a new Fields instance
func NewFields() Fields {
	return make(Fields)
}

// WithError adds error field
func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

// WithTimesheet adds the identity of one timesheet
func (f Fields) WithTimesheet(person string, year int) Fields {
	f[FieldPerson] = person
	f[FieldYear] = year
	return f
}

// ToSlice converts Fields to a slice for slog, sorted by key
func (f Fields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
