package employees

import (
	"strings"
	"time"

	"github.com/Hugozera/apontamento/internal/domain/records"
)

// Partition holds the employee directory for every site.
const Partition = "users"

// Stored field names.
const (
	FieldEmployeeID = "idLogin"
	FieldName       = "name"
	FieldEmail      = "email"
	FieldRole       = "role"
	FieldSite       = "posto"
	FieldActive     = "ativo"
	FieldCreatedAt  = "createdAt"
	FieldUpdatedAt  = "updatedAt"
)

const (
	activeFlag   = "1"
	inactiveFlag = "0"
)

type Employee struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"idLogin"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Site       string     `json:"posto"`
	Active     bool       `json:"ativo"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// Input carries directory fields. On update, blank strings and a nil Active
// leave the stored value alone.
type Input struct {
	EmployeeID string
	Name       string
	Email      string
	Role       string
	Site       string
	Active     *bool
}

func (in Input) empty() bool {
	return strings.TrimSpace(in.EmployeeID) == "" &&
		strings.TrimSpace(in.Name) == "" &&
		strings.TrimSpace(in.Email) == "" &&
		strings.TrimSpace(in.Role) == "" &&
		strings.TrimSpace(in.Site) == "" &&
		in.Active == nil
}

// fields returns the non-blank values of in.
func (in Input) fields() records.Fields {
	out := records.Fields{}
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			out[key] = value
		}
	}
	set(FieldEmployeeID, in.EmployeeID)
	set(FieldName, in.Name)
	set(FieldEmail, in.Email)
	set(FieldRole, in.Role)
	set(FieldSite, in.Site)
	if in.Active != nil {
		out[FieldActive] = activeValue(*in.Active)
	}
	return out
}

func activeValue(active bool) string {
	if active {
		return activeFlag
	}
	return inactiveFlag
}

// fromDocument ignores credential fields older documents may still carry.
func fromDocument(id string, fields records.Fields) Employee {
	emp := Employee{
		ID:         id,
		EmployeeID: fields.String(FieldEmployeeID),
		Name:       fields.String(FieldName),
		Email:      fields.String(FieldEmail),
		Role:       fields.String(FieldRole),
		Site:       strings.TrimSpace(fields.String(FieldSite)),
		Active:     parseActive(fields[FieldActive]),
	}
	if at, ok := fields.Time(FieldCreatedAt); ok {
		emp.CreatedAt = at.UTC()
	}
	if at, ok := fields.Time(FieldUpdatedAt); ok {
		at = at.UTC()
		emp.UpdatedAt = &at
	}
	return emp
}

func parseActive(value any) bool {
	switch v := value.(type) {
	case string:
		v = strings.TrimSpace(strings.ToLower(v))
		return v == activeFlag || v == "true"
	case bool:
		return v
	case float64:
		return v == 1
	case int64:
		return v == 1
	default:
		return false
	}
}
