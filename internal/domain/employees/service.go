package employees

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Hugozera/apontamento/internal/domain/records"
	"github.com/Hugozera/apontamento/internal/domain/tenant"
)

// Service manages the employee directory kept in the users partition.
type Service struct {
	Store        records.Store
	StoreTimeout time.Duration
	Now          func() time.Time
}

func NewService(store records.Store) *Service {
	return &Service{Store: store, Now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) List(ctx context.Context) ([]Employee, error) {
	var docs []records.Document
	err := records.Await(ctx, s.StoreTimeout, func(ctx context.Context) error {
		var err error
		docs, err = s.Store.ListAll(ctx, Partition)
		return err
	})
	if err != nil {
		return nil, records.Wrap("list employees", err)
	}
	return fromDocuments(docs), nil
}

// ListBySite returns employees whose home site is site.
func (s *Service) ListBySite(ctx context.Context, site string) ([]Employee, error) {
	site = strings.TrimSpace(site)
	if site == "" {
		return nil, records.Invalid(FieldSite, "is required")
	}
	docs, err := s.query(ctx, FieldSite, site)
	if err != nil {
		return nil, records.Wrap("list employees by site", err)
	}
	return fromDocuments(docs), nil
}

func (s *Service) Get(ctx context.Context, id string) (Employee, error) {
	if strings.TrimSpace(id) == "" {
		return Employee{}, records.Invalid("id", "is required")
	}
	var fields records.Fields
	err := records.Await(ctx, s.StoreTimeout, func(ctx context.Context) error {
		var err error
		fields, err = s.Store.Get(ctx, Partition, id)
		return err
	})
	if err != nil {
		return Employee{}, records.Wrap("get employee", err)
	}
	return fromDocument(id, fields), nil
}

// Create registers an employee. A missing site defaults to the default
// tenant and new employees start active.
func (s *Service) Create(ctx context.Context, in Input) (Employee, error) {
	required := []struct{ field, value string }{
		{FieldEmployeeID, in.EmployeeID},
		{FieldName, in.Name},
		{FieldEmail, in.Email},
		{FieldRole, in.Role},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return Employee{}, records.Invalid(r.field, "is required")
		}
	}
	if err := s.ensureUnique(ctx, strings.TrimSpace(in.EmployeeID), ""); err != nil {
		return Employee{}, err
	}

	fields := in.fields()
	if _, ok := fields[FieldSite]; !ok {
		fields[FieldSite] = tenant.Default
	}
	if _, ok := fields[FieldActive]; !ok {
		fields[FieldActive] = activeFlag
	}
	fields[FieldCreatedAt] = s.now()

	var id string
	err := records.Await(ctx, s.StoreTimeout, func(ctx context.Context) error {
		var err error
		id, err = s.Store.Insert(ctx, Partition, fields)
		return err
	})
	if err != nil {
		return Employee{}, records.Wrap("create employee", err)
	}
	return fromDocument(id, fields), nil
}

// Update merges the non-blank fields of in into employee id.
func (s *Service) Update(ctx context.Context, id string, in Input) (Employee, error) {
	if in.empty() {
		return Employee{}, records.Invalid("body", "at least one field is required")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return Employee{}, err
	}
	if login := strings.TrimSpace(in.EmployeeID); login != "" {
		if err := s.ensureUnique(ctx, login, id); err != nil {
			return Employee{}, err
		}
	}

	fields := in.fields()
	fields[FieldUpdatedAt] = s.now()
	err := records.Await(ctx, s.StoreTimeout, func(ctx context.Context) error {
		return s.Store.Update(ctx, Partition, id, fields)
	})
	if err != nil {
		return Employee{}, records.Wrap("update employee", err)
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return records.Invalid("id", "is required")
	}
	err := records.Await(ctx, s.StoreTimeout, func(ctx context.Context) error {
		return s.Store.Delete(ctx, Partition, id)
	})
	if err != nil {
		return records.Wrap("delete employee", err)
	}
	return nil
}

// HomeSite returns the registered site of the employee with login
// employeeID. found is false when nobody has that login.
func (s *Service) HomeSite(ctx context.Context, employeeID string) (string, bool, error) {
	docs, err := s.query(ctx, FieldEmployeeID, strings.TrimSpace(employeeID))
	if err != nil {
		return "", false, err
	}
	if len(docs) == 0 {
		return "", false, nil
	}
	return strings.TrimSpace(docs[0].Fields.String(FieldSite)), true, nil
}

// ensureUnique rejects a login already used by a document other than selfID.
func (s *Service) ensureUnique(ctx context.Context, login, selfID string) error {
	docs, err := s.query(ctx, FieldEmployeeID, login)
	if err != nil {
		return records.Wrap("check employee login", err)
	}
	for _, doc := range docs {
		if doc.ID != selfID {
			return records.Invalid(FieldEmployeeID, fmt.Sprintf("%q is already registered", login))
		}
	}
	return nil
}

func (s *Service) query(ctx context.Context, field, value string) ([]records.Document, error) {
	var docs []records.Document
	err := records.Await(ctx, s.StoreTimeout, func(ctx context.Context) error {
		var err error
		docs, err = s.Store.QueryEquals(ctx, Partition, field, value)
		return err
	})
	return docs, err
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func fromDocuments(docs []records.Document) []Employee {
	out := make([]Employee, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fromDocument(doc.ID, doc.Fields))
	}
	return out
}
