// Package employee stores and validates employee records.
package employee

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("employee: not found")
	ErrDuplicateEmail = errors.New("employee: email already registered")
	ErrInvalid        = errors.New("employee: invalid record")
)

// Employee maps the employees table.
type Employee struct {
	ID           int64            `gorm:"column:employee_id;primaryKey;autoIncrement" json:"employee_id"`
	FirstName    string           `gorm:"column:first_name;not null" json:"first_name"`
	LastName     string           `gorm:"column:last_name;not null" json:"last_name"`
	Email        string           `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Phone        string           `gorm:"column:phone" json:"phone,omitempty"`
	HireDate     Date             `gorm:"column:hire_date;type:date;not null" json:"hire_date"`
	JobTitle     string           `gorm:"column:job_title" json:"job_title,omitempty"`
	Salary       *decimal.Decimal `gorm:"column:salary;type:numeric(12,2)" json:"salary,omitempty"`
	DepartmentID *int32           `gorm:"column:department_id" json:"department_id,omitempty"`
}

// TableName implements gorm's tabler.
func (Employee) TableName() string { return "employees" }

// Validate checks required fields and email syntax.
func (e *Employee) Validate() error {
	var problems []string
	if strings.TrimSpace(e.FirstName) == "" {
		problems = append(problems, "first_name is required")
	}
	if strings.TrimSpace(e.LastName) == "" {
		problems = append(problems, "last_name is required")
	}
	if strings.TrimSpace(e.Email) == "" {
		problems = append(problems, "email is required")
	} else if addr, err := mail.ParseAddress(e.Email); err != nil || addr.Address != e.Email {
		problems = append(problems, "email is malformed")
	}
	if e.HireDate.IsZero() {
		problems = append(problems, "hire_date is required")
	}
	if e.Salary != nil && e.Salary.IsNegative() {
		problems = append(problems, "salary must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Date is a calendar date encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = time.DateOnly

// NewDate returns the date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(dateLayout) }

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes "YYYY-MM-DD" or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(strings.Trim(s, `"`))
	if err != nil {
		return fmt.Errorf("hire_date: %w", err)
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Time, nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
	case []byte:
		return d.Scan(string(v))
	default:
		return fmt.Errorf("employee: cannot scan %T into Date", src)
	}
	return nil
}
