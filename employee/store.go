package employee

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Store persists employees.
type Store interface {
	List(ctx context.Context, page Page) ([]Employee, error)
	Get(ctx context.Context, id int64) (*Employee, error)
	Create(ctx context.Context, e *Employee) error
}

// Page bounds a List call. Limit is clamped to [1, MaxPageSize].
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Normalize applies defaults and bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// GormStore is a Store backed by gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the employees table.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Employee{}); err != nil {
		return fmt.Errorf("employee: migrate: %w", err)
	}
	return nil
}

// List returns employees ordered by id.
func (s *GormStore) List(ctx context.Context, page Page) ([]Employee, error) {
	page = page.Normalize()
	var out []Employee
	err := s.db.WithContext(ctx).
		Order("employee_id").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("employee: list: %w", err)
	}
	return out, nil
}

// Get returns one employee or ErrNotFound.
func (s *GormStore) Get(ctx context.Context, id int64) (*Employee, error) {
	var e Employee
	err := s.db.WithContext(ctx).First(&e, "employee_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("employee: get %d: %w", id, err)
	}
	return &e, nil
}

// Create validates and inserts e, setting its ID.
func (s *GormStore) Create(ctx context.Context, e *Employee) error {
	if err := e.Validate(); err != nil {
		return err
	}
	e.ID = 0
	err := s.db.WithContext(ctx).Create(e).Error
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("employee: create: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ Store = (*GormStore)(nil)
