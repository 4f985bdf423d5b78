package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Student is a roster entry with its assigned barcode.
type Student struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Batch      string    `json:"batch"`
	Position   string    `json:"position"`
	Department string    `json:"department"`
	School     string    `json:"school"`
	Barcode    string    `json:"barcode"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewStudent carries the validated attributes for a student to be created.
// Barcode is normally empty and assigned by the registry; a non-empty value
// is an identity claim from a roster that already carries barcodes.
type NewStudent struct {
	Name       string
	Batch      string
	Position   string
	Department string
	School     string
	Barcode    string
}

var (
	// ErrNotFound means the barcode resolves to no student.
	ErrNotFound = errors.New("student not found")
	// ErrDuplicateBarcode is returned by the store when an insert hits the
	// barcode uniqueness constraint.
	ErrDuplicateBarcode = errors.New("barcode already assigned")
	// ErrMissingFields rejects a student with blank required attributes.
	ErrMissingFields = errors.New("name, batch, position, department and school are required")
)

// FilterOptions lists the distinct attribute values present on the roster.
type FilterOptions struct {
	Batches     []string `json:"batches"`
	Positions   []string `json:"positions"`
	Departments []string `json:"departments"`
	Schools     []string `json:"schools"`
}

// Store persists students. Insert must enforce barcode uniqueness and report
// violations as ErrDuplicateBarcode.
type Store interface {
	Insert(ctx context.Context, s Student) (Student, error)
	BarcodeExists(ctx context.Context, barcode string) (bool, error)
	FindByBarcode(ctx context.Context, barcode string) (*Student, error)
	FindByID(ctx context.Context, id string) (*Student, error)
	List(ctx context.Context) ([]Student, error)
	FilterOptions(ctx context.Context) (FilterOptions, error)
}

// maxAssignAttempts bounds the generate-and-insert loop. The candidate space
// is large enough that hitting this cap means the store is misbehaving, not
// that barcodes ran out.
const maxAssignAttempts = 5

// Registry owns the barcode-to-student mapping.
type Registry struct {
	store Store
	gen   Generator
}

// New creates a registry assigning barcodes of the given length.
func New(store Store, barcodeLength int) *Registry {
	return &Registry{store: store, gen: NewGenerator(barcodeLength)}
}

// CreateStudent validates the input, assigns a barcode when none is claimed,
// and persists the student. The uniqueness pre-check is a fast path; the
// store's constraint is the guarantee, and constraint violations on generated
// candidates are retried with a fresh candidate.
func (r *Registry) CreateStudent(ctx context.Context, in NewStudent) (Student, error) {
	s := Student{
		Name:       strings.TrimSpace(in.Name),
		Batch:      strings.TrimSpace(in.Batch),
		Position:   strings.TrimSpace(in.Position),
		Department: strings.TrimSpace(in.Department),
		School:     strings.TrimSpace(in.School),
		Barcode:    strings.TrimSpace(in.Barcode),
	}
	if s.Name == "" || s.Batch == "" || s.Position == "" || s.Department == "" || s.School == "" {
		return Student{}, ErrMissingFields
	}

	if s.Barcode != "" {
		created, err := r.store.Insert(ctx, s)
		if err != nil {
			return Student{}, err
		}
		return created, nil
	}

	for attempt := 0; attempt < maxAssignAttempts; attempt++ {
		s.Barcode = r.gen.Candidate()
		if taken, err := r.store.BarcodeExists(ctx, s.Barcode); err != nil {
			return Student{}, err
		} else if taken {
			continue
		}
		created, err := r.store.Insert(ctx, s)
		if errors.Is(err, ErrDuplicateBarcode) {
			continue
		}
		if err != nil {
			return Student{}, err
		}
		return created, nil
	}
	return Student{}, fmt.Errorf("barcode assignment failed after %d attempts", maxAssignAttempts)
}

// Resolve looks up a student by barcode. Incidental whitespace is trimmed so
// every entry point compares canonical values.
func (r *Registry) Resolve(ctx context.Context, barcode string) (Student, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return Student{}, ErrNotFound
	}
	s, err := r.store.FindByBarcode(ctx, barcode)
	if err != nil {
		return Student{}, err
	}
	if s == nil {
		return Student{}, ErrNotFound
	}
	return *s, nil
}

// List returns the full roster.
func (r *Registry) List(ctx context.Context) ([]Student, error) {
	return r.store.List(ctx)
}

// FilterOptions returns the distinct values available for report filtering.
func (r *Registry) FilterOptions(ctx context.Context) (FilterOptions, error) {
	return r.store.FilterOptions(ctx)
}
