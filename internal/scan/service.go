package scan

import (
	"context"
	"errors"
	"strings"
	"time"

	"attendance/internal/ledger"
	"attendance/internal/registry"
)

// Status is the outcome label echoed to scanning terminals.
type Status string

const (
	StatusTimeIn     Status = "Time In"
	StatusTimeOut    Status = "Time Out"
	StatusAlreadyOut Status = "Already Timed Out"
)

// Result is the outcome of one scan. Accepted is false only for the
// already-timed-out rejection, which is an expected business outcome, not an
// error.
type Result struct {
	Student  registry.Student
	Status   Status
	Accepted bool
	Day      time.Time
	TimeIn   time.Time
	TimeOut  *time.Time
}

// ErrEmptyBarcode means the scanner submitted nothing usable.
var ErrEmptyBarcode = errors.New("barcode required")

// Resolver maps a barcode to a student.
type Resolver interface {
	Resolve(ctx context.Context, barcode string) (registry.Student, error)
}

// Service applies the per-day attendance transition for a scanned badge. It
// holds no state of its own; each scan is one transaction against the ledger.
type Service struct {
	resolver Resolver
	store    ledger.Store
}

// NewService creates a scan processor.
func NewService(resolver Resolver, store ledger.Store) *Service {
	return &Service{resolver: resolver, store: store}
}

// ProcessScan resolves the barcode and moves the (student, day) record
// through its ratchet: no record opens one with time_in, an open record
// closes with time_out, a closed record is rejected untouched. The day is the
// server's calendar date at now, never client-supplied.
//
// The read-branch-write runs under a single transaction with the day row
// locked; the open path additionally retries once when a concurrent scan wins
// the insert race on the (student, day) unique index.
func (s *Service) ProcessScan(ctx context.Context, barcode string, now time.Time) (Result, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return Result{}, ErrEmptyBarcode
	}

	student, err := s.resolver.Resolve(ctx, barcode)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			scansTotal.WithLabelValues(outcomeNotFound).Inc()
		} else {
			scansTotal.WithLabelValues(outcomeError).Inc()
		}
		return Result{}, err
	}

	res, err := s.transition(ctx, student, now)
	if errors.Is(err, ledger.ErrDuplicateDay) {
		// Lost the insert race to a concurrent scan of the same badge; the
		// row now exists, so rerunning lands on the open or closed branch.
		res, err = s.transition(ctx, student, now)
	}
	if err != nil {
		scansTotal.WithLabelValues(outcomeError).Inc()
		return Result{}, err
	}
	scansTotal.WithLabelValues(outcomeFor(res.Status)).Inc()
	return res, nil
}

func (s *Service) transition(ctx context.Context, student registry.Student, now time.Time) (Result, error) {
	day := ledger.Day(now)
	res := Result{Student: student, Day: day}

	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		rec, err := tx.FindForUpdate(ctx, student.ID, day)
		if err != nil {
			return err
		}
		switch {
		case rec == nil:
			opened, err := tx.Open(ctx, student.ID, day, now)
			if err != nil {
				return err
			}
			res.Status = StatusTimeIn
			res.Accepted = true
			res.TimeIn = opened.TimeIn
		case rec.Open():
			closed, err := tx.Close(ctx, rec.ID, now)
			if err != nil {
				return err
			}
			res.Status = StatusTimeOut
			res.Accepted = true
			res.TimeIn = closed.TimeIn
			res.TimeOut = closed.TimeOut
		default:
			res.Status = StatusAlreadyOut
			res.Accepted = false
			res.TimeIn = rec.TimeIn
			res.TimeOut = rec.TimeOut
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}
