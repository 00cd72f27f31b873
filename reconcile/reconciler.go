/*
Package reconcile converts an absence spreadsheet into LWP leave records
without duplicating existing coverage.

PURPOSE:
  Operators upload a per-period absence table (student id, date). For
  each row the reconciler either finds the date already covered by a
  non-rejected application ("Leave already exists", skip) or creates and
  immediately approves a single-day LWP application under the automated
  decider identity. Both paths run through the same approval gate and
  ledger as manual submissions, so the invariants hold regardless of
  entry point.

BATCH SEMANTICS:
  One bad row never aborts the batch. Every row lands in exactly one
  bucket of the summary: generated, skipped, or errored. Running the same
  file twice generates zero leaves the second time - every row skips.

FILE HANDLING:
  CSV only, size-capped read, row-capped parse. The reconciler is the
  single place the engine touches an uploaded file, and the read is
  bounded before a single row is processed.

SEE ALSO:
  - leave/service.go: CoverAbsence, the atomic check-and-create path
*/
package reconcile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campuskit/leave-engine/academic"
	"github.com/campuskit/leave-engine/leave"
)

// =============================================================================
// INPUT
// =============================================================================

// Row is one (student, absent date) cell of the uploaded table.
type Row struct {
	StudentID string
	Date      academic.Date
}

// Options bound the file read and identify the automated decider.
type Options struct {
	MaxFileBytes int64 // default 4 MiB
	MaxRows      int   // default 10000
	DeciderName  string
	Workers      int // per-student parallelism, default 4
}

const (
	defaultMaxFileBytes = 4 << 20
	defaultMaxRows      = 10000
	defaultWorkers      = 4
	defaultDeciderName  = "attendance-reconciler"
)

func (o Options) withDefaults() Options {
	if o.MaxFileBytes <= 0 {
		o.MaxFileBytes = defaultMaxFileBytes
	}
	if o.MaxRows <= 0 {
		o.MaxRows = defaultMaxRows
	}
	if o.Workers <= 0 {
		o.Workers = defaultWorkers
	}
	if o.DeciderName == "" {
		o.DeciderName = defaultDeciderName
	}
	return o
}

// =============================================================================
// OUTCOMES
// =============================================================================

const OutcomeAlreadyExists = "Leave already exists"
const OutcomeGenerated = "LWP generated"

// DayOutcome records what happened to one row.
type DayOutcome struct {
	StudentID     string
	Date          academic.Date
	Outcome       string
	ApplicationID string // set when a leave was generated
	Err           string // set when the row failed
}

// StudentSummary aggregates outcomes per student.
type StudentSummary struct {
	StudentID       string
	Processed       int
	LeavesGenerated int
	Skipped         int
	Errors          int
}

// Summary is the batch result. Row failures are isolated here, never
// propagated as a batch error.
type Summary struct {
	BatchID         string
	Processed       int
	LeavesGenerated int
	Skipped         int
	Errors          int
	Students        []StudentSummary
	Days            []DayOutcome
}

// =============================================================================
// RECONCILER
// =============================================================================

type Reconciler struct {
	Leaves *leave.Service
	Audit  leave.AuditLog // optional
	Opts   Options
}

func New(leaves *leave.Service) *Reconciler {
	return &Reconciler{Leaves: leaves}
}

// ReconcileFile parses a CSV body (header optional, columns
// student_id,date) and reconciles the rows. Returns an error only for an
// unreadable or oversized file; row-level problems land in the summary.
func (r *Reconciler) ReconcileFile(ctx context.Context, file io.Reader) (*Summary, error) {
	opts := r.Opts.withDefaults()

	rows, parseErrs, err := ParseCSV(file, opts)
	if err != nil {
		return nil, err
	}

	summary := r.ReconcileRows(ctx, rows)
	for _, pe := range parseErrs {
		summary.Errors++
		summary.Days = append(summary.Days, pe)
	}
	return summary, nil
}

// ReconcileRows processes pre-parsed rows. Rows are grouped per student;
// students run in parallel, each student's dates strictly in order so
// the per-student-per-date existence check never races itself.
func (r *Reconciler) ReconcileRows(ctx context.Context, rows []Row) *Summary {
	opts := r.Opts.withDefaults()
	decider := leave.SystemApprover{Name: opts.DeciderName}

	byStudent := make(map[string][]Row)
	for _, row := range rows {
		byStudent[row.StudentID] = append(byStudent[row.StudentID], row)
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		sem     = make(chan struct{}, opts.Workers)
		summary = &Summary{BatchID: uuid.NewString()}
	)

	for studentID, studentRows := range byStudent {
		wg.Add(1)
		sem <- struct{}{}
		go func(studentID string, studentRows []Row) {
			defer wg.Done()
			defer func() { <-sem }()

			sort.Slice(studentRows, func(i, j int) bool {
				return studentRows[i].Date.Before(studentRows[j].Date)
			})

			ss := StudentSummary{StudentID: studentID}
			var outcomes []DayOutcome

			for _, row := range studentRows {
				ss.Processed++
				outcome := r.reconcileDay(ctx, row, decider)
				switch {
				case outcome.Err != "":
					ss.Errors++
				case outcome.Outcome == OutcomeAlreadyExists:
					ss.Skipped++
				default:
					ss.LeavesGenerated++
				}
				outcomes = append(outcomes, outcome)
			}

			mu.Lock()
			summary.Processed += ss.Processed
			summary.LeavesGenerated += ss.LeavesGenerated
			summary.Skipped += ss.Skipped
			summary.Errors += ss.Errors
			summary.Students = append(summary.Students, ss)
			summary.Days = append(summary.Days, outcomes...)
			mu.Unlock()
		}(studentID, studentRows)
	}
	wg.Wait()

	sort.Slice(summary.Students, func(i, j int) bool {
		return summary.Students[i].StudentID < summary.Students[j].StudentID
	})
	sort.Slice(summary.Days, func(i, j int) bool {
		if summary.Days[i].StudentID != summary.Days[j].StudentID {
			return summary.Days[i].StudentID < summary.Days[j].StudentID
		}
		return summary.Days[i].Date.Before(summary.Days[j].Date)
	})

	r.auditBatch(ctx, decider, summary)
	return summary
}

func (r *Reconciler) reconcileDay(ctx context.Context, row Row, decider leave.SystemApprover) DayOutcome {
	out := DayOutcome{StudentID: row.StudentID, Date: row.Date}

	app, err := r.Leaves.CoverAbsence(ctx, row.StudentID, row.Date, decider)
	switch {
	case errors.Is(err, leave.ErrDateCovered):
		out.Outcome = OutcomeAlreadyExists
	case err != nil:
		out.Err = err.Error()
	default:
		out.Outcome = OutcomeGenerated
		out.ApplicationID = app.ID
	}
	return out
}

func (r *Reconciler) auditBatch(ctx context.Context, decider leave.SystemApprover, s *Summary) {
	if r.Audit == nil {
		return
	}
	_ = r.Audit.AppendAudit(ctx, leave.AuditEntry{
		ID:      uuid.NewString(),
		At:      time.Now().UTC(),
		ActorID: decider.ActorID(),
		Action:  leave.AuditReconcilerBatch,
		RefID:   s.BatchID,
		Detail: fmt.Sprintf("processed=%d generated=%d skipped=%d errors=%d",
			s.Processed, s.LeavesGenerated, s.Skipped, s.Errors),
	})
}

// =============================================================================
// CSV PARSING
// =============================================================================

// ParseCSV reads at most MaxFileBytes and MaxRows. Malformed rows become
// DayOutcome errors rather than failing the parse; only an oversized or
// unreadable file is a hard error.
func ParseCSV(file io.Reader, opts Options) ([]Row, []DayOutcome, error) {
	opts = opts.withDefaults()

	limited := io.LimitReader(file, opts.MaxFileBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, nil, fmt.Errorf("read attendance file: %w", err)
	}
	if int64(len(data)) > opts.MaxFileBytes {
		return nil, nil, &leave.ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("exceeds %d byte limit", opts.MaxFileBytes),
		}
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		rows     []Row
		parseErr []DayOutcome
		lineNo   int
	)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNo++
		if err != nil {
			parseErr = append(parseErr, DayOutcome{Err: fmt.Sprintf("line %d: %v", lineNo, err)})
			continue
		}
		if lineNo == 1 && isHeader(record) {
			continue
		}
		if len(rows) >= opts.MaxRows {
			return nil, nil, &leave.ValidationError{
				Field:   "file",
				Message: fmt.Sprintf("exceeds %d row limit", opts.MaxRows),
			}
		}

		row, rerr := parseRecord(record)
		if rerr != "" {
			parseErr = append(parseErr, DayOutcome{Err: fmt.Sprintf("line %d: %s", lineNo, rerr)})
			continue
		}
		rows = append(rows, row)
	}

	return rows, parseErr, nil
}

func parseRecord(record []string) (Row, string) {
	if len(record) < 2 {
		return Row{}, "expected student_id,date"
	}
	studentID := strings.TrimSpace(record[0])
	if studentID == "" {
		return Row{}, "empty student_id"
	}
	date, err := academic.ParseDate(strings.TrimSpace(record[1]))
	if err != nil {
		return Row{}, fmt.Sprintf("bad date %q", record[1])
	}
	return Row{StudentID: studentID, Date: date}, ""
}

func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(record[0]))
	return first == "student_id" || first == "studentid" || first == "student"
}
