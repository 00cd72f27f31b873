/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements persistence for the whole engine on one handle. In
  production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

INTERFACES IMPLEMENTED:
  leave.Store:       students, applications, entitlement ledger
  leave.AuditLog:    append-only audit trail
  scholarship.Cache: closed-month payout records

KEY TABLES:
  students:            profile, quotas, scholarship base, onboarding state
  applications:        leave requests with their immutable decision record
  ledger:              per (student, type, academic year) quota/used counters
  scholarship_records: cached closed-month payouts
  audit_log:           append-only action trail

DECISION ATOMICITY:
  ApplyDecision runs the status flip and the ledger increment in one
  database transaction. The flip is version-guarded:

    UPDATE applications ... WHERE id = ? AND version = ? AND status = 'PENDING'

  Zero rows affected means a concurrent decision won; the caller gets
  ErrConflict and nothing is written. The ledger increment is an UPSERT
  with "used = used + ?", never a read-modify-write.

COVERED-DATE GUARD:
  SaveApplicationIfUncovered checks and inserts inside one transaction
  under the store mutex, so the reconciler cannot race a concurrent
  manual submission into a duplicate day.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - leave/store.go: interface definitions and atomicity contract
  - store/memstore: in-memory draft cache
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/campuskit/leave-engine/academic"
	"github.com/campuskit/leave-engine/leave"
	"github.com/campuskit/leave-engine/scholarship"
)

// Store implements leave.Store, leave.AuditLog and scholarship.Cache.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Students
	CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		employee_no TEXT NOT NULL DEFAULT '',
		guide_id TEXT NOT NULL DEFAULT '',
		aadhaar_no TEXT NOT NULL DEFAULT '',
		pan_no TEXT NOT NULL DEFAULT '',
		enrollment_year INTEGER NOT NULL DEFAULT 0,
		casual_quota INTEGER NOT NULL DEFAULT 0,
		base_amount INTEGER NOT NULL DEFAULT 0,
		contingency_amount INTEGER NOT NULL DEFAULT 0,
		onboarding TEXT NOT NULL DEFAULT 'PENDING',
		active BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_students_guide
		ON students(guide_id);
	CREATE INDEX IF NOT EXISTS idx_students_onboarding
		ON students(onboarding);

	-- Applications (decision fields written exactly once)
	CREATE TABLE IF NOT EXISTS applications (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		day_count INTEGER NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		document_ref TEXT,
		source TEXT NOT NULL DEFAULT 'portal',
		status TEXT NOT NULL DEFAULT 'PENDING',
		deciding_role TEXT NOT NULL,
		decider_id TEXT,
		decision_reason TEXT,
		decided_at TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_applications_student
		ON applications(student_id);
	CREATE INDEX IF NOT EXISTS idx_applications_status
		ON applications(status);
	CREATE INDEX IF NOT EXISTS idx_applications_type_status
		ON applications(type, status);

	-- Coverage check (hot path for the reconciler)
	CREATE INDEX IF NOT EXISTS idx_applications_student_span
		ON applications(student_id, start_date, end_date)
		WHERE status != 'REJECTED';

	-- Entitlement ledger, one row per (student, type, academic year)
	CREATE TABLE IF NOT EXISTS ledger (
		student_id TEXT NOT NULL,
		type TEXT NOT NULL,
		academic_year INTEGER NOT NULL,
		quota INTEGER NOT NULL DEFAULT 0,
		used INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (student_id, type, academic_year)
	);

	-- Cached closed-month payouts (idempotent overwrite)
	CREATE TABLE IF NOT EXISTS scholarship_records (
		student_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		base_amount TEXT NOT NULL,
		per_day_rate TEXT NOT NULL,
		lwp_days_records INTEGER NOT NULL,
		lwp_days_overflow INTEGER NOT NULL,
		lwp_days INTEGER NOT NULL,
		lwp_deduction TEXT NOT NULL,
		final_amount TEXT NOT NULL,
		needs_review BOOLEAN NOT NULL DEFAULT FALSE,
		warnings_json TEXT,
		computed_at TEXT NOT NULL,
		PRIMARY KEY (student_id, year, month)
	);

	-- Audit trail (append-only; no UPDATE or DELETE ever issued)
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		at TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		student_id TEXT,
		ref_id TEXT,
		detail TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_student
		ON audit_log(student_id, at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// STUDENT STORE (leave.StudentStore interface)
// =============================================================================

// SaveStudent inserts or updates a student record.
func (s *Store) SaveStudent(ctx context.Context, st *leave.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO students (id, name, employee_no, guide_id, aadhaar_no, pan_no,
			enrollment_year, casual_quota, base_amount, contingency_amount,
			onboarding, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			employee_no = excluded.employee_no,
			guide_id = excluded.guide_id,
			aadhaar_no = excluded.aadhaar_no,
			pan_no = excluded.pan_no,
			enrollment_year = excluded.enrollment_year,
			casual_quota = excluded.casual_quota,
			base_amount = excluded.base_amount,
			contingency_amount = excluded.contingency_amount,
			onboarding = excluded.onboarding,
			active = excluded.active,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		st.ID, st.Name, st.EmployeeNo, st.GuideID, st.AadhaarNo, st.PanNo,
		st.EnrollmentYear, st.CasualQuota, st.BaseAmount, st.ContingencyAmount,
		string(st.Onboarding), st.Active,
		st.CreatedAt.UTC().Format(time.RFC3339),
		st.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save student: %w", err)
	}
	return nil
}

// GetStudent retrieves a student by ID. Returns nil, nil when absent.
func (s *Store) GetStudent(ctx context.Context, id string) (*leave.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, employee_no, guide_id, aadhaar_no, pan_no,
			enrollment_year, casual_quota, base_amount, contingency_amount,
			onboarding, active, created_at, updated_at
		 FROM students WHERE id = ?`, id)

	st, err := scanStudent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// ListStudents returns all students ordered by name.
func (s *Store) ListStudents(ctx context.Context) ([]leave.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, employee_no, guide_id, aadhaar_no, pan_no,
			enrollment_year, casual_quota, base_amount, contingency_amount,
			onboarding, active, created_at, updated_at
		 FROM students ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []leave.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *st)
	}
	return students, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*leave.Student, error) {
	var (
		st                   leave.Student
		onboarding           string
		createdAt, updatedAt string
	)
	err := row.Scan(
		&st.ID, &st.Name, &st.EmployeeNo, &st.GuideID, &st.AadhaarNo, &st.PanNo,
		&st.EnrollmentYear, &st.CasualQuota, &st.BaseAmount, &st.ContingencyAmount,
		&onboarding, &st.Active, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	st.Onboarding = leave.OnboardingStatus(onboarding)
	st.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	st.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &st, nil
}

// =============================================================================
// APPLICATION STORE (leave.ApplicationStore interface)
// =============================================================================

// SaveApplication persists a new application.
func (s *Store) SaveApplication(ctx context.Context, app *leave.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertApplication(ctx, s.db, app)
}

// SaveApplicationIfUncovered persists the application only if no
// non-rejected application of the same student already covers any day of
// its span. The check and the insert run in one transaction.
func (s *Store) SaveApplicationIfUncovered(ctx context.Context, app *leave.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM applications
		 WHERE student_id = ? AND status != 'REJECTED'
		   AND start_date <= ? AND end_date >= ?`,
		app.StudentID, app.End.String(), app.Start.String(),
	).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return leave.ErrDateCovered
	}

	if err := s.insertApplication(ctx, tx, app); err != nil {
		return err
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertApplication(ctx context.Context, db execer, app *leave.Application) error {
	query := `
		INSERT INTO applications (id, student_id, type, start_date, end_date, day_count,
			reason, document_ref, source, status, deciding_role,
			decider_id, decision_reason, decided_at, version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var decidedAt *string
	if app.DecidedAt != nil {
		t := app.DecidedAt.UTC().Format(time.RFC3339)
		decidedAt = &t
	}

	_, err := db.ExecContext(ctx, query,
		app.ID, app.StudentID, string(app.Type),
		app.Start.String(), app.End.String(), app.DayCount,
		app.Reason, nullString(app.DocumentRef), string(app.Source),
		string(app.Status), string(app.DecidingRole),
		nullString(app.DeciderID), nullString(app.DecisionReason), decidedAt,
		app.Version,
		app.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save application: %w", err)
	}
	return nil
}

// GetApplication retrieves an application by ID. Returns nil, nil when absent.
func (s *Store) GetApplication(ctx context.Context, id string) (*leave.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	apps, err := s.queryApplications(ctx, applicationColumns+" FROM applications a WHERE a.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(apps) == 0 {
		return nil, nil
	}
	return &apps[0], nil
}

// ListApplications returns applications matching the filter, newest first.
func (s *Store) ListApplications(ctx context.Context, f leave.Filter) ([]leave.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := applicationColumns + " FROM applications a"
	var (
		where []string
		args  []any
	)

	if f.GuideID != "" {
		query += " JOIN students s ON s.id = a.student_id"
		where = append(where, "s.guide_id = ?")
		args = append(args, f.GuideID)
	}
	if f.StudentID != "" {
		where = append(where, "a.student_id = ?")
		args = append(args, f.StudentID)
	}
	if f.Type != "" {
		where = append(where, "a.type = ?")
		args = append(args, string(f.Type))
	}
	if f.Status != "" {
		where = append(where, "a.status = ?")
		args = append(args, string(f.Status))
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY a.created_at DESC, a.id DESC"

	return s.queryApplications(ctx, query, args...)
}

// ApplyDecision flips the application status and, on approval, increments
// the ledger. Both writes commit in one transaction. A stale expected
// version means a concurrent decision already landed: ErrConflict, no
// writes.
func (s *Store) ApplyDecision(ctx context.Context, d leave.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := tx.ExecContext(ctx,
		`UPDATE applications
		 SET status = ?, decider_id = ?, decision_reason = ?, decided_at = ?,
		     version = version + 1
		 WHERE id = ? AND version = ? AND status = 'PENDING'`,
		string(d.Outcome), d.DeciderID, d.Reason, now,
		d.ApplicationID, d.ExpectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to apply decision: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM applications WHERE id = ?", d.ApplicationID,
		).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return &leave.NotFoundError{Kind: "application", ID: d.ApplicationID}
		}
		return &leave.ConflictError{ApplicationID: d.ApplicationID}
	}

	if d.Outcome == leave.StatusApproved {
		// First approval of an unseeded year creates the row with the
		// student's quota; a seeded row keeps whatever quota it has.
		_, err = tx.ExecContext(ctx,
			`INSERT INTO ledger (student_id, type, academic_year, quota, used)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(student_id, type, academic_year) DO UPDATE SET
				used = used + excluded.used`,
			d.StudentID, string(d.Type), int(d.AcademicYear), d.Quota, d.Days,
		)
		if err != nil {
			return fmt.Errorf("failed to increment ledger: %w", err)
		}
	}

	return tx.Commit()
}

const applicationColumns = `
	SELECT a.id, a.student_id, a.type, a.start_date, a.end_date, a.day_count,
	       a.reason, a.document_ref, a.source, a.status, a.deciding_role,
	       a.decider_id, a.decision_reason, a.decided_at, a.version, a.created_at`

func (s *Store) queryApplications(ctx context.Context, query string, args ...any) ([]leave.Application, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	var apps []leave.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func scanApplication(rows *sql.Rows) (leave.Application, error) {
	var (
		app                 leave.Application
		typ, source         string
		startDate, endDate  string
		status, role        string
		docRef, deciderID   sql.NullString
		decisionReason      sql.NullString
		decidedAt           sql.NullString
		createdAt           string
	)

	err := rows.Scan(
		&app.ID, &app.StudentID, &typ, &startDate, &endDate, &app.DayCount,
		&app.Reason, &docRef, &source, &status, &role,
		&deciderID, &decisionReason, &decidedAt, &app.Version, &createdAt,
	)
	if err != nil {
		return app, fmt.Errorf("failed to scan application: %w", err)
	}

	app.Type = leave.Type(typ)
	app.Source = leave.Source(source)
	app.Status = leave.Status(status)
	app.DecidingRole = leave.Role(role)
	app.Start, _ = academic.ParseDate(startDate)
	app.End, _ = academic.ParseDate(endDate)
	app.DocumentRef = docRef.String
	app.DeciderID = deciderID.String
	app.DecisionReason = decisionReason.String
	if decidedAt.Valid {
		t, _ := time.Parse(time.RFC3339, decidedAt.String)
		app.DecidedAt = &t
	}
	app.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return app, nil
}

// =============================================================================
// LEDGER STORE (leave.LedgerStore interface)
// =============================================================================

// SeedLedger creates the (student, type, year) entry with the given quota
// if absent. Re-seeding an existing entry is a no-op.
func (s *Store) SeedLedger(ctx context.Context, studentID string, t leave.Type, year academic.Year, quota int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ledger (student_id, type, academic_year, quota, used)
		 VALUES (?, ?, ?, ?, 0)
		 ON CONFLICT(student_id, type, academic_year) DO NOTHING`,
		studentID, string(t), int(year), quota,
	)
	if err != nil {
		return fmt.Errorf("failed to seed ledger: %w", err)
	}
	return nil
}

// GetLedgerEntry returns the stored entry, or a zero-usage entry when
// none exists.
func (s *Store) GetLedgerEntry(ctx context.Context, studentID string, t leave.Type, year academic.Year) (leave.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry := leave.LedgerEntry{StudentID: studentID, Type: t, AcademicYear: year}

	err := s.db.QueryRowContext(ctx,
		`SELECT quota, used FROM ledger
		 WHERE student_id = ? AND type = ? AND academic_year = ?`,
		studentID, string(t), int(year),
	).Scan(&entry.Quota, &entry.Used)

	if err == sql.ErrNoRows {
		return entry, nil
	}
	if err != nil {
		return entry, err
	}
	return entry, nil
}

// LedgerEntries returns all stored entries for the student in the year.
func (s *Store) LedgerEntries(ctx context.Context, studentID string, year academic.Year) ([]leave.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT type, quota, used FROM ledger
		 WHERE student_id = ? AND academic_year = ?
		 ORDER BY type`,
		studentID, int(year),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []leave.LedgerEntry
	for rows.Next() {
		entry := leave.LedgerEntry{StudentID: studentID, AcademicYear: year}
		var typ string
		if err := rows.Scan(&typ, &entry.Quota, &entry.Used); err != nil {
			return nil, err
		}
		entry.Type = leave.Type(typ)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// =============================================================================
// SCHOLARSHIP CACHE (scholarship.Cache interface)
// =============================================================================

// GetRecord retrieves a cached payout record. Returns nil, nil when absent.
func (s *Store) GetRecord(ctx context.Context, studentID string, m academic.Month) (*scholarship.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		rec                              scholarship.Record
		base, perDay, deduction, final   string
		warningsJSON                     sql.NullString
		computedAt                       string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT base_amount, per_day_rate, lwp_days_records, lwp_days_overflow,
			lwp_days, lwp_deduction, final_amount, needs_review, warnings_json, computed_at
		 FROM scholarship_records
		 WHERE student_id = ? AND year = ? AND month = ?`,
		studentID, m.Year, int(m.Month),
	).Scan(&base, &perDay, &rec.LwpDaysFromRecords, &rec.LwpDaysFromOverflow,
		&rec.LwpDays, &deduction, &final, &rec.NeedsReview, &warningsJSON, &computedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.StudentID = studentID
	rec.Month = m
	rec.BaseAmount, _ = decimal.NewFromString(base)
	rec.PerDayRate, _ = decimal.NewFromString(perDay)
	rec.LwpDeduction, _ = decimal.NewFromString(deduction)
	rec.FinalAmount, _ = decimal.NewFromString(final)
	if warningsJSON.Valid && warningsJSON.String != "" {
		json.Unmarshal([]byte(warningsJSON.String), &rec.Warnings)
	}
	rec.ComputedAt, _ = time.Parse(time.RFC3339, computedAt)

	return &rec, nil
}

// PutRecord caches a payout record, overwriting any previous one for the
// same (student, year, month).
func (s *Store) PutRecord(ctx context.Context, rec scholarship.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	warningsJSON, _ := json.Marshal(rec.Warnings)

	query := `
		INSERT INTO scholarship_records (student_id, year, month, base_amount,
			per_day_rate, lwp_days_records, lwp_days_overflow, lwp_days,
			lwp_deduction, final_amount, needs_review, warnings_json, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(student_id, year, month) DO UPDATE SET
			base_amount = excluded.base_amount,
			per_day_rate = excluded.per_day_rate,
			lwp_days_records = excluded.lwp_days_records,
			lwp_days_overflow = excluded.lwp_days_overflow,
			lwp_days = excluded.lwp_days,
			lwp_deduction = excluded.lwp_deduction,
			final_amount = excluded.final_amount,
			needs_review = excluded.needs_review,
			warnings_json = excluded.warnings_json,
			computed_at = excluded.computed_at
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.StudentID, rec.Month.Year, int(rec.Month.Month),
		rec.BaseAmount.String(), rec.PerDayRate.String(),
		rec.LwpDaysFromRecords, rec.LwpDaysFromOverflow, rec.LwpDays,
		rec.LwpDeduction.String(), rec.FinalAmount.String(),
		rec.NeedsReview, string(warningsJSON),
		rec.ComputedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save scholarship record: %w", err)
	}
	return nil
}

// =============================================================================
// AUDIT LOG (leave.AuditLog interface)
// =============================================================================

// AppendAudit adds an entry to the trail.
func (s *Store) AppendAudit(ctx context.Context, e leave.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, at, actor_id, action, student_id, ref_id, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.At.UTC().Format(time.RFC3339), e.ActorID, string(e.Action),
		nullString(e.StudentID), nullString(e.RefID), nullString(e.Detail),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// QueryAudit returns entries for a student, newest first. An empty
// studentID returns entries across all students.
func (s *Store) QueryAudit(ctx context.Context, studentID string, limit int) ([]leave.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, at, actor_id, action, student_id, ref_id, detail
		FROM audit_log
	`
	var args []any
	if studentID != "" {
		query += " WHERE student_id = ?"
		args = append(args, studentID)
	}
	query += " ORDER BY at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []leave.AuditEntry
	for rows.Next() {
		var (
			e                       leave.AuditEntry
			at, action              string
			studentID, refID, detail sql.NullString
		)
		if err := rows.Scan(&e.ID, &at, &e.ActorID, &action, &studentID, &refID, &detail); err != nil {
			return nil, err
		}
		e.At, _ = time.Parse(time.RFC3339, at)
		e.Action = leave.AuditAction(action)
		e.StudentID = studentID.String
		e.RefID = refID.String
		e.Detail = detail.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"applications", "ledger", "scholarship_records", "audit_log", "students"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
