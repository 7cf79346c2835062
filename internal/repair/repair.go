// Package repair detects foreign key target columns that lack a uniqueness
// guarantee and adds the missing unique indexes. The scan is re-derived from
// live metadata on every run, so rerunning against an already repaired
// schema performs no mutating statements.
package repair

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"fkrepair/internal/inspect"
	"fkrepair/internal/preflight"
)

// The telematics.uuid target is about to become the parent of a foreign key
// added by a later schema change, so foreign key discovery cannot see it
// yet. It is repaired up front, and a failure here aborts the run because
// the later change depends on it.
const (
	precheckTable  = "telematics"
	precheckColumn = "uuid"
)

// Options contains the settings for one repair run.
type Options struct {
	DSN    string
	DryRun bool
	Out    io.Writer
}

// Summary holds the per-run counters. It is rebuilt from scratch on every
// invocation and never persisted.
type Summary struct {
	AlreadyUnique int `json:"alreadyUnique"`
	Fixed         int `json:"fixed"`
	Failed        int `json:"failed"`
}

// Changed reports whether the run modified the schema.
func (s *Summary) Changed() bool {
	return s.Fixed > 0
}

// Repairer connects to a database and runs the uniqueness repair pass.
type Repairer struct {
	db        *sql.DB
	inspector *inspect.Inspector
	analyzer  *preflight.StatementAnalyzer
	options   Options
	out       io.Writer
}

// NewRepairer returns a Repairer with the provided options.
func NewRepairer(options Options) *Repairer {
	out := options.Out
	if out == nil {
		out = io.Discard
	}
	return &Repairer{
		options:  options,
		analyzer: preflight.NewStatementAnalyzer(),
		out:      out,
	}
}

func (r *Repairer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func (r *Repairer) println(args ...any) {
	_, _ = fmt.Fprintln(r.out, args...)
}

// Connect establishes a connection with the target database, pings it, and
// resolves the schema name from the DSN.
// If something went wrong, returns an error, otherwise nil.
func (r *Repairer) Connect(ctx context.Context) error {
	db, err := sql.Open("mysql", r.options.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			return fmt.Errorf("failed to ping database: %v; additionally failed to close connection: %w", pingErr, closeErr)
		}
		return fmt.Errorf("failed to ping database: %w", pingErr)
	}

	schema, err := inspect.CurrentSchema(ctx, db)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return fmt.Errorf("%v; additionally failed to close connection: %w", err, closeErr)
		}
		return err
	}

	r.db = db
	r.inspector = inspect.NewInspector(db, schema)
	return nil
}

// Close closes the database connection.
// If something went wrong, returns an error, otherwise nil.
func (r *Repairer) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// EnsureTargetUniqueness runs the full repair pass: the mandatory pre-check
// first, then a scan over every distinct foreign key parent target. Only a
// pre-check failure aborts the run; scan-stage failures are logged and
// counted, and the pass continues with the next target.
func (r *Repairer) EnsureTargetUniqueness(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	if err := r.ensurePrecheckTarget(ctx, summary); err != nil {
		return nil, err
	}

	edges, err := r.inspector.ListForeignKeyEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to discover foreign key references: %w", err)
	}
	r.printf("Found %d foreign key reference(s)\n", len(edges))

	seen := map[string]bool{
		targetKey(precheckTable, precheckColumn): true,
	}
	for _, edge := range edges {
		key := targetKey(edge.ParentTable, edge.ParentColumn)
		if seen[key] {
			continue
		}
		seen[key] = true
		r.repairTarget(ctx, edge.ParentTable, edge.ParentColumn, summary)
	}

	r.printf("Summary: %d already unique, %d fixed, %d failed\n",
		summary.AlreadyUnique, summary.Fixed, summary.Failed)
	if summary.Changed() {
		r.println("Schema was modified to guarantee foreign key target uniqueness")
	} else {
		r.println("No schema changes were required")
	}
	return summary, nil
}

// Revert is intentionally a no-op. The unique indexes created by the repair
// are not tracked anywhere, so there is nothing reliable to undo.
func (r *Repairer) Revert(_ context.Context) error {
	r.println("revert is not supported: created unique indexes are not tracked; nothing to undo")
	return nil
}

// ensurePrecheckTarget verifies the hardcoded target's uniqueness and
// repairs it when missing. Unlike the scan stage, a creation failure here is
// fatal: every downstream schema change depends on this index.
func (r *Repairer) ensurePrecheckTarget(ctx context.Context, summary *Summary) error {
	unique, err := r.inspector.HasUniquenessGuarantee(ctx, precheckTable, precheckColumn)
	if err != nil {
		return fmt.Errorf("pre-check failed for %s.%s: %w", precheckTable, precheckColumn, err)
	}
	if unique {
		r.printf("%s.%s: already unique\n", precheckTable, precheckColumn)
		summary.AlreadyUnique++
		return nil
	}

	indexName := UniqueIndexName(precheckTable, precheckColumn)
	stmt := addUniqueIndexStatement(precheckTable, indexName, precheckColumn)
	if err := r.execute(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create unique index %s: %w", indexName, err)
	}
	r.printf("%s.%s: created unique index %s\n", precheckTable, precheckColumn, indexName)
	summary.Fixed++
	return nil
}

// repairTarget classifies one parent target and applies its plan. Failures
// are logged and counted; they never abort the scan.
func (r *Repairer) repairTarget(ctx context.Context, table, column string, summary *Summary) {
	col, found, err := r.inspector.DescribeColumn(ctx, table, column)
	if err != nil {
		r.printf("%s.%s: metadata lookup failed: %v\n", table, column, err)
		summary.Failed++
		return
	}
	if !found {
		// Column vanished since the edges were read. The discovery
		// snapshot may be stale; skip without noise.
		return
	}

	if !IsUUIDLike(col) {
		return
	}

	unique, err := r.inspector.HasUniquenessGuarantee(ctx, table, column)
	if err != nil {
		r.printf("%s.%s: constraint lookup failed: %v\n", table, column, err)
		summary.Failed++
		return
	}
	if unique {
		r.printf("%s.%s: already unique\n", table, column)
		summary.AlreadyUnique++
		return
	}

	indexes, err := r.inspector.ListColumnIndexes(ctx, table, column)
	if err != nil {
		r.printf("%s.%s: index lookup failed: %v\n", table, column, err)
		summary.Failed++
		return
	}

	plan := buildPlan(table, column, false, indexes)

	for _, name := range plan.DropIndexes {
		if err := r.execute(ctx, dropIndexStatement(table, name)); err != nil {
			// A stale index left behind is latent, not blocking.
			r.printf("%s.%s: failed to drop index %s: %v\n", table, column, name, err)
		}
	}

	stmt := addUniqueIndexStatement(table, plan.UniqueIndex, column)
	if err := r.execute(ctx, stmt); err != nil {
		r.printf("%s.%s: failed to create unique index %s: %v\n", table, column, plan.UniqueIndex, err)
		summary.Failed++
		return
	}
	r.printf("%s.%s: created unique index %s\n", table, column, plan.UniqueIndex)
	summary.Fixed++
}

// execute logs a statement with its preflight classification, then runs it
// unless this is a dry run.
func (r *Repairer) execute(ctx context.Context, stmt string) error {
	verb := "exec"
	if r.options.DryRun {
		verb = "plan"
	}
	r.printf("%s: %s\n", verb, stmt)

	analysis := r.analyzer.AnalyzeStatement(stmt)
	for _, reason := range analysis.BlockingReasons {
		r.printf("  note: %s\n", reason)
	}

	if r.options.DryRun {
		return nil
	}
	_, err := r.db.ExecContext(ctx, stmt)
	return err
}
