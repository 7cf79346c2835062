// Package preflight classifies DDL statements before they are executed,
// using TiDB's SQL parser. The repair planner only emits a handful of
// statement shapes, but the classifier also handles anything else it is
// handed via a keyword fallback.
package preflight

import (
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // required to register TiDB parser driver implementations
)

// StatementAnalysis contains the results of analyzing a SQL statement.
type StatementAnalysis struct {
	StatementType        string
	IsBlocking           bool
	BlockingReasons      []string
	IsDestructive        bool
	DestructiveReason    string
	CausesImplicitCommit bool
}

// StatementAnalyzer uses TiDB's AST parser for reliable SQL analysis.
type StatementAnalyzer struct {
	parser *parser.Parser
}

// NewStatementAnalyzer creates a new AST-based statement analyzer.
func NewStatementAnalyzer() *StatementAnalyzer {
	return &StatementAnalyzer{
		parser: parser.New(),
	}
}

// AnalyzeStatement parses a single SQL statement and returns analysis
// results. Unparseable input falls back to keyword classification.
func (a *StatementAnalyzer) AnalyzeStatement(sql string) *StatementAnalysis {
	stmtNodes, _, err := a.parser.Parse(sql, "", "")
	if err != nil || len(stmtNodes) == 0 {
		return a.classifyByKeyword(sql)
	}
	return a.classifyNode(stmtNodes[0], sql)
}

func (a *StatementAnalyzer) classifyNode(node ast.StmtNode, originalSQL string) *StatementAnalysis {
	analysis := &StatementAnalysis{}

	switch stmt := node.(type) {
	case *ast.AlterTableStmt:
		analysis.StatementType = "ALTER TABLE"
		analysis.CausesImplicitCommit = true
		a.classifyAlterTable(stmt, analysis)
	case *ast.DropIndexStmt:
		analysis.StatementType = "DROP INDEX"
		analysis.CausesImplicitCommit = true
		analysis.IsBlocking = true
		analysis.BlockingReasons = append(analysis.BlockingReasons,
			"DROP INDEX may briefly lock the table")
	case *ast.CreateIndexStmt:
		analysis.StatementType = "CREATE INDEX"
		analysis.CausesImplicitCommit = true
		analysis.IsBlocking = true
		analysis.BlockingReasons = append(analysis.BlockingReasons,
			"CREATE INDEX may lock the table for the duration of index creation")
	case *ast.DropTableStmt:
		analysis.StatementType = "DROP TABLE"
		analysis.CausesImplicitCommit = true
		analysis.IsDestructive = true
		analysis.DestructiveReason = "DROP TABLE will permanently delete the table and all its data"
	case *ast.TruncateTableStmt:
		analysis.StatementType = "TRUNCATE TABLE"
		analysis.CausesImplicitCommit = true
		analysis.IsDestructive = true
		analysis.DestructiveReason = "TRUNCATE TABLE will delete all rows from the table"
		analysis.IsBlocking = true
		analysis.BlockingReasons = append(analysis.BlockingReasons,
			"TRUNCATE TABLE acquires an exclusive lock")
	case *ast.SelectStmt:
		analysis.StatementType = "SELECT"
	default:
		return a.classifyByKeyword(originalSQL)
	}

	return analysis
}

func (a *StatementAnalyzer) classifyAlterTable(stmt *ast.AlterTableStmt, analysis *StatementAnalysis) {
	for _, spec := range stmt.Specs {
		switch spec.Tp {
		case ast.AlterTableDropIndex:
			analysis.IsBlocking = true
			analysis.BlockingReasons = append(analysis.BlockingReasons,
				"DROP INDEX may briefly lock the table")
		case ast.AlterTableAddConstraint:
			a.classifyAddConstraint(spec, analysis)
		}
	}
}

func (a *StatementAnalyzer) classifyAddConstraint(spec *ast.AlterTableSpec, analysis *StatementAnalysis) {
	analysis.IsBlocking = true
	if spec.Constraint == nil {
		analysis.BlockingReasons = append(analysis.BlockingReasons,
			"ADD CONSTRAINT may lock the table while validating existing data")
		return
	}

	switch spec.Constraint.Tp {
	case ast.ConstraintUniq, ast.ConstraintUniqKey, ast.ConstraintUniqIndex:
		analysis.BlockingReasons = append(analysis.BlockingReasons,
			"ADD UNIQUE INDEX may lock the table while existing rows are checked for duplicates")
	case ast.ConstraintIndex, ast.ConstraintKey:
		analysis.BlockingReasons = append(analysis.BlockingReasons,
			"ADD INDEX may lock the table for the duration of index creation on large tables")
	case ast.ConstraintForeignKey:
		analysis.BlockingReasons = append(analysis.BlockingReasons,
			"ADD FOREIGN KEY may lock the table while validating existing data")
	default:
		analysis.BlockingReasons = append(analysis.BlockingReasons,
			"ADD CONSTRAINT may lock the table while validating existing data")
	}
}

func (a *StatementAnalyzer) classifyByKeyword(originalSQL string) *StatementAnalysis {
	analysis := &StatementAnalysis{StatementType: "OTHER"}
	upper := strings.ToUpper(strings.TrimSpace(originalSQL))

	if strings.HasPrefix(upper, "CREATE ") ||
		strings.HasPrefix(upper, "DROP ") ||
		strings.HasPrefix(upper, "ALTER ") ||
		strings.HasPrefix(upper, "TRUNCATE ") {
		analysis.CausesImplicitCommit = true
	}
	return analysis
}
