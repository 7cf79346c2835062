package repair

import (
	"fmt"
	"strings"

	"fkrepair/internal/inspect"
)

// Classification of one foreign key parent target.
type Classification int

const (
	// ClassAlreadyUnique means the target column already carries a
	// uniqueness guarantee and nothing needs to happen.
	ClassAlreadyUnique Classification = iota
	// ClassNeedsFix means stale non-unique indexes must be removed and a
	// unique index created.
	ClassNeedsFix
)

// TargetPlan is the repair decision for one (table, column) target.
type TargetPlan struct {
	Table       string
	Column      string
	Class       Classification
	DropIndexes []string
	UniqueIndex string
}

// targetKey dedupes parent targets across foreign key edges. Each target is
// classified at most once per run no matter how many children reference it.
func targetKey(table, column string) string {
	return table + "." + column
}

// IsUUIDLike reports whether a column qualifies for uniqueness repair: a
// 36-character char/varchar, a column named exactly "uuid", or any column
// name with the "_uuid" suffix. The heuristic can mislabel other fixed-width
// strings; it is kept as-is so the set of mutated columns stays stable.
func IsUUIDLike(col inspect.ColumnInfo) bool {
	if col.Name == "uuid" || strings.HasSuffix(col.Name, "_uuid") {
		return true
	}
	switch strings.ToLower(col.DataType) {
	case "char", "varchar":
		return col.CharMaxLength.Valid && col.CharMaxLength.Int64 == 36
	}
	return false
}

// UniqueIndexName returns the deterministic name of the unique index the
// repair creates for a target column.
func UniqueIndexName(table, column string) string {
	return fmt.Sprintf("%s_%s_unique", table, column)
}

// buildPlan classifies a target given its constraint status and the indexes
// currently covering the column. Unique and primary indexes are never
// dropped; everything else on the column is stale once the unique index
// replaces it.
func buildPlan(table, column string, hasGuarantee bool, indexes []inspect.IndexInfo) TargetPlan {
	plan := TargetPlan{Table: table, Column: column}
	if hasGuarantee {
		plan.Class = ClassAlreadyUnique
		return plan
	}

	plan.Class = ClassNeedsFix
	for _, idx := range indexes {
		if idx.Unique || idx.Primary {
			continue
		}
		plan.DropIndexes = append(plan.DropIndexes, idx.Name)
	}
	plan.UniqueIndex = UniqueIndexName(table, column)
	return plan
}

func dropIndexStatement(table, index string) string {
	return fmt.Sprintf("ALTER TABLE `%s` DROP INDEX `%s`", table, index)
}

func addUniqueIndexStatement(table, index, column string) string {
	return fmt.Sprintf("ALTER TABLE `%s` ADD UNIQUE INDEX `%s` (`%s`)", table, index, column)
}
