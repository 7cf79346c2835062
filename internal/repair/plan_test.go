package repair

import (
	"database/sql"
	"testing"

	"fkrepair/internal/inspect"

	"github.com/stretchr/testify/assert"
)

func column(name, dataType string, length int64) inspect.ColumnInfo {
	info := inspect.ColumnInfo{Table: "orders", Name: name, DataType: dataType}
	if length > 0 {
		info.CharMaxLength = sql.NullInt64{Int64: length, Valid: true}
	}
	return info
}

var uuidLikeTests = []struct {
	name string
	col  inspect.ColumnInfo
	want bool
}{
	{
		name: "varchar(36) qualifies regardless of name",
		col:  column("external_id", "varchar", 36),
		want: true,
	},
	{
		name: "char(36) qualifies",
		col:  column("ref", "char", 36),
		want: true,
	},
	{
		name: "column named uuid qualifies regardless of type",
		col:  column("uuid", "binary", 16),
		want: true,
	},
	{
		name: "_uuid suffix qualifies regardless of type",
		col:  column("parent_uuid", "bigint", 0),
		want: true,
	},
	{
		name: "varchar(10) never qualifies",
		col:  column("label", "varchar", 10),
		want: false,
	},
	{
		name: "varchar(37) does not qualify",
		col:  column("code", "varchar", 37),
		want: false,
	},
	{
		name: "int does not qualify",
		col:  column("status", "int", 0),
		want: false,
	},
	{
		name: "uuid substring without suffix does not qualify",
		col:  column("uuidish", "varchar", 64),
		want: false,
	},
	{
		name: "uppercase type from metadata still matches",
		col:  column("ref", "VARCHAR", 36),
		want: true,
	},
}

func TestIsUUIDLike(t *testing.T) {
	for _, tt := range uuidLikeTests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUUIDLike(tt.col))
		})
	}
}

func TestUniqueIndexName(t *testing.T) {
	assert.Equal(t, "parent_table_parent_uuid_unique", UniqueIndexName("parent_table", "parent_uuid"))
	assert.Equal(t, "telematics_uuid_unique", UniqueIndexName("telematics", "uuid"))
}

func TestTargetKeyDedup(t *testing.T) {
	seen := map[string]bool{}
	edges := [][2]string{
		{"customers", "uuid"},
		{"customers", "uuid"},
		{"suppliers", "external_id"},
	}

	var visited []string
	for _, edge := range edges {
		key := targetKey(edge[0], edge[1])
		if seen[key] {
			continue
		}
		seen[key] = true
		visited = append(visited, key)
	}

	assert.Equal(t, []string{"customers.uuid", "suppliers.external_id"}, visited)
}

func TestBuildPlanAlreadyUnique(t *testing.T) {
	plan := buildPlan("customers", "uuid", true, []inspect.IndexInfo{
		{Table: "customers", Column: "uuid", Name: "idx_customers_uuid"},
	})

	assert.Equal(t, ClassAlreadyUnique, plan.Class)
	assert.Empty(t, plan.DropIndexes)
	assert.Empty(t, plan.UniqueIndex)
}

func TestBuildPlanDropsOnlyStaleIndexes(t *testing.T) {
	indexes := []inspect.IndexInfo{
		{Name: "PRIMARY", Unique: true, Primary: true},
		{Name: "uniq_legacy", Unique: true},
		{Name: "idx_a"},
		{Name: "idx_b"},
	}

	plan := buildPlan("customers", "uuid", false, indexes)

	assert.Equal(t, ClassNeedsFix, plan.Class)
	assert.Equal(t, []string{"idx_a", "idx_b"}, plan.DropIndexes)
	assert.Equal(t, "customers_uuid_unique", plan.UniqueIndex)
}

func TestBuildPlanNoIndexes(t *testing.T) {
	plan := buildPlan("telematics", "uuid", false, nil)

	assert.Equal(t, ClassNeedsFix, plan.Class)
	assert.Empty(t, plan.DropIndexes)
	assert.Equal(t, "telematics_uuid_unique", plan.UniqueIndex)
}

func TestStatementRendering(t *testing.T) {
	assert.Equal(t,
		"ALTER TABLE `customers` DROP INDEX `idx_customers_uuid`",
		dropIndexStatement("customers", "idx_customers_uuid"))
	assert.Equal(t,
		"ALTER TABLE `customers` ADD UNIQUE INDEX `customers_uuid_unique` (`uuid`)",
		addUniqueIndexStatement("customers", "customers_uuid_unique", "uuid"))
}
