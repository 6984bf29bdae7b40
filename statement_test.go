package sqlload_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/uniqsoft/sqlload"
)

func catalogFromFiles(t *testing.T, files map[string]string) *sqlload.Catalog {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeMapping(t, dir, name, content)
	}
	catalog, err := sqlload.NewCatalog(dir, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return catalog
}

func mysqlBuilder(t *testing.T, files map[string]string) *sqlload.Builder {
	t.Helper()
	return sqlload.NewBuilder(sqlload.DialectMySQL, catalogFromFiles(t, files), zerolog.Nop())
}

const orderTableMapping = `{
	"tableName": "orders",
	"columns": [
		{"propertyName": "RecipientName", "databaseColumn": "수취인명", "dataType": "VARCHAR", "isRequired": true},
		{"propertyName": "Quantity", "databaseColumn": "수량", "dataType": "INT"}
	]
}`

func TestBuildInsert_MappedColumns(t *testing.T) {
	b := mysqlBuilder(t, map[string]string{"orders.json": orderTableMapping})

	rec := sqlload.NewRecord().Set("RecipientName", "Kim").Set("Quantity", 5)
	stmt, err := b.BuildInsert("orders", rec)
	if err != nil {
		t.Fatalf("BuildInsert: %v", err)
	}

	want := "INSERT INTO orders (`수취인명`, `수량`) VALUES (@RecipientName, @Quantity)"
	if stmt.SQL != want {
		t.Fatalf("sql = %q, want %q", stmt.SQL, want)
	}
	if len(stmt.Params) != 2 || stmt.Params["RecipientName"] != "Kim" || stmt.Params["Quantity"] != 5 {
		t.Fatalf("params = %#v", stmt.Params)
	}
}

func TestBuildInsert_ExclusionAndAbsence(t *testing.T) {
	b := mysqlBuilder(t, map[string]string{"orders.json": `{
		"tableName": "orders",
		"columns": [
			{"propertyName": "Id", "databaseColumn": "id", "dataType": "BIGINT", "isAutoIncrement": true, "excludeFromInsert": true},
			{"propertyName": "RecipientName", "databaseColumn": "recipient", "dataType": "VARCHAR", "isRequired": true},
			{"propertyName": "Memo", "databaseColumn": "memo", "dataType": "TEXT"}
		]
	}`})

	t.Run("excluded_column_never_emitted", func(t *testing.T) {
		rec := sqlload.NewRecord().Set("Id", 99).Set("RecipientName", "Kim").Set("Memo", "x")
		stmt, err := b.BuildInsert("orders", rec)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(stmt.SQL, "`id`") {
			t.Fatalf("excluded column appeared: %s", stmt.SQL)
		}
		if _, ok := stmt.Params["Id"]; ok {
			t.Fatalf("excluded column bound a parameter: %#v", stmt.Params)
		}
	})

	t.Run("required_absent_column_omitted", func(t *testing.T) {
		rec := sqlload.NewRecord().Set("Memo", "no recipient")
		stmt, err := b.BuildInsert("orders", rec)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(stmt.SQL, "recipient") {
			t.Fatalf("absent required column should be omitted, got %s", stmt.SQL)
		}
	})

	t.Run("present_null_binds_null", func(t *testing.T) {
		rec := sqlload.NewRecord().Set("RecipientName", "Kim").Set("Memo", nil)
		stmt, err := b.BuildInsert("orders", rec)
		if err != nil {
			t.Fatal(err)
		}
		v, ok := stmt.Params["Memo"]
		if !ok || v != nil {
			t.Fatalf("null value must bind as NULL parameter, params = %#v", stmt.Params)
		}
	})
}

func TestBuildInsert_ReflectiveFallback(t *testing.T) {
	b := mysqlBuilder(t, nil)

	rec := sqlload.NewRecord().Set("order_no", "A100").Set("qty", 3)
	stmt, err := b.BuildInsert("unmapped", rec)
	if err != nil {
		t.Fatalf("BuildInsert: %v", err)
	}
	want := "INSERT INTO unmapped (`order_no`, `qty`) VALUES (@order_no, @qty)"
	if stmt.SQL != want {
		t.Fatalf("sql = %q, want %q", stmt.SQL, want)
	}
}

func TestBuildInsert_Validation(t *testing.T) {
	b := mysqlBuilder(t, map[string]string{"empty.json": `{
		"tableName": "empty",
		"columns": [{"propertyName": "A", "databaseColumn": "a", "excludeFromInsert": true}]
	}`})

	if _, err := b.BuildInsert("", sqlload.NewRecord().Set("a", 1)); !errors.Is(err, sqlload.ErrBlankTableName) {
		t.Fatalf("blank table: err = %v", err)
	}
	if _, err := b.BuildInsert("orders", nil); !errors.Is(err, sqlload.ErrNilRecord) {
		t.Fatalf("nil record: err = %v", err)
	}
	if _, err := b.BuildInsert("empty", sqlload.NewRecord().Set("A", 1)); !errors.Is(err, sqlload.ErrNoColumns) {
		t.Fatalf("all excluded: err = %v", err)
	}
}

func TestBuildUpdate_SynthesizedPrimaryKeyWhere(t *testing.T) {
	b := mysqlBuilder(t, map[string]string{"orders.json": `{
		"tableName": "orders",
		"primaryKey": "OrderNumber",
		"columns": [
			{"propertyName": "OrderNumber", "databaseColumn": "OrderNumber", "dataType": "VARCHAR", "isPrimaryKey": true, "excludeFromUpdate": true},
			{"propertyName": "Status", "databaseColumn": "status", "dataType": "VARCHAR"}
		]
	}`})

	rec := sqlload.NewRecord().Set("OrderNumber", "A100").Set("Status", "shipped")
	stmt, err := b.BuildUpdate("orders", rec, nil)
	if err != nil {
		t.Fatalf("BuildUpdate: %v", err)
	}
	if !strings.HasSuffix(stmt.SQL, "WHERE `OrderNumber` = @OrderNumber") {
		t.Fatalf("sql = %q, want synthesized pk WHERE", stmt.SQL)
	}
	if strings.Contains(stmt.SQL, "SET `OrderNumber`") {
		t.Fatalf("excludeFromUpdate ignored: %s", stmt.SQL)
	}
	if stmt.Params["OrderNumber"] != "A100" {
		t.Fatalf("pk parameter = %#v", stmt.Params)
	}
}

func TestBuildUpdate_UnscopedRequiresOptIn(t *testing.T) {
	b := mysqlBuilder(t, map[string]string{"notes.json": `{
		"tableName": "notes",
		"columns": [{"propertyName": "Body", "databaseColumn": "body", "dataType": "TEXT"}]
	}`})
	rec := sqlload.NewRecord().Set("Body", "hello")

	if _, err := b.BuildUpdate("notes", rec, nil); !errors.Is(err, sqlload.ErrUnscopedStatement) {
		t.Fatalf("no pk and no where must fail, err = %v", err)
	}

	stmt, err := b.BuildUpdate("notes", rec, sqlload.Unscoped())
	if err != nil {
		t.Fatalf("Unscoped opt-in: %v", err)
	}
	if strings.Contains(stmt.SQL, "WHERE") {
		t.Fatalf("unscoped statement should have no WHERE: %s", stmt.SQL)
	}
}

func TestBuildDelete(t *testing.T) {
	b := mysqlBuilder(t, map[string]string{"orders.json": `{
		"tableName": "orders",
		"primaryKey": "OrderNumber",
		"columns": [{"propertyName": "OrderNumber", "databaseColumn": "order_no", "dataType": "VARCHAR", "isPrimaryKey": true}]
	}`})

	t.Run("pk_synthesis", func(t *testing.T) {
		rec := sqlload.NewRecord().Set("OrderNumber", "A100")
		stmt, err := b.BuildDelete("orders", rec, nil)
		if err != nil {
			t.Fatal(err)
		}
		want := "DELETE FROM orders WHERE `order_no` = @OrderNumber"
		if stmt.SQL != want {
			t.Fatalf("sql = %q, want %q", stmt.SQL, want)
		}
	})

	t.Run("explicit_where_override", func(t *testing.T) {
		rec := sqlload.NewRecord().Set("OrderNumber", "A100")
		stmt, err := b.BuildDelete("orders", rec,
			sqlload.WhereClause("`status` = @status", map[string]any{"status": "void"}))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasSuffix(stmt.SQL, "WHERE `status` = @status") {
			t.Fatalf("sql = %q", stmt.SQL)
		}
		if stmt.Params["status"] != "void" {
			t.Fatalf("params = %#v", stmt.Params)
		}
	})

	t.Run("unmapped_requires_where", func(t *testing.T) {
		if _, err := b.BuildDelete("unmapped", sqlload.NewRecord().Set("x", 1), nil); !errors.Is(err, sqlload.ErrUnscopedStatement) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestBuildTruncate(t *testing.T) {
	b := mysqlBuilder(t, nil)

	stmt, err := b.BuildTruncate("order_items")
	if err != nil {
		t.Fatal(err)
	}
	if stmt.SQL != "TRUNCATE TABLE order_items" {
		t.Fatalf("sql = %q", stmt.SQL)
	}

	if _, err := b.BuildTruncate("orders; DROP TABLE users"); !errors.Is(err, sqlload.ErrUnsafeTableName) {
		t.Fatalf("unsafe name accepted: %v", err)
	}
	if _, err := b.BuildTruncate(""); !errors.Is(err, sqlload.ErrBlankTableName) {
		t.Fatalf("blank name accepted: %v", err)
	}

	sqlite := sqlload.NewBuilder(sqlload.DialectSQLite, nil, zerolog.Nop())
	stmt, err = sqlite.BuildTruncate("order_items")
	if err != nil {
		t.Fatal(err)
	}
	if stmt.SQL != "DELETE FROM order_items" {
		t.Fatalf("sqlite truncate = %q", stmt.SQL)
	}
}

func TestStatement_Bind(t *testing.T) {
	t.Run("mysql_positional", func(t *testing.T) {
		stmt := &sqlload.Statement{
			SQL:    "INSERT INTO t (`a`, `b`) VALUES (@a, @b)",
			Params: map[string]any{"a": 1, "b": "x"},
		}
		query, args, err := stmt.Bind(sqlload.DialectMySQL)
		if err != nil {
			t.Fatal(err)
		}
		if query != "INSERT INTO t (`a`, `b`) VALUES (?, ?)" {
			t.Fatalf("query = %q", query)
		}
		if len(args) != 2 || args[0] != 1 || args[1] != "x" {
			t.Fatalf("args = %#v", args)
		}
	})

	t.Run("postgres_numbered", func(t *testing.T) {
		stmt := &sqlload.Statement{
			SQL:    `UPDATE t SET "a" = @a WHERE "b" = @b`,
			Params: map[string]any{"a": 1, "b": 2},
		}
		query, args, err := stmt.Bind(sqlload.DialectPostgreSQL)
		if err != nil {
			t.Fatal(err)
		}
		if query != `UPDATE t SET "a" = $1 WHERE "b" = $2` {
			t.Fatalf("query = %q", query)
		}
		if len(args) != 2 {
			t.Fatalf("args = %#v", args)
		}
	})

	t.Run("repeated_parameter", func(t *testing.T) {
		stmt := &sqlload.Statement{
			SQL:    "UPDATE t SET `a` = @a WHERE `a` = @a",
			Params: map[string]any{"a": 5},
		}
		query, args, err := stmt.Bind(sqlload.DialectMySQL)
		if err != nil {
			t.Fatal(err)
		}
		if query != "UPDATE t SET `a` = ? WHERE `a` = ?" || len(args) != 2 {
			t.Fatalf("query = %q args = %#v", query, args)
		}
	})

	t.Run("at_sign_inside_quoted_identifier", func(t *testing.T) {
		stmt := &sqlload.Statement{
			SQL:    "INSERT INTO t (`e@mail`) VALUES (@e_mail)",
			Params: map[string]any{"e_mail": "a@b"},
		}
		query, args, err := stmt.Bind(sqlload.DialectMySQL)
		if err != nil {
			t.Fatal(err)
		}
		if query != "INSERT INTO t (`e@mail`) VALUES (?)" || len(args) != 1 {
			t.Fatalf("query = %q args = %#v", query, args)
		}
	})

	t.Run("unbound_parameter", func(t *testing.T) {
		stmt := &sqlload.Statement{SQL: "SELECT @missing", Params: map[string]any{}}
		if _, _, err := stmt.Bind(sqlload.DialectMySQL); err == nil {
			t.Fatal("expected error for unbound parameter")
		}
	})
}
