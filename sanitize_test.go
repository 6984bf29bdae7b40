package sqlload_test

import (
	"strings"
	"testing"

	"github.com/uniqsoft/sqlload"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		dialect sqlload.Dialect
		in      string
		want    string
	}{
		{"mysql_plain", sqlload.DialectMySQL, "quantity", "`quantity`"},
		{"mysql_unicode", sqlload.DialectMySQL, "수취인명", "`수취인명`"},
		{"mysql_spaces_parens", sqlload.DialectMySQL, "amount (krw)", "`amount (krw)`"},
		{"mysql_embedded_backtick", sqlload.DialectMySQL, "a`b", "`a``b`"},
		{"mysql_already_quoted", sqlload.DialectMySQL, "`quantity`", "`quantity`"},
		{"postgres_plain", sqlload.DialectPostgreSQL, "quantity", `"quantity"`},
		{"postgres_already_quoted", sqlload.DialectPostgreSQL, `"quantity"`, `"quantity"`},
		{"sqlite_plain", sqlload.DialectSQLite, "quantity", "`quantity`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sqlload.QuoteIdentifier(tt.dialect, tt.in)
			if got != tt.want {
				t.Fatalf("QuoteIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
			}
			// Idempotence: quoting the quoted form must not double-wrap.
			if again := sqlload.QuoteIdentifier(tt.dialect, got); again != got {
				t.Fatalf("double quoting %q gave %q", got, again)
			}
		})
	}
}

func TestSafeParameterName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"RecipientName", "RecipientName"},
		{"recipient name", "recipient_name"},
		{"a.b,c;d", "a_b_c_d"},
		{"(order) [no]", "order_no"},
		{"__x__", "x"},
		{"price(krw)", "price_krw"},
		{"123col", "p123col"},
		{"---", "p"},
		{"", "p"},
		{"수취인명", "수취인명"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := sqlload.SafeParameterName(tt.in)
			if got != tt.want {
				t.Fatalf("SafeParameterName(%q) = %q, want %q", tt.in, got, tt.want)
			}
			// Total and deterministic: repeated calls agree and never emit
			// characters a placeholder cannot carry.
			if got != sqlload.SafeParameterName(tt.in) {
				t.Fatalf("non-deterministic result for %q", tt.in)
			}
			if strings.ContainsAny(got, " .,;:()[]{}'\"`|\\/-") {
				t.Fatalf("unsafe characters left in %q", got)
			}
		})
	}
}

func TestIsSafeTableName(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"order_items", true},
		{"Orders2024", true},
		{"", false},
		{"orders; DROP TABLE users", false},
		{"orders dump", false},
		{"db.orders", false},
		{"order-items", false},
		{"xSELECTx", false},
		{"insert_log", false},
		{"items`", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := sqlload.IsSafeTableName(tt.in); got != tt.want {
				t.Fatalf("IsSafeTableName(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
