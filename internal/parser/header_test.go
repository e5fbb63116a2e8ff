package parser

import "testing"

func TestFindHeaderRow_SkipsTitleRows(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"Joe's Diner"},
		{"Weekly Sales Report"},
		{""},
		{"Date", "Category", "Net Sales", "Guests"},
		{"2024-11-01", "Food", "500", "20"},
	}
	if got := FindHeaderRow(rows); got != 3 {
		t.Fatalf("FindHeaderRow = %d, want 3", got)
	}
}

func TestFindHeaderRow_TieTakesFirst(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"Date", "Net Sales"},
		{"Date", "Net Sales"},
	}
	if got := FindHeaderRow(rows); got != 0 {
		t.Fatalf("FindHeaderRow = %d, want 0", got)
	}
}

func TestFindHeaderRow_NoKeywords(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"a", "b"},
		{"1", "2"},
	}
	if got := FindHeaderRow(rows); got != -1 {
		t.Fatalf("FindHeaderRow = %d, want -1", got)
	}
}

func keyOf(cols []ColumnMeta, key CanonicalKey) *ColumnMeta {
	for i := range cols {
		if cols[i].Key == key {
			return &cols[i]
		}
	}
	return nil
}

func TestClassifyColumns_GrossNeverWinsNetSales(t *testing.T) {
	t.Parallel()

	cols := ClassifyColumns([]string{"Gross Sales", "Net Sales", "Guests"})

	net := keyOf(cols, KeyNetSales)
	if net == nil {
		t.Fatalf("net_sales not assigned")
	}
	if net.Index != 1 {
		t.Fatalf("net_sales bound to column %d (%q), want 1", net.Index, net.Raw)
	}
	if !cols[0].IsGross {
		t.Fatalf("gross sales column not flagged")
	}
	if cols[0].Key != "" {
		t.Fatalf("gross column must stay unassigned, got %s", cols[0].Key)
	}
}

func TestClassifyColumns_FallbackPlainSales(t *testing.T) {
	t.Parallel()

	cols := ClassifyColumns([]string{"Date", "Sales", "Tax Sales"})
	net := keyOf(cols, KeyNetSales)
	if net == nil || net.Index != 1 {
		t.Fatalf("fallback should bind plain Sales column, got %+v", net)
	}
}

func TestClassifyColumns_FallbackExcludesTaxDiscount(t *testing.T) {
	t.Parallel()

	for _, header := range []string{"Tax Sales", "Sales Discount", "Void Sales", "Refund Sales", "Sales Credit"} {
		cols := ClassifyColumns([]string{"Date", header})
		if net := keyOf(cols, KeyNetSales); net != nil {
			t.Fatalf("%q must not become net_sales", header)
		}
	}
}

func TestClassifyColumns_OneColumnPerKey(t *testing.T) {
	t.Parallel()

	cols := ClassifyColumns([]string{"Net Sales", "Net Sales", "Guests", "Guest Count"})

	netCount := 0
	guestCount := 0
	for _, c := range cols {
		switch c.Key {
		case KeyNetSales:
			netCount++
		case KeyGuests:
			guestCount++
		}
	}
	if netCount != 1 || guestCount != 1 {
		t.Fatalf("duplicate bindings: net=%d guests=%d", netCount, guestCount)
	}
	if cols[0].Key != KeyNetSales {
		t.Fatalf("first net sales column should win, got %s on col0", cols[0].Key)
	}
}

func TestClassifyColumns_FullLaborHeader(t *testing.T) {
	t.Parallel()

	cols := ClassifyColumns([]string{"Date", "Labor Hours", "Labor Cost", "Labor %"})

	expect := map[int]CanonicalKey{
		0: KeyDate,
		1: KeyLaborHours,
		2: KeyLaborCost,
		3: KeyLaborPercent,
	}
	for idx, want := range expect {
		if cols[idx].Key != want {
			t.Fatalf("column %d (%q) = %s, want %s", idx, cols[idx].Raw, cols[idx].Key, want)
		}
	}
}

func TestClassifyColumns_RulePriorityNetSalesFirst(t *testing.T) {
	t.Parallel()

	// 同时含 "net" 与 "item" 字样的列先被 net_sales 规则锁定
	cols := ClassifyColumns([]string{"Item Net Sales", "Item"})
	if cols[0].Key != KeyNetSales {
		t.Fatalf("col0 = %s, want net_sales", cols[0].Key)
	}
	if cols[1].Key != KeyItem {
		t.Fatalf("col1 = %s, want item", cols[1].Key)
	}
}
