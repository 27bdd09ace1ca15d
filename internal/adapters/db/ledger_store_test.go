package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/kasir-be/internal/core/domain"
)

func testPeriod(t *testing.T) domain.Period {
	t.Helper()
	loc := time.FixedZone("WIB", 7*60*60)
	p, err := domain.NewPeriod(
		time.Date(2024, time.March, 1, 0, 0, 0, 0, loc),
		time.Date(2024, time.March, 7, 0, 0, 0, 0, loc),
		loc,
	)
	require.NoError(t, err)
	return p
}

func TestRangeQueries_HalfOpenBounds(t *testing.T) {
	p := testPeriod(t)

	tests := []struct {
		name     string
		sql      func() (string, []interface{}, error)
		contains []string
	}{
		{
			name: "sales_join_member_and_cashier",
			sql:  salesQuery(p).ToSql,
			contains: []string{
				"FROM sales s",
				"LEFT JOIN members m ON m.id = s.member_id",
				"LEFT JOIN users u ON u.id = s.user_id",
				"s.created_at >= $1",
				"s.created_at < $2",
				"ORDER BY s.created_at ASC, s.id ASC",
			},
		},
		{
			name: "sale_items_join_category",
			sql:  saleItemsQuery(p).ToSql,
			contains: []string{
				"FROM sale_items si",
				"JOIN sales s ON s.id = si.sale_id",
				"LEFT JOIN categories c ON c.id = si.category_id",
				"s.created_at >= $1",
				"s.created_at < $2",
			},
		},
		{
			name: "purchase_items_join_supplier",
			sql:  purchaseItemsQuery(p).ToSql,
			contains: []string{
				"JOIN purchases p ON p.id = pi.purchase_id",
				"LEFT JOIN suppliers sp ON sp.id = p.supplier_id",
				"p.created_at >= $1",
				"p.created_at < $2",
			},
		},
		{
			name: "expenses",
			sql:  expensesQuery(p).ToSql,
			contains: []string{
				"FROM expenses",
				"created_at >= $1",
				"created_at < $2",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.sql()
			require.NoError(t, err)

			for _, fragment := range tt.contains {
				assert.Contains(t, sql, fragment)
			}
			require.Len(t, args, 2)
			assert.Equal(t, p.Start, args[0])
			assert.Equal(t, p.End, args[1])
		})
	}
}

func TestUnavailable_WrapsBothErrors(t *testing.T) {
	cause := assert.AnError
	err := unavailable("list sales", cause)

	assert.ErrorIs(t, err, domain.ErrDataSourceUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "list sales")
}
