package postgres

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuego/backoffice/store"
)

func relation(t *testing.T, name string) store.Relation {
	t.Helper()
	rel, err := store.Lookup(name)
	require.NoError(t, err)
	return rel
}

func TestSelectSQL_FiltersOrderAndLimit(t *testing.T) {
	q := store.Query{
		Table:      store.TableOrders,
		Filters:    []store.Filter{store.Eq("status", "paid"), store.Neq("id", 7)},
		OrderBy:    "created_at",
		Descending: true,
		Limit:      5,
	}

	query, args, err := selectSQL(relation(t, store.TableOrders), q)

	require.NoError(t, err)
	assert.Equal(t,
		`SELECT to_jsonb(t) FROM "orders" t WHERE t."status"::text = $1 AND t."id"::text <> $2 ORDER BY t."created_at" DESC LIMIT 5`,
		query)
	assert.Equal(t, []any{"paid", "7"}, args)
}

func TestSelectSQL_UnknownColumns(t *testing.T) {
	rel := relation(t, store.TableOrders)

	_, _, err := selectSQL(rel, store.Query{Table: store.TableOrders, OrderBy: "nope"})
	assert.ErrorIs(t, err, store.ErrUnknownColumn)

	_, _, err = selectSQL(rel, store.Query{Table: store.TableOrders, Filters: []store.Filter{store.Eq("nope", 1)}})
	assert.ErrorIs(t, err, store.ErrUnknownColumn)
}

func TestWhereClause_NoFilters(t *testing.T) {
	where, args, err := whereClause(relation(t, store.TableOrders), nil, nil)

	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestInsertSQL_MissingColumnsUseDefault(t *testing.T) {
	// GIVEN: two rows carrying different columns
	rows := []store.Row{
		{"client_name": "Ana", "total": decimal.RequireFromString("10.5")},
		{"client_name": "Bruno", "status": "paid"},
	}

	// WHEN: the insert is built
	query, args, err := insertSQL(relation(t, store.TableOrders), rows)

	// THEN: columns are the sorted union and gaps are DEFAULT
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO "orders" AS t ("client_name", "status", "total") VALUES ($1, DEFAULT, $2), ($3, $4, DEFAULT) RETURNING to_jsonb(t)`,
		query)
	assert.Equal(t, []any{"Ana", "10.5", "Bruno", "paid"}, args)
}

func TestInsertSQL_UnknownColumn(t *testing.T) {
	_, _, err := insertSQL(relation(t, store.TableOrders), []store.Row{{"colour": "red"}})
	assert.ErrorIs(t, err, store.ErrUnknownColumn)
}

func TestUpdateSQL(t *testing.T) {
	rel := relation(t, store.TableMenuItems)

	query, args, err := updateSQL(rel, "3", store.Row{"price": decimal.RequireFromString("12.5"), "name": "Picanha"})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "menu_items" SET "name" = $1, "price" = $2 WHERE id::text = $3`, query)
	assert.Equal(t, []any{"Picanha", "12.5", "3"}, args)

	_, _, err = updateSQL(rel, "3", store.Row{"id": "4"})
	assert.ErrorIs(t, err, store.ErrUnknownColumn, "id is not writable")
}

func TestEmbedSQL(t *testing.T) {
	assert.Equal(t,
		`SELECT to_jsonb(c) FROM "order_items" c WHERE c."order_id"::text = ANY($1)`,
		embedSQL(relation(t, store.TableOrderItems)))
}

func TestBindValue(t *testing.T) {
	assert.Equal(t, "189.9", bindValue(decimal.RequireFromString("189.90")))
	assert.Equal(t, 3, bindValue(3))
	assert.Equal(t, "x", bindValue("x"))
	assert.Nil(t, bindValue(nil))
}

func TestSeedSQL_SortedAndQuoted(t *testing.T) {
	rows := []store.Row{
		{"id": "2", "name": "Chopp D'Oro", "description": nil, "price": decimal.RequireFromString("18"), "category": "Bebidas", "highlight": true, "image": ""},
		{"id": "1", "name": "Picanha", "description": "Na brasa", "price": decimal.RequireFromString("89.9"), "category": "Carnes", "highlight": false, "image": "p.jpg"},
	}

	want := "insert into public.menu_items (id, name, description, price, category, highlight, image) values\n" +
		"  ('1', 'Picanha', 'Na brasa', 89.9, 'Carnes', false, 'p.jpg'),\n" +
		"  ('2', 'Chopp D''Oro', null, 18, 'Bebidas', true, '')\n" +
		"on conflict (id) do nothing;\n"
	assert.Equal(t, want, SeedSQL(rows))
}
