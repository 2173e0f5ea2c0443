package store

// Relation describes one table of the hosted schema.
type Relation struct {
	Name    string
	Columns []string

	// Generated columns are filled by the store when an insert omits them.
	Generated []string

	// Parent/ParentKey link a child relation for Query.Embed.
	Parent    string
	ParentKey string
}

// HasColumn reports whether c belongs to the relation.
func (r Relation) HasColumn(c string) bool {
	for _, col := range r.Columns {
		if col == c {
			return true
		}
	}
	return false
}

// Schema is the fixed set of relations the back office reads and writes.
var Schema = map[string]Relation{
	TableReservations: {
		Name:      TableReservations,
		Columns:   []string{"id", "created_at", "client_name", "phone", "pax", "date", "time", "table_type", "status"},
		Generated: []string{"id", "created_at", "status"},
	},
	TableAnnouncements: {
		Name:      TableAnnouncements,
		Columns:   []string{"id", "created_at", "message", "is_active"},
		Generated: []string{"id", "created_at", "is_active"},
	},
	TableMenuItems: {
		Name:    TableMenuItems,
		Columns: []string{"id", "name", "description", "price", "category", "highlight", "image"},
	},
	TableOrders: {
		Name:      TableOrders,
		Columns:   []string{"id", "created_at", "client_name", "client_phone", "total", "status", "payment_id"},
		Generated: []string{"id", "created_at", "status"},
	},
	TableOrderItems: {
		Name:      TableOrderItems,
		Columns:   []string{"id", "order_id", "menu_item_id", "name", "quantity", "price"},
		Generated: []string{"id"},
		Parent:    TableOrders,
		ParentKey: "order_id",
	},
}

// Lookup returns the relation for name or ErrUnknownTable.
func Lookup(name string) (Relation, error) {
	r, ok := Schema[name]
	if !ok {
		return Relation{}, ErrUnknownTable
	}
	return r, nil
}

// Defaults are the column defaults of the hosted schema.
var Defaults = map[string]Row{
	TableReservations:  {"status": "confirmed"},
	TableAnnouncements: {"is_active": true},
	TableOrders:        {"status": "pending_payment"},
}
