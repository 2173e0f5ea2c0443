package postgres

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fuego/backoffice/store"
)

// SchemaSQL creates the five relations with row level security enabled and
// one permissive policy per relation. It is idempotent.
const SchemaSQL = `-- Fuego back office schema
create extension if not exists pgcrypto;

create table if not exists public.reservations (
  id uuid default gen_random_uuid() primary key,
  created_at timestamp with time zone default timezone('utc'::text, now()) not null,
  client_name text not null,
  phone text not null,
  pax integer not null,
  date date not null,
  time text not null,
  table_type text,
  status text default 'confirmed'
);

create table if not exists public.announcements (
  id uuid default gen_random_uuid() primary key,
  created_at timestamp with time zone default timezone('utc'::text, now()) not null,
  message text not null,
  is_active boolean default true
);

create table if not exists public.menu_items (
  id text primary key,
  name text not null,
  description text,
  price numeric not null,
  category text not null,
  highlight boolean default false,
  image text
);

create table if not exists public.orders (
  id uuid default gen_random_uuid() primary key,
  created_at timestamp with time zone default timezone('utc'::text, now()) not null,
  client_name text,
  client_phone text,
  total numeric not null,
  status text default 'pending_payment',
  payment_id text
);

create table if not exists public.order_items (
  id uuid default gen_random_uuid() primary key,
  order_id uuid references public.orders(id) on delete cascade,
  menu_item_id text,
  name text,
  quantity integer,
  price numeric
);

alter table public.reservations enable row level security;
alter table public.announcements enable row level security;
alter table public.menu_items enable row level security;
alter table public.orders enable row level security;
alter table public.order_items enable row level security;

drop policy if exists "Public Access" on public.reservations;
drop policy if exists "Public Access" on public.announcements;
drop policy if exists "Public Access" on public.menu_items;
drop policy if exists "Public Access" on public.orders;
drop policy if exists "Public Access" on public.order_items;

create policy "Public Access" on public.reservations for all using (true) with check (true);
create policy "Public Access" on public.announcements for all using (true) with check (true);
create policy "Public Access" on public.menu_items for all using (true) with check (true);
create policy "Public Access" on public.orders for all using (true) with check (true);
create policy "Public Access" on public.order_items for all using (true) with check (true);
`

// Migrate applies SchemaSQL.
func (r *Remote) Migrate(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, SchemaSQL); err != nil {
		return wrapErr("migrate", "", err)
	}
	return nil
}

// SeedMenu inserts menu rows, leaving existing ids untouched.
func (r *Remote) SeedMenu(ctx context.Context, rows []store.Row) error {
	if len(rows) == 0 {
		return nil
	}
	stmt := SeedSQL(rows)
	if _, err := r.q.Exec(ctx, stmt); err != nil {
		return wrapErr("seed", store.TableMenuItems, err)
	}
	return nil
}

// SeedSQL renders menu rows as a single INSERT statement, for the
// copy-paste setup script.
func SeedSQL(rows []store.Row) string {
	cols := []string{"id", "name", "description", "price", "category", "highlight", "image"}

	var sb strings.Builder
	fmt.Fprintf(&sb, "insert into public.menu_items (%s) values\n", strings.Join(cols, ", "))

	sorted := append([]store.Row(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return fmt.Sprint(sorted[i]["id"]) < fmt.Sprint(sorted[j]["id"])
	})

	for i, row := range sorted {
		values := make([]string, len(cols))
		for j, c := range cols {
			values[j] = literal(row[c])
		}
		sep := ","
		if i == len(sorted)-1 {
			sep = ""
		}
		fmt.Fprintf(&sb, "  (%s)%s\n", strings.Join(values, ", "), sep)
	}
	sb.WriteString("on conflict (id) do nothing;\n")
	return sb.String()
}

func literal(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		if t {
			return "true"
		}
		return "false"
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	case fmt.Stringer:
		// decimal.Decimal and friends render as bare numerics.
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
