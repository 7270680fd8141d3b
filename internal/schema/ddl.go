package schema

// statements are applied in order by EnsureSchema. Every statement must be idempotent.
// Columns that were added after the first release are created by separate ADD COLUMN
// statements so that databases created by older releases catch up.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS schema_migrations (
	name TEXT PRIMARY KEY,
	executed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS sequences (
	doc_type TEXT PRIMARY KEY,
	last_number BIGINT NOT NULL DEFAULT 0 CHECK (last_number >= 0),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS reusable_numbers (
	doc_type TEXT NOT NULL,
	number BIGINT NOT NULL CHECK (number > 0),
	freed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (doc_type, number)
)`,
	`CREATE TABLE IF NOT EXISTS products (
	code TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	size TEXT NOT NULL DEFAULT '',
	packing_type TEXT NOT NULL DEFAULT '',
	cost_price NUMERIC NOT NULL DEFAULT 0,
	selling_price NUMERIC NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`ALTER TABLE products ADD COLUMN IF NOT EXISTS deleted BOOLEAN NOT NULL DEFAULT FALSE`,
	`CREATE TABLE IF NOT EXISTS customers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	mobile TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS suppliers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	mobile TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS invoices (
	id TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL REFERENCES customers(id),
	invoice_date DATE NOT NULL,
	remark TEXT NOT NULL DEFAULT '',
	packing NUMERIC NOT NULL DEFAULT 0,
	freight NUMERIC NOT NULL DEFAULT 0,
	grand_total NUMERIC NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`ALTER TABLE invoices ADD COLUMN IF NOT EXISTS riksha NUMERIC NOT NULL DEFAULT 0`,
	`CREATE INDEX IF NOT EXISTS invoices_customer_idx ON invoices (customer_id, invoice_date DESC)`,
	`CREATE TABLE IF NOT EXISTS invoice_lines (
	id BIGSERIAL PRIMARY KEY,
	invoice_id TEXT NOT NULL REFERENCES invoices(id),
	line_no INT NOT NULL,
	product_code TEXT NOT NULL REFERENCES products(code),
	quantity NUMERIC NOT NULL CHECK (quantity > 0),
	selling_price NUMERIC NOT NULL DEFAULT 0,
	UNIQUE (invoice_id, line_no)
)`,
	`CREATE TABLE IF NOT EXISTS maal (
	id BIGSERIAL PRIMARY KEY,
	party_kind TEXT NOT NULL CHECK (party_kind IN ('customer', 'supplier')),
	party_id TEXT NOT NULL,
	maal_invoice_no TEXT NOT NULL UNIQUE,
	entry_date DATE NOT NULL,
	amount NUMERIC NOT NULL,
	remark TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS maal_party_idx ON maal (party_kind, party_id, entry_date DESC)`,
	`CREATE TABLE IF NOT EXISTS jama (
	id BIGSERIAL PRIMARY KEY,
	party_kind TEXT NOT NULL CHECK (party_kind IN ('customer', 'supplier')),
	party_id TEXT NOT NULL,
	entry_date DATE NOT NULL,
	txn_type TEXT NOT NULL CHECK (txn_type IN ('cash', 'bank', 'cheque', 'online', 'other')),
	amount NUMERIC NOT NULL CHECK (amount > 0),
	remark TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS jama_party_idx ON jama (party_kind, party_id, entry_date DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS customer_orders (
	id TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL REFERENCES customers(id),
	order_date DATE NOT NULL,
	remark TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'CONFIRMED', 'DISPATCHED', 'DELIVERED', 'CANCELLED')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS customer_order_lines (
	id BIGSERIAL PRIMARY KEY,
	order_id TEXT NOT NULL REFERENCES customer_orders(id),
	line_no INT NOT NULL,
	product_code TEXT NOT NULL REFERENCES products(code),
	quantity NUMERIC NOT NULL CHECK (quantity > 0),
	UNIQUE (order_id, line_no)
)`,
	`CREATE TABLE IF NOT EXISTS supplier_orders (
	id TEXT PRIMARY KEY,
	supplier_id TEXT NOT NULL REFERENCES suppliers(id),
	order_date DATE NOT NULL,
	remark TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'ORDERED', 'RECEIVED', 'CANCELLED')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS supplier_order_lines (
	id BIGSERIAL PRIMARY KEY,
	order_id TEXT NOT NULL REFERENCES supplier_orders(id),
	line_no INT NOT NULL,
	product_code TEXT NOT NULL REFERENCES products(code),
	quantity NUMERIC NOT NULL CHECK (quantity > 0),
	UNIQUE (order_id, line_no)
)`,
	`CREATE TABLE IF NOT EXISTS idempotency_keys (
	key TEXT NOT NULL,
	operation TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (key, operation)
)`,
}
