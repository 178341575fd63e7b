package database

import "github.com/jmoiron/sqlx"

// Migrate applies the schema idempotently on boot.
func Migrate(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS obligations (
		id UUID PRIMARY KEY,
		kind VARCHAR(20) NOT NULL,
		name VARCHAR(255) NOT NULL,
		category VARCHAR(100) NOT NULL DEFAULT '',
		amount DECIMAL(15,2) NOT NULL,
		notes TEXT,
		due_date DATE,
		is_recurring BOOLEAN NOT NULL DEFAULT false,
		recurrence_interval INTEGER,
		recurrence_unit VARCHAR(10),
		is_paid BOOLEAN NOT NULL DEFAULT false,
		is_autopay BOOLEAN NOT NULL DEFAULT false,
		is_variable_amount BOOLEAN NOT NULL DEFAULT false,
		payment_link TEXT,
		frequency VARCHAR(20),
		anchor_date DATE,
		enable_carryover BOOLEAN NOT NULL DEFAULT false,
		is_deleted BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS cycles (
		id UUID PRIMARY KEY,
		obligation_id UUID NOT NULL REFERENCES obligations(id) ON DELETE CASCADE,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		planned_amount DECIMAL(15,2) NOT NULL,
		total_applied DECIMAL(15,2) NOT NULL DEFAULT 0,
		carryover_amount DECIMAL(15,2) NOT NULL DEFAULT 0,
		is_paid BOOLEAN NOT NULL DEFAULT false,
		is_closed BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (obligation_id, start_date)
	);

	CREATE TABLE IF NOT EXISTS ledger_entries (
		id UUID PRIMARY KEY,
		obligation_id UUID NOT NULL REFERENCES obligations(id) ON DELETE CASCADE,
		cycle_id UUID NOT NULL REFERENCES cycles(id) ON DELETE CASCADE,
		amount DECIMAL(15,2) NOT NULL,
		event_date TIMESTAMPTZ NOT NULL,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS debts (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		type VARCHAR(50) NOT NULL,
		original_amount DECIMAL(15,2) NOT NULL,
		current_balance DECIMAL(15,2) NOT NULL,
		interest_rate DECIMAL(6,3) NOT NULL DEFAULT 0,
		minimum_payment DECIMAL(15,2) NOT NULL DEFAULT 0,
		due_day INTEGER NOT NULL DEFAULT 1,
		start_date DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS debt_payments (
		id UUID PRIMARY KEY,
		debt_id UUID NOT NULL REFERENCES debts(id) ON DELETE CASCADE,
		amount DECIMAL(15,2) NOT NULL,
		principal DECIMAL(15,2) NOT NULL,
		interest DECIMAL(15,2) NOT NULL,
		date DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS preferences (
		id INTEGER PRIMARY KEY,
		theme VARCHAR(20) NOT NULL DEFAULT 'system',
		currency VARCHAR(3) NOT NULL DEFAULT 'USD',
		current_balance DECIMAL(15,2),
		last_balance_update TIMESTAMPTZ,
		expected_income_amount DECIMAL(15,2),
		payday_frequency VARCHAR(20),
		payday_anchor DATE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS imported_transactions (
		id UUID PRIMARY KEY,
		fit_id VARCHAR(255) NOT NULL UNIQUE,
		transaction_type VARCHAR(50) NOT NULL,
		date_posted DATE NOT NULL,
		amount DECIMAL(15,2) NOT NULL,
		payee VARCHAR(255) NOT NULL DEFAULT '',
		memo TEXT,
		check_number VARCHAR(50),
		is_income BOOLEAN NOT NULL DEFAULT false,
		obligation_id UUID REFERENCES obligations(id) ON DELETE SET NULL,
		ledger_entry_id UUID REFERENCES ledger_entries(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_cycles_obligation_start ON cycles(obligation_id, start_date);
	CREATE INDEX IF NOT EXISTS idx_cycles_obligation_end ON cycles(obligation_id, end_date);
	CREATE INDEX IF NOT EXISTS idx_ledger_entries_cycle ON ledger_entries(cycle_id);
	CREATE INDEX IF NOT EXISTS idx_ledger_entries_obligation ON ledger_entries(obligation_id);
	CREATE INDEX IF NOT EXISTS idx_debt_payments_debt ON debt_payments(debt_id);
	CREATE INDEX IF NOT EXISTS idx_imported_transactions_date ON imported_transactions(date_posted);
	`

	_, err := db.Exec(schema)
	return err
}
