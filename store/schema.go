package store

// Money columns are TEXT holding exact decimal strings; SQLite REAL would
// reintroduce the float drift the ledger exists to avoid.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	cash TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS holdings (
	account_id INTEGER NOT NULL REFERENCES accounts(id),
	symbol TEXT NOT NULL,
	shares INTEGER NOT NULL CHECK (shares > 0),
	PRIMARY KEY (account_id, symbol)
);

CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	account_id INTEGER NOT NULL REFERENCES accounts(id),
	side TEXT NOT NULL CHECK (side IN ('buy','sell')),
	symbol TEXT NOT NULL,
	shares INTEGER NOT NULL CHECK (shares > 0),
	price TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_account_time
	ON transactions(account_id, created_at, id);
`
