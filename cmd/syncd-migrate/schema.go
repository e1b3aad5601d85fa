package main

// statements is the idempotent schema for every table the repository
// layer addresses, grouped by the three schemas the domain is split
// across: agents (per-tenant), shared (cross-tenant), system
// (operational). Every timestamp column is a unix-seconds BIGINT,
// matching pkg/repository's unixNow/toUnix convention.
var statements = []string{
	`CREATE SCHEMA IF NOT EXISTS agents`,
	`CREATE SCHEMA IF NOT EXISTS shared`,
	`CREATE SCHEMA IF NOT EXISTS system`,

	`CREATE TABLE IF NOT EXISTS agents.users (
		id                 TEXT PRIMARY KEY,
		username           TEXT NOT NULL,
		role               TEXT NOT NULL DEFAULT 'agent',
		whitelisted        BOOLEAN NOT NULL DEFAULT false,
		last_login         BIGINT,
		last_customer_sync BIGINT,
		last_order_sync    BIGINT
	)`,

	`CREATE TABLE IF NOT EXISTS agents.customers (
		user_id              TEXT NOT NULL REFERENCES agents.users(id),
		customer_profile     TEXT NOT NULL,
		name                 TEXT NOT NULL DEFAULT '',
		vat                  TEXT NOT NULL DEFAULT '',
		fiscal_code          TEXT NOT NULL DEFAULT '',
		address              TEXT NOT NULL DEFAULT '',
		city                 TEXT NOT NULL DEFAULT '',
		province             TEXT NOT NULL DEFAULT '',
		postal_code          TEXT NOT NULL DEFAULT '',
		country              TEXT NOT NULL DEFAULT '',
		phone                TEXT NOT NULL DEFAULT '',
		mobile               TEXT NOT NULL DEFAULT '',
		email                TEXT NOT NULL DEFAULT '',
		pec                  TEXT NOT NULL DEFAULT '',
		sdi_code             TEXT NOT NULL DEFAULT '',
		contact_person       TEXT NOT NULL DEFAULT '',
		payment_terms        TEXT NOT NULL DEFAULT '',
		payment_method       TEXT NOT NULL DEFAULT '',
		price_list           TEXT NOT NULL DEFAULT '',
		discount_group       TEXT NOT NULL DEFAULT '',
		sales_agent          TEXT NOT NULL DEFAULT '',
		category             TEXT NOT NULL DEFAULT '',
		segment              TEXT NOT NULL DEFAULT '',
		notes                TEXT NOT NULL DEFAULT '',
		credit_limit         TEXT NOT NULL DEFAULT '',
		iban                 TEXT NOT NULL DEFAULT '',
		bic                  TEXT NOT NULL DEFAULT '',
		shipping_address     TEXT NOT NULL DEFAULT '',
		shipping_city        TEXT NOT NULL DEFAULT '',
		shipping_province    TEXT NOT NULL DEFAULT '',
		shipping_postal_code TEXT NOT NULL DEFAULT '',
		hash                 TEXT NOT NULL,
		last_sync            BIGINT NOT NULL,
		PRIMARY KEY (customer_profile, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS agents.order_records (
		id              TEXT NOT NULL,
		user_id         TEXT NOT NULL REFERENCES agents.users(id),
		order_number    TEXT NOT NULL,
		sales_status    TEXT NOT NULL DEFAULT '',
		document_status TEXT NOT NULL DEFAULT '',
		transfer_status TEXT NOT NULL DEFAULT '',
		total_amount    TEXT NOT NULL DEFAULT '0',
		tax_amount      TEXT NOT NULL DEFAULT '0',
		net_amount      TEXT NOT NULL DEFAULT '0',
		ddt_number      TEXT NOT NULL DEFAULT '',
		ddt_date        BIGINT,
		invoice_number  TEXT NOT NULL DEFAULT '',
		invoice_date    BIGINT,
		current_state   TEXT NOT NULL DEFAULT '',
		hash            TEXT NOT NULL,
		last_sync       BIGINT NOT NULL,
		created_at      BIGINT NOT NULL,
		updated_at      BIGINT NOT NULL,
		PRIMARY KEY (id, user_id)
	)`,

	`CREATE INDEX IF NOT EXISTS order_records_order_number_idx
		ON agents.order_records (user_id, order_number)`,

	`CREATE TABLE IF NOT EXISTS agents.order_articles (
		order_id     TEXT NOT NULL,
		user_id      TEXT NOT NULL,
		line_number  INTEGER NOT NULL,
		article_code TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		quantity     TEXT NOT NULL DEFAULT '0',
		unit_price   TEXT NOT NULL DEFAULT '0',
		line_total   TEXT NOT NULL DEFAULT '0',
		created_at   BIGINT NOT NULL,
		PRIMARY KEY (order_id, user_id, line_number),
		FOREIGN KEY (order_id, user_id) REFERENCES agents.order_records(id, user_id)
	)`,

	`CREATE INDEX IF NOT EXISTS order_articles_article_code_idx
		ON agents.order_articles (article_code)`,

	`CREATE TABLE IF NOT EXISTS agents.order_state_history (
		id         TEXT PRIMARY KEY,
		order_id   TEXT NOT NULL,
		user_id    TEXT NOT NULL,
		old_state  TEXT NOT NULL DEFAULT '',
		new_state  TEXT NOT NULL,
		actor      TEXT NOT NULL DEFAULT '',
		notes      TEXT NOT NULL DEFAULT '',
		confidence DOUBLE PRECISION,
		source     TEXT NOT NULL DEFAULT '',
		timestamp  BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS shared.products (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL DEFAULT '',
		description      TEXT NOT NULL DEFAULT '',
		category         TEXT NOT NULL DEFAULT '',
		brand            TEXT NOT NULL DEFAULT '',
		sku              TEXT NOT NULL DEFAULT '',
		unit             TEXT NOT NULL DEFAULT '',
		vat              TEXT NOT NULL DEFAULT '',
		price            TEXT NOT NULL DEFAULT '0',
		image_url        TEXT NOT NULL DEFAULT '',
		image_local_path TEXT NOT NULL DEFAULT '',
		deleted_at       BIGINT,
		hash             TEXT NOT NULL,
		last_sync        BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS shared.product_changes (
		id              TEXT PRIMARY KEY,
		product_id      TEXT NOT NULL REFERENCES shared.products(id),
		change_type     TEXT NOT NULL,
		changed_at      BIGINT NOT NULL,
		sync_session_id TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS product_changes_product_id_idx
		ON shared.product_changes (product_id)`,

	`CREATE TABLE IF NOT EXISTS shared.prices (
		product_id       TEXT NOT NULL REFERENCES shared.products(id),
		item_selection   TEXT,
		unit_price       TEXT,
		price_valid_from BIGINT NOT NULL,
		price_valid_to   BIGINT,
		price_qty_from   DOUBLE PRECISION,
		price_qty_to     DOUBLE PRECISION,
		hash             TEXT NOT NULL
	)`,

	// ON CONFLICT (product_id, price_valid_from, (COALESCE(price_qty_from, 0)))
	// in repository/prices.go requires this exact expression index.
	`CREATE UNIQUE INDEX IF NOT EXISTS prices_temporal_identity_idx
		ON shared.prices (product_id, price_valid_from, (COALESCE(price_qty_from, 0)))`,

	`CREATE TABLE IF NOT EXISTS shared.price_history (
		id                TEXT PRIMARY KEY,
		product_id        TEXT NOT NULL REFERENCES shared.products(id),
		variant_id        TEXT,
		old_price         TEXT,
		new_price         TEXT NOT NULL,
		percentage_change DOUBLE PRECISION,
		change_type       TEXT NOT NULL,
		sync_date         BIGINT NOT NULL,
		source            TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE INDEX IF NOT EXISTS price_history_product_id_idx
		ON shared.price_history (product_id)`,

	`CREATE TABLE IF NOT EXISTS system.sync_settings (
		sync_type        TEXT PRIMARY KEY,
		interval_minutes INTEGER NOT NULL,
		enabled          BOOLEAN NOT NULL DEFAULT true,
		updated_at       BIGINT NOT NULL
	)`,
}
