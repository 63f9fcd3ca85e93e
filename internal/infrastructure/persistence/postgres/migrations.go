package postgres

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// Схема ядра: участники и реестр клубов, учебная программа, прогресс,
// журнал очков. Журнал append-only: корректировки добавляются обратными
// записями, единственное исключение - deleteHistory.
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_members", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_curriculum", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_progress", UpSQL: migration003Up, DownSQL: migration003Down},
		{Version: 4, Name: "create_ledger", UpSQL: migration004Up, DownSQL: migration004Down},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// 001: members + club registry
// ─────────────────────────────────────────────────────────────────────────────

const migration001Up = `
CREATE TABLE IF NOT EXISTS clubs (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	mission_id TEXT NOT NULL,
	union_id TEXT NOT NULL,
	region_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_clubs_mission ON clubs(mission_id);
CREATE INDEX IF NOT EXISTS idx_clubs_union ON clubs(union_id);

CREATE TABLE IF NOT EXISTS members (
	id TEXT PRIMARY KEY,
	club_id TEXT NOT NULL,
	unit_id TEXT NOT NULL DEFAULT '',
	display_name TEXT NOT NULL,
	role TEXT NOT NULL CHECK (role IN ('pathfinder', 'counselor', 'instructor', 'director', 'regional_admin')),
	birth_date DATE NOT NULL,
	password_hash TEXT NOT NULL DEFAULT '',
	points_balance INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_members_club_ranking ON members(club_id, role, points_balance DESC);
CREATE INDEX IF NOT EXISTS idx_members_unit ON members(club_id, unit_id);
`

const migration001Down = `
DROP TABLE IF EXISTS members;
DROP TABLE IF EXISTS clubs;
`

// ─────────────────────────────────────────────────────────────────────────────
// 002: curriculum (items, specialties, assignments)
// ─────────────────────────────────────────────────────────────────────────────

const migration002Up = `
CREATE TABLE IF NOT EXISTS specialties (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL CHECK (kind IN ('class', 'specialty', 'event')),
	name TEXT NOT NULL,
	requires_assignment BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS assignable_items (
	id TEXT PRIMARY KEY,
	logical_id TEXT NOT NULL,
	kind TEXT NOT NULL CHECK (kind IN ('class_requirement', 'specialty_requirement', 'event_requirement')),
	parent_id TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	point_value INTEGER NOT NULL DEFAULT 0 CHECK (point_value >= 0),
	answer_type TEXT NOT NULL CHECK (answer_type IN ('none', 'text', 'file', 'both', 'quiz')),
	starts_at TIMESTAMPTZ,
	ends_at TIMESTAMPTZ,
	scope_kind TEXT NOT NULL DEFAULT 'global' CHECK (scope_kind IN ('global', 'club', 'region')),
	scope_id TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_items_logical ON assignable_items(logical_id);
CREATE INDEX IF NOT EXISTS idx_items_parent ON assignable_items(parent_id) WHERE active;

CREATE TABLE IF NOT EXISTS specialty_assignments (
	member_id TEXT NOT NULL,
	specialty_id TEXT NOT NULL,
	assigned_by TEXT NOT NULL,
	assigned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (member_id, specialty_id)
);
`

const migration002Down = `
DROP TABLE IF EXISTS specialty_assignments;
DROP TABLE IF EXISTS assignable_items;
DROP TABLE IF EXISTS specialties;
`

// ─────────────────────────────────────────────────────────────────────────────
// 003: progress records + specialty completions
// ─────────────────────────────────────────────────────────────────────────────

const migration003Up = `
CREATE TABLE IF NOT EXISTS progress_records (
	member_id TEXT NOT NULL,
	item_id TEXT NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
	answer_text TEXT NOT NULL DEFAULT '',
	answer_file_ref TEXT NOT NULL DEFAULT '',
	quiz_answers JSONB,
	rejection_reason TEXT NOT NULL DEFAULT '',
	reviewed_by TEXT NOT NULL DEFAULT '',
	reviewed_at TIMESTAMPTZ,
	submitted_at TIMESTAMPTZ,
	version INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (member_id, item_id)
);

CREATE INDEX IF NOT EXISTS idx_progress_member ON progress_records(member_id);
CREATE INDEX IF NOT EXISTS idx_progress_status ON progress_records(status) WHERE status = 'pending';

CREATE TABLE IF NOT EXISTS specialty_completions (
	member_id TEXT NOT NULL,
	specialty_id TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'in_progress' CHECK (status IN ('in_progress', 'waiting_approval', 'completed')),
	awarded_at TIMESTAMPTZ,
	awarded_directly BOOLEAN NOT NULL DEFAULT FALSE,
	awarded_by TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (member_id, specialty_id)
);

CREATE INDEX IF NOT EXISTS idx_completions_member ON specialty_completions(member_id);
`

const migration003Down = `
DROP TABLE IF EXISTS specialty_completions;
DROP TABLE IF EXISTS progress_records;
`

// ─────────────────────────────────────────────────────────────────────────────
// 004: points ledger + admin audit trail
// ─────────────────────────────────────────────────────────────────────────────

const migration004Up = `
CREATE TABLE IF NOT EXISTS points_ledger (
	id TEXT PRIMARY KEY,
	member_id TEXT NOT NULL,
	amount INTEGER NOT NULL CHECK (amount <> 0),
	source TEXT NOT NULL,
	reference_id TEXT NOT NULL DEFAULT '',
	reverses_entry_id TEXT NOT NULL DEFAULT '',
	reason TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_ledger_member_created ON points_ledger(member_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_ledger_reference ON points_ledger(member_id, reference_id);

CREATE TABLE IF NOT EXISTS admin_actions (
	id TEXT PRIMARY KEY,
	actor_id TEXT NOT NULL,
	action TEXT NOT NULL,
	target_member_id TEXT NOT NULL DEFAULT '',
	target_item_id TEXT NOT NULL DEFAULT '',
	details JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_admin_actions_actor ON admin_actions(actor_id, created_at DESC);
`

const migration004Down = `
DROP TABLE IF EXISTS admin_actions;
DROP TABLE IF EXISTS points_ledger;
`
