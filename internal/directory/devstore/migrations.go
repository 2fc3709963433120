package devstore

import "fmt"

// migrate runs all database migrations
func (s *Store) migrate() error {
	migrations := []string{
		migrationCreateMembers,
		migrationCreateKeys,
		migrationCreateLabels,
		migrationCreateTokens,
	}

	for i, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

const migrationCreateMembers = `
CREATE TABLE IF NOT EXISTS members (
    member_number INTEGER PRIMARY KEY,
    firstname TEXT NOT NULL,
    lastname TEXT NOT NULL,
    membership_data TEXT NOT NULL,
    pin_hash TEXT
);
`

const migrationCreateKeys = `
CREATE TABLE IF NOT EXISTS keys (
    tagid TEXT PRIMARY KEY,
    member_number INTEGER NOT NULL,
    FOREIGN KEY (member_number) REFERENCES members(member_number)
);
`

const migrationCreateLabels = `
CREATE TABLE IF NOT EXISTS labels (
    id INTEGER PRIMARY KEY,
    member_number INTEGER NOT NULL,
    kind TEXT NOT NULL,
    public_url TEXT NOT NULL,
    body TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_labels_member ON labels(member_number);
`

const migrationCreateTokens = `
CREATE TABLE IF NOT EXISTS tokens (
    token TEXT PRIMARY KEY,
    created_at TEXT NOT NULL
);
`
