package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/00goop/lets-link/pkg/migrate"
)

func TestMigrationDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestVotesMigrationContainsUpsertIndex(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_polls_votes.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no polls/votes migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TYPE poll_status AS ENUM ('open', 'closed')",
		"CREATE UNIQUE INDEX idx_votes_poll_user ON votes (poll_id, user_id)",
		"REFERENCES polls (id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS votes",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCoreMigrationKeepsRosterCacheColumn(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_core.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no core migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"member_ids uuid[] NOT NULL DEFAULT ARRAY[]::uuid[]",
		"CREATE UNIQUE INDEX idx_party_members_party_user ON party_members (party_id, user_id)",
		"CREATE UNIQUE INDEX idx_parties_join_code ON parties (join_code)",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
