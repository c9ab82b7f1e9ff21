package postgres

import (
	"strings"
	"testing"
)

func TestNewTableNames(t *testing.T) {
	tables := NewTableNames("dev_")
	want := map[string]string{
		"users":    tables.Users,
		"projects": tables.Projects,
		"chats":    tables.Chats,
		"messages": tables.Messages,
	}
	for name, got := range want {
		if got != "dev_"+name {
			t.Errorf("%s table = %q, want %q", name, got, "dev_"+name)
		}
	}
}

func TestSchemaSubstitutesPrefix(t *testing.T) {
	ddl := Schema("test_")

	if strings.Contains(ddl, "{{prefix}}") {
		t.Fatal("schema still contains placeholder")
	}

	tests := []string{
		"CREATE TABLE IF NOT EXISTS test_users",
		"REFERENCES test_users (id) ON DELETE CASCADE",
		"REFERENCES test_projects (id) ON DELETE CASCADE",
		"REFERENCES test_chats (id) ON DELETE CASCADE",
		"UNIQUE (chat_id, sequence)",
		"ON test_users (lower(email))",
	}
	for _, fragment := range tests {
		if !strings.Contains(ddl, fragment) {
			t.Errorf("schema missing %q", fragment)
		}
	}
}
