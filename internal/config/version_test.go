package config

import "testing"

func TestVersionVariablesExist(t *testing.T) {
	if Version == "" {
		t.Error("Version is empty string")
	}
	if BuildDate == "" {
		t.Error("BuildDate is empty string")
	}
	if Commit == "" {
		t.Error("Commit is empty string")
	}
}
