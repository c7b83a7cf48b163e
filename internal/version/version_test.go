package version

import "testing"

func TestString(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	defer func() { Version, Commit = oldVersion, oldCommit }()

	Version = "1.2.3"
	Commit = "abc1234"

	if got := String(); got != "1.2.3 (abc1234)" {
		t.Errorf("String() = %q, want %q", got, "1.2.3 (abc1234)")
	}
	if got := UserAgent(); got != "renance-monitor/1.2.3" {
		t.Errorf("UserAgent() = %q, want %q", got, "renance-monitor/1.2.3")
	}
}
