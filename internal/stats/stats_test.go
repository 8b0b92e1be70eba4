package stats

import (
	"os"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "otvet-stats-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEnsureSession_Idempotent(t *testing.T) {
	db := testDB(t)
	now := time.Now()

	if err := db.EnsureSession("s1", now); err != nil {
		t.Fatal(err)
	}
	// Repeat inserts must be ignored, not fail.
	if err := db.EnsureSession("s1", now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	p, err := db.Aggregates(now)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(p.MessagesPerSession); got != 1 {
		t.Errorf("sessions = %d, want 1", got)
	}
}

func TestAggregates(t *testing.T) {
	db := testDB(t)
	now := time.Now()

	for _, s := range []string{"s1", "s2", "s3"} {
		if err := db.EnsureSession(s, now.Add(-time.Hour)); err != nil {
			t.Fatal(err)
		}
	}
	// s1 has two messages, one recent and one old; s2 has one; s3 none.
	if err := db.LogMessage("s1", "вопрос 1", now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := db.LogMessage("s1", "вопрос 2", now.Add(-40*24*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := db.LogMessage("s2", "вопрос 3", now.Add(-2*24*time.Hour)); err != nil {
		t.Fatal(err)
	}

	p, err := db.Aggregates(now)
	if err != nil {
		t.Fatal(err)
	}

	byPeriod := map[string]PeriodStats{}
	for _, a := range p.Aggregates {
		byPeriod[a.Period] = a
	}
	if got := byPeriod["day"].Requests; got != 1 {
		t.Errorf("day requests = %d, want 1", got)
	}
	if got := byPeriod["week"].Requests; got != 2 {
		t.Errorf("week requests = %d, want 2", got)
	}
	if got := byPeriod["all_time"].Requests; got != 3 {
		t.Errorf("all_time requests = %d, want 3", got)
	}
	if got := byPeriod["all_time"].Sessions; got != 3 {
		t.Errorf("all_time sessions = %d, want 3", got)
	}

	if got := len(p.MessagesPerSession); got != 3 {
		t.Fatalf("messages_per_session rows = %d, want 3", got)
	}
	counts := map[string]int{}
	for _, sm := range p.MessagesPerSession {
		counts[sm.SessionID] = sm.Messages
	}
	if counts["s1"] != 2 || counts["s2"] != 1 || counts["s3"] != 0 {
		t.Errorf("per-session counts = %v", counts)
	}

	// Two of three sessions have messages.
	if p.PercentSessionsWithMessages < 66 || p.PercentSessionsWithMessages > 67 {
		t.Errorf("percent = %v, want ~66.7", p.PercentSessionsWithMessages)
	}
}

func TestAggregates_EmptyDatabase(t *testing.T) {
	db := testDB(t)

	p, err := db.Aggregates(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Aggregates) != 4 {
		t.Errorf("aggregates = %d windows, want 4", len(p.Aggregates))
	}
	if p.PercentSessionsWithMessages != 0 {
		t.Errorf("percent = %v, want 0", p.PercentSessionsWithMessages)
	}
}
