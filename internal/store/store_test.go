package store

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/iburimskiy/neural-nexus/internal/config"
	"github.com/iburimskiy/neural-nexus/internal/logging"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	s := New(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStringKeys(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	for name, get := range map[string]func() (string, error){
		"token": s.Token, "user": s.Username, "theme": s.Theme,
	} {
		if _, err := get(); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s on empty store = %v, want ErrNotFound", name, err)
		}
	}

	if err := s.SetToken("tok"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetUsername("neo"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetTheme("light"); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.Token(); v != "tok" {
		t.Errorf("Token() = %q", v)
	}
	if v, _ := s.Username(); v != "neo" {
		t.Errorf("Username() = %q", v)
	}
	if v, _ := s.Theme(); v != "light" {
		t.Errorf("Theme() = %q", v)
	}
}

func TestHistoryNewestFirstAndCapped(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if h, err := s.History(); err != nil || len(h) != 0 {
		t.Fatalf("empty History() = %v, %v", h, err)
	}

	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	total := config.HistoryLimit + 5
	for i := 0; i < total; i++ {
		if _, err := s.AddHistory(fmt.Sprintf("q%d", i), t0.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatal(err)
		}
	}

	h, err := s.History()
	if err != nil {
		t.Fatal(err)
	}
	if len(h) != config.HistoryLimit {
		t.Fatalf("len = %d, want %d", len(h), config.HistoryLimit)
	}
	if h[0].Query != fmt.Sprintf("q%d", total-1) {
		t.Errorf("newest = %q", h[0].Query)
	}
	if h[len(h)-1].Query != "q5" {
		t.Errorf("oldest kept = %q, want q5", h[len(h)-1].Query)
	}
	if !h[0].Timestamp.Equal(t0.Add(time.Duration(total-1) * time.Second)) {
		t.Errorf("timestamp = %v", h[0].Timestamp)
	}
	if h[0].ID == "" || h[0].ID == h[1].ID {
		t.Errorf("entry ids not unique: %q %q", h[0].ID, h[1].ID)
	}
}

func TestAddHistoryRejectsBlank(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if _, err := s.AddHistory("   ", time.Now()); err == nil {
		t.Error("blank query recorded")
	}
	entry, err := s.AddHistory("  80s Horror ", time.Now())
	if err != nil || entry.Query != "80s Horror" {
		t.Errorf("AddHistory = %+v, %v", entry, err)
	}
}

func TestLogoutKeepsTheme(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	_ = s.SetToken("tok")
	_ = s.SetUsername("neo")
	_ = s.SetTheme("light")
	_, _ = s.AddHistory("noir", time.Now())

	if err := s.Logout(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Token(); !errors.Is(err, ErrNotFound) {
		t.Errorf("token survived logout: %v", err)
	}
	if _, err := s.Username(); !errors.Is(err, ErrNotFound) {
		t.Errorf("user survived logout: %v", err)
	}
	if h, _ := s.History(); len(h) != 0 {
		t.Errorf("history survived logout: %v", h)
	}
	if v, _ := s.Theme(); v != "light" {
		t.Errorf("theme = %q after logout", v)
	}
	if err := s.Logout(); err != nil {
		t.Errorf("second Logout() = %v", err)
	}
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetTheme("light"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if v, _ := s.Theme(); v != "light" {
		t.Errorf("Theme() after reopen = %q", v)
	}
}

func TestBadgerLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := newBadgerLogger(logging.NewTestLogger(&buf))
	l.Warningf("value log %d full\n", 3)
	if !strings.Contains(buf.String(), "value log 3 full") || !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Errorf("log output = %s", buf.String())
	}
}
