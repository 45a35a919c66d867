package credstore

import (
	"os"
	"path/filepath"
	"testing"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "state.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sq.Close() })
	return map[string]Store{
		"sqlite": sq,
		"memory": NewMemoryStore(),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get(KeyAdminToken); err != nil || ok {
				t.Fatalf("Get on empty store = ok %v, err %v", ok, err)
			}
			if err := s.Set(KeyAdminToken, "tok-1"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := s.Set(KeyAdminToken, "tok-2"); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			v, ok, err := s.Get(KeyAdminToken)
			if err != nil || !ok || v != "tok-2" {
				t.Fatalf("Get = %q, %v, %v; want tok-2", v, ok, err)
			}
		})
	}
}

func TestClearSession(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			s.Set(KeyAdminToken, "a")
			s.Set(KeyRefreshToken, "r")
			s.Set("other", "kept")

			if err := ClearSession(s); err != nil {
				t.Fatalf("ClearSession: %v", err)
			}
			for _, k := range []string{KeyAdminToken, KeyRefreshToken} {
				if _, ok, _ := s.Get(k); ok {
					t.Errorf("%s still present", k)
				}
			}
			if v, ok, _ := s.Get("other"); !ok || v != "kept" {
				t.Errorf("unrelated key removed")
			}
			if err := ClearSession(s); err != nil {
				t.Errorf("second ClearSession: %v", err)
			}
		})
	}
}

func TestSQLiteStorePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(KeyAdminToken, "persisted"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		t.Errorf("store permissions = %v, want owner-only", perm)
	}

	s2, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if v, ok, _ := s2.Get(KeyAdminToken); !ok || v != "persisted" {
		t.Errorf("Get after reopen = %q, %v", v, ok)
	}
}
