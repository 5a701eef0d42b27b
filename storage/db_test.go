package storage

import (
	"errors"
	"testing"
)

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	value := []byte("original")
	if err := db.Put([]byte("k"), value); err != nil {
		t.Fatalf("put: %v", err)
	}
	value[0] = 'X'

	got, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "original" {
		t.Fatalf("stored value aliased caller buffer: %q", got)
	}

	// Mutating the returned slice must not poison the store either.
	got[0] = 'Y'
	again, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(again) != "original" {
		t.Fatalf("returned value aliased stored buffer: %q", again)
	}
}

func TestMemDBMissingKey(t *testing.T) {
	db := NewMemDB()
	if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	ok, err := db.Has([]byte("missing"))
	if err != nil || ok {
		t.Fatalf("has = %v, %v", ok, err)
	}
}

func TestLevelDBMapsNotFound(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := db.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := db.Get([]byte("k"))
	if err != nil || string(got) != "v" {
		t.Fatalf("get = %q, %v", got, err)
	}
}
