package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFSStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := s.Put(ctx, "bank/analogy.json", strings.NewReader(`[]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	rc, err := s.Get(ctx, "bank/analogy.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "[]" {
		t.Fatalf("unexpected content %q", b)
	}
}

func TestFSStore_StaysInBase(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, _ := NewFSStore(base)
	if _, err := s.Put(ctx, "../../escape.json", strings.NewReader("x")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if got := s.path("../../escape.json"); !strings.HasPrefix(got, base) {
		t.Fatalf("path escaped base: %s", got)
	}
}

func TestFSStore_Missing(t *testing.T) {
	s, _ := NewFSStore(t.TempDir())
	if _, err := s.Get(context.Background(), "nope.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: "gcs"}); err == nil {
		t.Fatalf("gcs is not supported")
	}
}
