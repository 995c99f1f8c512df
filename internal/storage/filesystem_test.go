package storage

import (
	"context"
	"errors"
	"testing"
)

func TestWriteAndReadRoundTrip(t *testing.T) {
	t.Parallel()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	key, err := store.Write(context.Background(), "civitai_abc.png", []byte("bytes"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "civitai_abc.png" {
		t.Fatalf("key = %q", key)
	}

	data, err := store.Read(context.Background(), key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "bytes" {
		t.Fatalf("data = %q", data)
	}

	if _, err := store.Path(key); err != nil {
		t.Fatalf("Path: %v", err)
	}
}

func TestReadMissingKey(t *testing.T) {
	t.Parallel()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if _, err := store.Read(context.Background(), "nope.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := store.Path("nope.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSanitizeKeyRejectsTraversal(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		key  string
		ok   bool
	}{
		{name: "plain", key: "a.png", ok: true},
		{name: "nested", key: "sub/a.png", ok: true},
		{name: "leading_slash", key: "/a.png", ok: true},
		{name: "dot", key: ".", ok: false},
		{name: "parent", key: "../a.png", ok: false},
		{name: "sneaky_parent", key: "sub/../../a.png", ok: false},
		{name: "empty", key: "", ok: false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := sanitizeKey(tc.key)
			if (err == nil) != tc.ok {
				t.Fatalf("sanitizeKey(%q) err = %v, want ok=%v", tc.key, err, tc.ok)
			}
		})
	}
}
