package storage

import (
	"context"
	"errors"
	"testing"
)

func TestLocalStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(t.TempDir())

	key := "bronze/weather/year=2024/month=01/day=11/data.json"
	body := []byte(`{"days":[]}`)

	exists, err := s.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("Exists = true before put")
	}

	if err := s.PutJSON(ctx, key, body, map[string]string{"source": "weather"}); err != nil {
		t.Fatalf("PutJSON: %v", err)
	}

	exists, err = s.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Error("Exists = false after put")
	}

	got, err := s.GetJSON(ctx, key)
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if string(got) != string(body) {
		t.Errorf("GetJSON = %q, want %q", got, body)
	}
}

func TestLocalStoreGetMissing(t *testing.T) {
	s := NewLocalStore(t.TempDir())

	_, err := s.GetJSON(context.Background(), "bronze/weather/year=2024/month=01/day=11/data.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetJSON error = %v, want ErrNotFound", err)
	}
}

func TestLocalStoreListPrefixSorted(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(t.TempDir())

	// Written out of order; listing must sort.
	keys := []string{
		"bronze/weather/year=2024/month=01/day=11/13_30.json",
		"bronze/weather/year=2024/month=01/day=11/02_30.json",
		"bronze/weather/year=2024/month=01/day=11/21_30.json",
		"bronze/weather/year=2024/month=01/day=12/00_30.json",
	}
	for _, k := range keys {
		if err := s.PutJSON(ctx, k, []byte("{}"), nil); err != nil {
			t.Fatalf("PutJSON %s: %v", k, err)
		}
	}

	got, err := s.ListPrefix(ctx, "bronze/weather/year=2024/month=01/day=11/")
	if err != nil {
		t.Fatalf("ListPrefix: %v", err)
	}
	want := []string{
		"bronze/weather/year=2024/month=01/day=11/02_30.json",
		"bronze/weather/year=2024/month=01/day=11/13_30.json",
		"bronze/weather/year=2024/month=01/day=11/21_30.json",
	}
	if len(got) != len(want) {
		t.Fatalf("ListPrefix returned %d keys, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListPrefix[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLocalStoreListPrefixEmptyBase(t *testing.T) {
	s := NewLocalStore(t.TempDir() + "/missing")

	got, err := s.ListPrefix(context.Background(), "bronze/")
	if err != nil {
		t.Fatalf("ListPrefix: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListPrefix = %v, want empty", got)
	}
}

func TestLocalStoreDeleteIfExists(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(t.TempDir())

	key := "bronze/electricity/total_load/year=2024/month=01/day=11/05_30.json"
	if err := s.PutJSON(ctx, key, []byte("{}"), nil); err != nil {
		t.Fatalf("PutJSON: %v", err)
	}

	if err := s.DeleteIfExists(ctx, key); err != nil {
		t.Fatalf("DeleteIfExists: %v", err)
	}
	exists, err := s.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("object still exists after delete")
	}

	// Deleting a missing key is not an error.
	if err := s.DeleteIfExists(ctx, key); err != nil {
		t.Errorf("DeleteIfExists on missing key: %v", err)
	}
}
