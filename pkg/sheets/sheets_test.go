package sheets

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func newTestClient(fetch func(ctx context.Context) ([]string, error), now func() time.Time) *Client {
	c := &Client{spreadsheetID: "test"}
	c.fetch = fetch
	c.now = now
	return c
}

func TestListProjectNamesCaches(t *testing.T) {
	calls := 0
	clock := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	c := newTestClient(
		func(context.Context) ([]string, error) {
			calls++
			return []string{"Client A", "Client B"}, nil
		},
		func() time.Time { return clock },
	)

	for i := 0; i < 3; i++ {
		names, err := c.ListProjectNames(context.Background())
		if err != nil {
			t.Fatalf("ListProjectNames: %v", err)
		}
		if !reflect.DeepEqual(names, []string{"Client A", "Client B"}) {
			t.Errorf("names = %v", names)
		}
	}
	if calls != 1 {
		t.Errorf("fetch calls within TTL = %d, want 1", calls)
	}

	// Past the TTL the cache is refreshed.
	clock = clock.Add(6 * time.Minute)
	if _, err := c.ListProjectNames(context.Background()); err != nil {
		t.Fatalf("ListProjectNames after TTL: %v", err)
	}
	if calls != 2 {
		t.Errorf("fetch calls after TTL = %d, want 2", calls)
	}
}

func TestListProjectNamesCachesEmptyColumn(t *testing.T) {
	calls := 0
	clock := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	c := newTestClient(
		func(context.Context) ([]string, error) {
			calls++
			return []string{}, nil
		},
		func() time.Time { return clock },
	)

	for i := 0; i < 3; i++ {
		names, err := c.ListProjectNames(context.Background())
		if err != nil {
			t.Fatalf("ListProjectNames: %v", err)
		}
		if len(names) != 0 {
			t.Errorf("names = %v, want empty", names)
		}
	}
	if calls != 1 {
		t.Errorf("fetch calls for an empty column within TTL = %d, want 1", calls)
	}

	clock = clock.Add(6 * time.Minute)
	if _, err := c.ListProjectNames(context.Background()); err != nil {
		t.Fatalf("ListProjectNames after TTL: %v", err)
	}
	if calls != 2 {
		t.Errorf("fetch calls after TTL = %d, want 2", calls)
	}
}

func TestListProjectNamesServesStaleOnError(t *testing.T) {
	fail := false
	clock := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	c := newTestClient(
		func(context.Context) ([]string, error) {
			if fail {
				return nil, errors.New("quota exceeded")
			}
			return []string{"Client A"}, nil
		},
		func() time.Time { return clock },
	)

	if _, err := c.ListProjectNames(context.Background()); err != nil {
		t.Fatalf("ListProjectNames: %v", err)
	}

	fail = true
	clock = clock.Add(10 * time.Minute)
	names, err := c.ListProjectNames(context.Background())
	if err != nil {
		t.Fatalf("ListProjectNames with failing fetch: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"Client A"}) {
		t.Errorf("stale names = %v, want last good list", names)
	}
}

func TestListProjectNamesEmptyWithoutCache(t *testing.T) {
	c := newTestClient(
		func(context.Context) ([]string, error) { return nil, errors.New("unreachable") },
		time.Now,
	)
	names, err := c.ListProjectNames(context.Background())
	if err != nil {
		t.Fatalf("ListProjectNames: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("names = %v, want empty", names)
	}
}
