package consumer

import "testing"

func TestAckCache(t *testing.T) {
	c := NewAckCache()
	h1 := HashAnswer("answer one")
	h2 := HashAnswer("answer two")

	if c.Duplicate("1", h1) {
		t.Fatal("empty cache reported a duplicate")
	}
	c.Record("1", h1)

	if !c.Duplicate("1", h1) {
		t.Fatal("recorded hash not reported as duplicate")
	}
	if c.Duplicate("1", h2) {
		t.Fatal("different hash reported as duplicate")
	}
	if c.Duplicate("2", h1) {
		t.Fatal("cache leaked across question ids")
	}

	// New answer replaces the old hash.
	c.Record("1", h2)
	if c.Duplicate("1", h1) || !c.Duplicate("1", h2) {
		t.Fatal("record did not replace the cached hash")
	}
}
