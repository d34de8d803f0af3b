package cache

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FeiBaoHuYu/KJsonQuery/eval"
	"github.com/FeiBaoHuYu/KJsonQuery/value"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		path           string
		wantArray      string
		wantFilter     string
		wantTail       string
		wantOK         bool
	}{
		{
			`$.store.book[?(@.price>10)]`,
			`$.store.book`, `(@.price>10)`, ``, true,
		},
		{
			`$.store.book[?(@.price>10)].title`,
			`$.store.book`, `(@.price>10)`, `.title`, true,
		},
		{
			// nested parens inside the filter expression must not confuse
			// the balanced scan for the closing ']'.
			`$.store.book[?((@.a>1)||(@.b<2))].title`,
			`$.store.book`, `((@.a>1)||(@.b<2))`, `.title`, true,
		},
		{
			`$.store.book`,
			``, ``, ``, false,
		},
		{
			`$.store.book[?(@.price>10`, // unterminated
			``, ``, ``, false,
		},
	}
	for _, test := range tests {
		arrayPath, filterExpr, tail, ok := Split(test.path)
		if ok != test.wantOK {
			t.Errorf("Split(%q) ok = %v, want %v", test.path, ok, test.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if arrayPath != test.wantArray || filterExpr != test.wantFilter || tail != test.wantTail {
			t.Errorf("Split(%q) = (%q, %q, %q), want (%q, %q, %q)",
				test.path, arrayPath, filterExpr, tail, test.wantArray, test.wantFilter, test.wantTail)
		}
	}
}

func TestCache_putGetHasInvalidateClear(t *testing.T) {
	c := New()
	arr := value.Array{value.Integer(1), value.Integer(2)}
	if c.Has("$.a") {
		t.Fatal("Has on empty cache reported true")
	}
	c.Put("$.a", arr)
	if !c.Has("$.a") {
		t.Fatal("Has after Put reported false")
	}
	got, ok := c.Get("$.a")
	if !ok || !cmp.Equal(got, arr) {
		t.Fatalf("Get = %v, %v; want %v, true", got, ok, arr)
	}
	c.Invalidate("$.a")
	if c.Has("$.a") {
		t.Fatal("Has after Invalidate reported true")
	}
	c.Put("$.a", arr)
	c.Put("$.b", arr)
	c.Clear()
	if c.Has("$.a") || c.Has("$.b") {
		t.Fatal("Has after Clear reported true")
	}
}

func book(category string, price float64) *value.Object {
	o := value.NewObject()
	o.Put("category", value.String(category))
	o.Put("price", value.Float(price))
	return o
}

func TestCache_query(t *testing.T) {
	c := New()
	fiction1 := book("fiction", 8.95)
	fiction2 := book("fiction", 12.99)
	reference := book("reference", 8.99)
	nonObject := value.Integer(99) // must be silently skipped, never matches

	c.Put("$.store.book", value.Array{fiction1, fiction2, reference, nonObject})

	got, err := c.Query("$.store.book", `(@.category=="fiction")`, "", eval.Options{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	// *Object carries unexported fields, so identity is the right check
	// here, not cmp.Diff.
	want := []value.Value{fiction1, fiction2}
	if len(got) != len(want) {
		t.Fatalf("got %d results, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCache_queryWithTail(t *testing.T) {
	c := New()
	c.Put("$.store.book", value.Array{book("fiction", 8.95), book("fiction", 12.99)})

	got, err := c.Query("$.store.book", `(@.price>10)`, ".price", eval.Options{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	want := []value.Value{value.Float(12.99)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}
}

func TestCache_queryRespectsLimit(t *testing.T) {
	c := New()
	c.Put("$.store.book", value.Array{book("fiction", 1), book("fiction", 2), book("fiction", 3)})

	got, err := c.Query("$.store.book", `(@.category=="fiction")`, "", eval.Options{Limit: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d results, want 2", len(got))
	}
}

func TestCache_queryMissingArrayIsError(t *testing.T) {
	c := New()
	if _, err := c.Query("$.nope", `(@.a==1)`, "", eval.Options{}); err == nil {
		t.Error("Query against an uncached path: want error, got none")
	}
}
