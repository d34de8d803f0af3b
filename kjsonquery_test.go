package kjsonquery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FeiBaoHuYu/KJsonQuery/value"
)

const testDoc = `{
  "store": {
    "book": [
      {"category": "fiction", "price": 8.95, "title": "A"},
      {"category": "fiction", "price": 12.99, "title": "B"},
      {"category": "reference", "price": 8.99, "title": "C"}
    ],
    "bicycle": {"color": "red", "price": 19.95}
  }
}`

func openTestDoc(t *testing.T, contents string) *Handle {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	h, err := GetOrCreate(path)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	t.Cleanup(func() { h.Release() })
	return h
}

func TestQuery_propertyAndIndex(t *testing.T) {
	h := openTestDoc(t, testDoc)

	got, err := h.Query("$.store.bicycle.color")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if diff := cmp.Diff([]value.Value{value.String("red")}, got); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}

	got, err = h.Query("$.store.book[1].title")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if diff := cmp.Diff([]value.Value{value.String("B")}, got); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}
}

func TestQuery_filterAndTail(t *testing.T) {
	h := openTestDoc(t, testDoc)

	got, err := h.Query(`$.store.book[?(@.category=="fiction")].title`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	want := []value.Value{value.String("A"), value.String("B")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}
}

func TestQuery_limitAndWhere(t *testing.T) {
	h := openTestDoc(t, testDoc)

	got, err := h.Query("$.store.book[*].price", Limit(1))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}

	got, err = h.Query("$.store.book[*].price", Where(func(v value.Value) bool {
		f, ok := value.AsFloat64(v)
		return ok && f > 10
	}))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if diff := cmp.Diff([]value.Value{value.Float(12.99)}, got); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}
}

func TestQuery_malformedPathDegradesToEmptyResult(t *testing.T) {
	h := openTestDoc(t, testDoc)

	got, err := h.Query("$.store.book[")
	if err != nil {
		t.Fatalf("Query on malformed path returned an error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestCacheArray_thenFilteredQueryHitsCache(t *testing.T) {
	h := openTestDoc(t, testDoc)

	cached := h.CacheArray("$.store.book")
	if len(cached) != 3 {
		t.Fatalf("CacheArray returned %d elements, want 3", len(cached))
	}
	if !h.IsArrayCached("$.store.book") {
		t.Fatal("IsArrayCached reported false after CacheArray")
	}

	got, err := h.Query(`$.store.book[?(@.category=="reference")].title`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if diff := cmp.Diff([]value.Value{value.String("C")}, got); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}

	h.InvalidateArrayCache("$.store.book")
	if h.IsArrayCached("$.store.book") {
		t.Fatal("IsArrayCached reported true after InvalidateArrayCache")
	}
}

func TestCacheArray_explicitCacheKey(t *testing.T) {
	h := openTestDoc(t, testDoc)

	h.CacheArray("$.store.book", "books")
	if !h.IsArrayCached("books") {
		t.Fatal("IsArrayCached(books) reported false")
	}
	if h.IsArrayCached("$.store.book") {
		t.Fatal("IsArrayCached($.store.book) reported true; should only be keyed as books")
	}

	got, err := h.Query(`books[?(@.price>10)].title`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if diff := cmp.Diff([]value.Value{value.String("B")}, got); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}
}

func TestCacheArray_emptyResultCachesNothing(t *testing.T) {
	h := openTestDoc(t, testDoc)

	got := h.CacheArray("$.store.nonexistent")
	if got != nil {
		t.Errorf("CacheArray = %v, want nil", got)
	}
	if h.IsArrayCached("$.store.nonexistent") {
		t.Error("IsArrayCached reported true for an empty result")
	}
}

func TestClearArrayCache(t *testing.T) {
	h := openTestDoc(t, testDoc)
	h.CacheArray("$.store.book")
	h.ClearArrayCache()
	if h.IsArrayCached("$.store.book") {
		t.Error("IsArrayCached reported true after ClearArrayCache")
	}
}

func TestGetOrCreate_sharesHandleForSamePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := os.WriteFile(path, []byte(testDoc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	defer ReleaseInstance(path)

	h1, err := GetOrCreate(path)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	h2, err := GetOrCreate(path)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if h1 != h2 {
		t.Error("GetOrCreate returned distinct Handles for the same path")
	}
}

func TestGetOrCreate_missingFile(t *testing.T) {
	_, err := GetOrCreate(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetOrCreate on a missing file: err = %v, want ErrNotFound", err)
	}
}

func TestQuery_emptyFileYieldsEmptyResult(t *testing.T) {
	h := openTestDoc(t, "")
	got, err := h.Query("$.a.b")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestBuilder(t *testing.T) {
	h := openTestDoc(t, testDoc)

	got, err := Select(`$.store.book[?(@.category=="fiction")].price`).From(h).Execute()
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []value.Value{value.Float(8.95), value.Float(12.99)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}

	count, err := Select("$.store.book[*]").From(h).Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("Count = %d, want 3", count)
	}

	first, err := Select("$.store.bicycle.color").From(h).First()
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if first != value.String("red") {
		t.Errorf("First = %v, want red", first)
	}

	nothing, err := Select("$.store.nonexistent").From(h).FirstOrNil()
	if err != nil {
		t.Fatalf("FirstOrNil: %v", err)
	}
	if nothing != nil {
		t.Errorf("FirstOrNil = %v, want nil", nothing)
	}
}

func TestBuilder_withoutFromErrors(t *testing.T) {
	_, err := Select("$.a").Execute()
	if err == nil {
		t.Error("Execute without From: want error, got none")
	}
}
