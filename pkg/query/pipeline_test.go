package query

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/noteql/noteql/pkg/eval"
	"github.com/noteql/noteql/pkg/parser"
	"github.com/noteql/noteql/pkg/types"
	"github.com/noteql/noteql/pkg/value"
)

// fakeIndex is a hand-built snapshot for pipeline tests.
type fakeIndex struct {
	docs  map[string]value.Object
	tags  map[string][]string
	links map[string][]string
}

func (f *fakeIndex) Resolve(path string) (value.Object, bool) {
	doc, ok := f.docs[f.Normalize(path)]
	return doc, ok
}

func (f *fakeIndex) Normalize(path string) string {
	if _, ok := f.docs[path]; ok {
		return path
	}
	if _, ok := f.docs[path+".md"]; ok {
		return path + ".md"
	}
	return path
}

func (f *fakeIndex) Exists(path string) bool {
	_, ok := f.docs[f.Normalize(path)]
	return ok
}

func (f *fakeIndex) Paths() []string {
	out := make([]string, 0, len(f.docs))
	for p := range f.docs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (f *fakeIndex) PathsWithTag(tag string) []string { return f.tags[tag] }

func (f *fakeIndex) PathsUnderPrefix(prefix string) []string {
	var out []string
	for _, p := range f.Paths() {
		if prefix == "" || p == prefix || strings.HasPrefix(p, prefix+"/") {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeIndex) OutgoingLinks(path string) []string { return f.links[f.Normalize(path)] }

func (f *fakeIndex) DocumentFields(path string) (value.Object, bool) {
	doc, ok := f.docs[path]
	return doc, ok
}

// doc builds a document namespace with a "file" object plus extra
// fields.
func doc(path string, fields map[string]value.Value) value.Object {
	name := path
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".md")

	out := value.Object{
		"file": value.Object{
			"name": value.String(name),
			"path": value.String(path),
			"link": value.FileLink(path),
		},
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func gameIndex() *fakeIndex {
	return &fakeIndex{
		docs: map[string]value.Object{
			"games/chess.md":  doc("games/chess.md", map[string]value.Value{"rating": value.Number(2)}),
			"games/go.md":     doc("games/go.md", map[string]value.Value{"rating": value.Number(4)}),
			"games/hive.md":   doc("games/hive.md", map[string]value.Value{"rating": value.Number(5)}),
			"notes/review.md": doc("notes/review.md", nil),
		},
		tags: map[string][]string{
			"#game": {"games/chess.md", "games/go.md", "games/hive.md"},
		},
		links: map[string][]string{
			"notes/review.md": {"games/go.md", "games/hive.md"},
			"games/go.md":     {"games/chess.md"},
		},
	}
}

func run(t *testing.T, idx Index, text string) *Result {
	t.Helper()
	q, err := parser.ParseQuery(text)
	if err != nil {
		t.Fatalf("ParseQuery(%q) failed: %v", text, err)
	}
	res, err := NewExecutor(idx).Execute(q, "")
	if err != nil {
		t.Fatalf("Execute(%q) failed: %v", text, err)
	}
	return res
}

func runErr(t *testing.T, idx Index, text string) *types.Error {
	t.Helper()
	q, err := parser.ParseQuery(text)
	if err != nil {
		t.Fatalf("ParseQuery(%q) failed: %v", text, err)
	}
	_, err = NewExecutor(idx).Execute(q, "")
	if err == nil {
		t.Fatalf("Execute(%q) succeeded, want error", text)
	}
	var qerr *types.Error
	if !errors.As(err, &qerr) {
		t.Fatalf("error is %T, want *types.Error", err)
	}
	return qerr
}

func cell(t *testing.T, res *Result, row int, column string) value.Value {
	t.Helper()
	for i, c := range res.Columns {
		if c == column {
			return res.Rows[row][i]
		}
	}
	t.Fatalf("no column %q in %v", column, res.Columns)
	return nil
}

func TestExecuteEndToEnd(t *testing.T) {
	res := run(t, gameIndex(),
		`TABLE file.name, rating FROM #game WHERE rating > 3 SORT rating DESC LIMIT 1`)

	wantColumns := []string{"File", "file.name", "rating"}
	if len(res.Columns) != len(wantColumns) {
		t.Fatalf("columns = %v, want %v", res.Columns, wantColumns)
	}
	for i, c := range wantColumns {
		if res.Columns[i] != c {
			t.Errorf("column %d = %q, want %q", i, res.Columns[i], c)
		}
	}

	if res.Len() != 1 {
		t.Fatalf("got %d rows, want 1", res.Len())
	}
	if got := cell(t, res, 0, "file.name"); value.Compare(got, value.String("hive")) != 0 {
		t.Errorf("name = %v, want hive", got)
	}
	if got := cell(t, res, 0, "rating"); value.Compare(got, value.Number(5)) != 0 {
		t.Errorf("rating = %v, want 5", got)
	}
	if got := cell(t, res, 0, "File"); value.Compare(got, value.FileLink("games/hive.md")) != 0 {
		t.Errorf("File = %v, want link to games/hive.md", got)
	}
}

func TestOperationOrderMatters(t *testing.T) {
	idx := gameIndex()

	sorted := run(t, idx, `TABLE rating FROM #game SORT rating DESC LIMIT 1`)
	if got := cell(t, sorted, 0, "rating"); value.Compare(got, value.Number(5)) != 0 {
		t.Errorf("sort-then-limit rating = %v, want 5", got)
	}

	// LIMIT first truncates in path order, before the sort can see the
	// highest-rated document.
	limited := run(t, idx, `TABLE rating FROM #game LIMIT 1 SORT rating DESC`)
	if got := cell(t, limited, 0, "rating"); value.Compare(got, value.Number(2)) != 0 {
		t.Errorf("limit-then-sort rating = %v, want 2", got)
	}
}

func TestWhereDegradesPerRow(t *testing.T) {
	idx := &fakeIndex{docs: map[string]value.Object{
		"a.md": doc("a.md", map[string]value.Value{"rating": value.Number(4)}),
		"b.md": doc("b.md", map[string]value.Value{"rating": value.String("high")}),
		"c.md": doc("c.md", nil),
	}}

	// string % number has no operator: that row is dropped, not fatal.
	// The missing rating yields null % 2 = null, which is not 0.
	res := run(t, idx, `TABLE rating FROM "" WHERE rating % 2 = 0`)
	if res.Len() != 1 {
		t.Fatalf("got %d rows, want 1", res.Len())
	}
	if got := cell(t, res, 0, "rating"); value.Compare(got, value.Number(4)) != 0 {
		t.Errorf("rating = %v, want 4", got)
	}
}

func TestSortFailuresLast(t *testing.T) {
	idx := &fakeIndex{docs: map[string]value.Object{
		"a.md": doc("a.md", map[string]value.Value{"n": value.Number(2), "bad": value.String("x")}),
		"b.md": doc("b.md", map[string]value.Value{"n": value.Number(1), "bad": value.String("y")}),
		"c.md": doc("c.md", map[string]value.Value{"n": value.Number(3), "bad": value.Number(1)}),
	}}

	// bad % 2 fails for the two string-valued rows; the only numeric row
	// sorts first and the failures keep their relative order.
	res := run(t, idx, `TABLE file.name FROM "" SORT bad % 2`)
	want := []string{"c", "a", "b"}
	for i, name := range want {
		if got := cell(t, res, i, "file.name"); value.Compare(got, value.String(name)) != 0 {
			t.Errorf("row %d = %v, want %s", i, got, name)
		}
	}
}

func TestSortUsesOperatorRegistry(t *testing.T) {
	// A host-installed comparison operator must drive SORT. Inverting
	// the wildcard comparisons flips the sort order.
	ops := eval.DefaultOperators()
	ops.Register(eval.AnyKind, "<", eval.AnyKind, func(_ *eval.Context, l, rv value.Value) (value.Value, error) {
		return value.Boolean(value.Compare(l, rv) > 0), nil
	})
	ops.Register(eval.AnyKind, ">", eval.AnyKind, func(_ *eval.Context, l, rv value.Value) (value.Value, error) {
		return value.Boolean(value.Compare(l, rv) < 0), nil
	})

	idx := gameIndex()
	q, err := parser.ParseQuery(`TABLE rating FROM #game SORT rating`)
	if err != nil {
		t.Fatalf("ParseQuery failed: %v", err)
	}
	exec := NewExecutor(idx, WithContextOptions(eval.WithOperators(ops)))
	res, err := exec.Execute(q, "")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := []float64{5, 4, 2}
	for i, rating := range want {
		if got := cell(t, res, i, "rating"); value.Compare(got, value.Number(rating)) != 0 {
			t.Errorf("row %d rating = %v, want %v", i, got, rating)
		}
	}
}

func TestLimit(t *testing.T) {
	idx := gameIndex()

	t.Run("expression amount", func(t *testing.T) {
		res := run(t, idx, `TABLE rating FROM #game LIMIT 1 + 1`)
		if res.Len() != 2 {
			t.Errorf("got %d rows, want 2", res.Len())
		}
	})

	t.Run("negative clamps to zero", func(t *testing.T) {
		res := run(t, idx, `TABLE rating FROM #game LIMIT 0 - 5`)
		if res.Len() != 0 {
			t.Errorf("got %d rows, want 0", res.Len())
		}
	})

	t.Run("non-numeric amount is fatal", func(t *testing.T) {
		err := runErr(t, idx, `TABLE rating FROM #game LIMIT "three"`)
		if err.Code != types.ErrBadLimit {
			t.Errorf("code = %s, want %s", err.Code, types.ErrBadLimit)
		}
	})

	t.Run("amount evaluates on the root context", func(t *testing.T) {
		// rating is a per-row field; the root context resolves it to
		// null, which is not a number.
		err := runErr(t, idx, `TABLE rating FROM #game LIMIT rating`)
		if err.Code != types.ErrBadLimit {
			t.Errorf("code = %s, want %s", err.Code, types.ErrBadLimit)
		}
	})
}

func TestFlatten(t *testing.T) {
	idx := &fakeIndex{docs: map[string]value.Object{
		"a.md": doc("a.md", map[string]value.Value{
			"genres": value.Array{value.String("scifi"), value.String("horror")},
		}),
		"b.md": doc("b.md", map[string]value.Value{
			"genres": value.String("drama"),
		}),
	}}

	res := run(t, idx, `TABLE genres FROM "" FLATTEN genres`)
	if res.Len() != 3 {
		t.Fatalf("got %d rows, want 3", res.Len())
	}
	want := []string{"scifi", "horror", "drama"}
	for i, genre := range want {
		if got := cell(t, res, i, "genres"); value.Compare(got, value.String(genre)) != 0 {
			t.Errorf("row %d genre = %v, want %s", i, got, genre)
		}
	}
}

func TestFlattenWithAlias(t *testing.T) {
	idx := &fakeIndex{docs: map[string]value.Object{
		"a.md": doc("a.md", map[string]value.Value{
			"genres": value.Array{value.String("scifi")},
		}),
	}}

	res := run(t, idx, `TABLE g, genres FROM "" FLATTEN genres AS g`)
	if res.Len() != 1 {
		t.Fatalf("got %d rows, want 1", res.Len())
	}
	if got := cell(t, res, 0, "g"); value.Compare(got, value.String("scifi")) != 0 {
		t.Errorf("alias binding = %v, want scifi", got)
	}
	// The original array stays bound under its own name.
	if got := cell(t, res, 0, "genres"); got.Kind() != value.KindArray {
		t.Errorf("original field = %v, want array", got)
	}
}

func TestGroup(t *testing.T) {
	idx := &fakeIndex{docs: map[string]value.Object{
		"a.md": doc("a.md", map[string]value.Value{"genre": value.String("scifi")}),
		"b.md": doc("b.md", map[string]value.Value{"genre": value.String("horror")}),
		"c.md": doc("c.md", map[string]value.Value{"genre": value.String("scifi")}),
	}}

	res := run(t, idx, `TABLE length(rows) FROM "" GROUP BY genre`)
	if res.Len() != 2 {
		t.Fatalf("got %d rows, want 2", res.Len())
	}

	// First-seen order: scifi (a.md) before horror (b.md).
	if got := cell(t, res, 0, "File"); value.Compare(got, value.String("scifi")) != 0 {
		t.Errorf("first group key = %v, want scifi", got)
	}
	if got := cell(t, res, 0, "length(rows)"); value.Compare(got, value.Number(2)) != 0 {
		t.Errorf("first group size = %v, want 2", got)
	}
	if got := cell(t, res, 1, "length(rows)"); value.Compare(got, value.Number(1)) != 0 {
		t.Errorf("second group size = %v, want 1", got)
	}
}

func TestGroupAliasedKeyIdentity(t *testing.T) {
	idx := &fakeIndex{docs: map[string]value.Object{
		"a.md": doc("a.md", map[string]value.Value{"genre": value.String("scifi")}),
		"b.md": doc("b.md", map[string]value.Value{"genre": value.String("horror")}),
	}}

	// The identity column must show the group key whatever name the
	// alias binds it under.
	res := run(t, idx, `TABLE length(rows) FROM "" GROUP BY genre AS g`)
	if res.Len() != 2 {
		t.Fatalf("got %d groups, want 2", res.Len())
	}
	if got := cell(t, res, 0, "File"); value.Compare(got, value.String("scifi")) != 0 {
		t.Errorf("first group identity = %v, want scifi", got)
	}
	if got := cell(t, res, 1, "File"); value.Compare(got, value.String("horror")) != 0 {
		t.Errorf("second group identity = %v, want horror", got)
	}
}

func TestGroupStructuralKeys(t *testing.T) {
	// Two documents carry structurally equal but reference-distinct
	// object keys; they must share one bucket.
	meta := func() value.Object {
		return value.Object{"genre": value.String("scifi"), "era": value.Number(1970)}
	}
	idx := &fakeIndex{docs: map[string]value.Object{
		"a.md": doc("a.md", map[string]value.Value{"meta": meta()}),
		"b.md": doc("b.md", map[string]value.Value{"meta": meta()}),
	}}

	res := run(t, idx, `TABLE length(rows) FROM "" GROUP BY meta`)
	if res.Len() != 1 {
		t.Fatalf("got %d groups, want 1", res.Len())
	}
	if got := cell(t, res, 0, "length(rows)"); value.Compare(got, value.Number(2)) != 0 {
		t.Errorf("group size = %v, want 2", got)
	}
}

func TestGroupMissingKeyBucket(t *testing.T) {
	idx := &fakeIndex{docs: map[string]value.Object{
		"a.md": doc("a.md", map[string]value.Value{"genre": value.String("scifi")}),
		"b.md": doc("b.md", nil),
		"c.md": doc("c.md", nil),
	}}

	res := run(t, idx, `TABLE key, length(rows) FROM "" GROUP BY genre AS key`)
	if res.Len() != 2 {
		t.Fatalf("got %d groups, want 2", res.Len())
	}
	if got := cell(t, res, 1, "key"); got.Kind() != value.KindNull {
		t.Errorf("missing-key bucket key = %v, want null", got)
	}
	if got := cell(t, res, 1, "length(rows)"); value.Compare(got, value.Number(2)) != 0 {
		t.Errorf("missing-key bucket size = %v, want 2", got)
	}
}

func TestListProjection(t *testing.T) {
	idx := gameIndex()

	t.Run("bare list", func(t *testing.T) {
		res := run(t, idx, `LIST FROM #game`)
		if res.Len() != 3 {
			t.Fatalf("got %d rows, want 3", res.Len())
		}
		if len(res.Columns) != 1 || res.Columns[0] != "File" {
			t.Errorf("columns = %v, want [File]", res.Columns)
		}
	})

	t.Run("list with field", func(t *testing.T) {
		res := run(t, idx, `LIST rating FROM #game WHERE rating = 5`)
		if res.Len() != 1 {
			t.Fatalf("got %d rows, want 1", res.Len())
		}
		if got := cell(t, res, 0, "rating"); value.Compare(got, value.Number(5)) != 0 {
			t.Errorf("rating = %v, want 5", got)
		}
	})
}

func TestResolveSources(t *testing.T) {
	idx := gameIndex()

	resolve := func(t *testing.T, text string) map[string]struct{} {
		t.Helper()
		src, err := parser.ParseSource(text)
		if err != nil {
			t.Fatalf("ParseSource(%q) failed: %v", text, err)
		}
		paths, err := ResolveSource(src, idx, "")
		if err != nil {
			t.Fatalf("ResolveSource(%q) failed: %v", text, err)
		}
		return paths
	}

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"tag", `#game`, []string{"games/chess.md", "games/go.md", "games/hive.md"}},
		{"folder", `"games"`, []string{"games/chess.md", "games/go.md", "games/hive.md"}},
		{"folder misses siblings", `"notes"`, []string{"notes/review.md"}},
		{"empty folder matches everything", `""`,
			[]string{"games/chess.md", "games/go.md", "games/hive.md", "notes/review.md"}},
		{"intersection", `#game and "games"`, []string{"games/chess.md", "games/go.md", "games/hive.md"}},
		{"union", `#game or "notes"`,
			[]string{"games/chess.md", "games/go.md", "games/hive.md", "notes/review.md"}},
		{"negation", `!#game`, []string{"notes/review.md"}},
		{"outgoing links", `outgoing([[notes/review]])`, []string{"games/go.md", "games/hive.md"}},
		{"incoming links", `[[games/chess]]`, []string{"games/go.md"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolve(t, tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("resolved %d paths %v, want %v", len(got), got, tt.want)
			}
			for _, p := range tt.want {
				if _, ok := got[p]; !ok {
					t.Errorf("missing path %s in %v", p, got)
				}
			}
		})
	}

	t.Run("unresolvable link is a hard error", func(t *testing.T) {
		src, err := parser.ParseSource(`[[nowhere]]`)
		if err != nil {
			t.Fatalf("ParseSource failed: %v", err)
		}
		_, err = ResolveSource(src, idx, "")
		var qerr *types.Error
		if !errors.As(err, &qerr) || qerr.Code != types.ErrUnresolvedLink {
			t.Errorf("err = %v, want code %s", err, types.ErrUnresolvedLink)
		}
	})

	t.Run("empty link target anchors at the origin", func(t *testing.T) {
		src, err := parser.ParseSource(`outgoing([[]])`)
		if err != nil {
			t.Fatalf("ParseSource failed: %v", err)
		}
		paths, err := ResolveSource(src, idx, "notes/review.md")
		if err != nil {
			t.Fatalf("ResolveSource failed: %v", err)
		}
		if len(paths) != 2 {
			t.Errorf("resolved %d paths, want 2", len(paths))
		}
	})
}

func TestProjectionErrorsYieldNullCells(t *testing.T) {
	idx := &fakeIndex{docs: map[string]value.Object{
		"a.md": doc("a.md", map[string]value.Value{"rating": value.String("high")}),
	}}

	res := run(t, idx, `TABLE rating % 2 FROM ""`)
	if res.Len() != 1 {
		t.Fatalf("got %d rows, want 1", res.Len())
	}
	if got := res.Rows[0][1]; got.Kind() != value.KindNull {
		t.Errorf("failing cell = %v, want null", got)
	}
}
