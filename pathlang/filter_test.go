package pathlang

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FeiBaoHuYu/KJsonQuery/value"
)

func TestParseFilter_leaf(t *testing.T) {
	tests := []struct {
		expr string
		want Filter
	}{
		{
			`@.price>10`,
			Filter{Op: OpAnd, Conditions: []Condition{{Property: "price", Operator: OpGT, Literal: value.Integer(10)}}},
		},
		{
			`@.price<=10.5`,
			Filter{Op: OpAnd, Conditions: []Condition{{Property: "price", Operator: OpLE, Literal: value.Float(10.5)}}},
		},
		{
			`@.category=="fiction"`,
			Filter{Op: OpAnd, Conditions: []Condition{{Property: "category", Operator: OpEQ, Literal: value.String("fiction")}}},
		},
		{
			`@.active==true`,
			Filter{Op: OpAnd, Conditions: []Condition{{Property: "active", Operator: OpEQ, Literal: value.Bool(true)}}},
		},
		{
			` @.price >= 3 `,
			Filter{Op: OpAnd, Conditions: []Condition{{Property: "price", Operator: OpGE, Literal: value.Integer(3)}}},
		},
	}
	for _, test := range tests {
		got := ParseFilter(test.expr)
		if diff := cmp.Diff(&test.want, got); diff != "" {
			t.Errorf("ParseFilter(%q): (-want +got)\n%s", test.expr, diff)
		}
	}
}

// Operator detection must try the two-character operators before the
// one-character ones, or "<=" and ">=" get split in the wrong place (a
// naive scan for "<" would match inside "<=" and leave a stray "=").
func TestParseFilter_operatorOrdering(t *testing.T) {
	got := ParseFilter(`@.price<=10`)
	if len(got.Conditions) != 1 || got.Conditions[0].Operator != OpLE {
		t.Fatalf("ParseFilter(@.price<=10) = %+v, want a single <= condition", got)
	}
}

func TestParseFilter_logicalCombinators(t *testing.T) {
	got := ParseFilter(`@.a==1&&@.b==2`)
	if got.Op != OpAnd || len(got.Children) != 2 {
		t.Fatalf("&& split: got %+v", got)
	}

	got = ParseFilter(`@.a==1||@.b==2`)
	if got.Op != OpOr || len(got.Children) != 2 {
		t.Fatalf("|| split: got %+v", got)
	}
}

func TestParseFilter_orLowerPrecedenceThanAnd(t *testing.T) {
	// "||" must be split before "&&", so this parses as (a&&b) || (c&&d),
	// not a && (b||c) && d.
	got := ParseFilter(`@.a==1&&@.b==2||@.c==3&&@.d==4`)
	if got.Op != OpOr || len(got.Children) != 2 {
		t.Fatalf("top-level split: got op=%v children=%d, want OpOr with 2 children", got.Op, len(got.Children))
	}
	for _, child := range got.Children {
		if child.Op != OpAnd || len(child.Children) != 2 {
			t.Errorf("child %+v: want an && node with 2 children", child)
		}
	}
}

func TestParseFilter_nestedParens(t *testing.T) {
	got := ParseFilter(`(@.category=="数学"&&@.price>50)||(@.category=="历史"&&@.price<10)`)
	if got.Op != OpOr || len(got.Children) != 2 {
		t.Fatalf("got %+v", got)
	}
	if len(got.Children[0].Children) != 2 || got.Children[0].Op != OpAnd {
		t.Fatalf("first child: %+v", got.Children[0])
	}
}

func TestParseFilter_malformedYieldsEmptyFilter(t *testing.T) {
	tests := []string{
		`(@.a==1`,   // unbalanced
		`@.a==1)`,   // unbalanced
		`@.a`,       // no operator
		``,          // empty
	}
	for _, expr := range tests {
		got := ParseFilter(expr)
		if len(got.Conditions) != 0 || len(got.Children) != 0 {
			t.Errorf("ParseFilter(%q) = %+v, want the empty matches-nothing filter", expr, got)
		}
	}
}

func TestParseFilter_barewordLiteral(t *testing.T) {
	got := ParseFilter(`@.status==active`)
	if len(got.Conditions) != 1 {
		t.Fatalf("got %+v", got)
	}
	if got.Conditions[0].Literal != value.String("active") {
		t.Errorf("literal = %#v, want String(active)", got.Conditions[0].Literal)
	}
}
