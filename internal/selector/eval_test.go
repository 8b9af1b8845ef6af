package selector

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gridflow/internal/graph"
	"github.com/vk/gridflow/internal/node"
	tu "github.com/vk/gridflow/internal/testutil"
)

// projectGraph is a small warehouse project:
//
//	raw_orders    -> stg_orders    -> orders -> report -> dashboard
//	raw_customers -> stg_customers -/   |  \-> legacy (disabled)
//	utils.calendar --------------------/
func projectGraph(t *testing.T) *graph.Graph {
	t.Helper()
	return tu.BuildGraph(t,
		tu.Model("calendar", tu.InPackage("utils"), tu.Tags("util")),
		tu.Model("raw_orders", tu.Path("models/staging/raw_orders.hcl"), tu.Tags("raw")),
		tu.Model("raw_customers", tu.Path("models/staging/raw_customers.hcl"), tu.Tags("raw")),
		tu.Model("stg_orders", tu.Path("models/staging/stg_orders.hcl"), tu.Tags("staging", "nightly"), tu.DependsOn("raw_orders")),
		tu.Model("stg_customers", tu.Path("models/staging/stg_customers.hcl"), tu.Tags("staging"), tu.DependsOn("raw_customers")),
		tu.Model("orders", tu.Tags("mart", "nightly"), tu.Config("materialized", "table"),
			tu.DependsOn("stg_orders", "stg_customers", "utils.calendar")),
		tu.Model("report", tu.Tags("mart"), tu.Config("materialized", "view"), tu.DependsOn("orders")),
		tu.Model("legacy", tu.Tags("mart"), tu.Disabled(), tu.DependsOn("orders")),
		tu.Model("dashboard", tu.Kind(node.KindExposure), tu.DependsOn("report")),
	)
}

var enabledIDs = []string{
	"utils.calendar", "proj.raw_orders", "proj.raw_customers", "proj.stg_orders",
	"proj.stg_customers", "proj.orders", "proj.report", "proj.dashboard",
}

func selectIDs(t *testing.T, g *graph.Graph, selection, exclude string) []string {
	t.Helper()
	got, err := Select(g, selection, exclude)
	require.NoError(t, err)
	require.True(t, slices.IsSorted(got), "result must be in discovery order")
	return g.IDs(got)
}

func TestEvaluate_Methods(t *testing.T) {
	g := projectGraph(t)

	testCases := []struct {
		selection string
		want      []string
	}{
		{"tag:staging", []string{"proj.stg_orders", "proj.stg_customers"}},
		{"tag:stag*", []string{"proj.stg_orders", "proj.stg_customers"}},
		{"tag:missing", []string{}},
		{"path:models/staging", []string{"proj.raw_orders", "proj.raw_customers", "proj.stg_orders", "proj.stg_customers"}},
		{"path:models/staging/", []string{"proj.raw_orders", "proj.raw_customers", "proj.stg_orders", "proj.stg_customers"}},
		{"path:models/staging/stg_*", []string{"proj.stg_orders", "proj.stg_customers"}},
		{"path:models/orders.hcl", []string{"proj.orders"}},
		{"path:models/stag", []string{}},
		{"models/staging", []string{"proj.raw_orders", "proj.raw_customers", "proj.stg_orders", "proj.stg_customers"}},
		{"package:utils", []string{"utils.calendar"}},
		{"name:stg_*", []string{"proj.stg_orders", "proj.stg_customers"}},
		{"name:orders", []string{"proj.orders"}},
		{"id:utils.calendar", []string{"utils.calendar"}},
		{"utils.calendar", []string{"utils.calendar"}},
		{"orders", []string{"proj.orders"}},
		{"raw_*", []string{"proj.raw_orders", "proj.raw_customers"}},
		{"resource_type:exposure", []string{"proj.dashboard"}},
		{"resource_type:model", []string{
			"utils.calendar", "proj.raw_orders", "proj.raw_customers", "proj.stg_orders",
			"proj.stg_customers", "proj.orders", "proj.report",
		}},
		{"config.materialized:table", []string{"proj.orders"}},
		{"config.materialized:view", []string{"proj.report"}},
		{"config.owner:x", []string{}},
		{"tag:mart", []string{"proj.orders", "proj.report"}},
	}

	for _, tc := range testCases {
		t.Run(tc.selection, func(t *testing.T) {
			assert.Equal(t, tc.want, selectIDs(t, g, tc.selection, ""))
		})
	}
}

func TestEvaluate_GraphOperators(t *testing.T) {
	g := projectGraph(t)

	testCases := []struct {
		selection string
		want      []string
	}{
		{"+orders", []string{
			"utils.calendar", "proj.raw_orders", "proj.raw_customers",
			"proj.stg_orders", "proj.stg_customers", "proj.orders",
		}},
		{"1+orders", []string{"utils.calendar", "proj.stg_orders", "proj.stg_customers", "proj.orders"}},
		{"0+orders", []string{"proj.orders"}},
		{"orders+", []string{"proj.orders", "proj.report", "proj.dashboard"}},
		{"orders+1", []string{"proj.orders", "proj.report"}},
		{"orders+0", []string{"proj.orders"}},
		{"1+stg_orders+1", []string{"proj.raw_orders", "proj.stg_orders", "proj.orders"}},
		{"+tag:raw", []string{"proj.raw_orders", "proj.raw_customers"}},
		{"@stg_orders", enabledIDs},
		{"@report", []string{
			"utils.calendar", "proj.raw_orders", "proj.raw_customers", "proj.stg_orders",
			"proj.stg_customers", "proj.orders", "proj.report", "proj.dashboard",
		}},
		{"@dashboard", []string{
			"utils.calendar", "proj.raw_orders", "proj.raw_customers", "proj.stg_orders",
			"proj.stg_customers", "proj.orders", "proj.report", "proj.dashboard",
		}},
		{"+(tag:util tag:raw)", []string{"utils.calendar", "proj.raw_orders", "proj.raw_customers"}},
	}

	for _, tc := range testCases {
		t.Run(tc.selection, func(t *testing.T) {
			assert.Equal(t, tc.want, selectIDs(t, g, tc.selection, ""))
		})
	}
}

func TestEvaluate_Combinators(t *testing.T) {
	g := projectGraph(t)

	testCases := []struct {
		name      string
		selection string
		exclude   string
		want      []string
	}{
		{"intersection", "tag:nightly,tag:mart", "", []string{"proj.orders"}},
		{"intersection binds tighter", "tag:raw tag:nightly,tag:mart", "", []string{"proj.raw_orders", "proj.raw_customers", "proj.orders"}},
		{"parentheses override", "(tag:raw tag:nightly),tag:mart", "", []string{"proj.orders"}},
		{"union commutes", "tag:util tag:raw", "", []string{"utils.calendar", "proj.raw_orders", "proj.raw_customers"}},
		{"negation", "!tag:mart", "", []string{
			"utils.calendar", "proj.raw_orders", "proj.raw_customers",
			"proj.stg_orders", "proj.stg_customers", "proj.dashboard",
		}},
		{"negation keeps disabled out", "!orders", "", []string{
			"utils.calendar", "proj.raw_orders", "proj.raw_customers",
			"proj.stg_orders", "proj.stg_customers", "proj.report", "proj.dashboard",
		}},
		{"intersection with negation", "+orders,!package:utils", "", []string{
			"proj.raw_orders", "proj.raw_customers", "proj.stg_orders", "proj.stg_customers", "proj.orders",
		}},
		{"exclude", "tag:staging", "stg_customers", []string{"proj.stg_orders"}},
		{"exclude everything", "tag:staging", "tag:staging", []string{}},
		{"empty selection is everything", "", "", enabledIDs},
		{"empty selection with exclude", "", "+stg_orders", []string{
			"utils.calendar", "proj.raw_customers", "proj.stg_customers",
			"proj.orders", "proj.report", "proj.dashboard",
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, selectIDs(t, g, tc.selection, tc.exclude))
		})
	}
}

func TestEvaluate_PathGlobCoversSubdirectories(t *testing.T) {
	g := tu.BuildGraph(t,
		tu.Model("a", tu.Path("models/staging/a.hcl")),
		tu.Model("b", tu.Path("models/staging/sub/b.hcl")),
		tu.Model("c", tu.Path("models/marts/c.hcl")),
		tu.Model("d", tu.Path("models/stage.hcl")),
	)

	testCases := []struct {
		selection string
		want      []string
	}{
		{"path:models/staging", []string{"proj.a", "proj.b"}},
		{"path:models/staging/*", []string{"proj.a", "proj.b"}},
		{"path:models/staging/*.hcl", []string{"proj.a"}},
		{"path:models/stag*", []string{"proj.a", "proj.b", "proj.d"}},
		{"path:models/*/", []string{"proj.a", "proj.b", "proj.c", "proj.d"}},
		{"path:models/*/sub", []string{"proj.b"}},
		{"path:other/*", []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.selection, func(t *testing.T) {
			assert.Equal(t, tc.want, selectIDs(t, g, tc.selection, ""))
		})
	}
}

func TestEvaluate_DisabledNodes(t *testing.T) {
	g := projectGraph(t)

	testCases := []struct {
		selection string
		want      []string
	}{
		{"legacy", []string{"proj.legacy"}},
		{"id:proj.legacy", []string{"proj.legacy"}},
		{"proj.legacy", []string{"proj.legacy"}},
		{"name:legacy", []string{}},
		{"leg*", []string{}},
		{"tag:mart", []string{"proj.orders", "proj.report"}},
		{"orders+", []string{"proj.orders", "proj.report", "proj.dashboard"}},
		{"legacy orders+", []string{"proj.orders", "proj.report", "proj.legacy", "proj.dashboard"}},
		{"+legacy", []string{
			"utils.calendar", "proj.raw_orders", "proj.raw_customers", "proj.stg_orders",
			"proj.stg_customers", "proj.orders", "proj.legacy",
		}},
		{"tag:mart !id:proj.legacy", enabledIDs},
		{"tag:mart,!legacy", []string{"proj.orders", "proj.report"}},
		{"!!legacy", []string{}},
		{"tag:mart,legacy", []string{"proj.legacy"}},
		{"legacy,!legacy", []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.selection, func(t *testing.T) {
			assert.Equal(t, tc.want, selectIDs(t, g, tc.selection, ""))
		})
	}
}

func TestEvaluate_DisabledNodeExcludedByDifference(t *testing.T) {
	g := projectGraph(t)

	got := selectIDs(t, g, "legacy orders+", "legacy")
	assert.Equal(t, []string{"proj.orders", "proj.report", "proj.dashboard"}, got)
}

func TestEvaluate_AncestorDescendantIntersectionContainsSeed(t *testing.T) {
	g := projectGraph(t)

	for _, tag := range []string{"util", "raw", "staging", "nightly", "mart"} {
		t.Run(tag, func(t *testing.T) {
			seed := selectIDs(t, g, "tag:"+tag, "")
			both := selectIDs(t, g, fmt.Sprintf("+tag:%s,tag:%s+", tag, tag), "")
			assert.Subset(t, both, seed)
		})
	}
}

func TestEvaluate_DepthMonotonic(t *testing.T) {
	g := projectGraph(t)

	for _, seed := range []string{"dashboard", "orders", "stg_orders"} {
		unbounded := selectIDs(t, g, "+"+seed, "")
		prev := selectIDs(t, g, "0+"+seed, "")
		assert.Equal(t, []string{"proj." + seed}, prev)

		for d := 1; d <= 5; d++ {
			cur := selectIDs(t, g, fmt.Sprintf("%d+%s", d, seed), "")
			assert.Subset(t, cur, prev, "%d+%s must contain %d+%s", d, seed, d-1, seed)
			assert.Subset(t, unbounded, cur)
			prev = cur
		}
		assert.Equal(t, unbounded, prev, "depth 5 covers the whole upstream of %s", seed)
	}
}

func TestEvaluate_Errors(t *testing.T) {
	g := projectGraph(t)

	testCases := []struct {
		selection string
		kind      error
	}{
		{"color:red", ErrUnknownMethod},
		{"tag:mart color:red", ErrUnknownMethod},
		{"tag.x:mart", ErrUnknownMethod},
		{"config:table", ErrMalformed},
		{"resource_type:table", ErrMalformed},
		{"tag:[", ErrMalformed},
		{"id:orders", ErrMalformed},
	}
	for _, tc := range testCases {
		t.Run(tc.selection, func(t *testing.T) {
			_, err := Select(g, tc.selection, "")
			assert.ErrorIs(t, err, tc.kind)
		})
	}

	t.Run("negative depth in a hand-built tree", func(t *testing.T) {
		_, err := Evaluate(&Ancestors{X: &Leaf{Value: "orders"}, Depth: -5}, g)
		assert.ErrorIs(t, err, ErrInvalidDepth)
	})

	t.Run("nil expression", func(t *testing.T) {
		_, err := Evaluate(nil, g)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("empty union", func(t *testing.T) {
		_, err := Evaluate(&Union{}, g)
		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestEvaluator_CustomMethod(t *testing.T) {
	g := projectGraph(t)

	methods := DefaultMethods()
	methods["description"] = func(arg, value string) (Matcher, error) {
		return Matcher{Match: func(n *node.Node) bool { return n.Description == value }}, nil
	}
	ev := NewEvaluator(methods)

	got, err := ev.Evaluate(MustParse("description:none tag:util"), g)
	require.NoError(t, err)
	assert.Equal(t, []string{"utils.calendar"}, g.IDs(got))

	// The default registry is untouched.
	_, err = Evaluate(MustParse("description:none"), g)
	assert.ErrorIs(t, err, ErrUnknownMethod)
}
