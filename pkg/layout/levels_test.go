package layout

import (
	"fmt"
	"testing"

	"github.com/matzehuels/flowmap/pkg/endpoint"
	"github.com/matzehuels/flowmap/pkg/layout/connectivity"
	"github.com/matzehuels/flowmap/pkg/layout/flows"
)

func TestSizeContent(t *testing.T) {
	n := &Node{
		Endpoint: &endpoint.Endpoint{
			ID: "api",
			Labels: []endpoint.Label{
				{Key: "app", Value: "shop"},
				{Key: "team", Value: "core"},
				{Key: endpoint.ReservedPrefix + "host"},
			},
		},
		Visibility:    Visible,
		FlowsFiltered: true,
		Protocols: []flows.ProtocolFunctions{
			{
				ProtocolID: "p1",
				VisibleGroups: []flows.Group{{
					Key:   "users",
					Title: "/users",
					Functions: []flows.Function{
						{ID: "f1", Name: "GET /users"},
						{ID: "f2", Name: "POST /users"},
					},
				}},
			},
			{
				ProtocolID:        "p2",
				FilteredFunctions: []flows.Function{{ID: "f3"}},
			},
		},
	}
	SizeContent(n)

	if n.Width != NodeWidth {
		t.Errorf("Width = %v, want %v", n.Width, NodeWidth)
	}
	if n.Height != 337 {
		t.Errorf("Height = %v, want 337", n.Height)
	}
	checks := []struct {
		name string
		got  Point
		want float64
	}{
		{"p1", n.ProtocolAnchors["p1"], 169},
		{"users group", n.GroupAnchors[AnchorKey("p1", "users")], 201},
		{"f1", n.FunctionAnchors[AnchorKey("p1", "f1")], 229},
		{"f2", n.FunctionAnchors[AnchorKey("p1", "f2")], 257},
		{"p2", n.ProtocolAnchors["p2"], 289},
		{"p2 more", n.MoreAnchors["p2"], 322},
	}
	for _, c := range checks {
		if c.got.Y != c.want {
			t.Errorf("%s anchor y = %v, want %v", c.name, c.got.Y, c.want)
		}
	}
}

func TestSizeContentEmptyNode(t *testing.T) {
	n := &Node{Endpoint: &endpoint.Endpoint{ID: "x"}, Visibility: Visible}
	SizeContent(n)
	if n.Height != HeaderHeight+IndicatorHeight {
		t.Errorf("Height = %v, want %v", n.Height, HeaderHeight+IndicatorHeight)
	}

	hidden := &Node{Endpoint: &endpoint.Endpoint{ID: "y"}, Visibility: Hidden}
	SizeContent(hidden)
	if hidden.Height != 0 || hidden.ProtocolAnchors != nil {
		t.Errorf("hidden node sized: %+v", hidden)
	}
}

func TestCollapsedFunctionsHeight(t *testing.T) {
	var fns []endpoint.Function
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		fns = append(fns, endpoint.Function{ID: id, Name: "GET /" + id, AllowedSources: []string{"client"}})
	}
	eps := []endpoint.Endpoint{
		{ID: "api", Protocols: []endpoint.Protocol{{ID: "http", L7: endpoint.L7HTTP, Functions: fns}}},
		svc("client"),
	}
	opts := defaults()
	opts.Display.ShowL7Traffic = false
	res := Build(eps, opts)

	api := res.Graph["api"]
	if !api.FlowsFiltered {
		t.Fatal("FlowsFiltered = false, want true")
	}
	if api.Height != 165 {
		t.Errorf("Height = %v, want 165", api.Height)
	}
	more, ok := api.MoreAnchors["http"]
	if !ok {
		t.Fatal("no more anchor")
	}
	if c := api.Connectors["client"]; c.Y != api.Y+more.Y {
		t.Errorf("client connector y = %v, want %v", c.Y, api.Y+more.Y)
	}
}

func TestAssignWeightsAppMode(t *testing.T) {
	eps := []endpoint.Endpoint{svc("a"), svc("b", "a"), svc("c", "a"), svc("d", "c")}
	opts := defaults()
	opts.Boundaries = []BoundaryRequest{{Kind: BoundaryApp, Title: "shop"}}
	res := Build(eps, opts)

	want := map[string]int{"a": 1, "b": 1, "c": 2, "d": 2}
	for id, w := range want {
		n := res.Graph[id]
		if n.Weight == nil || *n.Weight != w {
			t.Errorf("%s weight = %v, want %d", id, n.Weight, w)
		}
		if n.LevelKey != levelKeyApp {
			t.Errorf("%s level key = %q, want %q", id, n.LevelKey, levelKeyApp)
		}
	}
}

func TestAssignWeightsNamespaceBands(t *testing.T) {
	ns := func(e endpoint.Endpoint, namespace string) endpoint.Endpoint {
		e.Labels = []endpoint.Label{{Key: endpoint.NamespaceLabel, Value: namespace}}
		return e
	}
	eps := []endpoint.Endpoint{
		ns(svc("s1"), "shop"),
		ns(svc("s2", "s1"), "shop"),
		ns(svc("p1"), "pay"),
	}
	opts := defaults()
	opts.Boundaries = []BoundaryRequest{
		{Kind: BoundaryNamespace, Title: "shop"},
		{Kind: BoundaryNamespace, Title: "pay"},
	}
	res := Build(eps, opts)

	want := map[string]int{"s1": 31, "s2": 31, "p1": 129}
	for id, w := range want {
		if n := res.Graph[id]; n.Weight == nil || *n.Weight != w {
			t.Errorf("%s weight = %v, want %d", id, n.Weight, w)
		}
	}
	if res.Graph["p1"].Level != 0 || res.Graph["s1"].Level != 1 {
		t.Errorf("levels p1=%d s1=%d, want 0 and 1", res.Graph["p1"].Level, res.Graph["s1"].Level)
	}
	if got := len(res.Meta.Boundaries); got != 2 {
		t.Fatalf("Boundaries = %d, want 2", got)
	}
	if res.Meta.Boundaries[0].Title != "pay" {
		t.Errorf("first boundary = %q, want pay", res.Meta.Boundaries[0].Title)
	}
}

func TestBoundaryModeOf(t *testing.T) {
	tests := []struct {
		name     string
		requests []BoundaryRequest
		want     boundaryMode
	}{
		{"none", nil, modeNone},
		{"namespace", []BoundaryRequest{{Kind: BoundaryNamespace}}, modeNamespace},
		{"app wins", []BoundaryRequest{{Kind: BoundaryNamespace}, {Kind: BoundaryApp}}, modeApp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := boundaryModeOf(tt.requests); got != tt.want {
				t.Errorf("boundaryModeOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReorderLevelFollowsSources(t *testing.T) {
	left := func(id string) endpoint.Endpoint {
		return endpoint.Endpoint{ID: id, Type: endpoint.TypeSourceReservedWorld}
	}
	eps := []endpoint.Endpoint{svc("a", "wy"), svc("b", "wx"), left("wx"), left("wy")}
	res := Build(eps, defaults())

	g := res.Graph
	if g["wx"].Placement != PlaceLeft || g["wx"].Level != 0 {
		t.Fatalf("wx placement/level = %s/%d, want left/0", g["wx"].Placement, g["wx"].Level)
	}
	if g["b"].Row != 0 || g["a"].Row != 1 {
		t.Errorf("rows a=%d b=%d, want b above a", g["a"].Row, g["b"].Row)
	}

	positions := []struct {
		id   string
		x, y float64
	}{
		{"b", 450, 0},
		{"a", 450, 152},
		{"wx", 0, 44},
		{"wy", 0, 152},
	}
	for _, p := range positions {
		if n := g[p.id]; n.X != p.x || n.Y != p.y {
			t.Errorf("%s at (%v, %v), want (%v, %v)", p.id, n.X, n.Y, p.x, p.y)
		}
	}
	if c := g["b"].Connectors["wx"]; c != (Point{X: 450, Y: 94}) {
		t.Errorf("b.Connectors[wx] = %+v, want {450 94}", c)
	}
	if c := g["a"].Connectors["wy"]; c != (Point{X: 450, Y: 246}) {
		t.Errorf("a.Connectors[wy] = %+v, want {450 246}", c)
	}
	if res.Meta.Width != 750 || res.Meta.Height != 264 {
		t.Errorf("Meta = %vx%v, want 750x264", res.Meta.Width, res.Meta.Height)
	}
}

func TestTopAndBottomBlocks(t *testing.T) {
	eps := []endpoint.Endpoint{
		svc("a", "ext"),
		{ID: "dnsx", Type: endpoint.TypeDNS, Protocols: []endpoint.Protocol{{ID: "https", AllowedSources: []string{"a"}}}},
		{ID: "ext", Type: endpoint.TypeCIDRAllowAll},
	}
	res := Build(eps, defaults())
	g := res.Graph

	if g["ext"].Placement != PlaceTop || g["dnsx"].Placement != PlaceBottom {
		t.Fatalf("placements ext=%s dnsx=%s, want top and bottom", g["ext"].Placement, g["dnsx"].Placement)
	}
	if g["ext"].Y != 0 || g["a"].Y != 188 || g["dnsx"].Y != 420 {
		t.Errorf("y = ext %v, a %v, dnsx %v; want 0, 188, 420", g["ext"].Y, g["a"].Y, g["dnsx"].Y)
	}
	if c := g["a"].Connectors["ext"]; c != (Point{X: 0, Y: 282}) {
		t.Errorf("a.Connectors[ext] = %+v, want {0 282}", c)
	}
	if c := g["dnsx"].Connectors["a"]; c != (Point{X: 0, Y: 514}) {
		t.Errorf("dnsx.Connectors[a] = %+v, want {0 514}", c)
	}
	if res.Meta.Height != 532 {
		t.Errorf("Meta.Height = %v, want 532", res.Meta.Height)
	}
	for _, id := range []string{"ext", "a", "dnsx"} {
		if g[id].LevelKey == "" {
			t.Errorf("%s has no level key", id)
		}
	}
}

func TestRightConnectors(t *testing.T) {
	// b sits left of a; a sends to b, so b's connector for a is on its right.
	eps := []endpoint.Endpoint{svc("a"), svc("b", "a", "c"), svc("c"), svc("d", "c")}
	res := Build(eps, defaults())
	for id, n := range res.Graph {
		for src, p := range n.Connectors {
			if res.Graph[src].X > n.X || p.X != n.X {
				t.Errorf("%s left connector for %s at %+v", id, src, p)
			}
		}
		for src, p := range n.RightConnectors {
			if res.Graph[src].X <= n.X || p.X != n.X+n.Width {
				t.Errorf("%s right connector for %s at %+v", id, src, p)
			}
		}
	}
}

func TestSpread(t *testing.T) {
	got := spread([]connectorPoint{{"c", 100}, {"b", 20}, {"a", 10}})
	want := []connectorPoint{{"a", 5.5}, {"b", 33.5}, {"c", 104.5}}
	if len(got) != len(want) {
		t.Fatalf("spread() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("spread()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	single := spread([]connectorPoint{{"a", 42}})
	if single[0].y != 42 {
		t.Errorf("single point moved to %v", single[0].y)
	}
}

func TestLayoutOutsideNodesPacking(t *testing.T) {
	w := func(v int) *int { return &v }
	var nodes []*Node
	for i, id := range []string{"n1", "n2", "n3", "n4", "n5"} {
		nodes = append(nodes, &Node{
			Endpoint: &endpoint.Endpoint{ID: id},
			Height:   68,
			Weight:   w(i),
		})
	}
	nodes = append(nodes, &Node{
		Endpoint:   &endpoint.Endpoint{ID: "fan"},
		Height:     68,
		Weight:     w(0),
		Connection: connectivity.Connection{Type: connectivity.TypeManyIngressToApp},
	})

	width, height := layoutOutsideNodes(nodes)
	// reserved column plus five packed nodes in columns of three rows
	if width != 2*columnStep+NodeWidth {
		t.Errorf("width = %v, want %v", width, 2*columnStep+NodeWidth)
	}
	if height != 3*68+2*VerticalPadding {
		t.Errorf("height = %v, want %v", height, 3*68+2*VerticalPadding)
	}
	if fan := nodes[5]; fan.Level != 0 || fan.Row != 0 {
		t.Errorf("fan at level %d row %d, want 0/0", fan.Level, fan.Row)
	}
	// heaviest packed node leads the first packed column
	if n5 := nodes[4]; n5.Level != 1 || n5.Row != 0 {
		t.Errorf("n5 at level %d row %d, want 1/0", n5.Level, n5.Row)
	}
}

func TestNamespaceOverflowKeepsLevelsApart(t *testing.T) {
	ns := func(e endpoint.Endpoint, namespace string) endpoint.Endpoint {
		e.Labels = []endpoint.Label{{Key: endpoint.NamespaceLabel, Value: namespace}}
		return e
	}
	var eps []endpoint.Endpoint
	for i := range 4 {
		eps = append(eps, ns(svc(fmt.Sprintf("lone%d", i)), "ns1"))
	}
	// Nine source/destination pairs overflow the ns2 band into the weight
	// held by the zero-seed nodes of ns1.
	for i := range 9 {
		src := fmt.Sprintf("s%d", i)
		eps = append(eps, ns(svc(src), "ns2"), ns(svc(fmt.Sprintf("d%d", i), src), "ns2"))
	}
	opts := defaults()
	opts.Boundaries = []BoundaryRequest{
		{Kind: BoundaryNamespace, Title: "ns1"},
		{Kind: BoundaryNamespace, Title: "ns2"},
	}
	res := Build(eps, opts)

	lone := *res.Graph["lone0"].Weight
	shared := false
	for _, n := range res.Graph {
		if n.Endpoint.Namespace() == "ns2" && *n.Weight == lone {
			shared = true
		}
	}
	if !shared {
		t.Fatalf("no ns2 node took weight %d; the overflow setup is wrong", lone)
	}

	byLevel := make(map[int]map[string]int)
	maxNS2, minNS1 := -1, len(res.Graph)
	for _, n := range res.Graph {
		name := n.Endpoint.Namespace()
		if byLevel[n.Level] == nil {
			byLevel[n.Level] = make(map[string]int)
		}
		byLevel[n.Level][name]++
		if name == "ns2" {
			maxNS2 = max(maxNS2, n.Level)
		} else {
			minNS1 = min(minNS1, n.Level)
		}
	}
	for level, counts := range byLevel {
		if len(counts) != 1 {
			t.Errorf("level %d mixes namespaces: %v", level, counts)
		}
		for name, c := range counts {
			if c > SlotCapacity {
				t.Errorf("level %d holds %d %s nodes, want at most %d", level, c, name, SlotCapacity)
			}
		}
	}
	if maxNS2 >= minNS1 {
		t.Errorf("ns2 levels end at %d, ns1 starts at %d; want ns2 entirely before ns1", maxNS2, minNS1)
	}
}
