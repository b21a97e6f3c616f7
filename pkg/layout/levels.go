package layout

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/flowmap/pkg/layout/connectivity"
)

// columnStep is the horizontal distance between two levels.
const columnStep = NodeWidth + HorizontalPadding

// calcLevels buckets center and left nodes into levels. A level is one
// (level key, weight) pair, so namespaces never share a level even when an
// overflowing band steps into a neighbour's weights. Keys are ordered by
// their highest weight, and the levels of one key stay contiguous in
// descending weight. Level and Row are assigned in place.
func calcLevels(g Graph, order []string) [][]*Node {
	type levelID struct {
		key    string
		weight int
	}
	byLevel := make(map[levelID][]*Node)
	topWeight := make(map[string]int)
	var ids []levelID
	for _, id := range order {
		n := g[id]
		if n.IsHidden() || n.Weight == nil {
			continue
		}
		if n.Placement != PlaceCenter && n.Placement != PlaceLeft {
			continue
		}
		lid := levelID{n.LevelKey, *n.Weight}
		if _, ok := byLevel[lid]; !ok {
			ids = append(ids, lid)
		}
		byLevel[lid] = append(byLevel[lid], n)
		if w, ok := topWeight[lid.key]; !ok || lid.weight > w {
			topWeight[lid.key] = lid.weight
		}
	}
	slices.SortFunc(ids, func(a, b levelID) int {
		if c := cmp.Compare(topWeight[b.key], topWeight[a.key]); c != 0 {
			return c
		}
		if c := cmp.Compare(a.key, b.key); c != 0 {
			return c
		}
		return cmp.Compare(b.weight, a.weight)
	})

	levels := make([][]*Node, len(ids))
	for i, lid := range ids {
		levels[i] = byLevel[lid]
		for row, n := range levels[i] {
			n.Level, n.Row = i, row
		}
	}
	return levels
}

// stack places nodes top to bottom from y = 0 and returns the stack height.
func stack(nodes []*Node) float64 {
	y := 0.0
	for i, n := range nodes {
		n.Y = y
		y += n.Height
		if i < len(nodes)-1 {
			y += VerticalPadding
		}
	}
	return y
}

// layoutNodes positions every non-hidden node and returns the canvas extents.
//
// Levels are placed left to right by descending weight, reordered right to
// left to bring connectors near their sources, and centered vertically within
// the tallest level. Top nodes are packed above the central block and bottom
// nodes below it, each block centered on the central column span.
func layoutNodes(g Graph, order []string, idx *connectivity.Index, opts Options) (width, height float64) {
	levels := calcLevels(g, order)
	for i, level := range levels {
		for _, n := range level {
			n.X = float64(i) * columnStep
		}
		stack(level)
	}

	var top, bottom []*Node
	for _, id := range order {
		switch n := g[id]; {
		case n.IsHidden():
		case n.Placement == PlaceTop:
			top = append(top, n)
		case n.Placement == PlaceBottom:
			bottom = append(bottom, n)
		}
	}
	topW, topH := layoutOutsideNodes(top)

	skip := aggregationSkip(idx, opts)
	for l := len(levels) - 1; l >= 1; l-- {
		reorderLevel(levels[l], l, g, skip)
	}

	tallest := 0.0
	heights := make([]float64, len(levels))
	for i, level := range levels {
		heights[i] = stack(level)
		tallest = max(tallest, heights[i])
	}
	centralTop := 0.0
	if len(top) > 0 {
		centralTop = topH + 3*VerticalPadding
	}
	for i, level := range levels {
		offset := centralTop + (tallest-heights[i])/2
		for _, n := range level {
			n.Y += offset
		}
	}

	centralWidth := 0.0
	if len(levels) > 0 {
		centralWidth = float64(len(levels)-1)*columnStep + NodeWidth
	}
	shift(top, (centralWidth-topW)/2, 0)

	bottomTop := centralTop
	if len(levels) > 0 {
		bottomTop += tallest + 3*VerticalPadding
	}
	bottomW, _ := layoutOutsideNodes(bottom)
	shift(bottom, (centralWidth-bottomW)/2, bottomTop)

	return normalize(g)
}

// reorderLevel sorts the nodes of level l by the y that brings their
// connectors nearest to their sources in level l-1. Nodes without such
// connectors keep their current y as key.
func reorderLevel(level []*Node, l int, g Graph, skip func(string) bool) {
	keys := make(map[*Node]float64, len(level))
	for _, n := range level {
		targets, sources := sourceTargets(n, g, skip)
		sum, count := 0.0, 0
		for _, src := range sources {
			s := g[src]
			if s.Level != l-1 || (s.Placement != PlaceCenter && s.Placement != PlaceLeft) {
				continue
			}
			sum += s.CenterY() - targets[src]
			count++
		}
		if count == 0 {
			keys[n] = n.Y
			continue
		}
		keys[n] = sum / float64(count)
	}
	slices.SortStableFunc(level, func(a, b *Node) int { return cmp.Compare(keys[a], keys[b]) })
	for row, n := range level {
		n.Row = row
	}
	stack(level)
}

// layoutOutsideNodes packs nodes into columns of ⌈√n⌉ rows, heaviest first,
// relative to the block origin, and returns the block size. Aggregated
// many-ingress nodes are stacked in a reserved leading column.
func layoutOutsideNodes(nodes []*Node) (width, height float64) {
	if len(nodes) == 0 {
		return 0, 0
	}
	sorted := slices.Clone(nodes)
	slices.SortStableFunc(sorted, func(a, b *Node) int { return cmp.Compare(weightOf(b), weightOf(a)) })

	var aggregated, packed []*Node
	for _, n := range sorted {
		if n.Connection.Type == connectivity.TypeManyIngressToApp {
			aggregated = append(aggregated, n)
		} else {
			packed = append(packed, n)
		}
	}

	var columns [][]*Node
	if len(aggregated) > 0 {
		columns = append(columns, aggregated)
	}
	if len(packed) > 0 {
		rows := int(math.Ceil(math.Sqrt(float64(len(packed)))))
		for start := 0; start < len(packed); start += rows {
			columns = append(columns, packed[start:min(start+rows, len(packed))])
		}
	}

	for col, column := range columns {
		for row, n := range column {
			n.X = float64(col) * columnStep
			n.Level, n.Row = col, row
		}
		height = max(height, stack(column))
	}
	width = float64(len(columns)-1)*columnStep + NodeWidth
	return width, height
}

func weightOf(n *Node) int {
	if n.Weight == nil {
		return 0
	}
	return *n.Weight
}

func shift(nodes []*Node, dx, dy float64) {
	for _, n := range nodes {
		n.X += dx
		n.Y += dy
	}
}

// normalize moves laid-out nodes so that no coordinate is negative and
// returns the canvas extents.
func normalize(g Graph) (width, height float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	laidOut := 0
	for _, n := range g {
		if n.IsHidden() {
			continue
		}
		laidOut++
		minX, minY = min(minX, n.X), min(minY, n.Y)
	}
	if laidOut == 0 {
		return 0, 0
	}
	dx, dy := max(0, -minX), max(0, -minY)
	for _, n := range g {
		if n.IsHidden() {
			continue
		}
		n.X += dx
		n.Y += dy
		width = max(width, n.X+n.Width)
		height = max(height, n.Y+n.Height)
	}
	return width, height
}
