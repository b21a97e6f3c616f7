package layout

// SizeContent computes the node's width and height and records every internal
// anchor in the same walk, so sizes and anchors cannot disagree. Anchors are
// the left-edge midpoint of the row they label.
//
// Hidden nodes are left untouched.
func SizeContent(n *Node) {
	if n.IsHidden() {
		return
	}
	n.ProtocolAnchors = make(map[string]Point)
	n.FunctionAnchors = make(map[string]Point)
	n.GroupAnchors = make(map[string]Point)
	n.MoreAnchors = make(map[string]Point)

	y := HeaderHeight + IndicatorHeight

	if labels := len(n.Endpoint.VisibleLabels()); labels > 0 {
		y += LabelsPadding + float64(labels)*(LabelRowHeight+LabelRowMargin) - LabelRowMargin
	}
	if n.FlowsFiltered {
		y += FlowsFilteredHeight
	}

	for i, p := range n.Protocols {
		if i == 0 {
			y += FirstProtocolOffset
		}
		n.ProtocolAnchors[p.ProtocolID] = Point{Y: y + ProtocolHeaderHeight/2}
		y += ProtocolHeaderHeight

		for _, g := range p.VisibleGroups {
			if g.Title != "" {
				n.GroupAnchors[AnchorKey(p.ProtocolID, g.Key)] = Point{Y: y + FunctionRowHeight/2}
				y += FunctionRowHeight
			}
			for _, f := range g.Functions {
				n.FunctionAnchors[AnchorKey(p.ProtocolID, f.ID)] = Point{Y: y + FunctionRowHeight/2}
				y += FunctionRowHeight
			}
		}

		if len(p.FilteredFunctions) > 0 {
			n.MoreAnchors[p.ProtocolID] = Point{Y: y + MoreHeight/2}
			y += MoreHeight
		}
	}

	n.Width = NodeWidth
	n.Height = y
}
