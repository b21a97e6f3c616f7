package layout

import "github.com/matzehuels/flowmap/pkg/layout/connectivity"

// MapVisibility assigns a visibility to every node of g.
//
// Without a focus every node is visible. With Self set, the focused node and
// its direct neighbours (either direction) stay visible. With only From (or
// only To) set, the named node and the nodes that complete a direct edge with
// it stay visible. With both set, only the named pair stays visible. All other
// nodes receive mode, which defaults to Fogged.
func MapVisibility(g Graph, idx *connectivity.Index, focus FocusFilter, mode Visibility) {
	if mode != Hidden {
		mode = Fogged
	}
	for id, n := range g {
		n.Visibility = visibilityOf(id, idx, focus, mode)
	}
}

func visibilityOf(id string, idx *connectivity.Index, f FocusFilter, mode Visibility) Visibility {
	if f.Empty() || f.Named(id) {
		return Visible
	}
	switch {
	case f.Self != "":
		if idx.HasEdge(f.Self, id) || idx.HasEdge(id, f.Self) {
			return Visible
		}
	case f.From != "" && f.To == "":
		if idx.HasEdge(f.From, id) {
			return Visible
		}
	case f.To != "" && f.From == "":
		if idx.HasEdge(id, f.To) {
			return Visible
		}
	}
	return mode
}
