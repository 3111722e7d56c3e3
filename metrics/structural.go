package metrics

import (
	"math"
	"sort"

	"github.com/layoutqa/layoutqa/lib/geo"
	"github.com/layoutqa/layoutqa/scene"
)

const (
	// sharedEndpointEps treats segment endpoints closer than this as the same
	// junction, so edges fanning out of one port do not count as crossings.
	sharedEndpointEps = 1e-6

	// crossingAngleThreshold is the acute angle, in degrees, below which a
	// crossing becomes hard to read and starts accruing penalty.
	crossingAngleThreshold = 35.0

	// detourThreshold is the routed/straight length ratio considered free.
	detourThreshold = 1.30

	fillClampMax = 1.2
	fillTarget   = 0.60

	spacingTargetMin = 8.0
	spacingTargetMax = 24.0
	nearMissBasePad  = 4.0

	portSideTolerance = 1.0

	anchorMissDistance = 8.0
)

type segment struct {
	a, b geo.Point
}

func edgeSegments(pts []geo.Point) []segment {
	var segs []segment
	for i := 0; i+1 < len(pts); i++ {
		if pts[i].DistanceTo(pts[i+1]) < geo.Epsilon {
			continue
		}
		segs = append(segs, segment{pts[i], pts[i+1]})
	}
	return segs
}

func sharesEndpoint(s, t segment) bool {
	return s.a.DistanceTo(t.a) < sharedEndpointEps ||
		s.a.DistanceTo(t.b) < sharedEndpointEps ||
		s.b.DistanceTo(t.a) < sharedEndpointEps ||
		s.b.DistanceTo(t.b) < sharedEndpointEps
}

// Compute derives the structural metric record of a scene. The score metric
// is not part of the structural record; the weighting model attaches it.
func Compute(s *scene.Scene) Record {
	rec := Record{}

	ids := make([]string, 0, len(s.Nodes))
	for id := range s.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rec["node_count"] = float64(len(ids))
	rec["edge_count"] = float64(len(s.Edges))
	rec["layout_area"] = math.Max(0, s.Width) * math.Max(0, s.Height)

	segsByEdge := make([][]segment, len(s.Edges))
	for i, e := range s.Edges {
		segsByEdge[i] = edgeSegments(e.Points)
	}

	computeCrossings(rec, segsByEdge)
	computeEdgeNodeCrossings(rec, s, ids, segsByEdge)
	computeEdgeLengths(rec, s)
	computePortCongestion(rec, s)
	computeEdgeOverlap(rec, segsByEdge)
	computeNodeOverlap(rec, s, ids)
	computeSpaceUsage(rec, s, ids)
	computeComponents(rec, s, ids)
	computeAngularResolution(rec, s, ids)
	computeSpacing(rec, s, ids)
	computeAnchors(rec, s)

	return rec
}

func computeCrossings(rec Record, segsByEdge [][]segment) {
	crossings := 0
	anglePenalty := 0.0
	for i := range segsByEdge {
		for j := i + 1; j < len(segsByEdge); j++ {
			for _, si := range segsByEdge[i] {
				for _, sj := range segsByEdge[j] {
					if sharesEndpoint(si, sj) {
						continue
					}
					if !geo.SegmentsIntersect(si.a, si.b, sj.a, sj.b) {
						continue
					}
					crossings++
					angle := geo.SegmentAngle(si.a, si.b, sj.a, sj.b)
					if angle < crossingAngleThreshold {
						anglePenalty += (crossingAngleThreshold - angle) / crossingAngleThreshold
					}
				}
			}
		}
	}
	rec["edge_crossings"] = float64(crossings)
	rec["crossing_angle_penalty"] = anglePenalty
}

func computeEdgeNodeCrossings(rec Record, s *scene.Scene, ids []string, segsByEdge [][]segment) {
	crossings := 0
	nearMisses := 0
	pad := math.Max(nearMissBasePad, 0.5*spacingTarget(s, ids))
	for i, e := range s.Edges {
		for _, id := range ids {
			n := s.Nodes[id]
			if e.Endpoints(id) || n.Box.Width <= 0 || n.Box.Height <= 0 {
				continue
			}
			crossed := false
			for _, sg := range segsByEdge[i] {
				if geo.SegmentIntersectsBox(sg.a, sg.b, n.Box) {
					crossings++
					crossed = true
				}
			}
			if crossed {
				continue
			}
			if gap := geo.PolylineBoxGap(e.Points, n.Box); gap < pad {
				nearMisses++
			}
		}
	}
	rec["edge_node_crossings"] = float64(crossings)
	rec["edge_node_near_miss_count"] = float64(nearMisses)
}

func computeEdgeLengths(rec Record, s *scene.Scene) {
	total := 0.0
	bends := 0
	var detours []float64
	for _, e := range s.Edges {
		total += geo.PolylineLength(e.Points)
		bends += geo.BendCount(e.Points)
		if len(e.Points) >= 2 {
			straight := e.Points[0].DistanceTo(e.Points[len(e.Points)-1])
			if straight > geo.Epsilon {
				detours = append(detours, geo.PolylineLength(e.Points)/straight)
			}
		}
	}
	rec["total_edge_length"] = total
	rec["edge_bends"] = float64(bends)
	if len(s.Nodes) > 0 {
		rec["edge_length_per_node"] = total / float64(len(s.Nodes))
	} else {
		rec["edge_length_per_node"] = 0
	}

	avg := 0.0
	if len(detours) > 0 {
		for _, d := range detours {
			avg += d
		}
		avg /= float64(len(detours))
	}
	rec["avg_edge_detour_ratio"] = avg
	rec["edge_detour_penalty"] = math.Max(0, avg-detourThreshold)
}

type portSide int

const (
	sideLeft portSide = iota
	sideRight
	sideTop
	sideBottom
)

// nodeSide resolves which side of the node box the endpoint sits on, within a
// small tolerance. Endpoints away from the boundary have no port.
func nodeSide(p geo.Point, box geo.Box) (portSide, bool) {
	br := box.BottomRight()
	dists := [4]float64{
		math.Abs(p.X - box.TopLeft.X),
		math.Abs(p.X - br.X),
		math.Abs(p.Y - box.TopLeft.Y),
		math.Abs(p.Y - br.Y),
	}
	best := 0
	for i := 1; i < 4; i++ {
		if dists[i] < dists[best] {
			best = i
		}
	}
	if dists[best] > portSideTolerance {
		return 0, false
	}
	return portSide(best), true
}

func computePortCongestion(rec Record, s *scene.Scene) {
	type port struct {
		node string
		side portSide
	}
	counts := map[port]int{}
	tally := func(id string, p geo.Point) {
		n, ok := s.Nodes[id]
		if !ok {
			return
		}
		if side, ok := nodeSide(p, n.Box); ok {
			counts[port{id, side}]++
		}
	}
	for _, e := range s.Edges {
		if len(e.Points) == 0 {
			continue
		}
		if e.From != "" {
			tally(e.From, e.Points[0])
		}
		if e.To != "" {
			tally(e.To, e.Points[len(e.Points)-1])
		}
	}
	congestion := 0
	for _, c := range counts {
		if c > 1 {
			congestion += c - 1
		}
	}
	rec["port_congestion"] = float64(congestion)
}

func computeEdgeOverlap(rec Record, segsByEdge [][]segment) {
	overlap := 0.0
	for i := range segsByEdge {
		for j := i + 1; j < len(segsByEdge); j++ {
			for _, si := range segsByEdge[i] {
				for _, sj := range segsByEdge[j] {
					if sharesEndpoint(si, sj) {
						continue
					}
					overlap += geo.CollinearOverlapLength(si.a, si.b, sj.a, sj.b)
				}
			}
		}
	}
	rec["edge_overlap_length"] = overlap
}

func computeNodeOverlap(rec Record, s *scene.Scene, ids []string) {
	count := 0
	area := 0.0
	for i, ia := range ids {
		a := s.Nodes[ia]
		if a.Box.Width <= 0 || a.Box.Height <= 0 {
			continue
		}
		for _, ib := range ids[i+1:] {
			b := s.Nodes[ib]
			if b.Box.Width <= 0 || b.Box.Height <= 0 {
				continue
			}
			ov := a.Box.OverlapArea(b.Box)
			if ov <= 0 {
				continue
			}
			if s.Kind == scene.KindTreemap &&
				(a.Box.ContainsBox(b.Box, geo.Epsilon) || b.Box.ContainsBox(a.Box, geo.Epsilon)) {
				// nesting is the point of the layout, not a defect
				continue
			}
			count++
			area += ov
		}
	}
	rec["node_overlap_count"] = float64(count)
	rec["node_overlap_area"] = area
}

func contentBounds(s *scene.Scene, ids []string) (geo.Box, bool) {
	var box geo.Box
	found := false
	merge := func(b geo.Box) {
		if !found {
			box = b
			found = true
			return
		}
		box = box.Union(b)
	}
	for _, id := range ids {
		merge(s.Nodes[id].Box)
	}
	for _, e := range s.Edges {
		if b, ok := geo.BoundingBox(e.Points); ok {
			merge(b)
		}
	}
	return box, found
}

func computeSpaceUsage(rec Record, s *scene.Scene, ids []string) {
	canvasArea := rec["layout_area"]
	bounds, boundsOK := contentBounds(s, ids)

	fill := 0.0
	if boundsOK && canvasArea > 0 {
		fill = geo.Clamp(bounds.Area()/canvasArea, 0, fillClampMax)
	}
	rec["content_fill_ratio"] = fill
	rec["wasted_space_ratio"] = 1 - math.Min(1, fill)
	rec["space_efficiency_penalty"] = math.Max(0, fillTarget-fill)

	if !boundsOK || s.Width <= 0 || s.Height <= 0 {
		rec["margin_imbalance_ratio"] = 0
		rec["content_center_offset_ratio"] = 0
		rec["content_overflow_ratio"] = 0
		rec["content_aspect_elongation"] = 1
		return
	}

	br := bounds.BottomRight()
	left := bounds.TopLeft.X
	right := s.Width - br.X
	top := bounds.TopLeft.Y
	bottom := s.Height - br.Y
	rec["margin_imbalance_ratio"] = 0.5 * (math.Abs(left-right)/s.Width + math.Abs(top-bottom)/s.Height)

	center := bounds.Center()
	rec["content_center_offset_ratio"] = math.Hypot(
		(center.X-s.Width/2)/s.Width,
		(center.Y-s.Height/2)/s.Height,
	)

	overflow := 0.0
	if a := bounds.Area(); a > 0 {
		overflow = (a - bounds.OverlapArea(s.Canvas())) / a
	}
	rec["content_overflow_ratio"] = math.Max(0, overflow)

	short := math.Max(math.Min(bounds.Width, bounds.Height), geo.Epsilon)
	long := math.Max(bounds.Width, bounds.Height)
	rec["content_aspect_elongation"] = long / short
}

func computeComponents(rec Record, s *scene.Scene, ids []string) {
	if len(ids) == 0 {
		rec["component_count"] = 0
		rec["disconnected_components"] = 0
		rec["component_gap_ratio"] = 0
		rec["component_balance_penalty"] = 0
		return
	}

	parent := make(map[string]string, len(ids))
	for _, id := range ids {
		parent[id] = id
	}
	var find func(string) string
	find = func(x string) string {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for _, e := range s.Edges {
		if e.From == "" || e.To == "" {
			continue
		}
		if _, ok := s.Nodes[e.From]; !ok {
			continue
		}
		if _, ok := s.Nodes[e.To]; !ok {
			continue
		}
		union(e.From, e.To)
	}

	members := map[string][]string{}
	for _, id := range ids {
		root := find(id)
		members[root] = append(members[root], id)
	}
	k := len(members)
	rec["component_count"] = float64(k)
	rec["disconnected_components"] = math.Max(0, float64(k-1))

	if k <= 1 {
		rec["component_gap_ratio"] = 0
		rec["component_balance_penalty"] = 0
		return
	}

	roots := make([]string, 0, k)
	for root := range members {
		roots = append(roots, root)
	}
	sort.Strings(roots)

	boxes := make([]geo.Box, 0, k)
	for _, root := range roots {
		box := s.Nodes[members[root][0]].Box
		for _, id := range members[root][1:] {
			box = box.Union(s.Nodes[id].Box)
		}
		boxes = append(boxes, box)
	}
	// how much of the content bbox the component bboxes leave uncovered
	rec["component_gap_ratio"] = 0
	if bounds, ok := contentBounds(s, ids); ok && bounds.Area() > 0 {
		covered := 0.0
		for _, box := range boxes {
			covered += box.Area()
		}
		rec["component_gap_ratio"] = math.Max(0, 1-covered/bounds.Area())
	}

	// balance is one minus the normalized entropy of component area shares, so
	// a single dominant component with stragglers scores worse than an even
	// split
	areas := make([]float64, k)
	total := 0.0
	for i, root := range roots {
		for _, id := range members[root] {
			areas[i] += s.Nodes[id].Box.Area()
		}
		total += areas[i]
	}
	if total <= 0 {
		rec["component_balance_penalty"] = 0
		return
	}
	entropy := 0.0
	for _, a := range areas {
		if p := a / total; p > 0 {
			entropy -= p * math.Log(p)
		}
	}
	rec["component_balance_penalty"] = 1 - entropy/math.Log(float64(k))
}

func computeAngularResolution(rec Record, s *scene.Scene, ids []string) {
	penalty := 0.0
	badNodes := 0
	for _, id := range ids {
		var angles []float64
		for _, e := range s.Edges {
			if len(e.Points) < 2 {
				continue
			}
			if e.From == id {
				if dir, ok := leaveDirection(e.Points); ok {
					angles = append(angles, dir)
				}
			}
			if e.To == id {
				rev := make([]geo.Point, len(e.Points))
				for i, p := range e.Points {
					rev[len(e.Points)-1-i] = p
				}
				if dir, ok := leaveDirection(rev); ok {
					angles = append(angles, dir)
				}
			}
		}
		if len(angles) < 2 {
			continue
		}
		sort.Float64s(angles)
		minGap := 2*math.Pi - (angles[len(angles)-1] - angles[0])
		for i := 1; i < len(angles); i++ {
			if g := angles[i] - angles[i-1]; g < minGap {
				minGap = g
			}
		}
		deg := minGap * 180 / math.Pi
		if deg < crossingAngleThreshold {
			badNodes++
			penalty += (crossingAngleThreshold - deg) / crossingAngleThreshold
		}
	}
	rec["angular_resolution_penalty"] = penalty
	rec["angular_resolution_node_count"] = float64(badNodes)
}

// leaveDirection is the angle of the first non-degenerate segment of pts.
func leaveDirection(pts []geo.Point) (float64, bool) {
	for i := 1; i < len(pts); i++ {
		if pts[0].DistanceTo(pts[i]) > geo.Epsilon {
			return math.Atan2(pts[i].Y-pts[0].Y, pts[i].X-pts[0].X), true
		}
	}
	return 0, false
}

// spacingTarget derives the desired clearance between sibling nodes from the
// median short side of the scene's nodes.
func spacingTarget(s *scene.Scene, ids []string) float64 {
	var sides []float64
	for _, id := range ids {
		n := s.Nodes[id]
		if n.Box.Width > 0 && n.Box.Height > 0 {
			sides = append(sides, math.Min(n.Box.Width, n.Box.Height))
		}
	}
	if len(sides) == 0 {
		return spacingTargetMin
	}
	sort.Float64s(sides)
	median := sides[len(sides)/2]
	if len(sides)%2 == 0 {
		median = (sides[len(sides)/2-1] + sides[len(sides)/2]) / 2
	}
	return geo.Clamp(median, spacingTargetMin, spacingTargetMax)
}

func computeSpacing(rec Record, s *scene.Scene, ids []string) {
	target := spacingTarget(s, ids)
	count := 0
	severity := 0.0
	for i, ia := range ids {
		a := s.Nodes[ia]
		if a.Box.Width <= 0 || a.Box.Height <= 0 {
			continue
		}
		for _, ib := range ids[i+1:] {
			b := s.Nodes[ib]
			if b.Box.Width <= 0 || b.Box.Height <= 0 {
				continue
			}
			if a.Box.OverlapArea(b.Box) > 0 {
				// overlap is its own metric
				continue
			}
			gap := a.Box.Gap(b.Box)
			if gap < target {
				count++
				severity += (target - gap) / target
			}
		}
	}
	rec["node_spacing_violation_count"] = float64(count)
	rec["node_spacing_violation_severity"] = severity
}

// computeAnchors scores how far edge-label anchor points reported by the
// layout producer sit from their own edge's routed polyline. Emitted only
// when the producer reported anchors at all.
func computeAnchors(rec Record, s *scene.Scene) {
	count := 0
	sum := 0.0
	maxDist := 0.0
	misses := 0
	for _, e := range s.Edges {
		if len(e.Points) < 2 {
			continue
		}
		for _, l := range e.Labels {
			if l.Anchor == nil {
				continue
			}
			d := geo.PointPolylineDistance(*l.Anchor, e.Points)
			count++
			sum += d
			if d > maxDist {
				maxDist = d
			}
			if d > anchorMissDistance {
				misses++
			}
		}
	}
	if count == 0 {
		return
	}
	rec["layout_anchor_label_count"] = float64(count)
	rec["layout_anchor_alignment_mean"] = sum / float64(count)
	rec["layout_anchor_alignment_max"] = maxDist
	rec["layout_anchor_miss_count"] = float64(misses)
	rec["layout_anchor_miss_ratio"] = float64(misses) / float64(count)
}
