package metrics

import (
	"github.com/layoutqa/layoutqa/lib/geo"
)

// ComputeEdgePaths derives crossing and overlap metrics over the edge paths
// recovered from a rendered image, independent of endpoint resolution. The
// arrow_path_* keys are aliases kept for consumers of older reports.
func ComputeEdgePaths(paths [][]geo.Point) Record {
	segs := make([][]segment, len(paths))
	for i, pts := range paths {
		segs[i] = edgeSegments(pts)
	}

	crossings := 0
	overlap := 0.0
	for i := range segs {
		for j := i + 1; j < len(segs); j++ {
			for _, si := range segs[i] {
				for _, sj := range segs[j] {
					if sharesEndpoint(si, sj) {
						continue
					}
					if geo.SegmentsIntersect(si.a, si.b, sj.a, sj.b) {
						crossings++
					}
					overlap += geo.CollinearOverlapLength(si.a, si.b, sj.a, sj.b)
				}
			}
		}
	}

	return Record{
		"svg_edge_crossings":        float64(crossings),
		"svg_edge_overlap_length":   overlap,
		"arrow_path_intersections":  float64(crossings),
		"arrow_path_overlap_length": overlap,
	}
}
