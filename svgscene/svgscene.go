// Package svgscene reconstructs a Scene from a rendered vector image. The
// markup is walked with accumulated translate transforms; groups are
// classified by the renderer's class conventions ("node", "cluster", edge-ish
// classes, arrowhead markers) and bounding boxes are rebuilt by unioning the
// primitive shapes underneath each group. Malformed primitives are skipped
// individually; extraction never aborts for one bad element.
package svgscene

import (
	"errors"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/layoutqa/layoutqa/lib/geo"
	"github.com/layoutqa/layoutqa/scene"
	"github.com/layoutqa/layoutqa/vecpath"
)

const (
	// endpointBasePad and endpointPadFrac size the padded hit box used to
	// resolve a polyline endpoint to a node.
	endpointBasePad = 6.0
	endpointPadFrac = 0.1

	defaultFontSize  = 16.0
	lineHeightFactor = 1.2
	charWidthFactor  = 0.6
	baselineFactor   = 0.8
)

var (
	translateRE = regexp.MustCompile(`translate\(([^,\s]+)[,\s]+([^\)]+)\)`)
	numberRE    = regexp.MustCompile(`[-+]?(?:\d*\.\d+|\d+)`)
)

// TextBox is an estimated or explicit text bounding box found anywhere in the
// image, before label ownership is resolved.
type TextBox struct {
	Box   geo.Box
	Class string
	Lines []string
}

// Extract is the raw harvest of one rendered image. Scene assembles it into
// the shared Scene contract.
type Extract struct {
	Width  float64
	Height float64

	Nodes     map[string]*scene.Node
	NodeTexts map[string][]string
	Clusters  []*scene.Cluster

	EdgePaths      [][]geo.Point
	TextBoxes      []TextBox
	EdgeLabelBoxes []geo.Box

	// Skipped counts primitives dropped for malformed geometry.
	Skipped int
}

// Read parses a rendered vector image.
func Read(r io.Reader) (*Extract, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	root := doc.Find("svg").First()
	if len(root.Nodes) == 0 {
		return nil, errors.New("no svg root element")
	}

	ex := &Extract{
		Nodes:     map[string]*scene.Node{},
		NodeTexts: map[string][]string{},
	}
	ex.Width, ex.Height = rootSize(root.Nodes[0])
	ex.visit(root.Nodes[0], 0, 0, false, false)
	return ex, nil
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func tagName(n *html.Node) string {
	return strings.ToLower(n.Data)
}

func parseTranslate(transform string) (float64, float64) {
	if transform == "" {
		return 0, 0
	}
	m := translateRE.FindStringSubmatch(transform)
	if m == nil {
		return 0, 0
	}
	tx, err1 := strconv.ParseFloat(strings.TrimSpace(m[1]), 64)
	ty, err2 := strconv.ParseFloat(strings.TrimSpace(m[2]), 64)
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return tx, ty
}

// parseNumber pulls the first numeric token out of an attribute value,
// tolerating units. Returns 0 when there is none.
func parseNumber(v string) float64 {
	m := numberRE.FindString(v)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}

func parsePointList(v string) []geo.Point {
	fields := strings.Fields(strings.ReplaceAll(v, ",", " "))
	var coords []float64
	for _, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			continue
		}
		coords = append(coords, x)
	}
	var pts []geo.Point
	for i := 0; i+1 < len(coords); i += 2 {
		pts = append(pts, geo.NewPoint(coords[i], coords[i+1]))
	}
	return pts
}

func parseStyleMap(style string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}

func rootSize(n *html.Node) (float64, float64) {
	if vb := attr(n, "viewBox"); vb != "" {
		parts := strings.Fields(strings.ReplaceAll(vb, ",", " "))
		if len(parts) >= 4 {
			return parseNumber(parts[2]), parseNumber(parts[3])
		}
	}
	widthAttr := attr(n, "width")
	heightAttr := attr(n, "height")
	width := parseNumber(widthAttr)
	height := parseNumber(heightAttr)
	pct := func(v string) bool { return strings.HasSuffix(strings.TrimSpace(v), "%") }
	if width <= 0 || height <= 0 || pct(widthAttr) || pct(heightAttr) {
		style := parseStyleMap(attr(n, "style"))
		if width <= 0 || pct(widthAttr) {
			if v, ok := style["width"]; ok {
				width = parseNumber(v)
			}
		}
		if height <= 0 || pct(heightAttr) {
			if v, ok := style["height"]; ok {
				height = parseNumber(v)
			}
		}
	}
	return width, height
}

func hasToken(cls string, tokens ...string) bool {
	for _, tok := range tokens {
		if strings.Contains(cls, tok) {
			return true
		}
	}
	return false
}

func isEdgeClass(cls string) bool {
	if hasToken(cls, "actor-line", "actorline", "lifeline") {
		return false
	}
	return hasToken(cls, "edgepath", "message", "signal", "arrow", "link", "relationship")
}

func (ex *Extract) visit(n *html.Node, accTX, accTY float64, inEdgeGroup, inEdgeLabelGroup bool) {
	tag := tagName(n)
	if tag == "defs" || tag == "style" || tag == "script" {
		return
	}
	tx, ty := parseTranslate(attr(n, "transform"))
	curTX := accTX + tx
	curTY := accTY + ty

	cls := strings.ToLower(attr(n, "class"))
	edgeGroup := inEdgeGroup || hasToken(cls, "edgepaths", "links") || cls == "link"
	edgeLabelGroup := inEdgeLabelGroup || strings.Contains(cls, "edgelabel")
	hasMarker := attr(n, "marker-end") != "" || attr(n, "marker-start") != ""

	if n.Type == html.ElementNode {
		switch tag {
		case "g":
			if ex.classifyGroup(n, cls, curTX, curTY) {
				// node and cluster groups still contribute text and edges below
			}
		case "path":
			if edgeGroup || isEdgeClass(cls) || hasMarker {
				ex.addEdgePath(vecpath.Flatten(attr(n, "d")), curTX, curTY)
			}
		case "polyline":
			if edgeGroup || isEdgeClass(cls) || hasMarker {
				ex.addEdgePath(parsePointList(attr(n, "points")), curTX, curTY)
			}
		case "line":
			if edgeGroup || isEdgeClass(cls) || hasMarker {
				x1 := parseNumber(attr(n, "x1")) + curTX
				y1 := parseNumber(attr(n, "y1")) + curTY
				x2 := parseNumber(attr(n, "x2")) + curTX
				y2 := parseNumber(attr(n, "y2")) + curTY
				ex.EdgePaths = append(ex.EdgePaths, []geo.Point{{X: x1, Y: y1}, {X: x2, Y: y2}})
			}
		case "foreignobject":
			ex.addForeignObject(n, curTX, curTY, edgeLabelGroup)
		case "rect":
			if looksLikeEdgeLabelRect(n, inEdgeLabelGroup || edgeLabelGroup) {
				w := parseNumber(attr(n, "width"))
				h := parseNumber(attr(n, "height"))
				if w > 0 && h > 0 {
					x := parseNumber(attr(n, "x")) + curTX
					y := parseNumber(attr(n, "y")) + curTY
					ex.EdgeLabelBoxes = append(ex.EdgeLabelBoxes, geo.NewBox(geo.NewPoint(x, y), w, h))
				}
			}
		case "text":
			ex.addTextBox(n, curTX, curTY)
			// tspans were consumed; don't descend into them again
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		ex.visit(c, curTX, curTY, edgeGroup, edgeLabelGroup)
	}
}

func (ex *Extract) addEdgePath(pts []geo.Point, tx, ty float64) {
	if len(pts) < 2 {
		if len(pts) != 0 {
			ex.Skipped++
		}
		return
	}
	shifted := make([]geo.Point, len(pts))
	for i, p := range pts {
		shifted[i] = geo.NewPoint(p.X+tx, p.Y+ty)
	}
	ex.EdgePaths = append(ex.EdgePaths, shifted)
}

// classifyGroup records node and cluster groups. It returns true when the
// group was recognized as either.
func (ex *Extract) classifyGroup(n *html.Node, cls string, tx, ty float64) bool {
	gid := attr(n, "id")
	if gid == "" {
		return false
	}
	if strings.Contains(cls, "cluster") && !strings.Contains(cls, "clusters") {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if tagName(c) != "rect" {
				continue
			}
			w := parseNumber(attr(c, "width"))
			h := parseNumber(attr(c, "height"))
			if w <= 0 || h <= 0 {
				ex.Skipped++
				break
			}
			x := parseNumber(attr(c, "x")) + tx
			y := parseNumber(attr(c, "y")) + ty
			ex.Clusters = append(ex.Clusters, &scene.Cluster{
				ID:  gid,
				Box: geo.NewBox(geo.NewPoint(x, y), w, h),
			})
			break
		}
		return true
	}
	if !strings.Contains(cls, "node") || strings.Contains(cls, "edge") || strings.Contains(cls, "label") {
		return false
	}
	box, ok := ex.shapeUnion(n, tx, ty)
	if !ok {
		return false
	}
	id := NormalizeID(gid)
	ex.Nodes[id] = &scene.Node{ID: id, Box: box}
	if lines := textLinesUnder(n); len(lines) > 0 {
		ex.NodeTexts[id] = lines
	}
	return true
}

// shapeUnion unions every primitive shape under a group, applying the
// accumulated transform. Malformed shapes are skipped.
func (ex *Extract) shapeUnion(g *html.Node, tx, ty float64) (geo.Box, bool) {
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

	var walk func(n *html.Node, tx, ty float64)
	walk = func(n *html.Node, tx, ty float64) {
		if n != g {
			dx, dy := parseTranslate(attr(n, "transform"))
			tx += dx
			ty += dy
			switch tagName(n) {
			case "rect":
				w := parseNumber(attr(n, "width"))
				h := parseNumber(attr(n, "height"))
				if w > 0 && h > 0 {
					x := parseNumber(attr(n, "x")) + tx
					y := parseNumber(attr(n, "y")) + ty
					merge(geo.NewBox(geo.NewPoint(x, y), w, h))
				} else {
					ex.Skipped++
				}
			case "circle":
				r := parseNumber(attr(n, "r"))
				if r > 0 {
					cx := parseNumber(attr(n, "cx")) + tx
					cy := parseNumber(attr(n, "cy")) + ty
					merge(geo.NewBox(geo.NewPoint(cx-r, cy-r), r*2, r*2))
				} else {
					ex.Skipped++
				}
			case "ellipse":
				rx := parseNumber(attr(n, "rx"))
				ry := parseNumber(attr(n, "ry"))
				if rx > 0 && ry > 0 {
					cx := parseNumber(attr(n, "cx")) + tx
					cy := parseNumber(attr(n, "cy")) + ty
					merge(geo.NewBox(geo.NewPoint(cx-rx, cy-ry), rx*2, ry*2))
				} else {
					ex.Skipped++
				}
			case "polygon":
				pts := parsePointList(attr(n, "points"))
				if b, ok := boundsOf(pts, tx, ty); ok {
					merge(b)
				} else {
					ex.Skipped++
				}
			case "path":
				pts := vecpath.Flatten(attr(n, "d"))
				if b, ok := boundsOf(pts, tx, ty); ok {
					merge(b)
				}
			case "line":
				x1 := parseNumber(attr(n, "x1")) + tx
				y1 := parseNumber(attr(n, "y1")) + ty
				x2 := parseNumber(attr(n, "x2")) + tx
				y2 := parseNumber(attr(n, "y2")) + ty
				b, _ := geo.BoundingBox([]geo.Point{{X: x1, Y: y1}, {X: x2, Y: y2}})
				merge(b)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, tx, ty)
		}
	}
	walk(g, tx, ty)
	return box, found
}

func boundsOf(pts []geo.Point, tx, ty float64) (geo.Box, bool) {
	if len(pts) == 0 {
		return geo.Box{}, false
	}
	shifted := make([]geo.Point, len(pts))
	for i, p := range pts {
		shifted[i] = geo.NewPoint(p.X+tx, p.Y+ty)
	}
	return geo.BoundingBox(shifted)
}

func textLinesUnder(n *html.Node) []string {
	var lines []string
	hasTspan := false
	var walk func(c *html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && tagName(c) == "tspan" {
			hasTspan = true
			if raw := strings.TrimSpace(textContent(c)); raw != "" {
				lines = append(lines, raw)
			}
			return
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	if hasTspan {
		return lines
	}
	if raw := strings.TrimSpace(textContent(n)); raw != "" {
		return []string{raw}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(c *html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return sb.String()
}

func (ex *Extract) addForeignObject(n *html.Node, tx, ty float64, inEdgeLabelGroup bool) {
	w := parseNumber(attr(n, "width"))
	h := parseNumber(attr(n, "height"))
	if w <= 0 || h <= 0 {
		ex.Skipped++
		return
	}
	x := parseNumber(attr(n, "x")) + tx
	y := parseNumber(attr(n, "y")) + ty
	box := geo.NewBox(geo.NewPoint(x, y), w, h)
	ex.TextBoxes = append(ex.TextBoxes, TextBox{
		Box:   box,
		Class: attr(n, "class"),
		Lines: textLinesUnder(n),
	})
	if inEdgeLabelGroup {
		ex.EdgeLabelBoxes = append(ex.EdgeLabelBoxes, box)
	}
}

func firstAttrNumber(n *html.Node, name string) (float64, bool) {
	raw := attr(n, name)
	if raw == "" {
		return 0, false
	}
	fields := strings.Fields(strings.ReplaceAll(raw, ",", " "))
	if len(fields) == 0 {
		return 0, false
	}
	return parseNumber(fields[0]), true
}

// addTextBox estimates a bounding box for a text element from its font size,
// anchor and line count. Rendered text metrics are not available, so this is
// an approximation tuned for overlap detection, not pixel fidelity.
func (ex *Extract) addTextBox(n *html.Node, tx, ty float64) {
	lines := textLinesUnder(n)
	if len(lines) == 0 {
		return
	}
	style := parseStyleMap(attr(n, "style"))

	x, okX := firstAttrNumber(n, "x")
	y, okY := firstAttrNumber(n, "y")
	if !okX || !okY {
		var walk func(c *html.Node)
		walk = func(c *html.Node) {
			if okX && okY {
				return
			}
			if c.Type == html.ElementNode && tagName(c) == "tspan" {
				if !okX {
					x, okX = firstAttrNumber(c, "x")
				}
				if !okY {
					y, okY = firstAttrNumber(c, "y")
				}
			}
			for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
				walk(ch)
			}
		}
		walk(n)
	}
	x += tx
	y += ty

	fontSize := parseNumber(attr(n, "font-size"))
	if fontSize <= 0 {
		fontSize = parseNumber(style["font-size"])
	}
	if fontSize <= 0 {
		fontSize = defaultFontSize
	}

	maxLen := 0
	for _, l := range lines {
		if len(l) > maxLen {
			maxLen = len(l)
		}
	}
	width := float64(maxLen) * fontSize * charWidthFactor
	height := math.Max(fontSize, float64(len(lines))*fontSize*lineHeightFactor)

	anchor := strings.ToLower(strings.TrimSpace(attr(n, "text-anchor")))
	if anchor == "" {
		anchor = strings.ToLower(style["text-anchor"])
	}
	switch anchor {
	case "middle":
		x -= width / 2
	case "end":
		x -= width
	}
	// y is the text baseline; approximate the top from it.
	y -= fontSize * baselineFactor

	ex.TextBoxes = append(ex.TextBoxes, TextBox{
		Box:   geo.NewBox(geo.NewPoint(x, y), width, height),
		Class: attr(n, "class"),
		Lines: lines,
	})
}

// looksLikeEdgeLabelRect recognizes the translucent rounded rects some
// renderers place behind edge labels, outside any explicitly classed group.
func looksLikeEdgeLabelRect(n *html.Node, inEdgeLabelGroup bool) bool {
	if inEdgeLabelGroup {
		return true
	}
	h := parseNumber(attr(n, "height"))
	if h <= 0 || h > 140 {
		return false
	}
	if parseNumber(attr(n, "rx")) > 6 {
		return false
	}
	style := parseStyleMap(attr(n, "style"))
	fill := strings.ToLower(strings.TrimSpace(attr(n, "fill")))
	if fill == "" {
		fill = strings.ToLower(style["fill"])
	}
	strokeOpacity := parseNumber(attr(n, "stroke-opacity"))
	if strokeOpacity == 0 {
		strokeOpacity = parseNumber(style["stroke-opacity"])
	}
	strokeWidth := parseNumber(attr(n, "stroke-width"))
	if strokeWidth == 0 {
		strokeWidth = parseNumber(style["stroke-width"])
	}
	if strings.HasPrefix(fill, "rgba(") && strokeOpacity > 0 && strokeOpacity <= 0.95 && strokeWidth <= 1.2 {
		return true
	}
	if strokeOpacity <= 0 {
		return false
	}
	switch fill {
	case "#fff", "#ffffff", "white", "rgb(255,255,255)":
		return true
	}
	return false
}

// Scene assembles the extract into the shared Scene contract. Polyline
// endpoints resolve to the nearest node whose padded box contains them;
// unmatched endpoints stay unresolved.
func (ex *Extract) Scene(kind scene.Kind) *scene.Scene {
	s := &scene.Scene{
		Width:    ex.Width,
		Height:   ex.Height,
		Kind:     kind,
		Nodes:    ex.Nodes,
		Clusters: ex.Clusters,
	}
	for _, pts := range ex.EdgePaths {
		if len(pts) < 2 {
			continue
		}
		s.Edges = append(s.Edges, &scene.Edge{
			Points: pts,
			From:   ex.matchEndpoint(pts[0]),
			To:     ex.matchEndpoint(pts[len(pts)-1]),
		})
	}
	for _, tb := range ex.TextBoxes {
		text := ""
		if len(tb.Lines) > 0 {
			text = tb.Lines[0]
		}
		s.Labels = append(s.Labels, &scene.Label{Box: tb.Box, Class: tb.Class, Text: text})
	}
	s.ResolveOwners()
	return s
}

// matchEndpoint resolves p to the node whose padded box contains it, nearest
// center first, lower id on distance ties.
func (ex *Extract) matchEndpoint(p geo.Point) string {
	bestID := ""
	bestDist := math.Inf(1)
	for id, n := range ex.Nodes {
		pad := math.Max(endpointBasePad, math.Min(n.Box.Width, n.Box.Height)*endpointPadFrac)
		if !n.Box.Expanded(pad).Contains(p) {
			continue
		}
		d := p.DistanceTo(n.Box.Center())
		if d < bestDist || (d == bestDist && (bestID == "" || id < bestID)) {
			bestDist = d
			bestID = id
		}
	}
	return bestID
}
