package svgscene

import (
	"sort"
	"strings"
	"unicode"
)

// NormalizeID strips renderer slug decoration from a group id. Renderers
// commonly emit "<prefix>-<name>-<counter>"; when the id has at least three
// dash-separated parts and a numeric tail, the middle parts are the author's
// name. Anything else passes through unchanged.
func NormalizeID(raw string) string {
	parts := strings.Split(raw, "-")
	if len(parts) < 3 {
		return raw
	}
	last := parts[len(parts)-1]
	if last == "" {
		return raw
	}
	for _, r := range last {
		if !unicode.IsDigit(r) {
			return raw
		}
	}
	return strings.Join(parts[1:len(parts)-1], "-")
}

func normalizeText(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// MatchByText resolves a node's identity by its rendered text when ids do not
// line up across producers. Exact line equality wins, lowest id first;
// otherwise a normalized substring match is accepted only when exactly one
// candidate matches, so an ambiguous label never binds.
func MatchByText(lines []string, candidates map[string][]string) (string, bool) {
	ids := make([]string, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, line := range lines {
		want := strings.TrimSpace(line)
		if want == "" {
			continue
		}
		for _, id := range ids {
			for _, c := range candidates[id] {
				if strings.TrimSpace(c) == want {
					return id, true
				}
			}
		}
	}

	var hits []string
	for _, line := range lines {
		want := normalizeText(line)
		if want == "" {
			continue
		}
		hits = hits[:0]
		for _, id := range ids {
			for _, c := range candidates[id] {
				got := normalizeText(c)
				if got == "" {
					continue
				}
				if strings.Contains(got, want) || strings.Contains(want, got) {
					hits = append(hits, id)
					break
				}
			}
		}
		if len(hits) == 1 {
			return hits[0], true
		}
	}
	return "", false
}
