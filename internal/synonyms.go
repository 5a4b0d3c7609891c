package internal

import "slices"

// synonymTable maps canonical action terms to their synonyms. Expansion treats
// each entry as undirected edges, so any member pulls in its whole group.
var synonymTable = map[string][]string{
	"send":     {"transfer", "pay"},
	"swap":     {"exchange", "trade", "convert"},
	"receive":  {"deposit"},
	"confirm":  {"approve", "accept"},
	"reject":   {"cancel", "deny", "decline"},
	"unlock":   {"login", "signin"},
	"settings": {"preferences", "options"},
	"network":  {"chain"},
	"import":   {"restore"},
	"bridge":   {"crosschain"},
}

// synonymGraph is the adjacency list built from synonymTable
var synonymGraph = buildSynonymGraph(synonymTable)

func buildSynonymGraph(table map[string][]string) map[string][]string {
	graph := make(map[string][]string)
	link := func(a, b string) {
		graph[a] = append(graph[a], b)
		graph[b] = append(graph[b], a)
	}
	for canonical, syns := range table {
		for _, s := range syns {
			link(canonical, s)
		}
	}
	for term := range graph {
		slices.Sort(graph[term])
	}
	return graph
}

// synonymComponent returns every term reachable from token, token included
func synonymComponent(token string) []string {
	if _, ok := synonymGraph[token]; !ok {
		return []string{token}
	}
	visited := map[string]bool{token: true}
	queue := []string{token}
	component := []string{}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		component = append(component, cur)
		for _, next := range synonymGraph[cur] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return component
}

// ExpandWithSynonyms returns the input tokens followed by every synonym
// connected to any of them, without duplicates. Applying it twice yields the
// same set as applying it once.
func ExpandWithSynonyms(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	add := func(t string) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, t := range tokens {
		add(t)
	}
	for _, t := range tokens {
		for _, s := range synonymComponent(t) {
			add(s)
		}
	}
	return out
}
