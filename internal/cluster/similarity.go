package cluster

import (
	"crypto/sha1"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/loomworks/loom/pkg/vectorstore"
)

func cosineSim(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// avgVec folds b into a running average a of total samples.
func avgVec(a, b []float32, total int) []float32 {
	if len(a) == 0 {
		return b
	}
	out := make([]float32, len(a))
	for i := range a {
		out[i] = (a[i]*float32(total-1) + b[i]) / float32(total)
	}
	return out
}

// buildComponents builds connected components over the entries using a
// pairwise similarity threshold. Returns the components plus the undirected
// adjacency map used for RELATED edges.
func buildComponents(entries []vectorstore.Entry, threshold float32) ([][]string, map[string][]string) {
	ids := make([]string, 0, len(entries))
	emb := make([][]float32, 0, len(entries))
	for _, e := range entries {
		if len(e.Embedding) == 0 {
			continue
		}
		ids = append(ids, e.NodeID)
		emb = append(emb, e.Embedding)
	}
	n := len(ids)
	adjacency := make([][]int, n)
	edgeMap := make(map[string][]string)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if cosineSim(emb[i], emb[j]) >= threshold {
				adjacency[i] = append(adjacency[i], j)
				adjacency[j] = append(adjacency[j], i)
				edgeMap[ids[i]] = append(edgeMap[ids[i]], ids[j])
				edgeMap[ids[j]] = append(edgeMap[ids[j]], ids[i])
			}
		}
	}

	visited := make([]bool, n)
	var comps [][]string
	var stack []int
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		stack = stack[:0]
		stack = append(stack, i)
		var comp []string
		for len(stack) > 0 {
			k := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[k] {
				continue
			}
			visited[k] = true
			comp = append(comp, ids[k])
			for _, nei := range adjacency[k] {
				if !visited[nei] {
					stack = append(stack, nei)
				}
			}
		}
		if len(comp) > 0 {
			comps = append(comps, comp)
		}
	}
	return comps, edgeMap
}

// stableClusterID hashes the sorted member set scoped by dataset and source
// family, so the same membership always yields the same cluster ID.
func stableClusterID(dataset, sourceFamily string, members []string) string {
	sorted := make([]string, len(members))
	copy(sorted, members)
	sort.Strings(sorted)
	key := fmt.Sprintf("%s|%s|%s", dataset, sourceFamily, strings.Join(sorted, "|"))
	sum := sha1.Sum([]byte(key))
	return fmt.Sprintf("cluster:%s:%x", dataset, sum[:6])
}
