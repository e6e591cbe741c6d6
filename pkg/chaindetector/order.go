package chaindetector

import "github.com/flowscribe/workflow-core/pkg/model"

// Chain is one confirmed inter-step dependency (spec §4.4 Contract).
type Chain struct {
	FromStep, ToStep int
	InputMappings    []model.StepInputMapping
	IsParallel       bool
	IsPagination     bool
}

// buildExecutionOrder topologically sorts n steps given non-parallel chain
// edges, defensively appending any remaining nodes in original order if a
// cycle is found (spec §4.4 "Execution order").
func buildExecutionOrder(n int, chains []Chain) []int {
	adj := make([][]int, n)
	indegree := make([]int, n)
	for _, c := range chains {
		if c.IsParallel {
			continue
		}
		adj[c.FromStep] = append(adj[c.FromStep], c.ToStep)
		indegree[c.ToStep]++
	}

	var queue []int
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	visited := make([]bool, n)
	var order []int
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if visited[node] {
			continue
		}
		visited[node] = true
		order = append(order, node)
		for _, next := range adj[node] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != n {
		// Cycle detected (should not occur given fromStep < toStep by
		// construction): append remaining nodes in original order.
		for i := 0; i < n; i++ {
			if !visited[i] {
				order = append(order, i)
			}
		}
	}
	return order
}

// topologicalDepths computes each step's depth in the non-parallel-chain
// DAG, used to find parallel groups (spec §4.4: "maximal sets of steps
// sharing the same topological depth whose size >= 2").
func topologicalDepths(n int, chains []Chain) []int {
	depth := make([]int, n)
	for _, node := range buildExecutionOrder(n, chains) {
		for _, c := range chains {
			if c.IsParallel {
				continue
			}
			if c.ToStep == node && depth[c.FromStep]+1 > depth[node] {
				depth[node] = depth[c.FromStep] + 1
			}
		}
	}
	return depth
}

// parallelGroups returns the maximal sets of steps sharing the same depth,
// of size >= 2.
func parallelGroups(n int, chains []Chain) [][]int {
	depths := topologicalDepths(n, chains)
	byDepth := map[int][]int{}
	for i, d := range depths {
		byDepth[d] = append(byDepth[d], i)
	}

	var groups [][]int
	for d := 0; d < n; d++ {
		if group, ok := byDepth[d]; ok && len(group) >= 2 {
			groups = append(groups, group)
		}
	}
	return groups
}
