package sched

import (
	"sort"

	"papercal/internal/model"
)

// Layout assigns layer indices and width fractions to one day's timed
// instances so overlapping events can be drawn side by side.
//
// Overlapping instances form an undirected graph; connected clusters are
// found with a breadth-first traversal and layered independently. Inside a
// cluster, instances are placed longest-first (start time breaking ties)
// into the first layer they fit without overlap, so long events claim the
// low, wide layers and short ones stack on top. widthFrac shrinks linearly
// with depth: (maxDepth - layer) / maxDepth.
//
// Layout never fails on well-formed input; an empty list yields an empty
// result.
func Layout(timed []model.Instance) []model.LayeredInstance {
	n := len(timed)
	out := make([]model.LayeredInstance, 0, n)
	if n == 0 {
		return out
	}

	adj := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if timed[i].Overlaps(timed[j]) {
				adj[i] = append(adj[i], j)
				adj[j] = append(adj[j], i)
			}
		}
	}

	visited := make([]bool, n)
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}

		// BFS with an explicit queue; clusters are independent.
		cluster := make([]int, 0)
		queue := []int{i}
		visited[i] = true
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			cluster = append(cluster, node)
			for _, nb := range adj[node] {
				if !visited[nb] {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}

		out = append(out, layerCluster(timed, cluster)...)
	}

	return out
}

// layerCluster runs the first-fit layering for one connected cluster.
func layerCluster(timed []model.Instance, cluster []int) []model.LayeredInstance {
	order := append([]int(nil), cluster...)
	sort.SliceStable(order, func(a, b int) bool {
		da, db := timed[order[a]].Duration(), timed[order[b]].Duration()
		if da != db {
			return da > db
		}
		return timed[order[a]].Start.Before(timed[order[b]].Start)
	})

	layers := make([][]int, 0)
	layerOf := make(map[int]int, len(cluster))
	for _, idx := range order {
		placed := false
		for li, members := range layers {
			fits := true
			for _, m := range members {
				if timed[idx].Overlaps(timed[m]) {
					fits = false
					break
				}
			}
			if fits {
				layers[li] = append(layers[li], idx)
				layerOf[idx] = li
				placed = true
				break
			}
		}
		if !placed {
			layers = append(layers, []int{idx})
			layerOf[idx] = len(layers) - 1
		}
	}

	maxDepth := len(layers)
	out := make([]model.LayeredInstance, 0, len(cluster))
	for _, idx := range cluster {
		li := layerOf[idx]
		out = append(out, model.LayeredInstance{
			Instance:  timed[idx],
			Layer:     li,
			WidthFrac: float64(maxDepth-li) / float64(maxDepth),
		})
	}
	return out
}
