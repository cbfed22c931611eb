package graph

// computeMetrics fills every node's centrality measures and community id.
// Communities are connected components: a cheap proxy that separates
// disjoint subgraphs but never subdivides a connected one.
func (g *Graph) computeMetrics() {
	betweenness := g.betweenness()
	communities := g.connectedComponents()

	for i := range g.Nodes {
		g.Nodes[i].Centrality.Degree = float64(len(g.adj[i]))
		g.Nodes[i].Centrality.Closeness = g.closeness(i)
		g.Nodes[i].Centrality.Betweenness = betweenness[i]
		g.Nodes[i].CommunityID = communities[i]
	}
}

// closeness is the inverse of the sum of shortest-path distances from i to
// every reachable node. An isolated node scores 0.
func (g *Graph) closeness(i int) float64 {
	dist := g.bfsDistances(i)
	sum := 0
	for j, d := range dist {
		if j != i && d > 0 {
			sum += d
		}
	}
	if sum == 0 {
		return 0
	}
	return 1 / float64(sum)
}

// betweenness computes betweenness centrality for every node with Brandes'
// algorithm, normalized to the fraction of node pairs whose shortest paths
// pass through the node.
func (g *Graph) betweenness() []float64 {
	n := len(g.Nodes)
	score := make([]float64, n)
	if n < 3 {
		return score
	}

	sigma := make([]float64, n)
	dist := make([]int, n)
	delta := make([]float64, n)
	preds := make([][]int, n)

	for s := 0; s < n; s++ {
		for i := 0; i < n; i++ {
			sigma[i] = 0
			dist[i] = -1
			delta[i] = 0
			preds[i] = preds[i][:0]
		}
		sigma[s] = 1
		dist[s] = 0

		var order []int
		queue := []int{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			order = append(order, v)
			for _, w := range g.adj[v] {
				if dist[w] == -1 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		// Dependency accumulation in reverse BFS order.
		for i := len(order) - 1; i >= 0; i-- {
			w := order[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				score[w] += delta[w]
			}
		}
	}

	// Each undirected pair was counted from both endpoints; divide by the
	// number of ordered pairs excluding the node itself.
	norm := float64((n - 1) * (n - 2))
	for i := range score {
		score[i] /= norm
	}
	return score
}

// connectedComponents assigns each node a component id using an explicit
// stack. Ids are dense, in discovery order of the lowest-index node.
func (g *Graph) connectedComponents() []int {
	component := make([]int, len(g.Nodes))
	for i := range component {
		component[i] = -1
	}

	next := 0
	var stack []int
	for start := range g.Nodes {
		if component[start] != -1 {
			continue
		}
		stack = append(stack[:0], start)
		component[start] = next
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, nb := range g.adj[cur] {
				if component[nb] == -1 {
					component[nb] = next
					stack = append(stack, nb)
				}
			}
		}
		next++
	}
	return component
}
