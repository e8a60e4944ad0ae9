package anyacquire

import (
	"math"
	"math/rand"
)

// KMeansSeed selects k diverse row indices from points
// using the k-means++ seeding procedure.
//
// For k >= len(points) or k <= 1 the first min(k, N)
// indices are returned unchanged.
// Otherwise the first index is drawn uniformly and each
// following index is drawn with probability proportional
// to the squared distance from the nearest index selected
// so far.
func KMeansSeed(points [][]float64, k int) []int {
	n := len(points)
	if k >= n || k <= 1 {
		if k > n {
			k = n
		}
		res := make([]int, 0, k)
		for i := 0; i < k; i++ {
			res = append(res, i)
		}
		return res
	}

	selected := []int{rand.Intn(n)}
	for len(selected) < k {
		dists := make([]float64, n)
		var total float64
		for i, p := range points {
			nearest := math.Inf(1)
			for _, s := range selected {
				if d := sqDist(p, points[s]); d < nearest {
					nearest = d
				}
			}
			dists[i] = nearest
			total += nearest
		}

		next := -1
		if total <= 0 {
			// Degenerate case: every remaining point coincides
			// with a selected one.
			remaining := make([]int, 0, n)
			taken := map[int]bool{}
			for _, s := range selected {
				taken[s] = true
			}
			for i := 0; i < n; i++ {
				if !taken[i] {
					remaining = append(remaining, i)
				}
			}
			next = remaining[rand.Intn(len(remaining))]
		} else {
			// Zero-weight points coincide with a selected one
			// and are never eligible.
			r := rand.Float64() * total
			for i, d := range dists {
				if d == 0 {
					continue
				}
				next = i
				r -= d
				if r <= 0 {
					break
				}
			}
		}
		selected = append(selected, next)
	}
	return selected
}

func sqDist(a, b []float64) float64 {
	var res float64
	for i, x := range a {
		d := x - b[i]
		res += d * d
	}
	return res
}
