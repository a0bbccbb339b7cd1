package mapper

import (
	"math"
	"sort"
)

// ranked is one selected candidate; seen is its position in the scan.
type ranked struct {
	index int
	dist  float64
	seen  int
}

// bestK keeps the k smallest distances with a replace-worst scan. A new
// candidate replaces the current worst only if strictly closer, and among
// tied worst slots the latest seen is evicted, so the first seen of equal
// distances survive. Non-finite distances are skipped and counted.
// The result is sorted by ascending distance, ties by scan order.
func bestK(candidates []int, k int, dist func(int) float64) ([]ranked, int) {
	if k <= 0 {
		return nil, 0
	}
	best := make([]ranked, 0, k)
	worst := -1
	skipped := 0
	for pos, c := range candidates {
		d := dist(c)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			skipped++
			continue
		}
		if len(best) < k {
			best = append(best, ranked{index: c, dist: d, seen: pos})
			if worst < 0 || d >= best[worst].dist {
				worst = len(best) - 1
			}
			continue
		}
		if d < best[worst].dist {
			best[worst] = ranked{index: c, dist: d, seen: pos}
			worst = worstSlot(best)
		}
	}
	sort.Slice(best, func(i, j int) bool {
		if best[i].dist != best[j].dist {
			return best[i].dist < best[j].dist
		}
		return best[i].seen < best[j].seen
	})
	return best, skipped
}

func worstSlot(best []ranked) int {
	w := 0
	for i := 1; i < len(best); i++ {
		if best[i].dist > best[w].dist ||
			(best[i].dist == best[w].dist && best[i].seen > best[w].seen) {
			w = i
		}
	}
	return w
}
