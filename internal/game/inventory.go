package game

import "math/rand/v2"

// GenerateInventory produces a starting inventory whose scrap value lands in
// [target*(1-factor), target*(1+factor)]. Random products are added one unit
// at a time until the lower bound is reached (skipping picks that would
// overshoot the upper bound), then the cheapest product that still fits tops
// the value up toward the target. Deterministic for a given rng.
func GenerateInventory(rng *rand.Rand, products []string, scrap map[string]int64, target int64, factor float64) map[string]int64 {
	inv := make(map[string]int64, len(products))
	for _, p := range products {
		inv[p] = 0
	}

	low := float64(target) * (1 - factor)
	high := float64(target) * (1 + factor)
	var value int64

	anyFits := func() bool {
		for _, p := range products {
			if float64(value+scrap[p]) <= high {
				return true
			}
		}
		return false
	}

	for float64(value) < low {
		if !anyFits() {
			break
		}
		p := products[rng.IntN(len(products))]
		if float64(value+scrap[p]) > high {
			continue
		}
		inv[p]++
		value += scrap[p]
	}

	for value < target {
		cheapest := ""
		for _, p := range products {
			if float64(value+scrap[p]) > high {
				continue
			}
			if cheapest == "" || scrap[p] < scrap[cheapest] {
				cheapest = p
			}
		}
		if cheapest == "" {
			break
		}
		inv[cheapest]++
		value += scrap[cheapest]
	}

	return inv
}

// InventoryValue prices an inventory at scrap values.
func InventoryValue(inv map[string]int64, scrap map[string]int64) int64 {
	var total int64
	for p, n := range inv {
		total += n * scrap[p]
	}
	return total
}
