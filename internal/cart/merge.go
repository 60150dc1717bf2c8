package cart

import "sort"

type quantityUpdate struct {
	itemID   int64
	quantity int
}

// planMerge groups lines by signature and, for any group with more than
// one member, keeps the lowest-id line with the summed quantity and
// marks the rest for deletion. Grouping is exhaustive, so one pass
// reaches a fixed point: a second plan over the merged result is empty.
func planMerge(items []Item) ([]quantityUpdate, []int64) {
	groups := make(map[string][]Item)
	order := make([]string, 0, len(items))

	for _, it := range items {
		sig := it.Signature()
		if _, seen := groups[sig]; !seen {
			order = append(order, sig)
		}
		groups[sig] = append(groups[sig], it)
	}

	var updates []quantityUpdate
	var deletes []int64

	for _, sig := range order {
		bucket := groups[sig]
		if len(bucket) <= 1 {
			continue
		}
		sort.Slice(bucket, func(i, j int) bool { return bucket[i].ID < bucket[j].ID })

		keeper := bucket[0]
		total := 0
		for _, it := range bucket {
			total += it.Quantity
		}
		if keeper.Quantity != total {
			updates = append(updates, quantityUpdate{itemID: keeper.ID, quantity: total})
		}
		for _, dupe := range bucket[1:] {
			deletes = append(deletes, dupe.ID)
		}
	}

	return updates, deletes
}
