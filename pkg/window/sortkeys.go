package window

import "sort"

func sortedIntKeysAsc(m map[int]int64) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func sortedIntKeysDesc(m map[int]int64) []int {
	out := sortedIntKeysAsc(m)
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
