package model

import (
	"sort"
	"strconv"
	"strings"
)

// Assignment is job -> executor -> ordered set of shard ids, held for
// the namespace. Only SE mutates it.
type Assignment map[string]map[string][]int

// ShardsFor returns the shards job has assigned to exe, or nil.
func (a Assignment) ShardsFor(job, exe string) []int {
	byExe := a[job]
	if byExe == nil {
		return nil
	}
	return byExe[exe]
}

// Set records job's shards for exe, pruning the entry entirely when
// shards is empty so empty assignments don't linger as stray keys.
func (a Assignment) Set(job, exe string, shards []int) {
	byExe := a[job]
	if byExe == nil {
		if len(shards) == 0 {
			return
		}
		byExe = make(map[string][]int)
		a[job] = byExe
	}
	if len(shards) == 0 {
		delete(byExe, exe)
		if len(byExe) == 0 {
			delete(a, job)
		}
		return
	}
	sorted := append([]int(nil), shards...)
	sort.Ints(sorted)
	byExe[exe] = sorted
}

// EncodeShards serializes a shard list to the CSV wire format stored at
// /jobs/<job>/servers/<exe>/sharding. An empty slice encodes to "".
func EncodeShards(shards []int) string {
	if len(shards) == 0 {
		return ""
	}
	parts := make([]string, len(shards))
	for i, s := range shards {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ",")
}

// DecodeShards parses the CSV wire format back into a shard list. "" decodes
// to an empty (nil) slice.
func DecodeShards(csv string) ([]int, error) {
	if csv == "" {
		return nil, nil
	}
	parts := strings.Split(csv, ",")
	shards := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		shards = append(shards, n)
	}
	return shards, nil
}
