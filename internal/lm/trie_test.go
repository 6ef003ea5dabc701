package lm

import "testing"

func TestTrieAddAndCount(t *testing.T) {
	tr := NewTrie(3)
	tr.Add([]uint32{10}, 1)
	tr.Add([]uint32{10}, 1)
	tr.Add([]uint32{10, 20}, 2)
	tr.Add([]uint32{10, 20, 30}, 3)

	if got := tr.Count([]uint32{10}, 1); got != 2 {
		t.Errorf("Count(10) = %d, want 2", got)
	}
	if got := tr.Count([]uint32{10, 20}, 2); got != 1 {
		t.Errorf("Count(10,20) = %d, want 1", got)
	}
	if got := tr.Count([]uint32{10, 20, 30}, 3); got != 1 {
		t.Errorf("Count(10,20,30) = %d, want 1", got)
	}
	if got := tr.Count([]uint32{99}, 1); got != 0 {
		t.Errorf("Count(missing) = %d, want 0", got)
	}
}

func TestTrieAddOutOfRangeIsNoOp(t *testing.T) {
	tr := NewTrie(3)
	tr.Add([]uint32{1}, 0)
	tr.Add([]uint32{1}, -1)
	tr.Add([]uint32{1}, 4)
	if tr.Root().ChildCount() != 0 {
		t.Errorf("out-of-range Add mutated the trie, childCount = %d", tr.Root().ChildCount())
	}
}

func TestAddWithCountZeroIsNoOp(t *testing.T) {
	tr := NewTrie(3)
	tr.AddWithCount([]uint32{1}, 1, 0)
	if got := tr.Count([]uint32{1}, 1); got != 0 {
		t.Errorf("AddWithCount(c=0) mutated the trie, count = %d", got)
	}
}

func TestFindPrefixNodeChildren(t *testing.T) {
	tr := NewTrie(2)
	tr.Add([]uint32{1, 2}, 2)
	tr.Add([]uint32{1, 3}, 2)
	tr.Add([]uint32{1, 3}, 2)

	node := tr.FindPrefixNode([]uint32{1}, 1)
	if node == nil {
		t.Fatal("FindPrefixNode(1) = nil")
	}

	seen := map[uint32]uint32{}
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		seen[c.TokenID] = c.Count
	}
	if seen[2] != 1 || seen[3] != 2 {
		t.Errorf("children counts = %v, want {2:1, 3:2}", seen)
	}
}

func TestUpdateAllSeedScenario(t *testing.T) {
	// Spec seed scenario 2: "a b c" and "a b d" with maxN=3.
	tr := NewTrie(3)
	a, b, c, d := uint32(10), uint32(11), uint32(12), uint32(13)

	tr.UpdateAll([]uint32{a, b, c}, 3)
	tr.UpdateAll([]uint32{a, b, d}, 3)

	if got := tr.Count([]uint32{a}, 1); got != 2 {
		t.Errorf("count(a,1) = %d, want 2", got)
	}
	if got := tr.Count([]uint32{a, b}, 2); got != 2 {
		t.Errorf("count(a,b,2) = %d, want 2", got)
	}
	if got := tr.Count([]uint32{a, b, c}, 3); got != 1 {
		t.Errorf("count(a,b,c,3) = %d, want 1", got)
	}
	if got := tr.Count([]uint32{a, b, d}, 3); got != 1 {
		t.Errorf("count(a,b,d,3) = %d, want 1", got)
	}
}

func TestTrieChildOrderIsInsertionOrder(t *testing.T) {
	tr := NewTrie(1)
	order := []uint32{5, 1, 9, 2, 7}
	for _, id := range order {
		tr.Add([]uint32{id}, 1)
	}

	var got []uint32
	for c := tr.Root().FirstChild(); c != nil; c = c.NextSibling() {
		got = append(got, c.TokenID)
	}
	for i, id := range order {
		if got[i] != id {
			t.Fatalf("child order = %v, want %v", got, order)
		}
	}
}

func TestTrieManyChildrenBuildsIndexButPreservesOrder(t *testing.T) {
	tr := NewTrie(1)
	n := childIndexThreshold + 10
	for i := 0; i < n; i++ {
		tr.Add([]uint32{uint32(i)}, 1)
	}
	if tr.Root().childIndex == nil {
		t.Fatal("expected child index to be built past the threshold")
	}
	i := 0
	for c := tr.Root().FirstChild(); c != nil; c = c.NextSibling() {
		if c.TokenID != uint32(i) {
			t.Fatalf("order broken at position %d: got %d", i, c.TokenID)
		}
		i++
	}
	if i != n {
		t.Fatalf("walked %d children, want %d", i, n)
	}
}

func TestCollectOrder(t *testing.T) {
	tr := NewTrie(2)
	tr.Add([]uint32{1, 2}, 2)
	tr.Add([]uint32{1, 2}, 2)
	tr.Add([]uint32{1, 3}, 2)

	rows := tr.CollectOrder(2)
	if len(rows) != 2 {
		t.Fatalf("CollectOrder(2) returned %d rows, want 2", len(rows))
	}
	total := uint32(0)
	for _, r := range rows {
		total += r.Count
	}
	if total != 3 {
		t.Errorf("total count across rows = %d, want 3", total)
	}
}

func TestPruneRemovesBelowThreshold(t *testing.T) {
	tr := NewTrie(1)
	tr.Add([]uint32{1}, 1)
	tr.AddWithCount([]uint32{2}, 1, 5)

	removed := tr.Prune(2)
	if removed != 1 {
		t.Errorf("Prune removed %d, want 1", removed)
	}
	if got := tr.Count([]uint32{1}, 1); got != 0 {
		t.Errorf("pruned node still present, count = %d", got)
	}
	if got := tr.Count([]uint32{2}, 1); got != 5 {
		t.Errorf("surviving node count changed: %d, want 5", got)
	}
}

func TestCountMonotoneDuringTraining(t *testing.T) {
	tr := NewTrie(1)
	var prev uint32
	for i := 0; i < 5; i++ {
		tr.Add([]uint32{42}, 1)
		cur := tr.Count([]uint32{42}, 1)
		if cur < prev {
			t.Fatalf("count decreased: %d -> %d", prev, cur)
		}
		prev = cur
	}
}
