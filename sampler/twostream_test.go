package sampler

import (
	"math/rand"
	"testing"
)

func collectEpoch(t *testing.T, e *Epoch) [][]int {
	t.Helper()
	var batches [][]int
	for {
		b, ok := e.Next()
		if !ok {
			return batches
		}
		batches = append(batches, b)
	}
}

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected a panic", name)
		}
	}()
	fn()
}

func TestTwoStreamBatchSampler(t *testing.T) {
	primary := []int{0, 1, 2, 3, 4}
	secondary := []int{10, 11}
	s := New(primary, secondary, 4, 2)

	if got := s.NumBatches(); got != 2 {
		t.Errorf("NumBatches() = %d, want 2 (5 primary / batch of 2, remainder dropped)", got)
	}
	if got := s.BatchSize(); got != 4 {
		t.Errorf("BatchSize() = %d, want 4", got)
	}
	if got := s.PrimaryBatchSize(); got != 2 {
		t.Errorf("PrimaryBatchSize() = %d, want 2", got)
	}
	if got := s.SecondaryBatchSize(); got != 2 {
		t.Errorf("SecondaryBatchSize() = %d, want 2", got)
	}

	rng := rand.New(rand.NewSource(42))
	batches := collectEpoch(t, s.Batches(rng))
	if len(batches) != 2 {
		t.Fatalf("epoch produced %d batches, want 2", len(batches))
	}

	seenPrimary := map[int]bool{}
	for i, batch := range batches {
		if len(batch) != 4 {
			t.Fatalf("batch %d has %d entries, want 4", i, len(batch))
		}
		for _, idx := range batch[:2] {
			if idx < 0 || idx > 4 {
				t.Errorf("batch %d primary entry %d not from the primary pool", i, idx)
			}
			if seenPrimary[idx] {
				t.Errorf("batch %d repeats primary entry %d within the epoch", i, idx)
			}
			seenPrimary[idx] = true
		}
		for _, idx := range batch[2:] {
			if idx != 10 && idx != 11 {
				t.Errorf("batch %d secondary entry %d not from the secondary pool", i, idx)
			}
		}
	}
}

func TestEpochsAreIndependentPermutations(t *testing.T) {
	primary := make([]int, 12)
	for i := range primary {
		primary[i] = i
	}
	s := New(primary, []int{100, 101, 102}, 5, 1)
	rng := rand.New(rand.NewSource(1))

	for epoch := 0; epoch < 3; epoch++ {
		seen := map[int]bool{}
		batches := collectEpoch(t, s.Batches(rng))
		if len(batches) != 3 {
			t.Fatalf("epoch %d: got %d batches, want 3", epoch, len(batches))
		}
		for _, batch := range batches {
			for _, idx := range batch[:4] {
				if seen[idx] {
					t.Errorf("epoch %d repeats primary entry %d", epoch, idx)
				}
				seen[idx] = true
			}
		}
	}
}

func TestSecondaryCycleBalanced(t *testing.T) {
	// 6 primary entries at 1 per batch drive 6 batches, each drawing 1 entry
	// from a 3-element secondary pool: two full cycles, so every secondary
	// entry appears exactly twice.
	s := New([]int{0, 1, 2, 3, 4, 5}, []int{7, 8, 9}, 2, 1)
	rng := rand.New(rand.NewSource(13))

	counts := map[int]int{}
	for _, batch := range collectEpoch(t, s.Batches(rng)) {
		counts[batch[1]]++
	}
	for _, idx := range []int{7, 8, 9} {
		if counts[idx] != 2 {
			t.Errorf("secondary entry %d drawn %d times, want 2", idx, counts[idx])
		}
	}
}

func TestNewValidation(t *testing.T) {
	mustPanic(t, "primary pool too small", func() {
		New([]int{0}, []int{10, 11}, 4, 2)
	})
	mustPanic(t, "secondary pool too small", func() {
		New([]int{0, 1, 2}, []int{10}, 4, 2)
	})
	mustPanic(t, "secondary batch consumes whole batch", func() {
		New([]int{0, 1, 2}, []int{10, 11}, 2, 2)
	})
	mustPanic(t, "zero secondary batch", func() {
		New([]int{0, 1, 2}, []int{10, 11}, 2, 0)
	})
}

func TestSplit(t *testing.T) {
	labeled, unlabeled := Split(6, 2)
	wantL, wantU := []int{0, 1}, []int{2, 3, 4, 5}
	if len(labeled) != len(wantL) || len(unlabeled) != len(wantU) {
		t.Fatalf("Split(6, 2) = %v, %v; want %v, %v", labeled, unlabeled, wantL, wantU)
	}
	for i := range wantL {
		if labeled[i] != wantL[i] {
			t.Errorf("labeled[%d] = %d, want %d", i, labeled[i], wantL[i])
		}
	}
	for i := range wantU {
		if unlabeled[i] != wantU[i] {
			t.Errorf("unlabeled[%d] = %d, want %d", i, unlabeled[i], wantU[i])
		}
	}

	mustPanic(t, "numLabeled = 0", func() { Split(6, 0) })
	mustPanic(t, "numLabeled = n", func() { Split(6, 6) })
}

func TestSamplerCopiesPools(t *testing.T) {
	primary := []int{0, 1, 2, 3}
	s := New(primary, []int{10, 11}, 3, 1)
	primary[0] = 99

	rng := rand.New(rand.NewSource(2))
	for _, batch := range collectEpoch(t, s.Batches(rng)) {
		for _, idx := range batch[:2] {
			if idx == 99 {
				t.Fatal("sampler aliased the caller's primary slice")
			}
		}
	}
}
