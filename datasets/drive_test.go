package datasets

import (
	"testing"

	"github.com/Noofbiz/segdata/transforms"
)

// fakeLoad returns n aligned samples whose every element carries the sample's
// original index, so tests can track where each sample lands after the
// construction-time permutation.
func fakeLoad(n int) LoadFunc {
	return func(baseDir, split string) (images, labels, masks []*transforms.Volume, err error) {
		for i := 0; i < n; i++ {
			img := transforms.NewVolume(3, 4, 4)
			lab := transforms.NewVolume(2, 4, 4)
			mask := transforms.NewVolume(1, 4, 4)
			for j := range img.Data {
				img.Data[j] = float32(i)
			}
			for j := range lab.Data {
				lab.Data[j] = float32(i)
			}
			images = append(images, img)
			labels = append(labels, lab)
			masks = append(masks, mask)
		}
		return images, labels, masks, nil
	}
}

func newFakeDataset(t *testing.T, cfg Config) *Drive {
	t.Helper()
	if cfg.Load == nil {
		cfg.Load = fakeLoad(6)
	}
	if cfg.Seed == 0 {
		cfg.Seed = 17
	}
	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return d
}

func TestDrivePermutationIsFixed(t *testing.T) {
	d := newFakeDataset(t, Config{})
	if d.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", d.Len())
	}

	// Record the index-to-sample mapping, then check it never changes across
	// repeated accesses.
	order := make([]float32, d.Len())
	for i := range order {
		s, err := d.At(i)
		if err != nil {
			t.Fatalf("At(%d) failed: %v", i, err)
		}
		order[i] = s.Image.Data[0]
	}
	for round := 0; round < 3; round++ {
		for i := range order {
			s, err := d.At(i)
			if err != nil {
				t.Fatalf("At(%d) failed: %v", i, err)
			}
			if s.Image.Data[0] != order[i] {
				t.Fatalf("round %d: At(%d) returned sample %v, want %v (order must be fixed at construction)",
					round, i, s.Image.Data[0], order[i])
			}
		}
	}

	// Every original sample appears exactly once.
	seen := map[float32]bool{}
	for _, v := range order {
		if seen[v] {
			t.Errorf("sample %v appears more than once", v)
		}
		seen[v] = true
	}
	for i := 0; i < 6; i++ {
		if !seen[float32(i)] {
			t.Errorf("sample %d missing from the permuted dataset", i)
		}
	}
}

func TestDriveSameSeedSameOrder(t *testing.T) {
	a := newFakeDataset(t, Config{Seed: 23})
	b := newFakeDataset(t, Config{Seed: 23})
	for i := 0; i < a.Len(); i++ {
		sa, _ := a.At(i)
		sb, _ := b.At(i)
		if sa.Image.Data[0] != sb.Image.Data[0] {
			t.Fatalf("index %d differs between equally seeded datasets: %v vs %v",
				i, sa.Image.Data[0], sb.Image.Data[0])
		}
	}
}

func TestDriveNumCapsBeforePermutation(t *testing.T) {
	d := newFakeDataset(t, Config{Num: 3})
	if d.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", d.Len())
	}
	// The cap keeps the first 3 loaded samples; the permutation only reorders
	// those.
	for i := 0; i < 3; i++ {
		s, err := d.At(i)
		if err != nil {
			t.Fatalf("At(%d) failed: %v", i, err)
		}
		if v := s.Image.Data[0]; v > 2 {
			t.Errorf("At(%d) returned sample %v from beyond the cap", i, v)
		}
	}
}

func TestDriveLabelFirstChannel(t *testing.T) {
	d := newFakeDataset(t, Config{})
	s, err := d.At(0)
	if err != nil {
		t.Fatalf("At(0) failed: %v", err)
	}
	wantDims := []int{1, 4, 4}
	if len(s.Label.Dims) != 3 || s.Label.Dims[0] != 1 || s.Label.Dims[1] != 4 || s.Label.Dims[2] != 4 {
		t.Errorf("label dims = %v, want %v (first channel only)", s.Label.Dims, wantDims)
	}
}

func TestDriveAppliesTransform(t *testing.T) {
	d := newFakeDataset(t, Config{
		Transform: transforms.CenterCrop{OutputSize: [2]int{2, 2}},
	})
	s, err := d.At(0)
	if err != nil {
		t.Fatalf("At(0) failed: %v", err)
	}
	if s.Image.Dims[1] != 2 || s.Image.Dims[2] != 2 {
		t.Errorf("image dims = %v, transform was not applied", s.Image.Dims)
	}
}

func TestDriveRetrievalDoesNotMutateStorage(t *testing.T) {
	d := newFakeDataset(t, Config{})
	s, err := d.At(0)
	if err != nil {
		t.Fatalf("At(0) failed: %v", err)
	}
	s.Image.Data[0] = -1234

	again, err := d.At(0)
	if err != nil {
		t.Fatalf("At(0) failed: %v", err)
	}
	if again.Image.Data[0] == -1234 {
		t.Error("mutating a retrieved sample leaked into the stored volumes")
	}
}

func TestDriveBounds(t *testing.T) {
	d := newFakeDataset(t, Config{})
	if _, err := d.At(-1); err == nil {
		t.Error("At(-1) should fail")
	}
	if _, err := d.At(d.Len()); err == nil {
		t.Errorf("At(%d) should fail", d.Len())
	}
	if _, err := d.Mask(d.Len()); err == nil {
		t.Error("Mask out of range should fail")
	}
	if m, err := d.Mask(0); err != nil || m == nil {
		t.Errorf("Mask(0) = %v, %v; want a volume", m, err)
	}
}

func TestDriveRejectsUnalignedLoader(t *testing.T) {
	_, err := New(Config{
		Seed: 1,
		Load: func(baseDir, split string) ([]*transforms.Volume, []*transforms.Volume, []*transforms.Volume, error) {
			v := transforms.NewVolume(1, 2, 2)
			return []*transforms.Volume{v, v}, []*transforms.Volume{v}, []*transforms.Volume{v, v}, nil
		},
	})
	if err == nil {
		t.Fatal("New should fail on unaligned loader output")
	}
}

func TestDriveRejectsEmptyLoader(t *testing.T) {
	_, err := New(Config{Seed: 1, Load: fakeLoad(0)})
	if err == nil {
		t.Fatal("New should fail when the loader returns no samples")
	}
}
