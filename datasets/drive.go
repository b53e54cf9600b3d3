// Package datasets loads paired image/label/mask segmentation volumes and
// presents them as indexed samples with the augmentation pipeline applied on
// retrieval, plus a gomlx train.Dataset adapter that batches them through a
// two-stream sampler for semi-supervised training.
package datasets

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/Noofbiz/segdata/transforms"
)

// LoadFunc is the external collaborator that produces the three parallel,
// index-aligned volume lists for a dataset split. LoadDrive is the default;
// tests and other data layouts plug in their own.
type LoadFunc func(baseDir, split string) (images, labels, masks []*transforms.Volume, err error)

// Config configures a Drive dataset.
type Config struct {
	// BaseDir is the dataset root passed to the loader.
	BaseDir string

	// Split selects the dataset split ("train", "test", ...). Defaults to
	// "train".
	Split string

	// Num optionally caps the number of samples. The cap applies to the
	// loaded lists before the construction-time permutation; zero keeps
	// everything.
	Num int

	// Transform is the augmentation pipeline applied to every retrieved
	// sample. May be nil.
	Transform transforms.Transform

	// Load is the loader collaborator. Defaults to LoadDrive.
	Load LoadFunc

	// Seed seeds the dataset RNG used for the one-time permutation and for
	// per-sample augmentation. Zero picks a time-based seed.
	Seed int64
}

// Drive holds three parallel volume lists (images, labels, masks) with a
// fixed randomized index order decided once at construction. Retrieval never
// mutates the stored volumes.
type Drive struct {
	cfg    Config
	images []*transforms.Volume
	labels []*transforms.Volume
	masks  []*transforms.Volume
	rng    *rand.Rand
}

// New loads the dataset through the configured collaborator, optionally caps
// it to cfg.Num samples, and applies one random permutation to all three
// lists. The permutation fixes the index-to-sample mapping for the dataset's
// lifetime; samples are not reshuffled on access.
func New(cfg Config) (*Drive, error) {
	if cfg.Split == "" {
		cfg.Split = "train"
	}
	load := cfg.Load
	if load == nil {
		load = LoadDrive
	}
	images, labels, masks, err := load(cfg.BaseDir, cfg.Split)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %q split from %q", cfg.Split, cfg.BaseDir)
	}
	if len(images) != len(labels) || len(images) != len(masks) {
		return nil, errors.Errorf("loader returned unaligned lists: %d images, %d labels, %d masks",
			len(images), len(labels), len(masks))
	}
	if len(images) == 0 {
		return nil, errors.Errorf("loader returned no samples for %q split in %q", cfg.Split, cfg.BaseDir)
	}
	if cfg.Num > 0 && cfg.Num < len(images) {
		images = images[:cfg.Num]
		labels = labels[:cfg.Num]
		masks = masks[:cfg.Num]
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	d := &Drive{
		cfg:    cfg,
		images: images,
		labels: labels,
		masks:  masks,
		rng:    rand.New(rand.NewSource(seed)),
	}
	perm := d.rng.Perm(len(images))
	d.images = reorder(images, perm)
	d.labels = reorder(labels, perm)
	d.masks = reorder(masks, perm)
	klog.V(1).Infof("drive dataset: %d samples, split=%q", len(d.images), cfg.Split)
	return d, nil
}

func reorder(volumes []*transforms.Volume, perm []int) []*transforms.Volume {
	out := make([]*transforms.Volume, len(volumes))
	for i, j := range perm {
		out[i] = volumes[j]
	}
	return out
}

// Len returns the number of samples.
func (d *Drive) Len() int { return len(d.images) }

// At returns the sample at idx with the configured transform applied, using
// the dataset's own RNG for augmentation draws.
func (d *Drive) At(idx int) (*transforms.Sample, error) {
	return d.ItemWithRNG(idx, d.rng)
}

// ItemWithRNG is At with an explicit RNG, so parallel consumers can keep
// independently seeded generators and avoid correlated augmentation.
//
// The sample's image is the full stored volume; the label keeps only its
// first channel (as a length-1 leading axis).
func (d *Drive) ItemWithRNG(idx int, rng *rand.Rand) (*transforms.Sample, error) {
	if idx < 0 || idx >= len(d.images) {
		return nil, errors.Errorf("index %d out of range [0, %d)", idx, len(d.images))
	}
	sample := &transforms.Sample{
		Image: d.images[idx].Clone(),
		Label: d.labels[idx].Narrow(0, 0, 1),
	}
	if d.cfg.Transform != nil {
		sample = d.cfg.Transform.Apply(rng, sample)
	}
	return sample, nil
}

// Mask returns the evaluation mask volume for idx.
func (d *Drive) Mask(idx int) (*transforms.Volume, error) {
	if idx < 0 || idx >= len(d.masks) {
		return nil, errors.Errorf("index %d out of range [0, %d)", idx, len(d.masks))
	}
	return d.masks[idx], nil
}
