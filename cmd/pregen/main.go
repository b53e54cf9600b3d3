// Command pregen runs the full data pipeline offline: it loads a DRIVE-style
// dataset split, applies the augmentation pipeline, draws two-stream batches
// mixing the labeled and unlabeled pools, and saves every batch's tensors to
// disk. Useful for inspecting what a training run would consume and for
// amortizing augmentation cost across runs.
package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"github.com/Noofbiz/segdata/datasets"
	"github.com/Noofbiz/segdata/sampler"
	"github.com/Noofbiz/segdata/transforms"
)

var (
	flagData      = flag.String("data", "assets/drive", "dataset root directory")
	flagSplit     = flag.String("split", "train", "dataset split to load")
	flagOut       = flag.String("out", "pregen", "output directory for batch tensors")
	flagLabeled   = flag.Int("labeled", 4, "size of the labeled (primary) pool; the remaining samples form the unlabeled pool")
	flagBatch     = flag.Int("batch", 4, "total batch size")
	flagSecondary = flag.Int("secondary_batch", 2, "entries per batch drawn from the unlabeled pool")
	flagCropH     = flag.Int("crop_height", 512, "center-crop target height")
	flagCropW     = flag.Int("crop_width", 512, "center-crop target width")
	flagSigma     = flag.Float64("sigma", 0.1, "gaussian noise std-dev applied to images; 0 disables")
	flagClasses   = flag.Int("classes", 0, "if > 0, also emit one-hot label tensors with this many classes")
	flagEpochs    = flag.Int("epochs", 1, "number of epochs to pre-generate")
	flagSeed      = flag.Int64("seed", 0, "RNG seed; 0 uses a time-based seed")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	seed := *flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	pipeline := transforms.Compose{
		transforms.CenterCrop{OutputSize: [2]int{*flagCropH, *flagCropW}},
	}
	if *flagSigma > 0 {
		pipeline = append(pipeline, transforms.RandomNoise{Sigma: *flagSigma})
	}
	if *flagClasses > 0 {
		pipeline = append(pipeline, transforms.CreateOnehotLabel{NumClasses: *flagClasses})
	}

	ds, err := datasets.New(datasets.Config{
		BaseDir:   *flagData,
		Split:     *flagSplit,
		Transform: pipeline,
		Seed:      seed,
	})
	if err != nil {
		klog.Fatalf("Failed to load dataset: %+v", err)
	}
	if *flagLabeled >= ds.Len() {
		klog.Fatalf("-labeled=%d must be smaller than the dataset size %d", *flagLabeled, ds.Len())
	}
	labeled, unlabeled := sampler.Split(ds.Len(), *flagLabeled)
	smp := sampler.New(labeled, unlabeled, *flagBatch, *flagSecondary)
	batches := datasets.NewBatches("pregen", ds, smp, rng)

	if err := os.MkdirAll(*flagOut, 0755); err != nil {
		klog.Fatalf("Failed to create output directory %q: %v", *flagOut, err)
	}
	klog.Infof("pre-generating %d epochs x %d batches of %d (%d labeled + %d unlabeled)",
		*flagEpochs, smp.NumBatches(), smp.BatchSize(), smp.PrimaryBatchSize(), smp.SecondaryBatchSize())

	for epoch := 0; epoch < *flagEpochs; epoch++ {
		bar := progressbar.NewOptions(smp.NumBatches(),
			progressbar.OptionSetDescription(fmt.Sprintf("epoch %d", epoch)),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("batches"),
		)
		for batch := 0; ; batch++ {
			_, inputs, labels, err := batches.Yield()
			if err == io.EOF {
				break
			}
			if err != nil {
				klog.Fatalf("Yield failed at epoch %d batch %d: %+v", epoch, batch, err)
			}
			prefix := filepath.Join(*flagOut, fmt.Sprintf("epoch%03d_batch%03d", epoch, batch))
			if err := inputs[0].Save(prefix + "_image.tensor"); err != nil {
				klog.Fatalf("Failed to save image batch: %+v", err)
			}
			if err := labels[0].Save(prefix + "_label.tensor"); err != nil {
				klog.Fatalf("Failed to save label batch: %+v", err)
			}
			if len(labels) > 1 {
				if err := labels[1].Save(prefix + "_onehot.tensor"); err != nil {
					klog.Fatalf("Failed to save one-hot batch: %+v", err)
				}
			}
			_ = bar.Add(1)
		}
		_ = bar.Close()
		fmt.Println()
		batches.Reset()
	}
}
