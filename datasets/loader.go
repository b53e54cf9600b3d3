package datasets

import (
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	// Register the decoders for the formats the DRIVE distribution uses:
	// tif images, gif labels/masks, plus png/jpeg for converted copies.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/Noofbiz/segdata/transforms"
)

// Subdirectory names of a DRIVE-style split directory.
const (
	imagesSubDir = "images"
	labelsSubDir = "1st_manual"
	masksSubDir  = "mask"
)

var imageExtensions = map[string]bool{
	".tif": true, ".tiff": true, ".gif": true,
	".png": true, ".jpg": true, ".jpeg": true,
}

// LoadDrive is the default loader collaborator. It reads a
// <baseDir>/<split>/{images,1st_manual,mask} directory tree, decoding the
// fundus photographs into [3, height, width] volumes with values in [0, 1]
// and the manual vessel annotations and field-of-view masks into binarized
// [1, height, width] volumes. Files pair up by sorted name order; the three
// directories must hold the same number of images.
func LoadDrive(baseDir, split string) (images, labels, masks []*transforms.Volume, err error) {
	root := filepath.Join(baseDir, split)
	imgPaths, err := listImages(filepath.Join(root, imagesSubDir))
	if err != nil {
		return nil, nil, nil, err
	}
	labPaths, err := listImages(filepath.Join(root, labelsSubDir))
	if err != nil {
		return nil, nil, nil, err
	}
	maskPaths, err := listImages(filepath.Join(root, masksSubDir))
	if err != nil {
		return nil, nil, nil, err
	}
	if len(imgPaths) != len(labPaths) || len(imgPaths) != len(maskPaths) {
		return nil, nil, nil, errors.Errorf(
			"unaligned split %q: %d images, %d labels, %d masks",
			split, len(imgPaths), len(labPaths), len(maskPaths))
	}

	var totalBytes uint64
	for i := range imgPaths {
		img, err := decodeImageFile(imgPaths[i])
		if err != nil {
			return nil, nil, nil, err
		}
		lab, err := decodeImageFile(labPaths[i])
		if err != nil {
			return nil, nil, nil, err
		}
		mask, err := decodeImageFile(maskPaths[i])
		if err != nil {
			return nil, nil, nil, err
		}
		iv := rgbVolume(img)
		lv := binaryVolume(lab)
		mv := binaryVolume(mask)
		images = append(images, iv)
		labels = append(labels, lv)
		masks = append(masks, mv)
		totalBytes += uint64(4 * (iv.Size() + lv.Size() + mv.Size()))
		klog.V(1).Infof("loaded %s: %v", filepath.Base(imgPaths[i]), iv.Dims)
	}
	klog.Infof("drive loader: %d samples from %s (%s in memory)",
		len(images), root, humanize.Bytes(totalBytes))
	return images, labels, masks, nil
}

// listImages returns the sorted image file paths in dir.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", dir)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, errors.Errorf("no images found in %q", dir)
	}
	return paths, nil
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %q", path)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %q", path)
	}
	return img, nil
}

// rgbVolume converts an image into a [3, height, width] volume scaled to
// [0, 1].
func rgbVolume(img image.Image) *transforms.Volume {
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	v := transforms.NewVolume(3, h, w)
	plane := h * w
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			v.Data[y*w+x] = float32(r>>8) / 0xFF
			v.Data[plane+y*w+x] = float32(g>>8) / 0xFF
			v.Data[2*plane+y*w+x] = float32(b>>8) / 0xFF
		}
	}
	return v
}

// binaryVolume converts an annotation or mask image into a [1, height, width]
// volume of 0/1 values, thresholding at half intensity.
func binaryVolume(img image.Image) *transforms.Volume {
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	v := transforms.NewVolume(1, h, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			if (r+g+b)/3 > 0x7FFF {
				v.Data[y*w+x] = 1
			}
		}
	}
	return v
}
