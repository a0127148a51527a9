// Package imagecheck rejects downloaded files that do not decode as images,
// such as HTML error pages or truncated bodies served with a 200 status.
package imagecheck

import (
	"fmt"

	"github.com/disintegration/imaging"
)

// Validator decodes downloaded assets and enforces minimum dimensions.
type Validator struct {
	MinWidth  int
	MinHeight int
}

// Validate implements build.AssetValidator.
func (v Validator) Validate(path string) error {
	width, height, err := Dimensions(path)
	if err != nil {
		return err
	}
	if width < max(v.MinWidth, 1) || height < max(v.MinHeight, 1) {
		return fmt.Errorf("image %s is %dx%d, below minimum %dx%d", path, width, height, v.MinWidth, v.MinHeight)
	}
	return nil
}

// Dimensions decodes path and returns its width and height after applying
// EXIF orientation.
func Dimensions(path string) (int, int, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image %s: %w", path, err)
	}
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy(), nil
}
