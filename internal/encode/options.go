package encode

import (
	"fmt"
	"image"
	"strings"
)

// Subsampling selects the chroma subsampling of the intermediate encode.
type Subsampling int

const (
	Subsampling444 Subsampling = iota
	Subsampling440
	Subsampling422
	Subsampling420
)

// String returns the conventional ratio label, e.g. "420".
func (s Subsampling) String() string {
	switch s {
	case Subsampling444:
		return "444"
	case Subsampling440:
		return "440"
	case Subsampling422:
		return "422"
	case Subsampling420:
		return "420"
	default:
		return fmt.Sprintf("Subsampling(%d)", int(s))
	}
}

// Ratio maps the setting onto the image package ratio used by the encoder.
func (s Subsampling) Ratio() image.YCbCrSubsampleRatio {
	switch s {
	case Subsampling444:
		return image.YCbCrSubsampleRatio444
	case Subsampling440:
		return image.YCbCrSubsampleRatio440
	case Subsampling422:
		return image.YCbCrSubsampleRatio422
	default:
		return image.YCbCrSubsampleRatio420
	}
}

// ParseSubsampling converts a ratio label into a Subsampling value.
func ParseSubsampling(value string) (Subsampling, error) {
	switch strings.TrimSpace(value) {
	case "444":
		return Subsampling444, nil
	case "440":
		return Subsampling440, nil
	case "422":
		return Subsampling422, nil
	case "420":
		return Subsampling420, nil
	default:
		return Subsampling444, fmt.Errorf("unknown chroma subsampling %q (use 444, 440, 422, or 420)", value)
	}
}

// CopyMode selects which source metadata jpegtran carries into the output.
type CopyMode int

const (
	CopyNone CopyMode = iota
	CopyComments
	CopyAll
)

// String returns the jpegtran -copy argument for the mode.
func (m CopyMode) String() string {
	switch m {
	case CopyNone:
		return "none"
	case CopyComments:
		return "comments"
	case CopyAll:
		return "all"
	default:
		return fmt.Sprintf("CopyMode(%d)", int(m))
	}
}

// ParseCopyMode converts a metadata policy label into a CopyMode value.
func ParseCopyMode(value string) (CopyMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "none":
		return CopyNone, nil
	case "comments":
		return CopyComments, nil
	case "all":
		return CopyAll, nil
	default:
		return CopyNone, fmt.Errorf("unknown metadata copy mode %q (use none, comments, or all)", value)
	}
}

// Options captures the encode settings for one save invocation. Values are
// passed by copy so concurrent saves cannot observe each other's settings.
type Options struct {
	Quality     int
	Subsampling Subsampling
	Optimize    bool
	Progressive bool
	CopyMode    CopyMode
}

// Validate reports the first unusable option value.
func (o Options) Validate() error {
	if o.Quality < 0 || o.Quality > 100 {
		return fmt.Errorf("quality %d out of range [0, 100]", o.Quality)
	}
	switch o.Subsampling {
	case Subsampling444, Subsampling440, Subsampling422, Subsampling420:
	default:
		return fmt.Errorf("unknown chroma subsampling %d", int(o.Subsampling))
	}
	switch o.CopyMode {
	case CopyNone, CopyComments, CopyAll:
	default:
		return fmt.Errorf("unknown metadata copy mode %d", int(o.CopyMode))
	}
	return nil
}
