package encode

import (
	"fmt"
	"image"
	"io"

	"github.com/gen2brain/jpegli"
)

// WriteIntermediate encodes img as a sequential JPEG honouring the quality
// and chroma subsampling in o. The result is the staging input handed to
// jpegtran. The encode is always sequential regardless of o.Progressive;
// progressive conversion is jpegtran's job so it stays lossless.
func WriteIntermediate(w io.Writer, img image.Image, o Options) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if img == nil {
		return fmt.Errorf("nil image")
	}

	opts := jpegli.EncodingOptions{
		Quality:              o.Quality,
		ChromaSubsampling:    o.Subsampling.Ratio(),
		ProgressiveLevel:     0,
		OptimizeCoding:       true,
		AdaptiveQuantization: true,
	}
	if err := jpegli.Encode(w, img, &opts); err != nil {
		return fmt.Errorf("encode intermediate jpeg: %w", err)
	}
	return nil
}
