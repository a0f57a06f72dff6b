package pipeline

import (
	"context"
	"io"
	"strings"

	"optijpeg/internal/document"
	"optijpeg/internal/encode"
	"optijpeg/internal/fileutil"
	"optijpeg/internal/services"
)

// SaveFile loads the image at inputPath, optimizes it, and atomically writes
// the result to outputPath. The destination is only replaced after a fully
// relayed optimizer run, so inputPath and outputPath may name the same file.
func (p *Pipeline) SaveFile(ctx context.Context, inputPath, outputPath string, opts encode.Options) (Result, error) {
	var result Result
	if strings.TrimSpace(inputPath) == "" {
		return result, services.Wrap(services.ErrValidation, "save", "arguments", "input path required", nil)
	}
	if strings.TrimSpace(outputPath) == "" {
		return result, services.Wrap(services.ErrValidation, "save", "arguments", "output path required", nil)
	}

	doc, err := document.LoadFile(inputPath)
	if err != nil {
		return result, services.Wrap(services.ErrValidation, "save", "load source", inputPath, err)
	}

	ctx = services.WithSource(ctx, inputPath)
	var saveErr error
	err = fileutil.WriteFileAtomic(outputPath, func(w io.Writer) error {
		result, saveErr = p.Save(ctx, doc.RGBA(), w, opts)
		return saveErr
	})
	if err != nil {
		if saveErr != nil {
			return result, err
		}
		return result, services.Wrap(services.ErrRelay, "save", "finalize output", outputPath, err)
	}
	return result, nil
}
