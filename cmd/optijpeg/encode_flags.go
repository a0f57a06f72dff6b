package main

import (
	"github.com/spf13/cobra"

	"optijpeg/internal/config"
	"optijpeg/internal/encode"
)

// encodeFlags collects the encode settings shared by optimize and batch.
// Flag defaults mirror the configuration defaults for help output; the
// configured values win unless a flag was set explicitly.
type encodeFlags struct {
	quality     int
	subsampling string
	optimize    bool
	progressive bool
	copyMode    string
}

func (f *encodeFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntVarP(&f.quality, "quality", "q", 95, "Quality of the staged encode (0-100)")
	flags.StringVar(&f.subsampling, "subsampling", "420", "Chroma subsampling: 444, 440, 422, or 420")
	flags.BoolVar(&f.optimize, "optimize", true, "Emit optimized Huffman tables")
	flags.BoolVar(&f.progressive, "progressive", false, "Emit a progressive JPEG")
	flags.StringVar(&f.copyMode, "copy", "comments", "Metadata to carry over: none, comments, or all")
}

func (f *encodeFlags) resolve(cmd *cobra.Command, cfg *config.Config) (encode.Options, error) {
	opts := encode.Options{
		Quality:     cfg.Encoder.Quality,
		Optimize:    cfg.Encoder.Optimize,
		Progressive: cfg.Encoder.Progressive,
	}
	subsampling, err := encode.ParseSubsampling(cfg.Encoder.Subsampling)
	if err != nil {
		return opts, err
	}
	opts.Subsampling = subsampling
	copyMode, err := encode.ParseCopyMode(cfg.Encoder.CopyMetadata)
	if err != nil {
		return opts, err
	}
	opts.CopyMode = copyMode

	flags := cmd.Flags()
	if flags.Changed("quality") {
		opts.Quality = f.quality
	}
	if flags.Changed("subsampling") {
		if opts.Subsampling, err = encode.ParseSubsampling(f.subsampling); err != nil {
			return opts, err
		}
	}
	if flags.Changed("optimize") {
		opts.Optimize = f.optimize
	}
	if flags.Changed("progressive") {
		opts.Progressive = f.progressive
	}
	if flags.Changed("copy") {
		if opts.CopyMode, err = encode.ParseCopyMode(f.copyMode); err != nil {
			return opts, err
		}
	}

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}
