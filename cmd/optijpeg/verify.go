package main

import (
	"fmt"
	"strings"

	"optijpeg/internal/encode"
	"optijpeg/internal/inspect"
)

// verifyOutput walks the optimized bitstream and confirms it matches what the
// options asked for: a terminated stream, the requested coding mode, and no
// metadata segments when the copy policy strips them.
func verifyOutput(path string, opts encode.Options) error {
	report, err := inspect.File(path)
	if err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	if !report.HasEOI {
		return fmt.Errorf("verify %s: bitstream is not terminated by EOI", path)
	}
	wantMode := "baseline"
	if opts.Progressive {
		wantMode = "progressive"
	}
	if mode := report.CodingMode(); mode != wantMode {
		return fmt.Errorf("verify %s: expected %s coding, found %s", path, wantMode, mode)
	}
	if opts.CopyMode == encode.CopyNone {
		if report.Comments > 0 {
			return fmt.Errorf("verify %s: expected comments stripped, found %d COM segments", path, report.Comments)
		}
		for _, seg := range report.Segments {
			// jpegtran regenerates the structural JFIF and Adobe headers
			// under -copy none; any other APP segment is carried metadata.
			if strings.HasPrefix(seg.Name, "APP") && seg.Name != "APP0" && seg.Name != "APP14" {
				return fmt.Errorf("verify %s: expected metadata stripped, found %s segment", path, seg.Name)
			}
		}
	}
	return nil
}
