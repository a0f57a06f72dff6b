package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"optijpeg/internal/inspect"
	"optijpeg/internal/logging"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var showSegments bool

	cmd := &cobra.Command{
		Use:   "inspect <file>...",
		Short: "Report JPEG bitstream structure without decoding pixels",
		Long: `Inspect walks the marker segments of each JPEG and reports its coding
mode, component count, metadata footprint, and whether the bitstream is
properly terminated. No configuration is needed and nothing is decoded.`,
		Args: cobra.MinimumNArgs(1),
		Annotations: map[string]string{
			"skipConfigLoad": "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := expandInputs(args)
			if err != nil {
				return err
			}

			type entry struct {
				path   string
				report *inspect.Report
			}
			entries := make([]entry, 0, len(inputs))
			for _, input := range inputs {
				report, err := inspect.File(input)
				if err != nil {
					return fmt.Errorf("inspect %s: %w", input, err)
				}
				entries = append(entries, entry{path: input, report: report})
			}

			if ctx.JSONMode() {
				files := make([]map[string]any, 0, len(entries))
				for _, item := range entries {
					files = append(files, inspectReportJSON(item.path, item.report))
				}
				return writeJSON(cmd, map[string]any{"files": files})
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(entries))
			for _, item := range entries {
				report := item.report
				rows = append(rows, []string{
					filepath.Base(item.path),
					logging.FormatBytes(report.FileSize),
					fmt.Sprintf("%dx%d", report.Width, report.Height),
					report.CodingMode(),
					fmt.Sprintf("%d", report.Components),
					fmt.Sprintf("%d", report.AppSegments),
					fmt.Sprintf("%d", report.Comments),
					logging.FormatBytes(report.MetadataBytes),
					yesNo(report.HasEOI),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"File", "Size", "Dimensions", "Mode", "Comp", "APP", "COM", "Metadata", "EOI"},
				rows, 1, 4, 5, 6, 7,
			))

			if showSegments {
				colorize := shouldColorize(out)
				for _, item := range entries {
					fmt.Fprintln(out)
					for _, line := range renderSectionHeader(filepath.Base(item.path), colorize) {
						fmt.Fprintln(out, line)
					}
					segRows := make([][]string, 0, len(item.report.Segments))
					for i, segment := range item.report.Segments {
						segRows = append(segRows, []string{
							fmt.Sprintf("%d", i+1),
							fmt.Sprintf("0xFF%02X", segment.Marker),
							segment.Name,
							fmt.Sprintf("%d", segment.Offset),
							logging.FormatBytes(segment.Size),
						})
					}
					fmt.Fprintln(out, renderTable([]string{"#", "Marker", "Name", "Offset", "Size"}, segRows, 0, 3, 4))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSegments, "segments", false, "List every marker segment per file")

	return cmd
}

func inspectReportJSON(path string, report *inspect.Report) map[string]any {
	segments := make([]map[string]any, 0, len(report.Segments))
	for _, segment := range report.Segments {
		segments = append(segments, map[string]any{
			"marker": fmt.Sprintf("0xFF%02X", segment.Marker),
			"name":   segment.Name,
			"offset": segment.Offset,
			"size":   segment.Size,
		})
	}
	return map[string]any{
		"path":           path,
		"file_size":      report.FileSize,
		"width":          report.Width,
		"height":         report.Height,
		"components":     report.Components,
		"coding_mode":    report.CodingMode(),
		"app_segments":   report.AppSegments,
		"comments":       report.Comments,
		"metadata_bytes": report.MetadataBytes,
		"has_eoi":        report.HasEOI,
		"segments":       segments,
	}
}
