package encode_test

import (
	"image"
	"testing"

	"optijpeg/internal/encode"
)

func TestParseSubsampling(t *testing.T) {
	cases := []struct {
		input   string
		want    encode.Subsampling
		wantErr bool
	}{
		{input: "444", want: encode.Subsampling444},
		{input: "440", want: encode.Subsampling440},
		{input: "422", want: encode.Subsampling422},
		{input: "420", want: encode.Subsampling420},
		{input: " 420 ", want: encode.Subsampling420},
		{input: "411", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := encode.ParseSubsampling(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSubsampling(%q) returned error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Fatalf("ParseSubsampling(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestSubsamplingRatio(t *testing.T) {
	cases := map[encode.Subsampling]image.YCbCrSubsampleRatio{
		encode.Subsampling444: image.YCbCrSubsampleRatio444,
		encode.Subsampling440: image.YCbCrSubsampleRatio440,
		encode.Subsampling422: image.YCbCrSubsampleRatio422,
		encode.Subsampling420: image.YCbCrSubsampleRatio420,
	}
	for setting, want := range cases {
		if got := setting.Ratio(); got != want {
			t.Fatalf("%v.Ratio() = %v, want %v", setting, got, want)
		}
	}
}

func TestParseCopyMode(t *testing.T) {
	cases := []struct {
		input   string
		want    encode.CopyMode
		wantErr bool
	}{
		{input: "none", want: encode.CopyNone},
		{input: "comments", want: encode.CopyComments},
		{input: "all", want: encode.CopyAll},
		{input: "ALL", want: encode.CopyAll},
		{input: " Comments ", want: encode.CopyComments},
		{input: "everything", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := encode.ParseCopyMode(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCopyMode(%q) returned error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Fatalf("ParseCopyMode(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestCopyModeString(t *testing.T) {
	if encode.CopyNone.String() != "none" {
		t.Fatalf("unexpected CopyNone label: %q", encode.CopyNone.String())
	}
	if encode.CopyComments.String() != "comments" {
		t.Fatalf("unexpected CopyComments label: %q", encode.CopyComments.String())
	}
	if encode.CopyAll.String() != "all" {
		t.Fatalf("unexpected CopyAll label: %q", encode.CopyAll.String())
	}
}

func TestOptionsValidate(t *testing.T) {
	valid := encode.Options{Quality: 95, Subsampling: encode.Subsampling420, Optimize: true, CopyMode: encode.CopyComments}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid options, got %v", err)
	}

	zero := encode.Options{}
	if err := zero.Validate(); err != nil {
		t.Fatalf("expected zero options to validate, got %v", err)
	}

	bad := valid
	bad.Quality = -1
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for negative quality")
	}

	bad = valid
	bad.Quality = 101
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for quality above 100")
	}

	bad = valid
	bad.Subsampling = encode.Subsampling(9)
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for unknown subsampling")
	}

	bad = valid
	bad.CopyMode = encode.CopyMode(9)
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for unknown copy mode")
	}
}
