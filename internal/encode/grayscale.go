package encode

import "image"

// IsGrayscale reports whether every pixel of img has equal red, green, and
// blue components. Alpha is ignored. The scan stops at the first mismatch.
func IsGrayscale(img image.Image) bool {
	switch src := img.(type) {
	case *image.Gray, *image.Gray16:
		return true
	case *image.RGBA:
		return pixIsGrayscale(src.Pix, src.Stride, src.Rect)
	case *image.NRGBA:
		return pixIsGrayscale(src.Pix, src.Stride, src.Rect)
	}

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r != g || g != b {
				return false
			}
		}
	}
	return true
}

// pixIsGrayscale walks 4-byte RGBA/NRGBA pixel rows directly. Rows are
// re-sliced per scanline so a short final row cannot be overread.
func pixIsGrayscale(pix []uint8, stride int, rect image.Rectangle) bool {
	rowLen := rect.Dx() * 4
	for y := 0; y < rect.Dy(); y++ {
		row := pix[y*stride : y*stride+rowLen]
		for x := 0; x < rowLen; x += 4 {
			if row[x] != row[x+1] || row[x+1] != row[x+2] {
				return false
			}
		}
	}
	return true
}
