package inspect

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotJPEG reports that the input does not begin with a JPEG SOI marker.
var ErrNotJPEG = errors.New("not a JPEG bitstream")

const (
	markerSOI = 0xD8
	markerEOI = 0xD9
	markerSOS = 0xDA
	markerDHT = 0xC4
	markerJPG = 0xC8
	markerDAC = 0xCC
	markerCOM = 0xFE
	markerTEM = 0x01
)

// Segment is one marker segment observed in the bitstream.
type Segment struct {
	Marker byte
	Name   string
	Offset int64
	Size   int64
}

// Report summarizes the structure of a JPEG bitstream up to the scan data.
type Report struct {
	FileSize      int64
	Width         int
	Height        int
	Components    int
	Progressive   bool
	SOFMarker     byte
	Segments      []Segment
	AppSegments   int
	Comments      int
	MetadataBytes int64
	HasEOI        bool
}

// CodingMode names the entropy coding layout declared by the frame header.
func (r *Report) CodingMode() string {
	switch r.SOFMarker {
	case 0:
		return "unknown"
	case 0xC2:
		return "progressive"
	default:
		return "baseline"
	}
}

// File inspects the JPEG at path.
func File(path string) (*Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	report, err := Read(file)
	if err != nil {
		return nil, err
	}
	if info, statErr := file.Stat(); statErr == nil {
		report.FileSize = info.Size()
	}
	return report, nil
}

// Read walks the marker segments of the JPEG bitstream in r. The walk stops
// at the start-of-scan marker; the remaining entropy-coded data is only
// checked for a trailing end-of-image marker.
func Read(r io.Reader) (*Report, error) {
	br := bufio.NewReader(r)
	report := &Report{}

	var signature [2]byte
	if _, err := io.ReadFull(br, signature[:]); err != nil {
		return nil, ErrNotJPEG
	}
	if signature[0] != 0xFF || signature[1] != markerSOI {
		return nil, ErrNotJPEG
	}
	offset := int64(2)
	report.Segments = append(report.Segments, Segment{Marker: markerSOI, Name: markerName(markerSOI), Offset: 0, Size: 2})

	for {
		marker, err := readMarker(br)
		if err != nil {
			return nil, fmt.Errorf("read marker at offset %d: %w", offset, err)
		}
		segmentOffset := offset
		offset += 2

		if standalone(marker) {
			report.Segments = append(report.Segments, Segment{Marker: marker, Name: markerName(marker), Offset: segmentOffset, Size: 2})
			if marker == markerEOI {
				report.HasEOI = true
				return report, nil
			}
			continue
		}

		length, err := readLength(br)
		if err != nil {
			return nil, fmt.Errorf("read %s length at offset %d: %w", markerName(marker), segmentOffset, err)
		}
		if length < 2 {
			return nil, fmt.Errorf("invalid %s length %d at offset %d", markerName(marker), length, segmentOffset)
		}
		payload := length - 2
		offset += int64(length)

		segment := Segment{Marker: marker, Name: markerName(marker), Offset: segmentOffset, Size: int64(length) + 2}
		report.Segments = append(report.Segments, segment)

		switch {
		case marker == markerSOS:
			// Scan header parsed as a normal segment; everything after it is
			// entropy-coded data, so only look for the closing EOI.
			if err := discard(br, payload); err != nil {
				return nil, fmt.Errorf("read scan header: %w", err)
			}
			report.HasEOI = tailHasEOI(br)
			return report, nil
		case isSOF(marker):
			header := make([]byte, payload)
			if _, err := io.ReadFull(br, header); err != nil {
				return nil, fmt.Errorf("read frame header: %w", err)
			}
			if len(header) < 6 {
				return nil, fmt.Errorf("frame header too short (%d bytes)", len(header))
			}
			report.SOFMarker = marker
			report.Progressive = marker == 0xC2
			report.Height = int(header[1])<<8 | int(header[2])
			report.Width = int(header[3])<<8 | int(header[4])
			report.Components = int(header[5])
		case marker >= 0xE0 && marker <= 0xEF:
			report.AppSegments++
			report.MetadataBytes += int64(payload)
			if err := discard(br, payload); err != nil {
				return nil, fmt.Errorf("read %s payload: %w", markerName(marker), err)
			}
		case marker == markerCOM:
			report.Comments++
			report.MetadataBytes += int64(payload)
			if err := discard(br, payload); err != nil {
				return nil, fmt.Errorf("read comment payload: %w", err)
			}
		default:
			if err := discard(br, payload); err != nil {
				return nil, fmt.Errorf("read %s payload: %w", markerName(marker), err)
			}
		}
	}
}

// readMarker consumes the next 0xFF-prefixed marker, skipping fill bytes.
func readMarker(br *bufio.Reader) (byte, error) {
	prefix, err := br.ReadByte()
	if err != nil {
		return 0, err
	}
	if prefix != 0xFF {
		return 0, fmt.Errorf("expected marker prefix 0xFF, found 0x%02X", prefix)
	}
	for {
		marker, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if marker == 0xFF {
			continue
		}
		// Stuffed zero bytes only occur inside entropy-coded data, which
		// the walk never enters.
		if marker == 0x00 {
			return 0, errors.New("stuffed byte outside scan data")
		}
		return marker, nil
	}
}

func readLength(br *bufio.Reader) (int, error) {
	var raw [2]byte
	if _, err := io.ReadFull(br, raw[:]); err != nil {
		return 0, err
	}
	return int(raw[0])<<8 | int(raw[1]), nil
}

func discard(br *bufio.Reader, n int) error {
	discarded, err := br.Discard(n)
	if err != nil {
		return err
	}
	if discarded != n {
		return io.ErrUnexpectedEOF
	}
	return nil
}

// tailHasEOI drains the entropy-coded data and reports whether an EOI marker
// appears in the trailing bytes.
func tailHasEOI(br *bufio.Reader) bool {
	rest, err := io.ReadAll(br)
	if err != nil {
		return false
	}
	return bytes.LastIndex(rest, []byte{0xFF, markerEOI}) >= 0
}

func standalone(marker byte) bool {
	if marker == markerSOI || marker == markerEOI || marker == markerTEM {
		return true
	}
	return marker >= 0xD0 && marker <= 0xD7
}

func isSOF(marker byte) bool {
	if marker < 0xC0 || marker > 0xCF {
		return false
	}
	return marker != markerDHT && marker != markerJPG && marker != markerDAC
}

func markerName(marker byte) string {
	switch {
	case marker == markerSOI:
		return "SOI"
	case marker == markerEOI:
		return "EOI"
	case marker == markerSOS:
		return "SOS"
	case marker == 0xDB:
		return "DQT"
	case marker == markerDHT:
		return "DHT"
	case marker == 0xDD:
		return "DRI"
	case marker == markerCOM:
		return "COM"
	case marker == markerJPG:
		return "JPG"
	case marker == markerDAC:
		return "DAC"
	case marker >= 0xE0 && marker <= 0xEF:
		return fmt.Sprintf("APP%d", marker-0xE0)
	case marker >= 0xC0 && marker <= 0xCF:
		return fmt.Sprintf("SOF%d", marker-0xC0)
	case marker >= 0xD0 && marker <= 0xD7:
		return fmt.Sprintf("RST%d", marker-0xD0)
	default:
		return fmt.Sprintf("0xFF%02X", marker)
	}
}
