package extract

import (
	"encoding/binary"
	"os"
	"time"
)

// PreferIntrinsicDate returns intrinsic when it is non-zero, else falls
// back to the filesystem's modification time. The scan orchestrator applies
// it to every extraction result, so file_modified_at consistently prefers
// embedded metadata over fs mtime.
func PreferIntrinsicDate(intrinsic time.Time, path string) time.Time {
	if !intrinsic.IsZero() {
		return intrinsic
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime().UTC()
}

// exifDateTimeOriginal tags, tried in this order per §4.2.
const (
	exifTagDateTimeOriginal  = 0x9003
	exifTagDateTimeDigitized = 0x9004
	exifTagDateTime          = 0x0132
)

// exifIntrinsicDate extracts DateTimeOriginal → DateTimeDigitized →
// DateTime from a JPEG's APP1/Exif segment. It is a minimal hand-rolled
// TIFF tag scan (no third-party EXIF library exists anywhere in the
// retrieved example pack) covering only the three date tags Archon needs.
func exifIntrinsicDate(raw []byte) time.Time {
	app1 := findJPEGApp1Exif(raw)
	if app1 == nil {
		return time.Time{}
	}

	byteOrder, ifdOffset, ok := tiffHeader(app1)
	if !ok {
		return time.Time{}
	}

	tags := readIFDDateTags(app1, byteOrder, ifdOffset)
	for _, tag := range []int{exifTagDateTimeOriginal, exifTagDateTimeDigitized, exifTagDateTime} {
		if s, ok := tags[tag]; ok {
			if t, ok := parseEXIFDate(s); ok {
				return t
			}
		}
	}
	return time.Time{}
}

func findJPEGApp1Exif(raw []byte) []byte {
	if len(raw) < 4 || raw[0] != 0xFF || raw[1] != 0xD8 {
		return nil
	}
	pos := 2
	for pos+4 <= len(raw) {
		if raw[pos] != 0xFF {
			break
		}
		marker := raw[pos+1]
		if marker == 0xD8 || marker == 0xD9 {
			pos += 2
			continue
		}
		segLen := int(binary.BigEndian.Uint16(raw[pos+2 : pos+4]))
		segStart := pos + 4
		segEnd := pos + 2 + segLen
		if segEnd > len(raw) {
			return nil
		}
		if marker == 0xE1 && segEnd-segStart >= 6 && string(raw[segStart:segStart+6]) == "Exif\x00\x00" {
			return raw[segStart+6 : segEnd]
		}
		if marker == 0xDA { // start of scan: no more metadata segments follow
			return nil
		}
		pos = segEnd
	}
	return nil
}

func tiffHeader(tiff []byte) (binary.ByteOrder, uint32, bool) {
	if len(tiff) < 8 {
		return nil, 0, false
	}
	var order binary.ByteOrder
	switch string(tiff[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, 0, false
	}
	return order, order.Uint32(tiff[4:8]), true
}

// readIFDDateTags walks one IFD and any Exif sub-IFD it references,
// returning the ASCII string value of any tag this package cares about.
func readIFDDateTags(tiff []byte, order binary.ByteOrder, ifdOffset uint32) map[int]string {
	out := make(map[int]string)
	if ifdOffset == 0 || int(ifdOffset)+2 > len(tiff) {
		return out
	}

	count := int(order.Uint16(tiff[ifdOffset : ifdOffset+2]))
	entryStart := int(ifdOffset) + 2
	const exifSubIFDTag = 0x8769

	var subIFDOffset uint32
	for i := 0; i < count; i++ {
		off := entryStart + i*12
		if off+12 > len(tiff) {
			break
		}
		tag := int(order.Uint16(tiff[off : off+2]))
		typ := order.Uint16(tiff[off+2 : off+4])
		valOffset := order.Uint32(tiff[off+8 : off+12])

		if tag == exifSubIFDTag {
			subIFDOffset = valOffset
			continue
		}
		if typ != 2 { // ASCII
			continue
		}
		switch tag {
		case exifTagDateTimeOriginal, exifTagDateTimeDigitized, exifTagDateTime:
			if s, ok := readASCIIValue(tiff, order, off); ok {
				out[tag] = s
			}
		}
	}

	if subIFDOffset != 0 {
		for k, v := range readIFDDateTags(tiff, order, subIFDOffset) {
			out[k] = v
		}
	}
	return out
}

func readASCIIValue(tiff []byte, order binary.ByteOrder, entryOff int) (string, bool) {
	count := order.Uint32(tiff[entryOff+4 : entryOff+8])
	// EXIF datetime strings are always 20 bytes ("YYYY:MM:DD HH:MM:SS\0"),
	// which never fits inline, so the value is always an offset.
	if count == 0 || count > 64 {
		return "", false
	}
	offset := order.Uint32(tiff[entryOff+8 : entryOff+12])
	start := int(offset)
	end := start + int(count)
	if start < 0 || end > len(tiff) {
		return "", false
	}
	s := string(tiff[start:end])
	for i, r := range s {
		if r == 0 {
			s = s[:i]
			break
		}
	}
	return s, true
}

func parseEXIFDate(s string) (time.Time, bool) {
	t, err := time.Parse("2006:01:02 15:04:05", s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
