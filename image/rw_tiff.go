package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

const (
	tiffStripOffsets = 273
	tiffEntryLen     = 12
)

var errTIFFHeader = errors.New("tiff: bad header")

// tiff field sizes by data type, types missing here never point outside their entry
var tiffTypeLen = map[uint16]uint32{1: 1, 2: 1, 3: 2, 4: 4, 5: 8, 6: 1, 7: 1, 8: 2, 9: 4, 10: 8, 11: 4, 12: 8}

func tiffByteOrder(data []byte) (binary.ByteOrder, error) {
	if len(data) < 8 {
		return nil, errTIFFHeader
	}
	switch string(data[0:4]) {
	case "II*\x00":
		return binary.LittleEndian, nil
	case "MM\x00*":
		return binary.BigEndian, nil
	}
	return nil, errTIFFHeader
}

// tiffPages follows the IFD chain and returns the offset of every page
func tiffPages(data []byte) ([]uint32, error) {
	bo, err := tiffByteOrder(data)
	if err != nil {
		return nil, err
	}
	var pages []uint32
	seen := make(map[uint32]bool)
	off := bo.Uint32(data[4:8])
	for off != 0 && !seen[off] && int64(off)+2 <= int64(len(data)) {
		seen[off] = true
		pages = append(pages, off)
		next := int64(off) + 2 + tiffEntryLen*int64(bo.Uint16(data[off:]))
		if next+4 > int64(len(data)) {
			break
		}
		off = bo.Uint32(data[next:])
	}
	if len(pages) == 0 {
		return nil, errTIFFHeader
	}
	return pages, nil
}

// decodeTIFF reads every page, pages are laid on the canvas of the first one
func decodeTIFF(data []byte) (*Handle, error) {
	pages, err := tiffPages(data)
	if err != nil {
		return nil, err
	}
	bo, _ := tiffByteOrder(data)

	var h *Handle
	page := make([]byte, len(data))
	for i, off := range pages {
		// x/image/tiff reads the first IFD only, so point the header at page i
		copy(page, data)
		bo.PutUint32(page[4:8], off)
		m, err := tiff.Decode(bytes.NewReader(page))
		if err != nil {
			return nil, err
		}
		if i == 0 {
			h = stillHandle(TIFF, m)
			continue
		}
		h.Frames = append(h.Frames, Frame{Image: fitCanvas(m, h.Canvas), Delay: DefaultDelay})
	}
	return h, nil
}

// encodeTIFF writes one page per frame, chaining the IFDs of single page encodings
func encodeTIFF(w io.Writer, frames []Frame) error {
	var out []byte
	var lastNext int
	for i, f := range frames {
		var buf bytes.Buffer
		if err := tiff.Encode(&buf, f.Image, &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
			return err
		}
		page := buf.Bytes()
		if i == 0 {
			out = page
			next, err := tiffNextField(out, binary.LittleEndian.Uint32(out[4:8]))
			if err != nil {
				return err
			}
			lastNext = next
			continue
		}

		if len(out)%2 == 1 {
			out = append(out, 0)
		}
		delta := uint32(len(out) - 8)
		ifd := binary.LittleEndian.Uint32(page[4:8])
		body := page[8:]
		if err := relocateIFD(body, ifd-8, delta); err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(out[lastNext:], ifd+delta)
		next, err := tiffNextField(body, ifd-8)
		if err != nil {
			return err
		}
		lastNext = len(out) + next
		out = append(out, body...)
	}
	_, err := w.Write(out)
	return err
}

// tiffNextField returns the position of the next-IFD pointer of the little endian IFD at off
func tiffNextField(b []byte, off uint32) (int, error) {
	if int64(off)+2 > int64(len(b)) {
		return 0, errTIFFHeader
	}
	next := int(off) + 2 + tiffEntryLen*int(binary.LittleEndian.Uint16(b[off:]))
	if next+4 > len(b) {
		return 0, errTIFFHeader
	}
	return next, nil
}

// relocateIFD shifts every file offset held by the little endian IFD at off by delta
func relocateIFD(b []byte, off, delta uint32) error {
	next, err := tiffNextField(b, off)
	if err != nil {
		return err
	}
	for p := int(off) + 2; p < next; p += tiffEntryLen {
		e := b[p : p+tiffEntryLen]
		tag := binary.LittleEndian.Uint16(e[0:2])
		size := tiffTypeLen[binary.LittleEndian.Uint16(e[2:4])] * binary.LittleEndian.Uint32(e[4:8])
		if tag == tiffStripOffsets || size > 4 {
			binary.LittleEndian.PutUint32(e[8:12], binary.LittleEndian.Uint32(e[8:12])+delta)
		}
	}
	return nil
}

func decodeBMP(data []byte) (*Handle, error) {
	m, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return stillHandle(BMP, m), nil
}

func encodeBMP(w io.Writer, m image.Image) error {
	return bmp.Encode(w, m)
}
