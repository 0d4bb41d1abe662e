package image

import (
	"bytes"
	"encoding/binary"
)

const (
	sigGIF  = "GIF8"
	sigJPEG = "\xff\xd8\xff"
	sigPNG  = "\211PNG\r\n\032\n"
	sigBMP  = "BM"
	sigTIFF = "II*\x00"
	sigTIFB = "MM\x00*"
)

var heifBrands = []string{"heic", "heix", "hevc", "hevx", "heim", "heis", "mif1", "msf1", "heif", "avif", "avis"}

// GuessFormat detects the container from the leading bytes of data
func GuessFormat(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, []byte(sigGIF)):
		return GIF
	case bytes.HasPrefix(data, []byte(sigJPEG)):
		return JPEG
	case bytes.HasPrefix(data, []byte(sigPNG)):
		if isAPNG(data) {
			return APNG
		}
		return PNG
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return WEBP
	case bytes.HasPrefix(data, []byte(sigTIFF)), bytes.HasPrefix(data, []byte(sigTIFB)):
		return TIFF
	case bytes.HasPrefix(data, []byte(sigBMP)):
		return BMP
	case len(data) >= 12 && string(data[4:8]) == "ftyp":
		brand := string(data[8:12])
		for _, b := range heifBrands {
			if brand == b {
				return HEIF
			}
		}
	}
	return FormatNone
}

// isAPNG looks for an acTL chunk ahead of the first IDAT
func isAPNG(data []byte) bool {
	pos := len(sigPNG)
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		typ := string(data[pos+4 : pos+8])
		switch typ {
		case "acTL":
			return true
		case "IDAT", "IEND":
			return false
		}
		pos += 12 + length
	}
	return false
}
