package image

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	ModeScale rune = 's'
	ModeForce rune = 'f'

	maxDimension = 65535
)

var sre = regexp.MustCompile(`^(?P<mode>[sf])?(?P<w>\d{1,5})(?:x(?P<h>\d{1,5}))?$`)

// ParseSize reads a box written as "500x300", "s500x300" or "f500x300".
// A single number is a square box, mode s keeps the aspect ratio and f forces it.
//
//	s500    fit in 500x500
//	800x600 fit in 800x600
//	f64x64  stretch to 64x64
func ParseSize(s string) (box Size, policy Policy, err error) {
	match := sre.FindStringSubmatch(s)
	if len(match) == 0 {
		err = fmt.Errorf("%w: size %q, want WxH", ErrInvalidBox, s)
		return
	}
	m := make(map[string]string, 3)
	for i, n := range sre.SubexpNames() {
		if n != "" {
			m[n] = match[i]
		}
	}

	box.Width, _ = strconv.Atoi(m["w"])
	box.Height = box.Width
	if m["h"] != "" {
		box.Height, _ = strconv.Atoi(m["h"])
	}
	if !isValidDimension(box.Width) || !isValidDimension(box.Height) {
		err = fmt.Errorf("%w: dimensions must be between 1 and %d, got %s", ErrInvalidBox, maxDimension, box)
		return
	}
	if m["mode"] == string(ModeForce) {
		policy = Force
	}
	return
}

func isValidDimension(d int) bool {
	return d >= 1 && d <= maxDimension
}
