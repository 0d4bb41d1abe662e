package image

// CountWriter ...
type CountWriter struct {
	n int64
}

// Write implements for io.Writer
func (cw *CountWriter) Write(p []byte) (n int, err error) {
	n = len(p)
	cw.n += int64(n)
	return
}

// Len return count value
func (cw *CountWriter) Len() int64 {
	return cw.n
}
