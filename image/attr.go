package image

import (
	"time"
)

type Dimension uint32
type Size64 int64

// Attr describes a decoded image, see cmd probe
type Attr struct {
	Width  Dimension `json:"width"`
	Height Dimension `json:"height"`
	Frames int       `json:"frames"`
	Format Format    `json:"format"`
	Mime   string    `json:"mime,omitempty"`
	Ext    string    `json:"ext,omitempty"`
	Size   Size64    `json:"size,omitempty"`
	Name   string    `json:"name,omitempty"`
	Hash   string    `json:"hash,omitempty"`
	Loop   int       `json:"loop,omitempty"`
	// Delays are in milliseconds, empty for still images
	Delays []int64 `json:"delays,omitempty"`
}

func (a Attr) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"width":  a.Width,
		"height": a.Height,
		"frames": a.Frames,
		"format": a.Format.String(),
		"mime":   a.Mime,
	}
	if a.Ext != "" {
		m["ext"] = a.Ext
	}
	if a.Size > 0 {
		m["size"] = a.Size
	}
	return m
}

// NewAttr ...
func NewAttr(w, h uint, f Format) *Attr {
	return &Attr{
		Width:  Dimension(w),
		Height: Dimension(h),
		Format: f,
		Mime:   f.Mime(),
		Ext:    f.Ext(),
	}
}

func delaysMillis(frames []Frame) []int64 {
	if len(frames) < 2 {
		return nil
	}
	out := make([]int64, len(frames))
	for i, f := range frames {
		out[i] = int64(f.Delay / time.Millisecond)
	}
	return out
}
