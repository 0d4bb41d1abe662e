package image

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		native Size
		box    Size
		policy Policy
		want   Size
	}{
		{Size{1200, 800}, Size{500, 500}, Preserve, Size{500, 333}},
		{Size{1200, 800}, Size{500, 500}, Force, Size{500, 500}},
		{Size{800, 1200}, Size{500, 500}, Preserve, Size{333, 500}},
		{Size{1200, 800}, Size{}, Preserve, Size{1200, 800}},
		{Size{1200, 800}, Size{}, Force, Size{1200, 800}},
		{Size{100, 50}, Size{400, 400}, Preserve, Size{400, 200}},
		{Size{1000, 1}, Size{10, 10}, Preserve, Size{10, 1}},
		{Size{1, 1}, Size{3, 7}, Preserve, Size{3, 3}},
		{Size{640, 480}, Size{640, 480}, Preserve, Size{640, 480}},
	}
	for _, tt := range tests {
		got, err := Plan(tt.native, tt.box, tt.policy)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s in %s %s", tt.native, tt.box, tt.policy)
	}
}

func TestPlanErrors(t *testing.T) {
	_, err := Plan(Size{0, 10}, Size{}, Preserve)
	assert.True(t, errors.Is(err, ErrInvalidImage))
	_, err = Plan(Size{10, -1}, Size{5, 5}, Force)
	assert.True(t, errors.Is(err, ErrInvalidImage))

	_, err = Plan(Size{10, 10}, Size{Width: 5}, Preserve)
	assert.True(t, errors.Is(err, ErrInvalidBox))
	_, err = Plan(Size{10, 10}, Size{Height: 5}, Force)
	assert.True(t, errors.Is(err, ErrInvalidBox))
	_, err = Plan(Size{10, 10}, Size{-5, 5}, Preserve)
	assert.True(t, errors.Is(err, ErrInvalidBox))
}

func TestPlanPreserveProperties(t *testing.T) {
	natives := []Size{{1200, 800}, {800, 1200}, {1, 1}, {3, 1000}, {4000, 3000}, {17, 33}, {999, 1}}
	boxes := []Size{{500, 500}, {1, 1}, {100, 20}, {20, 100}, {3000, 3000}, {7, 13}}
	for _, n := range natives {
		for _, b := range boxes {
			got, err := Plan(n, b, Preserve)
			assert.NoError(t, err)
			assert.GreaterOrEqual(t, got.Width, 1)
			assert.GreaterOrEqual(t, got.Height, 1)
			assert.LessOrEqual(t, got.Width, max(b.Width, 1), "%s in %s", n, b)
			assert.LessOrEqual(t, got.Height, max(b.Height, 1), "%s in %s", n, b)

			// each side stays within half a pixel of the exact scale, unless clamped to 1
			scale := math.Min(float64(b.Width)/float64(n.Width), float64(b.Height)/float64(n.Height))
			for _, p := range [][2]int{{got.Width, n.Width}, {got.Height, n.Height}} {
				ideal := float64(p[1]) * scale
				if p[0] == 1 && ideal < 1 {
					continue
				}
				assert.InDelta(t, ideal, float64(p[0]), 0.5, "%s in %s", n, b)
			}

			again, err := Plan(got, b, Preserve)
			assert.NoError(t, err)
			assert.Equal(t, got, again, "%s in %s is not stable", n, b)
		}
	}
}

func TestSizeString(t *testing.T) {
	assert.Equal(t, "500x333", Size{500, 333}.String())
	assert.True(t, Size{}.IsZero())
	assert.False(t, Size{Width: 1}.IsZero())
	assert.Equal(t, "force", Force.String())
	assert.Equal(t, "preserve", Preserve.String())
}
