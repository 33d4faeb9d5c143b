package imaging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/snapkeep/printworks/config"
	"github.com/snapkeep/printworks/internal/imaging"
)

func testCropConfig() config.Crop {
	return config.Crop{
		SquareRatio:     1.25,
		LandscapeWidth:  1800,
		LandscapeHeight: 1200,
		SquareSize:      1200,
		FillColor:       "fff",
		ImgixHost:       "proxy.imgix.net",
		SquareProducts:  []string{"square", "squ"},
	}
}

func TestPlanLandscapeCrop(t *testing.T) {
	p := imaging.NewPolicy(testCropConfig())

	ins := p.Plan(3000, 2000, "print")
	assert.Equal(t, imaging.ModeCrop, ins.Mode)
	assert.Equal(t, 1800, ins.Width)
	assert.Equal(t, 1200, ins.Height)
	assert.Equal(t, "print", ins.Product)

	// A source already at the box size still gets the face crop request.
	ins = p.Plan(1800, 1200, "print")
	assert.Equal(t, imaging.ModeCrop, ins.Mode)
	assert.Equal(t, 1800, ins.Width)
	assert.Equal(t, 1200, ins.Height)
}

func TestPlanPortraitSwapsBox(t *testing.T) {
	p := imaging.NewPolicy(testCropConfig())

	ins := p.Plan(2000, 3000, "print")
	assert.Equal(t, imaging.ModeCrop, ins.Mode)
	assert.Equal(t, 1200, ins.Width)
	assert.Equal(t, 1800, ins.Height)
	assert.Equal(t, "print", ins.Product)
}

func TestPlanNearSquareIsLetterboxedAndReclassified(t *testing.T) {
	p := imaging.NewPolicy(testCropConfig())

	// 1200x1100 is inside the 1.25 ratio threshold.
	ins := p.Plan(1200, 1100, "print")
	assert.Equal(t, imaging.ModeFill, ins.Mode)
	assert.Equal(t, 1200, ins.Width)
	assert.Equal(t, 1200, ins.Height)
	assert.Equal(t, imaging.SquareProduct, ins.Product)
}

func TestPlanRatioBoundary(t *testing.T) {
	p := imaging.NewPolicy(testCropConfig())

	// Exactly at the threshold crops; just inside letterboxes.
	assert.Equal(t, imaging.ModeCrop, p.Plan(1250, 1000, "print").Mode)
	assert.Equal(t, imaging.ModeFill, p.Plan(1249, 1000, "print").Mode)
}

func TestPlanSquareProductPassesThrough(t *testing.T) {
	p := imaging.NewPolicy(testCropConfig())

	for _, product := range []string{"square", "squ"} {
		ins := p.Plan(3000, 2000, product)
		assert.Equal(t, imaging.ModePassthrough, ins.Mode)
		assert.Equal(t, product, ins.Product)
	}
}

func TestPlanUnknownDimensions(t *testing.T) {
	p := imaging.NewPolicy(testCropConfig())

	ins := p.Plan(0, 0, "print")
	assert.Equal(t, imaging.ModeFill, ins.Mode)
	assert.Equal(t, imaging.SquareProduct, ins.Product)
}
