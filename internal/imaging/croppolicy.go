// Package imaging turns an order's photos into print-ready local files: the
// crop policy decides the target box per photo, the CDN builder derives a
// resize/crop URL, and the acquirer downloads the whole set concurrently.
package imaging

import (
	"github.com/snapkeep/printworks/config"
	"github.com/snapkeep/printworks/pkg/collection"
)

// Mode is how the CDN should fit the source image into the target box.
type Mode string

const (
	// ModePassthrough uses the source URL untouched.
	ModePassthrough Mode = "passthrough"
	// ModeCrop requests a face-aware crop to the target box.
	ModeCrop Mode = "crop"
	// ModeFill letterboxes the image into the target box over a neutral
	// background.
	ModeFill Mode = "fill"
)

// SquareProduct is the bucket photos are reclassified into when they are
// letterboxed to the square box.
const SquareProduct = "square"

// Instruction is the resize/crop decision for one photo.
type Instruction struct {
	Width  int
	Height int
	Mode   Mode

	// Product is the normalized product bucket. A photo whose target box
	// is the square box is always bucketed as square, whatever product was
	// requested. Downstream folder and billing bucketing relies on this.
	Product string
}

// Policy is the pure crop/resize rule engine.
type Policy struct {
	cfg config.Crop
}

// NewPolicy builds a Policy from configuration.
func NewPolicy(cfg config.Crop) *Policy {
	return &Policy{cfg: cfg}
}

// Plan maps source dimensions and the requested product code to a
// resize/crop instruction.
//
// Products in the square set are passed through untouched. Otherwise the
// aspect ratio decides: at or beyond the square threshold the photo is
// face-cropped to the product's native landscape or portrait box; inside
// the threshold it is letterboxed to the square box and reclassified as a
// square product.
func (p *Policy) Plan(width, height int, product string) Instruction {
	if p.isSquareProduct(product) {
		return Instruction{Mode: ModePassthrough, Product: product}
	}

	if width <= 0 || height <= 0 {
		// Unknown dimensions get the safe square treatment.
		return p.squareFill()
	}

	long, short := float64(width), float64(height)
	if height > width {
		long, short = short, long
	}

	if long/short >= p.cfg.SquareRatio {
		ins := Instruction{
			Width:   p.cfg.LandscapeWidth,
			Height:  p.cfg.LandscapeHeight,
			Mode:    ModeCrop,
			Product: product,
		}
		if height > width {
			ins.Width, ins.Height = p.cfg.LandscapeHeight, p.cfg.LandscapeWidth
		}
		return p.normalize(ins)
	}

	return p.squareFill()
}

func (p *Policy) squareFill() Instruction {
	return p.normalize(Instruction{
		Width:  p.cfg.SquareSize,
		Height: p.cfg.SquareSize,
		Mode:   ModeFill,
	})
}

// normalize applies the legacy square-reclassification rule: any instruction
// landing exactly on the square box is bucketed as a square product. This is
// intentional behaviour several downstream consumers depend on.
func (p *Policy) normalize(ins Instruction) Instruction {
	if ins.Width == p.cfg.SquareSize && ins.Height == p.cfg.SquareSize {
		ins.Product = SquareProduct
	}
	return ins
}

func (p *Policy) isSquareProduct(product string) bool {
	return collection.Contains(p.cfg.SquareProducts, func(s string) bool {
		return s == product
	})
}
