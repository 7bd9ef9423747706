package stegosaurus

import (
	"fmt"

	"github.com/lukechampine/stegosaurus/internal/codec"
)

// BlockSize is the number of coefficients in one 8x8 block.
const BlockSize = 64

type (
	// A Block holds the 64 quantized coefficients of one block in natural
	// (row-major) order. Index 0 is the DC coefficient.
	Block = codec.Block
	// A BlockArray holds the blocks of one component, indexed [row][col].
	BlockArray = codec.BlockArray
)

// A CoefficientProvider supplies the block array of a component.
type CoefficientProvider interface {
	ComponentCoefficients(c *Component) (BlockArray, error)
}

// A Component describes the block grid of one color component and fetches
// its coefficients lazily from a provider.
type Component struct {
	widthInBlocks     int
	heightInBlocks    int
	downsampledWidth  int
	downsampledHeight int
	index             int
	provider          CoefficientProvider
	coefs             BlockArray // nil when stale.
}

// NewComponent returns a Component with the given geometry whose
// coefficients come from p.
func NewComponent(widthInBlocks, heightInBlocks, downsampledWidth, downsampledHeight, index int, p CoefficientProvider) *Component {
	return &Component{
		widthInBlocks:     widthInBlocks,
		heightInBlocks:    heightInBlocks,
		downsampledWidth:  downsampledWidth,
		downsampledHeight: downsampledHeight,
		index:             index,
		provider:          p,
	}
}

func (c *Component) WidthInBlocks() int     { return c.widthInBlocks }
func (c *Component) HeightInBlocks() int    { return c.heightInBlocks }
func (c *Component) DownsampledWidth() int  { return c.downsampledWidth }
func (c *Component) DownsampledHeight() int { return c.downsampledHeight }
func (c *Component) Index() int             { return c.index }
func (c *Component) BlockSize() int         { return BlockSize }

// TotalCoefficients returns the number of coefficients in the component.
func (c *Component) TotalCoefficients() int {
	return c.widthInBlocks * c.heightInBlocks * BlockSize
}

// Coefficients returns the component's block array, fetching it from the
// provider if the cached copy is stale.
func (c *Component) Coefficients() (BlockArray, error) {
	if c.coefs == nil {
		coefs, err := c.provider.ComponentCoefficients(c)
		if err != nil {
			return nil, err
		}
		c.coefs = coefs
	}
	return c.coefs, nil
}

// invalidate forces the next Coefficients call to refetch.
func (c *Component) invalidate() { c.coefs = nil }

// ArrayProvider serves fixed block arrays, indexed by component index.
type ArrayProvider []BlockArray

// ComponentCoefficients implements CoefficientProvider.
func (p ArrayProvider) ComponentCoefficients(c *Component) (BlockArray, error) {
	if c.index < 0 || c.index >= len(p) {
		return nil, fmt.Errorf("stegosaurus: no coefficients for component %d", c.index)
	}
	ba := p[c.index]
	if len(ba) < c.heightInBlocks || (c.heightInBlocks > 0 && len(ba[0]) < c.widthInBlocks) {
		return nil, fmt.Errorf("stegosaurus: coefficients for component %d are smaller than %dx%d blocks", c.index, c.widthInBlocks, c.heightInBlocks)
	}
	return ba, nil
}
