package model

import "math"

// TipHeight as a range end means "up to the selected tip".
const TipHeight uint64 = math.MaxUint64

// HeightRange is an inclusive window of chain heights.
type HeightRange struct {
	Start uint64
	End   uint64
}

// Locator addresses a block payload inside the block files.
// Offset points at the payload; the 8 framing bytes precede it.
type Locator struct {
	File   uint32
	Offset uint32
}
