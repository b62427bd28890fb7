package gfxutils

const (
	// RemainingMipLevels indicates that an image transition should cover every mip
	// level from the base level to the last level in the image
	RemainingMipLevels int = -1
	// RemainingArrayLayers indicates that an image transition should cover every
	// array layer from the base layer to the last layer in the image
	RemainingArrayLayers int = -1
	// WholeSize indicates that a buffer operation should cover the full buffer
	// from the provided offset
	WholeSize int = -1
)

// DwordCount converts a byte size into the number of 32-bit words needed to hold
// it, rounding up. Push constant limits are expressed in words.
func DwordCount(byteSize int) int {
	return (byteSize + 3) / 4
}
