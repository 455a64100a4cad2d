package export

// Registers the image decoders this package's image.DecodeConfig calls
// need to recognize webp/avif files.
import (
	_ "github.com/gen2brain/avif"
	_ "golang.org/x/image/webp"
)
