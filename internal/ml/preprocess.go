package ml

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/nfnt/resize"
)

// InputSize is the square resolution both EfficientNet-B0 models were
// trained on.
const InputSize = 224

// ErrUndecodable marks a corrupt or truncated image. It is an internal
// processing failure, not an input validation failure.
var ErrUndecodable = errors.New("image could not be decoded")

// Input is a preprocessed image ready for inference: a batched NHWC tensor
// of shape (1, 224, 224, 3) plus the original dimensions for audit
// metadata.
type Input struct {
	Data           []float32
	OriginalWidth  int
	OriginalHeight int
}

// Preprocess decodes, resizes and converts an image to the tensor layout
// the models expect. The models embed a rescaling layer, so pixel values
// stay in the raw 0-255 range; changing this silently degrades accuracy.
func Preprocess(data []byte) (*Input, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	bounds := img.Bounds()
	originalWidth := bounds.Dx()
	originalHeight := bounds.Dy()

	resized := resize.Resize(InputSize, InputSize, img, resize.Lanczos3)

	tensor := make([]float32, InputSize*InputSize*3)
	idx := 0
	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			tensor[idx] = float32(r >> 8)
			tensor[idx+1] = float32(g >> 8)
			tensor[idx+2] = float32(b >> 8)
			idx += 3
		}
	}

	return &Input{
		Data:           tensor,
		OriginalWidth:  originalWidth,
		OriginalHeight: originalHeight,
	}, nil
}
