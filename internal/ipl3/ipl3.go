package ipl3

import sc64 "github.com/flashcart64/sc64ctl"

// ImageOffset is the byte offset into a ROM or DDIPL image where the IPL3
// code block begins.
const ImageOffset = 0x40

// ImageLength is the size in bytes of the IPL3 code block.
const ImageLength = WordCount * 4

// Extract returns the 4032-byte IPL3 block from a full ROM or DDIPL image.
func Extract(image []byte) ([]byte, error) {
	if len(image) < ImageOffset+ImageLength {
		return nil, sc64.NewValueError("image too short to contain an IPL3 block", nil)
	}
	return image[ImageOffset : ImageOffset+ImageLength], nil
}

// Compute extracts the IPL3 block from image, guesses its seed, and returns
// the seed alongside the 48-bit checksum the console's boot ROM would
// compute for it.
func Compute(image []byte) (seed byte, checksum uint64, err error) {
	block, err := Extract(image)
	if err != nil {
		return 0, 0, err
	}
	seed = GuessSeed(block)
	checksum, err = Checksum(Words(block), seed)
	return seed, checksum, err
}
