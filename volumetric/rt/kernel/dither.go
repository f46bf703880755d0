package kernel

// DitherValues is the 4x4 start offset pattern, row-major.
var DitherValues = [16]float32{
	0.0, 0.5, 0.125, 0.625,
	0.75, 0.22, 0.875, 0.375,
	0.1875, 0.6875, 0.0625, 0.5625,
	0.9375, 0.4375, 0.8125, 0.3125,
}

// DitherMatrix is indexed [x mod 4][y mod 4], so DitherMatrix[i][j] = DitherValues[4i+j].
var DitherMatrix = [4][4]float32{
	{DitherValues[0], DitherValues[1], DitherValues[2], DitherValues[3]},
	{DitherValues[4], DitherValues[5], DitherValues[6], DitherValues[7]},
	{DitherValues[8], DitherValues[9], DitherValues[10], DitherValues[11]},
	{DitherValues[12], DitherValues[13], DitherValues[14], DitherValues[15]},
}

func Dither(px, py int) float32 {
	return DitherMatrix[mod4(px)][mod4(py)]
}

// DitherOffset is the march start for pixel (px, py). It always lies in [0, step).
func DitherOffset(px, py int, step float32) float32 {
	return step * Dither(px, py)
}

func mod4(v int) int {
	return ((v % 4) + 4) % 4
}
