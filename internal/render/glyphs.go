package render

import (
	"image"
	"image/color"
)

// glyphs holds 3x5 pixel patterns for the handle label characters.
// Each glyph is 5 rows of 3 bits.
var glyphs = map[rune][5]uint8{
	'L': {0b100, 0b100, 0b100, 0b100, 0b111},
	'P': {0b110, 0b101, 0b110, 0b100, 0b100},
	'R': {0b110, 0b101, 0b110, 0b101, 0b101},
	'C': {0b011, 0b100, 0b100, 0b100, 0b011},
	' ': {0b000, 0b000, 0b000, 0b000, 0b000},
}

// drawLabel draws a short label at (x, y) using the bitmap glyphs, scaled by
// the given integer factor. Unknown characters are skipped.
func drawLabel(output *image.RGBA, text string, x, y int, col color.RGBA, scale int) {
	if scale < 1 {
		scale = 1
	}
	cursor := x
	for _, ch := range text {
		pattern, ok := glyphs[ch]
		if !ok {
			cursor += 4 * scale
			continue
		}
		for row := 0; row < 5; row++ {
			for bit := 0; bit < 3; bit++ {
				if pattern[row]&(1<<(2-bit)) == 0 {
					continue
				}
				for sy := 0; sy < scale; sy++ {
					for sx := 0; sx < scale; sx++ {
						setPixel(output, cursor+bit*scale+sx, y+row*scale+sy, col)
					}
				}
			}
		}
		cursor += 4 * scale
	}
}
