package utils

import (
	"image/color"
	"strings"
)

// HexToRGBA converts a hexadecimal RGB triplet of the form #RGB or #RRGGBB
// (the leading "#" is optional) to an opaque color.NRGBA. A string of any
// other length yields opaque black, and an invalid hex digit reads as zero.
func HexToRGBA(s string) color.NRGBA {
	c := color.NRGBA{A: 0xff}
	s = strings.TrimPrefix(s, "#")

	switch len(s) {
	case 3:
		c.R = hexDigit(s[0]) * 0x11
		c.G = hexDigit(s[1]) * 0x11
		c.B = hexDigit(s[2]) * 0x11
	case 6:
		c.R = hexDigit(s[0])<<4 | hexDigit(s[1])
		c.G = hexDigit(s[2])<<4 | hexDigit(s[3])
		c.B = hexDigit(s[4])<<4 | hexDigit(s[5])
	}
	return c
}

// hexDigit returns the numeric value of a single hex digit, zero when invalid.
func hexDigit(b byte) uint8 {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}
