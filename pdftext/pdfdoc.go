package pdftext

import "unicode/utf8"

// pdfDocEncoding maps each PDFDocEncoding byte to its rune.  Undefined codes
// map to utf8.RuneError.
var pdfDocEncoding [256]rune

func init() {
	for i := range pdfDocEncoding {
		pdfDocEncoding[i] = rune(i)
	}
	for i, r := range []rune("˘ˇˆ˙˝˛˚˜") {
		pdfDocEncoding[0x18+i] = r
	}
	for i, r := range []rune("•†‡…—–ƒ⁄‹›−‰„“”‘’‚™ﬁﬂŁŒŠŸŽıłœšž") {
		pdfDocEncoding[0x80+i] = r
	}
	pdfDocEncoding[0x7f] = utf8.RuneError
	pdfDocEncoding[0x9f] = utf8.RuneError
	pdfDocEncoding[0xa0] = '€'
	pdfDocEncoding[0xad] = utf8.RuneError
}
