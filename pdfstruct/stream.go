package pdfstruct

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// A decoder undoes one stream filter.  rowsize, when nonzero, overrides the
// row size the filter parameters imply.
type decoder func(data []byte, parms Dict, rowsize int) ([]byte, error)

var decoders = map[Name]decoder{
	"FlateDecode":    decodeFlate,
	"Fl":             decodeFlate,
	"ASCIIHexDecode": decodeHex,
	"AHx":            decodeHex,
	"ASCII85Decode":  decode85,
	"A85":            decode85,
}

// Decompress removes any compression and/or encoding from the stream data.
// Some encoding methods need to know the size (in bytes) of a "row" in the
// data for decoding; rowsize supplies it when the stream's /DecodeParms do
// not.  Decompress modifies s.Dict; callers holding a stream that belongs to
// a Document should decompress a copy.
func (s *Stream) Decompress(rowsize int) error {
	names, parms, err := s.filters()
	if err != nil {
		return err
	}
	for i, name := range names {
		dec, ok := decoders[name]
		if !ok {
			return fmt.Errorf("stream /Filter encoding /%s is not supported", name)
		}
		if s.Data, err = dec(s.Data, parms[i], rowsize); err != nil {
			return fmt.Errorf("running %s on stream: %w", name, err)
		}
	}
	delete(s.Dict, "Filter")
	delete(s.Dict, "DecodeParms")
	return nil
}

// filters returns the stream's filters in the order they are to be undone,
// with the parameters of each (nil where there are none).
func (s *Stream) filters() (names []Name, parms []Dict, err error) {
	switch f := s.Dict["Filter"].(type) {
	case nil:
		return nil, nil, nil
	case Name:
		names = []Name{f}
	case Array:
		for _, o := range f {
			n, ok := o.(Name)
			if !ok {
				return nil, nil, errors.New("stream /Filter entry is not a /Name")
			}
			names = append(names, n)
		}
	default:
		return nil, nil, errors.New("stream /Filter is not a /Name or array")
	}
	parms = make([]Dict, len(names))
	switch p := s.Dict["DecodeParms"].(type) {
	case nil:
	case Dict:
		parms[0] = p
	case Array:
		if len(p) != len(names) {
			return nil, nil, errors.New("stream /DecodeParms is array with wrong length")
		}
		for i, o := range p {
			switch o := o.(type) {
			case nil:
			case Dict:
				parms[i] = o
			default:
				return nil, nil, errors.New("stream /DecodeParms entry is not a dict")
			}
		}
	default:
		return nil, nil, errors.New("stream /DecodeParms is not a dict or array")
	}
	return names, parms, nil
}

func decodeHex(data []byte, _ Dict, _ int) ([]byte, error) {
	digits := make([]byte, 0, len(data))
	for _, b := range data {
		if b == '>' {
			break
		}
		if isRegularChar(b) {
			digits = append(digits, b)
		}
	}
	if len(digits)%2 != 0 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	if _, err := hex.Decode(out, digits); err != nil {
		return nil, err
	}
	return out, nil
}

func decode85(data []byte, _ Dict, _ int) ([]byte, error) {
	data = bytes.TrimPrefix(bytes.TrimSpace(data), []byte("<~"))
	if idx := bytes.Index(data, []byte("~>")); idx >= 0 {
		data = data[:idx]
	}
	return io.ReadAll(ascii85.NewDecoder(bytes.NewReader(data)))
}

func decodeFlate(data []byte, parms Dict, rowsize int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	if data, err = io.ReadAll(zr); err != nil {
		return nil, err
	}
	pred := intParm(parms, "Predictor", 1)
	switch {
	case pred == 1:
		return data, nil
	case pred >= 10 && pred <= 15:
		colors := intParm(parms, "Colors", 1)
		bpc := intParm(parms, "BitsPerComponent", 8)
		if rowsize == 0 {
			rowsize = (colors*bpc*intParm(parms, "Columns", 1) + 7) / 8
		}
		if rowsize < 1 {
			return nil, errors.New("invalid predictor row size")
		}
		return unpredictPNG(data, rowsize, max(1, colors*bpc/8))
	default:
		return nil, fmt.Errorf("predictor %d is not supported", pred)
	}
}

func intParm(parms Dict, key Name, def int) int {
	if v, ok := parms[key].(int); ok {
		return v
	}
	return def
}

// unpredictPNG reverses PNG row filtering.  Each row of the data is preceded
// by a byte naming the filter applied to it; bpp is the distance in bytes to
// the corresponding byte of the previous pixel.
func unpredictPNG(data []byte, rowsize, bpp int) ([]byte, error) {
	if len(data)%(rowsize+1) != 0 {
		return nil, errors.New("stream length is not a multiple of row length")
	}
	var (
		out  = make([]byte, 0, len(data)/(rowsize+1)*rowsize)
		prev = make([]byte, rowsize)
	)
	for ; len(data) != 0; data = data[rowsize+1:] {
		kind, row := data[0], data[1:rowsize+1]
		cur := make([]byte, rowsize)
		for i, b := range row {
			var left, upLeft byte
			if i >= bpp {
				left, upLeft = cur[i-bpp], prev[i-bpp]
			}
			switch kind {
			case 0:
				cur[i] = b
			case 1:
				cur[i] = b + left
			case 2:
				cur[i] = b + prev[i]
			case 3:
				cur[i] = b + byte((int(left)+int(prev[i]))/2)
			case 4:
				cur[i] = b + paeth(left, prev[i], upLeft)
			default:
				return nil, fmt.Errorf("unexpected PNG filter type %d", kind)
			}
		}
		out = append(out, cur...)
		prev = cur
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
