package filter

import (
	"bytes"
	"io"

	"github.com/hhrutter/lzw"
)

// decodeLZW decodes PDF's LZWDecode filter. PDF's variant of LZW
// differs from the one in the standard library's compress/lzw (which
// implements the GIF variant): it defaults to the "early change" code
// width bump one code early, controllable via /EarlyChange, which is
// why this depends on a fork rather than the standard library.
func decodeLZW(data []byte, params Params) ([]byte, error) {
	pp, err := processPredictorParams(params)
	if err != nil {
		return nil, err
	}
	earlyChange := true
	if v, ok := params["EarlyChange"]; ok && v == 0 {
		earlyChange = false
	}
	order := lzw.MSB
	litWidth := 8
	r := lzw.NewReader(bytes.NewReader(data), order, litWidth, earlyChange)
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if pp.predictor <= 1 {
		return raw, nil
	}
	if pp.predictor == 2 {
		return applyTIFFPredictorDecode(raw, pp)
	}
	return applyPNGPredictorDecode(raw, pp)
}
