package images

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

var icoMagic = []byte{0x00, 0x00, 0x01, 0x00}

// decodeSize returns the pixel dimensions of an encoded image.
func decodeSize(data []byte) (int, int, error) {
	if bytes.HasPrefix(data, icoMagic) {
		return icoSize(data)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, errors.New("decode image: empty dimensions")
	}
	return cfg.Width, cfg.Height, nil
}

// icoSize reads the largest entry of an ICO directory. A stored 0 means 256.
func icoSize(data []byte) (int, int, error) {
	if len(data) < 6 {
		return 0, 0, errors.New("decode ico: truncated header")
	}
	count := int(binary.LittleEndian.Uint16(data[4:6]))
	if count == 0 || len(data) < 6+16*count {
		return 0, 0, errors.New("decode ico: truncated directory")
	}
	var w, h int
	for i := range count {
		e := data[6+16*i:]
		ew, eh := int(e[0]), int(e[1])
		if ew == 0 {
			ew = 256
		}
		if eh == 0 {
			eh = 256
		}
		if ew*eh > w*h {
			w, h = ew, eh
		}
	}
	return w, h, nil
}
