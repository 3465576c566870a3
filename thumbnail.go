//
// Copyright (C) 2023 Quan Chen <chenquan_act@163.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package mobicore

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
)

// CoverThumbnail decodes the book's cover image and returns it resized
// to fit within maxW x maxH, re-encoded in its original format. It is a
// convenience layered on top of Cover; Open itself never needs it.
func (b *Book) CoverThumbnail(maxW, maxH int) ([]byte, error) {
	data, ext, ok := b.Cover()
	if !ok {
		return nil, newErr(ErrContainerMalformed, "document has no cover image")
	}

	var src image.Image
	var err error
	switch ext {
	case ".jpg":
		src, err = jpeg.Decode(bytes.NewReader(data))
	case ".png":
		src, err = png.Decode(bytes.NewReader(data))
	case ".gif":
		src, err = gif.Decode(bytes.NewReader(data))
	default:
		return nil, newErr(ErrUnsupportedImageFormat, "cover record is not a recognized image format")
	}
	if err != nil {
		return nil, wrapErr(ErrUnsupportedImageFormat, "decoding cover image", err)
	}

	resized := imaging.Fit(src, maxW, maxH, imaging.Lanczos)

	var buf bytes.Buffer
	switch ext {
	case ".jpg":
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85})
	case ".png":
		err = png.Encode(&buf, resized)
	case ".gif":
		err = gif.Encode(&buf, resized, nil)
	}
	if err != nil {
		return nil, wrapErr(ErrIo, "encoding cover thumbnail", err)
	}
	return buf.Bytes(), nil
}
