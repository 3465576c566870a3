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

import "bytes"

// isEofRecord reports whether data is the 4-byte end-of-images marker.
func isEofRecord(data []byte) bool {
	return len(data) == 4 && bytes.Equal(data, eofRecordMagic[:])
}

// isKnownNonImageRecord reports whether data's signature matches one of
// the non-image record types known to appear in the image span
// (FLIS/FCIS/FDST/DATP/SRCS/VIDE). Such slots stay empty rather than
// being compacted out, so external recindex values keep their assigned
// meaning.
func isKnownNonImageRecord(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	sig := string(data[:4])
	switch sig {
	case sigFLIS, sigFCIS, sigFDST, sigDATP, sigSRCS, sigVIDE:
		return true
	}
	return false
}

// imageExtension classifies image data by its magic bytes. Anything
// that isn't recognized JPEG/PNG/GIF still gets stored, tagged ".bin",
// deliberately permissive rather than rejecting unknown formats.
func imageExtension(data []byte) string {
	switch {
	case len(data) >= 4 && bytes.Equal(data[:4], []byte{0xFF, 0xD8, 0xFF, 0xE0}):
		return ".jpg"
	case len(data) >= 4 && bytes.Equal(data[:4], []byte{0x89, 'P', 'N', 'G'}):
		return ".png"
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("GIF8")):
		return ".gif"
	default:
		return ".bin"
	}
}

// loadImages walks the image record span [imageFirstRec, imageFirstRec+imagesCount)
// and populates one slot per record. A record that is the EOF marker
// stops the scan early (remaining slots stay empty); a record matching
// a known non-image signature, or an empty record, leaves its own slot
// empty but does not stop the scan.
func loadImages(c *container, imageFirstRec int, imagesCount int) ([]bookImage, error) {
	images := make([]bookImage, imagesCount)
	if imagesCount == 0 {
		return images, nil
	}
	for i := 0; i < imagesCount; i++ {
		recNo := imageFirstRec + i
		if recNo >= c.recordCount() {
			break
		}
		data, err := c.readRecord(recNo)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}
		if isEofRecord(data) {
			log.Debugf("image scan stopped at record %d: eof marker", recNo)
			break
		}
		if isKnownNonImageRecord(data) {
			continue
		}
		images[i] = bookImage{data: append([]byte(nil), data...), ext: imageExtension(data)}
	}
	return images, nil
}

// imageAt resolves a 1-based external recindex (as used by <img
// recindex> references in the body) to a loaded image. It reports
// ok=false for an out-of-range index or an empty slot.
func imageAt(images []bookImage, recindex int) (bookImage, bool) {
	if recindex < 1 || recindex > len(images) {
		return bookImage{}, false
	}
	img := images[recindex-1]
	if img.data == nil {
		return bookImage{}, false
	}
	return img, true
}

// selectCover returns the book's cover image. If coverOffset (from EXTH
// 201) names a valid slot, that slot wins outright. Otherwise this falls
// back to a heuristic: among the first two image slots, whichever holds
// the larger payload is assumed to be the cover, since MOBI files
// conventionally duplicate the cover at two resolutions in that
// position.
func selectCover(images []bookImage, coverOffset int, hasCoverOffset bool) (int, bool) {
	if hasCoverOffset && coverOffset >= 0 && coverOffset < len(images) && images[coverOffset].data != nil {
		return coverOffset, true
	}

	log.Warningf("no reliable EXTH cover index, falling back to larger-of-first-two heuristic")
	best := -1
	bestSize := 0
	limit := len(images)
	if limit > 2 {
		limit = 2
	}
	for i := 0; i < limit; i++ {
		if images[i].data == nil {
			continue
		}
		if len(images[i].data) > bestSize {
			best = i
			bestSize = len(images[i].data)
		}
	}
	if best < 0 {
		return -1, false
	}
	return best, true
}
