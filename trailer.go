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

import "fmt"

// trailersCount and multibyte derive from the MOBI header's
// extraDataFlags (present only when hdrLen >= 228): bit 0 marks a
// trailing multibyte-character remainder, every other set bit counts
// one additional trailing-data section appended to every content
// record.
func decodeExtraDataFlags(flags uint16) (trailersCount int, multibyte bool) {
	multibyte = flags&1 != 0
	for f := flags; f > 1; f >>= 1 {
		if f&2 != 0 {
			trailersCount++
		}
	}
	return trailersCount, multibyte
}

// stripTrailers removes the trailing data sections appended to a content
// record before it is handed to a decompressor.
//
// Each section's length is a 4-byte backward-scanned variable-width
// integer: the low 7 bits of each of the last 4 bytes are accumulated
// big-endian, but encountering a byte with its continuation bit (0x80)
// set resets the accumulator, since that bit marks the start of the
// encoded value relative to the fixed 4-byte window. This is a fixed-
// window scan, not a generic variable-length-integer reader.
func stripTrailers(rec []byte, trailersCount int, multibyte bool) ([]byte, error) {
	newLen := len(rec)

	for i := 0; i < trailersCount; i++ {
		if newLen <= 4 {
			return nil, newErr(ErrContainerMalformed, fmt.Sprintf("record too short (%d bytes) to hold trailer %d", newLen, i))
		}
		var n uint32
		for j := 0; j < 4; j++ {
			v := rec[newLen-4+j]
			if v&0x80 != 0 {
				n = 0
			}
			n = (n << 7) | uint32(v&0x7f)
		}
		if newLen <= int(n) {
			return nil, newErr(ErrContainerMalformed, fmt.Sprintf("trailer %d length %d exceeds remaining record size %d", i, n, newLen))
		}
		newLen -= int(n)
	}

	if multibyte && newLen > 0 {
		n := int(rec[newLen-1]&3) + 1
		if newLen < n {
			return nil, newErr(ErrContainerMalformed, fmt.Sprintf("multibyte trailer length %d exceeds remaining record size %d", n, newLen))
		}
		newLen -= n
	}

	return rec[:newLen], nil
}
