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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHdrLen = 164

func buildUncompressedMobiFile(title, body string) []byte {
	pdh := buildPalmDocHeader(CompressionNone, uint32(len(body)), 1, uint16(len(body)), EncryptionNone)
	mh := buildMobiHeader(testHdrLen, uint32(palmDocHeaderLen+testHdrLen), uint32(len(title)), 0)
	rec0 := append(append(append([]byte{}, pdh...), mh...), title...)
	return buildPalmDB(mobiTypeCreator, [][]byte{rec0, []byte(body)})
}

func TestOpenBytesUncompressedRoundTrip(t *testing.T) {
	data := buildUncompressedMobiFile("My Book", "Hello, world!")
	book, err := OpenBytes(data)
	require.NoError(t, err)
	assert.Equal(t, "My Book", book.Title())
	assert.Equal(t, "Hello, world!", string(book.Body()))
	assert.Equal(t, 0, book.ImageCount())
}

func TestOpenBytesRejectsEncryption(t *testing.T) {
	pdh := buildPalmDocHeader(CompressionNone, 5, 1, 5, EncryptionOld)
	mh := buildMobiHeader(testHdrLen, uint32(palmDocHeaderLen+testHdrLen), 0, 0)
	rec0 := append(append([]byte{}, pdh...), mh...)
	data := buildPalmDB(mobiTypeCreator, [][]byte{rec0, []byte("hello")})

	_, err := OpenBytes(data)
	require.Error(t, err)
	var merr *MobiError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, ErrEncrypted, merr.Kind)
}

func TestOpenBytesRejectsUnsupportedCompression(t *testing.T) {
	pdh := buildPalmDocHeader(CompressionType(99), 5, 1, 5, EncryptionNone)
	mh := buildMobiHeader(testHdrLen, uint32(palmDocHeaderLen+testHdrLen), 0, 0)
	rec0 := append(append([]byte{}, pdh...), mh...)
	data := buildPalmDB(mobiTypeCreator, [][]byte{rec0, []byte("hello")})

	_, err := OpenBytes(data)
	require.Error(t, err)
	var merr *MobiError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, ErrUnsupportedCompression, merr.Kind)
}

func TestOpenBytesRejectsSizeMismatch(t *testing.T) {
	data := buildUncompressedMobiFile("T", "Hello, world!")
	// Corrupt the declared uncompressed size in the PalmDOC header.
	data[palmDBHeaderLen+2*pdbRecordHeaderLen+4+3] ^= 0xFF
	_, err := OpenBytes(data)
	require.Error(t, err)
}

func TestBookExthOverridesTitle(t *testing.T) {
	preferred := "Preferred Title"
	authorPayload := "Some Author"
	exthTable := buildExthTable([][]byte{
		buildExthRecord(exthPreferredName, []byte(preferred)),
		buildExthRecord(exthAuthor, []byte(authorPayload)),
	})

	body := "content"
	pdh := buildPalmDocHeader(CompressionNone, uint32(len(body)), 1, uint16(len(body)), EncryptionNone)
	mh := buildMobiHeader(testHdrLen, uint32(palmDocHeaderLen+testHdrLen+len(exthTable)), 5, exthPresentBit)
	rec0 := append(append([]byte{}, pdh...), mh...)
	rec0 = append(rec0, exthTable...)
	rec0 = append(rec0, []byte("Stale")...) // full-name range, overridden by EXTH 503

	data := buildPalmDB(mobiTypeCreator, [][]byte{rec0, []byte(body)})
	book, err := OpenBytes(data)
	require.NoError(t, err)
	assert.Equal(t, preferred, book.Title())
	assert.Equal(t, authorPayload, book.Author())
}

func TestBookRecordForOffset(t *testing.T) {
	data := buildUncompressedMobiFile("T", "Hello, world!")
	book, err := OpenBytes(data)
	require.NoError(t, err)

	idx, ok := book.RecordForOffset(0)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = book.RecordForOffset(int64(len(book.Body()) + 100))
	assert.False(t, ok)
}
