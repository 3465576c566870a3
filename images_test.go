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

func TestImageExtension(t *testing.T) {
	assert.Equal(t, ".jpg", imageExtension([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
	assert.Equal(t, ".png", imageExtension([]byte{0x89, 'P', 'N', 'G'}))
	assert.Equal(t, ".gif", imageExtension([]byte("GIF89a")))
	assert.Equal(t, ".bin", imageExtension([]byte("nope")))
}

func TestIsEofRecord(t *testing.T) {
	assert.True(t, isEofRecord(eofRecordMagic[:]))
	assert.False(t, isEofRecord([]byte{0x01, 0x02, 0x03, 0x04}))
}

func TestIsKnownNonImageRecord(t *testing.T) {
	assert.True(t, isKnownNonImageRecord([]byte("FLIS-whatever")))
	assert.True(t, isKnownNonImageRecord([]byte("VIDE")))
	assert.False(t, isKnownNonImageRecord([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
}

func TestLoadImagesStopsAtEofMarker(t *testing.T) {
	records := [][]byte{
		[]byte("record-zero"),
		{0xFF, 0xD8, 0xFF, 0xE0, 'j', 'p', 'g'},
		eofRecordMagic[:],
		{0x89, 'P', 'N', 'G', 'p', 'n', 'g'},
	}
	data := buildPalmDB(mobiTypeCreator, records)
	c, err := parseContainer(newByteSource(data))
	require.NoError(t, err)

	images, err := loadImages(c, 1, 3)
	require.NoError(t, err)
	require.Len(t, images, 3)
	assert.Equal(t, ".jpg", images[0].ext)
	assert.Nil(t, images[1].data)
	assert.Nil(t, images[2].data)
}

func TestLoadImagesSkipsNonImageMarkers(t *testing.T) {
	records := [][]byte{
		[]byte("record-zero"),
		[]byte("FLIS0000"),
		{0xFF, 0xD8, 0xFF, 0xE0, 'j', 'p', 'g'},
	}
	data := buildPalmDB(mobiTypeCreator, records)
	c, err := parseContainer(newByteSource(data))
	require.NoError(t, err)

	images, err := loadImages(c, 1, 2)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Nil(t, images[0].data)
	assert.Equal(t, ".jpg", images[1].ext)
}

func TestImageAtIsOneBased(t *testing.T) {
	images := []bookImage{{data: []byte("a"), ext: ".jpg"}, {data: []byte("b"), ext: ".png"}}

	img, ok := imageAt(images, 1)
	require.True(t, ok)
	assert.Equal(t, "a", string(img.data))

	_, ok = imageAt(images, 0)
	assert.False(t, ok)

	_, ok = imageAt(images, 3)
	assert.False(t, ok)
}

func TestSelectCoverPrefersExthOffset(t *testing.T) {
	images := []bookImage{{data: []byte("small"), ext: ".jpg"}, {data: []byte("bigger-one"), ext: ".jpg"}}
	idx, ok := selectCover(images, 0, true)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestSelectCoverFallsBackToLargerOfFirstTwo(t *testing.T) {
	images := []bookImage{{data: []byte("small"), ext: ".jpg"}, {data: []byte("bigger-one"), ext: ".jpg"}, {data: []byte("biggest-of-all-images"), ext: ".jpg"}}
	idx, ok := selectCover(images, 0, false)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestSelectCoverNoImagesReturnsFalse(t *testing.T) {
	_, ok := selectCover(nil, 0, false)
	assert.False(t, ok)
}
