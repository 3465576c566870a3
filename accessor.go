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

import "encoding/json"

// BookAccessor is a flat, JSON-serializable projection of a Book's
// metadata, suitable for caching or shipping to a remote client that
// has no need for the decompressed body or image bytes.
type BookAccessor struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Publisher     string `json:"publisher"`
	Language      uint8  `json:"language"`
	Dialect       uint8  `json:"dialect"`
	IsMobi        bool   `json:"is_mobi"`
	ImageCount    int    `json:"image_count"`
	HasCover      bool   `json:"has_cover"`
	BodyByteCount int    `json:"body_byte_count"`
}

// NewAccessor projects book's metadata into a BookAccessor.
func NewAccessor(book *Book) *BookAccessor {
	language, dialect := book.Locale()
	return &BookAccessor{
		Title:         book.Title(),
		Author:        book.Author(),
		Publisher:     book.Publisher(),
		Language:      language,
		Dialect:       dialect,
		IsMobi:        book.isMobi,
		ImageCount:    book.ImageCount(),
		HasCover:      book.hasCover,
		BodyByteCount: len(book.Body()),
	}
}

// NewAccessorFromJSON reconstructs a BookAccessor from its JSON form,
// e.g. after reading it back out of a cache.
func NewAccessorFromJSON(data []byte) (*BookAccessor, error) {
	acc := new(BookAccessor)
	if err := json.Unmarshal(data, acc); err != nil {
		return nil, wrapErr(ErrIo, "decoding BookAccessor JSON", err)
	}
	return acc, nil
}

// Serialize converts the accessor to its JSON representation.
func (a *BookAccessor) Serialize() ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, wrapErr(ErrIo, "encoding BookAccessor JSON", err)
	}
	return data, nil
}
