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

// bodyRangeTreeNode is a node of a midpoint-split binary range tree over
// the BodyRange list assembled while decompressing body records. It
// lets RecordForOffset resolve a body byte offset to the source record
// in O(log n) instead of a linear scan over every record.
type bodyRangeTreeNode struct {
	startRange int64
	endRange   int64
	data       *BodyRange
	left       *bodyRangeTreeNode
	right      *bodyRangeTreeNode
}

// buildBodyRangeTree constructs the tree from ranges, which must already
// be sorted by bodyOffset (assembleBody produces them in that order).
func buildBodyRangeTree(ranges []BodyRange, root *bodyRangeTreeNode) {
	if len(ranges) == 0 {
		return
	}

	if len(ranges) == 1 {
		root.data = &ranges[0]
		root.startRange = ranges[0].bodyOffset
		root.endRange = ranges[0].bodyOffset + ranges[0].bodyLen
		return
	}

	if len(ranges) == 2 {
		root.startRange = ranges[0].bodyOffset
		root.endRange = ranges[1].bodyOffset + ranges[1].bodyLen
		root.left = new(bodyRangeTreeNode)
		buildBodyRangeTree(ranges[:1], root.left)
		root.right = new(bodyRangeTreeNode)
		buildBodyRangeTree(ranges[1:], root.right)
		return
	}

	root.startRange = ranges[0].bodyOffset
	root.endRange = ranges[len(ranges)-1].bodyOffset + ranges[len(ranges)-1].bodyLen

	mid := (len(ranges) - 1) / 2
	if mid > 0 {
		root.left = new(bodyRangeTreeNode)
		buildBodyRangeTree(ranges[0:mid], root.left)
	}
	if mid < len(ranges) {
		root.right = new(bodyRangeTreeNode)
		buildBodyRangeTree(ranges[mid:], root.right)
	}
}

// queryBodyRangeTree finds the BodyRange containing queryOffset, or nil
// if it falls outside every range (e.g. past the end of the body).
func queryBodyRangeTree(root *bodyRangeTreeNode, queryOffset int64) *BodyRange {
	if root == nil {
		return nil
	}
	if root.startRange > queryOffset || root.endRange <= queryOffset {
		return nil
	}
	if root.data != nil {
		return root.data
	}
	if root.left != nil && root.left.endRange > queryOffset {
		return queryBodyRangeTree(root.left, queryOffset)
	}
	if root.right != nil && root.right.startRange <= queryOffset {
		return queryBodyRangeTree(root.right, queryOffset)
	}
	return nil
}

// bodyRangeIndex is a lazily-built, cached lookup structure over a
// Book's BodyRange list.
type bodyRangeIndex struct {
	root *bodyRangeTreeNode
}

func newBodyRangeIndex(ranges []BodyRange) *bodyRangeIndex {
	idx := &bodyRangeIndex{root: new(bodyRangeTreeNode)}
	buildBodyRangeTree(ranges, idx.root)
	return idx
}

// RecordForOffset returns the index of the source record that produced
// the byte at the given body offset, or false if the offset is out of
// range. The index is built on first use and cached on the Book.
func (b *Book) RecordForOffset(offset int64) (int, bool) {
	if b.rangeIndex == nil {
		b.rangeIndex = newBodyRangeIndex(b.bodyRanges)
	}
	r := queryBodyRangeTree(b.rangeIndex.root, offset)
	if r == nil {
		return 0, false
	}
	return r.recordIndex, true
}
