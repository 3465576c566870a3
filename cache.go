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
	"context"
	"encoding/hex"
	"time"

	"github.com/c0mm4nd/go-ripemd"
	"github.com/redis/go-redis/v9"
)

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// MetadataCache stores BookAccessor projections in Redis, keyed by a
// RIPEMD-160 digest of the file's PalmDB header and record table. Two
// copies of the same document hash identically regardless of where on
// disk they live; Open itself never consults this cache, so opening a
// file is always correct even when the cache is stale or unreachable.
type MetadataCache struct {
	client *redis.Client
	prefix string
}

// NewMetadataCache wraps an already-configured Redis client.
func NewMetadataCache(client *redis.Client, keyPrefix string) *MetadataCache {
	return &MetadataCache{client: client, prefix: keyPrefix}
}

// CacheKey derives the cache key for a container's framing bytes: the
// 78-byte PalmDB header followed by its record-header table, excluding
// the synthetic sentinel. Record contents never enter the digest, but
// the record offsets do, so an edit that changes any record's size
// changes the key while one that keeps every size does not.
func CacheKey(src *byteSource) (string, error) {
	hdr, err := src.ReadAt(0, palmDBHeaderLen)
	if err != nil {
		return "", err
	}
	numRecords := int64(0)
	{
		c, err := parseContainer(src)
		if err != nil {
			return "", err
		}
		numRecords = int64(c.recordCount())
	}
	recTable, err := src.ReadAt(palmDBHeaderLen, numRecords*pdbRecordHeaderLen)
	if err != nil {
		return "", err
	}

	h := ripemd.New160()
	h.Write(hdr)
	h.Write(recTable)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get fetches and decodes the cached BookAccessor for key, returning
// ok=false on a cache miss.
func (c *MetadataCache) Get(ctx context.Context, key string) (*BookAccessor, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapErr(ErrIo, "reading metadata cache", err)
	}
	acc, err := NewAccessorFromJSON(data)
	if err != nil {
		return nil, false, err
	}
	return acc, true, nil
}

// Set stores acc under key with the given TTL (0 disables expiry).
func (c *MetadataCache) Set(ctx context.Context, key string, acc *BookAccessor, ttlSeconds int) error {
	data, err := acc.Serialize()
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.prefix+key, data, secondsToDuration(ttlSeconds)).Err(); err != nil {
		return wrapErr(ErrIo, "writing metadata cache", err)
	}
	return nil
}
