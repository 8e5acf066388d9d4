package ldb

import "github.com/syndtr/goleveldb/leveldb/opt"

var (
	defaultOptions = opt.Options{
		Compression:            opt.NoCompression,
		BlockCacheCapacity:     64 * opt.MiB,
		WriteBuffer:            32 * opt.MiB,
		DisableSeeksCompaction: true,
	}

	// Options returns the leveldb options used to open the block store.
	// Tests replace it to shrink buffers.
	Options = func() *opt.Options {
		options := defaultOptions
		return &options
	}
)
