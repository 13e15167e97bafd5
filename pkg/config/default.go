// Package config carries the module's ambient constants: page geometry,
// buffer pool defaults, and replacer tuning. Nothing here reads the
// environment or parses flags - callers that want something different pass
// it explicitly to the relevant constructor.
package config

import "github.com/ncw/directio"

// Name of the database. Nothing in this module reads it; cmd/pagekit's
// default page file name is its own "pagekit.db" literal.
const DBName = "pagekit"

// PageSize is the size in bytes of every on-disk and in-memory page.
// Pinned to the platform's O_DIRECT block size, same convention the
// teacher's pager used, since the disk manager issues unbuffered,
// page-aligned reads and writes.
const PageSize = directio.BlockSize

// DefaultPoolSize is the number of frames a buffer pool manager holds
// when the caller doesn't specify one.
const DefaultPoolSize = 32

// DefaultReplacerK is the K parameter for the LRU-K replacer.
const DefaultReplacerK = 2

// HeaderMaxDepth bounds a hash index header page's max_depth.
const HeaderMaxDepth = 9

// DirectoryMaxDepth bounds a hash index directory page's max_depth.
const DirectoryMaxDepth = 9
