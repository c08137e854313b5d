// Package core provides the business logic for chart data retrieval.
//
// This package is the heart of the chart feed, containing all domain logic
// independent of any UI or transport layer. It can be used by web handlers,
// CLI tools, or tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Parsing: Tokenizing exported tabular text, resolving its header row,
//     and materializing typed rows ([ParseText], [ResolveHeaders]).
//   - Service: The main entry point for all operations (fetch, refresh,
//     listing, grouping, units).
//   - Cache: Parsed tables are kept in memory keyed by locator, with a
//     content fingerprint so unchanged refreshes skip re-parsing.
//   - Series: Grouping parsed rows into chart-ready series and unit-mix
//     breakdowns ([GroupBySeries], [ExtractUnitMap]).
//
// # Parsing Pipeline
//
// Every fetched file flows through the same three stages:
//
//  1. [SplitLines] normalizes line endings, strips a UTF-8 BOM, and drops
//     leading and trailing blank lines.
//  2. [ResolveHeaders] inspects the first line: canonical header names are
//     matched case-insensitively, and a headerless file falls back to
//     positional column names so it still renders.
//  3. [MaterializeRows] tokenizes each data line, skips blank rows, and
//     coerces numeric-looking fields to float64.
//
// Parsing never fails on ragged input. Missing columns become empty
// strings, extra columns are ignored, and an unterminated quote is carried
// to the end of the line. The only parse error is an empty file.
//
// # Service Operations
//
// A [Service] wraps a document store client with the cache and the grouping
// logic. [Service.Table] returns the parsed table for a file, fetching on a
// cache miss; [Service.Refresh] always re-fetches but keeps the cached
// parse when the body fingerprint is unchanged. [Service.Prefetch] warms
// the cache for a whole folder with bounded concurrency.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FETCH001-FETCH005: Document store errors (not found, forbidden,
//     unreachable, exhausted candidates, bad responses)
//   - PARSE001-PARSE002: Parse errors (empty files, malformed content)
//   - DB001-DB004: Configuration database errors
//   - DATA001-DATA002: Lookup errors (series, charts)
package core
