// Package cache provides a small TTL cache for values the caller chooses to
// memoize, such as resolved secrets.
//
// Entries are stored as bytes and expire lazily on read. A TTL of zero
// disables caching for that entry.
package cache
