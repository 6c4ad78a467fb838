// Package cache provides the optional Redis latest-snapshot cache.
//
// The cache is strictly an accelerator for the latest-value read path.
// The tracker runs fine without it, and any cache failure falls back to
// the store.
package cache
