// Package cache memoizes pi digit strings produced by a generator.
//
// It provides a Cache interface with an in-memory implementation keyed by
// digit count, a Policy deciding how lengths shorter than the longest
// computed string are served, and Stats for observing hit ratios and how
// often the generator actually ran.
package cache
