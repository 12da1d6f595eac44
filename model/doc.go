// Package model defines the data contract exchanged with callers.
//
// # Types
//
//   - Clustering: centers, the nearest-center assignment of every point and
//     run statistics
//   - Coreset: sampled point indices with positive weights, the hand-off to
//     any downstream weighted clustering solver
//
// Membership views are returned as roaring bitmaps of point indices, so
// point indices must fit in a uint32.
//
//	members := clustering.Members(0)
//	distinct := coreset.Distinct()
//	compact := coreset.Compact() // duplicates merged, weights summed
package model
