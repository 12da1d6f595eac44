// Package coreset turns a reference clustering into a weighted sample.
//
// Sensitivities assigns every point a sampling probability that mixes its
// share of the clustering cost with a term inversely proportional to the
// size of its cluster, so small clusters are never starved. Sample then
// draws m indices independently with replacement and weights each draw by
// 1/(m p), which makes weighted sums over the sample unbiased estimates of
// sums over the full dataset.
package coreset
