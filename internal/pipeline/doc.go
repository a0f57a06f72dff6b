// Package pipeline orchestrates a single optimization run: stage the image
// as an intermediate JPEG, hand it to the external optimizer, relay the
// optimized bytes to the caller, and remove the staging session.
package pipeline
