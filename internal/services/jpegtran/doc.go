// Package jpegtran wraps the jpegtran command line tool for lossless JPEG
// optimization. The client builds the argument vector from encode settings,
// executes the binary without any shell involvement, and classifies failures
// into spawn and run errors.
package jpegtran
