// Package inspect walks JPEG marker segments to report the structure of a
// bitstream: dimensions, coding mode, and a census of metadata segments. It
// reads headers only and never decodes image data.
package inspect
