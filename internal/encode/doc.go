// Package encode defines the encode option set shared by the CLI and the save
// pipeline, derives the grayscale flag from pixel data, and writes the
// intermediate JPEG handed to the optimizer.
//
// Options are plain values created per save invocation. The intermediate
// encode honours quality and chroma subsampling via jpegli; everything
// lossless (Huffman optimization, progressive conversion, metadata policy) is
// expressed as jpegtran arguments instead so the pixel data written here
// survives the optimizer unchanged.
package encode
