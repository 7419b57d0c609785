// Package render hands decoded frames and colour uniforms to a display
// backend.
//
// The backend is whatever owns the texture: a GPU context in a GUI shell,
// the GStreamer preview in render/gst, or the Recorder in tests.
//
// Upload layout:
//
//	Linear frames:  one UploadTexture call covering the padded image.
//	Tiled frames:   one call per tile, rows of tiles top to bottom,
//	                tiles left to right, running byte offset into the
//	                frame buffer (tiles are stored one after another).
//
// Uniforms are pushed by name (see the Uniform* constants) as float32
// scalars, [3]float32 vectors, [9]float32 row-major matrices or int32
// enums.
package render
