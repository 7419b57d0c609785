// Package gstpreview shows decoded raw frames in a GStreamer window.
//
// It implements render.Backend and render.Presenter: tiles uploaded by
// render.UploadFrame are assembled into one GRAY8/GRAY16_LE raster, and
// Present pushes that raster through
//
//	appsrc → videoconvert → videoscale → autovideosink (or any sink)
//
// The bus monitor classifies pipeline errors (resource, codec, unknown)
// and counts them in Stats.
package gstpreview
