// Package colorpipeline turns DNG colour calibration and user raw
// parameters into the per-frame values a display shader consumes.
//
// The maths follows the DNG specification's colorimetric model:
//
//	camera RGB ──CameraToXYZD50──▶ XYZ (D50) ──XYZToGamutD50──▶ display RGB
//
// Dual-illuminant profiles are interpolated in inverse colour temperature
// between their two calibrations; the scene white comes from
// AsShotNeutral (solved iteratively), AsShotWhiteXY, or a user
// temperature/tint converted through the Robertson isotemperature table.
//
// Everything here is a pure function of its inputs. A Profile is immutable
// after NewProfile and safe for concurrent use.
package colorpipeline
