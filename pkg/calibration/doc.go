// Package calibration implements the brightness calibration engine: a pure
// mapping from a normalized source brightness (0-1) to a target display
// percentage (0-100). It contains:
//
//   - Method: the available calibration curves (lut, perceptual, logarithmic,
//     linear)
//   - Profile: the display-pair parameters (peak nits, gamma, curve tunables)
//     loaded once at startup and read-only thereafter
//   - LUT: an ordered anchor table evaluated by linear interpolation
//
// These types are shared across daemon, client and GUI code to avoid duplicate
// definitions and keep JSON contracts consistent.
package calibration
