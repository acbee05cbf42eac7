// Package levels resolves the indirect brightness inputs into a normalized
// brightness value: symbolic levels ("very_dark".."very_bright") via a static
// table, ambient lux readings via a clamped logarithmic scale, and the current
// clock time via ordered day/night windows that may wrap past midnight.
//
// The resolved normalized value feeds the calibration engine; this package
// never talks to the display.
package levels
