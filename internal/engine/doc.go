// Package engine wraps the ffmpeg command line behind the Engine interface the
// worker pool consumes: parameter generation, conversion, and live progress.
package engine
