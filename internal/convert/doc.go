// Package convert turns source log files into an output dataset.
//
// A FrameConverter renders every artifact of one frame in memory; a
// DatasetWriter lays out the output tree and writes those artifacts whole;
// a Runner walks the source files, isolates per-frame failures and collects
// Stats.
package convert
