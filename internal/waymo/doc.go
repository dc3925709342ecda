// Package waymo holds the in-memory frame records read from the vendor's
// multi-sensor logs.
//
// Responsibilities: the frame data model, sensor and label enums, the
// TFRecord container framing, and the Decoder seam through which payloads
// become frames. Range-image projection is done upstream; lasers arrive as
// native-layout point rows.
// Key types: Frame, Label, CameraLabels, CameraCalibration, SensorTag.
//
// Dependency rule: waymo knows nothing about the output dataset layout.
package waymo
