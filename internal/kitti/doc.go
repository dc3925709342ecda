// Package kitti builds the benchmark-layout artifacts for one frame.
//
// Responsibilities: camera calibration in the reference-camera convention,
// lidar column reordering, 3D label reprojection and 2D association, pose
// serialisation, and the output directory/key scheme.
// Key types: Calibration, PointCloud, Object, AssociationTable, Layout.
//
// Coordinate conventions:
//   - vehicle frame: x forward, y left, z up; box origin at the centroid.
//   - reference camera: x right, y down, z forward; box origin at the
//     bottom-face center; dims written as height, width, length.
package kitti
