// Package ir provides the canonical document and value types shared by the
// collage packages.
//
// ir imports nothing internal. Graph documents, candidate records and content
// hashes are defined here so that the graph, partition and store layers agree
// on one serialization.
//
// Key design constraints:
//   - NO float values in canonical JSON; numbers are int64
//   - All JSON and YAML tags use snake_case
//   - Strings are NFC normalized at the serialization boundary
package ir
