// Package changelog classifies parsed commits and assembles the NEWS entry
// for a release.
//
// This package implements:
//   - the two-tier commit classifier (translation first, then bug reference)
//   - a per-run Batch that collects bug numbers and receives tracker descriptions
//   - deterministic plain-text rendering of the three NEWS sections
//   - section recovery from rendered text, YAML export and colored terminal output
//
// A rendered entry looks like:
//
//	NEW in 2.22.1
//	=============
//	Changes:
//	- Clean up build warnings (Jane Doe).
//
//	Bugs fixed:
//	- Fixed #42, memory corruption in init (Jane Doe)
//
//	Translations:
//	- Updated French Translation (Marie).
package changelog
