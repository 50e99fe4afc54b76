// Package viz draws command debug markers.
//
// [Arrows] keeps one goal and one measured-velocity [Marker] per agent. The
// command generator refreshes them after each tick when debug visualization
// is enabled; they are never read back by the generator.
//
// [Field] renders markers top-down onto a Braille [Canvas] for the terminal
// UI, and [Styles] derives lipgloss styles from a [Theme].
package viz
