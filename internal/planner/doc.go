// Package planner handles the pre-flight phase of applying a compose.
//
// The planner inspects a target directory before anything is written and
// reports every path an apply would collide with. It never mutates the
// filesystem; conflicts are plain data the caller resolves per class.
//
// Key responsibilities:
//   - Detect existing structure roots, merge-config files and worktree dirs
//   - Define the resolution vocabulary (overwrite, merge, cancel)
//   - Keep detection order deterministic so prompts and logs are stable
package planner
