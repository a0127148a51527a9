// Package preflight provides readiness checks for the paths and credentials
// iCandy depends on.
//
// These checks run in two contexts:
//   - `icandy build` runs the directory checks before touching the network and
//     refuses to start when one fails.
//   - `icandy status` renders every result, plus the beat capability, as a table.
package preflight
