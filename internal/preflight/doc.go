// Package preflight provides readiness checks for the filesystem paths,
// credentials, and external binaries accentscope depends on.
//
// These checks run in two contexts:
//   - `accentscope serve` runs RunAll at startup and logs every failure so a
//     misconfigured host is visible before the first request arrives.
//   - `accentscope status` and GET /api/status render the same results.
//
// Checks never contact the speech service; a bad key only surfaces on the
// first analysis.
package preflight
