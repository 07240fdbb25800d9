// Package database keeps the run history of proxycheck in SQLite.
//
// RunDB stores one row per run (input, output, endpoint, final counts and
// failure tally) and one row per round. It never stores individual
// proxies: the output file is the only record of which ones worked.
//
// The database lives in the XDG data directory and uses
// modernc.org/sqlite, so no CGO is needed.
package database
