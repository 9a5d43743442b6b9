// Package cli is the usersync command-line client.
//
// Each subcommand builds an App (config, local database, user cache,
// connectivity monitor and API services), waits for the first connectivity
// probe and runs one action. "repl" keeps the App alive for an interactive
// session that reports online/offline changes as they happen, and "watch"
// streams connectivity and cache updates, optionally serving Prometheus
// metrics.
//
// Output goes to a table on a terminal and to JSON otherwise.
package cli
