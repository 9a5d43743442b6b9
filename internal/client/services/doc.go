// Package services contains the application services of the usersync client.
//
// SyncService keeps the local user cache in step with the remote directory:
// Refresh reloads the first page, NextPage appends the following ones, and
// ObserveAll streams the cached collection. Reads go to the cache only.
// Every remote call goes through apicall, so callers receive a classified
// Result; a Go error is returned only for cancellation and local storage
// failures.
//
// TodoService fetches the todo collection without caching it.
package services
