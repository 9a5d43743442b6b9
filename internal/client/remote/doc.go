// Package remote contains the HTTP data sources: the randomuser.me directory,
// the OpenWeather current-weather endpoint and a todo list. They hold no
// state and never retry; classification of outcomes is left to apicall.
package remote
