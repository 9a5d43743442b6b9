// Package models defines the client-side data models synchronized by usersync:
// directory users (the cached collection), weather readings and todos.
package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// User is one directory record. Email is the natural key and never changes
// once stored; storing a User with an existing Email replaces the old value.
type User struct {
	Email    string   `json:"email"`
	Gender   string   `json:"gender"`
	Name     Name     `json:"name"`
	Location Location `json:"location"`
	Phone    string   `json:"phone"`
	Cell     string   `json:"cell"`
	Picture  Picture  `json:"picture"`
}

type Name struct {
	Title string `json:"title"`
	First string `json:"first"`
	Last  string `json:"last"`
}

type Location struct {
	Street      Street      `json:"street"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	Country     string      `json:"country"`
	Postcode    FlexString  `json:"postcode"`
	Coordinates Coordinates `json:"coordinates"`
}

type Street struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// Coordinates are kept as the strings the directory API returns.
type Coordinates struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// Latitude and longitude parsed as float64. ok is false if either is missing
// or malformed.
func (c Coordinates) LatLon() (lat, lon float64, ok bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(c.Latitude), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(c.Longitude), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

type Picture struct {
	Large     string `json:"large"`
	Medium    string `json:"medium"`
	Thumbnail string `json:"thumbnail"`
}

// DisplayName joins title, first and last name, skipping empty parts.
func (u User) DisplayName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{u.Name.Title, u.Name.First, u.Name.Last} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// FlexString accepts both JSON strings and JSON numbers. The directory API
// returns postcodes as either, depending on the country.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// FilterUsers returns the users whose display name or email contains query,
// ignoring case. A blank query returns users unchanged.
func FilterUsers(users []User, query string) []User {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return users
	}

	out := make([]User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.DisplayName()), q) ||
			strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u)
		}
	}
	return out
}
