package models

// UsersPage is one batch returned by the directory endpoint.
type UsersPage struct {
	Results []User    `json:"results"`
	Info    *PageInfo `json:"info"`
}

// PageInfo echoes the request parameters; the sync layer only checks it exists.
type PageInfo struct {
	Seed    string `json:"seed"`
	Results int    `json:"results"`
	Page    int    `json:"page"`
	Version string `json:"version"`
}
