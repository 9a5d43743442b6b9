package models

import "fmt"

const weatherIconURLFormat = "https://openweathermap.org/img/wn/%s.png"

// Weather is a single reading from the weather endpoint.
type Weather struct {
	Main       WeatherMain `json:"main"`
	Conditions []Condition `json:"weather"`
	Wind       Wind        `json:"wind"`
}

type WeatherMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

type Condition struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type Wind struct {
	Speed float64 `json:"speed"`
	Deg   int     `json:"deg"`
}

func (w Weather) Temperature() float64 { return w.Main.Temp }

// Description of the first reported condition, or "" if none.
func (w Weather) Description() string {
	if len(w.Conditions) == 0 {
		return ""
	}
	return w.Conditions[0].Description
}

// IconURL of the first reported condition, or "" if none.
func (w Weather) IconURL() string {
	if len(w.Conditions) == 0 || w.Conditions[0].Icon == "" {
		return ""
	}
	return fmt.Sprintf(weatherIconURLFormat, w.Conditions[0].Icon)
}
