package remote

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/usersync/internal/client/apicall"
	"github.com/dmitrijs2005/usersync/internal/client/models"
)

const (
	DefaultWeatherURL   = "https://api.openweathermap.org/data/2.5/weather"
	DefaultWeatherUnits = "metric"
)

type WeatherRemote struct {
	client *http.Client
	base   string
	apiKey string
	units  string
}

func NewWeatherRemote(c *http.Client, baseURL, apiKey, units string) (*WeatherRemote, error) {
	if _, err := parseBase(baseURL); err != nil {
		return nil, err
	}
	if units == "" {
		units = DefaultWeatherUnits
	}
	return &WeatherRemote{client: c, base: baseURL, apiKey: apiKey, units: units}, nil
}

func (r *WeatherRemote) FetchWeather(ctx context.Context, lat, lon float64) (*apicall.Response[models.Weather], error) {
	u, _ := parseBase(r.base)
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", r.apiKey)
	q.Set("units", r.units)
	u.RawQuery = q.Encode()

	return getJSON[models.Weather](ctx, r.client, u)
}
