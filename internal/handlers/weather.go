package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/AnshRaj112/weatherlist-backend/internal/models"
	"github.com/AnshRaj112/weatherlist-backend/internal/services"
	"github.com/AnshRaj112/weatherlist-backend/internal/weather"
)

const msgWeatherUnavailable = "Weather data is currently unavailable"

// WeatherHandler serves current weather lookups.
type WeatherHandler struct {
	weather   *weather.Service
	locations *services.LocationService
}

func NewWeatherHandler(w *weather.Service, locations *services.LocationService) *WeatherHandler {
	return &WeatherHandler{weather: w, locations: locations}
}

type weatherResponse struct {
	Success  bool                  `json:"success"`
	Location *models.SavedLocation `json:"location,omitempty"`
	Weather  weather.Snapshot      `json:"weather"`
}

// Current handles GET /api/weather?lat=&lon= or ?city=
func (h *WeatherHandler) Current(w http.ResponseWriter, r *http.Request) {
	loc, err := locationFromQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	snap, err := h.weather.Current(r.Context(), loc)
	if err != nil {
		respondError(w, r, weatherError(err))
		return
	}
	respondJSON(w, http.StatusOK, weatherResponse{Success: true, Weather: snap})
}

// ForSavedLocation handles GET /api/locations/{userId}/{location}/weather
func (h *WeatherHandler) ForSavedLocation(w http.ResponseWriter, r *http.Request) {
	saved, err := h.locations.Get(r.Context(), pathParam(r, "userId"), pathParam(r, "location"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	loc := weather.Location{City: saved.LocationName}
	if saved.HasCoordinates() {
		loc.Lat, loc.Lon = saved.Latitude, saved.Longitude
	}

	snap, err := h.weather.Current(r.Context(), loc)
	if err != nil {
		respondError(w, r, weatherError(err))
		return
	}
	respondJSON(w, http.StatusOK, weatherResponse{Success: true, Location: saved, Weather: snap})
}

func locationFromQuery(r *http.Request) (weather.Location, error) {
	q := r.URL.Query()
	latRaw, lonRaw := q.Get("lat"), q.Get("lon")

	if latRaw == "" && lonRaw == "" {
		city := q.Get("city")
		if city == "" {
			return weather.Location{}, &services.Error{Kind: services.KindValidation, Message: "lat and lon, or city, are required"}
		}
		return weather.Location{City: city}, nil
	}

	lat, latErr := strconv.ParseFloat(latRaw, 64)
	lon, lonErr := strconv.ParseFloat(lonRaw, 64)
	if latErr != nil || lonErr != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return weather.Location{}, &services.Error{Kind: services.KindValidation, Message: "lat and lon must be valid coordinates"}
	}
	return weather.Location{Lat: &lat, Lon: &lon}, nil
}

func weatherError(err error) error {
	switch {
	case errors.Is(err, weather.ErrInvalidLocation):
		return &services.Error{Kind: services.KindValidation, Message: err.Error(), Err: err}
	default:
		return &services.Error{Kind: services.KindUpstream, Message: msgWeatherUnavailable, Err: err}
	}
}
