package api

import (
	"encoding/json"
	"net/http"

	"world-api/internal/place"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// placeOut：/geo 对外返回的顶点字段
type placeOut struct {
	GeonameID      string            `json:"geonameId"`
	Name           string            `json:"name"`
	AlternateNames []string          `json:"alternateNames"`
	Geolocation    place.Geolocation `json:"geolocation"`
	Population     int64             `json:"population"`
}

func toOut(vs []place.Vertex) []placeOut {
	out := make([]placeOut, len(vs))
	for i, v := range vs {
		names := v.AlternateNames
		if names == nil {
			names = []string{}
		}
		out[i] = placeOut{
			GeonameID:      v.GeonameID,
			Name:           v.Name,
			AlternateNames: names,
			Geolocation:    v.Geolocation,
			Population:     v.Population,
		}
	}
	return out
}
