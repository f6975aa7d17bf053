package api

import (
	"errors"
	"net/http"

	"world-api/internal/geo"
	"world-api/internal/ipgeo"
	"world-api/internal/metrics"
)

// /geo?lat=&lon=：200 为锚点在前、根在末的地名数组；404 表示最大半径内无地名
func (s *server) handleGeo(w http.ResponseWriter, r *http.Request) {
	metrics.GeoRequestsTotal.Inc()
	lat, lon, err := parseLatLon(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.locate(w, r, lat, lon, func(out []placeOut) any { return out })
}

type geoIPOut struct {
	IP     string      `json:"ip"`
	Point  ipgeo.Point `json:"point"`
	Places []placeOut  `json:"places"`
}

// /geo/ip?ip=：缺省取访问者 IP
func (s *server) handleGeoIP(w http.ResponseWriter, r *http.Request) {
	metrics.GeoRequestsTotal.Inc()
	if s.IP == nil {
		writeError(w, http.StatusServiceUnavailable, "ip database not configured")
		return
	}
	ip := clientIP(r)
	pt, err := s.IP.Lookup(ip)
	switch {
	case err == nil:
	case errors.Is(err, ipgeo.ErrInvalidIP):
		writeError(w, http.StatusBadRequest, "invalid ip")
		return
	case errors.Is(err, ipgeo.ErrUnknownIP):
		writeError(w, http.StatusNotFound, "ip not found")
		return
	default:
		s.Log.Error("geoip_lookup_error", "ip", ip, "err", err)
		writeError(w, http.StatusInternalServerError, "ip lookup failed")
		return
	}
	s.locate(w, r, pt.Latitude, pt.Longitude, func(out []placeOut) any {
		return geoIPOut{IP: ip, Point: pt, Places: out}
	})
}

func (s *server) locate(w http.ResponseWriter, r *http.Request, lat, lon float64, wrap func([]placeOut) any) {
	vs, err := s.Locator.Locate(r.Context(), lat, lon)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, wrap(toOut(vs)))
	case errors.Is(err, geo.ErrAnchorNotFound):
		metrics.GeoNotFoundTotal.Inc()
		writeError(w, http.StatusNotFound, geo.ErrAnchorNotFound.Error())
	default:
		s.Log.Error("geo_locate_error", "lat", lat, "lon", lon, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
