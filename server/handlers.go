package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/ebosman/buurtkrant/pkg/domain"
	"github.com/ebosman/buurtkrant/pkg/location"
	"github.com/ebosman/buurtkrant/pkg/service"
)

const defaultPageSize = 9

// newsHandler returns one page of relevant articles for the requested location
func (s *Server) newsHandler(w http.ResponseWriter, r *http.Request) {
	loc, err := locationFromQuery(r)
	if err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}

	page, err := intQuery(r, "page", 1)
	if err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}
	pageSize, err := intQuery(r, "page_size", defaultPageSize)
	if err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}
	filter := r.URL.Query().Get("filter")
	if filter == "" {
		filter = service.FilterAll
	}

	result, err := s.news.GetNews(r.Context(), loc, page, pageSize, filter)
	if err != nil {
		lgr.Printf("[WARN] news request for %q failed: %v", loc.Key(), err)
		renderError(w, r, err, http.StatusBadRequest)
		return
	}

	renderJSON(w, r, http.StatusOK, result)
}

// sourcesHandler lists the feed sources that would serve the requested location
func (s *Server) sourcesHandler(w http.ResponseWriter, r *http.Request) {
	loc, err := locationFromQuery(r)
	if err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}

	srcs := s.sources.SourcesFor(loc)
	renderJSON(w, r, http.StatusOK, map[string]interface{}{
		"location": loc,
		"sources":  srcs,
	})
}

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC(),
	}
	renderJSON(w, r, http.StatusOK, status)
}

// locationFromQuery builds a normalized location from query parameters
func locationFromQuery(r *http.Request) (domain.Location, error) {
	q := r.URL.Query()
	loc := domain.Location{
		City:    strings.TrimSpace(q.Get("city")),
		Region:  strings.TrimSpace(q.Get("region")),
		Country: strings.TrimSpace(q.Get("country")),
	}
	if loc.City == "" {
		return domain.Location{}, fmt.Errorf("city query parameter is required")
	}
	if nearby := q.Get("nearby"); nearby != "" {
		for _, city := range strings.Split(nearby, ",") {
			if city = strings.TrimSpace(city); city != "" {
				loc.NearbyCities = append(loc.NearbyCities, city)
			}
		}
	}
	return location.Normalize(loc), nil
}

// intQuery parses an integer query parameter with a default
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter %q", name, raw)
	}
	return v, nil
}
