// Package router keeps the wallet's current location and its history.
package router

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
)

var (
	ErrUnknownRoute = errors.New("unknown route")
	ErrMissingParam = errors.New("missing route parameter")
)

// Location is a resolved route
type Location struct {
	Name   string            `json:"name"`
	Path   string            `json:"path"`
	Params map[string]string `json:"params,omitempty"`
	Query  url.Values        `json:"query,omitempty"`
}

// Router tracks navigation over a fixed route table
type Router struct {
	mu        sync.RWMutex
	routes    map[string]Route
	history   []Location
	listeners []func(Location)
	logger    *slog.Logger
}

// Option configures a Router
type Option func(*Router)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// New creates a router positioned at the home route if it exists
func New(routes []Route, opts ...Option) *Router {
	r := &Router{
		routes: make(map[string]Route, len(routes)),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, route := range routes {
		r.routes[route.Name] = route
	}
	if home, exists := r.routes[RouteHome]; exists {
		r.history = append(r.history, Location{Name: home.Name, Path: home.Path})
	}
	return r
}

// OnChange registers a callback run after every navigation
func (r *Router) OnChange(fn func(Location)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Resolve builds the path of a named route
func (r *Router) Resolve(name string, params map[string]string, query url.Values) (Location, error) {
	r.mu.RLock()
	route, exists := r.routes[name]
	r.mu.RUnlock()
	if !exists {
		return Location{}, fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}

	segments := strings.Split(route.Path, "/")
	resolved := make([]string, 0, len(segments))
	for _, segment := range segments {
		if !strings.HasPrefix(segment, ":") {
			resolved = append(resolved, segment)
			continue
		}
		key := strings.TrimPrefix(segment, ":")
		optional := strings.HasSuffix(key, "?")
		key = strings.TrimSuffix(key, "?")

		value, ok := params[key]
		if !ok || value == "" {
			if optional {
				continue
			}
			return Location{}, fmt.Errorf("%w: %q for route %q", ErrMissingParam, key, name)
		}
		resolved = append(resolved, url.PathEscape(value))
	}

	path := strings.Join(resolved, "/")
	if path == "" {
		path = "/"
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	return Location{Name: name, Path: path, Params: params, Query: query}, nil
}

// Replace swaps the current location without adding a history entry
func (r *Router) Replace(name string, params map[string]string, query url.Values) error {
	loc, err := r.Resolve(name, params, query)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if len(r.history) == 0 {
		r.history = append(r.history, loc)
	} else {
		r.history[len(r.history)-1] = loc
	}
	listeners := append(([]func(Location))(nil), r.listeners...)
	r.mu.Unlock()

	r.logger.Debug("route replaced", "name", name, "path", loc.Path)
	for _, fn := range listeners {
		fn(loc)
	}
	return nil
}

// Push navigates to a new location and records it in history
func (r *Router) Push(name string, params map[string]string, query url.Values) error {
	loc, err := r.Resolve(name, params, query)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.history = append(r.history, loc)
	listeners := append(([]func(Location))(nil), r.listeners...)
	r.mu.Unlock()

	r.logger.Debug("route pushed", "name", name, "path", loc.Path)
	for _, fn := range listeners {
		fn(loc)
	}
	return nil
}

// Back drops the current location. It reports false at the first entry.
func (r *Router) Back() (Location, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.history) < 2 {
		return r.currentLocked(), false
	}
	r.history = r.history[:len(r.history)-1]
	return r.currentLocked(), true
}

// Current returns the current location
func (r *Router) Current() Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.currentLocked()
}

func (r *Router) currentLocked() Location {
	if len(r.history) == 0 {
		return Location{}
	}
	return r.history[len(r.history)-1]
}

// History returns a copy of the navigation history, oldest first
func (r *Router) History() []Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Location(nil), r.history...)
}

// Routes returns the route table
func (r *Router) Routes() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make([]Route, 0, len(r.routes))
	for _, route := range r.routes {
		routes = append(routes, route)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].Name < routes[j].Name })
	return routes
}
