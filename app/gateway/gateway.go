// Package gateway is the synchronous edge: a stateless pass-through
// proxy mapping path prefixes to backend base URLs. No retries, no
// circuit breaking, one fixed base URL per backend.
package gateway

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// Route maps an API path prefix to a backend base URL.
type Route struct {
	Name    string
	Prefix  string
	BaseURL string
}

// Headers forwarded to backends. Everything else is dropped at the edge.
var forwardedHeaders = []string{echo.HeaderContentType, echo.HeaderAuthorization}

type Router struct {
	routes []Route
	client *http.Client
	log    *logrus.Entry
}

// NewRouter builds a gateway router with a per-request timeout.
func NewRouter(routes []Route, timeout time.Duration) *Router {
	return &Router{
		routes: routes,
		client: &http.Client{Timeout: timeout},
		log:    logrus.WithField("component", "gateway"),
	}
}

// Echo wires the router into an Echo server.
func (r *Router) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		r.log.WithError(err).Error("gateway error")
		_ = c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	e.GET("/health", r.health)

	for _, route := range r.routes {
		route := route
		handler := func(c echo.Context) error {
			return r.forward(c, route)
		}
		e.Any(route.Prefix, handler)
		e.Any(route.Prefix+"/*", handler)
	}

	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Route not found"})
	})

	return e
}

// forward relays the request to the backend and the backend's response,
// whatever its status, verbatim to the client. Network failures and
// timeouts become a uniform 503; backend detail is never leaked.
func (r *Router) forward(c echo.Context, route Route) error {
	req := c.Request()

	target := route.BaseURL + req.URL.Path
	if req.URL.RawQuery != "" {
		target += "?" + req.URL.RawQuery
	}

	var body io.Reader
	switch req.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		body = req.Body
	}

	proxyReq, err := http.NewRequestWithContext(req.Context(), req.Method, target, body)
	if err != nil {
		return err
	}
	for _, header := range forwardedHeaders {
		if value := req.Header.Get(header); value != "" {
			proxyReq.Header.Set(header, value)
		}
	}

	r.log.WithFields(logrus.Fields{"method": req.Method, "target": target}).Info("proxying request")

	resp, err := r.client.Do(proxyReq)
	if err != nil {
		r.log.WithError(err).WithField("service", route.Name).Warn("backend unreachable")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Service temporarily unavailable"})
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = echo.MIMEApplicationJSON
	}
	return c.Stream(resp.StatusCode, contentType, resp.Body)
}

// health reports gateway liveness and the configured backends.
func (r *Router) health(c echo.Context) error {
	services := make(map[string]string, len(r.routes))
	for _, route := range r.routes {
		services[route.Name] = route.BaseURL
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  services,
	})
}
