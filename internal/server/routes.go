package server

import (
	"net/http"
	"time"

	"battguard/internal/core/domain"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.healthCheckHandler)

	return e
}

func (s *Server) healthCheckHandler(c echo.Context) error {
	result, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err == nil {
		if res, ok := result.(domain.ActorHealthResponse); ok && res.Healthy {
			return c.String(http.StatusOK, "health_check: OK")
		}
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}
