package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/manzanit0/geolocate/pkg/geocode"
	"github.com/manzanit0/geolocate/pkg/geolocation"
)

type PositionController struct {
	host     geolocation.Host
	geocoder geocode.Client
	timeout  time.Duration
}

// NewPositionController serves positions reported by host. geocoder may be
// nil, in which case reverse geocoding requests are ignored.
func NewPositionController(host geolocation.Host, geocoder geocode.Client, timeout time.Duration) *PositionController {
	return &PositionController{host: host, geocoder: geocoder, timeout: timeout}
}

type PositionResponse struct {
	Position   *geolocation.Position `json:"position"`
	Place      *geocode.Place        `json:"place,omitempty"`
	PlaceError string                `json:"place_error,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

func (ctrl *PositionController) GetPosition(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), ctrl.timeout)
	defer cancel()

	position, err := geolocation.Locate(ctx, ctrl.host)
	if err != nil {
		status, body := errorResponse(err)
		slog.WarnContext(ctx, "unable to locate", "error", err.Error(), "status", status)
		c.JSON(status, body)
		return
	}

	res := PositionResponse{Position: position}

	if reverse, _ := strconv.ParseBool(c.Query("reverse")); reverse && ctrl.geocoder != nil {
		place, err := geocode.Describe(ctrl.geocoder, position)
		if err != nil {
			slog.ErrorContext(ctx, "unable to describe position", "error", err.Error())
			res.PlaceError = err.Error()
		} else {
			res.Place = place
		}
	}

	c.JSON(http.StatusOK, res)
}

func errorResponse(err error) (int, ErrorResponse) {
	var positionErr *geolocation.PositionError

	switch {
	case errors.Is(err, geolocation.ErrNotSupported):
		return http.StatusNotImplemented, ErrorResponse{Error: err.Error()}
	case errors.As(err, &positionErr):
		return http.StatusBadGateway, ErrorResponse{Error: positionErr.Message, Code: positionErr.Code}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Error: "timed out waiting for a position"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: err.Error()}
	}
}
