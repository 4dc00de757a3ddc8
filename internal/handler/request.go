package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-reservation/internal/booking"
	"github.com/iliyamo/vehicle-reservation/internal/middleware"
	"github.com/iliyamo/vehicle-reservation/internal/model"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// actorOr401 returns the caller or writes a 401 when JWTAuth did not run.
func actorOr401(c echo.Context) (model.Actor, bool, error) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return model.Actor{}, false, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return a, true, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// moment combines a YYYY-MM-DD date and an optional HH:MM clock in loc.
// Without a clock the start of the day is used, or the start of the next
// day when the value closes a range.
func moment(loc *time.Location, date, clock string, closesRange bool) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, err
	}
	clock = strings.TrimSpace(clock)
	if clock == "" {
		if closesRange {
			return d.AddDate(0, 0, 1), nil
		}
		return d, nil
	}
	hm, err := time.Parse(clockLayout, clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hm.Hour(), hm.Minute(), 0, 0, loc), nil
}

// instant accepts either RFC 3339 or a bare date interpreted by moment.
func instant(loc *time.Location, raw string, closesRange bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return moment(loc, raw, "", closesRange)
}

func queryUint(c echo.Context, name string) (*uint64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return nil, &booking.ValidationError{Field: name, Reason: "must be a positive integer"}
	}
	return &v, nil
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &booking.ValidationError{Field: name, Reason: "must be an integer"}
	}
	return v, nil
}

// filterFromQuery builds a booking.Filter from the list query string.
func filterFromQuery(c echo.Context, loc *time.Location) (booking.Filter, error) {
	var f booking.Filter
	var err error
	if s := strings.TrimSpace(c.QueryParam("status")); s != "" {
		st := model.Status(strings.ToLower(s))
		if !st.Valid() {
			return f, &booking.ValidationError{Field: "status", Reason: "unknown status " + s}
		}
		f.Status = &st
	}
	if f.RequesterID, err = queryUint(c, "requester_id"); err != nil {
		return f, err
	}
	if f.DriverID, err = queryUint(c, "driver_id"); err != nil {
		return f, err
	}
	if f.VehicleID, err = queryUint(c, "vehicle_id"); err != nil {
		return f, err
	}
	f.Destination = c.QueryParam("destination")
	f.Purpose = c.QueryParam("purpose")
	for _, p := range []struct {
		name   string
		dst    **time.Time
		closes bool
	}{{"from", &f.From, false}, {"to", &f.To, true}} {
		raw := strings.TrimSpace(c.QueryParam(p.name))
		if raw == "" {
			continue
		}
		t, err := instant(loc, raw, p.closes)
		if err != nil {
			return f, &booking.ValidationError{Field: p.name, Reason: "must be YYYY-MM-DD or RFC 3339"}
		}
		t = t.UTC()
		*p.dst = &t
	}
	if f.Page, err = queryInt(c, "page"); err != nil {
		return f, err
	}
	if f.PageSize, err = queryInt(c, "page_size"); err != nil {
		return f, err
	}
	return f.Normalized(), nil
}
