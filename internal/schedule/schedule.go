package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nathan-osman/go-sunrise"
	"github.com/wheelibin/glow/internal/constants"
	"github.com/wheelibin/glow/internal/glowerrors"
)

const (
	eventSunrise = "sunrise"
	eventSunset  = "sunset"
)

// Resolver turns the on/off time expressions a user types ("07:30", "sunset",
// "sunrise+30m", "sunset-1h") into the HH:MM strings stored on the display document.
type Resolver struct {
	logger      *log.Logger
	lat         float64
	lng         float64
	hasLocation bool
}

// NewResolver reads the location as "lat,lng". An empty location is allowed,
// only the sunrise/sunset expressions need it.
func NewResolver(logger *log.Logger, geoLocation string) (*Resolver, error) {
	r := &Resolver{logger: logger}
	if strings.TrimSpace(geoLocation) == "" {
		return r, nil
	}

	latLng := strings.Split(geoLocation, ",")
	if len(latLng) != 2 {
		return nil, glowerrors.InvalidInputf("geoLocation %q should be lat,lng", geoLocation)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latLng[0]), 64)
	if err != nil {
		return nil, glowerrors.InvalidInputf("geoLocation latitude %q", latLng[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(latLng[1]), 64)
	if err != nil {
		return nil, glowerrors.InvalidInputf("geoLocation longitude %q", latLng[1])
	}

	r.lat, r.lng, r.hasLocation = lat, lng, true
	return r, nil
}

// Resolve returns the HH:MM time for expr on baseDate
func (r *Resolver) Resolve(expr string, baseDate time.Time) (string, error) {
	expr = strings.ToLower(strings.TrimSpace(expr))

	var (
		t   time.Time
		err error
	)
	switch {
	case strings.HasPrefix(expr, eventSunrise), strings.HasPrefix(expr, eventSunset):
		t, err = r.timeFromAstronomicalPatternTime(expr, baseDate)
	default:
		t, err = TimeFromConfigTimeString(expr, baseDate)
	}
	if err != nil {
		return "", err
	}

	resolved := t.Format(constants.ScheduleTimeFormat)
	r.logger.Debug("Resolved schedule time", "expr", expr, "time", resolved)
	return resolved, nil
}

// SunriseSunset returns the local sunrise and sunset for baseDate
func (r *Resolver) SunriseSunset(baseDate time.Time) (time.Time, time.Time, error) {
	if !r.hasLocation {
		return time.Time{}, time.Time{}, glowerrors.InvalidInputf("sunrise/sunset times need a geoLocation")
	}
	rise, set := sunrise.SunriseSunset(
		r.lat, r.lng,
		baseDate.Year(), baseDate.Month(), baseDate.Day(),
	)
	if rise.IsZero() || set.IsZero() {
		return time.Time{}, time.Time{}, glowerrors.InvalidInputf("the sun doesn't rise or set at %v,%v on %s", r.lat, r.lng, baseDate.Format("2006-01-02"))
	}
	return rise.In(baseDate.Location()), set.In(baseDate.Location()), nil
}

// returns an adjusted event time e.g ("sunset-1h", 2023-06-27) -> 2023-06-27 20:43:18 when sunset is 21:43:18
func (r *Resolver) timeFromAstronomicalPatternTime(patternTime string, baseDate time.Time) (time.Time, error) {
	rise, set, err := r.SunriseSunset(baseDate)
	if err != nil {
		return time.Time{}, err
	}

	event, eventTime := eventSunset, set
	if strings.HasPrefix(patternTime, eventSunrise) {
		event, eventTime = eventSunrise, rise
	}

	if patternTime == event {
		return eventTime, nil
	}

	offset, err := time.ParseDuration(patternTime[len(event):])
	if err != nil {
		return time.Time{}, glowerrors.InvalidInputf("offset in %q", patternTime)
	}
	return eventTime.Add(offset), nil
}

// TimeFromConfigTimeString builds a Time from a time string (e.g. "06:30" or "6:5") and a base date
func TimeFromConfigTimeString(timeString string, baseDate time.Time) (time.Time, error) {
	timeHM := strings.Split(timeString, ":")
	if len(timeHM) != 2 {
		return time.Time{}, glowerrors.InvalidInputf("time %q should be H:M", timeString)
	}
	hour, err := strconv.Atoi(timeHM[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, glowerrors.InvalidInputf("hour in %q", timeString)
	}
	mins, err := strconv.Atoi(timeHM[1])
	if err != nil || mins < 0 || mins > 59 {
		return time.Time{}, glowerrors.InvalidInputf("minutes in %q", timeString)
	}
	return time.Date(baseDate.Year(), baseDate.Month(), baseDate.Day(), hour, mins, 0, 0, baseDate.Location()), nil
}

func (r *Resolver) String() string {
	if !r.hasLocation {
		return "no location"
	}
	return fmt.Sprintf("%v,%v", r.lat, r.lng)
}
