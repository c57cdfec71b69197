package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/wheelibin/glow/internal/colour"
	"github.com/wheelibin/glow/internal/constants"
	"github.com/wheelibin/glow/internal/glowerrors"
	mirroredstate "github.com/wheelibin/glow/internal/mirroredState"
	"github.com/wheelibin/glow/internal/models"
	"github.com/wheelibin/glow/internal/throttle"
)

type documentStore interface {
	Update(ctx context.Context, ref models.DocumentRef, fields models.Fields) error
	Subscribe(ctx context.Context, collection string, documents chan<- models.Document) error
}

type timeResolver interface {
	Resolve(expr string, baseDate time.Time) (string, error)
}

var (
	stateRef   = models.DocumentRef{Collection: constants.CollectionStates, ID: constants.DocumentControlType}
	userRef    = models.DocumentRef{Collection: constants.CollectionUser, ID: constants.DocumentConfig}
	displayRef = models.DocumentRef{Collection: constants.CollectionDisplay, ID: constants.DocumentConfig}
)

// Controller turns user input into document writes and mirrors the documents
// back into a local snapshot. Input handlers and incoming documents are
// handled one at a time.
type Controller struct {
	logger   *log.Logger
	store    documentStore
	resolver timeResolver
	throttle *throttle.Throttle
	now      func() time.Time

	mu       sync.Mutex
	snapshot mirroredstate.Snapshot
}

func NewController(logger *log.Logger, store documentStore, resolver timeResolver) *Controller {
	return &Controller{
		logger:   logger,
		store:    store,
		resolver: resolver,
		throttle: throttle.New(constants.ThrottleWindow),
		now:      time.Now,
	}
}

// SetClock replaces the time source used for throttling and schedule resolution
func (c *Controller) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// ThrottleWindow is the minimum time between two writes of a throttled field
func (c *Controller) ThrottleWindow() time.Duration {
	return c.throttle.Window()
}

func (c *Controller) Snapshot() mirroredstate.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// SelectMode is a discrete action and is written straight away
func (c *Controller) SelectMode(ctx context.Context, mode models.Mode) error {
	if !lo.Contains(models.Modes, mode) {
		return glowerrors.InvalidInputf("mode %q", mode)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(ctx, stateRef, models.Fields{constants.FieldType: mode})
}

// SelectPattern is a discrete action and is written straight away
func (c *Controller) SelectPattern(ctx context.Context, pattern models.Pattern) error {
	if !lo.Contains(models.Patterns, pattern) {
		return glowerrors.InvalidInputf("pattern %q", pattern)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(ctx, displayRef, models.Fields{constants.FieldPattern: pattern})
}

// PickColor handles a color wheel change. Writes are throttled.
func (c *Controller) PickColor(ctx context.Context, hsv models.HSV) (throttle.Result, error) {
	return c.PickHexColor(ctx, colour.FromHsv(hsv))
}

// PickHexColor handles a device color string. A string that isn't #rrggbb is skipped.
func (c *Controller) PickHexColor(ctx context.Context, hex string) (throttle.Result, error) {
	rgb, ok := colour.HexToRGB(hex)
	if !ok {
		c.logger.Debug("color has no value, skipping", "color", hex)
		return throttle.Skipped, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt(ctx, constants.FieldColor, userRef, models.Fields{constants.FieldColor: rgb})
}

type SpeedResults struct {
	Breathe throttle.Result
	Flash   throttle.Result
}

// ChangeSpeeds handles a slider change. Either speed may be nil, each one is
// throttled on its own.
func (c *Controller) ChangeSpeeds(ctx context.Context, breatheSpeed *int, flashSpeed *int) (SpeedResults, error) {
	results := SpeedResults{Breathe: throttle.Skipped, Flash: throttle.Skipped}

	if breatheSpeed != nil && (*breatheSpeed < constants.MinBreatheSpeed || *breatheSpeed > constants.MaxBreatheSpeed) {
		return results, glowerrors.InvalidInputf("breathe speed %d outside %d-%d", *breatheSpeed, constants.MinBreatheSpeed, constants.MaxBreatheSpeed)
	}
	if flashSpeed != nil && (*flashSpeed < constants.MinFlashSpeed || *flashSpeed > constants.MaxFlashSpeed) {
		return results, glowerrors.InvalidInputf("flash speed %d outside %d-%d", *flashSpeed, constants.MinFlashSpeed, constants.MaxFlashSpeed)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var breatheErr, flashErr error
	if breatheSpeed != nil {
		results.Breathe, breatheErr = c.attempt(ctx, constants.FieldBreatheSpeed, displayRef, models.Fields{constants.FieldBreatheSpeed: *breatheSpeed})
	}
	if flashSpeed != nil {
		results.Flash, flashErr = c.attempt(ctx, constants.FieldFlashSpeed, displayRef, models.Fields{constants.FieldFlashSpeed: *flashSpeed})
	}
	return results, errors.Join(breatheErr, flashErr)
}

// SetSchedule confirms the on and/or off time. Both are discrete actions and
// go out in a single write.
func (c *Controller) SetSchedule(ctx context.Context, startTime *string, stopTime *string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	fields := models.Fields{}
	today := c.now()

	for field, expr := range map[string]*string{constants.FieldStartTime: startTime, constants.FieldStopTime: stopTime} {
		if expr == nil {
			continue
		}
		resolved, err := c.resolver.Resolve(*expr, today)
		if err != nil {
			return err
		}
		fields[field] = resolved
	}

	if len(fields) == 0 {
		return glowerrors.InvalidInputf("schedule needs a start or stop time")
	}

	return c.write(ctx, displayRef, fields)
}

// HandleDocument mirrors an incoming document into the snapshot. The throttle is not involved.
func (c *Controller) HandleDocument(doc models.Document) mirroredstate.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := mirroredstate.Apply(c.snapshot, doc)
	if err != nil {
		c.logger.Error(err)
		return c.snapshot
	}
	c.snapshot = next
	return next
}

// Run subscribes to every collection and mirrors changes until ctx is done.
// If snapshots is not nil the snapshot is sent on it after every change.
func (c *Controller) Run(ctx context.Context, snapshots chan<- mirroredstate.Snapshot) error {
	c.logger.Debug("Controller.Run")

	documents := make(chan models.Document)
	for _, collection := range []string{constants.CollectionStates, constants.CollectionUser, constants.CollectionDisplay} {
		if err := c.store.Subscribe(ctx, collection, documents); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Controller.Run: stop signal received")
			return nil

		case doc := <-documents:
			c.logger.Debug("Controller.Run: received document", "ref", doc.Ref())
			snapshot := c.HandleDocument(doc)
			if snapshots != nil {
				select {
				case snapshots <- snapshot:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

// callers hold c.mu
func (c *Controller) attempt(ctx context.Context, field string, ref models.DocumentRef, fields models.Fields) (throttle.Result, error) {
	var err error
	result := c.throttle.Attempt(field, c.now(), func() {
		err = c.write(ctx, ref, fields)
	})
	if result == throttle.Dropped {
		c.logger.Debugf("%s update throttled", field)
	}
	return result, err
}

// callers hold c.mu
func (c *Controller) write(ctx context.Context, ref models.DocumentRef, fields models.Fields) error {
	if err := c.store.Update(ctx, ref, fields); err != nil {
		c.logger.Error("error writing document", "ref", ref, "err", err)
		return err
	}
	return nil
}
