package controller_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wheelibin/glow/internal/constants"
	"github.com/wheelibin/glow/internal/controller"
	"github.com/wheelibin/glow/internal/glowerrors"
	mirroredstate "github.com/wheelibin/glow/internal/mirroredState"
	"github.com/wheelibin/glow/internal/models"
	"github.com/wheelibin/glow/internal/throttle"
	"github.com/wheelibin/glow/mocks"
)

var (
	stateRef   = models.DocumentRef{Collection: constants.CollectionStates, ID: constants.DocumentControlType}
	userRef    = models.DocumentRef{Collection: constants.CollectionUser, ID: constants.DocumentConfig}
	displayRef = models.DocumentRef{Collection: constants.CollectionDisplay, ID: constants.DocumentConfig}
	t0         = time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Set(seconds float64) {
	c.now = t0.Add(time.Duration(seconds * float64(time.Second)))
}

func newController(t *testing.T) (*controller.Controller, *mocks.MockControllerDocumentStore, *mocks.MockControllerTimeResolver, *fakeClock) {
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
	mockStore := mocks.NewMockControllerDocumentStore(t)
	mockResolver := mocks.NewMockControllerTimeResolver(t)
	clock := &fakeClock{now: t0}
	c := controller.NewController(logger, mockStore, mockResolver)
	c.SetClock(clock.Now)
	return c, mockStore, mockResolver, clock
}

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }

func Test_PickColor(t *testing.T) {

	t.Run("drag: first accepted, within window dropped, after window accepted with latest value", func(t *testing.T) {
		t.Parallel()

		// arrange
		c, mockStore, _, clock := newController(t)
		ctx := context.Background()
		mockStore.On("Update", ctx, userRef, models.Fields{"color": models.RGB{R: 10, G: 20, B: 30}}).Return(nil).Once()
		mockStore.On("Update", ctx, userRef, models.Fields{"color": models.RGB{R: 12, G: 22, B: 32}}).Return(nil).Once()

		// act
		clock.Set(0)
		r1, err1 := c.PickHexColor(ctx, "#0a141e")
		clock.Set(0.5)
		r2, err2 := c.PickHexColor(ctx, "#0b151f")
		clock.Set(1.1)
		r3, err3 := c.PickHexColor(ctx, "#0c1620")

		// assert
		assert.NoError(t, errors.Join(err1, err2, err3))
		assert.Equal(t, throttle.Accepted, r1)
		assert.Equal(t, throttle.Dropped, r2)
		assert.Equal(t, throttle.Accepted, r3)
		mockStore.AssertNotCalled(t, "Update", ctx, userRef, models.Fields{"color": models.RGB{R: 11, G: 21, B: 31}})
	})

	t.Run("speed right after a color write is accepted", func(t *testing.T) {
		t.Parallel()

		c, mockStore, _, clock := newController(t)
		ctx := context.Background()
		mockStore.On("Update", ctx, userRef, mock.Anything).Return(nil).Once()
		mockStore.On("Update", ctx, displayRef, models.Fields{"breatheSpeed": 80}).Return(nil).Once()

		clock.Set(1.1)
		_, _ = c.PickHexColor(ctx, "#0c1620")
		results, err := c.ChangeSpeeds(ctx, intPtr(80), nil)

		require.NoError(t, err)
		assert.Equal(t, throttle.Accepted, results.Breathe)
		assert.Equal(t, throttle.Skipped, results.Flash)
	})

	t.Run("malformed color is skipped and doesn't consume the window", func(t *testing.T) {
		t.Parallel()

		c, mockStore, _, clock := newController(t)
		ctx := context.Background()
		mockStore.On("Update", ctx, userRef, models.Fields{"color": models.RGB{R: 26, G: 43, B: 60}}).Return(nil).Once()

		clock.Set(0)
		skipped, err := c.PickHexColor(ctx, "1a2b3")
		require.NoError(t, err)
		clock.Set(0.1)
		accepted, err := c.PickHexColor(ctx, "#1a2b3c")
		require.NoError(t, err)

		assert.Equal(t, throttle.Skipped, skipped)
		assert.Equal(t, throttle.Accepted, accepted)
	})

	t.Run("hsv input is converted to rgb", func(t *testing.T) {
		t.Parallel()

		c, mockStore, _, _ := newController(t)
		ctx := context.Background()
		mockStore.On("Update", ctx, userRef, models.Fields{"color": models.RGB{R: 255, G: 0, B: 0}}).Return(nil).Once()

		result, err := c.PickColor(ctx, models.HSV{H: 0, S: 1, V: 1})

		require.NoError(t, err)
		assert.Equal(t, throttle.Accepted, result)
	})

	t.Run("write failure is returned and still consumes the window", func(t *testing.T) {
		t.Parallel()

		c, mockStore, _, clock := newController(t)
		ctx := context.Background()
		mockStore.On("Update", ctx, userRef, mock.Anything).Return(glowerrors.ErrStoreUnavailable).Once()

		clock.Set(0)
		r1, err := c.PickHexColor(ctx, "#000000")
		assert.Equal(t, throttle.Accepted, r1)
		assert.ErrorIs(t, err, glowerrors.ErrStoreUnavailable)

		clock.Set(0.5)
		r2, err := c.PickHexColor(ctx, "#ffffff")
		assert.Equal(t, throttle.Dropped, r2)
		assert.NoError(t, err)
	})
}

func Test_ChangeSpeeds(t *testing.T) {

	t.Run("breathe and flash speeds are throttled independently", func(t *testing.T) {
		t.Parallel()

		c, mockStore, _, clock := newController(t)
		ctx := context.Background()
		mockStore.On("Update", ctx, displayRef, models.Fields{"breatheSpeed": 40}).Return(nil).Once()
		mockStore.On("Update", ctx, displayRef, models.Fields{"flashSpeed": 300}).Return(nil).Once()
		mockStore.On("Update", ctx, displayRef, models.Fields{"flashSpeed": 360}).Return(nil).Once()

		clock.Set(0)
		first, err := c.ChangeSpeeds(ctx, intPtr(40), nil)
		require.NoError(t, err)
		clock.Set(0.5)
		second, err := c.ChangeSpeeds(ctx, intPtr(45), intPtr(300))
		require.NoError(t, err)
		clock.Set(1.2)
		third, err := c.ChangeSpeeds(ctx, nil, intPtr(350))
		require.NoError(t, err)
		clock.Set(1.55)
		fourth, err := c.ChangeSpeeds(ctx, nil, intPtr(360))
		require.NoError(t, err)

		assert.Equal(t, controller.SpeedResults{Breathe: throttle.Accepted, Flash: throttle.Skipped}, first)
		assert.Equal(t, controller.SpeedResults{Breathe: throttle.Dropped, Flash: throttle.Accepted}, second)
		// flash was last written at 0.5, so 1.2 is dropped and 1.55 is accepted
		assert.Equal(t, controller.SpeedResults{Breathe: throttle.Skipped, Flash: throttle.Dropped}, third)
		assert.Equal(t, controller.SpeedResults{Breathe: throttle.Skipped, Flash: throttle.Accepted}, fourth)
	})

	t.Run("a failed breathe write doesn't stop the flash write", func(t *testing.T) {
		t.Parallel()

		c, mockStore, _, _ := newController(t)
		ctx := context.Background()
		mockStore.On("Update", ctx, displayRef, models.Fields{constants.FieldBreatheSpeed: 40}).Return(glowerrors.ErrStoreUnavailable).Once()
		mockStore.On("Update", ctx, displayRef, models.Fields{constants.FieldFlashSpeed: 300}).Return(nil).Once()

		results, err := c.ChangeSpeeds(ctx, intPtr(40), intPtr(300))

		assert.ErrorIs(t, err, glowerrors.ErrStoreUnavailable)
		assert.Equal(t, controller.SpeedResults{Breathe: throttle.Accepted, Flash: throttle.Accepted}, results)
		mockStore.AssertExpectations(t)
	})

	t.Run("out of range speeds are rejected without a write", func(t *testing.T) {
		t.Parallel()

		c, mockStore, _, _ := newController(t)
		ctx := context.Background()

		_, err := c.ChangeSpeeds(ctx, intPtr(9), nil)
		assert.True(t, glowerrors.IsInvalidInput(err))
		_, err = c.ChangeSpeeds(ctx, nil, intPtr(501))
		assert.True(t, glowerrors.IsInvalidInput(err))
		mockStore.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})
}

func Test_DiscreteActions(t *testing.T) {

	t.Run("mode switches are never throttled", func(t *testing.T) {
		t.Parallel()

		c, mockStore, _, clock := newController(t)
		ctx := context.Background()
		mockStore.On("Update", ctx, stateRef, models.Fields{"type": models.ModeParty}).Return(nil).Twice()

		clock.Set(0)
		require.NoError(t, c.SelectMode(ctx, models.ModeParty))
		clock.Set(0.01)
		require.NoError(t, c.SelectMode(ctx, models.ModeParty))
	})

	t.Run("patterns are never throttled", func(t *testing.T) {
		t.Parallel()

		c, mockStore, _, _ := newController(t)
		ctx := context.Background()
		mockStore.On("Update", ctx, displayRef, models.Fields{"pattern": models.PatternFlash}).Return(nil).Once()
		mockStore.On("Update", ctx, displayRef, models.Fields{"pattern": models.PatternOff}).Return(nil).Once()

		require.NoError(t, c.SelectPattern(ctx, models.PatternFlash))
		require.NoError(t, c.SelectPattern(ctx, models.PatternOff))
	})

	t.Run("unknown mode or pattern is rejected", func(t *testing.T) {
		t.Parallel()

		c, _, _, _ := newController(t)
		assert.True(t, glowerrors.IsInvalidInput(c.SelectMode(context.Background(), "DISCO")))
		assert.True(t, glowerrors.IsInvalidInput(c.SelectPattern(context.Background(), "STROBE")))
	})

	t.Run("write errors are returned", func(t *testing.T) {
		t.Parallel()

		c, mockStore, _, _ := newController(t)
		mockStore.On("Update", mock.Anything, stateRef, mock.Anything).Return(errors.New("an error"))

		err := c.SelectMode(context.Background(), models.ModeWeather)

		assert.EqualError(t, err, "an error")
	})

	t.Run("schedule writes resolved times in one update", func(t *testing.T) {
		t.Parallel()

		c, mockStore, mockResolver, _ := newController(t)
		ctx := context.Background()
		mockResolver.On("Resolve", "sunset-1h", t0).Return("15:02", nil)
		mockResolver.On("Resolve", "23:00", t0).Return("23:00", nil)
		mockStore.On("Update", ctx, displayRef, models.Fields{"startTime": "15:02", "stopTime": "23:00"}).Return(nil).Once()

		err := c.SetSchedule(ctx, strPtr("sunset-1h"), strPtr("23:00"))

		assert.NoError(t, err)
	})

	t.Run("schedule with only a stop time", func(t *testing.T) {
		t.Parallel()

		c, mockStore, mockResolver, _ := newController(t)
		ctx := context.Background()
		mockResolver.On("Resolve", "6:30", t0).Return("06:30", nil)
		mockStore.On("Update", ctx, displayRef, models.Fields{"stopTime": "06:30"}).Return(nil).Once()

		assert.NoError(t, c.SetSchedule(ctx, nil, strPtr("6:30")))
	})

	t.Run("schedule resolution errors stop the write", func(t *testing.T) {
		t.Parallel()

		c, mockStore, mockResolver, _ := newController(t)
		mockResolver.On("Resolve", "25:00", t0).Return("", glowerrors.InvalidInputf("hour"))

		err := c.SetSchedule(context.Background(), strPtr("25:00"), nil)

		assert.True(t, glowerrors.IsInvalidInput(err))
		mockStore.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		assert.True(t, glowerrors.IsInvalidInput(c.SetSchedule(context.Background(), nil, nil)))
	})
}

func Test_MirroredState(t *testing.T) {

	t.Run("external documents overwrite the snapshot but not the throttle", func(t *testing.T) {
		t.Parallel()

		c, mockStore, _, clock := newController(t)
		ctx := context.Background()
		mockStore.On("Update", ctx, userRef, mock.Anything).Return(nil).Once()

		clock.Set(0)
		_, _ = c.PickHexColor(ctx, "#010203")
		snapshot := c.HandleDocument(models.Document{Collection: "user", ID: "config", Data: []byte(`{"color":{"r":200,"g":100,"b":50}}`)})
		clock.Set(0.5)
		result, err := c.PickHexColor(ctx, "#040506")

		require.NoError(t, err)
		assert.Equal(t, models.RGB{R: 200, G: 100, B: 50}, snapshot.Color)
		assert.Equal(t, snapshot, c.Snapshot())
		assert.Equal(t, throttle.Dropped, result)
	})

	t.Run("run should mirror documents from every collection", func(t *testing.T) {
		t.Parallel()

		// arrange
		c, mockStore, _, _ := newController(t)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		push := func(doc models.Document) func(mock.Arguments) {
			return func(args mock.Arguments) {
				documents := args.Get(2).(chan<- models.Document)
				go func() { documents <- doc }()
			}
		}
		mockStore.On("Subscribe", mock.Anything, "states", mock.Anything).
			Run(push(models.Document{Collection: "states", ID: "control_type", Data: []byte(`{"type":"WEATHER"}`)})).Return(nil)
		mockStore.On("Subscribe", mock.Anything, "user", mock.Anything).
			Run(push(models.Document{Collection: "user", ID: "config", Data: []byte(`{"color":{"r":1,"g":2,"b":3}}`)})).Return(nil)
		mockStore.On("Subscribe", mock.Anything, "display", mock.Anything).
			Run(push(models.Document{Collection: "display", ID: "config", Data: []byte(`{"pattern":"BREATHE","breatheSpeed":60}`)})).Return(nil)

		snapshots := make(chan mirroredstate.Snapshot)
		done := make(chan error, 1)

		// act
		go func() { done <- c.Run(ctx, snapshots) }()
		for i := 0; i < 3; i++ {
			select {
			case <-snapshots:
			case <-ctx.Done():
				t.Fatal("timed out waiting for snapshots")
			}
		}
		cancel()

		// assert
		assert.NoError(t, <-done)
		assert.Equal(t, mirroredstate.Snapshot{
			Mode:         models.ModeWeather,
			Color:        models.RGB{R: 1, G: 2, B: 3},
			Pattern:      models.PatternBreathe,
			BreatheSpeed: 60,
		}, c.Snapshot())
	})

	t.Run("run should fail if a subscription fails", func(t *testing.T) {
		t.Parallel()

		c, mockStore, _, _ := newController(t)
		mockStore.On("Subscribe", mock.Anything, "states", mock.Anything).Return(glowerrors.ErrStoreUnavailable)

		err := c.Run(context.Background(), nil)

		assert.ErrorIs(t, err, glowerrors.ErrStoreUnavailable)
	})
}

func Test_SetClock(t *testing.T) {

	t.Run("throttle window is one second", func(t *testing.T) {
		c, _, _, _ := newController(t)
		assert.Equal(t, time.Second, c.ThrottleWindow())
	})

	t.Run("clock can be swapped while schedules are being set", func(t *testing.T) {
		c, mockStore, mockResolver, _ := newController(t)
		ctx := context.Background()
		mockResolver.On("Resolve", "07:00", mock.Anything).Return("07:00", nil)
		mockStore.On("Update", ctx, displayRef, models.Fields{constants.FieldStartTime: "07:00"}).Return(nil)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				c.SetClock(func() time.Time { return t0 })
			}()
			go func() {
				defer wg.Done()
				assert.NoError(t, c.SetSchedule(ctx, strPtr("07:00"), nil))
			}()
		}
		wg.Wait()

		mockStore.AssertNumberOfCalls(t, "Update", 10)
	})
}
