package recast

import (
	"time"

	"github.com/gorustyt/gonavtile/common/logger"
	"go.uber.org/zap"
)

// / Recast log categories.
type RcLogCategory int

const (
	RC_LOG_PROGRESS RcLogCategory = iota + 1 ///< A progress log entry.
	RC_LOG_WARNING                           ///< A warning log entry.
	RC_LOG_ERROR                             ///< An error log entry.
)

// / Recast performance timer categories.
type RcTimerLabel int

const (
	/// The user defined total time of the build.
	RC_TIMER_TOTAL RcTimerLabel = iota
	/// A user defined build time.
	RC_TIMER_TEMP
	/// The time to rasterize the triangles.
	RC_TIMER_RASTERIZE_TRIANGLES
	/// The time to build the compact heightfield.
	RC_TIMER_BUILD_COMPACTHEIGHTFIELD
	/// The total time to build the contours.
	RC_TIMER_BUILD_CONTOURS
	/// The time to trace the boundaries of the contours.
	RC_TIMER_BUILD_CONTOURS_TRACE
	/// The time to simplify the contours.
	RC_TIMER_BUILD_CONTOURS_SIMPLIFY
	/// The time to filter ledge spans.
	RC_TIMER_FILTER_BORDER
	/// The time to filter low height spans.
	RC_TIMER_FILTER_WALKABLE
	/// The time to filter low obstacles.
	RC_TIMER_FILTER_LOW_OBSTACLES
	/// The time to erode the walkable area.
	RC_TIMER_ERODE_AREA
	/// The total time to build the distance field.
	RC_TIMER_BUILD_DISTANCEFIELD
	/// The time to build the distances of the distance field.
	RC_TIMER_BUILD_DISTANCEFIELD_DIST
	/// The time to blur the distance field.
	RC_TIMER_BUILD_DISTANCEFIELD_BLUR
	/// The total time to build the regions.
	RC_TIMER_BUILD_REGIONS
	/// The total time to apply the watershed algorithm.
	RC_TIMER_BUILD_REGIONS_WATERSHED
	/// The time to expand regions while applying the watershed algorithm.
	RC_TIMER_BUILD_REGIONS_EXPAND
	/// The time to flood regions while applying the watershed algorithm.
	RC_TIMER_BUILD_REGIONS_FLOOD
	/// The time to filter out small regions.
	RC_TIMER_BUILD_REGIONS_FILTER
	/// The time to build the polygon mesh.
	RC_TIMER_BUILD_POLYMESH
	/// The time to build the polygon mesh detail.
	RC_TIMER_BUILD_POLYMESHDETAIL
	/// The maximum number of timers.  (Used for iterating timers.)
	RC_MAX_TIMERS
)

var timerNames = [RC_MAX_TIMERS]string{
	"total", "temp", "rasterize", "compact", "contours", "contours_trace", "contours_simplify",
	"filter_border", "filter_walkable", "filter_low_obstacles", "erode", "distance_field",
	"distance_field_dist", "distance_field_blur", "regions", "regions_watershed", "regions_expand",
	"regions_flood", "regions_filter", "polymesh", "polymesh_detail",
}

func (l RcTimerLabel) String() string {
	if l < 0 || l >= RC_MAX_TIMERS {
		return "unknown"
	}
	return timerNames[l]
}

// / Provides an interface for optional logging and performance tracking of the Recast
// / build process.
// /
// / A nil *RcContext is valid and disables both logging and timing.
type RcContext struct {
	log          *zap.Logger
	timerEnabled bool
	startTime    [RC_MAX_TIMERS]time.Time
	accTime      [RC_MAX_TIMERS]time.Duration
}

// NewRcContext returns a context that logs through log, or through the
// package default logger when log is nil.
func NewRcContext(log *zap.Logger, timers bool) *RcContext {
	if log == nil {
		log = logger.Default()
	}
	ctx := &RcContext{log: log, timerEnabled: timers}
	ctx.ResetTimers()
	return ctx
}

// / Logs a message.
func (ctx *RcContext) Log(category RcLogCategory, msg string, fields ...zap.Field) {
	if ctx == nil || ctx.log == nil {
		return
	}
	switch category {
	case RC_LOG_ERROR:
		ctx.log.Error(msg, fields...)
	case RC_LOG_WARNING:
		ctx.log.Warn(msg, fields...)
	default:
		ctx.log.Debug(msg, fields...)
	}
}

// Logger returns the underlying zap logger, never nil.
func (ctx *RcContext) Logger() *zap.Logger {
	if ctx == nil || ctx.log == nil {
		return zap.NewNop()
	}
	return ctx.log
}

// / Clears all performance timers. (Resets all to unused.)
func (ctx *RcContext) ResetTimers() {
	if ctx == nil {
		return
	}
	for i := range ctx.accTime {
		ctx.accTime[i] = -1
	}
}

// / Starts the specified performance timer.
func (ctx *RcContext) StartTimer(label RcTimerLabel) {
	if ctx == nil || !ctx.timerEnabled {
		return
	}
	ctx.startTime[label] = time.Now()
}

// / Stops the specified performance timer.
func (ctx *RcContext) StopTimer(label RcTimerLabel) {
	if ctx == nil || !ctx.timerEnabled {
		return
	}
	delta := time.Since(ctx.startTime[label])
	if ctx.accTime[label] < 0 {
		ctx.accTime[label] = delta
	} else {
		ctx.accTime[label] += delta
	}
}

// / Returns the total accumulated time of the specified performance timer.
// / @return The accumulated time of the timer, or -1 if timers are disabled or the timer has never been started.
func (ctx *RcContext) GetAccumulatedTime(label RcTimerLabel) time.Duration {
	if ctx == nil || !ctx.timerEnabled {
		return -1
	}
	return ctx.accTime[label]
}

// TimerFields returns every started timer as zap fields, for a one line build summary.
func (ctx *RcContext) TimerFields() []zap.Field {
	if ctx == nil || !ctx.timerEnabled {
		return nil
	}
	var fields []zap.Field
	for i := RcTimerLabel(0); i < RC_MAX_TIMERS; i++ {
		if ctx.accTime[i] > 0 {
			fields = append(fields, zap.Duration(i.String(), ctx.accTime[i]))
		}
	}
	return fields
}
