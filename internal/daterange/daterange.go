// Package daterange derives concrete start/end dates from named time-frame
// presets and keeps the selection persisted across restarts.
package daterange

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/ecotrack/energy-dashboard/internal/store"
)

// DateFormat is the wire format for range boundaries.
const DateFormat = "2006-01-02"

// TimeFrame is a named shorthand for a date window relative to today.
type TimeFrame string

const (
	FrameToday      TimeFrame = "today"
	FrameLast7Days  TimeFrame = "last_7_days"
	FrameLast30Days TimeFrame = "last_30_days"
	FrameLast90Days TimeFrame = "last_90_days"
	FrameLastYear   TimeFrame = "last_year"
	FrameCustom     TimeFrame = "custom"
)

// DefaultTimeFrame is used on first run and when restore fails.
const DefaultTimeFrame = FrameLast30Days

// State is the persisted date-range selection.
type State struct {
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
	TimeFrame TimeFrame `json:"timeFrame"`
}

// windowDays maps each named preset to its lookback.
var windowDays = map[TimeFrame]int{
	FrameToday:      0,
	FrameLast7Days:  7,
	FrameLast30Days: 30,
	FrameLast90Days: 90,
	FrameLastYear:   365,
}

// Apply derives the concrete window for a named preset: start = today - N
// days, end = today. Custom is left untouched by preset application, so
// Apply returns ok=false for it and for unknown frames.
func Apply(frame TimeFrame, today time.Time) (State, bool) {
	days, ok := windowDays[frame]
	if !ok {
		return State{}, false
	}
	return State{
		StartDate: today.AddDate(0, 0, -days).Format(DateFormat),
		EndDate:   today.Format(DateFormat),
		TimeFrame: frame,
	}, true
}

// Manager owns the live date-range state, persisting every change.
type Manager struct {
	kv     store.KV
	logger *zap.Logger
	now    func() time.Time
}

// NewManager restores nothing eagerly; callers read via Current.
func NewManager(kv store.KV, logger *zap.Logger) *Manager {
	return &Manager{kv: kv, logger: logger, now: time.Now}
}

// Current returns the persisted state, falling back to the default window
// when nothing is stored or the stored content is malformed.
func (m *Manager) Current(ctx context.Context) State {
	data, ok, err := m.kv.Get(ctx, store.KeyDateRange)
	if err != nil {
		m.logger.Warn("failed to read date range from store", zap.Error(err))
	}
	if ok && err == nil {
		var state State
		if unmarshalErr := json.Unmarshal(data, &state); unmarshalErr == nil && state.StartDate != "" {
			return state
		}
		m.logger.Warn("malformed date range in store, using default")
	}

	state, _ := Apply(DefaultTimeFrame, m.now())
	return state
}

// SetTimeFrame selects a named preset and recomputes the window. Selecting
// custom keeps the current dates and only changes the frame tag.
func (m *Manager) SetTimeFrame(ctx context.Context, frame TimeFrame) (State, error) {
	if frame == FrameCustom {
		state := m.Current(ctx)
		state.TimeFrame = FrameCustom
		return state, m.persist(ctx, state)
	}

	state, ok := Apply(frame, m.now())
	if !ok {
		state, _ = Apply(DefaultTimeFrame, m.now())
	}
	return state, m.persist(ctx, state)
}

// SetDates takes explicit boundaries verbatim. Manual edits always force
// the custom frame.
func (m *Manager) SetDates(ctx context.Context, startDate, endDate string) (State, error) {
	state := State{
		StartDate: startDate,
		EndDate:   endDate,
		TimeFrame: FrameCustom,
	}
	return state, m.persist(ctx, state)
}

func (m *Manager) persist(ctx context.Context, state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return m.kv.Set(ctx, store.KeyDateRange, data)
}
