package game

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/user/wealth-builder/internal/types"
)

// Snapshot is the whole of a session flattened to string keys and values.
// It is written and restored as a unit.
type Snapshot map[string]string

const snapshotVersion = "1"

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Snapshot captures the session under its lock
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		"version":                 snapshotVersion,
		"player":                  s.playerID,
		"difficulty":              string(s.difficulty),
		"profile":                 string(s.profile.Difficulty),
		"started":                 strconv.FormatBool(s.started),
		"game_over":               strconv.FormatBool(s.gameOver),
		"clock.wall_start":        strconv.FormatInt(s.clock.WallStart, 10),
		"clock.wall_now":          strconv.FormatInt(s.clock.WallNow, 10),
		"clock.elapsed":           strconv.FormatInt(s.clock.Elapsed, 10),
		"clock.last_advance":      strconv.FormatInt(s.clock.LastAdvance, 10),
		"clock.paused":            strconv.FormatBool(s.clock.Paused),
		"last_tick":               strconv.FormatInt(s.lastTick, 10),
		"manual_pause":            strconv.FormatBool(s.manualPause),
		"modal_open":              strconv.FormatBool(s.modalOpen),
		"cash":                    s.ledger.Cash.String(),
		"salary":                  s.salary.String(),
		"months":                  strconv.Itoa(s.months),
		"passive_income":          s.passiveIncome.String(),
		"ai.net_worth":            s.ai.NetWorth.String(),
		"scheduler.last_event_at": strconv.FormatInt(s.scheduler.LastEventAt, 10),
		"event.count":             strconv.Itoa(len(s.events)),
	}

	for id, h := range s.ledger.holdings {
		prefix := "holding." + string(id) + "."
		snap[prefix+"principal"] = h.Principal.String()
		snap[prefix+"profit"] = h.Profit.String()
		snap[prefix+"quantity"] = h.Quantity.String()
	}

	for id, inst := range s.market.instruments {
		prefix := "instrument." + string(id) + "."
		snap[prefix+"price"] = inst.Price.String()
		snap[prefix+"change_pct"] = formatFloat(inst.ChangePct)
		snap[prefix+"annualized"] = formatFloat(inst.AnnualizedReturn)
	}

	for i, entry := range s.events {
		prefix := fmt.Sprintf("event.%d.", i)
		snap[prefix+"id"] = entry.Event.ID
		snap[prefix+"title"] = entry.Event.Title
		snap[prefix+"description"] = entry.Event.Description
		snap[prefix+"cost"] = entry.Event.Cost.String()
		snap[prefix+"kind"] = string(entry.Event.Kind)
		snap[prefix+"game_time"] = strconv.FormatInt(entry.GameTimeMs, 10)
		snap[prefix+"year"] = strconv.Itoa(entry.Year)
		snap[prefix+"month"] = strconv.Itoa(entry.Month)
		snap[prefix+"resolution"] = string(entry.Resolution)
	}

	if s.currentEvent != nil {
		snap["current_event"] = s.currentEvent.ID
	}

	if r := s.result; r != nil {
		snap["result.id"] = r.ID
		snap["result.net_worth"] = r.FinalNetWorth.String()
		snap["result.ai_net_worth"] = r.AINetWorth.String()
		snap["result.passive_income"] = r.PassiveIncome.String()
		snap["result.won"] = strconv.FormatBool(r.Won)
		snap["result.reached_target"] = strconv.FormatBool(r.ReachedTarget)
		snap["result.finished_at"] = strconv.FormatInt(r.FinishedAt.UnixMilli(), 10)
	}

	return snap
}

// snapshotReader collects the first parse error so restore reads straight through
type snapshotReader struct {
	snap Snapshot
	err  error
}

func (r *snapshotReader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, key, err)
	}
}

func (r *snapshotReader) str(key string) string {
	v, ok := r.snap[key]
	if !ok {
		r.fail(key, fmt.Errorf("missing"))
	}
	return v
}

func (r *snapshotReader) dec(key string) decimal.Decimal {
	d, err := decimal.NewFromString(r.str(key))
	if err != nil {
		r.fail(key, err)
	}
	return d
}

func (r *snapshotReader) i64(key string) int64 {
	n, err := strconv.ParseInt(r.str(key), 10, 64)
	if err != nil {
		r.fail(key, err)
	}
	return n
}

func (r *snapshotReader) num(key string) int {
	return int(r.i64(key))
}

func (r *snapshotReader) flag(key string) bool {
	b, err := strconv.ParseBool(r.str(key))
	if err != nil {
		r.fail(key, err)
	}
	return b
}

func (r *snapshotReader) float(key string) float64 {
	f, err := strconv.ParseFloat(r.str(key), 64)
	if err != nil {
		r.fail(key, err)
	}
	return f
}

func (r *snapshotReader) difficulty(key string) types.Difficulty {
	d := types.Difficulty(r.str(key))
	if _, ok := types.Profile(d); !ok {
		r.fail(key, ErrUnknownDifficulty)
	}
	return d
}

// RestoreSession rebuilds a session from a snapshot. Settings and options are
// not part of the snapshot and come from the caller.
func RestoreSession(snap Snapshot, settings Settings, opts ...Option) (*Session, error) {
	r := &snapshotReader{snap: snap}
	if v := r.str("version"); v != snapshotVersion {
		r.fail("version", fmt.Errorf("unsupported version %q", v))
	}

	s := NewSession(r.str("player"), settings, opts...)

	// build the profile-dependent parts for the running game first
	s.difficulty = r.difficulty("profile")
	if r.err != nil {
		return nil, r.err
	}
	s.resetLocked()
	s.difficulty = r.difficulty("difficulty")

	s.started = r.flag("started")
	s.gameOver = r.flag("game_over")
	s.clock = Clock{
		WallStart:   r.i64("clock.wall_start"),
		WallNow:     r.i64("clock.wall_now"),
		Elapsed:     r.i64("clock.elapsed"),
		LastAdvance: r.i64("clock.last_advance"),
		Paused:      r.flag("clock.paused"),
	}
	s.lastTick = r.i64("last_tick")
	s.manualPause = r.flag("manual_pause")
	s.modalOpen = r.flag("modal_open")
	s.ledger.Cash = r.dec("cash")
	s.salary = r.dec("salary")
	s.months = r.num("months")
	s.passiveIncome = r.dec("passive_income")
	s.ai.NetWorth = r.dec("ai.net_worth")
	s.scheduler.LastEventAt = r.i64("scheduler.last_event_at")

	for id, h := range s.ledger.holdings {
		prefix := "holding." + string(id) + "."
		h.Principal = r.dec(prefix + "principal")
		h.Profit = r.dec(prefix + "profit")
		h.Quantity = r.dec(prefix + "quantity")
	}

	for id, inst := range s.market.instruments {
		prefix := "instrument." + string(id) + "."
		inst.Price = r.dec(prefix + "price")
		inst.ChangePct = r.float(prefix + "change_pct")
		inst.AnnualizedReturn = r.float(prefix + "annualized")
	}

	count := r.num("event.count")
	if count < 0 {
		r.fail("event.count", fmt.Errorf("negative"))
	}
	for i := 0; i < count && r.err == nil; i++ {
		prefix := fmt.Sprintf("event.%d.", i)
		s.events = append(s.events, types.EventLogEntry{
			Event: types.GameEvent{
				ID:          r.str(prefix + "id"),
				Title:       r.str(prefix + "title"),
				Description: r.str(prefix + "description"),
				Cost:        r.dec(prefix + "cost"),
				Kind:        types.EventKind(r.str(prefix + "kind")),
			},
			GameTimeMs: r.i64(prefix + "game_time"),
			Year:       r.num(prefix + "year"),
			Month:      r.num(prefix + "month"),
			Resolution: types.Resolution(r.str(prefix + "resolution")),
		})
	}

	if id, ok := snap["current_event"]; ok {
		for i := len(s.events) - 1; i >= 0; i-- {
			if s.events[i].Event.ID == id {
				event := s.events[i].Event
				s.currentEvent = &event
				break
			}
		}
		if s.currentEvent == nil {
			r.fail("current_event", fmt.Errorf("event %q not in log", id))
		}
	}

	if id, ok := snap["result.id"]; ok {
		s.result = &types.Result{
			ID:            id,
			UserID:        s.playerID,
			Difficulty:    s.profile.Difficulty,
			FinalNetWorth: r.dec("result.net_worth"),
			AINetWorth:    r.dec("result.ai_net_worth"),
			PassiveIncome: r.dec("result.passive_income"),
			Won:           r.flag("result.won"),
			ReachedTarget: r.flag("result.reached_target"),
			FinishedAt:    time.UnixMilli(r.i64("result.finished_at")).UTC(),
		}
	}

	if r.err != nil {
		return nil, r.err
	}
	s.ledger.UpdateNetWorth()
	return s, nil
}
