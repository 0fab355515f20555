// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracker

import (
	"errors"

	"go.uber.org/zap"

	"github.com/tuulbelt/cli-progress-reporting/internal/clock"
	progerrors "github.com/tuulbelt/cli-progress-reporting/internal/errors"
	"github.com/tuulbelt/cli-progress-reporting/internal/state"
)

// DefaultID is the tracker identifier used when a caller does not name one.
const DefaultID = "default"

// Config configures a Tracker.
type Config struct {
	// Store performs the file operations. When nil a store rooted at Dir is
	// created.
	Store *state.Store

	// Dir is the base directory used when Store is nil. Empty means the
	// platform temporary directory.
	Dir string

	// Logger receives debug output. Defaults to a no-op logger.
	Logger *zap.Logger

	// Clock stamps startTime and updatedTime. Defaults to the system clock.
	Clock clock.Clock

	// MaxMessageLength bounds messages in runes. Defaults to
	// state.DefaultMaxMessageLength.
	MaxMessageLength int

	// Monotonic rejects Set calls that would lower current.
	Monotonic bool
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Store == nil {
		c.Store = state.NewStore(state.Config{Dir: c.Dir, Logger: c.Logger})
	}
	c.Clock = clock.OrSystem(c.Clock)
	if c.MaxMessageLength <= 0 {
		c.MaxMessageLength = state.DefaultMaxMessageLength
	}
	return c
}

// Tracker is a handle on one progress entity. It caches nothing between
// calls. Callers must serialize calls on the same Tracker.
type Tracker struct {
	id     string
	cfg    Config
	logger *zap.Logger
}

// New returns a handle for tracker id. The id is validated before any
// filesystem access; no file is created until Init.
func New(id string, cfg Config) (*Tracker, error) {
	if err := state.ValidateID("id", id); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	return &Tracker{
		id:     id,
		cfg:    cfg,
		logger: cfg.Logger.With(zap.String("tracker", id)),
	}, nil
}

// ID returns the tracker identifier.
func (t *Tracker) ID() string {
	return t.id
}

// Path returns the backing file path, resolved against the current base
// directory.
func (t *Tracker) Path() string {
	return t.cfg.Store.ProgressPath(t.id)
}

// MaxMessageLength returns the longest message, in runes, this tracker
// accepts.
func (t *Tracker) MaxMessageLength() int {
	return t.cfg.MaxMessageLength
}

// UpdateOption modifies an Increment, Set or Finish call.
type UpdateOption func(*update)

type update struct {
	message    string
	hasMessage bool
}

// WithMessage replaces the tracker message as part of the update.
func WithMessage(message string) UpdateOption {
	return func(u *update) {
		u.message = message
		u.hasMessage = true
	}
}

func (t *Tracker) options(opts []UpdateOption) (update, error) {
	var u update
	for _, opt := range opts {
		opt(&u)
	}
	if u.hasMessage {
		if err := state.ValidateMessage(u.message, t.cfg.MaxMessageLength); err != nil {
			return update{}, err
		}
	}
	return u, nil
}

// Init creates the entity with current 0 and writes it, replacing any
// previous state for this id. It refuses to replace a file that holds a
// group aggregate.
func (t *Tracker) Init(total int, message string) (state.Progress, error) {
	if total <= 0 {
		return state.Progress{}, progerrors.Validation("total", "must be a positive integer, got %d", total)
	}
	if err := state.ValidateMessage(message, t.cfg.MaxMessageLength); err != nil {
		return state.Progress{}, err
	}
	if err := t.checkGroupFile(); err != nil {
		return state.Progress{}, err
	}

	now := t.now()
	p := state.Progress{
		Total:       total,
		Current:     0,
		Message:     message,
		Percentage:  0,
		StartTime:   now,
		UpdatedTime: now,
		Complete:    false,
	}
	if err := t.cfg.Store.WriteProgress(t.Path(), p); err != nil {
		return state.Progress{}, err
	}
	t.logger.Debug("tracker initialized", zap.Int("total", total))
	return p, nil
}

func (t *Tracker) checkGroupFile() error {
	group, ok := state.SharedGroupFile(t.id)
	if !ok {
		return nil
	}
	data, err := t.cfg.Store.Read(t.Path())
	if errors.Is(err, progerrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := state.DecodeGroup(data); err == nil {
		return progerrors.Validation("id", "%q would overwrite the aggregate of group %q", t.id, group)
	}
	return nil
}

// Increment adds amount to current, clamped to total.
func (t *Tracker) Increment(amount int, opts ...UpdateOption) (state.Progress, error) {
	if amount < 0 {
		return state.Progress{}, progerrors.Validation("amount", "must not be negative, got %d", amount)
	}
	u, err := t.options(opts)
	if err != nil {
		return state.Progress{}, err
	}
	return t.mutate(u, func(p state.Progress) (int, error) {
		// Guard against overflow on very large amounts.
		if amount > p.Total-p.Current {
			return p.Total, nil
		}
		return p.Current + amount, nil
	})
}

// Set replaces current with value, clamped to total. Lowering current is
// allowed unless the tracker is configured as monotonic.
func (t *Tracker) Set(value int, opts ...UpdateOption) (state.Progress, error) {
	if value < 0 {
		return state.Progress{}, progerrors.Validation("value", "must not be negative, got %d", value)
	}
	u, err := t.options(opts)
	if err != nil {
		return state.Progress{}, err
	}
	return t.mutate(u, func(p state.Progress) (int, error) {
		next := min(value, p.Total)
		if t.cfg.Monotonic && next < p.Current {
			return 0, progerrors.Validation("value", "%d would move progress backwards from %d", value, p.Current)
		}
		return next, nil
	})
}

// Finish forces the tracker to completion. Finishing an already complete
// tracker without a new message is a no-op that returns the stored state.
func (t *Tracker) Finish(opts ...UpdateOption) (state.Progress, error) {
	u, err := t.options(opts)
	if err != nil {
		return state.Progress{}, err
	}

	p, err := t.Get()
	if err != nil {
		return state.Progress{}, err
	}
	if p.Complete && p.Current == p.Total && !u.hasMessage {
		return p, nil
	}

	p.Current = p.Total
	p.Percentage = 100
	p.Complete = true
	if u.hasMessage {
		p.Message = u.message
	}
	p.UpdatedTime = max(t.now(), p.StartTime)

	if err := t.cfg.Store.WriteProgress(t.Path(), p); err != nil {
		return state.Progress{}, err
	}
	t.logger.Debug("tracker finished")
	return p, nil
}

// Get reads the current entity. It fails with errors.ErrNotFound when the
// tracker was never initialized or has been cleared.
func (t *Tracker) Get() (state.Progress, error) {
	p, err := t.cfg.Store.ReadProgress(t.Path())
	if errors.Is(err, progerrors.ErrNotFound) {
		return state.Progress{}, progerrors.NotFound("tracker", t.id)
	}
	if err != nil {
		return state.Progress{}, err
	}
	return p, nil
}

// Clear deletes the backing file. Clearing a tracker that does not exist
// succeeds.
func (t *Tracker) Clear() error {
	if err := t.cfg.Store.Remove(t.Path()); err != nil {
		return err
	}
	t.logger.Debug("tracker cleared")
	return nil
}

func (t *Tracker) mutate(u update, next func(state.Progress) (int, error)) (state.Progress, error) {
	p, err := t.Get()
	if err != nil {
		return state.Progress{}, err
	}

	current, err := next(p)
	if err != nil {
		return state.Progress{}, err
	}
	p.Current = current
	p.Percentage = state.Percentage(current, p.Total)
	p.Complete = current >= p.Total
	if u.hasMessage {
		p.Message = u.message
	}
	p.UpdatedTime = max(t.now(), p.StartTime)

	if err := t.cfg.Store.WriteProgress(t.Path(), p); err != nil {
		return state.Progress{}, err
	}
	t.logger.Debug("tracker updated", zap.Int("current", p.Current), zap.Int("total", p.Total))
	return p, nil
}

func (t *Tracker) now() int64 {
	return t.cfg.Clock.Now().UnixMilli()
}
