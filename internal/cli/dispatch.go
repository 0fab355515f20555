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

package cli

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tuulbelt/cli-progress-reporting/internal/clock"
	"github.com/tuulbelt/cli-progress-reporting/internal/config"
	progerrors "github.com/tuulbelt/cli-progress-reporting/internal/errors"
	"github.com/tuulbelt/cli-progress-reporting/internal/group"
	"github.com/tuulbelt/cli-progress-reporting/internal/output"
	"github.com/tuulbelt/cli-progress-reporting/internal/retry"
	"github.com/tuulbelt/cli-progress-reporting/internal/state"
	"github.com/tuulbelt/cli-progress-reporting/internal/tracker"
)

// Env carries everything a command needs. Only Printer is required.
type Env struct {
	Config  *config.Config
	Store   *state.Store
	Clock   clock.Clock
	Logger  *zap.Logger
	Printer output.Printer
	// Retry applies to single-tracker commands and group status. Nil
	// disables retries.
	Retry *retry.Config
}

func (e Env) withDefaults() Env {
	if e.Config == nil {
		e.Config = config.DefaultConfig()
	}
	if e.Logger == nil {
		e.Logger = zap.NewNop()
	}
	if e.Store == nil {
		e.Store = state.NewStore(state.Config{Dir: e.Config.State.Dir, Logger: e.Logger})
	}
	e.Clock = clock.OrSystem(e.Clock)
	policy := retry.Config{}
	if e.Retry != nil {
		policy = *e.Retry
	}
	if policy.Logger == nil {
		policy.Logger = e.Logger
	}
	e.Retry = &policy
	return e
}

func (e Env) trackerConfig(id string) tracker.Config {
	return tracker.Config{
		Store:            e.Store,
		Logger:           e.Logger,
		Clock:            e.Clock,
		MaxMessageLength: e.Config.MaxMessageLengthFor(id),
		Monotonic:        e.Config.MonotonicFor(id),
	}
}

// Dispatch executes cmd and renders its result through env.Printer.
func Dispatch(ctx context.Context, env Env, cmd Command) error {
	if env.Printer == nil {
		return fmt.Errorf("dispatch %T: no printer configured", cmd)
	}
	env = env.withDefaults()
	env.Logger.Debug("dispatching command", zap.String("command", fmt.Sprintf("%T", cmd)))

	switch c := cmd.(type) {
	case Init:
		return env.progress(ctx, c.ID, func(tr *tracker.Tracker) (state.Progress, error) {
			return tr.Init(c.Total, c.Message)
		})
	case Increment:
		return env.progress(ctx, c.ID, func(tr *tracker.Tracker) (state.Progress, error) {
			return tr.Increment(c.Amount, messageOption(c.Message)...)
		})
	case Set:
		return env.progress(ctx, c.ID, func(tr *tracker.Tracker) (state.Progress, error) {
			return tr.Set(c.Value, messageOption(c.Message)...)
		})
	case Finish:
		return env.progress(ctx, c.ID, func(tr *tracker.Tracker) (state.Progress, error) {
			return tr.Finish(messageOption(c.Message)...)
		})
	case Get:
		return env.progress(ctx, c.ID, (*tracker.Tracker).Get)
	case Clear:
		tr, err := tracker.New(c.ID, env.trackerConfig(c.ID))
		if err != nil {
			return err
		}
		if err := retry.Do(ctx, env.Retry, tr.Clear); err != nil {
			return err
		}
		return env.Printer.Done("cleared", c.ID)
	case List:
		return env.list()
	case GroupInit:
		r, err := env.openGroup(c.Group, true)
		if err != nil {
			return err
		}
		g, err := r.Status()
		if err != nil {
			return err
		}
		return env.Printer.Group(c.Group, g)
	case GroupAdd:
		return env.groupAdd(c)
	case GroupStatus:
		r, err := env.openGroup(c.Group, false)
		if err != nil {
			return err
		}
		g, err := retry.DoValue(ctx, env.Retry, r.Status)
		if err != nil {
			return err
		}
		return env.Printer.Group(c.Group, g)
	case GroupDone:
		r, err := env.openGroup(c.Group, false)
		if err != nil {
			return err
		}
		if _, err := r.Reconcile(); err != nil {
			return err
		}
		return env.printGroup(c.Group, r.Done)
	case GroupSync:
		r, err := env.openGroup(c.Group, false)
		if err != nil {
			return err
		}
		return env.printGroup(c.Group, r.Sync)
	case GroupClear:
		r, err := env.openGroup(c.Group, false)
		if err != nil {
			return err
		}
		if _, err := r.Reconcile(); err != nil {
			return err
		}
		if err := r.Clear(); err != nil {
			return err
		}
		return env.Printer.Done("cleared", c.Group)
	case GroupRemove:
		r, err := env.openGroup(c.Group, false)
		if err != nil {
			return err
		}
		if err := r.Remove(c.Tracker); err != nil {
			return err
		}
		return env.Printer.Done("removed", c.Tracker)
	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
}

func messageOption(message *string) []tracker.UpdateOption {
	if message == nil {
		return nil
	}
	return []tracker.UpdateOption{tracker.WithMessage(*message)}
}

func (e Env) progress(ctx context.Context, id string, op func(*tracker.Tracker) (state.Progress, error)) error {
	tr, err := tracker.New(id, e.trackerConfig(id))
	if err != nil {
		return err
	}
	p, err := retry.DoValue(ctx, e.Retry, func() (state.Progress, error) {
		return op(tr)
	})
	if err != nil {
		return err
	}
	return e.Printer.Progress(id, p)
}

func (e Env) list() error {
	trackers, err := e.Store.ListTrackers()
	if err != nil {
		return err
	}
	groups, err := e.Store.ListGroups()
	if err != nil {
		return err
	}
	if err := e.Printer.IDs("trackers", trackers); err != nil {
		return err
	}
	return e.Printer.IDs("groups", groups)
}

// openGroup returns a registry for id. Unless create is set, a group without
// an aggregate file is reported as not found instead of being created.
func (e Env) openGroup(id string, create bool) (*group.Registry, error) {
	if err := state.ValidateID("group id", id); err != nil {
		return nil, err
	}
	if !create {
		exists, err := e.Store.Exists(e.Store.GroupPath(id))
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, progerrors.NotFound("group", id)
		}
	}
	return group.New(id, e.trackerConfig(id))
}

func (e Env) groupAdd(c GroupAdd) error {
	r, err := e.openGroup(c.Group, true)
	if err != nil {
		return err
	}
	tr, err := r.Add(c.Tracker, c.Total, c.Message)
	if tr == nil {
		return err
	}

	// The member exists even when the mirror refresh failed.
	p, getErr := tr.Get()
	if getErr != nil {
		return getErr
	}
	if printErr := e.Printer.Progress(strings.TrimPrefix(tr.ID(), c.Group+"-"), p); printErr != nil {
		return printErr
	}
	return err
}

// printGroup renders whatever aggregate op produced, then reports its error.
func (e Env) printGroup(id string, op func() (state.Group, error)) error {
	g, err := op()
	if g.Trackers != nil {
		if printErr := e.Printer.Group(id, g); printErr != nil {
			return printErr
		}
	}
	return err
}
