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

package group

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tuulbelt/cli-progress-reporting/internal/clock"
	progerrors "github.com/tuulbelt/cli-progress-reporting/internal/errors"
	"github.com/tuulbelt/cli-progress-reporting/internal/state"
	"github.com/tuulbelt/cli-progress-reporting/internal/tracker"
)

// Registry manages one group of trackers and its aggregate mirror. It is safe
// for concurrent use within a process; within one process, aggregate updates
// are serialized.
type Registry struct {
	id     string
	cfg    tracker.Config
	store  *state.Store
	clock  clock.Clock
	logger *zap.Logger

	mu      sync.Mutex
	members map[string]*tracker.Tracker
}

// New opens group id, writing an empty aggregate if none exists yet. An
// existing aggregate is left untouched. Member trackers share cfg.
func New(id string, cfg tracker.Config) (*Registry, error) {
	if err := state.ValidateID("group id", id); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Store == nil {
		cfg.Store = state.NewStore(state.Config{Dir: cfg.Dir, Logger: cfg.Logger})
	}
	cfg.Clock = clock.OrSystem(cfg.Clock)

	r := &Registry{
		id:      id,
		cfg:     cfg,
		store:   cfg.Store,
		clock:   cfg.Clock,
		logger:  cfg.Logger.With(zap.String("group", id)),
		members: make(map[string]*tracker.Tracker),
	}

	created, err := r.store.CreateGroupIfAbsent(r.Path(), state.NewGroup(r.now()))
	if err != nil {
		return nil, err
	}
	if created {
		r.logger.Debug("group created")
	}
	return r, nil
}

// ID returns the group identifier.
func (r *Registry) ID() string {
	return r.id
}

// Path returns the aggregate file path.
func (r *Registry) Path() string {
	return r.store.GroupPath(r.id)
}

// MemberID returns the scoped tracker id under which member trackerID is
// persisted.
func (r *Registry) MemberID(trackerID string) string {
	return r.id + "-" + trackerID
}

// Add initializes a member tracker and mirrors its fresh state into the
// aggregate. An empty trackerID is replaced by a generated one. The returned
// handle may be mutated directly; doing so does not refresh the mirror.
func (r *Registry) Add(trackerID string, total int, message string) (*tracker.Tracker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if trackerID == "" {
		id, err := r.generateID()
		if err != nil {
			return nil, err
		}
		trackerID = id
	}
	tr, err := r.member(trackerID)
	if err != nil {
		return nil, err
	}

	p, err := tr.Init(total, message)
	if err != nil {
		return nil, err
	}
	r.members[trackerID] = tr
	r.logger.Debug("member added", zap.String("tracker", trackerID))

	if _, err := r.mirror(func(g *state.Group) { g.Trackers[trackerID] = p }); err != nil {
		return tr, err
	}
	return tr, nil
}

// Get returns the in-process handle for trackerID. Members created by other
// processes are unknown until Reconcile or Sync has run.
func (r *Registry) Get(trackerID string) (*tracker.Tracker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tr, ok := r.members[trackerID]
	if !ok {
		return nil, fmt.Errorf("group %q: %w", r.id, progerrors.NotFound("tracker", trackerID))
	}
	return tr, nil
}

// IDs returns the sorted ids of the members known in-process.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.members))
}

// Status returns the aggregate exactly as stored. It may lag behind member
// files.
func (r *Registry) Status() (state.Group, error) {
	g, err := r.store.ReadGroup(r.Path())
	if errors.Is(err, progerrors.ErrNotFound) {
		return state.Group{}, progerrors.NotFound("group", r.id)
	}
	return g, err
}

// Remove clears the member's own file, forgets its handle and drops its
// aggregate entry. Removing a member unknown in-process still clears its
// file and entry.
func (r *Registry) Remove(trackerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tr, ok := r.members[trackerID]
	if !ok {
		var err error
		if tr, err = r.member(trackerID); err != nil {
			return err
		}
	}
	if err := tr.Clear(); err != nil {
		return err
	}
	delete(r.members, trackerID)
	r.logger.Debug("member removed", zap.String("tracker", trackerID))

	_, err := r.mirror(func(g *state.Group) { delete(g.Trackers, trackerID) })
	return err
}

// Done finishes every in-process member and mirrors the resulting states.
// Members that fail to finish keep their previous aggregate entry and their
// errors are joined into the result.
func (r *Registry) Done() (state.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	finished := make(map[string]state.Progress, len(r.members))
	var errs []error
	for _, id := range slices.Sorted(maps.Keys(r.members)) {
		p, err := r.members[id].Finish()
		if err != nil {
			errs = append(errs, fmt.Errorf("finish %s: %w", id, err))
			continue
		}
		finished[id] = p
	}

	g, err := r.mirror(func(g *state.Group) { maps.Copy(g.Trackers, finished) })
	if err != nil {
		errs = append(errs, err)
	}
	return g, errors.Join(errs...)
}

// Clear clears every in-process member file and deletes the aggregate.
func (r *Registry) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, id := range slices.Sorted(maps.Keys(r.members)) {
		if err := r.members[id].Clear(); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", id, err))
			continue
		}
		delete(r.members, id)
	}
	if err := r.store.Remove(r.Path()); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		r.logger.Debug("group cleared")
	}
	return errors.Join(errs...)
}

// Reconcile reads the aggregate and creates handles for every member listed
// there but not yet known in-process. It returns the newly discovered ids.
func (r *Registry) Reconcile() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reconcile()
}

func (r *Registry) reconcile() ([]string, error) {
	g, err := r.store.ReadGroup(r.Path())
	if errors.Is(err, progerrors.ErrNotFound) {
		return nil, progerrors.NotFound("group", r.id)
	}
	if err != nil {
		return nil, err
	}

	discovered := []string{}
	for _, id := range slices.Sorted(maps.Keys(g.Trackers)) {
		if _, ok := r.members[id]; ok {
			continue
		}
		tr, err := r.member(id)
		if err != nil {
			return discovered, err
		}
		r.members[id] = tr
		discovered = append(discovered, id)
	}
	if len(discovered) > 0 {
		r.logger.Debug("members reconciled", zap.Strings("trackers", discovered))
	}
	return discovered, nil
}

// Sync reconciles and then copies every member's own file into the
// aggregate. Members whose file no longer exists are dropped from both the
// registry and the aggregate.
func (r *Registry) Sync() (state.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.reconcile(); err != nil {
		return state.Group{}, err
	}

	fresh := make(map[string]state.Progress, len(r.members))
	var gone []string
	var errs []error
	for _, id := range slices.Sorted(maps.Keys(r.members)) {
		p, err := r.members[id].Get()
		switch {
		case errors.Is(err, progerrors.ErrNotFound):
			gone = append(gone, id)
		case err != nil:
			errs = append(errs, fmt.Errorf("read %s: %w", id, err))
		default:
			fresh[id] = p
		}
	}
	for _, id := range gone {
		delete(r.members, id)
	}

	g, err := r.mirror(func(g *state.Group) {
		maps.Copy(g.Trackers, fresh)
		for _, id := range gone {
			delete(g.Trackers, id)
		}
	})
	if err != nil {
		errs = append(errs, err)
	}
	return g, errors.Join(errs...)
}

// member builds a handle for trackerID without touching the filesystem.
func (r *Registry) member(trackerID string) (*tracker.Tracker, error) {
	if err := state.ValidateID("tracker id", trackerID); err != nil {
		return nil, err
	}
	tr, err := tracker.New(r.MemberID(trackerID), r.cfg)
	if err != nil {
		return nil, progerrors.Validation("tracker id", "%q is too long for group %q", trackerID, r.id)
	}
	return tr, nil
}

// mirror applies change to the stored aggregate and writes it back. A
// missing aggregate is recreated. Any failure is reported as a stale mirror;
// after a failed write the unsaved aggregate is still returned.
func (r *Registry) mirror(change func(*state.Group)) (state.Group, error) {
	now := r.now()
	g, err := r.store.ReadGroup(r.Path())
	if errors.Is(err, progerrors.ErrNotFound) {
		g, err = state.NewGroup(now), nil
	}
	if err != nil {
		return state.Group{}, r.stale(err)
	}

	change(&g)
	g.Meta.Updated = max(now, g.Meta.Created)

	if err := r.store.WriteGroup(r.Path(), g); err != nil {
		return g, r.stale(err)
	}
	return g, nil
}

func (r *Registry) stale(err error) error {
	r.logger.Warn("group mirror not refreshed", zap.String("path", r.Path()), zap.Error(err))
	return fmt.Errorf("%w: %w", progerrors.ErrStaleMirror, err)
}

// generateID returns "<unix-ms>-<random>", unique among known members.
func (r *Registry) generateID() (string, error) {
	for {
		u, err := uuid.NewRandom()
		if err != nil {
			return "", &progerrors.IOError{Op: "generate tracker id for", Path: r.Path(), Err: err}
		}
		id := strconv.FormatInt(r.now(), 10) + "-" + u.String()[:8]
		if _, taken := r.members[id]; !taken {
			return id, nil
		}
	}
}

func (r *Registry) now() int64 {
	return r.clock.Now().UnixMilli()
}
