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

package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	progerrors "github.com/tuulbelt/cli-progress-reporting/internal/errors"
)

// progressWire mirrors Progress with pointer fields so that missing keys can
// be told apart from zero values during decode.
type progressWire struct {
	Total       *int    `json:"total"`
	Current     *int    `json:"current"`
	Message     *string `json:"message"`
	Percentage  *int    `json:"percentage"`
	StartTime   *int64  `json:"startTime"`
	UpdatedTime *int64  `json:"updatedTime"`
	Complete    *bool   `json:"complete"`
}

type groupWire struct {
	Trackers map[string]json.RawMessage `json:"trackers"`
	Meta     *struct {
		Created *int64 `json:"created"`
		Updated *int64 `json:"updated"`
	} `json:"meta"`
}

// EncodeProgress serializes p as indented JSON terminated by a newline.
func EncodeProgress(p Progress) []byte {
	return encode(p)
}

// EncodeGroup serializes g as indented JSON terminated by a newline. Tracker
// keys are emitted in sorted order.
func EncodeGroup(g Group) []byte {
	if g.Trackers == nil {
		g.Trackers = map[string]Progress{}
	}
	return encode(g)
}

func encode(v any) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		// Progress and Group contain only strings, integers and booleans.
		panic(fmt.Sprintf("state: encode %T: %v", v, err))
	}
	return buf.Bytes()
}

// DecodeProgress parses data into a Progress. Missing fields, non-numeric
// numbers and broken invariants all yield a *errors.DecodeError.
func DecodeProgress(data []byte) (Progress, error) {
	p, err := decodeProgress(data)
	if err != nil {
		return Progress{}, &progerrors.DecodeError{Err: err}
	}
	return p, nil
}

func decodeProgress(data []byte) (Progress, error) {
	var w progressWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Progress{}, fmt.Errorf("invalid JSON: %w", err)
	}

	missing := func(name string) error {
		return fmt.Errorf("missing required field %q", name)
	}
	switch {
	case w.Total == nil:
		return Progress{}, missing("total")
	case w.Current == nil:
		return Progress{}, missing("current")
	case w.Message == nil:
		return Progress{}, missing("message")
	case w.Percentage == nil:
		return Progress{}, missing("percentage")
	case w.StartTime == nil:
		return Progress{}, missing("startTime")
	case w.UpdatedTime == nil:
		return Progress{}, missing("updatedTime")
	case w.Complete == nil:
		return Progress{}, missing("complete")
	}

	p := Progress{
		Total:       *w.Total,
		Current:     *w.Current,
		Message:     *w.Message,
		Percentage:  *w.Percentage,
		StartTime:   *w.StartTime,
		UpdatedTime: *w.UpdatedTime,
		Complete:    *w.Complete,
	}
	if err := p.Validate(); err != nil {
		return Progress{}, err
	}
	return p, nil
}

// DecodeGroup parses data into a Group. Every member entry is decoded with
// the same rules as DecodeProgress and every member key must be a valid
// identifier.
func DecodeGroup(data []byte) (Group, error) {
	g, err := decodeGroup(data)
	if err != nil {
		return Group{}, &progerrors.DecodeError{Err: err}
	}
	return g, nil
}

func decodeGroup(data []byte) (Group, error) {
	var w groupWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Group{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if w.Trackers == nil {
		return Group{}, errors.New(`missing required field "trackers"`)
	}
	if w.Meta == nil {
		return Group{}, errors.New(`missing required field "meta"`)
	}
	if w.Meta.Created == nil || w.Meta.Updated == nil {
		return Group{}, errors.New(`meta requires "created" and "updated"`)
	}

	g := Group{
		Trackers: make(map[string]Progress, len(w.Trackers)),
		Meta:     GroupMeta{Created: *w.Meta.Created, Updated: *w.Meta.Updated},
	}
	for id, raw := range w.Trackers {
		if err := ValidateID("tracker id", id); err != nil {
			return Group{}, errors.New(err.Error())
		}
		p, err := decodeProgress(raw)
		if err != nil {
			return Group{}, fmt.Errorf("tracker %q: %w", id, err)
		}
		g.Trackers[id] = p
	}
	return g, nil
}
