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
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	progerrors "github.com/tuulbelt/cli-progress-reporting/internal/errors"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		current, total, want int
	}{
		{0, 100, 0},
		{42, 100, 42},
		{100, 100, 100},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13}, // 12.5 rounds half away from zero
		{5, 0, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Percentage(tt.current, tt.total), "Percentage(%d, %d)", tt.current, tt.total)
	}
}

func TestProgressRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		p    Progress
	}{
		{
			name: "fresh tracker",
			p:    Progress{Total: 100, Message: "start", StartTime: 1700000000000, UpdatedTime: 1700000000000},
		},
		{
			name: "complete tracker",
			p:    Progress{Total: 7, Current: 7, Percentage: 100, Message: "done", StartTime: 1, UpdatedTime: 9, Complete: true},
		},
		{
			name: "unicode message",
			p:    Progress{Total: 3, Current: 1, Percentage: 33, Message: "téléchargement 📦 <ok> & \"quoted\"", StartTime: 5, UpdatedTime: 5},
		},
		{
			name: "empty message",
			p:    Progress{Total: 1, StartTime: 0, UpdatedTime: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeProgress(EncodeProgress(tt.p))
			require.NoError(t, err)
			assert.Equal(t, tt.p, got)
		})
	}
}

func TestEncodeProgressFormat(t *testing.T) {
	data := EncodeProgress(Progress{Total: 10, Current: 5, Percentage: 50, Message: "<half>", StartTime: 1, UpdatedTime: 2})

	want := `{
  "total": 10,
  "current": 5,
  "message": "<half>",
  "percentage": 50,
  "startTime": 1,
  "updatedTime": 2,
  "complete": false
}
`
	assert.Equal(t, want, string(data))
}

func TestDecodeProgressRejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"truncated", `{"total": 10, "current":`, "invalid JSON"},
		{"not an object", `[]`, "invalid JSON"},
		{"missing total", `{"current":0,"message":"","percentage":0,"startTime":1,"updatedTime":1,"complete":false}`, `"total"`},
		{"missing complete", `{"total":1,"current":0,"message":"","percentage":0,"startTime":1,"updatedTime":1}`, `"complete"`},
		{"null field", `{"total":1,"current":null,"message":"","percentage":0,"startTime":1,"updatedTime":1,"complete":false}`, `"current"`},
		{"string number", `{"total":"10","current":0,"message":"","percentage":0,"startTime":1,"updatedTime":1,"complete":false}`, "invalid JSON"},
		{"fractional number", `{"total":10,"current":2.5,"message":"","percentage":25,"startTime":1,"updatedTime":1,"complete":false}`, "invalid JSON"},
		{"zero total", `{"total":0,"current":0,"message":"","percentage":0,"startTime":1,"updatedTime":1,"complete":false}`, "total must be positive"},
		{"current above total", `{"total":5,"current":6,"message":"","percentage":120,"startTime":1,"updatedTime":1,"complete":true}`, "outside"},
		{"wrong percentage", `{"total":4,"current":1,"message":"","percentage":50,"startTime":1,"updatedTime":1,"complete":false}`, "percentage"},
		{"time reversed", `{"total":4,"current":1,"message":"","percentage":25,"startTime":9,"updatedTime":1,"complete":false}`, "startTime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeProgress([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, progerrors.ErrDecode), "want ErrDecode, got %v", err)

			var decodeErr *progerrors.DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGroupRoundTrip(t *testing.T) {
	g := NewGroup(1000)
	g.Trackers["download"] = Progress{Total: 4, Current: 2, Percentage: 50, Message: "half", StartTime: 1000, UpdatedTime: 1200}
	g.Trackers["upload"] = Progress{Total: 1, Current: 1, Percentage: 100, Message: "✓", StartTime: 1000, UpdatedTime: 1500, Complete: true}
	g.Meta.Updated = 1500

	got, err := DecodeGroup(EncodeGroup(g))
	require.NoError(t, err)
	assert.Equal(t, g, got)
}

func TestEncodeGroupIsDeterministic(t *testing.T) {
	g := NewGroup(1)
	for _, id := range []string{"zeta", "alpha", "mid"} {
		g.Trackers[id] = Progress{Total: 1, StartTime: 1, UpdatedTime: 1}
	}

	first := string(EncodeGroup(g))
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, string(EncodeGroup(g)))
	}
	assert.Less(t, strings.Index(first, `"alpha"`), strings.Index(first, `"zeta"`))
}

func TestEncodeGroupNilTrackers(t *testing.T) {
	data := EncodeGroup(Group{Meta: GroupMeta{Created: 1, Updated: 1}})
	assert.Contains(t, string(data), `"trackers": {}`)

	g, err := DecodeGroup(data)
	require.NoError(t, err)
	assert.Empty(t, g.Trackers)
}

func TestDecodeGroupRejectsMalformed(t *testing.T) {
	valid := `{"total":1,"current":0,"message":"","percentage":0,"startTime":1,"updatedTime":1,"complete":false}`

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"invalid json", `{"trackers":`, "invalid JSON"},
		{"missing trackers", `{"meta":{"created":1,"updated":1}}`, `"trackers"`},
		{"missing meta", `{"trackers":{}}`, `"meta"`},
		{"incomplete meta", `{"trackers":{},"meta":{"created":1}}`, `"updated"`},
		{"bad member", `{"trackers":{"a":{"total":-1}},"meta":{"created":1,"updated":1}}`, `tracker "a"`},
		{"traversal key", `{"trackers":{"../etc":` + valid + `},"meta":{"created":1,"updated":1}}`, "tracker id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeGroup([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, progerrors.ErrDecode)
			assert.NotErrorIs(t, err, progerrors.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
