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

package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tuulbelt/cli-progress-reporting/internal/state"
)

// ReadProgressFile decodes the state file of tracker id in dir.
func ReadProgressFile(t *testing.T, dir, id string) state.Progress {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, "progress-"+id+".json"))
	if err != nil {
		t.Fatalf("Failed to read state file: %v", err)
	}
	p, err := state.DecodeProgress(data)
	if err != nil {
		t.Fatalf("Invalid state file: %v", err)
	}
	return p
}

// ReadGroupFile decodes the aggregate file of group id in dir.
func ReadGroupFile(t *testing.T, dir, id string) state.Group {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, "progress-multi-"+id+".json"))
	if err != nil {
		t.Fatalf("Failed to read aggregate file: %v", err)
	}
	g, err := state.DecodeGroup(data)
	if err != nil {
		t.Fatalf("Invalid aggregate file: %v", err)
	}
	return g
}

// AssertFileExists checks that a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks that a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("Expected file to not exist: %s", path)
	}
}

// AssertNoTempFiles fails if any write left a temporary file in dir.
func AssertNoTempFiles(t *testing.T, dir string) {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	if err != nil {
		t.Fatalf("Failed to glob temp files: %v", err)
	}
	if len(matches) > 0 {
		t.Errorf("Unexpected temporary files: %v", matches)
	}
}
