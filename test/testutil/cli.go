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

// Package testutil builds the prog binary and runs it as a separate process
// so that tests can exercise cross-process behavior.
package testutil

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

var (
	buildOnce sync.Once
	progPath  string
	buildErr  error
)

// ProgBinary compiles cmd/prog into a temporary directory on first use and
// returns the path of the executable. Later calls reuse the same build.
func ProgBinary(t *testing.T) string {
	t.Helper()

	buildOnce.Do(func() {
		root, err := moduleRoot()
		if err != nil {
			buildErr = err
			return
		}
		// Not t.TempDir: the binary outlives the test that built it.
		outDir, err := os.MkdirTemp("", "prog-bin")
		if err != nil {
			buildErr = err
			return
		}
		progPath = filepath.Join(outDir, "prog")

		cmd := exec.Command("go", "build", "-o", progPath, "./cmd/prog")
		cmd.Dir = root
		if out, err := cmd.CombinedOutput(); err != nil {
			buildErr = err
			t.Logf("go build output: %s", out)
		}
	})

	if buildErr != nil {
		t.Fatalf("building prog: %v", buildErr)
	}
	return progPath
}

// Prog runs the prog binary against one state directory. HOME and the
// working directory point at Dir, and PROG_ variables from the parent are
// dropped, so no user config leaks into a test.
type Prog struct {
	Dir string
	Env map[string]string
}

// NewProg returns a Prog bound to a fresh temporary state directory.
func NewProg(t *testing.T) *Prog {
	t.Helper()
	return &Prog{Dir: t.TempDir()}
}

// Result is the outcome of one prog invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// Run executes prog with args followed by --dir p.Dir.
func (p *Prog) Run(t *testing.T, args ...string) Result {
	t.Helper()

	cmd := exec.Command(ProgBinary(t), append(args, "--dir", p.Dir)...)
	cmd.Dir = p.Dir
	cmd.Env = append(childEnviron(), "HOME="+p.Dir)
	for k, v := range p.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	res := Result{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	case err != nil:
		res.ExitCode = -1
	}
	return res
}

// MustRun runs prog and fails the test unless it exits 0.
func (p *Prog) MustRun(t *testing.T, args ...string) Result {
	t.Helper()

	res := p.Run(t, args...)
	if res.Err != nil {
		t.Fatalf("prog %s: %v\nstderr: %s", strings.Join(args, " "), res.Err, res.Stderr)
	}
	return res
}

// AssertFailure checks that res is a failed run with exit code 1, an
// "Error: " line on stderr containing want, and nothing on stdout.
func AssertFailure(t *testing.T, res Result, want string) {
	t.Helper()

	if res.Err == nil {
		t.Fatalf("expected prog to fail, stdout: %s", res.Stdout)
	}
	if res.ExitCode != 1 {
		t.Errorf("exit code = %d, want 1\nstderr: %s", res.ExitCode, res.Stderr)
	}
	if !strings.HasPrefix(res.Stderr, "Error: ") || !strings.Contains(res.Stderr, want) {
		t.Errorf("stderr = %q, want an Error line containing %q", res.Stderr, want)
	}
	if res.Stdout != "" {
		t.Errorf("expected empty stdout, got %q", res.Stdout)
	}
}

func childEnviron() []string {
	var env []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "PROG_") || strings.HasPrefix(kv, "HOME=") {
			continue
		}
		env = append(env, kv)
	}
	return env
}

// moduleRoot walks up from the working directory to the directory holding
// go.mod.
func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
