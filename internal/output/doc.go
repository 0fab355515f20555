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

// Package output renders command results for the prog CLI.
//
// Two Printer implementations are provided. Writer emits one JSON record per
// line (NDJSON) and is selected with --json; TextPrinter emits short
// human-readable lines. Both only consume snapshots; neither touches the
// store.
//
// Example usage:
//
//	var p output.Printer = output.NewTextPrinter(os.Stdout)
//	if jsonMode {
//	    p = output.NewWriter(os.Stdout)
//	}
//	if err := p.Progress("build", snapshot); err != nil {
//	    return err
//	}
package output
