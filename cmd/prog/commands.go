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

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tuulbelt/cli-progress-reporting/internal/cli"
	"github.com/tuulbelt/cli-progress-reporting/internal/tracker"
)

func addIDFlag(fs *pflag.FlagSet, id *string, usage string) {
	fs.StringVar(id, "id", tracker.DefaultID, usage)
}

// optionalMessage returns nil unless --message was given, so that an
// update without the flag keeps the stored message.
func optionalMessage(cmd *cobra.Command, message string) *string {
	if !cmd.Flags().Changed("message") {
		return nil
	}
	return &message
}

func newInitCommand(opts *globalOptions) *cobra.Command {
	var (
		id      string
		total   int
		message string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create or reset a tracker",
		Long: `Create a tracker with the given total, replacing any existing state.

The tracker starts at 0 and records the current time as its start time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, cli.Init{ID: id, Total: total, Message: message})
		},
	}

	addIDFlag(cmd.Flags(), &id, "Tracker id")
	cmd.Flags().IntVar(&total, "total", 0, "Total units of work (must be positive)")
	cmd.Flags().StringVar(&message, "message", "", "Initial status message")
	_ = cmd.MarkFlagRequired("total")

	return cmd
}

func newIncrementCommand(opts *globalOptions) *cobra.Command {
	var (
		id      string
		amount  int
		message string
	)

	cmd := &cobra.Command{
		Use:   "increment",
		Short: "Add completed units to a tracker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, cli.Increment{ID: id, Amount: amount, Message: optionalMessage(cmd, message)})
		},
	}

	addIDFlag(cmd.Flags(), &id, "Tracker id")
	cmd.Flags().IntVar(&amount, "amount", 1, "Units to add")
	cmd.Flags().StringVar(&message, "message", "", "New status message")

	return cmd
}

func newSetCommand(opts *globalOptions) *cobra.Command {
	var (
		id      string
		value   int
		message string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the current value of a tracker",
		Long: `Set the current value of a tracker. Values above the total are clamped.

Lowering the value is allowed unless the tracker is configured as monotonic.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, cli.Set{ID: id, Value: value, Message: optionalMessage(cmd, message)})
		},
	}

	addIDFlag(cmd.Flags(), &id, "Tracker id")
	cmd.Flags().IntVar(&value, "value", 0, "New current value")
	cmd.Flags().StringVar(&message, "message", "", "New status message")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func newFinishCommand(opts *globalOptions) *cobra.Command {
	var (
		id      string
		message string
	)

	cmd := &cobra.Command{
		Use:   "finish",
		Short: "Mark a tracker complete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, cli.Finish{ID: id, Message: optionalMessage(cmd, message)})
		},
	}

	addIDFlag(cmd.Flags(), &id, "Tracker id")
	cmd.Flags().StringVar(&message, "message", "", "Final status message")

	return cmd
}

func newGetCommand(opts *globalOptions) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the current state of a tracker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, cli.Get{ID: id})
		},
	}

	addIDFlag(cmd.Flags(), &id, "Tracker id")
	return cmd
}

func newClearCommand(opts *globalOptions) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete a tracker's state file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, cli.Clear{ID: id})
		},
	}

	addIDFlag(cmd.Flags(), &id, "Tracker id")
	return cmd
}

func newListCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every tracker and group in the state directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, cli.List{})
		},
	}
}

func newMultiCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "multi",
		Short: "Manage groups of trackers",
		Long: `Manage a group of trackers that share an aggregate file.

Each member is stored in its own file as "<group>-<tracker>" and mirrored
into the group aggregate. Updating a member directly with increment or set
does not refresh the aggregate; run "multi sync" to pull member files in.`,
	}

	cmd.AddCommand(
		newGroupCommand(opts, "init", "Create a group if it does not exist", func(group string) cli.Command {
			return cli.GroupInit{Group: group}
		}),
		newMultiAddCommand(opts),
		newGroupCommand(opts, "status", "Print the stored group aggregate", func(group string) cli.Command {
			return cli.GroupStatus{Group: group}
		}),
		newGroupCommand(opts, "done", "Finish every member of a group", func(group string) cli.Command {
			return cli.GroupDone{Group: group}
		}),
		newGroupCommand(opts, "clear", "Delete a group and all member files", func(group string) cli.Command {
			return cli.GroupClear{Group: group}
		}),
		newGroupCommand(opts, "sync", "Refresh the aggregate from member files", func(group string) cli.Command {
			return cli.GroupSync{Group: group}
		}),
		newMultiRemoveCommand(opts),
	)
	return cmd
}

// newGroupCommand builds a multi subcommand whose only input is the group id.
func newGroupCommand(opts *globalOptions, use, short string, build func(group string) cli.Command) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, build(id))
		},
	}

	addIDFlag(cmd.Flags(), &id, "Group id")
	return cmd
}

func newMultiAddCommand(opts *globalOptions) *cobra.Command {
	var (
		id        string
		trackerID string
		total     int
		message   string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a tracker to a group",
		Long: `Add a member tracker to a group, creating the group if needed.

Without --tracker a unique member id is generated and printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, cli.GroupAdd{Group: id, Tracker: trackerID, Total: total, Message: message})
		},
	}

	addIDFlag(cmd.Flags(), &id, "Group id")
	cmd.Flags().StringVar(&trackerID, "tracker", "", "Member tracker id (default: generated)")
	cmd.Flags().IntVar(&total, "total", 0, "Total units of work (must be positive)")
	cmd.Flags().StringVar(&message, "message", "", "Initial status message")
	_ = cmd.MarkFlagRequired("total")

	return cmd
}

func newMultiRemoveCommand(opts *globalOptions) *cobra.Command {
	var (
		id        string
		trackerID string
	)

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a tracker from a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, cli.GroupRemove{Group: id, Tracker: trackerID})
		},
	}

	addIDFlag(cmd.Flags(), &id, "Group id")
	cmd.Flags().StringVar(&trackerID, "tracker", "", "Member tracker id")
	_ = cmd.MarkFlagRequired("tracker")

	return cmd
}
