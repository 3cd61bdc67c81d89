/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	cmds "github.com/expend20/joybug-tauri/internal/commands"
	"github.com/expend20/joybug-tauri/pkg/logger"
)

const (
	configFlagName = "config"
)

func NewRootCommand(log *logger.Logger) (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:   "joybug",
		Short: "Drives debug sessions against a remote debug server",
		Long: `joybug connects to a debug server, launches a program under the debugger,
	and stops at every debug event so that the operator can decide whether to continue.

	Session snapshots are printed to the terminal and can optionally be served
	to UI clients over a WebSocket feed.`,
		SilenceUsage:     true,
		PersistentPreRun: cmds.LogVersion(log.Logger, "joybug starting"),
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			log.Flush()
		},
	}

	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	if cmd, err := cmds.NewVersionCommand(log.Logger); err != nil {
		return nil, fmt.Errorf("could not set up 'version' command: %w", err)
	} else {
		rootCmd.AddCommand(cmd)
	}

	if cmd, err := NewRunCommand(log); err != nil {
		return nil, fmt.Errorf("could not set up 'run' command: %w", err)
	} else {
		rootCmd.AddCommand(cmd)
	}

	rootCmd.PersistentFlags().String(configFlagName, "", "Path to a YAML configuration file")
	log.AddLevelFlag(rootCmd.PersistentFlags())

	return rootCmd, nil
}
