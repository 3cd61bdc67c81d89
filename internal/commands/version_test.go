/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expend20/joybug-tauri/internal/version"
)

func TestVersionCommandPrintsJSON(t *testing.T) {
	cmd, err := NewVersionCommand(logr.Discard())
	require.NoError(t, err)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	require.True(t, strings.HasSuffix(out.String(), lineEnding))
	require.Equal(t, 1, strings.Count(out.String(), "\n"))

	var printed version.VersionOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &printed))
	assert.Equal(t, version.Version().Version, printed.Version)
}
