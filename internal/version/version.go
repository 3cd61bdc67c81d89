/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package version

import (
	"strconv"
	"time"
)

const (
	DevelopmentVersion = "dev"
)

// Set at build time via -ldflags "-X".
var (
	ProductVersion = DevelopmentVersion
	CommitHash     = ""
	BuildTimestamp = ""
)

type VersionOutput struct {
	Version    string     `json:"version"`
	CommitHash string     `json:"commitHash,omitempty"`
	BuildTime  *time.Time `json:"buildTimestamp,omitempty"`
}

func Version() VersionOutput {
	output := VersionOutput{
		Version:    ProductVersion,
		CommitHash: CommitHash,
	}
	if output.Version == "" {
		output.Version = DevelopmentVersion
	}

	// The build timestamp is either Unix seconds or an RFC 3339 string.
	if BuildTimestamp != "" {
		if seconds, err := strconv.ParseInt(BuildTimestamp, 10, 64); err == nil {
			buildTime := time.Unix(seconds, 0).UTC()
			output.BuildTime = &buildTime
		} else if buildTime, timeErr := time.Parse(time.RFC3339, BuildTimestamp); timeErr == nil {
			output.BuildTime = &buildTime
		}
	}

	return output
}
