/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package logger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
)

// Level names accepted by the verbosity flag and the diagnostics log level variable.
var namedLevels = map[string]zapcore.Level{
	"debug":   zapcore.DebugLevel,
	"info":    zapcore.InfoLevel,
	"warn":    zapcore.WarnLevel,
	"warning": zapcore.WarnLevel,
	"error":   zapcore.ErrorLevel,
}

// StringToLevel parses a level name or a positive verbosity. Verbosity N enables V(N) log lines,
// which zap represents as level -N. The default level is returned along with the error.
func StringToLevel(value string, defaultLevel zapcore.Level) (zapcore.Level, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if level, isNamed := namedLevels[normalized]; isNamed {
		return level, nil
	}

	verbosity, parseErr := strconv.ParseUint(normalized, 10, 7)
	if parseErr != nil || verbosity == 0 {
		return defaultLevel, fmt.Errorf("invalid log level %q: use debug, info, warn, error, or a positive verbosity", value)
	}
	return zapcore.Level(-int8(verbosity)), nil
}

// LevelFlagValue is the pflag value behind the verbosity flag. Every accepted value is
// handed to the apply callback right away.
type LevelFlagValue struct {
	apply func(zapcore.Level)
	raw   string
}

func NewLevelFlagValue(apply func(zapcore.Level)) LevelFlagValue {
	return LevelFlagValue{apply: apply}
}

func (lfv *LevelFlagValue) Set(value string) error {
	level, err := StringToLevel(value, zapcore.InfoLevel)
	if err != nil {
		return err
	}
	lfv.raw = value
	if lfv.apply != nil {
		lfv.apply(level)
	}
	return nil
}

func (lfv *LevelFlagValue) String() string { return lfv.raw }

func (*LevelFlagValue) Type() string { return "level" }

// GetLevelFlagValue finds the verbosity flag registered by AddLevelFlag.
func GetLevelFlagValue(fs *pflag.FlagSet) (*LevelFlagValue, bool) {
	if fs == nil {
		return nil, false
	}
	f := fs.Lookup(verbosityFlagName)
	if f == nil {
		return nil, false
	}
	lfv, isLevelFlag := f.Value.(*LevelFlagValue)
	return lfv, isLevelFlag
}

var _ pflag.Value = (*LevelFlagValue)(nil)
