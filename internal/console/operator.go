/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-logr/logr"

	"github.com/expend20/joybug-tauri/internal/debugsession"
)

// Stepper accepts operator decisions for paused sessions.
type Stepper interface {
	Step(sessionID string, resume bool) error
}

type OperatorConfig struct {
	Stepper  Stepper
	Renderer *Renderer

	// Source of operator decisions, one per line. Not needed when AutoContinue is set.
	Input io.Reader

	// Resume at every pause without reading any input.
	AutoContinue bool

	Logger logr.Logger
}

// Operator renders snapshots of a session and answers its pauses with decisions
// read from the input.
type Operator struct {
	stepper      Stepper
	renderer     *Renderer
	input        io.Reader
	autoContinue bool
	log          logr.Logger

	linesOnce *sync.Once
	lines     chan string
}

func NewOperator(config OperatorConfig) (*Operator, error) {
	if config.Stepper == nil {
		return nil, fmt.Errorf("operator stepper must not be nil")
	}
	if config.Renderer == nil {
		return nil, fmt.Errorf("operator renderer must not be nil")
	}
	if config.Input == nil && !config.AutoContinue {
		return nil, fmt.Errorf("operator input is required unless auto-continue is enabled")
	}

	return &Operator{
		stepper:      config.Stepper,
		renderer:     config.Renderer,
		input:        config.Input,
		autoContinue: config.AutoContinue,
		log:          config.Logger.WithName("operator"),
		linesOnce:    &sync.Once{},
	}, nil
}

// ParseDecision interprets an operator answer. The second result is false
// if the answer is not recognized.
func ParseDecision(answer string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "", "c", "continue":
		return true, true
	case "q", "quit", "stop":
		return false, true
	default:
		return false, false
	}
}

// Run renders the snapshots as they arrive and posts a decision for every pause.
// A pause that is superseded by a newer snapshot before the operator answers is abandoned.
// When the input is exhausted every pending pause is answered with a stop.
// Run returns after rendering a snapshot with a terminal status, when the snapshot channel
// is closed, or when the context is cancelled.
func (o *Operator) Run(ctx context.Context, snapshots <-chan debugsession.Snapshot) error {
	pending := ""

	for {
		var lines <-chan string
		if pending != "" {
			lines = o.inputLines()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case snapshot, isOpen := <-snapshots:
			if !isOpen {
				return nil
			}

			pending = ""
			o.renderer.RenderSnapshot(snapshot)

			if snapshot.Status.IsTerminal() {
				return nil
			}

			if snapshot.Status.Kind == debugsession.StatusPaused {
				if o.autoContinue {
					o.step(snapshot.ID, true)
				} else {
					pending = snapshot.ID
					o.renderer.Prompt()
				}
			}

		case line, isOpen := <-lines:
			if !isOpen {
				o.log.V(1).Info("Operator input closed, stopping the session", "sessionID", pending)
				o.step(pending, false)
				pending = ""
				continue
			}

			resume, valid := ParseDecision(line)
			if !valid {
				o.renderer.Warn(fmt.Sprintf("Unrecognized answer %q", strings.TrimSpace(line)))
				o.renderer.Prompt()
				continue
			}

			o.step(pending, resume)
			pending = ""
		}
	}
}

func (o *Operator) step(sessionID string, resume bool) {
	err := o.stepper.Step(sessionID, resume)
	switch {
	case err == nil:
	case errors.Is(err, debugsession.ErrNotPaused), errors.Is(err, debugsession.ErrDecisionsClosed), errors.Is(err, debugsession.ErrDecisionPending):
		// The session moved on before the decision was made.
		o.log.V(1).Info("Decision was not delivered", "sessionID", sessionID, "Reason", err.Error())
	default:
		o.log.Error(err, "Could not deliver decision", "sessionID", sessionID, "resume", resume)
	}
}

// inputLines starts reading the input on first use. The returned channel is closed
// when the input is exhausted.
func (o *Operator) inputLines() <-chan string {
	o.linesOnce.Do(func() {
		o.lines = make(chan string)
		go func() {
			defer close(o.lines)
			if o.input == nil {
				return
			}
			scanner := bufio.NewScanner(o.input)
			for scanner.Scan() {
				o.lines <- scanner.Text()
			}
			if scanErr := scanner.Err(); scanErr != nil {
				o.log.Error(scanErr, "Could not read operator input")
			}
		}()
	})
	return o.lines
}
