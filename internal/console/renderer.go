/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/expend20/joybug-tauri/internal/debugsession"
	"github.com/expend20/joybug-tauri/internal/uilog"
)

const shortIDLength = 8

type styles struct {
	header  lipgloss.Style
	muted   lipgloss.Style
	label   lipgloss.Style
	toast   lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
	status  map[debugsession.StatusKind]lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	statusStyle := func(color string) lipgloss.Style {
		return r.NewStyle().Bold(true).Foreground(lipgloss.Color(color))
	}

	return styles{
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#9CA3AF")),
		label:   r.NewStyle().Foreground(lipgloss.Color("#60A5FA")),
		toast:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981")),
		warning: r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		err:     r.NewStyle().Foreground(lipgloss.Color("#F87171")),
		status: map[debugsession.StatusKind]lipgloss.Style{
			debugsession.StatusInitializing: statusStyle("#9CA3AF"),
			debugsession.StatusConnected:    statusStyle("#60A5FA"),
			debugsession.StatusRunning:      statusStyle("#10B981"),
			debugsession.StatusPaused:       statusStyle("#F59E0B"),
			debugsession.StatusFinished:     statusStyle("#A78BFA"),
			debugsession.StatusError:        statusStyle("#F87171"),
		},
	}
}

// Renderer writes session snapshots and operator log entries to a terminal.
// Colors are only emitted when the writer is a terminal that supports them.
// Renderer is safe for concurrent use.
type Renderer struct {
	lock     *sync.Mutex
	w        io.Writer
	minLevel uilog.Level
	styles   styles
}

// NewRenderer creates a renderer writing to w. Log entries below minLevel are not shown,
// with the exception of toasts.
func NewRenderer(w io.Writer, minLevel uilog.Level) *Renderer {
	return &Renderer{
		lock:     &sync.Mutex{},
		w:        w,
		minLevel: minLevel,
		styles:   newStyles(lipgloss.NewRenderer(w)),
	}
}

func (r *Renderer) RenderSnapshot(s debugsession.Snapshot) {
	var sb strings.Builder

	statusStyle, found := r.styles.status[s.Status.Kind]
	if !found {
		statusStyle = r.styles.muted
	}
	fmt.Fprintf(&sb, "%s %s %s %s\n",
		r.styles.header.Render("session "+shortID(s.ID)),
		statusStyle.Render(s.Status.String()),
		r.styles.muted.Render(s.ServerAddress),
		r.styles.muted.Render(fmt.Sprintf("%q", s.LaunchCommand)),
	)

	if s.CurrentEvent != nil {
		fmt.Fprintf(&sb, "  %s %s\n", r.styles.label.Render("event:"), s.CurrentEvent.Details)
	}

	if s.CurrentContext != nil {
		fmt.Fprintf(&sb, "  %s %s ip=0x%X sp=0x%X\n",
			r.styles.label.Render("context:"),
			s.CurrentContext.Arch,
			s.CurrentContext.InstructionPointer,
			s.CurrentContext.StackPointer,
		)
	}

	fmt.Fprintf(&sb, "  %s %d  %s %d  %s %d\n",
		r.styles.label.Render("modules:"), len(s.Modules),
		r.styles.label.Render("threads:"), len(s.Threads),
		r.styles.label.Render("events:"), len(s.Events),
	)

	r.write(sb.String())
}

// RenderEntry writes a log entry; it can be used as a uilog.Store listener.
func (r *Renderer) RenderEntry(e uilog.Entry) {
	if !e.Toast && e.Level < r.minLevel {
		return
	}

	var line string
	switch {
	case e.Toast:
		line = r.styles.toast.Render("» " + e.Message)
	case e.Level == uilog.LevelError:
		line = r.styles.err.Render(e.Message)
	case e.Level == uilog.LevelWarning:
		line = r.styles.warning.Render(e.Message)
	default:
		line = r.styles.muted.Render(e.Message)
	}

	r.write(fmt.Sprintf("%s %s\n", r.styles.muted.Render(e.Timestamp.Format("15:04:05")), line))
}

// Prompt asks the operator for a decision about the paused session.
func (r *Renderer) Prompt() {
	r.write(r.styles.warning.Render("[c]ontinue / [q]uit > "))
}

// Warn writes a message that is not tied to any session.
func (r *Renderer) Warn(message string) {
	r.write(r.styles.warning.Render(message) + "\n")
}

func (r *Renderer) write(s string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	_, _ = io.WriteString(r.w, s)
}

func shortID(id string) string {
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}
	return id
}
