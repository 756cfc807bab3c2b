// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package tui

import "github.com/charmbracelet/lipgloss"

var (
	pageStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Faint(true).Width(10)
	heldStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	freeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)
