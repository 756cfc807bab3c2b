// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-lab-updater/models"
)

const cycleIDWidth = 13

// RenderStatus renders the server status snapshot as a bordered page.
func RenderStatus(status models.ServerStatus) string {
	clients := "none"
	if len(status.Clients) > 0 {
		clients = strings.Join(status.Clients, ", ")
	}

	rows := []string{
		field("Version", valueOrNA(status.Version)),
		field("Directory", valueOrNA(status.Directory)),
		field("Gate", renderGate(status.Gate)),
		field("Clients", clients),
	}

	if len(status.Sessions) == 0 {
		rows = append(rows, field("Sessions", "none"))
	} else {
		rows = append(rows, field("Sessions", ""))
		for _, s := range status.Sessions {
			rows = append(rows, fmt.Sprintf("  %-10s %-13s %-26s %s",
				s.ClientID,
				fitText(s.CycleID, cycleIDWidth),
				s.Phase,
				s.StartedAt.Format(time.RFC3339),
			))
		}
	}

	return renderPage("LAB UPDATER SERVER", rows...)
}

func renderGate(gate string) string {
	switch gate {
	case models.GateHeld:
		return heldStyle.Render(gate)
	case models.GateAvailable:
		return freeStyle.Render(gate)
	default:
		return valueOrNA(gate)
	}
}
