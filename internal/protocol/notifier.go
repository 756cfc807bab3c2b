// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package protocol

import "github.com/MKhiriev/go-lab-updater/internal/logger"

// Notifier receives a human-readable message on every protocol milestone and
// failure.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a plain function to [Notifier].
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) {
	f(message)
}

// LogNotifier writes status messages to a logger.
type LogNotifier struct {
	logger *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) Notify(message string) {
	n.logger.Info().Str("event", "status").Msg(message)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string) {}
