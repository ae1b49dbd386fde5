// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package logging

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// WatermillAdapter bridges Watermill's LoggerAdapter to the global
// zerolog logger so message-bus logs share the application format.
type WatermillAdapter struct {
	fields watermill.LogFields
}

// NewWatermillLogger returns a watermill.LoggerAdapter backed by zerolog.
func NewWatermillLogger() watermill.LoggerAdapter {
	return &WatermillAdapter{}
}

func (a *WatermillAdapter) event(e *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range a.fields {
		e = e.Interface(k, v)
	}
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}

// Error logs an error message.
func (a *WatermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.event(Error().Err(err), fields).Msg(msg)
}

// Info logs an informational message.
func (a *WatermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.event(Info(), fields).Msg(msg)
}

// Debug logs a debug message.
func (a *WatermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.event(Debug(), fields).Msg(msg)
}

// Trace logs at debug level; zerolog trace is below our configured floor.
func (a *WatermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.event(Debug(), fields).Msg(msg)
}

// With returns a logger carrying additional fields.
func (a *WatermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	merged := make(watermill.LogFields, len(a.fields)+len(fields))
	for k, v := range a.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &WatermillAdapter{fields: merged}
}
