/**
 * Copyright 2026 The asyncfix Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package obs is the engine's structured logging surface: a single
// *zap.Logger built once at startup and passed to the connection engine as
// a plain constructor argument. It never exposes a package-level global.
package obs

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style zap logger: JSON encoding, ISO8601
// timestamps, level from the given string ("debug", "info", "warn",
// "error"; unrecognized values fall back to "info").
func New(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// StateChange logs a connection state transition with the structured
// fields the engine's operators grep for.
func StateChange(log *zap.Logger, sessionKey string, from, to string) {
	log.Info("connection state change",
		zap.String("session", sessionKey),
		zap.String("from_state", from),
		zap.String("to_state", to),
	)
}

// SeqGap logs a detected sequence-number gap.
func SeqGap(log *zap.Logger, sessionKey string, expected, got int) {
	log.Warn("sequence gap detected",
		zap.String("session", sessionKey),
		zap.Int("expected", expected),
		zap.Int("got", got),
	)
}

// Resend logs a resend-request or gap-fill decision.
func Resend(log *zap.Logger, sessionKey string, beginSeq, endSeq int, gapFill bool) {
	log.Info("resend",
		zap.String("session", sessionKey),
		zap.Int("begin_seq", beginSeq),
		zap.Int("end_seq", endSeq),
		zap.Bool("gap_fill", gapFill),
	)
}
