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

// Package config loads connection/session configuration with a
// defaults-struct-plus-environment-override pattern: start from sane
// defaults, then let environment variables override individual fields.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything one Connection needs to dial or accept a FIX
// session.
type Config struct {
	SenderCompID string
	TargetCompID string
	Host         string
	Port         int

	HeartBtInt      time.Duration
	ResetOnLogon    bool
	JournalPath     string
	SchemaPath      string
	LogLevel        string
}

// Default returns the built-in defaults before environment overrides are
// applied.
func Default() Config {
	return Config{
		SenderCompID: "CLIENT",
		TargetCompID: "SERVER",
		Host:         "127.0.0.1",
		Port:         9878,
		HeartBtInt:   30 * time.Second,
		ResetOnLogon: false,
		JournalPath:  "asyncfix.db",
		SchemaPath:   "FIX44.xml",
		LogLevel:     "info",
	}
}

// FromEnv returns Default() with any ASYNCFIX_* environment variable
// applied on top of the defaults.
func FromEnv() (Config, error) {
	c := Default()

	if v := os.Getenv("ASYNCFIX_SENDER_COMP_ID"); v != "" {
		c.SenderCompID = v
	}
	if v := os.Getenv("ASYNCFIX_TARGET_COMP_ID"); v != "" {
		c.TargetCompID = v
	}
	if v := os.Getenv("ASYNCFIX_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("ASYNCFIX_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("config: ASYNCFIX_PORT: %w", err)
		}
		c.Port = p
	}
	if v := os.Getenv("ASYNCFIX_HEARTBEAT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("config: ASYNCFIX_HEARTBEAT_SECONDS: %w", err)
		}
		c.HeartBtInt = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("ASYNCFIX_RESET_ON_LOGON"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c, fmt.Errorf("config: ASYNCFIX_RESET_ON_LOGON: %w", err)
		}
		c.ResetOnLogon = b
	}
	if v := os.Getenv("ASYNCFIX_JOURNAL_PATH"); v != "" {
		c.JournalPath = v
	}
	if v := os.Getenv("ASYNCFIX_SCHEMA_PATH"); v != "" {
		c.SchemaPath = v
	}
	if v := os.Getenv("ASYNCFIX_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return c, nil
}

// Addr returns "host:port" for net.Dial/net.Listen.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
