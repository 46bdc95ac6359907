// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for crashchat.
//
// # Configuration Sources
//
// Configuration is resolved in order of precedence:
//  1. Environment variables (CRASHCHAT_SERVER_URL, CRASHCHAT_LOG_LEVEL, CRASHCHAT_HIGHLIGHT)
//  2. ~/.crashchat/config.toml
//  3. Built-in defaults
//
// # Hot Reload
//
// Watcher reloads the config file when it changes on disk, with debouncing
// so editor save patterns (write, rename, create) trigger a single reload:
//
//	w, err := config.NewWatcher(path, 500*time.Millisecond, func(cfg *config.Config) {
//	    // apply new settings
//	})
//	if err == nil {
//	    w.Watch()
//	    defer w.Close()
//	}
package config
