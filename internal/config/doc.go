// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for insights.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides, and validation. A .env file in the working directory is
// loaded into the environment first, without replacing variables that are
// already set.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (INSIGHTS_*), including those from .env
//   - ~/.insights/config.toml
//   - Built-in defaults
//
// # Usage
//
//	if err := config.LoadDotEnv(); err != nil {
//	    return err
//	}
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	client := api.New(cfg.API.BaseURL, tokens, api.WithTimeout(cfg.Timeout()))
package config
