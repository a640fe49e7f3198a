// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidNamespace indicates the derivation namespace is not 32 bytes of hex.
	ErrInvalidNamespace = errors.New("config: invalid namespace (must be 64 hex characters)")

	// ErrInvalidCustodyTag indicates the custody tag is empty or longer than 32 bytes.
	ErrInvalidCustodyTag = errors.New("config: invalid custody tag (must be 1-32 bytes)")

	// ErrInvalidTransferURL indicates the transfer endpoint URL is malformed.
	ErrInvalidTransferURL = errors.New("config: invalid transfer URL")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")
)
