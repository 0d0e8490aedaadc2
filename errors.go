// Copyright (C) The Adex Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package adex

import "fmt"

// DataError reports malformed or missing input data: an empty file
// glob, a cell that cannot be cast to a number. It is fatal to the call
// that hit it, not to the process.
type DataError struct {
	Message string
	Err     error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err)
	}
	return e.Message
}

func (e *DataError) Unwrap() error { return e.Err }

func dataErrorf(format string, args ...any) error {
	return &DataError{Message: fmt.Sprintf(format, args...)}
}

// ConfigError reports a misconfiguration, such as a selector variant
// reaching a dispatch site that has no case for it.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

func configErrorf(format string, args ...any) error {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}
