// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validate checks the server config before it is used at startup.
func (cfg *ServerConfig) validate() error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidServerConfig, err)
	}
	return nil
}

// validate checks the client config before it is used at startup.
func (cfg *ClientConfig) validate() error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidClientConfig, err)
	}
	return nil
}
