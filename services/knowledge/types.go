// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package knowledge holds the static company data the assistant answers from:
// the company profile, the employee directory and the project registry.
//
// Thread Safety:
//
//	A Store is immutable after Load returns and is safe for concurrent reads.
package knowledge

import "errors"

// Sentinel errors returned by Store lookups.
var (
	// ErrEmployeeNotFound is returned when no employee has the exact requested name.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrProjectNotFound is returned when no project has the exact requested name.
	ErrProjectNotFound = errors.New("project not found")
)

// CompanyProfile is the singleton company record.
type CompanyProfile struct {
	Name     string `yaml:"name" json:"name" validate:"required"`
	Tagline  string `yaml:"tagline" json:"tagline"`
	Overview string `yaml:"overview" json:"overview"`
	Mission  string `yaml:"mission" json:"mission"`
}

// Employee is one entry of the employee directory.
//
// Expertise order is display order only.
type Employee struct {
	Name       string   `yaml:"name" validate:"required"`
	Role       string   `yaml:"role" validate:"required"`
	Department string   `yaml:"department" validate:"required"`
	Expertise  []string `yaml:"expertise" validate:"dive,required"`
}

// Project is one entry of the project registry.
//
// Owner is expected to name an Employee but is not checked; a dangling owner
// is displayed as stored. Progress is expected in 0-100 and is not enforced.
type Project struct {
	Name     string `yaml:"name" validate:"required"`
	Owner    string `yaml:"owner"`
	Status   string `yaml:"status"`
	Progress int    `yaml:"progress"`
}

// document is the on-disk YAML layout.
type document struct {
	Company   CompanyProfile `yaml:"company"`
	Employees []Employee     `yaml:"employees" validate:"dive"`
	Projects  []Project      `yaml:"projects" validate:"dive"`
}
