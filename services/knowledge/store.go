// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.
package knowledge

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Embedded Default Knowledge
// =============================================================================

//go:embed knowledge.yaml
var defaultKnowledgeYAML []byte

// MaxYAMLFileSize bounds the size of a knowledge file accepted by Load.
const MaxYAMLFileSize = 1 << 20

var knowledgeTracer = otel.Tracer("instrat.knowledge")

// Store is the read-only Knowledge Store.
//
// Description:
//
//	Holds the company profile plus employees and projects in file order.
//	Keys are case-sensitive. Callers that match user text do their own
//	case folding before calling in.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Store struct {
	company   CompanyProfile
	employees []Employee
	projects  []Project

	employeeIndex map[string]int
	projectIndex  map[string]int
}

// =============================================================================
// Singleton Default Store
// =============================================================================

var (
	defaultStoreOnce sync.Once
	defaultStore     *Store
	defaultStoreErr  error
)

// Default returns the Store built from the embedded knowledge file.
//
// Thread Safety: Safe for concurrent use via sync.Once.
func Default() (*Store, error) {
	defaultStoreOnce.Do(func() {
		defaultStore, defaultStoreErr = Load(context.Background(), defaultKnowledgeYAML)
	})
	return defaultStore, defaultStoreErr
}

// MustDefault is Default for callers that treat a broken embedded file as a
// programming error (tests, package-level wiring).
func MustDefault() *Store {
	s, err := Default()
	if err != nil {
		panic(fmt.Sprintf("knowledge: embedded store: %v", err))
	}
	return s
}

// LoadFile reads a knowledge YAML file from disk and builds a Store.
func LoadFile(ctx context.Context, path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("knowledge: reading %s: %w", path, err)
	}
	return Load(ctx, data)
}

// Load parses and validates knowledge YAML and builds a Store.
//
// Description:
//
//	Every employee must carry a name, role and department; names of
//	employees and of projects must be unique. Progress values outside
//	0-100 are accepted with a warning since only the progress bar
//	depends on the range.
//
// Inputs:
//
//	ctx - Context for tracing.
//	data - Raw YAML bytes.
//
// Outputs:
//
//	*Store - The immutable store.
//	error - Non-nil if parsing or validation fails.
func Load(ctx context.Context, data []byte) (*Store, error) {
	_, span := knowledgeTracer.Start(ctx, "knowledge.Load")
	defer span.End()

	if len(data) == 0 {
		return nil, fmt.Errorf("knowledge: empty YAML data")
	}
	if len(data) > MaxYAMLFileSize {
		return nil, fmt.Errorf("knowledge: YAML data exceeds maximum size (%d > %d)", len(data), MaxYAMLFileSize)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("knowledge: parsing YAML: %w", err)
	}

	if err := validator.New().Struct(&doc); err != nil {
		return nil, fmt.Errorf("knowledge: validation: %w", err)
	}

	s, err := newStore(doc)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("company", s.company.Name),
		attribute.Int("employees", len(s.employees)),
		attribute.Int("projects", len(s.projects)),
	)
	slog.Debug("knowledge store loaded",
		slog.String("company", s.company.Name),
		slog.Int("employees", len(s.employees)),
		slog.Int("projects", len(s.projects)),
	)
	return s, nil
}

func newStore(doc document) (*Store, error) {
	s := &Store{
		company:       doc.Company,
		employees:     make([]Employee, 0, len(doc.Employees)),
		projects:      make([]Project, 0, len(doc.Projects)),
		employeeIndex: make(map[string]int, len(doc.Employees)),
		projectIndex:  make(map[string]int, len(doc.Projects)),
	}

	for i, e := range doc.Employees {
		if _, dup := s.employeeIndex[e.Name]; dup {
			return nil, fmt.Errorf("knowledge: employees[%d]: duplicate name %q", i, e.Name)
		}
		e.Expertise = cloneStrings(e.Expertise)
		s.employeeIndex[e.Name] = len(s.employees)
		s.employees = append(s.employees, e)
	}

	for i, p := range doc.Projects {
		if _, dup := s.projectIndex[p.Name]; dup {
			return nil, fmt.Errorf("knowledge: projects[%d]: duplicate name %q", i, p.Name)
		}
		if p.Progress < 0 || p.Progress > 100 {
			slog.Warn("project progress outside 0-100",
				slog.String("project", p.Name),
				slog.Int("progress", p.Progress),
			)
		}
		if _, ok := s.employeeIndex[p.Owner]; !ok {
			slog.Debug("project owner is not a known employee",
				slog.String("project", p.Name),
				slog.String("owner", p.Owner),
			)
		}
		s.projectIndex[p.Name] = len(s.projects)
		s.projects = append(s.projects, p)
	}

	return s, nil
}

// CompanyProfile returns the company record.
func (s *Store) CompanyProfile() CompanyProfile {
	return s.company
}

// Employee returns the employee with exactly the given name.
//
// Outputs:
//
//	Employee - A copy of the record; mutating it does not affect the store.
//	error - ErrEmployeeNotFound (wrapped) if the name is not a key.
func (s *Store) Employee(name string) (Employee, error) {
	i, ok := s.employeeIndex[name]
	if !ok {
		return Employee{}, fmt.Errorf("%w: %q", ErrEmployeeNotFound, name)
	}
	e := s.employees[i]
	e.Expertise = cloneStrings(e.Expertise)
	return e, nil
}

// AllEmployees returns every employee in store order.
func (s *Store) AllEmployees() []Employee {
	out := make([]Employee, len(s.employees))
	for i, e := range s.employees {
		e.Expertise = cloneStrings(e.Expertise)
		out[i] = e
	}
	return out
}

// EmployeeNames returns the employee keys in store order.
func (s *Store) EmployeeNames() []string {
	names := make([]string, len(s.employees))
	for i, e := range s.employees {
		names[i] = e.Name
	}
	return names
}

// Project returns the project with exactly the given name.
func (s *Store) Project(name string) (Project, error) {
	i, ok := s.projectIndex[name]
	if !ok {
		return Project{}, fmt.Errorf("%w: %q", ErrProjectNotFound, name)
	}
	return s.projects[i], nil
}

// AllProjects returns every project in store order.
func (s *Store) AllProjects() []Project {
	out := make([]Project, len(s.projects))
	copy(out, s.projects)
	return out
}

// ProjectNames returns the project keys in store order.
func (s *Store) ProjectNames() []string {
	names := make([]string, len(s.projects))
	for i, p := range s.projects {
		names[i] = p.Name
	}
	return names
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
