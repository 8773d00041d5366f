// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.
// Package tools implements the named retrieval operations the assistant can
// run against the Knowledge Store, and the dispatcher that looks them up by
// name.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/InstratChat/services/knowledge"
)

// Tool names. ToolListAllProjects is produced by the classifier but is not
// registered: the orchestrator builds that result directly.
const (
	ToolGetCompanyOverview = "get_company_overview"
	ToolGetEmployeeDetails = "get_employee_details"
	ToolListAllEmployees   = "list_all_employees"
	ToolGetProjectDetails  = "get_project_details"
	ToolFindExpert         = "find_expert"
	ToolListAllProjects    = "list_all_projects"
)

// Argument names used by the registered tools.
const (
	ArgName        = "name"
	ArgProjectName = "project_name"
	ArgSkill       = "skill"
)

// Dispatch sentinel errors.
var (
	// ErrUnknownTool is returned by Dispatch for a name that is not registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrMissingArgument is returned by Dispatch when a required argument is absent.
	ErrMissingArgument = errors.New("missing required argument")
)

var (
	toolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "instrat",
		Subsystem: "tools",
		Name:      "calls_total",
		Help:      "Tool dispatches by tool and result kind.",
	}, []string{"tool", "kind"})

	toolDispatchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "instrat",
		Subsystem: "tools",
		Name:      "dispatch_errors_total",
		Help:      "Dispatch failures by reason.",
	}, []string{"reason"})
)

var toolsTracer = otel.Tracer("instrat.chat.tools")

// Args carries named string arguments for a tool call.
type Args map[string]string

// DispatchError explains why Dispatch could not run a tool.
type DispatchError struct {
	Tool string
	Arg  string
	Err  error
}

// Error renders the message clients see inside an ErrorResult.
func (e *DispatchError) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnknownTool):
		return fmt.Sprintf("Tool '%s' not found", e.Tool)
	case errors.Is(e.Err, ErrMissingArgument):
		return fmt.Sprintf("%s() missing required argument: '%s'", e.Tool, e.Arg)
	default:
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
}

func (e *DispatchError) Unwrap() error { return e.Err }

// ToolSpec describes a registered tool for discovery (MCP listing, prompts).
type ToolSpec struct {
	Name        string
	Description string
	Params      []string
}

type toolEntry struct {
	spec ToolSpec
	run  func(args Args) ToolResult
}

// Registry maps tool names to retrieval operations over a Store.
//
// Description:
//
//	All operations are pure reads. NotFound outcomes are ErrorResult
//	values, not Go errors; the only Go errors are dispatch failures
//	(unknown tool, missing argument).
//
// Thread Safety: Safe for concurrent use; nothing is mutated after NewRegistry.
type Registry struct {
	store *knowledge.Store
	tools map[string]toolEntry
	order []string
}

// NewRegistry builds the registry of the five retrieval tools.
//
// Inputs:
//   - store: The Knowledge Store. Must not be nil.
func NewRegistry(store *knowledge.Store) *Registry {
	r := &Registry{store: store, tools: make(map[string]toolEntry)}

	r.register(ToolSpec{
		Name:        ToolGetCompanyOverview,
		Description: "Get complete company overview including name, tagline, mission",
	}, func(Args) ToolResult { return r.CompanyOverview() })

	r.register(ToolSpec{
		Name:        ToolGetEmployeeDetails,
		Description: "Get detailed information about a specific employee",
		Params:      []string{ArgName},
	}, func(a Args) ToolResult { return r.EmployeeDetails(a[ArgName]) })

	r.register(ToolSpec{
		Name:        ToolListAllEmployees,
		Description: "List all employees with their roles",
	}, func(Args) ToolResult { return r.ListAllEmployees() })

	r.register(ToolSpec{
		Name:        ToolGetProjectDetails,
		Description: "Get detailed information about a specific project",
		Params:      []string{ArgProjectName},
	}, func(a Args) ToolResult { return r.ProjectDetails(a[ArgProjectName]) })

	r.register(ToolSpec{
		Name:        ToolFindExpert,
		Description: "Find employees who have expertise in a specific skill",
		Params:      []string{ArgSkill},
	}, func(a Args) ToolResult { return r.FindExpert(a[ArgSkill]) })

	return r
}

func (r *Registry) register(spec ToolSpec, run func(Args) ToolResult) {
	r.tools[spec.Name] = toolEntry{spec: spec, run: run}
	r.order = append(r.order, spec.Name)
}

// Store returns the Knowledge Store the registry reads from.
func (r *Registry) Store() *knowledge.Store {
	return r.store
}

// Specs returns the registered tool descriptions in registration order.
func (r *Registry) Specs() []ToolSpec {
	out := make([]ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].spec)
	}
	return out
}

// Dispatch runs the named tool.
//
// Description:
//
//	Looks the tool up by name, checks its required arguments and runs it.
//	Extra arguments are ignored.
//
// Outputs:
//
//	ToolResult - The retrieval result. NotFound is an *ErrorResult here.
//	error - *DispatchError wrapping ErrUnknownTool or ErrMissingArgument.
func (r *Registry) Dispatch(ctx context.Context, name string, args Args) (ToolResult, error) {
	_, span := toolsTracer.Start(ctx, "tools.Registry.Dispatch",
		trace.WithAttributes(attribute.String("tool", name)),
	)
	defer span.End()

	entry, ok := r.tools[name]
	if !ok {
		err := &DispatchError{Tool: name, Err: ErrUnknownTool}
		span.SetStatus(codes.Error, err.Error())
		toolDispatchErrorsTotal.WithLabelValues("unknown_tool").Inc()
		return nil, err
	}

	for _, p := range entry.spec.Params {
		if _, present := args[p]; !present {
			err := &DispatchError{Tool: name, Arg: p, Err: ErrMissingArgument}
			span.SetStatus(codes.Error, err.Error())
			toolDispatchErrorsTotal.WithLabelValues("missing_argument").Inc()
			return nil, err
		}
	}

	result := entry.run(args)
	span.SetAttributes(attribute.String("result_kind", string(result.Kind())))
	toolCallsTotal.WithLabelValues(name, string(result.Kind())).Inc()
	return result, nil
}

// Call is Dispatch with dispatch failures folded into an *ErrorResult, so
// callers always receive a renderable result.
func (r *Registry) Call(ctx context.Context, name string, args Args) ToolResult {
	result, err := r.Dispatch(ctx, name, args)
	if err != nil {
		return &ErrorResult{Message: err.Error()}
	}
	return result
}

// CompanyOverview implements get_company_overview.
func (r *Registry) CompanyOverview() *CompanyOverview {
	c := r.store.CompanyProfile()
	return &CompanyOverview{
		Name:     c.Name,
		Tagline:  c.Tagline,
		Overview: c.Overview,
		Mission:  c.Mission,
	}
}

// EmployeeDetails implements get_employee_details. The name must be an
// exact key.
func (r *Registry) EmployeeDetails(name string) ToolResult {
	e, err := r.store.Employee(name)
	if err != nil {
		return &ErrorResult{
			Message:   fmt.Sprintf("Employee '%s' not found", name),
			Available: r.store.EmployeeNames(),
		}
	}
	return &EmployeeDetail{
		Name:       e.Name,
		Role:       e.Role,
		Department: e.Department,
		Expertise:  e.Expertise,
	}
}

// ListAllEmployees implements list_all_employees.
func (r *Registry) ListAllEmployees() *EmployeeList {
	all := r.store.AllEmployees()
	entries := make([]EmployeeSummary, 0, len(all))
	for _, e := range all {
		entries = append(entries, EmployeeSummary{Name: e.Name, Role: e.Role, Department: e.Department})
	}
	return &EmployeeList{Employees: entries, Total: len(entries)}
}

// ProjectDetails implements get_project_details. The name must be an exact key.
func (r *Registry) ProjectDetails(projectName string) ToolResult {
	p, err := r.store.Project(projectName)
	if err != nil {
		return &ErrorResult{
			Message:   fmt.Sprintf("Project '%s' not found", projectName),
			Available: r.store.ProjectNames(),
		}
	}
	return &ProjectDetail{
		Project:  p.Name,
		Owner:    p.Owner,
		Status:   p.Status,
		Progress: p.Progress,
	}
}

// AllProjects builds the listing behind the synthetic list_all_projects
// intent.
func (r *Registry) AllProjects() *AllProjects {
	all := r.store.AllProjects()
	out := &AllProjects{Projects: make([]NamedProject, 0, len(all))}
	for _, p := range all {
		out.Projects = append(out.Projects, NamedProject{
			Name:        p.Name,
			ProjectInfo: ProjectInfo{Owner: p.Owner, Status: p.Status, Progress: p.Progress},
		})
	}
	return out
}

// FindExpert implements find_expert.
//
// Description:
//
//	An employee matches when the lowercased skill is a substring of any of
//	their lowercased expertise phrases. Matches keep store order.
func (r *Registry) FindExpert(skill string) *ExpertSearch {
	needle := strings.ToLower(skill)
	matches := make([]ExpertMatch, 0)
	for _, e := range r.store.AllEmployees() {
		for _, exp := range e.Expertise {
			if strings.Contains(strings.ToLower(exp), needle) {
				matches = append(matches, ExpertMatch{Name: e.Name, Role: e.Role, Expertise: e.Expertise})
				break
			}
		}
	}

	if len(matches) == 0 {
		return &ExpertSearch{
			Message: fmt.Sprintf("No expert found for '%s'", skill),
			Experts: matches,
		}
	}
	return &ExpertSearch{Skill: skill, Experts: matches}
}
