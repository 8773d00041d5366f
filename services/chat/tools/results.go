// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.
package tools

import (
	"bytes"
	"encoding/json"
)

// ResultKind tags the variant held by a ToolResult.
type ResultKind string

// Result kinds, one per ToolResult variant.
const (
	KindError           ResultKind = "error"
	KindCompanyOverview ResultKind = "company_overview"
	KindEmployeeList    ResultKind = "employee_list"
	KindEmployeeDetail  ResultKind = "employee_detail"
	KindProjectDetail   ResultKind = "project_detail"
	KindAllProjects     ResultKind = "all_projects"
	KindExpertSearch    ResultKind = "expert_search"
)

// ToolResult is the closed set of shapes a retrieval can produce.
//
// Description:
//
//	Consumers switch on the concrete type (or on Kind) instead of probing
//	for fields. The JSON encoding of each variant is the wire shape that
//	clients of the chat endpoint receive under "tool_result".
//
// Thread Safety: Values are not shared between requests.
type ToolResult interface {
	Kind() ResultKind
	isToolResult()
}

// ErrorResult reports an unknown key or a dispatch failure.
type ErrorResult struct {
	// Message is the human-readable failure text.
	Message string

	// Available lists valid alternatives; nil when none apply.
	Available []string
}

// MarshalJSON emits {"error": ..., "available": [...]} and omits
// "available" only when no alternatives were attached.
func (r *ErrorResult) MarshalJSON() ([]byte, error) {
	if r.Available == nil {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Message})
	}
	return json.Marshal(struct {
		Error     string   `json:"error"`
		Available []string `json:"available"`
	}{r.Message, r.Available})
}

// CompanyOverview mirrors the company profile.
type CompanyOverview struct {
	Name     string `json:"name"`
	Tagline  string `json:"tagline"`
	Overview string `json:"overview"`
	Mission  string `json:"mission"`
}

// EmployeeSummary is one roster line.
type EmployeeSummary struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// EmployeeList is the full roster in store order.
type EmployeeList struct {
	Employees []EmployeeSummary `json:"employees"`
	Total     int               `json:"total"`
}

// EmployeeDetail is the full record of one employee.
type EmployeeDetail struct {
	Name       string   `json:"name"`
	Role       string   `json:"role"`
	Department string   `json:"department"`
	Expertise  []string `json:"expertise"`
}

// ProjectDetail is the full record of one project.
type ProjectDetail struct {
	Project  string `json:"project"`
	Owner    string `json:"owner"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

// ProjectInfo is a project record without its name.
type ProjectInfo struct {
	Owner    string `json:"owner"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

// NamedProject pairs a project name with its record.
type NamedProject struct {
	Name string
	ProjectInfo
}

// AllProjects lists every project in store order.
type AllProjects struct {
	Projects []NamedProject
}

// MarshalJSON emits {"projects": {name: {...}, ...}} with keys in store
// order, which encoding/json would otherwise sort.
func (r *AllProjects) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"projects":{`)
	for i, p := range r.Projects {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.ProjectInfo)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// ExpertMatch is one employee whose expertise matched a skill.
type ExpertMatch struct {
	Name      string   `json:"name"`
	Role      string   `json:"role"`
	Expertise []string `json:"expertise"`
}

// ExpertSearch is the outcome of find_expert.
//
// On a hit Skill is set and Experts is non-empty. On a miss Message is set
// and Experts is empty (never null on the wire).
type ExpertSearch struct {
	Skill   string        `json:"skill,omitempty"`
	Message string        `json:"message,omitempty"`
	Experts []ExpertMatch `json:"experts"`
}

func (*ErrorResult) Kind() ResultKind     { return KindError }
func (*CompanyOverview) Kind() ResultKind { return KindCompanyOverview }
func (*EmployeeList) Kind() ResultKind    { return KindEmployeeList }
func (*EmployeeDetail) Kind() ResultKind  { return KindEmployeeDetail }
func (*ProjectDetail) Kind() ResultKind   { return KindProjectDetail }
func (*AllProjects) Kind() ResultKind     { return KindAllProjects }
func (*ExpertSearch) Kind() ResultKind    { return KindExpertSearch }

func (*ErrorResult) isToolResult()     {}
func (*CompanyOverview) isToolResult() {}
func (*EmployeeList) isToolResult()    {}
func (*EmployeeDetail) isToolResult()  {}
func (*ProjectDetail) isToolResult()   {}
func (*AllProjects) isToolResult()     {}
func (*ExpertSearch) isToolResult()    {}
