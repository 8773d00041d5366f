// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package format renders tool results as markdown text for chat replies.
package format

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AleutianAI/InstratChat/services/chat/tools"
)

// Bar geometry and glyphs for the progress indicator.
const (
	BarWidth    = 10
	FilledGlyph = "█"
	EmptyGlyph  = "░"
)

// NoExpertsLine is rendered for an expert search without matches.
const NoExpertsLine = "No experts found for the specified skill."

// Format renders a tool result as human-readable text.
//
// Description:
//
//	Dispatches on the result variant, never on field presence. toolName
//	only labels the fallback rendering of variants this package does not
//	know about.
//
// Inputs:
//
//	result - The tool result. A nil result renders as an empty string.
//	toolName - The tool that produced the result.
//
// Outputs:
//
//	string - Markdown text.
//
// Thread Safety: Safe for concurrent use (pure function).
func Format(result tools.ToolResult, toolName string) string {
	switch r := result.(type) {
	case nil:
		return ""
	case *tools.ErrorResult:
		return ErrorLine(r.Message)
	case *tools.EmployeeList:
		return employeeList(r)
	case *tools.EmployeeDetail:
		return employeeDetail(r)
	case *tools.CompanyOverview:
		return companyOverview(r)
	case *tools.ProjectDetail:
		return projectDetail(r)
	case *tools.AllProjects:
		return allProjects(r)
	case *tools.ExpertSearch:
		return expertSearch(r)
	default:
		return fallback(result, toolName)
	}
}

// ErrorLine renders a single warning line.
func ErrorLine(message string) string {
	return "⚠ " + message
}

// FilledCells returns floor(progress/10) clamped to [0, BarWidth].
func FilledCells(progress int) int {
	filled := progress / 10
	if progress < 0 {
		filled = 0
	}
	return min(filled, BarWidth)
}

// ProgressBar renders a BarWidth-cell bar followed by the literal percentage.
//
// Values outside 0–100 are clamped for the bar only; the percentage is
// printed as stored.
func ProgressBar(progress int) string {
	filled := FilledCells(progress)
	return fmt.Sprintf("%s%s %d%%",
		strings.Repeat(FilledGlyph, filled),
		strings.Repeat(EmptyGlyph, BarWidth-filled),
		progress)
}

func employeeList(r *tools.EmployeeList) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Our Team (%d members)**\n\n", r.Total)
	for _, e := range r.Employees {
		fmt.Fprintf(&b, "**%s**\n", e.Name)
		fmt.Fprintf(&b, "    *%s*\n", e.Role)
		fmt.Fprintf(&b, "    %s\n\n", e.Department)
	}
	return strings.TrimSpace(b.String())
}

func employeeDetail(r *tools.EmployeeDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", r.Name)
	fmt.Fprintf(&b, "**Role:** %s\n", r.Role)
	fmt.Fprintf(&b, "**Department:** %s\n", r.Department)
	if len(r.Expertise) > 0 {
		b.WriteString("**Expertise:**\n")
		for _, skill := range r.Expertise {
			fmt.Fprintf(&b, "  • %s\n", skill)
		}
	}
	return strings.TrimSpace(b.String())
}

func companyOverview(r *tools.CompanyOverview) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", r.Name)
	fmt.Fprintf(&b, "*%s*\n\n", r.Tagline)
	fmt.Fprintf(&b, "**Overview:**\n%s\n\n", r.Overview)
	fmt.Fprintf(&b, "**Mission:**\n%s", r.Mission)
	return b.String()
}

func projectDetail(r *tools.ProjectDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Project: %s**\n\n", r.Project)
	fmt.Fprintf(&b, "**Owner:** %s\n", r.Owner)
	fmt.Fprintf(&b, "**Status:** %s\n", r.Status)
	fmt.Fprintf(&b, "**Progress:** %s", ProgressBar(r.Progress))
	return b.String()
}

func allProjects(r *tools.AllProjects) string {
	var b strings.Builder
	b.WriteString("**Active Projects**\n\n")
	for _, p := range r.Projects {
		fmt.Fprintf(&b, "**%s**\n", p.Name)
		fmt.Fprintf(&b, "  Owner: %s\n", p.Owner)
		fmt.Fprintf(&b, "  Status: %s\n", p.Status)
		fmt.Fprintf(&b, "  Progress: %s\n\n", ProgressBar(p.Progress))
	}
	return strings.TrimSpace(b.String())
}

func expertSearch(r *tools.ExpertSearch) string {
	if len(r.Experts) == 0 {
		return NoExpertsLine
	}

	skill := r.Skill
	if skill == "" {
		skill = "this area"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Experts in %s:**\n\n", skill)
	for _, e := range r.Experts {
		fmt.Fprintf(&b, "**%s**\n", e.Name)
		fmt.Fprintf(&b, "    *%s*\n", e.Role)
		fmt.Fprintf(&b, "    Expertise: %s\n\n", strings.Join(e.Expertise, ", "))
	}
	return strings.TrimSpace(b.String())
}

func fallback(result tools.ToolResult, toolName string) string {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%s: %v", toolName, result)
	}
	return string(data)
}
