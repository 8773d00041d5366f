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
	"slices"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/AleutianAI/InstratChat/services/knowledge"
)

// Unknown employee names always produce the full key set, in store order.
func TestProperty_UnknownEmployeeListsAllKeys(t *testing.T) {
	store := knowledge.MustDefault()
	r := NewRegistry(store)

	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.String().Draw(rt, "name")
		if slices.Contains(store.EmployeeNames(), name) {
			rt.Skip("drew a real employee name")
		}

		e, ok := r.EmployeeDetails(name).(*ErrorResult)
		if !ok {
			rt.Fatalf("expected *ErrorResult for %q", name)
		}
		if !slices.Equal(e.Available, store.EmployeeNames()) {
			rt.Fatalf("available = %v, want %v", e.Available, store.EmployeeNames())
		}
	})
}

// Unknown project names always produce the full key set, in store order.
func TestProperty_UnknownProjectListsAllKeys(t *testing.T) {
	store := knowledge.MustDefault()
	r := NewRegistry(store)

	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.String().Draw(rt, "project")
		if slices.Contains(store.ProjectNames(), name) {
			rt.Skip("drew a real project name")
		}

		e, ok := r.ProjectDetails(name).(*ErrorResult)
		if !ok {
			rt.Fatalf("expected *ErrorResult for %q", name)
		}
		if !slices.Equal(e.Available, store.ProjectNames()) {
			rt.Fatalf("available = %v, want %v", e.Available, store.ProjectNames())
		}
	})
}

// Every roster entry resolves through get_employee_details with the same
// role and department.
func TestProperty_RosterRoundTrip(t *testing.T) {
	r := NewRegistry(knowledge.MustDefault())
	roster := r.ListAllEmployees().Employees

	rapid.Check(t, func(rt *rapid.T) {
		entry := rapid.SampledFrom(roster).Draw(rt, "entry")

		d, ok := r.EmployeeDetails(entry.Name).(*EmployeeDetail)
		if !ok {
			rt.Fatalf("roster name %q did not resolve", entry.Name)
		}
		if d.Role != entry.Role || d.Department != entry.Department {
			rt.Fatalf("detail %+v does not match roster entry %+v", d, entry)
		}
	})
}

// find_expert returns exactly the employees with a case-insensitive
// substring hit, in store order.
func TestProperty_FindExpertMatchesSubstring(t *testing.T) {
	store := knowledge.MustDefault()
	r := NewRegistry(store)

	rapid.Check(t, func(rt *rapid.T) {
		skill := rapid.StringMatching(`[A-Za-z ]{1,6}`).Draw(rt, "skill")

		var want []string
		for _, e := range store.AllEmployees() {
			for _, exp := range e.Expertise {
				if strings.Contains(strings.ToLower(exp), strings.ToLower(skill)) {
					want = append(want, e.Name)
					break
				}
			}
		}

		var got []string
		for _, m := range r.FindExpert(skill).Experts {
			got = append(got, m.Name)
		}
		if !slices.Equal(got, want) {
			rt.Fatalf("FindExpert(%q) = %v, want %v", skill, got, want)
		}
	})
}
