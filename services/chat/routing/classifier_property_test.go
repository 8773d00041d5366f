// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routing

import (
	"context"
	"testing"

	"pgregory.net/rapid"

	"github.com/AleutianAI/InstratChat/services/chat/tools"
	"github.com/AleutianAI/InstratChat/services/knowledge"
)

// Classification is a pure function of the text.
func TestProperty_ClassifyDeterministic(t *testing.T) {
	c, err := NewClassifier(knowledge.MustDefault(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.String().Draw(rt, "text")

		a, okA := c.Classify(ctx, text)
		b, okB := c.Classify(ctx, text)
		if okA != okB || a.Tool != b.Tool || a.Rule != b.Rule || len(a.Args) != len(b.Args) {
			rt.Fatalf("Classify(%q) not deterministic: %+v/%v vs %+v/%v", text, a, okA, b, okB)
		}
		for k, v := range a.Args {
			if b.Args[k] != v {
				rt.Fatalf("Classify(%q) args differ at %q", text, k)
			}
		}
	})
}

// A message naming exactly one employee resolves to that employee even
// when it also mentions the team or a project.
func TestProperty_EmployeeNameWinsOverLaterRules(t *testing.T) {
	store := knowledge.MustDefault()
	c, err := NewClassifier(store, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	prefixes := []string{"", "tell me about ", "who is ", "please describe "}
	suffixes := []string{"", " on the team", " and the projects", " our expert", " from the staff"}

	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.SampledFrom(store.EmployeeNames()).Draw(rt, "name")
		text := rapid.SampledFrom(prefixes).Draw(rt, "prefix") + name + rapid.SampledFrom(suffixes).Draw(rt, "suffix")

		got, ok := c.Classify(context.Background(), text)
		if !ok || got.Tool != tools.ToolGetEmployeeDetails || got.Args[tools.ArgName] != name {
			rt.Fatalf("Classify(%q) = %+v, %v; want employee %q", text, got, ok, name)
		}
	})
}

// An expert question selects the skill from the closed vocabulary, never
// an arbitrary word from the text.
func TestProperty_ExpertSkillFromVocabulary(t *testing.T) {
	c, err := NewClassifier(knowledge.MustDefault(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	vocab := c.rules.SkillVocabulary

	rapid.Check(t, func(rt *rapid.T) {
		skill := rapid.SampledFrom(vocab).Draw(rt, "skill")
		text := "Who are the experts in " + skill + "?"

		got, ok := c.Classify(context.Background(), text)
		if !ok || got.Tool != tools.ToolFindExpert {
			rt.Fatalf("Classify(%q) = %+v, %v", text, got, ok)
		}
		found := false
		for _, v := range vocab {
			if got.Args[tools.ArgSkill] == v {
				found = true
			}
		}
		if !found {
			rt.Fatalf("skill %q is not in the vocabulary", got.Args[tools.ArgSkill])
		}
	})
}
