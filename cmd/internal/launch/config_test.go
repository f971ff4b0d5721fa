package launch

import (
	"strings"
	"testing"
)

const validConfigYAML = `
title: Example Tool
description: Launches into example courses.
views:
  course_intro: /courses/{}/intro
  home: /home
  denied: /launch-failed
rules:
  - params: [course]
    view: course_intro
default_view:
  view: home
failed_view:
  view: denied
`

func TestParseConfig(t *testing.T) {
	t.Parallel()

	cfg, err := ParseConfig([]byte(validConfigYAML))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Title != "Example Tool" {
		t.Fatalf("title not parsed: %q", cfg.Title)
	}
	if len(cfg.Rules) != 1 || cfg.Rules[0].View != "course_intro" || cfg.Rules[0].Params[0] != "course" {
		t.Fatalf("rules not parsed: %+v", cfg.Rules)
	}
	if cfg.FailedURL() != "/launch-failed" {
		t.Fatalf("failed URL wrong: %q", cfg.FailedURL())
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(string) string
		wantSub string
	}{
		{
			name:    "unknown default view",
			mutate:  func(s string) string { return strings.Replace(s, "view: home", "view: nope", 1) },
			wantSub: "default_view",
		},
		{
			name:    "unknown failed view",
			mutate:  func(s string) string { return strings.Replace(s, "view: denied", "view: nope", 1) },
			wantSub: "failed_view",
		},
		{
			name:    "missing title",
			mutate:  func(s string) string { return strings.Replace(s, "title: Example Tool", "title: \"\"", 1) },
			wantSub: "title",
		},
		{
			name:    "relative view template",
			mutate:  func(s string) string { return strings.Replace(s, "/home", "home", 1) },
			wantSub: "must start with /",
		},
		{
			name:    "rule without view",
			mutate:  func(s string) string { return strings.Replace(s, "view: course_intro", "view: \"\"", 1) },
			wantSub: "rule 0",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseConfig([]byte(tc.mutate(validConfigYAML)))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestParseConfig_GarbageYAML(t *testing.T) {
	t.Parallel()

	if _, err := ParseConfig([]byte("views: [not, a, map")); err == nil {
		t.Fatalf("expected parse error")
	}
}
