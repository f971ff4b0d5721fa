package launch

import (
	"log/slog"
	"testing"
)

func testViews() ViewSet {
	return ViewSet{
		"course_intro": "/courses/{}/intro",
		"course_unit":  "/courses/{}/units/{}",
		"home":         "/home",
		"denied":       "/launch-failed",
	}
}

func TestViewSet_Resolve(t *testing.T) {
	t.Parallel()

	views := testViews()

	dest, err := views.Resolve("course_unit", []string{"algebra", "7"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if dest != "/courses/algebra/units/7" {
		t.Fatalf("wrong destination %q", dest)
	}

	if _, err := views.Resolve("missing", nil); err == nil {
		t.Fatalf("expected error for unknown view")
	}
	if _, err := views.Resolve("course_intro", nil); err == nil {
		t.Fatalf("expected arity error")
	}
	if _, err := views.Resolve("home", []string{"extra"}); err == nil {
		t.Fatalf("expected arity error for surplus argument")
	}
}

func TestViewSet_ResolveEscapesArguments(t *testing.T) {
	t.Parallel()

	dest, err := testViews().Resolve("course_intro", []string{"a/b c"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if dest != "/courses/a%2Fb%20c/intro" {
		t.Fatalf("argument not escaped: %q", dest)
	}
}

func TestResolver_FirstMatchWins(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		{Params: []string{"course"}, View: "course_intro"},
		{Params: nil, View: "home"},
	}
	res, err := NewResolver(testViews(), rules, ViewRef{View: "home"}, slog.Default())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	dest, err := res.Resolve(map[string]string{"course": "algebra"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if dest != "/courses/algebra/intro" {
		t.Fatalf("rule order violated, got %q", dest)
	}
}

func TestResolver_SkipsRuleWithMissingParam(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		{Params: []string{"a", "b"}, View: "course_unit"},
		{Params: nil, View: "home"},
	}
	res, err := NewResolver(testViews(), rules, ViewRef{View: "denied"}, slog.Default())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	dest, err := res.Resolve(map[string]string{"a": "1"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if dest != "/home" {
		t.Fatalf("expected fallthrough to second rule, got %q", dest)
	}
}

func TestResolver_SkipsUnresolvableRule(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		// Arity mismatch: two params feed a one-slot template.
		{Params: []string{"a", "b"}, View: "course_intro"},
		{Params: []string{"a"}, View: "course_intro"},
	}
	res, err := NewResolver(testViews(), rules, ViewRef{View: "home"}, slog.Default())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	dest, err := res.Resolve(map[string]string{"a": "x", "b": "y"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if dest != "/courses/x/intro" {
		t.Fatalf("expected broken rule skipped, got %q", dest)
	}
}

func TestResolver_DefaultFallback(t *testing.T) {
	t.Parallel()

	res, err := NewResolver(testViews(), nil, ViewRef{View: "course_intro", Args: []string{"welcome"}}, slog.Default())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	dest, err := res.Resolve(nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if dest != "/courses/welcome/intro" {
		t.Fatalf("wrong default destination %q", dest)
	}
}

func TestNewResolver_RejectsBadDefault(t *testing.T) {
	t.Parallel()

	if _, err := NewResolver(testViews(), nil, ViewRef{View: "nope"}, slog.Default()); err == nil {
		t.Fatalf("expected error for unresolvable default view")
	}
	if _, err := NewResolver(testViews(), nil, ViewRef{View: "course_intro"}, slog.Default()); err == nil {
		t.Fatalf("expected arity error for default view without args")
	}
}
