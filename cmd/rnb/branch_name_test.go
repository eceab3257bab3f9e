package main

import (
	"errors"
	"strings"
	"testing"
)

func TestBranchNamingRender_FullTemplate(t *testing.T) {
	naming, err := NewBranchNaming("rd-{id}-{initials}-{version}-{slug}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ticket := Ticket{
		ID:       42,
		Subject:  `[Do] stuff "asap" `,
		Assignee: "Arnold Bcon Tran",
		Version:  "8.1.0",
	}
	got, err := naming.Render(ticket)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "rd-42-abc-8.1-do-stuff-asap"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestBranchNamingRender_EmptyFieldsCollapse(t *testing.T) {
	naming, err := NewBranchNaming("rd-{id}-{initials}-{version}-{slug}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := naming.Render(Ticket{ID: 7, Subject: "Fix login"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "rd-7-fix-login"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestBranchNamingRender_DefaultTemplate(t *testing.T) {
	var naming BranchNaming
	got, err := naming.Render(Ticket{ID: 501, Subject: "ignored"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "501" {
		t.Fatalf("expected %q, got %q", "501", got)
	}
}

func TestBranchNamingRender_SlashTemplate(t *testing.T) {
	naming, err := NewBranchNaming("feature/{id}-{slug}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := naming.Render(Ticket{ID: 12, Subject: "  "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "feature/12" {
		t.Fatalf("expected %q, got %q", "feature/12", got)
	}
}

func TestBranchNamingRender_TrimsRefUnsafeEndings(t *testing.T) {
	cases := []struct {
		template string
		ticket   Ticket
		want     string
	}{
		{template: "{id}-{slug}", ticket: Ticket{ID: 42, Subject: "Bump yarn.lock"}, want: "42-bump-yarn"},
		{template: "{id}-{slug}", ticket: Ticket{ID: 44, Subject: "Drop config.lock.lock"}, want: "44-drop-config"},
		{template: "{id}/{slug}", ticket: Ticket{ID: 43, Subject: "[]"}, want: "43"},
		{template: "{id}/{version}/{slug}", ticket: Ticket{ID: 45, Subject: "Tidy"}, want: "45/tidy"},
		{template: "team/{id}/{version}", ticket: Ticket{ID: 46}, want: "team/46"},
	}
	for _, tc := range cases {
		naming, err := NewBranchNaming(tc.template)
		if err != nil {
			t.Fatalf("NewBranchNaming(%q): %v", tc.template, err)
		}
		got, err := naming.Render(tc.ticket)
		if err != nil {
			t.Fatalf("Render(%q, %+v): %v", tc.template, tc.ticket, err)
		}
		if got != tc.want {
			t.Fatalf("Render(%q, %+v) = %q, want %q", tc.template, tc.ticket, got, tc.want)
		}
	}
}

func TestBranchNamingRender_RejectsBadID(t *testing.T) {
	var naming BranchNaming
	if _, err := naming.Render(Ticket{ID: 0}); !errors.Is(err, errInvalidBranchName) {
		t.Fatalf("expected errInvalidBranchName, got %v", err)
	}
}

func TestNewBranchNaming_Validation(t *testing.T) {
	cases := []struct {
		template string
		ok       bool
	}{
		{template: "", ok: true},
		{template: "{id}", ok: true},
		{template: "rd-{id}-{slug}", ok: true},
		{template: "users/me/{id}", ok: true},
		{template: "{slug}", ok: false},
		{template: "{slug}-{id}", ok: false},
		{template: "rd-{id}-{title}", ok: false},
		{template: "-{id}", ok: false},
		{template: "a..b/{id}", ok: false},
		{template: "bad name/{id}", ok: false},
	}
	for _, tc := range cases {
		_, err := NewBranchNaming(tc.template)
		if tc.ok && err != nil {
			t.Fatalf("template %q: unexpected error: %v", tc.template, err)
		}
		if !tc.ok && !errors.Is(err, errInvalidConfig) {
			t.Fatalf("template %q: expected errInvalidConfig, got %v", tc.template, err)
		}
	}
}

func TestBranchNamingMatchesTicket(t *testing.T) {
	naming, err := NewBranchNaming("rd-{id}-{slug}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cases := []struct {
		name string
		want bool
	}{
		{name: "rd-501", want: true},
		{name: "rd-501-do-stuff", want: true},
		{name: "rd-501_spike", want: true},
		{name: "rd-501/part-2", want: true},
		{name: "rd-501.1", want: false},
		{name: "rd-5012", want: false},
		{name: "rd-50", want: false},
		{name: "501", want: false},
		{name: "xrd-501", want: false},
	}
	for _, tc := range cases {
		if got := naming.MatchesTicket(tc.name, 501); got != tc.want {
			t.Fatalf("MatchesTicket(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
	if naming.MatchesTicket("rd-0", 0) {
		t.Fatalf("expected id 0 to never match")
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: ` [Do] the - "laundry" `, want: "do-the-laundry"},
		{in: "Crash: null pointer", want: "crash=-null-pointer"},
		{in: "Éditeur à l'écran", want: "editeur-a-lecran"},
		{in: "v1.2..3 release_notes", want: "v1.2.3-release_notes"},
		{in: "...dots...", want: "dots"},
		{in: "!!!", want: ""},
		{in: "Bump yarn.lock", want: "bump-yarn"},
		{in: "a.lock-.lock", want: "a"},
	}
	for _, tc := range cases {
		if got := slugify(tc.in); got != tc.want {
			t.Fatalf("slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlugify_Truncates(t *testing.T) {
	got := slugify(strings.Repeat("word ", 40))
	if len([]rune(got)) > maxSlugLength {
		t.Fatalf("expected at most %d runes, got %d (%q)", maxSlugLength, len([]rune(got)), got)
	}
	if strings.HasSuffix(got, "-") {
		t.Fatalf("expected no trailing dash, got %q", got)
	}
}

func TestInitials(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "Arnold Bcon Tran", want: "abc"},
		{in: "Émile Zola", want: "ezo"},
		{in: "Jo X", want: "jx"},
		{in: "Madonna", want: ""},
		{in: "", want: ""},
	}
	for _, tc := range cases {
		if got := initials(tc.in); got != tc.want {
			t.Fatalf("initials(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidateBranchName(t *testing.T) {
	valid := []string{"501", "rd-501-fix", "feature/501", "release-2.3"}
	for _, name := range valid {
		if err := validateBranchName(name); err != nil {
			t.Fatalf("validateBranchName(%q): unexpected error: %v", name, err)
		}
	}
	invalid := []string{"", "@", "-x", "/x", "x/", "x.", "x.lock", "a..b", "a//b", "a@{b", "a b", "a~b", "a^b", "a:b", "a?b", "a*b", "a[b", `a\b`, "a\tb", ".x", "a/.x"}
	for _, name := range invalid {
		if err := validateBranchName(name); !errors.Is(err, errInvalidBranchName) {
			t.Fatalf("validateBranchName(%q): expected errInvalidBranchName, got %v", name, err)
		}
	}
}
