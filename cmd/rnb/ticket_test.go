package main

import "testing"

func TestTargetVersion(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "8.1.0", want: "8.1"},
		{in: "8.1", want: "8.1"},
		{in: "8", want: "8"},
		{in: "8.x", want: "8"},
		{in: " 2.3.4 ", want: "2.3"},
		{in: "Sprint 12", want: "sprint-12"},
		{in: "", want: ""},
	}
	for _, tc := range cases {
		if got := targetVersion(tc.in); got != tc.want {
			t.Fatalf("targetVersion(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMaintenanceLabel(t *testing.T) {
	if got := maintenanceLabel("", "2.3.1"); got != "release-2.3" {
		t.Fatalf("expected %q, got %q", "release-2.3", got)
	}
	if got := maintenanceLabel("maint/{version}", "4.0"); got != "maint/4.0" {
		t.Fatalf("expected %q, got %q", "maint/4.0", got)
	}
	if got := maintenanceLabel("release-{version}", ""); got != "" {
		t.Fatalf("expected no label without a version, got %q", got)
	}
}

func TestTicketWithParentLabel_CopiesParent(t *testing.T) {
	parent := &ParentRef{ID: 10}
	original := Ticket{ID: 11, Parent: parent}
	updated := original.withParentLabel(" release-1.2 ")
	if updated.Parent.TargetLabel != "release-1.2" {
		t.Fatalf("expected parent label release-1.2, got %q", updated.Parent.TargetLabel)
	}
	if parent.TargetLabel != "" {
		t.Fatalf("expected original parent untouched, got %q", parent.TargetLabel)
	}

	orphan := Ticket{ID: 12}.withParentLabel("release-1.2")
	if orphan.Parent != nil {
		t.Fatalf("expected no parent to be invented, got %+v", orphan.Parent)
	}
}

func TestTicketHasParent(t *testing.T) {
	if (Ticket{ID: 1}).HasParent() {
		t.Fatalf("expected no parent")
	}
	if (Ticket{ID: 1, Parent: &ParentRef{}}).HasParent() {
		t.Fatalf("expected zero parent id to count as no parent")
	}
	if !(Ticket{ID: 1, Parent: &ParentRef{ID: 2}}).HasParent() {
		t.Fatalf("expected parent")
	}
}
