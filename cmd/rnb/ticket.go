package main

import (
	"strconv"
	"strings"
)

const defaultMaintenanceTemplate = "release-{version}"

// Ticket is the subset of tracker data needed to name and place a branch.
type Ticket struct {
	ID          int
	Subject     string
	Assignee    string
	Version     string
	TargetLabel string
	URL         string
	Parent      *ParentRef
}

// ParentRef points at the ticket this one is a sub-task of. TargetLabel is
// only known when the parent ticket itself was fetched.
type ParentRef struct {
	ID          int
	TargetLabel string
}

func (t Ticket) HasParent() bool {
	return t.Parent != nil && t.Parent.ID > 0
}

func (t Ticket) withMaintenanceTemplate(template string) Ticket {
	t.TargetLabel = maintenanceLabel(template, t.Version)
	return t
}

func (t Ticket) withParentLabel(label string) Ticket {
	if !t.HasParent() {
		return t
	}
	parent := *t.Parent
	parent.TargetLabel = strings.TrimSpace(label)
	t.Parent = &parent
	return t
}

// targetVersion shortens a numeric version to major.minor ("8.1.0" -> "8.1").
// Non-numeric version names are slugified so they stay usable in ref names.
func targetVersion(version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		return ""
	}
	parts := strings.Split(version, ".")
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return slugify(version)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	if _, err := strconv.Atoi(parts[1]); err != nil {
		return parts[0]
	}
	return parts[0] + "." + parts[1]
}

func maintenanceLabel(template string, version string) string {
	v := targetVersion(version)
	if v == "" {
		return ""
	}
	template = strings.TrimSpace(template)
	if template == "" {
		template = defaultMaintenanceTemplate
	}
	return strings.ReplaceAll(template, "{version}", v)
}
