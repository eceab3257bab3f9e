package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	defaultRemote      = "origin"
	defaultMainlineRef = "master"
)

// BaseKind tags which rule picked the base ref of a new branch.
type BaseKind int

const (
	BaseDefault BaseKind = iota
	BaseMaintenance
	BaseParent
	BaseParentMaintenance
	BaseExplicit
)

func (k BaseKind) String() string {
	switch k {
	case BaseDefault:
		return "default"
	case BaseMaintenance:
		return "maintenance"
	case BaseParent:
		return "parent"
	case BaseParentMaintenance:
		return "parent-maintenance"
	case BaseExplicit:
		return "explicit"
	default:
		return fmt.Sprintf("BaseKind(%d)", int(k))
	}
}

// ParentFallback decides what happens when a sub-task's parent has no branch.
type ParentFallback string

const (
	// ParentFallbackDefault goes straight to the ticket's own maintenance
	// label, then the default ref.
	ParentFallbackDefault ParentFallback = "default"
	// ParentFallbackParentLabel tries the parent's maintenance label first.
	ParentFallbackParentLabel ParentFallback = "parent-label"
)

func parseParentFallback(value string) (ParentFallback, error) {
	switch ParentFallback(strings.TrimSpace(strings.ToLower(value))) {
	case "", ParentFallbackDefault:
		return ParentFallbackDefault, nil
	case ParentFallbackParentLabel:
		return ParentFallbackParentLabel, nil
	default:
		return "", fmt.Errorf("%w: parent_fallback must be %q or %q, got %q", errInvalidConfig, ParentFallbackDefault, ParentFallbackParentLabel, value)
	}
}

type ResolverPolicy struct {
	DefaultRef     string
	Remote         string
	Naming         BranchNaming
	ParentFallback ParentFallback
}

func (p ResolverPolicy) remote() string {
	if r := strings.TrimSpace(p.Remote); r != "" {
		return r
	}
	return defaultRemote
}

func (p ResolverPolicy) defaultRef() string {
	if ref := strings.TrimSpace(p.DefaultRef); ref != "" {
		return ref
	}
	return p.remote() + "/" + defaultMainlineRef
}

type Resolution struct {
	Kind      BaseKind
	BaseRef   string
	NewBranch string
}

// baseRule yields a base ref when it applies to the ticket. A non-nil error
// stops resolution.
type baseRule struct {
	kind  BaseKind
	match func(t Ticket, refs refIndex) (string, bool, error)
}

// Resolver picks the base ref for a ticket's branch. It has no side effects:
// the outcome depends only on the policy, the ticket and the known refs.
type Resolver struct {
	policy ResolverPolicy
	rules  []baseRule
}

func NewResolver(policy ResolverPolicy) *Resolver {
	r := &Resolver{policy: policy}
	r.rules = append(r.rules, baseRule{kind: BaseParent, match: r.matchParent})
	if policy.ParentFallback == ParentFallbackParentLabel {
		r.rules = append(r.rules, baseRule{kind: BaseParentMaintenance, match: matchParentLabel})
	}
	r.rules = append(r.rules,
		baseRule{kind: BaseMaintenance, match: matchMaintenance},
		baseRule{kind: BaseDefault, match: r.matchDefault},
	)
	return r
}

func (r *Resolver) Policy() ResolverPolicy {
	return r.policy
}

// Resolve applies the rules in priority order and returns the first match.
func (r *Resolver) Resolve(t Ticket, knownRefs []string) (Resolution, error) {
	newBranch, err := r.policy.Naming.Render(t)
	if err != nil {
		return Resolution{}, err
	}
	refs := newRefIndex(knownRefs, r.policy.remote())
	for _, rule := range r.rules {
		base, ok, err := rule.match(t, refs)
		if err != nil {
			return Resolution{}, err
		}
		if ok {
			return Resolution{Kind: rule.kind, BaseRef: base, NewBranch: newBranch}, nil
		}
	}
	return Resolution{}, &ResolutionError{Kind: errNoDefaultRef, TicketID: t.ID, Ref: r.policy.defaultRef()}
}

// Candidates lists every applicable base in priority order, without
// duplicates. The first element is what Resolve returns.
func (r *Resolver) Candidates(t Ticket, knownRefs []string) ([]Resolution, error) {
	newBranch, err := r.policy.Naming.Render(t)
	if err != nil {
		return nil, err
	}
	refs := newRefIndex(knownRefs, r.policy.remote())
	seen := make(map[string]bool, len(r.rules))
	out := make([]Resolution, 0, len(r.rules))
	for _, rule := range r.rules {
		base, ok, err := rule.match(t, refs)
		if err != nil {
			if errors.Is(err, errNoDefaultRef) && len(out) > 0 {
				continue
			}
			return nil, err
		}
		if !ok || seen[base] {
			continue
		}
		seen[base] = true
		out = append(out, Resolution{Kind: rule.kind, BaseRef: base, NewBranch: newBranch})
	}
	return out, nil
}

func (r *Resolver) matchParent(t Ticket, refs refIndex) (string, bool, error) {
	if !t.HasParent() {
		return "", false, nil
	}
	var matches []string
	for _, name := range refs.names {
		if r.policy.Naming.MatchesTicket(name, t.Parent.ID) {
			matches = append(matches, refs.byName[name])
		}
	}
	switch len(matches) {
	case 0:
		return "", false, nil
	case 1:
		return matches[0], true, nil
	default:
		return "", false, &ResolutionError{
			Kind:       errAmbiguousParent,
			TicketID:   t.ID,
			Ref:        fmt.Sprintf("%s%d", r.policy.Naming.prefix, t.Parent.ID),
			Candidates: matches,
		}
	}
}

func matchParentLabel(t Ticket, refs refIndex) (string, bool, error) {
	if !t.HasParent() {
		return "", false, nil
	}
	ref, ok := refs.lookup(t.Parent.TargetLabel)
	return ref, ok, nil
}

func matchMaintenance(t Ticket, refs refIndex) (string, bool, error) {
	ref, ok := refs.lookup(t.TargetLabel)
	return ref, ok, nil
}

func (r *Resolver) matchDefault(t Ticket, refs refIndex) (string, bool, error) {
	ref := r.policy.defaultRef()
	if !refs.exact[ref] {
		return "", false, &ResolutionError{Kind: errNoDefaultRef, TicketID: t.ID, Ref: ref}
	}
	return ref, true, nil
}

// refIndex looks refs up by logical branch name: "origin/x" and a local "x"
// both answer to "x", and the local branch wins.
type refIndex struct {
	exact  map[string]bool
	byName map[string]string
	names  []string
}

func newRefIndex(knownRefs []string, remote string) refIndex {
	idx := refIndex{
		exact:  make(map[string]bool, len(knownRefs)),
		byName: make(map[string]string, len(knownRefs)),
	}
	remotePrefix := remote + "/"
	for _, raw := range knownRefs {
		ref := strings.TrimSpace(raw)
		if ref == "" {
			continue
		}
		idx.exact[ref] = true
		name := ref
		isRemote := strings.HasPrefix(ref, remotePrefix)
		if isRemote {
			name = strings.TrimPrefix(ref, remotePrefix)
		}
		if name == "" || name == "HEAD" {
			continue
		}
		if existing, ok := idx.byName[name]; ok && !strings.HasPrefix(existing, remotePrefix) {
			continue
		}
		if _, ok := idx.byName[name]; ok && isRemote {
			continue
		}
		idx.byName[name] = ref
	}
	idx.names = make([]string, 0, len(idx.byName))
	for name := range idx.byName {
		idx.names = append(idx.names, name)
	}
	sort.Strings(idx.names)
	return idx
}

func (x refIndex) lookup(label string) (string, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", false
	}
	if ref, ok := x.byName[label]; ok {
		return ref, true
	}
	if x.exact[label] {
		return label, true
	}
	return "", false
}
