package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	defaultBranchTemplate = "{id}"
	maxSlugLength         = 60
)

var (
	templateTokenPattern = regexp.MustCompile(`\{[a-z]+\}`)
	repeatedDashPattern  = regexp.MustCompile(`-{2,}`)
	repeatedDotPattern   = regexp.MustCompile(`\.{2,}`)
	repeatedSlashPattern = regexp.MustCompile(`/{2,}`)
)

var knownTemplateTokens = map[string]bool{
	"{id}":       true,
	"{slug}":     true,
	"{initials}": true,
	"{version}":  true,
}

// BranchNaming renders branch names from a template such as
// "rd-{id}-{initials}-{version}-{slug}". Only literal text may precede {id} so
// that a ticket's branch can be recognised from its id alone.
type BranchNaming struct {
	template string
	prefix   string
}

func NewBranchNaming(template string) (BranchNaming, error) {
	template = strings.TrimSpace(template)
	if template == "" {
		template = defaultBranchTemplate
	}
	for _, tok := range templateTokenPattern.FindAllString(template, -1) {
		if !knownTemplateTokens[tok] {
			return BranchNaming{}, fmt.Errorf("%w: unknown token %s in branch template %q", errInvalidConfig, tok, template)
		}
	}
	idx := strings.Index(template, "{id}")
	if idx < 0 {
		return BranchNaming{}, fmt.Errorf("%w: branch template %q must contain {id}", errInvalidConfig, template)
	}
	prefix := template[:idx]
	if strings.ContainsAny(prefix, "{}") {
		return BranchNaming{}, fmt.Errorf("%w: branch template %q: only literal text may precede {id}", errInvalidConfig, template)
	}
	if sample := prefix + "1"; tidyBranchName(sample) != sample || validateBranchName(sample) != nil {
		return BranchNaming{}, fmt.Errorf("%w: branch template %q has an unusable prefix %q", errInvalidConfig, template, prefix)
	}
	return BranchNaming{template: template, prefix: prefix}, nil
}

func (n BranchNaming) Template() string {
	if n.template == "" {
		return defaultBranchTemplate
	}
	return n.template
}

// Render returns the branch name for t. It depends only on the ticket fields,
// so the same ticket always yields the same name.
func (n BranchNaming) Render(t Ticket) (string, error) {
	if t.ID <= 0 {
		return "", fmt.Errorf("%w: ticket id must be positive, got %d", errInvalidBranchName, t.ID)
	}
	r := strings.NewReplacer(
		"{id}", strconv.Itoa(t.ID),
		"{slug}", slugify(t.Subject),
		"{initials}", initials(t.Assignee),
		"{version}", targetVersion(t.Version),
	)
	name := tidyBranchName(r.Replace(n.Template()))
	if err := validateBranchName(name); err != nil {
		return "", err
	}
	return name, nil
}

// MatchesTicket reports whether name looks like a branch rendered for ticket
// id: the template prefix, the id, then either nothing or one of - _ /.
// A dot does not count, so "8.1" is never ticket 8's branch.
func (n BranchNaming) MatchesTicket(name string, id int) bool {
	if id <= 0 {
		return false
	}
	head := n.prefix + strconv.Itoa(id)
	if name == head {
		return true
	}
	if !strings.HasPrefix(name, head) {
		return false
	}
	switch name[len(head)] {
	case '-', '_', '/':
		return true
	default:
		return false
	}
}

// tidyBranchName collapses the separators left behind by empty placeholders
// and trims the endings git refuses.
func tidyBranchName(name string) string {
	name = repeatedDashPattern.ReplaceAllString(name, "-")
	name = repeatedSlashPattern.ReplaceAllString(name, "/")
	name = strings.ReplaceAll(name, "-/", "/")
	name = strings.ReplaceAll(name, "/-", "/")
	name = strings.TrimLeft(name, "-/")
	for {
		trimmed := strings.TrimRight(strings.TrimSuffix(name, ".lock"), "-/.")
		if trimmed == name {
			return name
		}
		name = trimmed
	}
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// slugify turns a ticket subject into a ref-safe fragment:
// " [Do] the - \"laundry\" " becomes "do-the-laundry".
func slugify(subject string) string {
	s := strings.ToLower(foldDiacritics(strings.TrimSpace(subject)))
	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`[]()"'`, r):
			continue
		case r == ':':
			b.WriteRune('=')
		case r == '.' || r == '_' || r == '=':
			b.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	slug := repeatedDashPattern.ReplaceAllString(b.String(), "-")
	slug = repeatedDotPattern.ReplaceAllString(slug, ".")
	slug = strings.Trim(slug, "-.")
	if rs := []rune(slug); len(rs) > maxSlugLength {
		slug = strings.Trim(string(rs[:maxSlugLength]), "-._")
	}
	for strings.HasSuffix(slug, ".lock") {
		slug = strings.Trim(strings.TrimSuffix(slug, ".lock"), "-._")
	}
	return slug
}

// initials builds the assignee trigram: first letter of the first name and the
// first two letters of the second ("Arnold Bcon Tran" -> "abc").
func initials(name string) string {
	words := strings.Fields(foldDiacritics(name))
	if len(words) < 2 {
		return ""
	}
	first := []rune(words[0])
	second := []rune(words[1])
	return slugify(string(first[:1]) + string(second[:min(2, len(second))]))
}

// validateBranchName applies the git check-ref-format rules that can be
// broken by rendered names.
func validateBranchName(name string) error {
	reason := ""
	switch {
	case name == "":
		reason = "empty name"
	case name == "@":
		reason = "reserved name"
	case strings.HasPrefix(name, "-"):
		reason = "leading '-'"
	case strings.HasPrefix(name, "/"), strings.HasSuffix(name, "/"):
		reason = "leading or trailing '/'"
	case strings.HasSuffix(name, "."):
		reason = "trailing '.'"
	case strings.HasSuffix(name, ".lock"):
		reason = "ends with .lock"
	case strings.Contains(name, ".."):
		reason = "contains '..'"
	case strings.Contains(name, "//"):
		reason = "contains '//'"
	case strings.Contains(name, "@{"):
		reason = "contains '@{'"
	case strings.ContainsAny(name, " ~^:?*[\\"):
		reason = "contains a forbidden character"
	case strings.ContainsFunc(name, unicode.IsControl):
		reason = "contains a control character"
	case strings.HasPrefix(name, ".") || strings.Contains(name, "/."):
		reason = "path component starts with '.'"
	}
	if reason != "" {
		return fmt.Errorf("%w %q: %s", errInvalidBranchName, name, reason)
	}
	return nil
}
