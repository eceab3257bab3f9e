package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	git "github.com/go-git/go-git/v5"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/mrbonezy/rnb/internal/logging"
)

// newTicketFetcher is swapped in tests.
var newTicketFetcher = func(cfg Config, apiKey string) TicketFetcher {
	return NewRedmineClient(cfg.TrackerURL, apiKey, cfg.InsecureSkipVerify)
}

type newOptions struct {
	*globalOptions
	repoDir string
	token   string
	from    string
	fetch   bool
	noFetch bool
	dryRun  bool
	pick    bool
	yes     bool
}

func newNewCommand(g *globalOptions) *cobra.Command {
	opts := &newOptions{globalOptions: g}
	cmd := &cobra.Command{
		Use:     "new <ticket-id>",
		Aliases: []string{"branch"},
		Short:   "Create the branch for a ticket from the right base",
		Long: "Fetches the ticket and creates its branch without checking it out.\n\n" +
			"The base is the parent ticket's branch when one exists, otherwise the\n" +
			"maintenance branch of the ticket's target version, otherwise the default\n" +
			"integration ref (<remote>/master unless default_base_ref is set).",
		Example: strings.Join([]string{
			"  rnb new 501",
			"  rnb new 502 --fetch",
			"  rnb new 503 --from origin/release-2.3",
			"  rnb new 504 --pick",
		}, "\n"),
		Args: ticketIDArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTicketID(args[0])
			if err != nil {
				return err
			}
			return runNew(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, id)
		},
	}
	addPlanFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.from, "from", "", "Base ref to use instead of the resolved one")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "Resolve and print, but do not create the branch")
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "Choose the base among every applicable candidate")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newResolveCommand(g *globalOptions) *cobra.Command {
	opts := &newOptions{globalOptions: g}
	cmd := &cobra.Command{
		Use:   "resolve <ticket-id>",
		Short: "Print the branch name and candidate bases for a ticket",
		Args:  ticketIDArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTicketID(args[0])
			if err != nil {
				return err
			}
			return runResolve(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, id)
		},
	}
	addPlanFlags(cmd, opts)
	return cmd
}

func addPlanFlags(cmd *cobra.Command, opts *newOptions) {
	cmd.Flags().StringVarP(&opts.repoDir, "repo", "C", "", "Path inside the git repository (default: current directory)")
	cmd.Flags().StringVar(&opts.token, "token", "", "Redmine API key (overrides "+apiKeyEnvVar+" and the config file)")
	cmd.Flags().BoolVar(&opts.fetch, "fetch", false, "Fetch the remote before resolving")
	cmd.Flags().BoolVar(&opts.noFetch, "no-fetch", false, "Do not fetch the remote before resolving")
}

func ticketIDArg(_ *cobra.Command, args []string) error {
	switch len(args) {
	case 1:
		return nil
	case 0:
		return usageErrorf("missing ticket id")
	default:
		return usageErrorf("too many arguments; provide exactly one ticket id")
	}
}

// branchPlan is everything resolution needs, gathered once per run.
type branchPlan struct {
	repo      *git.Repository
	remote    string
	ticket    Ticket
	knownRefs []string
	resolver  *Resolver
}

func prepareBranchPlan(ctx context.Context, errOut io.Writer, opts *newOptions, id int) (*branchPlan, error) {
	cfg, err := loadRunConfig(opts.globalOptions, errOut)
	if err != nil {
		return nil, err
	}
	explicitFetch, err := explicitFetchPreference(opts.fetch, opts.noFetch)
	if err != nil {
		return nil, err
	}

	repo, repoRoot, err := openRepo(opts.repoDir)
	if err != nil {
		return nil, err
	}
	remotes, err := listRemotes(repo)
	if err != nil {
		return nil, err
	}
	remote := detectRemote(cfg.Remote, remotes)
	policy, err := cfg.resolverPolicy(remote)
	if err != nil {
		return nil, err
	}
	logging.Debug("repository opened", "root", repoRoot, "remote", remote, "remotes", remotes)

	fetcher := newTicketFetcher(cfg, resolveAPIKey(opts.token, cfg))
	stop := startDelayedSpinner(fmt.Sprintf("Fetching ticket #%d...", id), fetchSpinnerDelay)
	ticket, err := fetcher.FetchTicket(ctx, id)
	stop()
	if err != nil {
		return nil, err
	}
	ticket = ticket.withMaintenanceTemplate(cfg.MaintenanceTemplate)
	logging.Debug("ticket fetched", "id", ticket.ID, "version", ticket.Version, "target_label", ticket.TargetLabel, "has_parent", ticket.HasParent())

	if policy.ParentFallback == ParentFallbackParentLabel && ticket.HasParent() {
		parent, err := fetcher.FetchTicket(ctx, ticket.Parent.ID)
		if err != nil {
			logging.Warn("parent ticket unavailable, skipping its maintenance label", "parent", ticket.Parent.ID, "error", err)
		} else {
			ticket = ticket.withParentLabel(parent.withMaintenanceTemplate(cfg.MaintenanceTemplate).TargetLabel)
		}
	}

	if resolveFetchPreference(explicitFetch, cfg) {
		stop := startDelayedSpinner(fmt.Sprintf("Fetching %s...", remote), fetchSpinnerDelay)
		err := fetchRemote(repo, remote)
		stop()
		if err != nil {
			return nil, err
		}
	}

	knownRefs, err := listKnownRefs(repo)
	if err != nil {
		return nil, err
	}
	logging.Debug("known refs listed", "count", len(knownRefs))

	return &branchPlan{
		repo:      repo,
		remote:    remote,
		ticket:    ticket,
		knownRefs: knownRefs,
		resolver:  NewResolver(policy),
	}, nil
}

func (p *branchPlan) resolve(from string, pick bool) (Resolution, error) {
	if from = strings.TrimSpace(from); from != "" {
		newBranch, err := p.resolver.Policy().Naming.Render(p.ticket)
		if err != nil {
			return Resolution{}, err
		}
		if _, err := resolveBaseCommit(p.repo, from); err != nil {
			return Resolution{}, usageErrorf("--from %s: %v", from, err)
		}
		return Resolution{Kind: BaseExplicit, BaseRef: from, NewBranch: newBranch}, nil
	}
	if !pick {
		return p.resolver.Resolve(p.ticket, p.knownRefs)
	}
	candidates, err := p.resolver.Candidates(p.ticket, p.knownRefs)
	if err != nil {
		return Resolution{}, err
	}
	return pickResolution(p.ticket.ID, candidates)
}

// otherTicketBranches lists refs that already look like a branch of the
// ticket under a different name.
func (p *branchPlan) otherTicketBranches(newBranch string) []string {
	naming := p.resolver.Policy().Naming
	var out []string
	for _, ref := range p.knownRefs {
		name := strings.TrimPrefix(ref, p.remote+"/")
		if name != newBranch && naming.MatchesTicket(name, p.ticket.ID) {
			out = append(out, ref)
		}
	}
	return out
}

func runNew(ctx context.Context, out io.Writer, errOut io.Writer, opts *newOptions, id int) error {
	plan, err := prepareBranchPlan(ctx, errOut, opts, id)
	if err != nil {
		return err
	}
	res, err := plan.resolve(opts.from, opts.pick && interactiveSession())
	if errors.Is(err, huh.ErrUserAborted) {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}
	if err != nil {
		return err
	}
	logging.Debug("base resolved", "kind", res.Kind.String(), "base", res.BaseRef, "branch", res.NewBranch)

	printTicketHeader(out, plan.ticket)
	fmt.Fprintf(out, "Base:   %s (%s)\n", res.BaseRef, res.Kind)
	fmt.Fprintf(out, "Branch: %s\n", res.NewBranch)

	if currentBranch(plan.repo) == res.NewBranch {
		fmt.Fprintf(out, "Already on branch %s\n", res.NewBranch)
		return nil
	}
	if localBranchExists(plan.repo, res.NewBranch) {
		return &CreationError{Branch: res.NewBranch, BaseRef: res.BaseRef, Err: errBranchExists}
	}
	for _, ref := range plan.otherTicketBranches(res.NewBranch) {
		fmt.Fprintf(errOut, "rnb warning: ticket #%d already has branch %s\n", plan.ticket.ID, ref)
	}
	if opts.dryRun {
		fmt.Fprintln(out, "Dry run: branch not created")
		return nil
	}

	if !opts.yes && interactiveSession() {
		ok, err := confirmCreate(res)
		if errors.Is(err, huh.ErrUserAborted) || (err == nil && !ok) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
		if err != nil {
			return err
		}
	}

	if err := createBranch(plan.repo, res.NewBranch, res.BaseRef); err != nil {
		return err
	}
	logging.Info("branch created", "ticket", plan.ticket.ID, "branch", res.NewBranch, "base", res.BaseRef)
	fmt.Fprintf(out, "Created branch %s from %s\n", res.NewBranch, res.BaseRef)
	return nil
}

func runResolve(ctx context.Context, out io.Writer, errOut io.Writer, opts *newOptions, id int) error {
	plan, err := prepareBranchPlan(ctx, errOut, opts, id)
	if err != nil {
		return err
	}
	candidates, err := plan.resolver.Candidates(plan.ticket, plan.knownRefs)
	if err != nil {
		return err
	}
	printTicketHeader(out, plan.ticket)
	fmt.Fprintf(out, "Branch: %s\n", candidates[0].NewBranch)
	fmt.Fprintln(out, "Bases:")
	for i, c := range candidates {
		marker := " "
		if i == 0 {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s (%s)\n", marker, c.BaseRef, c.Kind)
	}
	return nil
}

func printTicketHeader(out io.Writer, t Ticket) {
	label := fmt.Sprintf("#%d", t.ID)
	if f, ok := out.(*os.File); ok && t.URL != "" && isInteractiveTerminal(f) {
		label = termenv.Hyperlink(t.URL, label)
	}
	if t.Subject == "" {
		fmt.Fprintf(out, "Ticket %s\n", label)
		return
	}
	fmt.Fprintf(out, "Ticket %s: %s\n", label, t.Subject)
}
