// Package gitio is the sole Git I/O mechanism for the rewrite engine: a thin
// adapter around the git(1) binary, run as a subprocess. Every invocation
// passes GIT_DIR/cwd through one central path so temp-index scoping (see
// internal/sandbox) and interrupt handling are enforced in exactly one place.
package gitio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/recut-dev/recut/internal/rewriteerr"
)

var tracer = otel.Tracer("recut/gitio")

// Adapter spawns git against one working directory and .git dir.
type Adapter struct {
	// WorkDir is the working tree root (git -C WorkDir ...).
	WorkDir string
	// Env carries additional environment variables appended to os.Environ(),
	// e.g. a scoped GIT_INDEX_FILE or GIT_AUTHOR_* overrides for commit-tree.
	Env []string
}

// New returns an Adapter rooted at workDir.
func New(workDir string) *Adapter {
	return &Adapter{WorkDir: workDir}
}

// WithEnv returns a copy of a carrying additional environment variables,
// leaving a itself untouched so callers can layer per-call overrides (author
// identity, a scoped index file) without mutating a shared adapter.
func (a *Adapter) WithEnv(kv ...string) *Adapter {
	env := make([]string, 0, len(a.Env)+len(kv))
	env = append(env, a.Env...)
	env = append(env, kv...)

	return &Adapter{WorkDir: a.WorkDir, Env: env}
}

// Opts configures a single invocation.
type Opts struct {
	// Stdin is piped to the subprocess if non-nil.
	Stdin io.Reader
	// AllowFailure suppresses wrapping a non-zero exit in an error; the
	// caller inspects the returned *exec.ExitError via errors.As instead.
	AllowFailure bool
}

// Run executes git with args and returns stdout as bytes, with stderr
// attached to a returned error on non-zero exit (unless AllowFailure). Every
// invocation gets its own span, named after the git subcommand, so a trace
// of one run shows every subprocess it spawned.
func (a *Adapter) Run(ctx context.Context, opts Opts, args ...string) ([]byte, error) {
	subcommand := ""
	if len(args) > 0 {
		subcommand = args[0]
	}

	ctx, span := tracer.Start(ctx, "git."+subcommand, trace.WithAttributes(attribute.StringSlice("git.args", args)))
	defer span.End()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = a.WorkDir
	cmd.Env = append(os.Environ(), a.Env...)

	if opts.Stdin != nil {
		cmd.Stdin = opts.Stdin
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil && !opts.AllowFailure {
		return stdout.Bytes(), fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), err
}

// RunText is Run with trailing-newline-trimmed UTF-8 output, for plumbing
// commands known to produce a single text token (rev-parse, write-tree, ...).
func (a *Adapter) RunText(ctx context.Context, args ...string) (string, error) {
	out, err := a.Run(ctx, Opts{}, args...)
	if err != nil {
		return "", err
	}

	return strings.TrimRight(string(out), "\n"), nil
}

// RevParse resolves rev to a full object hash.
func (a *Adapter) RevParse(ctx context.Context, rev string) (string, error) {
	out, err := a.RunText(ctx, "rev-parse", "--verify", rev)
	if err != nil {
		return "", fmt.Errorf("%w: resolving %q: %v", rewriteerr.ErrValidationInput, rev, err)
	}

	return out, nil
}

// CurrentBranch returns the short name of the checked-out branch, or
// ErrDetachedHead if HEAD does not point at a branch.
func (a *Adapter) CurrentBranch(ctx context.Context) (string, error) {
	out, err := a.RunText(ctx, "symbolic-ref", "--short", "-q", "HEAD")
	if err != nil || out == "" {
		return "", rewriteerr.ErrDetachedHead
	}

	return out, nil
}

// IsRepo reports whether WorkDir is inside a Git working tree.
func (a *Adapter) IsRepo(ctx context.Context) bool {
	out, err := a.RunText(ctx, "rev-parse", "--is-inside-work-tree")

	return err == nil && out == "true"
}

// TreeHash returns the tree object hash for commit.
func (a *Adapter) TreeHash(ctx context.Context, commit string) (string, error) {
	return a.RunText(ctx, "rev-parse", "--verify", commit+"^{tree}")
}

// IsAncestor reports whether ancestor is an ancestor of (or equal to)
// descendant, via merge-base --is-ancestor.
func (a *Adapter) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	_, err := a.Run(ctx, Opts{AllowFailure: true}, "merge-base", "--is-ancestor", ancestor, descendant)
	if err == nil {
		return true, nil
	}

	if exitErr, ok := asExitError(err); ok && exitErr.ExitCode() == 1 {
		return false, nil
	}

	return false, err
}

// AncestryPath lists commit hashes strictly after from up to and including
// to, oldest first, following first-parent only.
func (a *Adapter) AncestryPath(ctx context.Context, from, to string) ([]string, error) {
	out, err := a.RunText(ctx, "rev-list", "--first-parent", "--ancestry-path", "--reverse", from+".."+to)
	if err != nil {
		return nil, fmt.Errorf("%w: ancestry-path %s..%s: %v", rewriteerr.ErrValidationInput, from, to, err)
	}

	if out == "" {
		return nil, nil
	}

	return strings.Split(out, "\n"), nil
}

// HasMerge reports whether any commit in (from, to] has more than one parent.
func (a *Adapter) HasMerge(ctx context.Context, from, to string) (bool, error) {
	out, err := a.RunText(ctx, "rev-list", "--min-parents=2", "--first-parent", from+".."+to)
	if err != nil {
		return false, err
	}

	return out != "", nil
}

// CommitMeta is one commit's metadata, as needed for reparenting (C14).
type CommitMeta struct {
	Hash            string
	TreeHash        string
	ParentHash      string
	AuthorName      string
	AuthorEmail     string
	AuthorDate      string
	CommitterName   string
	CommitterEmail  string
	CommitterDate   string
	Subject         string
	Body            string
	IsMerge         bool
}

const commitMetaFormat = "%H%n%T%n%P%n%an%n%ae%n%ad%n%cn%n%ce%n%cd%n%B"

// ShowCommitMeta reads full metadata for one commit via `git show -s --format=...`.
func (a *Adapter) ShowCommitMeta(ctx context.Context, commit string) (CommitMeta, error) {
	out, err := a.RunText(ctx, "show", "-s", "--date=raw", "--format="+commitMetaFormat, commit)
	if err != nil {
		return CommitMeta{}, fmt.Errorf("show commit meta %s: %w", commit, err)
	}

	lines := strings.SplitN(out, "\n", 10)
	if len(lines) < 10 {
		return CommitMeta{}, fmt.Errorf("%w: malformed commit meta for %s", rewriteerr.ErrValidationInput, commit)
	}

	parents := strings.Fields(lines[2])

	meta := CommitMeta{
		Hash:           lines[0],
		TreeHash:       lines[1],
		AuthorName:     lines[3],
		AuthorEmail:    lines[4],
		AuthorDate:     lines[5],
		CommitterName:  lines[6],
		CommitterEmail: lines[7],
		CommitterDate:  lines[8],
		Body:           lines[9],
		IsMerge:        len(parents) > 1,
	}
	if len(parents) > 0 {
		meta.ParentHash = parents[0]
	}

	if idx := strings.IndexByte(meta.Body, '\n'); idx >= 0 {
		meta.Subject = meta.Body[:idx]
	} else {
		meta.Subject = meta.Body
	}

	return meta, nil
}

// ReadTree populates the index (scoped via a's GIT_INDEX_FILE env) with tree.
func (a *Adapter) ReadTree(ctx context.Context, tree string) error {
	_, err := a.Run(ctx, Opts{}, "read-tree", tree)

	return err
}

// ApplyCached applies unified diff patch bytes into the scoped index without
// touching the worktree.
func (a *Adapter) ApplyCached(ctx context.Context, patch []byte) error {
	_, err := a.Run(ctx, Opts{Stdin: bytes.NewReader(patch)}, "apply", "--cached", "--index", "--binary", "--unidiff-zero", "--whitespace=nowarn", "-")
	if err != nil {
		return fmt.Errorf("%w: %v", rewriteerr.ErrPatchApply, err)
	}

	return nil
}

// WriteTree writes the scoped index out to a tree object and returns its hash.
func (a *Adapter) WriteTree(ctx context.Context) (string, error) {
	return a.RunText(ctx, "write-tree")
}

// CommitTreeOpts carries author/committer identity for CommitTree.
type CommitTreeOpts struct {
	AuthorName, AuthorEmail, AuthorDate       string
	CommitterName, CommitterEmail, CommitterDate string
}

// CommitTree creates a commit object with the given tree, parent (may be
// empty for the first commit in a chain fragment... though the engine always
// supplies one), and message, returning the new commit hash.
func (a *Adapter) CommitTree(ctx context.Context, tree, parent, message string, opts CommitTreeOpts) (string, error) {
	env := []string{}
	if opts.AuthorName != "" {
		env = append(env,
			"GIT_AUTHOR_NAME="+opts.AuthorName,
			"GIT_AUTHOR_EMAIL="+opts.AuthorEmail,
			"GIT_AUTHOR_DATE="+opts.AuthorDate,
			"GIT_COMMITTER_NAME="+opts.CommitterName,
			"GIT_COMMITTER_EMAIL="+opts.CommitterEmail,
			"GIT_COMMITTER_DATE="+opts.CommitterDate,
		)
	}

	args := []string{"commit-tree", tree, "-m", message}
	if parent != "" {
		args = []string{"commit-tree", tree, "-p", parent, "-m", message}
	}

	hash, err := a.WithEnv(env...).RunText(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("commit-tree: %w", err)
	}

	return hash, nil
}

// UpdateRef performs a compare-and-swap ref update: branch must currently
// point at oldValue, or the update is rejected by git itself.
func (a *Adapter) UpdateRef(ctx context.Context, ref, newValue, oldValue string) error {
	_, err := a.Run(ctx, Opts{}, "update-ref", ref, newValue, oldValue)

	return err
}

// AddAll stages every worktree change (modifications, deletions, and
// untracked files) under paths, or the whole tree if paths is empty, into
// the scoped index — used by `commit` to snapshot the working tree as a
// tree object without ever touching the repository's real index.
func (a *Adapter) AddAll(ctx context.Context, paths []string) error {
	args := []string{"add", "-A"}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}

	_, err := a.Run(ctx, Opts{}, args...)

	return err
}

// UserIdentity reads the configured author/committer name and email, for
// stamping synthesized commits when no other identity is specified.
func (a *Adapter) UserIdentity(ctx context.Context) (name, email string, err error) {
	name, err = a.RunText(ctx, "config", "user.name")
	if err != nil {
		return "", "", fmt.Errorf("gitio: reading user.name: %w", err)
	}

	email, err = a.RunText(ctx, "config", "user.email")
	if err != nil {
		return "", "", fmt.Errorf("gitio: reading user.email: %w", err)
	}

	return name, email, nil
}

// DiffShortstat parses `git diff --shortstat base..target` into total
// inserted and deleted line counts, for clean's min_size candidate filter.
func (a *Adapter) DiffShortstat(ctx context.Context, base, target string) (insertions, deletions int, err error) {
	out, err := a.RunText(ctx, "diff", "--shortstat", base+".."+target)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: shortstat %s..%s: %v", rewriteerr.ErrDiffParse, base, target, err)
	}

	return parseShortstat(out), parseShortstatDeletions(out), nil
}

var shortstatInsertions = regexp.MustCompile(`(\d+) insertion`)

var shortstatDeletions = regexp.MustCompile(`(\d+) deletion`)

func parseShortstat(s string) int {
	m := shortstatInsertions.FindStringSubmatch(s)
	if m == nil {
		return 0
	}

	n, _ := strconv.Atoi(m[1])

	return n
}

func parseShortstatDeletions(s string) int {
	m := shortstatDeletions.FindStringSubmatch(s)
	if m == nil {
		return 0
	}

	n, _ := strconv.Atoi(m[1])

	return n
}

// Diff runs `git diff --binary --no-color -U<context> base..target [-- paths...]`.
func (a *Adapter) Diff(ctx context.Context, base, target string, context int, paths []string) ([]byte, error) {
	args := []string{"diff", "--binary", "--no-color", fmt.Sprintf("-U%d", context), base + ".." + target}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}

	out, err := a.Run(ctx, Opts{}, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rewriteerr.ErrDiffParse, err)
	}

	return out, nil
}

// NumstatBinaryPaths returns the set of paths git diff --numstat reports as
// binary (a "-\t-\tpath" line) between base and target.
func (a *Adapter) NumstatBinaryPaths(ctx context.Context, base, target string, paths []string) (map[string]bool, error) {
	args := []string{"diff", "--numstat", base + ".." + target}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}

	out, err := a.Run(ctx, Opts{}, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rewriteerr.ErrDiffParse, err)
	}

	binary := make(map[string]bool)

	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line == "" {
			continue
		}

		fields := strings.SplitN(line, "\t", 3)
		if len(fields) != 3 {
			continue
		}

		if fields[0] == "-" && fields[1] == "-" {
			binary[fields[2]] = true
		}
	}

	return binary, nil
}

// CatFileBatch resolves object (blob) hashes to content via one `cat-file
// --batch` call. requests order is preserved in the returned slice.
func (a *Adapter) CatFileBatch(ctx context.Context, objects []string) ([][]byte, error) {
	if len(objects) == 0 {
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "git.cat-file-batch", trace.WithAttributes(attribute.Int("git.object_count", len(objects))))
	defer span.End()

	stdin := strings.Join(objects, "\n") + "\n"

	cmd := exec.CommandContext(ctx, "git", "cat-file", "--batch")
	cmd.Dir = a.WorkDir
	cmd.Env = append(os.Environ(), a.Env...)
	cmd.Stdin = strings.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("cat-file --batch: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseCatFileBatch(stdout.Bytes(), len(objects))
}

func parseCatFileBatch(buf []byte, want int) ([][]byte, error) {
	results := make([][]byte, 0, want)

	for len(buf) > 0 {
		nl := bytes.IndexByte(buf, '\n')
		if nl < 0 {
			break
		}

		header := buf[:nl]
		buf = buf[nl+1:]

		fields := bytes.Fields(header)
		if len(fields) >= 2 && string(fields[len(fields)-1]) == "missing" {
			results = append(results, nil)

			continue
		}

		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: malformed cat-file --batch header %q", rewriteerr.ErrValidationInput, header)
		}

		size, err := parseSize(fields[len(fields)-1])
		if err != nil {
			return nil, err
		}

		if size > len(buf) {
			return nil, fmt.Errorf("%w: truncated cat-file --batch output", rewriteerr.ErrValidationInput)
		}

		content := make([]byte, size)
		copy(content, buf[:size])
		results = append(results, content)

		buf = buf[size:]
		if len(buf) > 0 && buf[0] == '\n' {
			buf = buf[1:]
		}
	}

	return results, nil
}

func parseSize(field []byte) (int, error) {
	n := 0
	for _, b := range field {
		if b < '0' || b > '9' {
			return 0, fmt.Errorf("%w: non-numeric object size %q", rewriteerr.ErrValidationInput, field)
		}

		n = n*10 + int(b-'0')
	}

	return n, nil
}

func asExitError(err error) (*exec.ExitError, bool) {
	exitErr, ok := err.(*exec.ExitError)

	return exitErr, ok
}
