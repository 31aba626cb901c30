package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/verhdr/internal/domain"
)

var baseTime = time.Date(2024, 3, 5, 10, 0, 0, 0, time.FixedZone("CET", 3600))

// fixture is a go-git repository in a temporary directory.
type fixture struct {
	t    *testing.T
	dir  string
	repo *git.Repository
	wt   *git.Worktree
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	return &fixture{t: t, dir: dir, repo: repo, wt: wt}
}

func (f *fixture) write(name, content string) {
	f.t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(f.t, os.WriteFile(path, []byte(content), 0o644))
}

func (f *fixture) commit(name, content string, when time.Time) plumbing.Hash {
	f.t.Helper()
	f.write(name, content)
	_, err := f.wt.Add(name)
	require.NoError(f.t, err)

	hash, err := f.wt.Commit("update "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: when},
	})
	require.NoError(f.t, err)
	return hash
}

func (f *fixture) lightweightTag(name string, hash plumbing.Hash) {
	f.t.Helper()
	_, err := f.repo.CreateTag(name, hash, nil)
	require.NoError(f.t, err)
}

func (f *fixture) annotatedTag(name string, hash plumbing.Hash) {
	f.t.Helper()
	_, err := f.repo.CreateTag(name, hash, &git.CreateTagOptions{
		Tagger:  &object.Signature{Name: "Test User", Email: "test@example.com", When: baseTime},
		Message: "release " + name,
	})
	require.NoError(f.t, err)
}

func (f *fixture) open() *GoGitRepository {
	f.t.Helper()
	repo, err := NewGoGitRepository(f.dir, &testLogger{})
	require.NoError(f.t, err)
	return repo
}

func TestNewGoGitRepository_NotARepository(t *testing.T) {
	repo, err := NewGoGitRepository(t.TempDir(), &testLogger{})

	require.Error(t, err)
	assert.Nil(t, repo)
	assert.ErrorIs(t, err, domain.ErrNotRepository)
}

func TestNewGoGitRepository_FromSubdirectory(t *testing.T) {
	f := newFixture(t)
	f.commit("src/main.c", "int main(void) { return 0; }\n", baseTime)

	repo, err := NewGoGitRepository(filepath.Join(f.dir, "src"), &testLogger{})
	require.NoError(t, err)

	root, err := repo.RepositoryRoot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.dir, root)
}

func TestGoGitRepository_IsWorktree(t *testing.T) {
	f := newFixture(t)
	f.commit("a.txt", "a", baseTime)

	ok, err := f.open().IsWorktree(context.Background())

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGoGitRepository_HeadIdentity(t *testing.T) {
	f := newFixture(t)
	hash := f.commit("a.txt", "a", baseTime)
	repo := f.open()
	ctx := context.Background()

	branch, err := repo.CurrentBranch(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "master", branch)

	commit, err := repo.CurrentCommit(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, hash.String(), commit)

	ts, err := repo.CommitTimestamp(ctx, "")
	require.NoError(t, err)
	assert.True(t, ts.Equal(baseTime))
	assert.Equal(t, "20240305", ts.Format(domain.CommitDateLayout))
}

func TestGoGitRepository_CurrentBranch_Detached(t *testing.T) {
	f := newFixture(t)
	first := f.commit("a.txt", "a", baseTime)
	f.commit("a.txt", "b", baseTime.Add(time.Hour))
	require.NoError(t, f.wt.Checkout(&git.CheckoutOptions{Hash: first}))

	branch, err := f.open().CurrentBranch(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, domain.HeadObject, branch)
}

func TestGoGitRepository_CurrentBranch_Named(t *testing.T) {
	f := newFixture(t)
	f.commit("a.txt", "a", baseTime)
	repo := f.open()

	branch, err := repo.CurrentBranch(context.Background(), "master")
	require.NoError(t, err)
	assert.Equal(t, "master", branch)

	_, err = repo.CurrentBranch(context.Background(), "no-such-branch")
	assert.ErrorIs(t, err, domain.ErrQueryFailed)
}

func TestGoGitRepository_EmptyRepository(t *testing.T) {
	f := newFixture(t)
	repo := f.open()

	_, err := repo.CurrentCommit(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrQueryFailed)

	_, err = repo.CurrentBranch(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrQueryFailed)
}

func TestGoGitRepository_NoTags(t *testing.T) {
	f := newFixture(t)
	f.commit("a.txt", "a", baseTime)
	repo := f.open()

	tagged, err := repo.NearestTaggedCommit(context.Background())
	require.NoError(t, err)
	assert.False(t, tagged.IsPresent())

	tag, err := repo.TagName(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, tag.IsPresent())
}

func TestGoGitRepository_Tags(t *testing.T) {
	f := newFixture(t)
	first := f.commit("a.txt", "1", baseTime)
	f.lightweightTag("v1.0.0", first)
	second := f.commit("a.txt", "2", baseTime.Add(time.Hour))
	f.annotatedTag("v1.1.0", second)
	f.commit("a.txt", "3", baseTime.Add(2*time.Hour))
	repo := f.open()
	ctx := context.Background()

	tagged, err := repo.NearestTaggedCommit(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.String(), tagged.OrElse(""))

	tag, err := repo.TagName(ctx, second.String())
	require.NoError(t, err)
	assert.Equal(t, "v1.1.0", tag.OrElse(""))

	tag, err = repo.TagName(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "v1.1.0", tag.OrElse(""), "nearest tag reachable from HEAD")

	tag, err = repo.TagName(ctx, first.String())
	require.NoError(t, err)
	assert.Equal(t, "v1.0.0", tag.OrElse(""))
}

func TestGoGitRepository_TagName_PrefersAnnotated(t *testing.T) {
	f := newFixture(t)
	hash := f.commit("a.txt", "1", baseTime)
	f.lightweightTag("a-lightweight", hash)
	f.annotatedTag("z-annotated", hash)

	tag, err := f.open().TagName(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, "z-annotated", tag.OrElse(""))
}

func TestGoGitRepository_WorkingTreeStatus(t *testing.T) {
	f := newFixture(t)
	f.commit("a.txt", "a", baseTime)
	repo := f.open()

	clean := collectStatus(t, repo)
	assert.Empty(t, clean)

	f.write("a.txt", "changed")
	f.write("new.txt", "untracked")

	dirty := collectStatus(t, repo)
	assert.Equal(t, []domain.FileStatus{
		domain.NewFileStatus("a.txt", " M"),
		domain.NewFileStatus("new.txt", "??"),
	}, dirty)
}

func TestGoGitRepository_WorkingTreeStatus_UntrackedDirectories(t *testing.T) {
	f := newFixture(t)
	f.commit("main.c", "int main;", baseTime)
	f.commit("src/lib.c", "int lib;", baseTime)
	repo := f.open()

	f.write("d/x", "x")
	f.write("d/y", "y")
	f.write("d/nested/z", "z")
	f.write("src/gen/a.c", "a")
	f.write("src/gen/b.c", "b")
	f.write("src/new.c", "new")
	f.write("main.c", "int main(void);")

	entries := collectStatus(t, repo)

	assert.Equal(t, []domain.FileStatus{
		domain.NewFileStatus("main.c", " M"),
		domain.NewFileStatus("d/", "??"),
		domain.NewFileStatus("src/gen/", "??"),
		domain.NewFileStatus("src/new.c", "??"),
	}, entries)
}

func TestGoGitRepository_WorkingTreeStatus_StagedRename(t *testing.T) {
	f := newFixture(t)
	f.commit("a.c", "int a;", baseTime)
	f.commit("keep.c", "int keep;", baseTime)
	repo := f.open()

	_, err := f.wt.Move("a.c", "b.c")
	require.NoError(t, err)
	f.write("b.c", "int b;")

	entries := collectStatus(t, repo)

	assert.Equal(t, []domain.FileStatus{
		domain.NewFileStatus("b.c", "RM"),
	}, entries)
}

func TestGoGitRepository_WorkingTreeStatus_DeleteAndUnrelatedAdd(t *testing.T) {
	f := newFixture(t)
	f.commit("a.c", "int a;", baseTime)
	repo := f.open()

	_, err := f.wt.Remove("a.c")
	require.NoError(t, err)
	f.write("b.c", "something else")
	_, err = f.wt.Add("b.c")
	require.NoError(t, err)

	entries := collectStatus(t, repo)

	assert.Equal(t, []domain.FileStatus{
		domain.NewFileStatus("a.c", "D "),
		domain.NewFileStatus("b.c", "A "),
	}, entries)
}

func TestCollapseUntracked(t *testing.T) {
	tracked := map[string]bool{"src": true, "src/lib": true}

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "top-level file", path: "new.txt", want: "new.txt"},
		{name: "untracked top-level directory", path: "d/x", want: "d/"},
		{name: "deep untracked directory", path: "d/e/f/x", want: "d/"},
		{name: "file in tracked directory", path: "src/new.c", want: "src/new.c"},
		{name: "untracked directory inside tracked one", path: "src/gen/a.c", want: "src/gen/"},
		{name: "untracked directory two levels down", path: "src/lib/tmp/a.o", want: "src/lib/tmp/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collapseUntracked(tt.path, tracked))
		})
	}
}

func collectStatus(t *testing.T, repo domain.Inspector) []domain.FileStatus {
	t.Helper()
	var entries []domain.FileStatus
	for entry, err := range repo.WorkingTreeStatus(context.Background()) {
		require.NoError(t, err)
		entries = append(entries, entry)
	}
	return entries
}
