package offchain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunshine-protocol/sunshine-go/pkg/codec"
	"github.com/sunshine-protocol/sunshine-go/pkg/model"
)

func TestPutGet(t *testing.T) {
	store, err := OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	issue := model.GithubIssue{RepoOwner: "sunshine-protocol", RepoName: "sunshine-go", IssueNumber: 7}

	cid, err := store.Put(ctx, issue)
	require.NoError(t, err)
	require.NoError(t, cid.Validate())

	var got model.GithubIssue
	require.NoError(t, store.Get(ctx, cid, &got))
	require.Equal(t, issue, got)

	// Second Get hits the cache path.
	var again model.GithubIssue
	require.NoError(t, store.Get(ctx, cid, &again))
	require.Equal(t, issue, again)
}

func TestPutIdempotent(t *testing.T) {
	store, err := OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	issue := model.GithubIssue{RepoOwner: "octocat", RepoName: "spoon-knife", IssueNumber: 42}

	cid1, err := store.Put(ctx, issue)
	require.NoError(t, err)
	cid2, err := store.Put(ctx, issue)
	require.NoError(t, err)
	require.Equal(t, cid1, cid2)
}

func TestGetMissing(t *testing.T) {
	store, err := OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	cid, err := codec.Sum([]byte("never stored"))
	require.NoError(t, err)

	var out model.GithubIssue
	err = store.Get(context.Background(), cid, &out)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	issue := model.GithubIssue{RepoOwner: "sunshine-protocol", RepoName: "sunshine-go", IssueNumber: 9}

	store, err := Open(dir)
	require.NoError(t, err)
	cid, err := store.Put(ctx, issue)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	var got model.GithubIssue
	require.NoError(t, reopened.Get(ctx, cid, &got))
	require.Equal(t, issue, got)
}
