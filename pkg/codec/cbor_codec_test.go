package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunshine-protocol/sunshine-go/pkg/model"
)

func TestEncodeDeterministic(t *testing.T) {
	issue := model.GithubIssue{
		RepoOwner:   "sunshine-protocol",
		RepoName:    "sunshine-go",
		IssueNumber: 124,
	}

	cid1, data1, err := Encode(issue)
	require.NoError(t, err)
	require.NotEmpty(t, data1)

	cid2, _, err := Encode(issue)
	require.NoError(t, err)
	require.Equal(t, cid1, cid2, "same value must produce the same cid")

	other := issue
	other.IssueNumber = 125
	cid3, _, err := Encode(other)
	require.NoError(t, err)
	require.NotEqual(t, cid1, cid3)
}

func TestRoundTrip(t *testing.T) {
	issue := model.GithubIssue{RepoOwner: "octocat", RepoName: "hello-world", IssueNumber: 1}

	data, err := Marshal(issue)
	require.NoError(t, err)

	var decoded model.GithubIssue
	require.NoError(t, Unmarshal(data, &decoded))
	require.Equal(t, issue, decoded)
}

func TestCidValidate(t *testing.T) {
	cid, err := Sum([]byte("content"))
	require.NoError(t, err)
	require.NoError(t, cid.Validate())

	raw, err := cid.Bytes()
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	require.Error(t, Cid("not-base58-0OIl").Validate())
	require.Error(t, Cid("3yZe7d").Validate(), "valid base58 but not a multihash")
}
