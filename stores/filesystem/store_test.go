package filesystem

import (
	"context"
	"testing"

	"imagetext-studio/core"

	"github.com/stretchr/testify/require"
)

func TestShareRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()

	share := &core.Share{}
	share.Data.WriteString(`{"layers":[{"id":"l1"}]}`)

	id, err := s.Create(ctx, share)
	require.NoError(t, err)

	found, err := s.FindID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, `{"layers":[{"id":"l1"}]}`, found.Data.String())

	_, err = s.FindID(ctx, "missing")
	require.ErrorIs(t, err, core.ErrShareNotFound)
}

func TestCompositionRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &core.Composition{
		ID:     "c1",
		UserID: "alice",
		Name:   "Vacation",
		Data:   []byte(`{"layers":[]}`),
	}))

	got, err := s.Get(ctx, "alice", "c1")
	require.NoError(t, err)
	require.Equal(t, "Vacation", got.Name)
	require.JSONEq(t, `{"layers":[]}`, string(got.Data))

	list, err := s.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Nil(t, list[0].Data, "list entries omit the blob")

	empty, err := s.List(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, empty)

	require.NoError(t, s.Delete(ctx, "alice", "c1"))
	_, err = s.Get(ctx, "alice", "c1")
	require.ErrorIs(t, err, core.ErrCompositionNotFound)
}

func TestPathTraversalIsRejected(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()

	_, err := s.Get(ctx, "alice", "../../../../etc/passwd")
	require.Error(t, err)
	require.NotErrorIs(t, err, core.ErrCompositionNotFound)

	err = s.Save(ctx, &core.Composition{ID: "../../../escape", UserID: "alice"})
	require.Error(t, err)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()

	const key = "image-text-composition/room-1"

	_, err := s.GetSnapshot(ctx, key)
	require.ErrorIs(t, err, core.ErrSnapshotNotFound)

	require.NoError(t, s.PutSnapshot(ctx, key, []byte(`{"version":1}`)))
	data, err := s.GetSnapshot(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte(`{"version":1}`), data)

	require.NoError(t, s.DeleteSnapshot(ctx, key))
	_, err = s.GetSnapshot(ctx, key)
	require.ErrorIs(t, err, core.ErrSnapshotNotFound)

	require.NoError(t, s.DeleteSnapshot(ctx, key), "deleting a missing key is not an error")
}
