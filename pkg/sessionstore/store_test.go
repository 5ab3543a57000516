package sessionstore_test

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/fault-recommender/pkg/reporting"
	"github.com/jihwankim/fault-recommender/pkg/session"
	"github.com/jihwankim/fault-recommender/pkg/sessionstore"
)

func silentLogger() *reporting.Logger {
	return reporting.NewLogger(reporting.LoggerConfig{Output: io.Discard})
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := sessionstore.New(dir, silentLogger())
	require.NoError(t, err)

	sess := &session.Session{ID: "abc", ServiceName: "checkout", Status: session.Pending, MaxTrials: 5}
	require.NoError(t, store.Save(sess))

	got, ok := store.Get("abc")
	require.True(t, ok)
	require.Equal(t, "checkout", got.ServiceName)
}

func TestSaveLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := sessionstore.New(dir, silentLogger())
	require.NoError(t, err)

	require.NoError(t, store.Save(&session.Session{ID: "xyz", Status: session.Pending}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "xyz.json", entries[0].Name())
}

func TestLoadAllRecoversPersistedSessions(t *testing.T) {
	dir := t.TempDir()
	store, err := sessionstore.New(dir, silentLogger())
	require.NoError(t, err)
	require.NoError(t, store.Save(&session.Session{ID: "s1", ServiceName: "a", Status: session.Pending}))
	require.NoError(t, store.Save(&session.Session{ID: "s2", ServiceName: "b", Status: session.Completed}))

	reopened, err := sessionstore.New(dir, silentLogger())
	require.NoError(t, err)
	require.NoError(t, reopened.LoadAll())
	require.Len(t, reopened.List(), 2)
}

func TestLoadAllSkipsUnparseableFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/broken.json", []byte("{not json"), 0644))

	store, err := sessionstore.New(dir, silentLogger())
	require.NoError(t, err)
	require.NoError(t, store.LoadAll())
	require.Empty(t, store.List())
}

func TestDeleteRemovesSnapshot(t *testing.T) {
	dir := t.TempDir()
	store, err := sessionstore.New(dir, silentLogger())
	require.NoError(t, err)
	require.NoError(t, store.Save(&session.Session{ID: "del-me", Status: session.Pending}))

	require.NoError(t, store.Delete("del-me"))
	_, ok := store.Get("del-me")
	require.False(t, ok)

	_, err = os.Stat(dir + "/del-me.json")
	require.True(t, os.IsNotExist(err))
}
