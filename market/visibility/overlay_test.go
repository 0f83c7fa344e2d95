package visibility_test

import (
	"errors"
	"testing"

	"github.com/chennaiartisanal/provenance/market/visibility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memory(t *testing.T) *visibility.LevelDB {
	t.Helper()
	kv, err := visibility.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return kv
}

type brokenKV struct {
	getErr, putErr error
	puts           int
}

func (b *brokenKV) Get(key []byte) ([]byte, error) {
	if b.getErr != nil {
		return nil, b.getErr
	}
	return nil, visibility.ErrMissing
}

func (b *brokenKV) Put(key, value []byte) error {
	b.puts++
	return b.putErr
}

func TestHideIsIdempotent(t *testing.T) {
	kv := memory(t)
	o := visibility.New(kv)

	require.True(t, o.Hide(3))
	first, err := kv.Get([]byte(visibility.Key))
	require.NoError(t, err)

	require.True(t, o.Hide(3))
	second, err := kv.Get([]byte(visibility.Key))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.JSONEq(t, `["3"]`, string(second))
	assert.True(t, o.IsHidden(3))
	assert.Equal(t, []uint64{3}, o.Hidden())
}

func TestShowOfVisibleIsNoop(t *testing.T) {
	kv := &brokenKV{}
	o := visibility.New(kv)

	assert.True(t, o.Show(9))
	assert.False(t, o.IsHidden(9))
	assert.Zero(t, kv.puts)
}

func TestHideShowRoundTrip(t *testing.T) {
	o := visibility.New(memory(t))

	require.True(t, o.Hide(1))
	require.True(t, o.Hide(10))
	require.True(t, o.Hide(2))
	assert.Equal(t, []uint64{1, 2, 10}, o.Hidden())

	require.True(t, o.Show(10))
	assert.False(t, o.IsHidden(10))
	assert.True(t, o.IsHidden(1))
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	kv, err := visibility.OpenLevelDB(dir)
	require.NoError(t, err)
	o := visibility.New(kv)
	require.True(t, o.Hide(7))
	require.NoError(t, kv.Close())

	kv, err = visibility.OpenLevelDB(dir)
	require.NoError(t, err)
	defer kv.Close()

	assert.True(t, visibility.New(kv).IsHidden(7))
}

func TestStoredFormat(t *testing.T) {
	kv := memory(t)
	require.NoError(t, kv.Put([]byte("chennaiArtisanal_hiddenNFTs"), []byte(`["3","12"]`)))

	o := visibility.New(kv)
	assert.Equal(t, []uint64{3, 12}, o.Hidden())

	require.True(t, o.Hide(5))
	raw, err := kv.Get([]byte("chennaiArtisanal_hiddenNFTs"))
	require.NoError(t, err)
	assert.JSONEq(t, `["3","5","12"]`, string(raw))
}

func TestCorruptDataStartsEmpty(t *testing.T) {
	kv := memory(t)
	require.NoError(t, kv.Put([]byte(visibility.Key), []byte("{not json")))

	o := visibility.New(kv)
	assert.Empty(t, o.Hidden())
	assert.True(t, o.Hide(1))
}

func TestPersistenceFailureReturnsFalse(t *testing.T) {
	kv := &brokenKV{getErr: errors.New("disk gone"), putErr: errors.New("disk gone")}
	o := visibility.New(kv)

	assert.False(t, o.Hide(5))
	assert.False(t, o.IsHidden(5))

	kv.putErr = nil
	require.True(t, o.Hide(5))

	kv.putErr = errors.New("disk gone")
	assert.False(t, o.Show(5))
	assert.True(t, o.IsHidden(5))
}
