package disk

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heapdb/common"
)

const testPageSize = 512

func tempPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), uuid.New().String()+".dat")
}

func pageOf(b byte) []byte {
	return bytes.Repeat([]byte{b}, testPageSize)
}

func TestDiskManager_Write_Then_Read(t *testing.T) {
	path := tempPath(t)
	dm, created, err := NewDiskManager(path, testPageSize)
	require.NoError(t, err)
	defer dm.Close()
	assert.True(t, created)
	assert.Equal(t, 0, dm.NumPages())

	require.NoError(t, dm.WritePage(0, pageOf(1)))
	require.NoError(t, dm.WritePage(2, pageOf(3)))
	assert.Equal(t, 3, dm.NumPages())

	data, err := dm.ReadPage(2)
	require.NoError(t, err)
	assert.Equal(t, pageOf(3), data)

	// the gap is filled with zeros
	data, err = dm.ReadPage(1)
	require.NoError(t, err)
	assert.Equal(t, pageOf(0), data)
}

func TestDiskManager_Reopen_Is_Not_Created(t *testing.T) {
	path := tempPath(t)
	dm, _, err := NewDiskManager(path, testPageSize)
	require.NoError(t, err)
	require.NoError(t, dm.WritePage(0, pageOf(9)))
	require.NoError(t, dm.Close())

	dm, created, err := NewDiskManager(path, testPageSize)
	require.NoError(t, err)
	defer dm.Close()
	assert.False(t, created)
	assert.Equal(t, 1, dm.NumPages())
}

func TestDiskManager_NumPages_Does_Not_Stat_The_File(t *testing.T) {
	dm, _, err := NewDiskManager(tempPath(t), testPageSize)
	require.NoError(t, err)
	require.NoError(t, dm.WritePage(0, pageOf(1)))
	require.NoError(t, dm.WritePage(1, pageOf(2)))

	// a stat on the closed file fails, the page count must not collapse to zero
	require.NoError(t, dm.Close())
	assert.Equal(t, 2, dm.NumPages())

	err = dm.WritePage(2, pageOf(3))
	assert.True(t, errors.Is(err, common.ErrStorageIO))
	assert.Equal(t, 2, dm.NumPages())
}

func TestDiskManager_Read_Past_End_Is_Storage_Error(t *testing.T) {
	dm, _, err := NewDiskManager(tempPath(t), testPageSize)
	require.NoError(t, err)
	defer dm.Close()

	_, err = dm.ReadPage(5)
	assert.True(t, errors.Is(err, common.ErrStorageIO))
	assert.False(t, errors.Is(err, common.ErrTransactionAborted))
}

func TestDiskManager_Rejects_Wrong_Page_Length(t *testing.T) {
	dm, _, err := NewDiskManager(tempPath(t), testPageSize)
	require.NoError(t, err)
	defer dm.Close()

	err = dm.WritePage(0, make([]byte, testPageSize-1))
	assert.True(t, errors.Is(err, common.ErrInvalidState))
}

func TestSnapshot_Restore_Round_Trip(t *testing.T) {
	dm, _, err := NewDiskManager(tempPath(t), testPageSize)
	require.NoError(t, err)
	defer dm.Close()
	for i := 0; i < 10; i++ {
		require.NoError(t, dm.WritePage(i, pageOf(byte(i*7))))
	}

	buf := &bytes.Buffer{}
	n, err := Snapshot(dm, buf)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	target := tempPath(t)
	pageSize, numPages, err := Restore(bytes.NewReader(buf.Bytes()), target)
	require.NoError(t, err)
	assert.Equal(t, testPageSize, pageSize)
	assert.Equal(t, 10, numPages)

	restored, _, err := NewDiskManager(target, testPageSize)
	require.NoError(t, err)
	defer restored.Close()
	for i := 0; i < 10; i++ {
		data, err := restored.ReadPage(i)
		require.NoError(t, err)
		assert.Equal(t, PageChecksum(pageOf(byte(i*7))), PageChecksum(data))
	}
}

func TestRestore_Rejects_Existing_Target(t *testing.T) {
	dm, _, err := NewDiskManager(tempPath(t), testPageSize)
	require.NoError(t, err)
	defer dm.Close()
	require.NoError(t, dm.WritePage(0, pageOf(1)))

	buf := &bytes.Buffer{}
	_, err = Snapshot(dm, buf)
	require.NoError(t, err)

	_, _, err = Restore(buf, dm.Path())
	assert.True(t, errors.Is(err, common.ErrInvalidState))

	_, err = os.Stat(dm.Path())
	assert.NoError(t, err)
}

func TestRestore_Rejects_Garbage(t *testing.T) {
	target := tempPath(t)
	_, _, err := Restore(bytes.NewReader([]byte("definitely not a snappy stream")), target)
	assert.Error(t, err)

	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
}
