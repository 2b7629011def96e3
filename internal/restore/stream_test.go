package restore

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

func gzipped(t *testing.T, contents string) io.ReadCloser {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return io.NopCloser(&buf)
}

func TestOpenSQLStreamPlain(t *testing.T) {
	rc := io.NopCloser(strings.NewReader("SELECT 1;"))
	stream, err := OpenSQLStream(rc, "archivesspace-2024-01-01.sql", nil)
	require.NoError(t, err)
	defer stream.Close()

	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	require.Equal(t, "SELECT 1;", string(data))
}

func TestOpenSQLStreamGzip(t *testing.T) {
	stream, err := OpenSQLStream(gzipped(t, "CREATE TABLE user;"), "archivesspace-2024-01-01.sql.gz", nil)
	require.NoError(t, err)

	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	require.Equal(t, "CREATE TABLE user;", string(data))
	require.NoError(t, stream.Close())
}

func TestOpenSQLStreamCorruptGzip(t *testing.T) {
	rc := io.NopCloser(strings.NewReader("definitely not gzip"))
	_, err := OpenSQLStream(rc, "archivesspace-2024-01-01.sql.gz", nil)
	require.Error(t, err)
}

func TestOpenSQLStreamEncryptedWithoutKey(t *testing.T) {
	rc := io.NopCloser(strings.NewReader("age-encryption.org/v1"))
	_, err := OpenSQLStream(rc, "archivesspace-2024-01-01.sql.gz.age", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "encrypted")
}
