package restore

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/crypto"
)

// OpenSQLStream unwraps a backup artifact stream into plain SQL, driven by
// the filename suffixes: `.age` is decrypted first, then `.gz` is
// decompressed. A `.age` artifact with no decryptor configured is an error.
func OpenSQLStream(rc io.ReadCloser, filename string, decryptor *crypto.AgeDecryptor) (io.ReadCloser, error) {
	name := filename
	stream := rc

	if strings.HasSuffix(name, ".age") {
		if decryptor == nil {
			rc.Close()
			return nil, fmt.Errorf("backup %s is encrypted but no encryption key is configured", filename)
		}
		decrypted, err := decryptor.NewDecryptReadCloser(stream)
		if err != nil {
			rc.Close()
			return nil, err
		}
		stream = decrypted
		name = strings.TrimSuffix(name, ".age")
	}

	if strings.HasSuffix(name, ".gz") {
		gz, err := gzip.NewReader(stream)
		if err != nil {
			stream.Close()
			return nil, fmt.Errorf("failed to decompress backup %s: %w", filename, err)
		}
		return &gzipReadCloser{Reader: gz, underlying: stream}, nil
	}

	return stream, nil
}

// gzipReadCloser closes both the gzip reader and the stream beneath it.
type gzipReadCloser struct {
	*gzip.Reader
	underlying io.ReadCloser
}

func (g *gzipReadCloser) Close() error {
	gzErr := g.Reader.Close()
	if err := g.underlying.Close(); err != nil {
		return err
	}
	return gzErr
}
