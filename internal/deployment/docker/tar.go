package docker

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"strings"
)

// tarFromHostPath reads the file at src on the host and returns a tar
// stream containing it as a single entry at dst (a container path,
// turned into a tar-relative name by stripping the leading slash).
func tarFromHostPath(src, dst string, isFile bool) (io.Reader, error) {
	if !isFile {
		return nil, os.ErrInvalid
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(src)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	name := strings.TrimPrefix(dst, "/")
	hdr := &tar.Header{
		Name: name,
		Mode: int64(info.Mode().Perm()),
		Size: int64(len(data)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return nil, err
	}
	if _, err := tw.Write(data); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}
