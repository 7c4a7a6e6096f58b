package s3uri

import (
	"fmt"
	"path"
	"strings"
)

const scheme = "s3://"

// URI is a parsed object-storage locator of the form s3://bucket/key.
type URI struct {
	Bucket string
	Key    string
}

// Parse splits an s3://bucket/key string into its bucket and key parts.
func Parse(raw string) (URI, error) {
	if !strings.HasPrefix(raw, scheme) {
		return URI{}, fmt.Errorf("not an s3 uri: %s", raw)
	}

	rest := strings.TrimPrefix(raw, scheme)
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return URI{}, fmt.Errorf("s3 uri must contain a bucket and a key: %s", raw)
	}

	return URI{Bucket: parts[0], Key: parts[1]}, nil
}

// Build composes a URI from a bucket and key path elements.
func Build(bucket string, elems ...string) URI {
	return URI{
		Bucket: bucket,
		Key:    path.Join(elems...),
	}
}

func (u URI) String() string {
	return scheme + u.Bucket + "/" + u.Key
}

// Base returns the last path element of the key, e.g. the file name.
func (u URI) Base() string {
	return path.Base(u.Key)
}

// Join returns a new URI with extra elements appended to the key.
func (u URI) Join(elems ...string) URI {
	return URI{
		Bucket: u.Bucket,
		Key:    path.Join(append([]string{u.Key}, elems...)...),
	}
}

// Stem returns the file name of the key without its extension
// e.g. "inputs/video.mp4" -> "video".
func (u URI) Stem() string {
	name := u.Base()
	if dot := strings.LastIndex(name, "."); dot > 0 {
		return name[:dot]
	}
	return name
}
