package kbs

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultRepository is used when a ResourceUri's repository segment is
// empty, matching the KBS convention of a "default" repository namespace.
const DefaultRepository = "default"

// ErrInvalidResourceURI is returned when a string is not a kbs:/// URI made
// of a non-empty type and tag, optionally preceded by a repository segment.
var ErrInvalidResourceURI = errors.New("invalid kbs resource uri")

// ResourceURI identifies a resource stored behind a KBS, addressed by a
// repository, a type, and a tag: kbs:///<repository>/<type>/<tag>.
type ResourceURI struct {
	Repository string
	Type       string
	Tag        string
}

// ParseResourceURI parses the textual kbs:/// form.
func ParseResourceURI(s string) (ResourceURI, error) {
	const prefix = "kbs:///"
	if !strings.HasPrefix(s, prefix) {
		return ResourceURI{}, fmt.Errorf("%w: %s", ErrInvalidResourceURI, s)
	}
	parts := strings.Split(strings.TrimPrefix(s, prefix), "/")

	var repo, typ, tag string
	switch len(parts) {
	case 2:
		repo, typ, tag = DefaultRepository, parts[0], parts[1]
	case 3:
		repo, typ, tag = parts[0], parts[1], parts[2]
	default:
		return ResourceURI{}, fmt.Errorf("%w: %s", ErrInvalidResourceURI, s)
	}
	if repo == "" {
		repo = DefaultRepository
	}
	if typ == "" || tag == "" {
		return ResourceURI{}, fmt.Errorf("%w: %s", ErrInvalidResourceURI, s)
	}
	return ResourceURI{Repository: repo, Type: typ, Tag: tag}, nil
}

// String renders the canonical textual form.
func (r ResourceURI) String() string {
	repo := r.Repository
	if repo == "" {
		repo = DefaultRepository
	}
	return fmt.Sprintf("kbs:///%s/%s/%s", repo, r.Type, r.Tag)
}

// Path is the HTTP resource path the KBS exposes this resource at.
func (r ResourceURI) Path() string {
	repo := r.Repository
	if repo == "" {
		repo = DefaultRepository
	}
	return fmt.Sprintf("/kbs/v0/%s/%s/%s", repo, r.Type, r.Tag)
}

func (r ResourceURI) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", r.String())), nil
}

func (r *ResourceURI) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseResourceURI(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
