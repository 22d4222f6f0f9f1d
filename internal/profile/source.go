package profile

import (
	"context"
	"errors"
	"io/fs"
	"os"
)

// Source yields the profile for one conversion.
type Source interface {
	Load(ctx context.Context) (*Profile, error)
}

// FileSource reads the profile from disk on every Load so edits apply
// without a restart. A missing file is an empty profile.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Path == "" {
		return Empty(), nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Empty(), nil
		}
		return nil, &Error{Path: s.Path, Cause: err}
	}
	p, err := Parse(data)
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			perr.Path = s.Path
		}
		return nil, err
	}
	return p, nil
}

// Static always returns the same profile.
type Static struct {
	Profile *Profile
}

func (s Static) Load(context.Context) (*Profile, error) {
	if s.Profile == nil {
		return Empty(), nil
	}
	return s.Profile, nil
}
