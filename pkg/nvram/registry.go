package nvram

import (
	"context"
	"fmt"
	"sort"
)

// Opener opens a store given its two section mediums, in the manner of
// a particular on-disk format.
type Opener func(ctx context.Context, a, b Medium) (*Store, error)

// formats maps a format name to its opener. Only "v2" is implemented;
// "legacy" and "platform" are registered as named placeholders so that
// callers selecting them by name get a clear [ErrUnsupported] instead of
// an unknown-format error, and so that adding a real implementation
// later does not change the set of recognized names.
var formats = map[string]Opener{
	"v2":       Open,
	"legacy":   unsupportedOpener("legacy"),
	"platform": unsupportedOpener("platform"),
}

func unsupportedOpener(name string) Opener {
	return func(ctx context.Context, a, b Medium) (*Store, error) {
		return nil, fmt.Errorf("%w: format %q does not support dual-section operation", ErrUnsupported, name)
	}
}

// OpenFormat opens a store using the named format's opener.
func OpenFormat(ctx context.Context, name string, a, b Medium) (*Store, error) {
	open, ok := formats[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidArgument, name)
	}

	return open(ctx, a, b)
}

// RegisteredFormats returns the names of all known formats, sorted.
func RegisteredFormats() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
