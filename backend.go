package tabulate

import (
	"context"
	"io"
	"strconv"
	"strings"
)

// Orientation is the page orientation handed to a [Backend].
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// PageOptions describes the printed page. Header and Footer repeat the
// document decorations with {page} and {pages} still unresolved, for
// backends that paginate.
type PageOptions struct {
	Paper       string
	Orientation Orientation
	Header      map[Position]string
	Footer      map[Position]string
}

// Backend converts rendered HTML markup into a paginated document such as
// PDF. Implementations live outside this package.
type Backend interface {
	Name() string
	Convert(ctx context.Context, markup []byte, page PageOptions, w io.Writer) error
}

// BackendFunc adapts a function to [Backend].
type BackendFunc func(ctx context.Context, markup []byte, page PageOptions, w io.Writer) error

// Name implements [Backend].
func (BackendFunc) Name() string { return "func" }

// Convert implements [Backend].
func (f BackendFunc) Convert(ctx context.Context, markup []byte, page PageOptions, w io.Writer) error {
	return f(ctx, markup, page, w)
}

// ResolvePagePlaceholders replaces {page} and {pages} in content. Backends
// call it once per printed page.
func ResolvePagePlaceholders(content string, page, pages int) string {
	return strings.NewReplacer("{page}", strconv.Itoa(page), "{pages}", strconv.Itoa(pages)).Replace(content)
}
