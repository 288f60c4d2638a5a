package tracker

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Querier resolves bug numbers in one request.
type Querier interface {
	Query(ctx context.Context, numbers []string) (Descriptions, error)
}

// ProductFetcher returns product page information for a module.
type ProductFetcher interface {
	Product(ctx context.Context, module string) (ProductInfo, error)
}

// Resolver wraps tracker calls so that failures never abort a release.
// Errors are reported to Warnings and an empty result is returned.
type Resolver struct {
	Querier  Querier
	Products ProductFetcher
	Warnings io.Writer
}

// NewResolver returns a Resolver backed by client that warns on stderr.
func NewResolver(client *Client) *Resolver {
	return &Resolver{Querier: client, Products: client, Warnings: os.Stderr}
}

// Resolve returns the descriptions for numbers. When the tracker is
// unreachable or its response cannot be parsed, it warns and returns an
// empty map; bug entries then render as plain changes.
func (r *Resolver) Resolve(ctx context.Context, numbers []string) Descriptions {
	if len(numbers) == 0 || r.Querier == nil {
		return Descriptions{}
	}

	descriptions, err := r.Querier.Query(ctx, numbers)
	if err != nil {
		r.warn("bug tracker query failed, bug fixes will be listed as plain changes: %v", err)
		return Descriptions{}
	}
	return descriptions
}

// Product returns product page information, or empty fields with a
// warning if the page cannot be fetched.
func (r *Resolver) Product(ctx context.Context, module string) ProductInfo {
	if r.Products == nil || module == "" {
		return ProductInfo{}
	}

	info, err := r.Products.Product(ctx, module)
	if err != nil {
		r.warn("could not read tracker product page for %q: %v", module, err)
		return ProductInfo{}
	}
	return info
}

func (r *Resolver) warn(format string, args ...any) {
	w := r.Warnings
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "Warning: "+format+"\n", args...)
}
