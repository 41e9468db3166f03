package provider

import (
	"context"

	"releasesync/internal/release"
)

// Provider talks to exactly one external source and emits canonical records.
//
// Fetch never fails as a whole for expected conditions: missing credentials
// yield a skipped Result, and each failing sub-query is recorded in
// Result.Failures while the remaining sub-queries still run.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) Result
}

// Limiter spaces out outbound requests. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Result is what one provider stage produced.
type Result struct {
	Records  []release.Record
	Fetched  int // raw items returned by the provider
	Dropped  int // raw items that could not be normalized
	Skipped  bool
	Failures []*release.Failure
}

func (r *Result) Fail(provider string, kind release.ErrorKind, op string, err error) {
	r.Failures = append(r.Failures, release.NewFailure(provider, kind, op, err))
}

// Skip marks the result as a soft credentials skip.
func Skip(provider, reason string) Result {
	return Result{
		Skipped:  true,
		Failures: []*release.Failure{release.NewFailure(provider, release.ErrKindCredentials, reason, nil)},
	}
}
