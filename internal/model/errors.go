package model

import "errors"

var (
	// ErrInvalidDateRange is returned when a backtest is requested with
	// start after end, or with either bound in the future.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrNotEnoughVenues is returned when fewer than two venues supplied
	// usable historical data, which would make the comparison meaningless.
	// It is deliberately distinct from an empty result.
	ErrNotEnoughVenues = errors.New("not enough venues with data")

	// ErrPriceUnavailable is returned by price sources when a venue cannot
	// supply a quote for the requested symbol this cycle.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrInvalidThreshold is returned when a profit threshold outside the
	// open interval (0, 1) is stored or submitted.
	ErrInvalidThreshold = errors.New("profit threshold must be in (0, 1)")
)
