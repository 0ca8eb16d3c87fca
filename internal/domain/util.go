package domain

import (
	"context"
	"unicode/utf8"

	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/ethutil"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

// normalizeAddress returns the checksummed form of hex addresses and keeps any other identity
// untouched.
func normalizeAddress(address string) string {
	if normalized := ethutil.NormalizeAddress(address); normalized != "" {
		return normalized
	}

	return address
}

func requestAddress(ctx context.Context) string {
	return normalizeAddress(xcontext.RequestUserID(ctx))
}

func checkPaging(ctx context.Context, offset, limit int) (int, error) {
	apiCfg := xcontext.Configs(ctx).ApiServer
	if limit == 0 {
		limit = apiCfg.DefaultLimit
	}

	if limit < 0 {
		return 0, errorx.New(errorx.InvalidInput, "Limit must be positive")
	}

	if limit > apiCfg.MaxLimit {
		return 0, errorx.New(errorx.InvalidInput, "Exceed the maximum of limit (%d)", apiCfg.MaxLimit)
	}

	if offset < 0 {
		return 0, errorx.New(errorx.InvalidInput, "Offset must not be negative")
	}

	return limit, nil
}

func checkTextLength(field, value string, max int, allowEmpty bool) error {
	if !allowEmpty && value == "" {
		return errorx.New(errorx.InvalidInput, "The %s must not be empty", field)
	}

	if max > 0 && utf8.RuneCountInString(value) > max {
		return errorx.New(errorx.InvalidInput, "The %s is too long (at most %d characters)", field, max)
	}

	return nil
}
