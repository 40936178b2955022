package usecase

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"
)

const maxSlugAttempts = 1000

// nameからslugを作り、existsが空きを返すまで -2, -3, ... を付ける。
func uniqueSlug(ctx context.Context, name, fallback string, exists func(ctx context.Context, s string) (bool, error)) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = fallback
	}

	candidate := base
	for i := 2; i <= maxSlugAttempts; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", UniquenessError(fmt.Sprintf("no free slug for %q", name), nil)
}
