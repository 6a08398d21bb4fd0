package audit

import (
	"context"

	"leaveledger/internal/requestctx"
)

func requestIDFrom(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}

func ipFrom(ctx context.Context) string {
	return requestctx.GetClientIP(ctx)
}
