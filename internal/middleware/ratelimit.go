package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"slices"

	"connectrpc.com/connect"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

var errRateLimited = errors.New("too many requests, please try again later")

// NewIPLimiter builds an in-memory per-key limiter from a formatted rate
// such as "5-M" (five per minute).
func NewIPLimiter(rate string) (*limiter.Limiter, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", rate, err)
	}
	return limiter.New(memory.NewStore(), r), nil
}

// RateLimit returns an interceptor that limits calls to the given procedures
// per client IP. Other procedures are not limited.
func RateLimit(l *limiter.Limiter, procedures ...string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if !slices.Contains(procedures, req.Spec().Procedure) {
				return next(ctx, req)
			}

			ip := clientIP(req.Peer().Addr)
			limit, err := l.Get(ctx, ip)
			if err != nil {
				slog.Error("Failed to get rate limit context", "ip", ip, "error", err)
				return nil, connect.NewError(connect.CodeInternal, errors.New("rate limit check failed"))
			}
			if limit.Reached {
				slog.Warn("Rate limit exceeded", "ip", ip, "procedure", req.Spec().Procedure, "limit", limit.Limit)
				return nil, connect.NewError(connect.CodeResourceExhausted, errRateLimited)
			}

			return next(ctx, req)
		}
	}
}

func clientIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
