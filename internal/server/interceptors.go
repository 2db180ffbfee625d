package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/alfredjeanlab/board/internal/rpc"
)

// Calls that never need a token.
var (
	publicRPCs   = map[string]bool{rpc.MethodHealth: true}
	publicRoutes = map[string]bool{"GET /v1/health": true}
)

var (
	errNoCredentials = errors.New("missing authorization header")
	errBadScheme     = errors.New("invalid authorization scheme")
	errBadToken      = errors.New("invalid token")
)

// bearerGuard checks Authorization values against a shared token. The zero
// value admits everything.
type bearerGuard string

func (g bearerGuard) disabled() bool { return g == "" }

func (g bearerGuard) check(header string) error {
	if header == "" {
		return errNoCredentials
	}
	provided, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return errBadScheme
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(g)) != 1 {
		return errBadToken
	}
	return nil
}

// callerErrors are codes caused by the request rather than the server; they
// are logged at warn.
var callerErrors = map[codes.Code]bool{
	codes.InvalidArgument:    true,
	codes.FailedPrecondition: true,
	codes.NotFound:           true,
	codes.Unauthenticated:    true,
	codes.Canceled:           true,
}

// LoggingInterceptor logs each unary call with its method, status code and
// duration.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		attrs := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
		switch {
		case err == nil:
			logger.Debug("rpc", attrs...)
		case callerErrors[code]:
			logger.Warn("rpc", append(attrs, "error", err)...)
		default:
			logger.Error("rpc", append(attrs, "error", err)...)
		}
		return resp, err
	}
}

// RecoveryInterceptor turns a handler panic into codes.Internal.
func RecoveryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logPanic(logger, info.FullMethod, r)
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

// AuthInterceptor requires "authorization: Bearer <token>" metadata on every
// call except the public ones. An empty token disables the check.
func AuthInterceptor(token string) grpc.UnaryServerInterceptor {
	guard := bearerGuard(token)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if guard.disabled() || publicRPCs[info.FullMethod] {
			return handler(ctx, req)
		}
		if err := guard.check(bearerFromMetadata(ctx)); err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return handler(ctx, req)
	}
}

func bearerFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if vals := md.Get("authorization"); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// AuthMiddleware is the HTTP counterpart of AuthInterceptor.
func AuthMiddleware(token string, next http.Handler) http.Handler {
	guard := bearerGuard(token)
	if guard.disabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicRoutes[r.Method+" "+r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		if err := guard.check(r.Header.Get("Authorization")); err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RecoveryMiddleware answers 500 when a handler panics.
func RecoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logPanic(logger, r.Method+" "+r.URL.Path, rec)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func logPanic(logger *slog.Logger, where string, r any) {
	logger.Error("panic recovered",
		"at", where,
		"panic", fmt.Sprint(r),
		"stack", string(debug.Stack()),
	)
}
