package middleware

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const serviceRole = "service_role"

// NewServiceRoleInterceptors guards every method not listed in publicMethods
// behind an HS256 bearer token carrying role=service_role. A full method name
// or a service prefix ending in "/" may be listed. An empty secret disables the guard.
func NewServiceRoleInterceptors(jwtSecret []byte, publicMethods []string) (grpc.UnaryServerInterceptor, grpc.StreamServerInterceptor) {
	unary := func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if err := authorize(ctx, info.FullMethod, jwtSecret, publicMethods); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}

	stream := func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if err := authorize(ss.Context(), info.FullMethod, jwtSecret, publicMethods); err != nil {
			return err
		}
		return handler(srv, ss)
	}

	return unary, stream
}

func isPublic(fullMethod string, publicMethods []string) bool {
	for _, m := range publicMethods {
		if m == fullMethod || (strings.HasSuffix(m, "/") && strings.HasPrefix(fullMethod, m)) {
			return true
		}
	}
	return false
}

func authorize(ctx context.Context, fullMethod string, jwtSecret []byte, publicMethods []string) error {
	if len(jwtSecret) == 0 || isPublic(fullMethod, publicMethods) {
		return nil
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}

	authHeaders := md.Get("authorization")
	if len(authHeaders) == 0 {
		return status.Error(codes.Unauthenticated, "authorization header is required")
	}

	raw := authHeaders[0]
	if !strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return status.Error(codes.Unauthenticated, "invalid authorization scheme")
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(raw[len("bearer "):]), claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return status.Error(codes.Unauthenticated, "invalid or expired token")
	}

	if role, _ := claims["role"].(string); role != serviceRole {
		return status.Error(codes.PermissionDenied, "service role required")
	}
	return nil
}
