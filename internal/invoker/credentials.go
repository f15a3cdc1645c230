package invoker

import (
	"context"
	"strings"
)

type credentialKey struct{}

// WithCredential attaches the caller's bearer token to ctx. Backend calls
// made with the returned context send it instead of the service's static token.
func WithCredential(ctx context.Context, token string) context.Context {
	token = strings.TrimSpace(token)
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, credentialKey{}, token)
}

// CredentialFrom returns the caller token carried by ctx.
func CredentialFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(credentialKey{}).(string)
	return token, ok && token != ""
}

// BearerToken extracts the token of an "Authorization: Bearer ..." value.
func BearerToken(header string) string {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
