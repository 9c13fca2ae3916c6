// service/context.go
package service

import "context"

type clientIPKey struct{}

// ContextWithClientIP attaches the caller's address so audit records written
// deeper in the call carry it.
func ContextWithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func clientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
