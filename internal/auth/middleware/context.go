package auth

import (
	"context"
	"strings"
)

// Subject prefixes identify how an account was created.
const (
	PrefixAdmin = "admin|"
	PrefixUser  = "user|"
	PrefixGuest = "guest|"
)

type subjectKey struct{}

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey{}, sub)
}

func SubjectFromContext(ctx context.Context) string {
	sub, _ := ctx.Value(subjectKey{}).(string)
	return sub
}

// IsGuest reports whether the caller signed in anonymously.
func IsGuest(ctx context.Context) bool {
	return strings.HasPrefix(SubjectFromContext(ctx), PrefixGuest)
}
