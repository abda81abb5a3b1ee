package common

import "context"

type ctxKey string

const subjectKey ctxKey = "auth/subject"

// WithSubject stores the authenticated token subject on the provided context.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey, subject)
}

// Subject extracts the authenticated token subject from the context if present.
func Subject(ctx context.Context) (string, bool) {
	v := ctx.Value(subjectKey)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
