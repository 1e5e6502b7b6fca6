package httpx

import "context"

type ctxKey string

const CtxKeySubject ctxKey = "subject"

// SubjectFromContext returns the authenticated subject set by BearerAuth.
func SubjectFromContext(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(CtxKeySubject).(string)
	return sub, ok && sub != ""
}
