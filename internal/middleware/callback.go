package middleware

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"io"

	"github.com/questx-lab/raffle/pkg/crypto"
	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/router"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

const CallbackSignatureHeader = "X-Callback-Signature"

// VerifyCallbackSignature accepts only requests whose body is signed with the callback secret
// (hex encoded HMAC-SHA256). The body is restored so that the handler can still bind it.
func VerifyCallbackSignature() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		secret := xcontext.Configs(ctx).Entropy.CallbackSecret
		if secret == "" {
			return ctx, errorx.New(errorx.Unavailable, "Callback is disabled")
		}

		req := xcontext.HTTPRequest(ctx)
		body, err := io.ReadAll(req.Body)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Cannot read callback body: %v", err)
			return ctx, errorx.New(errorx.BadRequest, "Invalid request format")
		}
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(body))

		expected := crypto.HMAC(sha256.New, body, []byte(secret))
		signature := req.Header.Get(CallbackSignatureHeader)
		if !hmac.Equal([]byte(expected), []byte(signature)) {
			return ctx, errorx.New(errorx.Unauthenticated, "Invalid callback signature")
		}

		return ctx, nil
	}
}
