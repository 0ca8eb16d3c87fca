package domain

import (
	"context"
	"errors"

	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/pkg/authenticator"
	"github.com/questx-lab/raffle/pkg/crypto"
	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/ethutil"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

const (
	sessionKeyNonce   = "nonce"
	sessionKeyAddress = "address"
)

type AuthDomain interface {
	WalletLogin(context.Context, *model.WalletLoginRequest) (*model.WalletLoginResponse, error)
	WalletVerify(context.Context, *model.WalletVerifyRequest) (*model.WalletVerifyResponse, error)
}

type authDomain struct {
	tokenEngine authenticator.TokenEngine[model.AccessToken]
}

func NewAuthDomain(tokenEngine authenticator.TokenEngine[model.AccessToken]) *authDomain {
	return &authDomain{tokenEngine: tokenEngine}
}

// WalletLogin issues the nonce the wallet has to sign. The nonce and the address are kept in the
// cookie session until WalletVerify consumes them.
func (d *authDomain) WalletLogin(
	ctx context.Context, req *model.WalletLoginRequest,
) (*model.WalletLoginResponse, error) {
	address := ethutil.NormalizeAddress(req.Address)
	if address == "" {
		return nil, errorx.New(errorx.InvalidInput, "Invalid wallet address")
	}

	nonce, err := crypto.GenerateRandomString()
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate random string: %v", err)
		return nil, errorx.Unknown
	}

	err = d.saveSession(ctx, map[string]any{sessionKeyNonce: nonce, sessionKeyAddress: address})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot save session: %v", err)
		return nil, errorx.Unknown
	}

	return &model.WalletLoginResponse{Address: address, Nonce: nonce}, nil
}

func (d *authDomain) WalletVerify(
	ctx context.Context, req *model.WalletVerifyRequest,
) (*model.WalletVerifyResponse, error) {
	nonce, address, err := d.consumeSession(ctx)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Cannot get wallet session: %v", err)
		return nil, errorx.New(errorx.BadRequest, "Please login before verifying")
	}

	if err := authenticator.VerifyWalletSignature(nonce, req.Signature, address); err != nil {
		xcontext.Logger(ctx).Debugf("Cannot verify wallet signature: %v", err)
		return nil, errorx.New(errorx.Unauthenticated, "Invalid signature")
	}

	token, err := d.tokenEngine.Generate(address, model.AccessToken{Address: address})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate access token: %v", err)
		return nil, errorx.Unknown
	}

	return &model.WalletVerifyResponse{Address: address, AccessToken: token}, nil
}

func (d *authDomain) saveSession(ctx context.Context, values map[string]any) error {
	req, w := xcontext.HTTPRequest(ctx), xcontext.HTTPWriter(ctx)
	if req == nil || w == nil {
		return errors.New("not an http request")
	}

	session, err := xcontext.SessionStore(ctx).Get(req, xcontext.Configs(ctx).Session.Name)
	if err != nil {
		return err
	}

	for k, v := range values {
		session.Values[k] = v
	}

	return session.Save(req, w)
}

// consumeSession returns the pending login of the session and removes it, a nonce can be verified
// only once.
func (d *authDomain) consumeSession(ctx context.Context) (string, string, error) {
	req, w := xcontext.HTTPRequest(ctx), xcontext.HTTPWriter(ctx)
	if req == nil || w == nil {
		return "", "", errors.New("not an http request")
	}

	session, err := xcontext.SessionStore(ctx).Get(req, xcontext.Configs(ctx).Session.Name)
	if err != nil {
		return "", "", err
	}

	nonce, _ := session.Values[sessionKeyNonce].(string)
	address, _ := session.Values[sessionKeyAddress].(string)
	if nonce == "" || address == "" {
		return "", "", errors.New("no pending login")
	}

	delete(session.Values, sessionKeyNonce)
	delete(session.Values, sessionKeyAddress)
	if err := session.Save(req, w); err != nil {
		return "", "", err
	}

	return nonce, address, nil
}
