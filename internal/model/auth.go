package model

type AccessToken struct {
	Address string `json:"address"`
}

type WalletLoginRequest struct {
	Address string `json:"address" form:"address"`
}

type WalletLoginResponse struct {
	Address string `json:"address"`
	Nonce   string `json:"nonce"`
}

type WalletVerifyRequest struct {
	Signature string `json:"signature"`
}

type WalletVerifyResponse struct {
	Address     string `json:"address"`
	AccessToken string `json:"access_token"`
}
