package model

type GetBalanceRequest struct {
	Address string `json:"address" form:"address"`
}

type GetBalanceResponse struct {
	Address   string `json:"address"`
	Balance   string `json:"balance"`
	Allowance string `json:"allowance"`
}

type ApproveRequest struct {
	Amount string `json:"amount"`
}

type ApproveResponse struct {
	Allowance string `json:"allowance"`
}

type MintRequest struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

type MintResponse struct {
	Balance string `json:"balance"`
}
