package eth

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

var ErrTxReverted = errors.New("transaction reverted")

// Transactor signs and sends contract calls from the service account.
type Transactor interface {
	From() common.Address
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	Send(ctx context.Context, to common.Address, data []byte, value *big.Int) (*ethtypes.Receipt, error)
}

// Nonces are taken under a lock so that concurrent sends do not reuse the same nonce.
type defaultTransactor struct {
	client     EthClient
	privateKey *ecdsa.PrivateKey
	from       common.Address

	receiptTimeout time.Duration
	pollInterval   time.Duration

	mutex sync.Mutex
}

func NewTransactor(
	client EthClient,
	privateKey *ecdsa.PrivateKey,
	receiptTimeout, pollInterval time.Duration,
) Transactor {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	return &defaultTransactor{
		client:         client,
		privateKey:     privateKey,
		from:           crypto.PubkeyToAddress(privateKey.PublicKey),
		receiptTimeout: receiptTimeout,
		pollInterval:   pollInterval,
	}
}

func (t *defaultTransactor) From() common.Address {
	return t.from
}

// Call runs a read-only contract call against the latest block.
func (t *defaultTransactor) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, RpcTimeOut)
	defer cancel()

	return t.client.CallContract(timeoutCtx, ethereum.CallMsg{From: t.from, To: &to, Data: data}, nil)
}

// Send signs a legacy transaction calling the contract and waits for its receipt. A receipt with a
// failed status is returned together with ErrTxReverted.
func (t *defaultTransactor) Send(
	ctx context.Context, to common.Address, data []byte, value *big.Int,
) (*ethtypes.Receipt, error) {
	if value == nil {
		value = common.Big0
	}

	signedTx, err := t.signTx(ctx, to, data, value)
	if err != nil {
		return nil, err
	}

	xcontext.Logger(ctx).Infof("Sent tx %s to %s", signedTx.Hash().Hex(), to.Hex())

	receipt, err := t.waitForReceipt(ctx, signedTx.Hash())
	if err != nil {
		return nil, err
	}

	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %s", ErrTxReverted, signedTx.Hash().Hex())
	}

	return receipt, nil
}

func (t *defaultTransactor) signTx(
	ctx context.Context, to common.Address, data []byte, value *big.Int,
) (*ethtypes.Transaction, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	nonce, err := t.client.PendingNonceAt(ctx, t.from)
	if err != nil {
		return nil, fmt.Errorf("cannot get nonce: %w", err)
	}

	gasPrice, err := t.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot get gas price: %w", err)
	}

	gasLimit, err := t.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  t.from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot estimate gas: %w", err)
	}

	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signedTx, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(t.client.ChainID()), t.privateKey)
	if err != nil {
		return nil, fmt.Errorf("cannot sign tx: %w", err)
	}

	if err := t.client.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("cannot send tx: %w", err)
	}

	return signedTx, nil
}

func (t *defaultTransactor) waitForReceipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	if t.receiptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.receiptTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := t.client.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}

		if err != nil && !errors.Is(err, ethereum.NotFound) {
			xcontext.Logger(ctx).Debugf("Cannot get receipt of %s yet: %v", hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for receipt of %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}
