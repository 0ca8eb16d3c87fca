package contract

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// The raffle entropy consumer forwards requests to Pyth Entropy and re-emits its callback with the
// raffle id and the nonce of the service.
const raffleEntropyABI = `[
	{"name":"getFee","type":"function","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint128"}]},
	{"name":"requestEntropy","type":"function","stateMutability":"payable","inputs":[
		{"name":"raffleId","type":"uint256"},
		{"name":"nonce","type":"uint64"},
		{"name":"userRandomNumber","type":"bytes32"}
	],"outputs":[{"name":"sequenceNumber","type":"uint64"}]},
	{"name":"EntropyRequested","type":"event","anonymous":false,"inputs":[
		{"name":"raffleId","type":"uint256","indexed":true},
		{"name":"nonce","type":"uint64","indexed":false},
		{"name":"sequenceNumber","type":"uint64","indexed":false}
	]},
	{"name":"EntropyFulfilled","type":"event","anonymous":false,"inputs":[
		{"name":"raffleId","type":"uint256","indexed":true},
		{"name":"nonce","type":"uint64","indexed":false},
		{"name":"randomNumber","type":"bytes32","indexed":false}
	]}
]`

var RaffleEntropyABI abi.ABI

func init() {
	var err error
	RaffleEntropyABI, err = abi.JSON(strings.NewReader(raffleEntropyABI))
	if err != nil {
		panic(err)
	}
}
