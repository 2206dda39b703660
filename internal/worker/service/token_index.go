package service

import (
	"sync"

	"balance-sync/internal/worker/model"
	"balance-sync/pkg/utils"
)

// TokenIndex 单次同步内的已知代币索引，并发安全
type TokenIndex struct {
	mu         sync.RWMutex
	byContract map[string]model.Token
	symbols    map[string]struct{}
	allowList  map[string]struct{}
}

func NewTokenIndex(tokens []model.Token, allowList []string) *TokenIndex {
	idx := &TokenIndex{
		byContract: make(map[string]model.Token, len(tokens)),
		symbols:    make(map[string]struct{}, len(tokens)),
		allowList:  make(map[string]struct{}, len(allowList)),
	}
	for _, sym := range allowList {
		idx.allowList[model.NormalizeSymbol(sym)] = struct{}{}
	}
	for _, token := range tokens {
		idx.add(token)
	}
	return idx
}

func contractKey(network, contract string) string {
	return utils.TokenContractKey(network, utils.NormalizeAddress(contract, network))
}

func (idx *TokenIndex) add(token model.Token) {
	idx.byContract[contractKey(token.Network, token.ContractAddress)] = token
	idx.symbols[model.NormalizeSymbol(token.Symbol)] = struct{}{}
}

// Add 记录本次同步中新发现的代币
func (idx *TokenIndex) Add(token model.Token) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.add(token)
}

func (idx *TokenIndex) Lookup(network, contract string) (model.Token, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	token, ok := idx.byContract[contractKey(network, contract)]
	return token, ok
}

// Recognizes 符号已在索引中，或属于稳定币白名单
func (idx *TokenIndex) Recognizes(symbol string) bool {
	sym := model.NormalizeSymbol(symbol)
	if sym == "" {
		return false
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if _, ok := idx.allowList[sym]; ok {
		return true
	}
	_, ok := idx.symbols[sym]
	return ok
}

func (idx *TokenIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byContract)
}
