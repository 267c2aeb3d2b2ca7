// Package quotes holds the in-memory bond state shared by the workflow and the UI.
package quotes

import (
	"sort"
	"sync"

	"github.com/vadiminshakov/bondi/internal/domain"
)

// Store keeps one BondQuoteState per asset plus the latest chain head.
// Nothing is persisted; a restart starts from zero values.
type Store struct {
	mu           sync.RWMutex
	bonds        map[domain.BondAssetID]*domain.BondQuoteState
	currentBlock uint64
	chainID      uint64
}

// NewStore creates a store tracking the given assets.
func NewStore(assets ...domain.BondAssetID) *Store {
	s := &Store{bonds: make(map[domain.BondAssetID]*domain.BondQuoteState, len(assets))}
	for _, a := range assets {
		s.bonds[a] = &domain.BondQuoteState{Asset: a}
	}
	return s
}

// Get returns a copy of the asset state.
func (s *Store) Get(asset domain.BondAssetID) (domain.BondQuoteState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.bonds[asset]
	if !ok {
		return domain.BondQuoteState{}, domain.ErrUnknownAsset
	}
	return *state, nil
}

// Assets lists tracked assets in sorted order.
func (s *Store) Assets() []domain.BondAssetID {
	s.mu.RLock()
	assets := make([]domain.BondAssetID, 0, len(s.bonds))
	for a := range s.bonds {
		assets = append(assets, a)
	}
	s.mu.RUnlock()

	sort.Slice(assets, func(i, j int) bool { return assets[i] < assets[j] })
	return assets
}

// ApplyQuote stores asset-level values.
func (s *Store) ApplyQuote(asset domain.BondAssetID, u domain.QuoteUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.bonds[asset]
	if !ok {
		return domain.ErrUnknownAsset
	}
	state.ApplyQuote(u)
	return nil
}

// ApplyPosition stores user-level values.
func (s *Store) ApplyPosition(asset domain.BondAssetID, u domain.PositionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.bonds[asset]
	if !ok {
		return domain.ErrUnknownAsset
	}
	state.ApplyPosition(u)
	return nil
}

// SetHead records the latest block and chain id.
func (s *Store) SetHead(block, chainID uint64) {
	s.mu.Lock()
	s.currentBlock = block
	s.chainID = chainID
	s.mu.Unlock()
}

// CurrentBlock returns the latest known block, zero before the first poll.
func (s *Store) CurrentBlock() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentBlock
}

// ChainID returns the latest known chain id.
func (s *Store) ChainID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chainID
}
