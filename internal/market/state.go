package market

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/renance-monitor/internal/model"
	"github.com/rickgao/renance-monitor/internal/router"
)

// MaxTrades is the length of the recent-trade tape.
const MaxTrades = 50

// View is a read-only copy of a State.
type View struct {
	Symbol string

	Book    model.OrderBookSnapshot
	HasBook bool

	// Trades is newest first.
	Trades []model.Trade

	// Ticker is nil until a ticker snapshot has loaded.
	Ticker *model.Ticker

	ChannelState  model.ChannelState
	LastMessageAt time.Time

	// Completion times of the REST snapshot pulls; zero means not loaded yet.
	BookLoadedAt   time.Time
	TradesLoadedAt time.Time
	TickerLoadedAt time.Time
}

// State is the reconciled market state of a single symbol.
type State struct {
	symbol string
	logger *slog.Logger

	mu            sync.RWMutex
	retired       bool
	book          model.OrderBookSnapshot
	hasBook       bool
	trades        []model.Trade
	ticker        *model.Ticker
	channel       model.ChannelState
	lastMessageAt time.Time

	bookLoadedAt   time.Time
	tradesLoadedAt time.Time
	tickerLoadedAt time.Time
}

var _ router.Handler = (*State)(nil)

// NewState creates an empty State for symbol.
func NewState(symbol string, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		symbol:  symbol,
		logger:  logger,
		channel: model.ChannelConnecting,
	}
}

// Symbol returns the symbol this state belongs to.
func (s *State) Symbol() string {
	return s.symbol
}

// Retire discards all further writes. Called when the symbol is deselected.
func (s *State) Retire() {
	s.mu.Lock()
	s.retired = true
	s.mu.Unlock()
}

// Retired reports whether the state no longer accepts writes.
func (s *State) Retired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.retired
}

// SetOrderbookSnapshot replaces the book with a REST snapshot.
func (s *State) SetOrderbookSnapshot(book model.OrderBookSnapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retired {
		return false
	}
	s.book = book
	s.hasBook = true
	s.bookLoadedAt = time.Now()
	return true
}

// SetTradesSnapshot replaces the tape with a REST snapshot, newest first as served.
func (s *State) SetTradesSnapshot(trades []model.Trade) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retired {
		return false
	}
	if len(trades) > MaxTrades {
		trades = trades[:MaxTrades]
	}
	s.trades = append([]model.Trade(nil), trades...)
	s.tradesLoadedAt = time.Now()
	return true
}

// SetTickerSnapshot replaces the ticker with a REST snapshot.
func (s *State) SetTickerSnapshot(ticker model.Ticker) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retired {
		return false
	}
	s.ticker = &ticker
	s.tickerLoadedAt = time.Now()
	return true
}

// SetChannelState records the push channel lifecycle state.
func (s *State) SetChannelState(state model.ChannelState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retired {
		return
	}
	s.channel = state
}

// ApplyOrderbook replaces both sides with a pushed book.
// A book that is empty on both sides is a heartbeat and leaves the book untouched.
func (s *State) ApplyOrderbook(msg router.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.acceptLocked(msg) {
		return
	}
	if msg.Book.IsEmpty() {
		return
	}

	s.book = msg.Book
	s.hasBook = true
}

// ApplyTrades prepends pushed trades to the tape and refreshes the ticker's last price.
// The batch keeps its wire order at the head of the tape.
func (s *State) ApplyTrades(msg router.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.acceptLocked(msg) || len(msg.Trades) == 0 {
		return
	}

	n := len(msg.Trades) + len(s.trades)
	if n > MaxTrades {
		n = MaxTrades
	}
	tape := make([]model.Trade, 0, n)
	for _, dt := range msg.Trades {
		if len(tape) == MaxTrades {
			break
		}
		tape = append(tape, dt.Trade)
	}
	for _, tr := range s.trades {
		if len(tape) == MaxTrades {
			break
		}
		tape = append(tape, tr)
	}
	s.trades = tape

	if s.ticker == nil {
		return
	}
	for _, dt := range msg.Trades {
		if dt.Priced {
			t := *s.ticker
			t.LastPrice = dt.Trade.Price
			s.ticker = &t
			return
		}
	}
}

// acceptLocked reports whether msg belongs to this state and records its arrival.
func (s *State) acceptLocked(msg router.Message) bool {
	if s.retired {
		return false
	}
	if msg.Symbol != s.symbol {
		s.logger.Debug("dropping message for other symbol",
			"symbol", s.symbol,
			"message_symbol", msg.Symbol,
			"kind", msg.Kind,
		)
		return false
	}
	s.lastMessageAt = msg.ReceivedAt
	return true
}

// View returns a copy of the current state.
func (s *State) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		Symbol:         s.symbol,
		Book:           s.book,
		HasBook:        s.hasBook,
		Trades:         append([]model.Trade(nil), s.trades...),
		ChannelState:   s.channel,
		LastMessageAt:  s.lastMessageAt,
		BookLoadedAt:   s.bookLoadedAt,
		TradesLoadedAt: s.tradesLoadedAt,
		TickerLoadedAt: s.tickerLoadedAt,
	}
	if s.ticker != nil {
		t := *s.ticker
		v.Ticker = &t
	}
	return v
}
