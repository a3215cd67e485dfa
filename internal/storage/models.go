package storage

// SeenPair journals pairs that have produced a first-sight alert, so the
// dedupe set survives restarts.
type SeenPair struct {
	PairAddress string `gorm:"primaryKey;size:128"`
	Symbol      string `gorm:"size:32"`
	Source      string `gorm:"size:32;not null"` // dexscreener, birdeye, pumpportal
	SeenTS      int64  `gorm:"not null;index"`
}

func (SeenPair) TableName() string {
	return "seen_pairs"
}

// AlertRecord stores every alert the bot emitted
type AlertRecord struct {
	ID           int64   `gorm:"primaryKey;autoIncrement"`
	Kind         string  `gorm:"size:32;not null;index"`
	Severity     string  `gorm:"size:16;not null"`
	PairAddress  string  `gorm:"size:128;not null;index"`
	Symbol       string  `gorm:"size:32"`
	Name         string  `gorm:"size:255"`
	PriceUSD     float64 `gorm:"type:decimal(30,12);not null"`
	LiquidityUSD float64 `gorm:"type:decimal(20,6);not null"`
	FromEntryPct float64 `gorm:"type:decimal(10,4)"`
	CreatedTS    int64   `gorm:"not null;index"`
}

func (AlertRecord) TableName() string {
	return "alerts"
}

// PositionJournal records position lifecycle transitions for later review
type PositionJournal struct {
	ID               int64   `gorm:"primaryKey;autoIncrement"`
	PairAddress      string  `gorm:"size:128;not null;index"`
	Symbol           string  `gorm:"size:32"`
	Event            string  `gorm:"size:32;not null"` // entered, stop_loss, trailing_stop, rug, evicted
	EntryPrice       float64 `gorm:"type:decimal(30,12);not null"`
	ExitPrice        float64 `gorm:"type:decimal(30,12)"`
	PeakPrice        float64 `gorm:"type:decimal(30,12)"`
	PeakLiquidityUSD float64 `gorm:"type:decimal(20,6)"`
	EnteredTS        int64   `gorm:"not null"`
	CreatedTS        int64   `gorm:"not null;index"`
}

func (PositionJournal) TableName() string {
	return "position_journal"
}
