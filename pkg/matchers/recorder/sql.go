package recorder

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gridsim/mycomatch/pkg/matching"
)

type RecommendationRow struct {
	ID             string          `gorm:"column:id;primaryKey"`
	BatchID        string          `gorm:"column:batch_id;index"`
	MarketID       string          `gorm:"column:market_id"`
	TimeSlot       string          `gorm:"column:time_slot"`
	BidID          string          `gorm:"column:bid_id"`
	OfferID        string          `gorm:"column:offer_id"`
	Buyer          string          `gorm:"column:buyer"`
	Seller         string          `gorm:"column:seller"`
	SelectedEnergy decimal.Decimal `gorm:"column:selected_energy;type:numeric(18,6)"`
	TradeRate      decimal.Decimal `gorm:"column:trade_rate;type:numeric(18,6)"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
}

func (RecommendationRow) TableName() string {
	return "recommendations"
}

type VerdictRow struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Payload   []byte    `gorm:"column:payload;type:jsonb"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (VerdictRow) TableName() string {
	return "recommendation_verdicts"
}

// SQL persists the history in postgres.
type SQL struct {
	db *gorm.DB
}

func NewSQL(db *gorm.DB) *SQL {
	return &SQL{db: db}
}

func (s *SQL) RecordSubmission(ctx context.Context, matches []*matching.BidOfferMatch, _ matching.Summary) (string, error) {
	batchID := uuid.New().String()
	if len(matches) == 0 {
		return batchID, nil
	}

	rows := make([]*RecommendationRow, 0, len(matches))
	now := time.Now()
	for _, m := range matches {
		row := &RecommendationRow{
			ID:             uuid.New().String(),
			BatchID:        batchID,
			MarketID:       m.MarketID,
			TimeSlot:       m.TimeSlot,
			SelectedEnergy: decimal.NewFromFloat(m.SelectedEnergy),
			TradeRate:      decimal.NewFromFloat(m.TradeRate),
			CreatedAt:      now,
		}
		if len(m.Bids) > 0 {
			row.BidID = m.Bids[0].ID
			row.Buyer = m.Bids[0].Buyer
		}
		if len(m.Offers) > 0 {
			row.OfferID = m.Offers[0].ID
			row.Seller = m.Offers[0].Seller
		}
		rows = append(rows, row)
	}

	if err := s.db.WithContext(ctx).Create(rows).Error; err != nil {
		return "", err
	}
	return batchID, nil
}

func (s *SQL) RecordVerdict(ctx context.Context, payload json.RawMessage) error {
	row := &VerdictRow{
		ID:        uuid.New().String(),
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Create(row).Error
}
