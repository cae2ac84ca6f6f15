package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/gridsim/mycomatch/pkg/matching"
)

const (
	numMarkets       = 10
	numSlots         = 24
	ordersPerSide    = 200
	minRate, maxRate = 1.0, 30.0
	minEnergy        = 0.1
	maxEnergy        = 100.0
)

func randomSnapshot(rng *rand.Rand) matching.Snapshot {
	snapshot := make(matching.Snapshot, numMarkets)
	for m := 0; m < numMarkets; m++ {
		marketID := fmt.Sprintf("market-%03d", m)
		slots := make(map[string]*matching.OrderBatch, numSlots)
		for s := 0; s < numSlots; s++ {
			slot := fmt.Sprintf("2021-10-06T%02d:00", s)
			batch := &matching.OrderBatch{}
			for i := 0; i < ordersPerSide; i++ {
				batch.Bids = append(batch.Bids, &matching.Order{
					ID:         fmt.Sprintf("%s-%s-bid-%04d", marketID, slot, i),
					Type:       matching.TypeBid,
					Energy:     minEnergy + rng.Float64()*(maxEnergy-minEnergy),
					EnergyRate: minRate + rng.Float64()*(maxRate-minRate),
					Buyer:      fmt.Sprintf("buyer-%03d", rng.Intn(50)),
				})
				batch.Offers = append(batch.Offers, &matching.Order{
					ID:         fmt.Sprintf("%s-%s-offer-%04d", marketID, slot, i),
					Type:       matching.TypeOffer,
					Energy:     minEnergy + rng.Float64()*(maxEnergy-minEnergy),
					EnergyRate: minRate + rng.Float64()*(maxRate-minRate),
					Seller:     fmt.Sprintf("seller-%03d", rng.Intn(50)),
				})
			}
			slots[slot] = batch
		}
		snapshot[marketID] = slots
	}
	return snapshot
}

func main() {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	snapshot := randomSnapshot(rng)
	totalOrders := numMarkets * numSlots * ordersPerSide * 2

	algorithms := []struct {
		name string
		alg  matching.MatchingAlgorithm
	}{
		{matching.AlgorithmPayAsBid, matching.PayAsBid{}},
		{matching.AlgorithmAttributed, matching.DefaultAttributed()},
		{matching.AlgorithmPreferredPartners, matching.PreferredPartners{}},
	}

	for _, a := range algorithms {
		start := time.Now()
		matches := a.alg.Match(snapshot)
		elapsed := time.Since(start)
		summary := matching.Summarize(matches)

		fmt.Println("--------")
		fmt.Printf("Algorithm    : %s\n", a.name)
		fmt.Printf("Total Orders : %d\n", totalOrders)
		fmt.Printf("Matches      : %d\n", summary.Matches)
		fmt.Printf("Total Energy : %s\n", summary.TotalEnergy)
		fmt.Printf("Total Value  : %s\n", summary.TotalValue)
		fmt.Printf("Time Taken   : %s\n", elapsed)
		fmt.Printf("Orders/sec   : %.0f\n", float64(totalOrders)/elapsed.Seconds())
	}
}
