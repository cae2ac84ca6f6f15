package matching

import (
	"encoding/json"
	"math"
	"testing"
)

func TestOrderUnmarshalDerivesRate(t *testing.T) {
	raw := `{"id":"o1","type":"Offer","energy":30,"price":10,"seller":"s1"}`

	var o Order
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if math.Abs(o.EnergyRate-10.0/30.0) > 1e-12 {
		t.Errorf("expected derived rate 10/30, got %v", o.EnergyRate)
	}
	if !o.Valid() {
		t.Error("order with derivable rate must be valid")
	}
}

func TestOrderUnmarshalExplicitRateWins(t *testing.T) {
	raw := `{"id":"o1","type":"Offer","energy":30,"price":10,"energy_rate":0.5}`

	var o Order
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if o.EnergyRate != 0.5 {
		t.Errorf("explicit energy_rate must win over derivation, got %v", o.EnergyRate)
	}
}

func TestOrderUnmarshalUnderivableRateInvalid(t *testing.T) {
	raw := `{"id":"o1","type":"Offer","seller":"s1"}`

	var o Order
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if o.Valid() {
		t.Error("order without energy or rate must be invalid")
	}
}

func TestOrderParticipant(t *testing.T) {
	b := &Order{Type: TypeBid, Buyer: "buyer", BuyerID: "buyer-id", BuyerOriginID: "buyer-origin"}
	o := &Order{Type: TypeOffer, Seller: "seller", SellerID: "seller-id", SellerOriginID: "seller-origin"}

	if b.Participant() != "buyer" || b.ParticipantID() != "buyer-id" || b.ParticipantOriginID() != "buyer-origin" {
		t.Errorf("bid participant accessors wrong: %+v", b)
	}
	if o.Participant() != "seller" || o.ParticipantID() != "seller-id" || o.ParticipantOriginID() != "seller-origin" {
		t.Errorf("offer participant accessors wrong: %+v", o)
	}
}

func TestOrderRequirementsDecode(t *testing.T) {
	raw := `{"id":"b1","type":"Bid","energy":10,"energy_rate":5,"buyer":"b",
		"requirements":[{"trading_partners":["seller-1"],"energy":5}]}`

	var o Order
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(o.Requirements) != 1 {
		t.Fatalf("expected 1 requirement, got %d", len(o.Requirements))
	}
	req := o.Requirements[0]
	if len(req.TradingPartners) != 1 || req.Energy == nil || *req.Energy != 5 {
		t.Errorf("requirement not decoded: %+v", req)
	}
}
