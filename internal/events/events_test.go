package events

import "testing"

func TestBus_EmitAssignsIDAndNotifies(t *testing.T) {
	b := NewBus(10)
	var got []Event
	b.Subscribe(func(e Event) { got = append(got, e) })

	b.Emit(Event{Kind: KindWarDeclared, Source: "a", Target: "b"})

	if len(got) != 1 {
		t.Fatalf("listener calls = %d, want 1", len(got))
	}
	if got[0].ID == "" {
		t.Error("event ID was not assigned")
	}
}

func TestBus_RecentIsBounded(t *testing.T) {
	b := NewBus(3)
	for i := 0; i < 5; i++ {
		b.Emit(Event{Kind: KindTradeCompleted, Quantity: i})
	}
	recent := b.Recent(0)
	if len(recent) != 3 {
		t.Fatalf("Recent = %d events, want 3", len(recent))
	}
	if recent[0].Quantity != 2 || recent[2].Quantity != 4 {
		t.Errorf("Recent quantities = %d..%d, want 2..4", recent[0].Quantity, recent[2].Quantity)
	}
	if got := len(b.Recent(2)); got != 2 {
		t.Errorf("Recent(2) = %d events, want 2", got)
	}
}

func TestBundle_Tags(t *testing.T) {
	bundle := NewBundle(TagGainMoney).PutInt("amount", 500).PutName("company", "x")
	if !bundle.HasTag(TagGainMoney) {
		t.Error("bundle missing gain-money tag")
	}
	if bundle.HasTag(TagGainResearch) {
		t.Error("bundle has unexpected gain-research tag")
	}
	if bundle.Ints["amount"] != 500 {
		t.Errorf("amount = %d, want 500", bundle.Ints["amount"])
	}
}
