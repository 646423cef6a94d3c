package app

import (
	"testing"

	"github.com/fd1az/streamfeed/business/streaming/domain"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func lvl(price, qty string) domain.OrderbookLevel {
	return domain.OrderbookLevel{Price: d(price), Quantity: d(qty)}
}

func TestApplySnapshotSortsAndTrims(t *testing.T) {
	e := NewBookEngine()
	book := &domain.OrderbookData{Symbol: "BTC/USD"}

	bids := []domain.OrderbookLevel{lvl("50001", "2"), lvl("50003", "1")}
	asks := []domain.OrderbookLevel{lvl("50007", "3"), lvl("50005", "1")}
	e.ApplySnapshot(book, bids, asks, 1000)

	if book.BestBid().Price.String() != "50003" {
		t.Fatalf("best bid = %s, want 50003", book.BestBid().Price)
	}
	if book.BestAsk().Price.String() != "50005" {
		t.Fatalf("best ask = %s, want 50005", book.BestAsk().Price)
	}
	spread := book.BestAsk().Price.Sub(book.BestBid().Price)
	if spread.String() != "2" {
		t.Fatalf("spread = %s, want 2", spread)
	}
}

func TestApplyBidDeltaRemoveAndInsert(t *testing.T) {
	e := NewBookEngine()
	book := &domain.OrderbookData{}
	e.ApplySnapshot(book,
		[]domain.OrderbookLevel{lvl("50003", "1"), lvl("50001", "2")},
		nil, 1000)

	e.ApplyBidDelta(book, lvl("50003", "0"), 1001)
	if book.BestBid().Price.String() != "50001" {
		t.Fatalf("after delete, best bid = %s, want 50001", book.BestBid().Price)
	}

	e.ApplyBidDelta(book, lvl("50002", "5"), 1002)
	want := []string{"50002", "50001"}
	for i, w := range want {
		if book.Bids[i].Price.String() != w {
			t.Fatalf("bids[%d] = %s, want %s", i, book.Bids[i].Price, w)
		}
	}
}

func TestApplySignedAmountRow(t *testing.T) {
	e := NewBookEngine()
	book := &domain.OrderbookData{}

	e.ApplySignedAmountRow(book, d("50000"), 1, d("1.5"), 1000)
	if len(book.Bids) != 1 || book.Bids[0].Quantity.String() != "1.5" {
		t.Fatalf("expected bid inserted, got %+v", book.Bids)
	}

	e.ApplySignedAmountRow(book, d("50000"), 0, d("1.5"), 1001)
	if len(book.Bids) != 0 {
		t.Fatalf("expected bid removed, got %+v", book.Bids)
	}

	e.ApplySignedAmountRow(book, d("50004"), 1, d("-2.0"), 1002)
	if len(book.Asks) != 1 || book.Asks[0].Quantity.String() != "2" {
		t.Fatalf("expected ask inserted qty 2, got %+v", book.Asks)
	}
}

func TestCrossedBookIsCountedNotCorrected(t *testing.T) {
	e := NewBookEngine()
	book := &domain.OrderbookData{}
	e.ApplySnapshot(book,
		[]domain.OrderbookLevel{lvl("100", "1")},
		[]domain.OrderbookLevel{lvl("101", "1")}, 1000)

	e.ApplyBidDelta(book, lvl("102", "1"), 1001)

	if !book.IsCrossed() {
		t.Fatalf("expected crossed book")
	}
	if book.CrossedCount == 0 {
		t.Fatalf("expected CrossedCount to be incremented")
	}
	if book.BestBid().Price.String() != "102" {
		t.Fatalf("engine must not auto-correct a crossed book")
	}
}
