package hypergraph

import (
	"errors"
	"reflect"
	"testing"

	"polymarket-hypergraph-lab/internal/domain"
)

const (
	day1 = int64(1738108800) // 2025-01-29 00:00 UTC
	day2 = int64(1738195200) // 2025-01-30 00:00 UTC

	yesToken = "71321045679252212594626385532706912750332728571942532289631379312455583992563"
	noToken  = "52114319501245915516055106046884209969926127482827954674443846427813813222426"
)

// fill builds a buy fill: buyer pays collateral, seller provides the
// outcome token. maker is the buyer.
func buyFill(market, buyer, seller, token string, ts int64) *domain.Fill {
	return &domain.Fill{
		ID:           "f-" + buyer + "-" + seller,
		MarketSlug:   market,
		Maker:        buyer,
		Taker:        seller,
		MakerAssetID: domain.CollateralAssetID,
		TakerAssetID: token,
		Timestamp:    ts,
	}
}

func TestBuild_DailyFirstSeenOrder(t *testing.T) {
	// Day 1: t1 and t3 buy from t2. Day 2: t4 buys from t1.
	fills := []*domain.Fill{
		buyFill("m", "0xa1", "0xa2", yesToken, day1+3600),
		buyFill("m", "0xa3", "0xa2", yesToken, day1+7200),
		buyFill("m", "0xa4", "0xa1", yesToken, day2+60),
	}

	ds, err := Build(fills, Options{Mode: domain.ModeDaily})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Hyperedges: day1 BUY{a1,a3}, day1 SELL{a2}, day2 BUY{a4},
	// day2 SELL{a1}. IDs are assigned walking that order, so a3 gets
	// ID 2 even though a2 appears earlier in the input.
	wantLabels := []string{"0xa1", "0xa3", "0xa2", "0xa4"}
	if !reflect.DeepEqual(ds.NodeLabels, wantLabels) {
		t.Errorf("NodeLabels = %v, want %v", ds.NodeLabels, wantLabels)
	}

	wantNverts := []int{2, 1, 1, 1}
	if !reflect.DeepEqual(ds.Nverts, wantNverts) {
		t.Errorf("Nverts = %v, want %v", ds.Nverts, wantNverts)
	}

	wantSimplices := []int{1, 2, 3, 4, 1}
	if !reflect.DeepEqual(ds.Simplices, wantSimplices) {
		t.Errorf("Simplices = %v, want %v", ds.Simplices, wantSimplices)
	}

	wantTimes := []int64{day1, day1, day2, day2}
	if !reflect.DeepEqual(ds.Times, wantTimes) {
		t.Errorf("Times = %v, want %v", ds.Times, wantTimes)
	}

	if v := Verify(ds); len(v) != 0 {
		t.Errorf("Verify reported violations: %v", v)
	}
}

func TestBuild_SetCollapse(t *testing.T) {
	// Same buyer twice in one bucket/category counts once.
	fills := []*domain.Fill{
		buyFill("m", "0xb1", "0xb2", yesToken, day1+10),
		buyFill("m", "0xb1", "0xb2", yesToken, day1+20),
	}

	ds, err := Build(fills, Options{Mode: domain.ModeDaily})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got, want := ds.Nverts, []int{1, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("Nverts = %v, want %v", got, want)
	}
	if got, want := ds.NodeCount(), 2; got != want {
		t.Errorf("NodeCount = %d, want %d", got, want)
	}
}

func TestBuild_AddressCanonicalization(t *testing.T) {
	fills := []*domain.Fill{
		buyFill("m", "0xABCD", "0xEF01", yesToken, day1),
		buyFill("m", "0xabcd", "0xef01", yesToken, day1+5),
	}

	ds, err := Build(fills, Options{Mode: domain.ModeDaily})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got, want := ds.NodeLabels, []string{"0xabcd", "0xef01"}; !reflect.DeepEqual(got, want) {
		t.Errorf("NodeLabels = %v, want %v", got, want)
	}
}

func TestBuild_UnifiedMarketGrouping(t *testing.T) {
	// Two markets active on the same day: hyperedges must be
	// contiguous per market, markets alphabetical, BUY before SELL.
	fills := []*domain.Fill{
		buyFill("zebra-market", "0xc1", "0xc2", yesToken, day1+100),
		buyFill("alpha-market", "0xc3", "0xc4", yesToken, day1+200),
		buyFill("alpha-market", "0xc5", "0xc6", noToken, day1+300),
	}

	ds, err := Build(fills, Options{Mode: domain.ModeDaily})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var got []string
	for _, e := range ds.Edges {
		got = append(got, e.Key.MarketSlug+"/"+e.Key.OutcomeToken+"/"+string(e.Key.Side))
	}
	want := []string{
		"alpha-market/" + noToken + "/BUY",
		"alpha-market/" + noToken + "/SELL",
		"alpha-market/" + yesToken + "/BUY",
		"alpha-market/" + yesToken + "/SELL",
		"zebra-market/" + yesToken + "/BUY",
		"zebra-market/" + yesToken + "/SELL",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("edge order = %v, want %v", got, want)
	}
}

func TestBuild_TimeWindow(t *testing.T) {
	fills := []*domain.Fill{
		buyFill("m", "0xd1", "0xd2", yesToken, 7205), // window [7200, 10800)
		buyFill("m", "0xd3", "0xd4", yesToken, 10799),
		buyFill("m", "0xd5", "0xd6", yesToken, 10800), // next window
	}

	ds, err := Build(fills, Options{Mode: domain.ModeTimeWindow, WindowSize: 3600})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	wantTimes := []int64{7200, 7200, 10800, 10800}
	if !reflect.DeepEqual(ds.Times, wantTimes) {
		t.Errorf("Times = %v, want %v", ds.Times, wantTimes)
	}
	if got, want := ds.Nverts, []int{2, 2, 1, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("Nverts = %v, want %v", got, want)
	}
}

func TestBuild_TransactionMode(t *testing.T) {
	// Two fills in the same second stay separate hyperedges, ordered
	// by input sequence.
	fills := []*domain.Fill{
		buyFill("m", "0xe1", "0xe2", yesToken, day1),
		buyFill("m", "0xe3", "0xe4", yesToken, day1),
	}

	ds, err := Build(fills, Options{Mode: domain.ModeTransaction})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got, want := ds.HyperedgeCount(), 4; got != want {
		t.Fatalf("HyperedgeCount = %d, want %d", got, want)
	}
	if got, want := ds.Nverts, []int{1, 1, 1, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("Nverts = %v, want %v", got, want)
	}
	// Each fill's BUY/SELL pair stays adjacent; the sides of distinct
	// fills never interleave.
	for i, want := range []struct {
		seq  int64
		side domain.Side
	}{
		{0, domain.SideBuy},
		{0, domain.SideSell},
		{1, domain.SideBuy},
		{1, domain.SideSell},
	} {
		if got := ds.Edges[i].Key; got.Seq != want.seq || got.Side != want.side {
			t.Errorf("Edges[%d].Key = seq %d %s, want seq %d %s",
				i, got.Seq, got.Side, want.seq, want.side)
		}
	}
}

func TestBuild_TransactionModeFollowsFillOrder(t *testing.T) {
	// Same second, two markets: fill order wins over market name,
	// so node IDs are assigned in the order the fills arrived.
	fills := []*domain.Fill{
		buyFill("zeta", "0xe5", "0xe6", yesToken, day1),
		buyFill("alpha", "0xe7", "0xe8", yesToken, day1),
	}

	ds, err := Build(fills, Options{Mode: domain.ModeTransaction})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got, want := ds.Edges[0].Key.MarketSlug, "zeta"; got != want {
		t.Errorf("Edges[0] market = %q, want %q", got, want)
	}
	if got, want := ds.Edges[2].Key.MarketSlug, "alpha"; got != want {
		t.Errorf("Edges[2] market = %q, want %q", got, want)
	}
	if got, want := ds.NodeLabels[0], "0xe5"; got != want {
		t.Errorf("NodeLabels[0] = %q, want %q", got, want)
	}
}

func TestBuild_SelfTradeCountsBothRoles(t *testing.T) {
	fills := []*domain.Fill{
		buyFill("m", "0xf1", "0xf1", yesToken, day1),
	}

	ds, err := Build(fills, Options{Mode: domain.ModeDaily})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// One node, present in both the BUY and SELL hyperedges.
	if got, want := ds.NodeCount(), 1; got != want {
		t.Errorf("NodeCount = %d, want %d", got, want)
	}
	if got, want := ds.Simplices, []int{1, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("Simplices = %v, want %v", got, want)
	}
}

func TestBuild_Determinism(t *testing.T) {
	fills := []*domain.Fill{
		buyFill("m2", "0xa9", "0xa2", yesToken, day1+50),
		buyFill("m1", "0xa5", "0xa7", noToken, day2+10),
		buyFill("m1", "0xa1", "0xa9", yesToken, day1+90),
	}

	first, err := Build(fills, Options{Mode: domain.ModeDaily})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, err := Build(fills, Options{Mode: domain.ModeDaily})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("two builds over identical input diverged")
	}
}

func TestBuild_SharedIndexAcrossBuilds(t *testing.T) {
	index := NewNodeIndex()

	a := []*domain.Fill{buyFill("m1", "0xa1", "0xa2", yesToken, day1)}
	b := []*domain.Fill{buyFill("m2", "0xa2", "0xa3", yesToken, day1)}

	dsA, err := Build(a, Options{Mode: domain.ModeDaily, Index: index})
	if err != nil {
		t.Fatalf("Build a: %v", err)
	}
	dsB, err := Build(b, Options{Mode: domain.ModeDaily, Index: index})
	if err != nil {
		t.Fatalf("Build b: %v", err)
	}

	// 0xa2 keeps its ID from the first build.
	idA2, ok := index.Lookup("0xa2")
	if !ok {
		t.Fatal("0xa2 not indexed")
	}
	if got := dsA.Simplices[1]; got != idA2 {
		t.Errorf("first build SELL id = %d, want %d", got, idA2)
	}
	if got := dsB.Simplices[0]; got != idA2 {
		t.Errorf("second build BUY id = %d, want %d", got, idA2)
	}
	if got, want := index.Len(), 3; got != want {
		t.Errorf("index size = %d, want %d", got, want)
	}
}

func TestBuild_Errors(t *testing.T) {
	valid := buyFill("m", "0xa1", "0xa2", yesToken, day1)

	cases := []struct {
		name  string
		fills []*domain.Fill
		opts  Options
		want  error
	}{
		{"unknown mode", []*domain.Fill{valid}, Options{Mode: "hourly"}, ErrInvalidConfiguration},
		{"zero window", []*domain.Fill{valid}, Options{Mode: domain.ModeTimeWindow}, ErrInvalidConfiguration},
		{"negative window", []*domain.Fill{valid}, Options{Mode: domain.ModeTimeWindow, WindowSize: -60}, ErrInvalidConfiguration},
		{"no fills", nil, Options{Mode: domain.ModeDaily}, ErrEmptyInput},
		{
			"missing taker",
			[]*domain.Fill{{MarketSlug: "m", Maker: "0xa1", MakerAssetID: "0", TakerAssetID: yesToken, Timestamp: day1}},
			Options{Mode: domain.ModeDaily},
			ErrMalformedInput,
		},
		{
			"no collateral side",
			[]*domain.Fill{{MarketSlug: "m", Maker: "0xa1", Taker: "0xa2", MakerAssetID: yesToken, TakerAssetID: noToken, Timestamp: day1}},
			Options{Mode: domain.ModeDaily},
			ErrMalformedInput,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.fills, tc.opts)
			if !errors.Is(err, tc.want) {
				t.Errorf("Build error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestDayStart(t *testing.T) {
	if got := DayStart(day1 + 13*3600 + 45); got != day1 {
		t.Errorf("DayStart = %d, want %d", got, day1)
	}
	if got := DayStart(day1); got != day1 {
		t.Errorf("DayStart at midnight = %d, want %d", got, day1)
	}
}

func TestWindowStart(t *testing.T) {
	if got := WindowStart(7205, 3600); got != 7200 {
		t.Errorf("WindowStart = %d, want 7200", got)
	}
	if got := WindowStart(7200, 3600); got != 7200 {
		t.Errorf("WindowStart aligned = %d, want 7200", got)
	}
}
