package main

import (
	"encoding/json"
	"strings"
	"testing"
)

const bidTabCSV = `Contract Number,Letting Date,District,Route,Item Number,Item Description,Quantity,Unit Price
R-41000,03/12/2024,Seymour,SR 46,205-12616,Silt Fence,"1,200",$2.50
R-40500,2023-08-01,Vincennes,US 41,205-12616,Silt Fence,800,2.00
R-40500,2023-08-01,Vincennes,US 41,205-12108,Inlet Protection,6,150
`

func resetPricingFlags(t *testing.T) {
	t.Helper()
	prev := pricingFlags
	pricingFlags.db = ""
	pricingFlags.format = "text"
	pricingFlags.contracts = 10
	t.Cleanup(func() { pricingFlags = prev })
}

func TestPricingImportAndShow(t *testing.T) {
	dir := useConfig(t, "")
	resetPricingFlags(t)
	csvPath := writeFile(t, dir, "bidtabs.csv", bidTabCSV)

	cmd, out := newTestCommand()
	if err := importBidTabs(cmd, []string{csvPath}); err != nil {
		t.Fatalf("importBidTabs() error = %v", err)
	}
	if !strings.Contains(out.String(), "3 bids imported") {
		t.Errorf("import output = %q", out.String())
	}

	t.Run("all items", func(t *testing.T) {
		cmd, out := newTestCommand()
		if err := showPricing(cmd, nil); err != nil {
			t.Fatalf("showPricing() error = %v", err)
		}
		for _, want := range []string{"205-12616", "205-12108", "$2.25"} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("table missing %q:\n%s", want, out.String())
			}
		}
	})

	t.Run("one item as json", func(t *testing.T) {
		pricingFlags.format = "json"
		pricingFlags.contracts = 1
		cmd, out := newTestCommand()
		if err := showPricing(cmd, []string{"205-12616"}); err != nil {
			t.Fatalf("showPricing() error = %v", err)
		}

		var got itemHistory
		if err := json.Unmarshal(out.Bytes(), &got); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if got.Bids != 2 || got.AveragePrice != 2.25 {
			t.Errorf("history = %+v", got)
		}
		if len(got.Contracts) != 1 || got.Contracts[0].Contract != "R-41000" {
			t.Errorf("contracts = %+v, want the most recent letting only", got.Contracts)
		}
	})
}

func TestPricingImport_MissingColumns(t *testing.T) {
	dir := useConfig(t, "")
	resetPricingFlags(t)
	csvPath := writeFile(t, dir, "bad.csv", "Description,Price\nSilt fence,2.5\n")

	cmd, _ := newTestCommand()
	if err := importBidTabs(cmd, []string{csvPath}); err == nil {
		t.Error("expected error for an export without contract and item columns")
	}
}

func TestItemHistoryString_NoBids(t *testing.T) {
	got := itemHistory{ItemNumber: "205-99999"}.String()
	if got != "No bids for 205-99999." {
		t.Errorf("String() = %q", got)
	}
}
