package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	tun, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tun.Resolution.DiceSides != 50 || tun.Prestige.PoolTotal != 100 {
		t.Errorf("defaults not applied: %+v", tun)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	body := "prestige:\n  friction_tax: 1.5\neconomy:\n  income_per_pop: 200\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	tun, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tun.Prestige.FrictionTax != 1.5 {
		t.Errorf("friction_tax = %v, want 1.5", tun.Prestige.FrictionTax)
	}
	if tun.Economy.IncomePerPop != 200 {
		t.Errorf("income_per_pop = %v, want 200", tun.Economy.IncomePerPop)
	}
	if tun.Resolution.CritSuccessMin != 96 {
		t.Errorf("untouched default lost: crit_success_min = %v", tun.Resolution.CritSuccessMin)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseEnvDefaults(t *testing.T) {
	rt, err := ParseEnv()
	if err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if rt.Addr == "" || rt.DBPath == "" {
		t.Errorf("env defaults missing: %+v", rt)
	}
}
